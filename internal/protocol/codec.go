package protocol

import (
	"strconv"
	"strings"
)

const (
	queryPrefix = "w"
	recordSep   = ";"
)

// BuildQuery returns one raw-passthrough frame asking for every key:
// "w" followed by "<KEY>;" per key. The newline terminator is added by the
// link on send.
func BuildQuery(keys []Key) string {
	var b strings.Builder
	b.WriteString(queryPrefix)
	for _, k := range keys {
		b.WriteString(string(k))
		b.WriteString(recordSep)
	}
	return b.String()
}

// Normalize strips NUL and carriage-return bytes and turns newlines into
// record separators.
func Normalize(raw string) string {
	return strings.NewReplacer("\x00", "", "\r", "", "\n", recordSep).Replace(raw)
}

// Records splits a reply into its non-empty records.
func Records(raw string) []string {
	parts := strings.Split(Normalize(raw), recordSep)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseResponse decodes a raw reply against keys. For every key the first
// record starting with that key is decoded according to the key's Kind.
// Records for other keys are ignored; keys whose record is missing or not
// numeric are left out of the result.
func ParseResponse(raw string, keys []Key) StateMap {
	records := Records(raw)
	out := make(StateMap, len(keys))
	for _, k := range keys {
		for _, rec := range records {
			if !strings.HasPrefix(rec, string(k)) {
				continue
			}
			if v, ok := decode(k.Kind(), rec[len(k):]); ok {
				out[k] = v
			}
			break
		}
	}
	return out
}

func decode(kind Kind, rest string) (int64, bool) {
	switch kind {
	case KindFrequency:
		return leadingInt(rest)
	case KindEnum:
		return embeddedInt(rest)
	default:
		v, ok := embeddedInt(rest)
		if !ok {
			return 0, false
		}
		return clamp(v, 0, 255), true
	}
}

// leadingInt parses an optional sign followed by digits at the start of s.
// Anything after the digits is ignored.
func leadingInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	v, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// embeddedInt finds the first "-?digits" run anywhere in s.
func embeddedInt(s string) (int64, bool) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			if i > 0 && s[i-1] == '-' {
				return leadingInt(s[i-1:])
			}
			return leadingInt(s[i:])
		}
	}
	return 0, false
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
