package protocol

import (
	"fmt"
	"strings"
	"testing"
)

func TestBuildQuery(t *testing.T) {
	got := BuildQuery([]Key{"AG0", "SQ0"})
	if got != "wAG0;SQ0;" {
		t.Fatalf("BuildQuery = %q, want %q", got, "wAG0;SQ0;")
	}

	if got := BuildQuery(nil); got != "w" {
		t.Fatalf("BuildQuery(nil) = %q, want %q", got, "w")
	}

	full := BuildQuery(Keys)
	if !strings.HasPrefix(full, "wAG0;SQ0;RM0;") || !strings.HasSuffix(full, "MD0;ML0;") {
		t.Fatalf("unexpected full query %q", full)
	}
}

func TestParseResponse_LevelValues(t *testing.T) {
	for _, k := range Keys {
		if k.Kind() == KindFrequency {
			continue
		}
		for v := int64(0); v <= 255; v++ {
			raw := fmt.Sprintf("%s%d;", k, v)
			got := ParseResponse(raw, Keys)
			if got[k] != v {
				t.Fatalf("%s: parse(%q) = %d, want %d", k, raw, got[k], v)
			}
		}
	}
}

func TestParseResponse_Frequency(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
	}{
		{"FA14074000;", 14074000},
		{"FA00014074000;", 14074000},
		{"FA-5;", -5},
		{"FA1300000000;", 1300000000},
	}
	for _, tc := range tests {
		got := ParseResponse(tc.raw, []Key{KeyFreqA})
		v, ok := got[KeyFreqA]
		if !ok || v != tc.want {
			t.Errorf("parse(%q) = %d (present=%v), want %d", tc.raw, v, ok, tc.want)
		}
	}
}

func TestParseResponse_Clamp(t *testing.T) {
	got := ParseResponse("AG0300;SQ0-4;", Keys)
	if got[KeyAFGain] != 255 {
		t.Errorf("AG0 = %d, want 255", got[KeyAFGain])
	}
	if got[KeySquelch] != 0 {
		t.Errorf("SQ0 = %d, want 0", got[KeySquelch])
	}
}

func TestParseResponse_EnumUnclamped(t *testing.T) {
	got := ParseResponse("MD0300;", Keys)
	if got[KeyMode] != 300 {
		t.Fatalf("MD0 = %d, want 300", got[KeyMode])
	}
}

func TestParseResponse_AbsentAndUnknown(t *testing.T) {
	got := ParseResponse("ZZ12;XY;AG010;", Keys)
	if len(got) != 1 {
		t.Fatalf("expected only AG0, got %v", got)
	}
	if _, ok := got[KeySquelch]; ok {
		t.Fatalf("SQ0 must be absent, got %v", got)
	}
}

func TestParseResponse_NonNumericOmitted(t *testing.T) {
	got := ParseResponse("FAabc;AG0;PS?;", Keys)
	if len(got) != 0 {
		t.Fatalf("expected empty map, got %v", got)
	}
}

func TestParseResponse_FirstRecordWins(t *testing.T) {
	got := ParseResponse("AG011;AG022;", Keys)
	if got[KeyAFGain] != 11 {
		t.Fatalf("AG0 = %d, want 11", got[KeyAFGain])
	}
}

func TestParseResponse_Separators(t *testing.T) {
	raw := "AG010\r\nSQ020\x00\nFA7074000;;\n"
	got := ParseResponse(raw, Keys)
	want := StateMap{KeyAFGain: 10, KeySquelch: 20, KeyFreqA: 7074000}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %d, want %d", k, got[k], v)
		}
	}
}

func TestParseResponse_RoundTrip(t *testing.T) {
	values := map[Key]int64{}
	var b strings.Builder
	for i, k := range Keys {
		v := int64(i * 17 % 256)
		if k.Kind() == KindFrequency {
			v = 14074000 + int64(i)
		}
		values[k] = v
		fmt.Fprintf(&b, "%s%d;", k, v)
	}

	got := ParseResponse(b.String(), Keys)
	if len(got) != len(values) {
		t.Fatalf("got %d keys, want %d", len(got), len(values))
	}
	for k, v := range values {
		if got[k] != v {
			t.Errorf("%s = %d, want %d", k, got[k], v)
		}
	}
}

func TestSMeterLabel(t *testing.T) {
	tests := map[int64]string{0: "S0", 19: "S0", 20: "S1", 120: "S7", 155: "S9", 255: "+60", 300: "S?", -1: "S?"}
	for raw, want := range tests {
		if got := SMeterLabel(raw); got != want {
			t.Errorf("SMeterLabel(%d) = %q, want %q", raw, got, want)
		}
	}
}

func TestSWRLabel(t *testing.T) {
	tests := map[int64]string{0: "1.0", 127: "3.0", 255: "99.9"}
	for raw, want := range tests {
		if got := SWRLabel(raw); got != want {
			t.Errorf("SWRLabel(%d) = %q, want %q", raw, got, want)
		}
	}
}

func TestKeyKnown(t *testing.T) {
	for _, k := range Keys {
		if !k.Known() {
			t.Errorf("%s not known", k)
		}
	}
	for _, k := range []Key{"", "ZZ", "FA1", "ag0"} {
		if k.Known() {
			t.Errorf("%q reported known", k)
		}
	}
}
