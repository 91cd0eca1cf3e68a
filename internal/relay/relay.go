// Package relay forwards client commands to the rig link verbatim. There is
// no queueing and no retry: a command sent while the link is down is lost
// and only logged.
package relay

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"strings"
)

// Sender writes one frame to the rig.
type Sender interface {
	Send(frame string) error
}

// Relay forwards command text to a Sender.
type Relay struct {
	sender Sender
	log    *log.Logger
}

// New creates a relay writing to sender.
func New(sender Sender, logger *log.Logger) *Relay {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Relay{sender: sender, log: logger}
}

// Relay sends text to the rig with a newline terminator. The error is the
// write outcome only; it says nothing about whether the rig acted on it.
func (r *Relay) Relay(text string) error {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if err := r.sender.Send(text); err != nil {
		r.log.Printf("relay %q: %v", strings.TrimSpace(text), err)
		return err
	}
	return nil
}

// RelayRaw relays a JSON-encoded client payload. Payloads that are not JSON
// strings are dropped without error; ok reports whether the payload was
// textual and therefore accepted for sending.
func (r *Relay) RelayRaw(payload json.RawMessage) (text string, ok bool) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false
	}
	if err := json.Unmarshal(trimmed, &text); err != nil {
		return "", false
	}
	_ = r.Relay(text)
	return text, true
}
