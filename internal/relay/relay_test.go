package relay

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/large-farva/rigbridge/internal/riglink"
)

type fakeSender struct {
	frames []string
	err    error
}

func (f *fakeSender) Send(frame string) error {
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, frame)
	return nil
}

func TestRelay_AppendsTerminator(t *testing.T) {
	s := &fakeSender{}
	r := New(s, nil)

	if err := r.Relay("wFA14074000;"); err != nil {
		t.Fatalf("Relay: %v", err)
	}
	if err := r.Relay("wAG0100;\n"); err != nil {
		t.Fatalf("Relay: %v", err)
	}
	if len(s.frames) != 2 || s.frames[0] != "wFA14074000;\n" || s.frames[1] != "wAG0100;\n" {
		t.Fatalf("frames = %q", s.frames)
	}
}

func TestRelay_ReportsFailure(t *testing.T) {
	s := &fakeSender{err: riglink.ErrNotConnected}
	r := New(s, nil)

	if err := r.Relay("TX1;"); !errors.Is(err, riglink.ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
}

func TestRelay_DisconnectedLinkWritesNothing(t *testing.T) {
	link := riglink.New(riglink.Options{Addr: "127.0.0.1:1"})
	r := New(link, nil)

	if err := r.Relay("TX1;"); !errors.Is(err, riglink.ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
}

func TestRelayRaw(t *testing.T) {
	tests := []struct {
		payload string
		ok      bool
		text    string
	}{
		{`"wRA01;"`, true, "wRA01;"},
		{`""`, true, ""},
		{`42`, false, ""},
		{`{"cmd":"x"}`, false, ""},
		{`null`, false, ""},
		{`["a"]`, false, ""},
	}
	for _, tc := range tests {
		s := &fakeSender{}
		r := New(s, nil)
		text, ok := r.RelayRaw(json.RawMessage(tc.payload))
		if ok != tc.ok || text != tc.text {
			t.Errorf("RelayRaw(%s) = %q,%v want %q,%v", tc.payload, text, ok, tc.text, tc.ok)
		}
		if !tc.ok && len(s.frames) != 0 {
			t.Errorf("RelayRaw(%s) sent %q", tc.payload, s.frames)
		}
	}
}
