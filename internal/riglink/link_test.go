package riglink

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeDaemon is a loopback TCP server standing in for rigctld. It records
// every line it receives and keeps accepted connections for the test to
// drive.
type fakeDaemon struct {
	ln    net.Listener
	mu    sync.Mutex
	lines []string
	conns []net.Conn
}

func newFakeDaemon(t *testing.T) *fakeDaemon {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	d := &fakeDaemon{ln: ln}
	go d.accept()
	t.Cleanup(d.close)
	return d
}

func (d *fakeDaemon) accept() {
	for {
		c, err := d.ln.Accept()
		if err != nil {
			return
		}
		d.mu.Lock()
		d.conns = append(d.conns, c)
		d.mu.Unlock()
		go func() {
			sc := bufio.NewScanner(c)
			for sc.Scan() {
				d.mu.Lock()
				d.lines = append(d.lines, sc.Text())
				d.mu.Unlock()
			}
		}()
	}
}

func (d *fakeDaemon) addr() string { return d.ln.Addr().String() }

func (d *fakeDaemon) received() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.lines...)
}

func (d *fakeDaemon) lastConn() net.Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

func (d *fakeDaemon) connCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

func (d *fakeDaemon) close() {
	_ = d.ln.Close()
	d.mu.Lock()
	for _, c := range d.conns {
		_ = c.Close()
	}
	d.mu.Unlock()
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSend_NotConnected(t *testing.T) {
	d := newFakeDaemon(t)
	l := New(Options{Addr: d.addr(), Timeout: time.Second})

	err := l.Send("wAG0;")
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Send err = %v, want ErrNotConnected", err)
	}

	time.Sleep(50 * time.Millisecond)
	if d.connCount() != 0 || len(d.received()) != 0 {
		t.Fatalf("expected no socket activity, got %d conns, lines %v", d.connCount(), d.received())
	}
}

func TestConnectSendAndDrain(t *testing.T) {
	d := newFakeDaemon(t)
	l := New(Options{Addr: d.addr(), Timeout: time.Second})
	defer l.Close()

	var states []State
	var mu sync.Mutex
	l.OnStateChange(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	if !l.Connect(context.Background()) {
		t.Fatalf("Connect failed")
	}
	if l.State() != Connected {
		t.Fatalf("state = %v, want CONNECTED", l.State())
	}

	if err := l.Send("wAG0;"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := l.Send("FA14074000;\n"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	waitFor(t, "two lines", func() bool { return len(d.received()) == 2 })
	got := d.received()
	if got[0] != "wAG0;" || got[1] != "FA14074000;" {
		t.Fatalf("daemon received %q", got)
	}

	waitFor(t, "server conn", func() bool { return d.lastConn() != nil })
	if _, err := d.lastConn().Write([]byte("AG0120;\n")); err != nil {
		t.Fatalf("server write: %v", err)
	}
	var drained strings.Builder
	waitFor(t, "reply", func() bool {
		drained.WriteString(l.Drain())
		return drained.String() == "AG0120;\n"
	})
	if rest := l.Drain(); rest != "" {
		t.Fatalf("Drain after drain = %q, want empty", rest)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(states) != 2 || states[0] != Connecting || states[1] != Connected {
		t.Fatalf("state transitions = %v", states)
	}
}

func TestReset(t *testing.T) {
	d := newFakeDaemon(t)
	l := New(Options{Addr: d.addr(), Timeout: time.Second})
	defer l.Close()

	if !l.Connect(context.Background()) {
		t.Fatalf("Connect failed")
	}
	waitFor(t, "server conn", func() bool { return d.lastConn() != nil })
	_, _ = d.lastConn().Write([]byte("stale;"))
	waitFor(t, "stale bytes", func() bool {
		l.bufMu.Lock()
		defer l.bufMu.Unlock()
		return l.buf.Len() > 0
	})

	l.Reset()
	if got := l.Drain(); got != "" {
		t.Fatalf("Drain after Reset = %q", got)
	}
}

func TestConnect_Refused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	l := New(Options{Addr: addr, Timeout: 200 * time.Millisecond})
	if l.Connect(context.Background()) {
		t.Fatalf("Connect to closed port succeeded")
	}
	if l.Connect(context.Background()) {
		t.Fatalf("Connect to closed port succeeded")
	}
	if l.State() != Disconnected {
		t.Fatalf("state = %v, want DISCONNECTED", l.State())
	}
	if l.ConnectFailures() != 2 {
		t.Fatalf("failures = %d, want 2", l.ConnectFailures())
	}
}

func TestPeerCloseAndReconnect(t *testing.T) {
	d := newFakeDaemon(t)
	l := New(Options{Addr: d.addr(), Timeout: time.Second, ReconnectInterval: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	waitFor(t, "first connect", func() bool { return l.Connected() && d.connCount() == 1 })

	_ = d.lastConn().Close()
	waitFor(t, "reconnect", func() bool { return d.connCount() >= 2 && l.Connected() })

	cancel()
	<-done
	if l.State() != Disconnected {
		t.Fatalf("state after Run = %v, want DISCONNECTED", l.State())
	}
	if err := l.Send("x"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Send after close err = %v", err)
	}
}
