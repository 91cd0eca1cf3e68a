// Package riglink owns the single TCP session to the rig-control daemon.
// It knows nothing about the payload: callers write frames and collect
// whatever bytes the daemon sends back in between. Socket failures never
// escape as errors from the background paths; they only flip the state.
package riglink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"sync"
	"time"
)

// State is the connectivity of the link.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "DISCONNECTED"
	case Connecting:
		return "CONNECTING"
	case Connected:
		return "CONNECTED"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// ErrNotConnected is returned by Send when there is no live session. No
// bytes are written in that case.
var ErrNotConnected = errors.New("riglink: no connection")

// Options configures a Link.
type Options struct {
	Addr              string        // host:port of the rig daemon
	Timeout           time.Duration // dial and write timeout
	ReconnectInterval time.Duration // period of the reconnect check
	Logger            *log.Logger
}

// Link is one outbound TCP session plus the buffer of bytes received on it.
// It is safe for concurrent use.
type Link struct {
	addr      string
	timeout   time.Duration
	reconnect time.Duration
	log       *log.Logger

	mu       sync.Mutex // guards conn, gen, state, failures, onState
	conn     net.Conn
	gen      uint64 // bumped whenever conn is replaced or torn down
	state    State
	failures int // consecutive failed dials
	onState  func(State)

	writeMu sync.Mutex

	bufMu sync.Mutex
	buf   bytes.Buffer
}

// New creates a disconnected link. Call Run to start connecting.
func New(opts Options) *Link {
	l := &Link{
		addr:      opts.Addr,
		timeout:   opts.Timeout,
		reconnect: opts.ReconnectInterval,
		log:       opts.Logger,
	}
	if l.log == nil {
		l.log = log.New(io.Discard, "", 0)
	}
	if l.timeout <= 0 {
		l.timeout = 100 * time.Millisecond
	}
	if l.reconnect <= 0 {
		l.reconnect = 5 * time.Second
	}
	return l
}

// Addr returns the daemon address this link dials.
func (l *Link) Addr() string {
	return l.addr
}

// OnStateChange registers fn to be called after every state transition.
// fn runs on the goroutine that caused the transition and must not block.
func (l *Link) OnStateChange(fn func(State)) {
	l.mu.Lock()
	l.onState = fn
	l.mu.Unlock()
}

// State reports the current connectivity.
func (l *Link) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Connected is shorthand for State() == Connected.
func (l *Link) Connected() bool {
	return l.State() == Connected
}

// ConnectFailures returns the number of consecutive failed dials.
func (l *Link) ConnectFailures() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failures
}

// Connect tears down any existing session and dials a fresh one. It reports
// whether the dial succeeded; failures are logged and reflected in State.
func (l *Link) Connect(ctx context.Context) bool {
	l.mu.Lock()
	l.teardownLocked()
	changed := l.setStateLocked(Connecting)
	gen := l.gen
	fn := l.onState
	l.mu.Unlock()
	notify(fn, changed, Connecting)

	d := net.Dialer{Timeout: l.timeout}
	conn, err := d.DialContext(ctx, "tcp", l.addr)

	l.mu.Lock()
	if gen != l.gen {
		// Superseded by Close or a concurrent Connect.
		l.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return false
	}
	if err != nil {
		l.failures++
		n := l.failures
		changed = l.setStateLocked(Disconnected)
		fn = l.onState
		l.mu.Unlock()

		if n == 1 || n%12 == 0 {
			l.log.Printf("rig connect %s failed (attempt %d): %v", l.addr, n, err)
		}
		notify(fn, changed, Disconnected)
		return false
	}

	l.conn = conn
	l.failures = 0
	changed = l.setStateLocked(Connected)
	fn = l.onState
	l.mu.Unlock()

	l.log.Printf("connected to rig %s", l.addr)
	go l.readLoop(conn, gen)
	notify(fn, changed, Connected)
	return true
}

// Send writes frame to the daemon, appending a newline if it has none.
func (l *Link) Send(frame string) error {
	l.mu.Lock()
	conn, gen, st := l.conn, l.gen, l.state
	l.mu.Unlock()

	if st != Connected || conn == nil {
		return ErrNotConnected
	}
	if !strings.HasSuffix(frame, "\n") {
		frame += "\n"
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(l.timeout))
	if _, err := io.WriteString(conn, frame); err != nil {
		l.drop(gen, err)
		return fmt.Errorf("riglink: write: %w", err)
	}
	return nil
}

// Reset discards everything buffered so far.
func (l *Link) Reset() {
	l.bufMu.Lock()
	l.buf.Reset()
	l.bufMu.Unlock()
}

// Drain returns the bytes received since the last Reset or Drain and clears
// the buffer in the same critical section.
func (l *Link) Drain() string {
	l.bufMu.Lock()
	defer l.bufMu.Unlock()
	s := l.buf.String()
	l.buf.Reset()
	return s
}

// Close tears down the session. A later Connect may reopen it.
func (l *Link) Close() {
	l.mu.Lock()
	l.teardownLocked()
	changed := l.setStateLocked(Disconnected)
	fn := l.onState
	l.mu.Unlock()
	notify(fn, changed, Disconnected)
}

// Run connects immediately and then checks the link every reconnect
// interval, redialing while it is down. It closes the session when ctx is
// cancelled.
func (l *Link) Run(ctx context.Context) {
	l.Connect(ctx)

	t := time.NewTicker(l.reconnect)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			l.Close()
			return
		case <-t.C:
			if l.State() == Disconnected {
				l.Connect(ctx)
			}
		}
	}
}

func (l *Link) readLoop(conn net.Conn, gen uint64) {
	chunk := make([]byte, 1024)
	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			l.bufMu.Lock()
			l.buf.Write(chunk[:n])
			l.bufMu.Unlock()
		}
		if err != nil {
			l.drop(gen, err)
			return
		}
	}
}

// drop closes the session identified by gen if it is still the current one.
func (l *Link) drop(gen uint64, cause error) {
	l.mu.Lock()
	if gen != l.gen || l.conn == nil {
		l.mu.Unlock()
		return
	}
	l.teardownLocked()
	changed := l.setStateLocked(Disconnected)
	fn := l.onState
	l.mu.Unlock()

	if errors.Is(cause, io.EOF) {
		l.log.Printf("rig %s closed the connection", l.addr)
	} else {
		l.log.Printf("rig link %s lost: %v", l.addr, cause)
	}
	notify(fn, changed, Disconnected)
}

func (l *Link) teardownLocked() {
	if l.conn != nil {
		_ = l.conn.Close()
		l.conn = nil
	}
	l.gen++
}

func (l *Link) setStateLocked(s State) bool {
	if l.state == s {
		return false
	}
	l.state = s
	return true
}

func notify(fn func(State), changed bool, s State) {
	if fn != nil && changed {
		fn(s)
	}
}
