// Package demo simulates a rig-control daemon so the bridge, CLI, and web
// clients can be exercised end-to-end without a radio. It listens on TCP,
// answers raw-passthrough queries ("wFA;AG0;...") with plausible records,
// and applies set commands ("wFA7074000;") to its in-memory rig state. The
// signal meter drifts on its own so the event stream looks alive.
package demo

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/large-farva/rigbridge/internal/protocol"
)

// Rig is a simulated rig daemon.
type Rig struct {
	log   *log.Logger
	Drift time.Duration // time between meter changes, 0 disables drift

	mu    sync.Mutex
	state protocol.StateMap
	ln    net.Listener
}

// New creates a rig tuned to 14.074 MHz with mid-range levels.
func New(logger *log.Logger) *Rig {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Rig{
		log:   logger,
		Drift: time.Second,
		state: protocol.StateMap{
			protocol.KeyAFGain:     96,
			protocol.KeySquelch:    0,
			protocol.KeyMeter:      75,
			protocol.KeyPower:      1,
			protocol.KeyFreqA:      14074000,
			protocol.KeyFreqB:      7074000,
			protocol.KeyTXPower:    50,
			protocol.KeyTuner:      0,
			protocol.KeyTX:         0,
			protocol.KeyAttenuator: 0,
			protocol.KeyPreamp:     1,
			protocol.KeyVFOSelect:  0,
			protocol.KeyNoiseBlank: 0,
			protocol.KeyMode:       2,
			protocol.KeyMonitor:    0,
		},
	}
}

// Listen binds the rig to addr. Use "127.0.0.1:0" for an ephemeral port.
func (r *Rig) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("demo: listen %s: %w", addr, err)
	}
	r.mu.Lock()
	r.ln = ln
	r.mu.Unlock()
	return nil
}

// Addr returns the bound address, or "" before Listen.
func (r *Rig) Addr() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ln == nil {
		return ""
	}
	return r.ln.Addr().String()
}

// Get returns the current value of k.
func (r *Rig) Get(k protocol.Key) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.state[k]
	return v, ok
}

// Run accepts connections until ctx is cancelled. Listen must have been
// called first.
func (r *Rig) Run(ctx context.Context) error {
	r.mu.Lock()
	ln := r.ln
	r.mu.Unlock()
	if ln == nil {
		return errors.New("demo: Run called before Listen")
	}

	r.log.Printf("demo rig listening on %s", ln.Addr())

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	if r.Drift > 0 {
		go r.driftLoop(ctx)
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("demo: accept: %w", err)
		}
		go r.serve(ctx, conn)
	}
}

func (r *Rig) serve(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		reply := r.Handle(sc.Text())
		if reply == "" {
			continue
		}
		if _, err := io.WriteString(conn, reply+"\n"); err != nil {
			return
		}
	}
}

// Handle processes one command line and returns the reply without its
// newline. Set commands produce no reply; lines that are not raw
// passthrough get a rigctld-style error report.
func (r *Rig) Handle(line string) string {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "w") {
		return "RPRT -11"
	}
	body := strings.TrimSpace(strings.TrimPrefix(line, "w"))

	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	for _, rec := range protocol.Records(body) {
		k, ok := match(rec)
		if !ok {
			b.WriteString("?;")
			continue
		}
		if rec == string(k) {
			b.WriteString(format(k, r.state[k]))
			continue
		}
		if v, ok := protocol.ParseResponse(rec, []protocol.Key{k})[k]; ok {
			r.state[k] = v
			r.log.Printf("demo rig set %s=%d", k, v)
		}
	}
	return b.String()
}

func (r *Rig) driftLoop(ctx context.Context) {
	t := time.NewTicker(r.Drift)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.mu.Lock()
			m := r.state[protocol.KeyMeter] + int64(rand.IntN(41)-20)
			r.state[protocol.KeyMeter] = min(max(m, 0), 255)
			r.mu.Unlock()
		}
	}
}

// match finds the key a record starts with. Keys are two or three
// characters; the longer one is tried first.
func match(rec string) (protocol.Key, bool) {
	for n := min(3, len(rec)); n >= 2; n-- {
		if k := protocol.Key(rec[:n]); k.Known() {
			return k, true
		}
	}
	return "", false
}

// format renders one reply record the way a Kenwood-style rig does:
// eleven digits for frequencies, three for everything else.
func format(k protocol.Key, v int64) string {
	if k.Kind() == protocol.KindFrequency {
		return fmt.Sprintf("%s%011d;", k, v)
	}
	return fmt.Sprintf("%s%03d;", k, v)
}
