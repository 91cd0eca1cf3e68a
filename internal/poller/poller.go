// Package poller drives the periodic status query against the rig daemon.
//
// Each cycle clears the link's receive buffer, sends one batched query,
// waits a fixed settle delay and then parses whatever arrived. The daemon
// never marks the end of a reply, so the settle window is the only framing.
// All poller state lives on the Run goroutine; other goroutines talk to it
// through the Commands channel.
package poller

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"time"

	"github.com/large-farva/rigbridge/internal/protocol"
)

// Link is the part of the rig link the poller needs.
type Link interface {
	Connected() bool
	Reset()
	Send(frame string) error
	Drain() string
}

// Publisher receives decoded values and status text.
type Publisher interface {
	PublishValue(key protocol.Key, val int64)
	PublishStatus(text string)
}

// Command is a request handled on the poll loop. Reply receives exactly
// one result.
type Command struct {
	Type  string // "poll_now" or "pause"
	Pause time.Duration
	Reply chan<- CommandResult
}

// CommandResult is the answer to a Command.
type CommandResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Snapshot is a read-only view of the poller for status reporting.
type Snapshot struct {
	IntervalMs  int64  `json:"interval_ms"`
	Failures    int    `json:"failures"`
	Paused      bool   `json:"paused"`
	Cycles      uint64 `json:"cycles"`
	Answered    uint64 `json:"answered"`
	LastReplyAt string `json:"last_reply_at,omitempty"`
}

// Options configures a Poller.
type Options struct {
	Link      Link
	Publisher Publisher
	Logger    *log.Logger
	Verbose   bool   // log every cycle
	Target    string // host:port shown in status text

	Fast        time.Duration
	Slow        time.Duration
	Threshold   int
	Settle      time.Duration
	MinReplyLen int
	Keys        []protocol.Key
}

// Poller runs the query/settle/parse cycle.
type Poller struct {
	link    Link
	pub     Publisher
	log     *log.Logger
	verbose bool
	target  string

	settleDelay time.Duration
	minReply    int
	keys        []protocol.Key
	query       string

	// Commands receives PollNow and Pause requests.
	Commands chan Command
	results  chan string
	done     chan struct{}

	// Owned by the Run goroutine.
	policy   Policy
	ticker   *time.Ticker
	period   time.Duration // what the ticker is running at
	paused   bool
	resume   *time.Timer
	resumeC  <-chan time.Time
	resumeAt time.Duration
	cycles   uint64
	answered uint64
	lastOK   time.Time

	snap atomic.Pointer[Snapshot]
}

// New creates a poller. Call Run to start ticking.
func New(opts Options) *Poller {
	keys := opts.Keys
	if len(keys) == 0 {
		keys = protocol.Keys
	}
	settle := opts.Settle
	if settle <= 0 {
		settle = 60 * time.Millisecond
	}
	minReply := opts.MinReplyLen
	if minReply <= 0 {
		minReply = 2
	}
	fast := opts.Fast
	if fast <= 0 {
		fast = 500 * time.Millisecond
	}
	slow := opts.Slow
	if slow <= 0 {
		slow = fast
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	p := &Poller{
		link:        opts.Link,
		pub:         opts.Publisher,
		log:         logger,
		verbose:     opts.Verbose,
		target:      opts.Target,
		settleDelay: settle,
		minReply:    minReply,
		keys:        keys,
		query:       protocol.BuildQuery(keys),
		Commands:    make(chan Command, 4),
		results:     make(chan string, 4),
		done:        make(chan struct{}),
		policy:      NewPolicy(fast, slow, opts.Threshold),
	}
	p.storeSnapshot()
	return p
}

// Snapshot returns the latest published view of the poller state.
func (p *Poller) Snapshot() Snapshot {
	return *p.snap.Load()
}

// PollNow asks the loop to run one query cycle right away. The regular
// schedule is left untouched.
func (p *Poller) PollNow() CommandResult {
	return p.send(Command{Type: "poll_now"})
}

// Pause suspends scheduled polling for d. Polling resumes at the interval
// in effect when the request was made.
func (p *Poller) Pause(d time.Duration) CommandResult {
	if d < 0 {
		return CommandResult{OK: false, Error: "pause duration must be >= 0"}
	}
	return p.send(Command{Type: "pause", Pause: d})
}

func (p *Poller) send(cmd Command) CommandResult {
	reply := make(chan CommandResult, 1)
	cmd.Reply = reply

	select {
	case p.Commands <- cmd:
	case <-p.done:
		return CommandResult{OK: false, Error: "poller stopped"}
	}

	t := time.NewTimer(2 * time.Second)
	defer t.Stop()
	select {
	case res := <-reply:
		return res
	case <-p.done:
		return CommandResult{OK: false, Error: "poller stopped"}
	case <-t.C:
		return CommandResult{OK: false, Error: "poller not responding"}
	}
}

// Run is the poll loop. It blocks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	defer close(p.done)

	p.period = p.policy.Interval
	p.ticker = time.NewTicker(p.period)
	defer p.ticker.Stop()
	defer func() {
		if p.resume != nil {
			p.resume.Stop()
		}
	}()

	p.log.Printf("polling %s every %s (slow %s after %d failures)",
		p.target, p.policy.Fast, p.policy.Slow, p.policy.Threshold)

	for {
		select {
		case <-ctx.Done():
			return

		case <-p.ticker.C:
			p.cycle(ctx)

		case raw := <-p.results:
			p.settle(raw)

		case cmd := <-p.Commands:
			p.handleCommand(ctx, cmd)

		case <-p.resumeC:
			p.resumeC = nil
			p.resume = nil
			p.paused = false
			p.period = p.resumeAt
			p.ticker.Reset(p.period)
			p.log.Printf("polling resumed every %s", p.resumeAt)
			p.storeSnapshot()
		}
	}
}

func (p *Poller) handleCommand(ctx context.Context, cmd Command) {
	switch cmd.Type {
	case "poll_now":
		p.cycle(ctx)
		cmd.Reply <- CommandResult{OK: true, Message: "poll triggered"}

	case "pause":
		p.ticker.Stop()
		if p.resume != nil {
			p.resume.Stop()
		}
		p.paused = true
		p.resumeAt = p.policy.Interval
		p.resume = time.NewTimer(cmd.Pause)
		p.resumeC = p.resume.C
		p.storeSnapshot()
		p.log.Printf("polling paused for %s", cmd.Pause)
		cmd.Reply <- CommandResult{OK: true, Message: fmt.Sprintf("polling paused for %s", cmd.Pause)}

	default:
		cmd.Reply <- CommandResult{OK: false, Error: "unknown command: " + cmd.Type}
	}
}

// cycle is one query: check the link, clear the buffer, send, and arm the
// settle read.
func (p *Poller) cycle(ctx context.Context) {
	p.cycles++

	if !p.link.Connected() {
		p.fail(fmt.Sprintf("No connection to %s", p.target))
		return
	}

	p.link.Reset()
	if err := p.link.Send(p.query); err != nil && p.verbose {
		p.log.Printf("poll send: %v", err)
	}

	time.AfterFunc(p.settleDelay, func() {
		raw := p.link.Drain()
		select {
		case p.results <- raw:
		case <-ctx.Done():
		}
	})
}

// settle handles the bytes collected during one settle window.
func (p *Poller) settle(raw string) {
	if len(protocol.Normalize(raw)) < p.minReply {
		p.fail(fmt.Sprintf("No answer from %s", p.target))
		return
	}

	p.answered++
	p.lastOK = time.Now()
	if p.policy.Success() {
		p.log.Printf("rig answering again, polling every %s", p.policy.Interval)
	}
	p.rearm()

	values := protocol.ParseResponse(raw, p.keys)
	if p.verbose {
		p.log.Printf("poll reply: %d bytes, %d values", len(raw), len(values))
	}
	for _, k := range p.keys {
		if v, ok := values[k]; ok {
			p.pub.PublishValue(k, v)
		}
	}
	p.pub.PublishStatus(fmt.Sprintf("Connected with %s", p.target))
	p.storeSnapshot()
}

func (p *Poller) fail(status string) {
	p.pub.PublishStatus(status)
	if p.policy.Failure() {
		p.log.Printf("%d failed polls, slowing to every %s", p.policy.Failures, p.policy.Interval)
	}
	p.rearm()
	p.storeSnapshot()
}

// rearm restarts the ticker when its period differs from the policy
// interval. It does nothing while paused; the first cycle after resume
// picks up any change made during the pause.
func (p *Poller) rearm() {
	if p.ticker == nil || p.paused || p.period == p.policy.Interval {
		return
	}
	p.period = p.policy.Interval
	p.ticker.Reset(p.period)
}

func (p *Poller) storeSnapshot() {
	s := &Snapshot{
		IntervalMs: p.policy.Interval.Milliseconds(),
		Failures:   p.policy.Failures,
		Paused:     p.paused,
		Cycles:     p.cycles,
		Answered:   p.answered,
	}
	if !p.lastOK.IsZero() {
		s.LastReplyAt = p.lastOK.UTC().Format(time.RFC3339Nano)
	}
	p.snap.Store(s)
}
