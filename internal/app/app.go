// Package app wires together the HTTP server, WebSocket hub, rig link,
// poller, and command relay, plus the simulated rig in demo mode. It owns
// the daemon's lifecycle and is the single source of truth for the last
// published status and values.
package app

import (
	"context"
	"encoding/json"
	"log"
	"maps"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/large-farva/rigbridge/internal/config"
	"github.com/large-farva/rigbridge/internal/demo"
	"github.com/large-farva/rigbridge/internal/poller"
	"github.com/large-farva/rigbridge/internal/protocol"
	"github.com/large-farva/rigbridge/internal/relay"
	"github.com/large-farva/rigbridge/internal/riglink"
	"github.com/large-farva/rigbridge/internal/telemetry"
	"github.com/large-farva/rigbridge/internal/ws"
)

// Options holds everything the App needs from the caller.
type Options struct {
	Logger     *log.Logger
	Cfg        config.Config
	ConfigPath string
	Bind       string // overrides cfg.Server.Bind when set
}

// App is the top-level daemon process.
type App struct {
	log        *log.Logger
	cfg        config.Config
	configPath string
	bind       string
	server     *http.Server
	startedAt  time.Time
	addr       atomic.Value // bound HTTP address, set once listening

	link   *riglink.Link
	poller *poller.Poller
	relay  *relay.Relay
	wsHub  *ws.Hub
	rig    *demo.Rig // nil unless demo mode is on

	status atomic.Value // last status text published to clients

	valMu    sync.Mutex
	values   protocol.StateMap
	valuesAt time.Time

	logs *logRing
}

// New builds the component graph. Nothing touches the network until Run.
func New(opts Options) *App {
	a := &App{
		log:        opts.Logger,
		cfg:        opts.Cfg,
		configPath: opts.ConfigPath,
		bind:       opts.Bind,
		startedAt:  time.Now(),
		values:     protocol.StateMap{},
		logs:       newLogRing(500),
	}
	if a.log == nil {
		a.log = log.Default()
	}
	a.status.Store("Not connected")

	target := opts.Cfg.RigAddr()
	if opts.Cfg.Demo.Enabled {
		target = opts.Cfg.Demo.Bind
		a.rig = demo.New(a.componentLogger("demo"))
	}

	a.wsHub = ws.NewHub(a, a.componentLogger("ws"))
	a.link = riglink.New(riglink.Options{
		Addr:              target,
		Timeout:           opts.Cfg.Timeout(),
		ReconnectInterval: opts.Cfg.ReconnectInterval(),
		Logger:            a.componentLogger("riglink"),
	})
	a.link.OnStateChange(a.linkStateChanged)
	a.relay = relay.New(a.link, a.componentLogger("relay"))
	a.poller = poller.New(poller.Options{
		Link:        a.link,
		Publisher:   a,
		Logger:      a.componentLogger("poller"),
		Verbose:     opts.Cfg.Logging.Level == "debug",
		Target:      target,
		Fast:        opts.Cfg.FastInterval(),
		Slow:        opts.Cfg.SlowInterval(),
		Threshold:   opts.Cfg.Poll.MaxRetry,
		Settle:      opts.Cfg.SettleDelay(),
		MinReplyLen: opts.Cfg.Poll.MinReplyLen,
	})
	return a
}

// Run starts the HTTP server, WebSocket hub, heartbeat ticker, rig link and
// poller. It blocks until the context is cancelled or the server returns an
// error. Failing to bind the client listener is the only fatal condition.
func (a *App) Run(ctx context.Context) error {
	bind := a.bind
	if bind == "" {
		bind = a.cfg.Server.Bind
	}
	if bind == "" {
		bind = "0.0.0.0:8080"
	}

	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return err
	}
	a.addr.Store(ln.Addr().String())

	a.server = &http.Server{
		Handler:           a.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	a.log.Printf("listening on http://%s", ln.Addr())

	if a.rig != nil {
		if err := a.rig.Listen(a.cfg.Demo.Bind); err != nil {
			a.logf("error", "demo", "%v", err)
		} else {
			go func() {
				if err := a.rig.Run(ctx); err != nil {
					a.logf("error", "demo", "%v", err)
				}
			}()
		}
	}

	go a.wsHub.Run(ctx)
	go a.link.Run(ctx)
	go a.poller.Run(ctx)
	go a.heartbeatLoop(ctx)

	go func() {
		<-ctx.Done()
		a.log.Printf("shutdown requested")
		_ = a.server.Shutdown(context.Background())
	}()

	return a.server.Serve(ln)
}

// Addr returns the bound HTTP address once Run is listening, else "".
func (a *App) Addr() string {
	s, _ := a.addr.Load().(string)
	return s
}

func (a *App) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", a.handleHealthz)
	mux.HandleFunc("/api/status", a.handleStatus)
	mux.HandleFunc("/api/values", a.handleValues)
	mux.HandleFunc("/api/config", a.handleConfig)
	mux.HandleFunc("/api/version", a.handleVersion)
	mux.HandleFunc("/api/logs", a.handleLogs)
	mux.HandleFunc("/api/command", a.handleCommand)
	mux.HandleFunc("/api/poll", a.handlePoll)
	mux.HandleFunc("/api/pause", a.handlePause)
	mux.HandleFunc("/api/reconnect", a.handleReconnect)
	mux.Handle("/ws", a.wsHub.Handler())
	return mux
}

// heartbeatLoop sends a periodic heartbeat event so clients can detect
// connectivity and track uptime without polling.
func (a *App) heartbeatLoop(ctx context.Context) {
	t := time.NewTicker(10 * time.Second)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			a.wsHub.BroadcastJSON(telemetry.NewHeartbeat(a.link.State().String(), time.Since(a.startedAt)))
		}
	}
}

// linkStateChanged turns link transitions into client status. Connecting is
// transient and not reported.
func (a *App) linkStateChanged(s riglink.State) {
	switch s {
	case riglink.Connected:
		a.PublishStatus("Connected with " + a.link.Addr())
	case riglink.Disconnected:
		a.PublishStatus("No connection to " + a.link.Addr())
	}
}

// connectivityText is the status a newly connected client starts with.
func (a *App) connectivityText() string {
	if a.link.Connected() {
		return "Connected with " + a.link.Addr()
	}
	return "Not connected"
}

// PublishValue caches and broadcasts one decoded value.
func (a *App) PublishValue(k protocol.Key, v int64) {
	a.valMu.Lock()
	a.values[k] = v
	a.valuesAt = time.Now()
	a.valMu.Unlock()
	a.wsHub.Value(k, v)
}

// PublishStatus records and broadcasts status text.
func (a *App) PublishStatus(text string) {
	a.status.Store(text)
	a.wsHub.Status(text)
}

// Greeting implements ws.Handler.
func (a *App) Greeting() any {
	return telemetry.NewStatus(a.connectivityText())
}

// HandleCommand implements ws.Handler.
func (a *App) HandleCommand(payload json.RawMessage) (string, bool) {
	return a.relay.RelayRaw(payload)
}

// PausePolling implements ws.Handler.
func (a *App) PausePolling(d time.Duration) {
	if res := a.poller.Pause(d); !res.OK {
		a.logf("warn", "poller", "pause rejected: %s", res.Error)
	}
}

// PollNow implements ws.Handler.
func (a *App) PollNow() {
	if res := a.poller.PollNow(); !res.OK {
		a.logf("warn", "poller", "poll now rejected: %s", res.Error)
	}
}

// snapshotValues returns a copy of the last published values.
func (a *App) snapshotValues() (protocol.StateMap, time.Time) {
	a.valMu.Lock()
	defer a.valMu.Unlock()
	return maps.Clone(a.values), a.valuesAt
}
