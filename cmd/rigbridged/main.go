// Rigbridged bridges a rig-control daemon's raw command protocol to web and
// CLI clients.
//
// It loads configuration, connects to the rig daemon, polls it on a fixed
// schedule, and serves the results over HTTP and WebSocket. With demo mode
// enabled it runs a simulated rig in-process instead. Shutdown is handled
// gracefully on SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/large-farva/rigbridge/internal/app"
	"github.com/large-farva/rigbridge/internal/config"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "/etc/rigbridge/rigbridge.toml", "Path to config file (TOML or YAML)")
		bind       = pflag.String("bind", "", "HTTP bind address (overrides server.bind)")
		demoMode   = pflag.Bool("demo", false, "Run against the built-in simulated rig")
	)
	pflag.Parse()

	cfg, cfgPath, err := config.LoadOrDefault(*configPath, pflag.CommandLine.Changed("config"))
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *demoMode {
		cfg.Demo.Enabled = true
	}

	logger := log.New(app.NewLogWriter(cfg.Logging, os.Stdout), "rigbridged ", log.LstdFlags|log.Lmicroseconds)
	if cfgPath == "" {
		logger.Printf("no config at %s, using defaults", *configPath)
	}

	a := app.New(app.Options{
		Logger:     logger,
		Cfg:        cfg,
		ConfigPath: cfgPath,
		Bind:       *bind,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("rigbridged failed: %v", err)
	}

	// Brief pause so in-flight log writes can flush before exit.
	time.Sleep(50 * time.Millisecond)
}
