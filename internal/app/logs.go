package app

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/large-farva/rigbridge/internal/config"
	"github.com/large-farva/rigbridge/internal/telemetry"
)

// NewLogWriter returns the daemon log destination: w alone, or w tee'd into
// a size-rotated file when logging.file is set.
func NewLogWriter(cfg config.LoggingConfig, w io.Writer) io.Writer {
	if cfg.File == "" {
		return w
	}
	return io.MultiWriter(w, &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   true,
	})
}

type logEntry struct {
	TS        string `json:"ts"`
	Level     string `json:"level"`
	Component string `json:"component"`
	Message   string `json:"message"`
}

// logRing keeps the most recent log entries for /api/logs.
type logRing struct {
	mu      sync.Mutex
	entries []logEntry
	next    int
	full    bool
}

func newLogRing(size int) *logRing {
	return &logRing{entries: make([]logEntry, size)}
}

func (r *logRing) add(e logEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[r.next] = e
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.full = true
	}
}

// snapshot returns the entries oldest first.
func (r *logRing) snapshot() []logEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append([]logEntry(nil), r.entries[:r.next]...)
	}
	out := make([]logEntry, 0, len(r.entries))
	out = append(out, r.entries[r.next:]...)
	return append(out, r.entries[:r.next]...)
}

// logf writes to the daemon log, records the entry, and pushes it to
// WebSocket clients.
func (a *App) logf(level, component, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	a.log.Printf("[%s] %s", component, msg)

	ev := telemetry.NewLogLine(level, component, msg)
	a.logs.add(logEntry{TS: ev.TS, Level: level, Component: component, Message: msg})
	if a.wsHub != nil {
		a.wsHub.BroadcastJSON(ev)
	}
}

// componentLogger returns a logger for one subsystem whose lines flow
// through logf at info level.
func (a *App) componentLogger(component string) *log.Logger {
	return log.New(componentWriter{a: a, component: component}, "", 0)
}

type componentWriter struct {
	a         *App
	component string
}

func (w componentWriter) Write(p []byte) (int, error) {
	for line := range strings.SplitSeq(strings.TrimRight(string(p), "\n"), "\n") {
		w.a.logf("info", w.component, "%s", line)
	}
	return len(p), nil
}
