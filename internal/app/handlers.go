package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/large-farva/rigbridge/internal/poller"
	"github.com/large-farva/rigbridge/internal/protocol"
	"github.com/large-farva/rigbridge/internal/riglink"
)

// ---------------------------------------------------------------------------
// Read-only handlers
// ---------------------------------------------------------------------------

func (a *App) handleHealthz(w http.ResponseWriter, r *http.Request) {
	// If the client asks for JSON, return component-level health checks.
	if r.Header.Get("Accept") == "application/json" {
		a.handleHealthDetailed(w, r)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (a *App) handleStatus(w http.ResponseWriter, _ *http.Request) {
	mode := "live"
	if a.rig != nil {
		mode = "demo"
	}
	status, _ := a.status.Load().(string)

	resp := map[string]any{
		"name":             "rigbridge",
		"mode":             mode,
		"uptime_seconds":   int64(time.Since(a.startedAt).Seconds()),
		"rig":              a.link.Addr(),
		"link":             a.link.State().String(),
		"connect_failures": a.link.ConnectFailures(),
		"status":           status,
		"poller":           a.poller.Snapshot(),
		"clients":          a.wsHub.Clients(),
	}
	writeJSON(w, http.StatusOK, resp)
}

type valueJSON struct {
	Key     protocol.Key `json:"key"`
	Label   string       `json:"label"`
	Val     int64        `json:"val"`
	Display string       `json:"display"`
	SWR     string       `json:"swr,omitempty"`
}

func (a *App) handleValues(w http.ResponseWriter, _ *http.Request) {
	values, at := a.snapshotValues()

	out := make([]valueJSON, 0, len(values))
	for _, k := range protocol.Keys {
		v, ok := values[k]
		if !ok {
			continue
		}
		vj := valueJSON{Key: k, Label: k.Label(), Val: v, Display: protocol.FormatValue(k, v)}
		if k == protocol.KeyMeter {
			vj.SWR = protocol.SWRLabel(v)
		}
		out = append(out, vj)
	}

	resp := map[string]any{"values": out}
	if !at.IsZero() {
		resp["updated_at"] = at.UTC().Format(time.RFC3339Nano)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *App) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.cfg)
}

func (a *App) handleVersion(w http.ResponseWriter, _ *http.Request) {
	goVersion := GoVersion
	if goVersion == "unknown" {
		goVersion = runtime.Version()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version":    Version,
		"go_version": goVersion,
		"built_at":   BuiltAt,
	})
}

func (a *App) handleLogs(w http.ResponseWriter, r *http.Request) {
	entries := a.logs.snapshot()

	if level := r.URL.Query().Get("level"); level != "" {
		var filtered []logEntry
		for _, e := range entries {
			if e.Level == level {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	if component := r.URL.Query().Get("component"); component != "" {
		var filtered []logEntry
		for _, e := range entries {
			if e.Component == component {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 && n < len(entries) {
			entries = entries[len(entries)-n:]
		}
	}
	if entries == nil {
		entries = []logEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"logs": entries})
}

func (a *App) handleHealthDetailed(w http.ResponseWriter, _ *http.Request) {
	checks := map[string]any{}
	allOK := true

	if a.link.Connected() {
		checks["rig_link"] = map[string]any{"ok": true, "addr": a.link.Addr()}
	} else {
		checks["rig_link"] = map[string]any{
			"ok":       false,
			"addr":     a.link.Addr(),
			"state":    a.link.State().String(),
			"failures": a.link.ConnectFailures(),
		}
		allOK = false
	}

	snap := a.poller.Snapshot()
	answering := snap.Failures <= a.cfg.Poll.MaxRetry
	if !answering {
		allOK = false
	}
	checks["rig_answering"] = map[string]any{
		"ok":            answering,
		"failures":      snap.Failures,
		"last_reply_at": snap.LastReplyAt,
	}

	if a.configPath != "" {
		if _, err := os.Stat(a.configPath); err != nil {
			checks["config_file"] = map[string]any{"ok": false, "error": err.Error()}
			allOK = false
		} else {
			checks["config_file"] = map[string]any{"ok": true, "path": a.configPath}
		}
	}

	status := http.StatusOK
	if !allOK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"healthy": allOK,
		"checks":  checks,
	})
}

// ---------------------------------------------------------------------------
// Control handlers
// ---------------------------------------------------------------------------

func (a *App) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Command string `json:"command"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Command == "" {
		jsonError(w, "command must not be empty", http.StatusBadRequest)
		return
	}

	if err := a.relay.Relay(req.Command); err != nil {
		code := http.StatusBadGateway
		if errors.Is(err, riglink.ErrNotConnected) {
			code = http.StatusServiceUnavailable
		}
		jsonError(w, err.Error(), code)
		return
	}
	writeCommandResult(w, poller.CommandResult{OK: true, Message: "sent " + req.Command})
}

func (a *App) handlePoll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeCommandResult(w, a.poller.PollNow())
}

func (a *App) handlePause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Ms int64 `json:"ms"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Ms < 0 {
		jsonError(w, "ms must be >= 0", http.StatusBadRequest)
		return
	}
	writeCommandResult(w, a.poller.Pause(time.Duration(req.Ms)*time.Millisecond))
}

func (a *App) handleReconnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	a.logf("info", "riglink", "reconnect requested")
	if !a.link.Connect(r.Context()) {
		writeCommandResult(w, poller.CommandResult{
			OK:    false,
			Error: fmt.Sprintf("could not connect to %s", a.link.Addr()),
		})
		return
	}
	writeCommandResult(w, poller.CommandResult{OK: true, Message: "connected to " + a.link.Addr()})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]any{
		"ok":    false,
		"error": msg,
	})
}

// writeCommandResult writes a poller.CommandResult as JSON.
func writeCommandResult(w http.ResponseWriter, result poller.CommandResult) {
	code := http.StatusOK
	if !result.OK {
		code = http.StatusInternalServerError
	}
	writeJSON(w, code, result)
}
