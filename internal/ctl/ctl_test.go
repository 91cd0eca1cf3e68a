package ctl

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWSURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"http://127.0.0.1:8080", "ws://127.0.0.1:8080/ws", false},
		{"https://rig.example/", "wss://rig.example/ws", false},
		{"http://host:8080/api?x=1", "ws://host:8080/ws", false},
		{"ftp://host", "", true},
	}
	for _, tc := range tests {
		got, err := wsURL(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("wsURL(%q) err = %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("wsURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRenderEvent(t *testing.T) {
	tests := []struct {
		name string
		ev   string
		want []string
	}{
		{"frequency", `{"type":"value","ts":"2026-01-01T00:00:00Z","key":"FA","val":14074000}`, []string{"FA", "VFO A", "14.074000 MHz"}},
		{"meter", `{"type":"value","key":"RM0","val":155}`, []string{"Meter", "155 (S9)"}},
		{"status", `{"type":"status","text":"No answer from rig:4532"}`, []string{"STATUS", "No answer from rig:4532"}},
		{"ack", `{"type":"command_accepted","text":"wFA7074000;"}`, []string{"SENT", "wFA7074000;"}},
		{"heartbeat", `{"type":"heartbeat","link":"CONNECTED","uptime_seconds":75}`, []string{"heartbeat", "CONNECTED", "1m 15s"}},
		{"log", `{"type":"log","level":"warn","component":"poller","message":"slow"}`, []string{"WARN", "[poller]", "slow"}},
		{"unknown", `{"type":"mystery","x":1}`, []string{`"mystery"`}},
		{"not json", `garbage`, []string{"garbage"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var b bytes.Buffer
			renderEvent(&b, []byte(tc.ev))
			for _, w := range tc.want {
				if !strings.Contains(b.String(), w) {
					t.Errorf("output %q missing %q", b.String(), w)
				}
			}
		})
	}
}

func TestPostJSON_DecodesErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["command"] != "wFA;" {
			t.Errorf("body = %v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"ok":false,"error":"riglink: no connection"}`))
	}))
	defer srv.Close()

	var res commandResult
	if err := postJSON(srv.URL, "/api/command", map[string]any{"command": "wFA;"}, &res); err != nil {
		t.Fatalf("postJSON: %v", err)
	}
	if res.OK || res.Error != "riglink: no connection" {
		t.Fatalf("result = %+v", res)
	}
}

func TestPostJSON_PlainError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}))
	defer srv.Close()

	var res commandResult
	err := postJSON(srv.URL, "/api/poll", nil, &res)
	if err == nil || !strings.Contains(err.Error(), "method not allowed") {
		t.Fatalf("err = %v", err)
	}
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/values" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"values":[{"key":"FA","label":"VFO A","val":7074000,"display":"7.074000 MHz"}]}`))
	}))
	defer srv.Close()

	var vals ValuesResponse
	if err := getJSON(srv.URL+"/", "/api/values", &vals); err != nil {
		t.Fatalf("getJSON: %v", err)
	}
	if len(vals.Values) != 1 || vals.Values[0].Val != 7074000 {
		t.Fatalf("values = %+v", vals)
	}

	if err := getJSON(srv.URL, "/api/nope", &vals); err == nil {
		t.Fatalf("expected error for 404")
	}
}

func TestLevelBar(t *testing.T) {
	tests := []struct {
		raw  int64
		want string
	}{
		{0, "        "},
		{255, "========"},
		{128, "====    "},
		{-5, "        "},
		{999, "========"},
	}
	for _, tc := range tests {
		if got := levelBar(tc.raw, 8); got != tc.want {
			t.Errorf("levelBar(%d) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestVersionReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/version":
			_, _ = w.Write([]byte(`{"version":"1.2.0","go_version":"go1.24","built_at":"2026-01-01"}`))
		case "/api/status":
			_, _ = w.Write([]byte(`{"rig":"127.0.0.1:4532","link":"CONNECTED","mode":"demo"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	rep := fetchVersion(srv.URL)
	if rep.Daemon == nil || rep.Daemon.Version != "1.2.0" {
		t.Fatalf("daemon = %+v", rep.Daemon)
	}
	if rep.Rig == nil || rep.Rig.Addr != "127.0.0.1:4532" || rep.Rig.Link != "CONNECTED" {
		t.Fatalf("rig = %+v", rep.Rig)
	}

	var b bytes.Buffer
	writeVersion(&b, rep)
	for _, w := range []string{"1.2.0 (go1.24)", "127.0.0.1:4532 (demo)", "CONNECTED", "versions differ"} {
		if !strings.Contains(b.String(), w) {
			t.Errorf("output %q missing %q", b.String(), w)
		}
	}
}

func TestVersionReport_DaemonDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	rep := fetchVersion(srv.URL)
	if rep.Daemon != nil || rep.Rig != nil || rep.Error == "" {
		t.Fatalf("report = %+v", rep)
	}
	var b bytes.Buffer
	writeVersion(&b, rep)
	if !strings.Contains(b.String(), "unreachable") {
		t.Fatalf("output = %q", b.String())
	}
}
