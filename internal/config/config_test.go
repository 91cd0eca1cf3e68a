package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := validate(Default()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "rigbridge.toml", `
[rig]
host = "192.168.152.12"
port = 4532

[poll]
interval_ms = 250
max_retry = 5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RigAddr() != "192.168.152.12:4532" {
		t.Errorf("RigAddr = %q", cfg.RigAddr())
	}
	if cfg.FastInterval() != 250*time.Millisecond {
		t.Errorf("FastInterval = %s", cfg.FastInterval())
	}
	if cfg.Poll.MaxRetry != 5 {
		t.Errorf("MaxRetry = %d", cfg.Poll.MaxRetry)
	}
	// Omitted fields keep their defaults.
	if cfg.SlowInterval() != 2*time.Second || cfg.SettleDelay() != 60*time.Millisecond {
		t.Errorf("defaults lost: slow=%s settle=%s", cfg.SlowInterval(), cfg.SettleDelay())
	}
	if cfg.Timeout() != 100*time.Millisecond || cfg.ReconnectInterval() != 5*time.Second {
		t.Errorf("defaults lost: timeout=%s reconnect=%s", cfg.Timeout(), cfg.ReconnectInterval())
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "rigbridge.yaml", `
rig:
  host: rig.local
  port: 4600
server:
  bind: 127.0.0.1:9090
demo:
  enabled: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RigAddr() != "rig.local:4600" || cfg.Server.Bind != "127.0.0.1:9090" || !cfg.Demo.Enabled {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad port", "[rig]\nport = 0\n", "rig.port"},
		{"slow below fast", "[poll]\ninterval_ms = 500\nslow_interval_ms = 100\n", "slow_interval_ms"},
		{"settle too long", "[poll]\ninterval_ms = 50\nsettle_ms = 60\n", "settle_ms"},
		{"bad level", "[logging]\nlevel = \"trace\"\n", "logging.level"},
		{"syntax", "[rig\n", "parse"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, "c.toml", tc.body)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadOrDefault(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "rigbridge.toml")

	cfg, used, err := LoadOrDefault(missing, false)
	if err != nil {
		t.Fatalf("optional missing file: %v", err)
	}
	if used != "" || cfg != Default() {
		t.Fatalf("got path %q, cfg %+v", used, cfg)
	}

	if _, _, err := LoadOrDefault(missing, true); err == nil {
		t.Fatalf("expected error for required missing file")
	}

	path := writeFile(t, "rigbridge.toml", "[rig]\nport = 4600\n")
	cfg, used, err = LoadOrDefault(path, false)
	if err != nil || used != path || cfg.Rig.Port != 4600 {
		t.Fatalf("got %q %+v %v", used, cfg.Rig, err)
	}
}
