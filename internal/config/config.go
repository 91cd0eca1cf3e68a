// Package config handles loading, defaulting, and validation of the rigbridge
// configuration file. Every section maps to a typed struct so the rest of
// the codebase gets strong typing without manual key lookups. TOML is the
// native format; files ending in .yaml or .yml are read as YAML.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration, mirroring the file sections.
type Config struct {
	Rig     RigConfig     `toml:"rig"     yaml:"rig"     json:"rig"`
	Poll    PollConfig    `toml:"poll"    yaml:"poll"    json:"poll"`
	Server  ServerConfig  `toml:"server"  yaml:"server"  json:"server"`
	Logging LoggingConfig `toml:"logging" yaml:"logging" json:"logging"`
	Demo    DemoConfig    `toml:"demo"    yaml:"demo"    json:"demo"`
}

// RigConfig locates the rig-control daemon.
type RigConfig struct {
	Host        string `toml:"host"         yaml:"host"         json:"host"`
	Port        int    `toml:"port"         yaml:"port"         json:"port"`
	TimeoutMs   int    `toml:"timeout_ms"   yaml:"timeout_ms"   json:"timeout_ms"`
	ReconnectMs int    `toml:"reconnect_ms" yaml:"reconnect_ms" json:"reconnect_ms"`
}

// PollConfig tunes the status poller.
type PollConfig struct {
	IntervalMs     int `toml:"interval_ms"      yaml:"interval_ms"      json:"interval_ms"`
	SlowIntervalMs int `toml:"slow_interval_ms" yaml:"slow_interval_ms" json:"slow_interval_ms"`
	MaxRetry       int `toml:"max_retry"        yaml:"max_retry"        json:"max_retry"`
	SettleMs       int `toml:"settle_ms"        yaml:"settle_ms"        json:"settle_ms"`
	MinReplyLen    int `toml:"min_reply_len"    yaml:"min_reply_len"    json:"min_reply_len"`
}

type ServerConfig struct {
	Bind string `toml:"bind" yaml:"bind" json:"bind"`
}

type LoggingConfig struct {
	Level      string `toml:"level"       yaml:"level"       json:"level"`
	File       string `toml:"file"        yaml:"file"        json:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" yaml:"max_backups" json:"max_backups"`
}

// DemoConfig runs a simulated rig daemon inside the process.
type DemoConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled" json:"enabled"`
	Bind    string `toml:"bind"    yaml:"bind"    json:"bind"`
}

// Default returns a Config populated with sane defaults. Values here are
// used whenever the file omits a field.
func Default() Config {
	return Config{
		Rig: RigConfig{
			Host:        "127.0.0.1",
			Port:        4532,
			TimeoutMs:   100,
			ReconnectMs: 5000,
		},
		Poll: PollConfig{
			IntervalMs:     500,
			SlowIntervalMs: 2000,
			MaxRetry:       3,
			SettleMs:       60,
			MinReplyLen:    2,
		},
		Server: ServerConfig{
			Bind: "0.0.0.0:8080",
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Demo: DemoConfig{
			Enabled: false,
			Bind:    "127.0.0.1:4533",
		},
	}
}

// Load reads the file at path, layers it on top of the defaults, and
// validates the result. An error is returned if the file can't be read,
// parsed, or if any constraint is violated.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	default:
		err = toml.Unmarshal(b, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := validate(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// LoadOrDefault is Load for the daemon's startup path. When the file at
// path does not exist and required is false, it returns the defaults and an
// empty path so nothing downstream treats the missing file as in use. The
// returned path is the file the config actually came from.
func LoadOrDefault(path string, required bool) (Config, string, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, path, nil
	}
	if !required && errors.Is(err, os.ErrNotExist) {
		return Default(), "", nil
	}
	return cfg, "", err
}

// RigAddr returns host:port of the rig daemon.
func (c Config) RigAddr() string {
	return net.JoinHostPort(c.Rig.Host, strconv.Itoa(c.Rig.Port))
}

// Timeout returns the rig dial/write timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.Rig.TimeoutMs) * time.Millisecond
}

// ReconnectInterval returns the period of the reconnect check.
func (c Config) ReconnectInterval() time.Duration {
	return time.Duration(c.Rig.ReconnectMs) * time.Millisecond
}

// FastInterval returns the normal poll period.
func (c Config) FastInterval() time.Duration {
	return time.Duration(c.Poll.IntervalMs) * time.Millisecond
}

// SlowInterval returns the poll period used after repeated failures.
func (c Config) SlowInterval() time.Duration {
	return time.Duration(c.Poll.SlowIntervalMs) * time.Millisecond
}

// SettleDelay returns the wait between sending a query and reading its reply.
func (c Config) SettleDelay() time.Duration {
	return time.Duration(c.Poll.SettleMs) * time.Millisecond
}

func validate(cfg Config) error {
	if cfg.Rig.Host == "" {
		return errors.New("rig.host must not be empty")
	}
	if cfg.Rig.Port < 1 || cfg.Rig.Port > 65535 {
		return errors.New("rig.port must be between 1 and 65535")
	}
	if cfg.Rig.TimeoutMs < 1 {
		return errors.New("rig.timeout_ms must be >= 1")
	}
	if cfg.Rig.ReconnectMs < 1 {
		return errors.New("rig.reconnect_ms must be >= 1")
	}
	if cfg.Poll.IntervalMs < 1 {
		return errors.New("poll.interval_ms must be >= 1")
	}
	if cfg.Poll.SlowIntervalMs < cfg.Poll.IntervalMs {
		return errors.New("poll.slow_interval_ms must be >= poll.interval_ms")
	}
	if cfg.Poll.MaxRetry < 0 {
		return errors.New("poll.max_retry must be >= 0")
	}
	if cfg.Poll.SettleMs < 1 {
		return errors.New("poll.settle_ms must be >= 1")
	}
	if cfg.Poll.SettleMs >= cfg.Poll.IntervalMs {
		return errors.New("poll.settle_ms must be smaller than poll.interval_ms")
	}
	if cfg.Poll.MinReplyLen < 1 {
		return errors.New("poll.min_reply_len must be >= 1")
	}
	if cfg.Server.Bind == "" {
		return errors.New("server.bind must not be empty")
	}
	switch cfg.Logging.Level {
	case "debug", "info":
	default:
		return fmt.Errorf("logging.level must be debug or info, got %q", cfg.Logging.Level)
	}
	if cfg.Demo.Enabled && cfg.Demo.Bind == "" {
		return errors.New("demo.bind must not be empty when demo is enabled")
	}
	return nil
}
