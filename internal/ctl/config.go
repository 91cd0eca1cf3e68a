package ctl

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Config fetches and displays the daemon's running configuration.
func Config(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var raw json.RawMessage
	if err := getJSON(baseURL, "/api/config", &raw); err != nil {
		return err
	}

	if jsonOutput {
		var v any
		_ = json.Unmarshal(raw, &v)
		return printJSON(v)
	}

	// Decode into ordered sections for human-readable output.
	var cfg struct {
		Rig struct {
			Host        string `json:"host"`
			Port        int    `json:"port"`
			TimeoutMs   int    `json:"timeout_ms"`
			ReconnectMs int    `json:"reconnect_ms"`
		} `json:"rig"`
		Poll struct {
			IntervalMs     int `json:"interval_ms"`
			SlowIntervalMs int `json:"slow_interval_ms"`
			MaxRetry       int `json:"max_retry"`
			SettleMs       int `json:"settle_ms"`
			MinReplyLen    int `json:"min_reply_len"`
		} `json:"poll"`
		Server struct {
			Bind string `json:"bind"`
		} `json:"server"`
		Logging struct {
			Level      string `json:"level"`
			File       string `json:"file"`
			MaxSizeMB  int    `json:"max_size_mb"`
			MaxBackups int    `json:"max_backups"`
		} `json:"logging"`
		Demo struct {
			Enabled bool   `json:"enabled"`
			Bind    string `json:"bind"`
		} `json:"demo"`
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(header("  DAEMON CONFIGURATION"))
	fmt.Println(rule(50))

	section := func(name string) {
		fmt.Printf("\n  %s\n", colorize(bold, "["+name+"]"))
	}
	field := func(key string, val any) {
		fmt.Printf("    %-20s %v\n", colorize(dim, key+":"), val)
	}

	section("rig")
	field("host", cfg.Rig.Host)
	field("port", cfg.Rig.Port)
	field("timeout_ms", cfg.Rig.TimeoutMs)
	field("reconnect_ms", cfg.Rig.ReconnectMs)

	section("poll")
	field("interval_ms", cfg.Poll.IntervalMs)
	field("slow_interval_ms", cfg.Poll.SlowIntervalMs)
	field("max_retry", cfg.Poll.MaxRetry)
	field("settle_ms", cfg.Poll.SettleMs)
	field("min_reply_len", cfg.Poll.MinReplyLen)

	section("server")
	field("bind", cfg.Server.Bind)

	section("logging")
	field("level", cfg.Logging.Level)
	if cfg.Logging.File != "" {
		field("file", cfg.Logging.File)
		field("max_size_mb", cfg.Logging.MaxSizeMB)
		field("max_backups", cfg.Logging.MaxBackups)
	}

	section("demo")
	field("enabled", cfg.Demo.Enabled)
	field("bind", cfg.Demo.Bind)

	fmt.Println()

	return nil
}
