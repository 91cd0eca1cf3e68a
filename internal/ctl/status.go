package ctl

import (
	"fmt"
	"strings"
	"time"
)

// StatusResponse mirrors the JSON returned by GET /api/status.
type StatusResponse struct {
	Name            string `json:"name"`
	Mode            string `json:"mode"`
	UptimeSeconds   int64  `json:"uptime_seconds"`
	Rig             string `json:"rig"`
	Link            string `json:"link"`
	ConnectFailures int    `json:"connect_failures"`
	Status          string `json:"status"`
	Clients         int    `json:"clients"`
	Poller          struct {
		IntervalMs  int64  `json:"interval_ms"`
		Failures    int    `json:"failures"`
		Paused      bool   `json:"paused"`
		Cycles      uint64 `json:"cycles"`
		Answered    uint64 `json:"answered"`
		LastReplyAt string `json:"last_reply_at"`
	} `json:"poller"`
}

// Status fetches the daemon status and prints a formatted summary.
func Status(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var s StatusResponse
	if err := getJSON(baseURL, "/api/status", &s); err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(s)
	}

	uptime := formatDuration(time.Duration(s.UptimeSeconds) * time.Second)
	polling := fmt.Sprintf("every %dms", s.Poller.IntervalMs)
	if s.Poller.Paused {
		polling = colorize(yellow, "paused")
	}
	lastReply := s.Poller.LastReplyAt
	if t, err := time.Parse(time.RFC3339Nano, lastReply); err == nil {
		lastReply = formatDuration(time.Since(t)) + " ago"
	} else if lastReply == "" {
		lastReply = "never"
	}

	fmt.Println()
	fmt.Println(header("  RIGBRIDGE STATUS"))
	fmt.Println(rule(38))
	fmt.Printf("  %-12s %s (%s)\n", colorize(dim, "Daemon:"), s.Name, s.Mode)
	fmt.Printf("  %-12s %s\n", colorize(dim, "Uptime:"), uptime)
	fmt.Printf("  %-12s %s\n", colorize(dim, "Rig:"), s.Rig)
	fmt.Printf("  %-12s %s\n", colorize(dim, "Link:"), colorize(linkColor(s.Link), s.Link))
	if s.ConnectFailures > 0 {
		fmt.Printf("  %-12s %d\n", colorize(dim, "Dial fails:"), s.ConnectFailures)
	}
	fmt.Printf("  %-12s %s\n", colorize(dim, "Status:"), colorize(statusColor(s.Status), s.Status))
	fmt.Printf("  %-12s %s\n", colorize(dim, "Polling:"), polling)
	fmt.Printf("  %-12s %d/%d answered, %d failing\n", colorize(dim, "Cycles:"), s.Poller.Answered, s.Poller.Cycles, s.Poller.Failures)
	fmt.Printf("  %-12s %s\n", colorize(dim, "Last reply:"), lastReply)
	fmt.Printf("  %-12s %d\n", colorize(dim, "Clients:"), s.Clients)
	fmt.Printf("  %-12s %s\n", colorize(dim, "Host:"), baseURL)
	fmt.Println()

	return nil
}
