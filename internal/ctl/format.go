// Package ctl implements the client-side commands for rigbridgectl.
// It talks to a running rigbridged over HTTP and WebSocket and renders the results to the terminal.
package ctl

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
)

// ANSI escape codes for terminal formatting.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	blue   = "\033[34m"
	cyan   = "\033[36m"
	white  = "\033[37m"
)

// colorEnabled reports whether stdout is a terminal. When output is piped
// or redirected, ANSI escape codes are suppressed.
func colorEnabled() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// linkColor returns the ANSI color code for a rig link state.
func linkColor(state string) string {
	if !colorEnabled() {
		return ""
	}
	switch state {
	case "CONNECTED":
		return green
	case "CONNECTING":
		return yellow
	case "DISCONNECTED":
		return red
	default:
		return white
	}
}

// statusColor picks a color for the human status line.
func statusColor(text string) string {
	switch {
	case strings.HasPrefix(text, "Connected"):
		return green
	case strings.HasPrefix(text, "No answer"):
		return yellow
	default:
		return red
	}
}

// colorize wraps text with an ANSI color sequence.
// Returns the text unchanged when color output is disabled.
func colorize(color, text string) string {
	if !colorEnabled() || color == "" {
		return text
	}
	return color + text + reset
}

// header returns a bold section header, or plain text when color is off.
func header(title string) string {
	if colorEnabled() {
		return bold + title + reset
	}
	return title
}

// rule is the dimmed separator under headers.
func rule(width int) string {
	return colorize(dim, "  "+strings.Repeat("─", width))
}

// padRight pads s with spaces to reach the given width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// formatDuration renders a time.Duration as a compact human string like
// "2h 14m 8s" or "45s".
func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// levelBar builds an ASCII bar for a 0–255 rig level.
// The filled portion is colored green when color output is enabled.
func levelBar(raw int64, width int) string {
	raw = min(max(raw, 0), 255)
	filled := int(raw) * width / 255
	empty := width - filled
	if colorEnabled() {
		return green + strings.Repeat("=", filled) + reset + strings.Repeat(" ", empty)
	}
	return strings.Repeat("=", filled) + strings.Repeat(" ", empty)
}
