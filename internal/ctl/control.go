package ctl

import (
	"fmt"
	"strings"
)

// commandResult mirrors the {ok, message, error} body of control endpoints.
type commandResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Send relays one raw command line (e.g. "wFA7074000;") to the rig.
func Send(baseURL, command string, jsonOutput bool) error {
	if strings.TrimSpace(command) == "" {
		return fmt.Errorf("command text required")
	}
	return control(baseURL, "/api/command", map[string]any{"command": command}, "SENT", jsonOutput)
}

// Poll asks the daemon to query the rig right away.
func Poll(baseURL string, jsonOutput bool) error {
	return control(baseURL, "/api/poll", nil, "POLLED", jsonOutput)
}

// Pause suspends scheduled polling for ms milliseconds.
func Pause(baseURL string, ms int64, jsonOutput bool) error {
	if ms < 0 {
		return fmt.Errorf("--ms must be >= 0")
	}
	return control(baseURL, "/api/pause", map[string]any{"ms": ms}, "PAUSED", jsonOutput)
}

// Reconnect forces the daemon to redial the rig.
func Reconnect(baseURL string, jsonOutput bool) error {
	return control(baseURL, "/api/reconnect", nil, "CONNECTED", jsonOutput)
}

func control(baseURL, path string, body any, label string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var result commandResult
	if err := postJSON(baseURL, path, body, &result); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(result)
	}

	if result.OK {
		fmt.Printf("\n  %s  %s\n\n", colorize(green, label), result.Message)
	} else {
		fmt.Printf("\n  %s  %s\n\n", colorize(red, "ERROR"), result.Error)
	}
	return nil
}
