package ctl

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/large-farva/rigbridge/internal/protocol"
)

// WatchOptions controls the watch command behavior.
type WatchOptions struct {
	Filter []string // event types to show (empty = all)
	JSON   bool     // output raw JSON per event
}

// wsURL turns the daemon base URL into its WebSocket endpoint.
func wsURL(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	u.Path = "/ws"
	u.RawQuery = ""
	return u.String(), nil
}

// Watch connects to the daemon's WebSocket endpoint and streams events to
// the terminal in a human-readable format until interrupted.
func Watch(baseURL string, opts WatchOptions) error {
	endpoint, err := wsURL(baseURL)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	if !opts.JSON {
		fmt.Println()
		fmt.Printf("  %s %s\n", colorize(green, "connected"), colorize(dim, endpoint))
		if len(opts.Filter) > 0 {
			fmt.Printf("  %s %s\n", colorize(dim, "filter:"), colorize(dim, strings.Join(opts.Filter, ", ")))
		}
		fmt.Println(rule(50))
		fmt.Println()
	}

	filterSet := make(map[string]bool, len(opts.Filter))
	for _, f := range opts.Filter {
		filterSet[f] = true
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}

			if len(filterSet) > 0 {
				var ev struct {
					Type string `json:"type"`
				}
				if err := json.Unmarshal(msg, &ev); err == nil && !filterSet[ev.Type] {
					continue
				}
			}

			if opts.JSON {
				fmt.Println(string(msg))
			} else {
				renderEvent(os.Stdout, msg)
			}
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sig:
		if !opts.JSON {
			fmt.Println()
			fmt.Println(colorize(dim, "  disconnecting..."))
		}
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(1*time.Second),
		)
		return nil
	case <-done:
		return nil
	}
}

// renderEvent parses a JSON event and prints it in a human-friendly format.
// Falls back to raw JSON for unrecognized event types.
func renderEvent(w io.Writer, raw []byte) {
	var ev map[string]any
	if err := json.Unmarshal(raw, &ev); err != nil {
		fmt.Fprintf(w, "  %s\n", string(raw))
		return
	}

	evType, _ := ev["type"].(string)
	ts := formatEventTime(ev)

	switch evType {
	case "value":
		key, _ := ev["key"].(string)
		val, _ := ev["val"].(float64)
		k := protocol.Key(key)
		fmt.Fprintf(w, "  %s %s  %s %s\n",
			colorize(dim, ts),
			colorize(cyan, padRight(key, 4)),
			padRight(k.Label(), 16),
			protocol.FormatValue(k, int64(val)),
		)

	case "status":
		text, _ := ev["text"].(string)
		fmt.Fprintf(w, "  %s %s  %s\n",
			colorize(dim, ts),
			colorize(bold, "STATUS"),
			colorize(statusColor(text), text),
		)

	case "command_accepted":
		text, _ := ev["text"].(string)
		fmt.Fprintf(w, "  %s %s  %s\n",
			colorize(dim, ts),
			colorize(blue, "SENT  "),
			text,
		)

	case "heartbeat":
		// Heartbeats are noisy, so they get one dimmed line.
		link, _ := ev["link"].(string)
		uptime, _ := ev["uptime_seconds"].(float64)
		fmt.Fprintf(w, "  %s %s  %s  up %s\n",
			colorize(dim, ts),
			colorize(dim, "heartbeat"),
			colorize(linkColor(link), link),
			colorize(dim, formatDuration(time.Duration(uptime)*time.Second)),
		)

	case "log":
		level, _ := ev["level"].(string)
		message, _ := ev["message"].(string)
		component, _ := ev["component"].(string)
		src := ""
		if component != "" {
			src = colorize(dim, "["+component+"] ")
		}
		fmt.Fprintf(w, "  %s %s  %s%s\n", colorize(dim, ts), formatLogLevel(level), src, message)

	default:
		// Unknown event type: dump as indented JSON so nothing is lost.
		pretty, err := json.MarshalIndent(ev, "  ", "  ")
		if err != nil {
			fmt.Fprintf(w, "  %s\n", string(raw))
			return
		}
		fmt.Fprintf(w, "  %s\n", string(pretty))
	}
}

// formatEventTime extracts and shortens the timestamp from an event.
func formatEventTime(ev map[string]any) string {
	tsRaw, ok := ev["ts"].(string)
	if !ok {
		return "        "
	}
	t, err := time.Parse(time.RFC3339Nano, tsRaw)
	if err != nil {
		return tsRaw[:min(len(tsRaw), 10)]
	}
	return t.Local().Format("15:04:05")
}
