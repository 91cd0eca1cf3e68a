// Package telemetry defines the typed events that flow over the WebSocket
// connection between rigbridged and its clients, in both directions.
package telemetry

import (
	"encoding/json"
	"time"

	"github.com/large-farva/rigbridge/internal/protocol"
)

// EventType identifies the kind of WebSocket event.
type EventType string

// Outbound (daemon -> client).
const (
	EventValue           EventType = "value"
	EventStatus          EventType = "status"
	EventCommandAccepted EventType = "command_accepted"
	EventHeartbeat       EventType = "heartbeat"
	EventLog             EventType = "log"
)

// Inbound (client -> daemon).
const (
	EventCommand      EventType = "command"
	EventPausePolling EventType = "pause_polling"
	EventPollNow      EventType = "poll_now"
)

// Event is the base envelope shared by every outbound event.
type Event struct {
	Type EventType `json:"type"`
	TS   string    `json:"ts"`
}

// NowTS returns the current UTC time as an RFC 3339 nano string, matching the
// timestamp format used across all events.
func NowTS() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func stamp(t EventType) Event {
	return Event{Type: t, TS: NowTS()}
}

// Value carries one decoded rig parameter from a successful poll.
type Value struct {
	Event
	Key protocol.Key `json:"key"`
	Val int64        `json:"val"`
}

// NewValue builds a value event.
func NewValue(k protocol.Key, v int64) Value {
	return Value{Event: stamp(EventValue), Key: k, Val: v}
}

// Status carries human-readable link/poll status text.
type Status struct {
	Event
	Text string `json:"text"`
}

// NewStatus builds a status event.
func NewStatus(text string) Status {
	return Status{Event: stamp(EventStatus), Text: text}
}

// CommandAccepted echoes a relayed command back to the client that sent
// it. It confirms the text was handed to the link, not that the rig acted.
type CommandAccepted struct {
	Event
	Text string `json:"text"`
}

// NewCommandAccepted builds a command acknowledgement.
func NewCommandAccepted(text string) CommandAccepted {
	return CommandAccepted{Event: stamp(EventCommandAccepted), Text: text}
}

// Heartbeat is sent periodically so clients can detect connectivity and
// monitor daemon uptime.
type Heartbeat struct {
	Event
	Link          string `json:"link"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// NewHeartbeat builds a heartbeat event.
func NewHeartbeat(link string, uptime time.Duration) Heartbeat {
	return Heartbeat{Event: stamp(EventHeartbeat), Link: link, UptimeSeconds: int64(uptime.Seconds())}
}

// LogLine carries a human-readable log message at a severity level.
type LogLine struct {
	Event
	Level     string `json:"level"`
	Message   string `json:"message"`
	Component string `json:"component,omitempty"`
}

// NewLogLine builds a log event.
func NewLogLine(level, component, message string) LogLine {
	return LogLine{Event: stamp(EventLog), Level: level, Component: component, Message: message}
}

// Inbound is a client request. Text stays raw so non-string payloads can be
// told apart from strings and dropped.
type Inbound struct {
	Type EventType       `json:"type"`
	Text json.RawMessage `json:"text,omitempty"`
	Ms   int64           `json:"ms,omitempty"`
}
