// Package ws provides the client hub: a WebSocket pub/sub endpoint that fans
// rig values and status out to every connected client and hands client
// requests (commands, poll control) to a Handler. Each client gets the
// current link status as its first message. The hub also handles ping/pong
// keepalives so stale connections get cleaned up automatically.
package ws

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/large-farva/rigbridge/internal/protocol"
	"github.com/large-farva/rigbridge/internal/telemetry"
)

// Handler receives requests coming in from clients. Methods are called from
// per-client reader goroutines and may block briefly.
type Handler interface {
	// Greeting returns the first event sent to a newly registered client.
	// It is called on the hub loop and must not block.
	Greeting() any
	// HandleCommand relays a raw command payload. ok is false when the
	// payload was not text and was dropped.
	HandleCommand(payload json.RawMessage) (text string, ok bool)
	PausePolling(d time.Duration)
	PollNow()
}

type directMsg struct {
	conn *websocket.Conn
	msg  []byte
}

// Hub manages WebSocket client connections and fans out broadcast messages
// to all of them. It is safe for concurrent use; register, unregister, and
// broadcast all go through channels.
type Hub struct {
	clients    map[*websocket.Conn]struct{}
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte
	direct     chan directMsg
	upgrader   websocket.Upgrader

	handler Handler
	log     *log.Logger
	count   atomic.Int32
}

// NewHub allocates a hub with buffered channels. handler may be nil, in
// which case inbound client messages are ignored.
// Call Run in a goroutine to start the event loop.
func NewHub(handler Handler, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Hub{
		clients:    make(map[*websocket.Conn]struct{}),
		register:   make(chan *websocket.Conn, 16),
		unregister: make(chan *websocket.Conn, 16),
		broadcast:  make(chan []byte, 256),
		direct:     make(chan directMsg, 64),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		handler: handler,
		log:     logger,
	}
}

// Clients returns the number of registered clients.
func (h *Hub) Clients() int {
	return int(h.count.Load())
}

// Run processes registrations, unregistrations, broadcasts, direct sends
// and keepalive pings in a single select loop. It closes all clients when
// ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ping := time.NewTicker(20 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				_ = c.Close()
			}
			h.clients = map[*websocket.Conn]struct{}{}
			h.count.Store(0)
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.count.Store(int32(len(h.clients)))
			if h.handler != nil {
				if b, err := json.Marshal(h.handler.Greeting()); err == nil {
					h.write(c, websocket.TextMessage, b)
				}
			}

		case c := <-h.unregister:
			h.drop(c)

		case msg := <-h.broadcast:
			for c := range h.clients {
				h.write(c, websocket.TextMessage, msg)
			}

		case d := <-h.direct:
			if _, ok := h.clients[d.conn]; ok {
				h.write(d.conn, websocket.TextMessage, d.msg)
			}

		case <-ping.C:
			for c := range h.clients {
				h.write(c, websocket.PingMessage, nil)
			}
		}
	}
}

// write sends one frame, dropping the client on failure. Hub loop only.
func (h *Hub) write(c *websocket.Conn, kind int, msg []byte) {
	_ = c.SetWriteDeadline(time.Now().Add(3 * time.Second))
	if err := c.WriteMessage(kind, msg); err != nil {
		h.drop(c)
	}
}

func (h *Hub) drop(c *websocket.Conn) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	h.count.Store(int32(len(h.clients)))
	_ = c.Close()
}

// Handler returns an http.Handler that upgrades incoming requests to
// WebSocket connections and registers them with the hub.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, "websocket upgrade failed", http.StatusBadRequest)
			return
		}
		h.register <- conn
		h.log.Printf("client connected from %s", r.RemoteAddr)

		go func() {
			defer func() {
				h.unregister <- conn
				h.log.Printf("client %s disconnected", r.RemoteAddr)
			}()
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			conn.SetPongHandler(func(string) error {
				_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
				return nil
			})

			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					return
				}
				_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
				h.dispatch(conn, msg)
			}
		}()
	})
}

// dispatch decodes one inbound client frame and routes it. Malformed frames
// and unknown types are ignored.
func (h *Hub) dispatch(conn *websocket.Conn, msg []byte) {
	if h.handler == nil {
		return
	}
	var in telemetry.Inbound
	if err := json.Unmarshal(msg, &in); err != nil {
		return
	}

	switch in.Type {
	case telemetry.EventCommand:
		if text, ok := h.handler.HandleCommand(in.Text); ok {
			h.SendJSON(conn, telemetry.NewCommandAccepted(text))
		}
	case telemetry.EventPausePolling:
		if in.Ms >= 0 {
			h.handler.PausePolling(time.Duration(in.Ms) * time.Millisecond)
		}
	case telemetry.EventPollNow:
		h.handler.PollNow()
	}
}

// BroadcastJSON marshals v to JSON and queues it for delivery to all
// connected clients. If the broadcast channel is full the message is
// silently dropped to avoid blocking the caller.
func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- b:
	default:
	}
}

// SendJSON queues v for one client only. Dropped if the queue is full.
func (h *Hub) SendJSON(conn *websocket.Conn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case h.direct <- directMsg{conn: conn, msg: b}:
	default:
	}
}

// Status broadcasts a status event.
func (h *Hub) Status(text string) {
	h.BroadcastJSON(telemetry.NewStatus(text))
}

// Value broadcasts one decoded rig value.
func (h *Hub) Value(k protocol.Key, v int64) {
	h.BroadcastJSON(telemetry.NewValue(k, v))
}
