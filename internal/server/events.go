// ============================================================================
// meinSPRACHWERK (mSW) - Lokaler Text-to-Speech Dienst
// ============================================================================
//
// Package:     server
// Description: WebSocket hub broadcasting queue events
// Author:      Mike Stoffels with Claude
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/msto63/mSW/internal/speech"
	"github.com/msto63/mSW/pkg/core/logging"
)

// WebSocket upgrader with permissive settings, the server binds to
// loopback only
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventHub fans queue events out to connected WebSocket clients. Slow
// clients drop events rather than stalling the queue observer.
type EventHub struct {
	mu      sync.Mutex
	clients map[*hubClient]struct{}
	logger  *logging.Logger
}

type hubClient struct {
	conn *websocket.Conn
	send chan speech.Event
}

// NewEventHub creates an empty hub
func NewEventHub(logger *logging.Logger) *EventHub {
	if logger == nil {
		logger = logging.New("events")
	}
	return &EventHub{
		clients: make(map[*hubClient]struct{}),
		logger:  logger,
	}
}

// Observer returns a queue observer that broadcasts every event
func (h *EventHub) Observer() speech.Observer {
	return func(ev speech.Event) {
		h.mu.Lock()
		defer h.mu.Unlock()
		for c := range h.clients {
			select {
			case c.send <- ev:
			default:
			}
		}
	}
}

// ServeHTTP upgrades the connection and streams events until the client
// disconnects
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}

	client := &hubClient{
		conn: conn,
		send: make(chan speech.Event, 32),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("Event client connected", "remote", conn.RemoteAddr().String(), "clients", count)

	go h.writeLoop(client)
	h.readLoop(client)
}

// writeLoop pushes events and periodic pings to one client
func (h *EventHub) writeLoop(c *hubClient) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(ev); err != nil {
				h.drop(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(c)
				return
			}
		}
	}
}

// readLoop discards client messages and detects disconnects
func (h *EventHub) readLoop(c *hubClient) {
	defer h.drop(c)

	c.conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket read error", "error", err)
			}
			return
		}
	}
}

// drop disconnects and forgets one client
func (h *EventHub) drop(c *hubClient) {
	h.mu.Lock()
	_, present := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if present {
		c.conn.Close()
		h.logger.Info("Event client disconnected")
	}
}

// Close disconnects all clients
func (h *EventHub) Close() {
	h.mu.Lock()
	clients := make([]*hubClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*hubClient]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.Close()
	}
}
