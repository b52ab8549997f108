// Package feed pushes activity events to connected clients, over a raw TCP
// line protocol (one JSON object per line) and over WebSocket.
package feed

import (
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 2 * time.Second

// Hub fans activity events out to the connected subscribers. A client that
// fails a write is evicted on the spot; slow readers cannot wedge the
// broadcast for longer than the write timeout.
type Hub struct {
	mu  sync.Mutex
	tcp map[net.Conn]struct{}
	ws  map[*websocket.Conn]struct{}
}

type Stats struct {
	TCPClients int `json:"tcp_clients"`
	WSClients  int `json:"ws_clients"`
}

func NewHub() *Hub {
	return &Hub{
		tcp: make(map[net.Conn]struct{}),
		ws:  make(map[*websocket.Conn]struct{}),
	}
}

func (h *Hub) Add(conn net.Conn) {
	h.mu.Lock()
	h.tcp[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Remove(conn net.Conn) {
	h.mu.Lock()
	delete(h.tcp, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

func (h *Hub) AddWS(ws *websocket.Conn) {
	h.mu.Lock()
	h.ws[ws] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) RemoveWS(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.ws, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

// Broadcast delivers one activity event to every subscriber as a single
// JSON line.
func (h *Hub) Broadcast(ev ActivityEvent) {
	line, err := json.Marshal(ev)
	if err != nil {
		return
	}
	line = append(line, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.tcp {
		_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
		if _, err := c.Write(line); err != nil {
			_ = c.Close()
			delete(h.tcp, c)
		}
	}

	for c := range h.ws {
		if err := c.WriteMessage(websocket.TextMessage, line); err != nil {
			_ = c.Close()
			delete(h.ws, c)
		}
	}
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		TCPClients: len(h.tcp),
		WSClients:  len(h.ws),
	}
}

// welcomeMsg greets a new subscriber with the current client counts.
type welcomeMsg struct {
	Type      string `json:"type"`
	Transport string `json:"transport"`
	Stats
}

func (h *Hub) welcomeLine(transport string) []byte {
	b, err := json.Marshal(welcomeMsg{Type: "welcome", Transport: transport, Stats: h.Stats()})
	if err != nil {
		return nil
	}
	return append(b, '\n')
}

func (h *Hub) Welcome(conn net.Conn) {
	_, _ = conn.Write(h.welcomeLine("tcp"))
}

func (h *Hub) WelcomeWS(ws *websocket.Conn) {
	_ = ws.WriteMessage(websocket.TextMessage, h.welcomeLine("websocket"))
}
