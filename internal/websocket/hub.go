// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/wvoid-fm/broadcast/internal/logging"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types pushed to subscribed listener clients.
const (
	MessageTypeNowPlaying = "now_playing"
	MessageTypePing       = "ping"
	MessageTypePong       = "pong"
	MessageTypeStats      = "stats"
)

// Message represents a WebSocket message.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of subscribed listener clients and fans out
// now-playing transitions to them. It mirrors the State Publisher's
// now_playing.json writes but over a live connection instead of polling.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext starts the hub with context support for graceful shutdown.
// Intended to run as a supervised suture service alongside the streaming
// engine and HTTP API.
//
// Priority-based selection avoids Go's random multi-channel select order:
// shutdown first, then client lifecycle events, then broadcasts. This keeps
// client bookkeeping consistent before any message is fanned out.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// String identifies this service for suture/supervisor logging.
func (h *Hub) String() string { return "websocket-hub" }

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
	logging.Info().Int("total_clients", len(h.clients)).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
	logging.Info().Int("total_clients", len(h.clients)).Msg("websocket client disconnected")
}

func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()
	reason := getShutdownReason(ctx)
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(reason)).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// broadcastToClients sends a message to all connected clients in a
// deterministic order (by client ID), evicting any client whose send
// buffer is full.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}
	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// BroadcastNowPlaying pushes a now-playing transition to all subscribed
// clients. Never blocks: a full broadcast buffer drops the message, the
// same "observers may miss a beat, the file on disk is authoritative"
// semantics as the now_playing.json drop box.
func (h *Hub) BroadcastNowPlaying(data interface{}) {
	message := Message{Type: MessageTypeNowPlaying, Data: data}
	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Msg("broadcast channel full, dropping now_playing message")
	}
}

// BroadcastStats pushes an updated stats snapshot to all subscribed clients.
func (h *Hub) BroadcastStats(data interface{}) {
	message := Message{Type: MessageTypeStats, Data: data}
	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Msg("broadcast channel full, dropping stats message")
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage converts a message to JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
