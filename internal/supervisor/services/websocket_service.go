// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package services

import (
	"context"
)

// ContextHub matches *websocket.Hub's RunWithContext method, avoiding a
// direct import of the websocket package from here.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// WebSocketHubService wraps a WebSocket hub as a supervised service. The
// hub's RunWithContext already implements the suture.Service pattern, so
// this wrapper just delegates and supplies a name for supervisor logs.
type WebSocketHubService struct {
	hub  ContextHub
	name string
}

// NewWebSocketHubService wraps hub.
func NewWebSocketHubService(hub ContextHub) *WebSocketHubService {
	return &WebSocketHubService{
		hub:  hub,
		name: "websocket-hub",
	}
}

// Serve implements suture.Service.
func (w *WebSocketHubService) Serve(ctx context.Context) error {
	return w.hub.RunWithContext(ctx)
}

func (w *WebSocketHubService) String() string {
	return w.name
}
