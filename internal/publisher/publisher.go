// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package publisher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/wvoid-fm/broadcast/internal/logging"
	"github.com/wvoid-fm/broadcast/internal/model"
)

// broadcaster is the subset of *websocket.Hub the Publisher pushes
// NowPlaying updates through. Accepting an interface here keeps this
// package testable without a live hub.
type broadcaster interface {
	BroadcastNowPlaying(data interface{})
}

// Publisher implements engine.Publisher: it writes the NowPlaying document
// to every configured path with a write-tmp-then-rename so readers (the
// HTTP API, an external web server serving the file directly) never observe
// a half-written file, then pushes the same document to websocket
// subscribers.
type Publisher struct {
	paths []string
	hub   broadcaster
}

// New constructs a Publisher. hub may be nil, in which case Publish only
// performs the file writes.
func New(paths []string, hub broadcaster) *Publisher {
	return &Publisher{paths: paths, hub: hub}
}

// Publish writes np to every configured path and broadcasts it over the
// websocket hub. It returns the first write error encountered but still
// attempts every remaining path — a single bad path (permissions, missing
// directory) must not stop the others from updating.
func (p *Publisher) Publish(ctx context.Context, np model.NowPlaying) error {
	data, err := json.Marshal(np)
	if err != nil {
		return fmt.Errorf("marshal now-playing: %w", err)
	}

	var firstErr error
	for _, path := range p.paths {
		if err := writeAtomic(path, data); err != nil {
			logging.WithComponent("publisher").Warn().Err(err).Str("path", path).Msg("failed to write now-playing file")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if p.hub != nil {
		p.hub.BroadcastNowPlaying(np)
	}

	return firstErr
}

// writeAtomic writes data to a sibling temp file and renames it over path,
// so a reader never sees a partially written document.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".now-playing-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s to %s: %w", tmpPath, path, err)
	}
	return nil
}
