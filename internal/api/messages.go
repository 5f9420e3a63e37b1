// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"

	"github.com/wvoid-fm/broadcast/internal/logging"
	"github.com/wvoid-fm/broadcast/internal/model"
)

// messageStore is a file-backed ring buffer of listener messages, ported
// from the original now_playing_server.py's save_message/get_messages:
// the whole ring is read, appended to, trimmed to ringSize, and rewritten
// on every submission. A mutex serializes access since the file itself
// has no locking.
type messageStore struct {
	path     string
	ringSize int
	mu       sync.Mutex
}

func newMessageStore(path string, ringSize int) *messageStore {
	if ringSize <= 0 {
		ringSize = 100
	}
	return &messageStore{path: path, ringSize: ringSize}
}

// Append adds msg to the ring, trimming the oldest entries beyond
// ringSize, and persists it.
func (s *messageStore) Append(msg model.ListenerMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.load()
	all = append(all, msg)
	if len(all) > s.ringSize {
		all = all[len(all)-s.ringSize:]
	}
	return s.save(all)
}

// Recent returns up to limit messages, newest first.
func (s *messageStore) Recent(limit int) []model.ListenerMessage {
	s.mu.Lock()
	all := s.load()
	s.mu.Unlock()

	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}
	out := make([]model.ListenerMessage, limit)
	for i := 0; i < limit; i++ {
		out[i] = all[len(all)-1-i]
	}
	return out
}

func (s *messageStore) load() []model.ListenerMessage {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var all []model.ListenerMessage
	if err := json.Unmarshal(data, &all); err != nil {
		logging.WithComponent("api").Warn().Err(err).Str("path", s.path).Msg("failed to parse messages file, treating as empty")
		return nil
	}
	return all
}

func (s *messageStore) save(all []model.ListenerMessage) error {
	data, err := json.Marshal(all)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, data, 0o644)
}
