// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package command

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/wvoid-fm/broadcast/internal/logging"
	"github.com/wvoid-fm/broadcast/internal/model"
)

// Channel is the file-based single-slot command mailbox the Engine polls
// between PCM chunks. Poll is the only reader; Send (or any external
// writer using the same file path, e.g. an operator's shell) may
// write concurrently, so Poll serializes its own read-and-truncate under
// a mutex but does not otherwise coordinate with writers — a write that
// lands between a Poll's read and truncate is simply lost, which matches
// the "edge-triggered, at most one action per write" contract: there is
// no promise a write landing mid-truncate survives.
type Channel struct {
	path string
	mu   sync.Mutex
}

// NewChannel opens a command channel backed by the file at path. The file
// need not exist yet; Poll treats a missing file the same as an empty one.
func NewChannel(path string) *Channel {
	return &Channel{path: path}
}

// Poll performs one non-blocking read-and-truncate. It returns a valid
// CommandKind and true only when the file held a recognized payload;
// an empty file, a missing file, and an unrecognized payload all return
// ("", false) — and in every case the slot is left (or found) empty, so
// the next Poll call never replays a stale command.
func (c *Channel) Poll() (model.CommandKind, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.OpenFile(c.path, os.O_RDWR, 0o644)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.WithComponent("command").Warn().Err(err).Str("path", c.path).Msg("failed to open command file")
		}
		return "", false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		logging.WithComponent("command").Warn().Err(err).Str("path", c.path).Msg("failed to read command file")
		return "", false
	}

	payload := strings.TrimSpace(string(data))
	if payload == "" {
		return "", false
	}

	if err := f.Truncate(0); err != nil {
		logging.WithComponent("command").Warn().Err(err).Str("path", c.path).Msg("failed to truncate command file")
	}

	kind, ok := model.ParseCommandKind(payload)
	if !ok {
		logging.WithComponent("command").Warn().Str("payload", payload).Msg("ignoring unrecognized command payload")
		return "", false
	}
	return kind, true
}

// Send writes a command payload to path for the Engine's next Poll to
// pick up, replacing whatever the file held.
func Send(path string, kind model.CommandKind) error {
	return os.WriteFile(path, []byte(string(kind)), 0o644)
}
