// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package command

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wvoid-fm/broadcast/internal/model"
)

func TestPoll_MissingFileReturnsNoCommand(t *testing.T) {
	ch := NewChannel(filepath.Join(t.TempDir(), "does-not-exist"))
	_, ok := ch.Poll()
	require.False(t, ok)
}

func TestPoll_ValidCommandIsConsumedOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "command.txt")
	require.NoError(t, Send(path, model.CommandSkip))

	ch := NewChannel(path)
	kind, ok := ch.Poll()
	require.True(t, ok)
	require.Equal(t, model.CommandSkip, kind)

	// Edge-triggered: the second poll finds the slot already empty.
	_, ok = ch.Poll()
	require.False(t, ok)
}

func TestPoll_UnknownPayloadIsIgnoredAndConsumed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "command.txt")
	require.NoError(t, os.WriteFile(path, []byte("reticulate_splines"), 0o644))

	ch := NewChannel(path)
	_, ok := ch.Poll()
	require.False(t, ok)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Empty(t, data, "an unknown payload still consumes the slot")
}

func TestPoll_WhitespaceOnlyIsTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "command.txt")
	require.NoError(t, os.WriteFile(path, []byte("  \n\t"), 0o644))

	ch := NewChannel(path)
	_, ok := ch.Poll()
	require.False(t, ok)
}

func TestSend_RoundTripsAllCommandKinds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "command.txt")
	ch := NewChannel(path)

	for _, kind := range []model.CommandKind{model.CommandSkip, model.CommandSegment, model.CommandPodcast} {
		require.NoError(t, Send(path, kind))
		got, ok := ch.Poll()
		require.True(t, ok)
		require.Equal(t, kind, got)
	}
}
