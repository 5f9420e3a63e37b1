// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wvoid-fm/broadcast/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Record(ctx, model.PlayRecord{
		Path: "/music/a.mp3", TrackName: "A", Vibe: model.VibeJazz,
		TimePeriod: "morning", PlayedAt: time.Now().Add(-time.Hour),
	})
	s.Record(ctx, model.PlayRecord{
		Path: "/music/b.mp3", TrackName: "B", Vibe: model.VibeRock,
		TimePeriod: "evening", PlayedAt: time.Now(),
	})

	recent := s.Recent(ctx, 10)
	require.Len(t, recent, 2)
	require.Equal(t, "/music/b.mp3", recent[0].Path, "newest first")
}

func TestWasPlayedRecently(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Record(ctx, model.PlayRecord{Path: "/music/a.mp3", TrackName: "A", Vibe: model.VibeSoul, PlayedAt: time.Now()})

	require.True(t, s.WasPlayedRecently(ctx, "/music/a.mp3", 24*time.Hour))
	require.False(t, s.WasPlayedRecently(ctx, "/music/a.mp3", 0))
	require.False(t, s.WasPlayedRecently(ctx, "/music/nonexistent.mp3", 24*time.Hour))
}

func TestFilterRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Record(ctx, model.PlayRecord{Path: "/music/a.mp3", TrackName: "A", Vibe: model.VibeSoul, PlayedAt: time.Now()})

	candidates := []string{"/music/a.mp3", "/music/b.mp3", "/music/c.mp3"}
	filtered := s.FilterRecent(ctx, candidates, 24*time.Hour)

	require.ElementsMatch(t, []string{"/music/b.mp3", "/music/c.mp3"}, filtered)
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Record(ctx, model.PlayRecord{
		Path: "/music/a.mp3", TrackName: "A", Vibe: model.VibeJazz,
		TimePeriod: "morning", ListenersAtPlay: 5, PlayedAt: time.Now(),
	})
	s.Record(ctx, model.PlayRecord{
		Path: "/music/a.mp3", TrackName: "A", Vibe: model.VibeJazz,
		TimePeriod: "morning", ListenersAtPlay: 7, PlayedAt: time.Now(),
	})

	stats := s.Stats(ctx)
	require.Equal(t, 2, stats.Plays)
	require.Equal(t, 1, stats.UniqueTracks)
	require.Equal(t, int64(12), stats.ListenersServed)
	require.Equal(t, 2, stats.ByTimePeriod["morning"])
	require.Equal(t, 2, stats.ByVibe[string(model.VibeJazz)])
	require.NotNil(t, stats.FirstPlay)
	require.NotNil(t, stats.LastPlay)
}

func TestMostPlayed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s.Record(ctx, model.PlayRecord{Path: "/music/a.mp3", TrackName: "A", Vibe: model.VibeFunk, PlayedAt: time.Now()})
	}
	s.Record(ctx, model.PlayRecord{Path: "/music/b.mp3", TrackName: "B", Vibe: model.VibeFunk, PlayedAt: time.Now()})

	top := s.MostPlayed(ctx, 5)
	require.NotEmpty(t, top)
	require.Equal(t, "/music/a.mp3", top[0].Path)
	require.Equal(t, 3, top[0].Plays)
}
