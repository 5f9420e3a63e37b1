// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package publisher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/wvoid-fm/broadcast/internal/model"
)

type fakeBroadcaster struct {
	mu   sync.Mutex
	last interface{}
	n    int
}

func (f *fakeBroadcaster) BroadcastNowPlaying(data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = data
	f.n++
}

func testNowPlaying() model.NowPlaying {
	return model.NowPlaying{
		Track:     "Cool Band - Night Drive",
		Kind:      model.KindMusic,
		Vibe:      model.VibeDowntempo,
		Timestamp: time.Now(),
		Listeners: 7,
	}
}

func TestPublish_WritesAtomicFileAndBroadcasts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "now-playing.json")
	hub := &fakeBroadcaster{}
	p := New([]string{path}, hub)

	np := testNowPlaying()
	require.NoError(t, p.Publish(context.Background(), np))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got model.NowPlaying
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, np.Track, got.Track)
	require.Equal(t, np.Listeners, got.Listeners)

	require.Equal(t, 1, hub.n)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no leftover temp file after rename")
}

func TestPublish_WritesToAllConfiguredPaths(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.json")
	pathB := filepath.Join(dir, "b.json")
	p := New([]string{pathA, pathB}, nil)

	require.NoError(t, p.Publish(context.Background(), testNowPlaying()))

	_, errA := os.Stat(pathA)
	_, errB := os.Stat(pathB)
	require.NoError(t, errA)
	require.NoError(t, errB)
}

func TestPublish_OneBadPathDoesNotBlockOthers(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "missing-subdir", "now-playing.json")
	good := filepath.Join(dir, "now-playing.json")
	p := New([]string{bad, good}, nil)

	err := p.Publish(context.Background(), testNowPlaying())
	require.Error(t, err, "the bad path's failure is still surfaced")

	_, statErr := os.Stat(good)
	require.NoError(t, statErr, "the good path was still written despite the bad one failing")
}

func TestPublish_NilHubIsFineWithoutBroadcast(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "now-playing.json")
	p := New([]string{path}, nil)

	require.NoError(t, p.Publish(context.Background(), testNowPlaying()))
}

func TestListenerCounter_CachesWithinTTL(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"icestats":{"source":{"listeners":12}}}`))
	}))
	defer srv.Close()

	lc := NewListenerCounter(srv.URL, time.Minute)
	require.Equal(t, 12, lc.Current())
	require.Equal(t, 12, lc.Current())
	require.Equal(t, 1, calls, "second call within TTL must not hit the network")
}

func TestListenerCounter_MultiSourceShapeSumsListeners(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"icestats":{"source":[{"listeners":3},{"listeners":4}]}}`))
	}))
	defer srv.Close()

	lc := NewListenerCounter(srv.URL, time.Minute)
	require.Equal(t, 7, lc.Current())
}

func TestListenerCounter_FailureFallsBackToLastKnownValue(t *testing.T) {
	var fail bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"icestats":{"source":{"listeners":5}}}`))
	}))
	defer srv.Close()

	lc := NewListenerCounter(srv.URL, 10*time.Millisecond)
	require.Equal(t, 5, lc.Current())

	time.Sleep(20 * time.Millisecond)
	fail = true
	require.Equal(t, 5, lc.Current(), "a failed refresh keeps the last observed value")
}

func TestListenerCounter_EmptyStatusURLAlwaysReturnsZero(t *testing.T) {
	lc := NewListenerCounter("", time.Minute)
	require.Equal(t, 0, lc.Current())
}
