// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wvoid-fm/broadcast/internal/model"
	"github.com/wvoid-fm/broadcast/internal/websocket"
)

type fakeListenerCounter struct{ n int }

func (f fakeListenerCounter) Current() int { return f.n }

func newTestServer(t *testing.T, checks []ComponentCheck) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	npPath := filepath.Join(dir, "now-playing.json")

	srv, err := New(Config{
		NowPlayingPath:  npPath,
		Listeners:       fakeListenerCounter{n: 7},
		MessagesPath:    filepath.Join(dir, "messages.json"),
		MessagesRing:    10,
		MessageCooldown: 5 * time.Minute,
		RateLimitDir:    filepath.Join(dir, "ratelimit"),
		Checks:          checks,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv, npPath
}

func writeNowPlaying(t *testing.T, path string, np model.NowPlaying) {
	t.Helper()
	data, err := json.Marshal(np)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestHandleNowPlaying_ReadsFileAndInjectsListeners(t *testing.T) {
	srv, npPath := newTestServer(t, nil)
	writeNowPlaying(t, npPath, model.NowPlaying{
		Track: "Track A",
		Kind:  model.KindMusic,
		Vibe:  model.VibeDowntempo,
	})

	router := srv.Router(0, 0)
	req := httptest.NewRequest(http.MethodGet, "/now-playing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got model.NowPlaying
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Track A", got.Track)
	assert.Equal(t, 7, got.Listeners)
}

func TestHandleNowPlaying_MissingFileReturnsEmptyDocument(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	router := srv.Router(0, 0)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got model.NowPlaying
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Empty(t, got.Track)
}

func TestHandleHealth_AllChecksUpReportsHealthy(t *testing.T) {
	srv, _ := newTestServer(t, []ComponentCheck{
		{Name: "icecast", Check: func(context.Context) bool { return true }},
		{Name: "api", Check: AlwaysUp},
	})
	router := srv.Router(0, 0)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var got healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "healthy", got.Status)
	assert.Equal(t, "up", got.Components["icecast"].Status)
}

func TestHandleHealth_OneDownComponentReportsDegraded(t *testing.T) {
	srv, _ := newTestServer(t, []ComponentCheck{
		{Name: "icecast", Check: func(context.Context) bool { return false }},
		{Name: "api", Check: AlwaysUp},
	})
	router := srv.Router(0, 0)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var got healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "degraded", got.Status)
	assert.Equal(t, "down", got.Components["icecast"].Status)
}

func TestHandleStats_ReportsCurrentListenersAndTracksPlayed(t *testing.T) {
	srv, npPath := newTestServer(t, nil)
	router := srv.Router(0, 0)

	writeNowPlaying(t, npPath, model.NowPlaying{Track: "Track A", Listeners: 7})
	req := httptest.NewRequest(http.MethodGet, "/now-playing", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var got statsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(1), got.TracksPlayed)
	assert.Equal(t, 7, got.CurrentListeners)
}

func TestHandleHistory_DisabledWhenNoStoreConfigured(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	router := srv.Router(0, 0)

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var got historyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.Enabled)
}

func TestHandleSubmitMessage_AcceptsValidMessageThenRateLimits(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	router := srv.Router(0, 0)

	body, _ := json.Marshal(map[string]string{"message": "hello from a listener"})
	req := httptest.NewRequest(http.MethodPost, "/message", bytes.NewReader(body))
	req.RemoteAddr = "203.0.113.7:54321"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req2 := httptest.NewRequest(http.MethodPost, "/message", bytes.NewReader(body))
	req2.RemoteAddr = "203.0.113.7:54322"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	assert.Equal(t, http.StatusTooManyRequests, rec2.Code)
}

func TestHandleSubmitMessage_RejectsOversizedMessage(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	router := srv.Router(0, 0)

	oversized := make([]byte, 281)
	for i := range oversized {
		oversized[i] = 'a'
	}
	body, _ := json.Marshal(map[string]string{"message": string(oversized)})
	req := httptest.NewRequest(http.MethodPost, "/message", bytes.NewReader(body))
	req.RemoteAddr = "203.0.113.8:1"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSubmitMessage_ThenListedInMessages(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	router := srv.Router(0, 0)

	body, _ := json.Marshal(map[string]string{"message": "dedication please"})
	req := httptest.NewRequest(http.MethodPost, "/message", bytes.NewReader(body))
	req.RemoteAddr = "203.0.113.9:1"
	router.ServeHTTP(httptest.NewRecorder(), req)

	req2 := httptest.NewRequest(http.MethodGet, "/messages", nil)
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)

	var got []model.ListenerMessage
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "dedication please", got[0].Message)
}

func TestHandleWebSocket_UnavailableWithoutHub(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	router := srv.Router(0, 0)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleWebSocket_UpgradesAndReceivesBroadcast(t *testing.T) {
	dir := t.TempDir()
	npPath := filepath.Join(dir, "now-playing.json")
	hub := websocket.NewHub()

	srv, err := New(Config{
		NowPlayingPath:  npPath,
		Listeners:       fakeListenerCounter{n: 1},
		MessagesPath:    filepath.Join(dir, "messages.json"),
		MessagesRing:    10,
		MessageCooldown: 5 * time.Minute,
		RateLimitDir:    filepath.Join(dir, "ratelimit"),
		Hub:             hub,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = hub.RunWithContext(ctx) }()

	ts := httptest.NewServer(srv.Router(0, 0))
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.BroadcastNowPlaying(map[string]string{"track": "Track A"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg websocket.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, websocket.MessageTypeNowPlaying, msg.Type)
}

func TestCORSPreflight_AllowsAnyOrigin(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	router := srv.Router(0, 0)

	req := httptest.NewRequest(http.MethodOptions, "/now-playing", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
