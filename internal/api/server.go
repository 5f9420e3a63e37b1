// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wvoid-fm/broadcast/internal/history"
	applog "github.com/wvoid-fm/broadcast/internal/logging"
	custommw "github.com/wvoid-fm/broadcast/internal/middleware"
	"github.com/wvoid-fm/broadcast/internal/model"
	"github.com/wvoid-fm/broadcast/internal/websocket"
)

// ListenerCounter reports the last known listener count. Satisfied by
// *publisher.ListenerCounter; declared locally so this package doesn't
// import publisher just for one method.
type ListenerCounter interface {
	Current() int
}

// Server is a small, CORS-open HTTP surface serving the current NowPlaying
// document, health/stats summaries, play history, and a rate-limited
// listener message inbox.
type Server struct {
	nowPlayingPath string
	listeners      ListenerCounter
	history        *history.Store
	messages       *messageStore
	limiter        *messageRateLimiter
	checks         []ComponentCheck
	validate       *validator.Validate
	hub            *websocket.Hub
	upgrader       gorillaws.Upgrader

	startedAt time.Time

	statsMu        sync.Mutex
	lastTrack      string
	tracksPlayed   int64
	totalListeners int64
}

// Config bundles everything Server needs to answer requests.
type Config struct {
	NowPlayingPath  string
	Listeners       ListenerCounter
	History         *history.Store // nil disables /history
	MessagesPath    string
	MessagesRing    int
	MessageCooldown time.Duration
	RateLimitDir    string
	Checks          []ComponentCheck
	Hub             *websocket.Hub // nil disables /ws
}

// New constructs a Server. It opens the durable message rate-limit ledger
// at cfg.RateLimitDir; callers must call Close when done.
func New(cfg Config) (*Server, error) {
	limiter, err := newMessageRateLimiter(cfg.RateLimitDir, cfg.MessageCooldown)
	if err != nil {
		return nil, err
	}

	return &Server{
		nowPlayingPath: cfg.NowPlayingPath,
		listeners:      cfg.Listeners,
		history:        cfg.History,
		messages:       newMessageStore(cfg.MessagesPath, cfg.MessagesRing),
		limiter:        limiter,
		checks:         cfg.Checks,
		validate:       validator.New(),
		startedAt:      time.Now(),
		hub:            cfg.Hub,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      func(r *http.Request) bool { return true },
		},
	}, nil
}

// Close releases the rate-limit ledger's Badger handle.
func (s *Server) Close() error {
	return s.limiter.Close()
}

// Router builds the chi mux. coarseRateLimit bounds abuse-level request
// volume ahead of the business-rule 5-minute message limiter.
func (s *Server) Router(coarseRateLimit int, coarseRateLimitWindow time.Duration) http.Handler {
	if coarseRateLimit <= 0 {
		coarseRateLimit = 120
	}
	if coarseRateLimitWindow <= 0 {
		coarseRateLimitWindow = time.Minute
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return custommw.RequestID(next.ServeHTTP)
	})
	r.Use(func(next http.Handler) http.Handler {
		return custommw.PrometheusMetrics(next.ServeHTTP)
	})
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))
	r.Use(httprate.LimitByIP(coarseRateLimit, coarseRateLimitWindow))

	r.Get("/", s.handleNowPlaying)
	r.Get("/now-playing", s.handleNowPlaying)
	r.Get("/health", s.handleHealth)
	r.Get("/stats", s.handleStats)
	r.Get("/history", s.handleHistory)
	r.Get("/messages", s.handleMessages)
	r.Post("/message", s.handleSubmitMessage)
	r.Get("/ws", s.handleWebSocket)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// handleNowPlaying serves the current NowPlaying document straight from
// the file the State Publisher last wrote, matching the original's
// read-the-file-the-streamer-writes design.
func (s *Server) handleNowPlaying(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	np, ok := s.readNowPlaying()
	if !ok {
		writeJSON(w, http.StatusOK, model.NowPlaying{})
		return
	}

	np.Listeners = s.currentListeners()
	s.trackStatsUpdate(np)
	writeJSON(w, http.StatusOK, np)
}

func (s *Server) readNowPlaying() (model.NowPlaying, bool) {
	data, err := os.ReadFile(s.nowPlayingPath)
	if err != nil {
		return model.NowPlaying{}, false
	}
	var np model.NowPlaying
	if err := json.Unmarshal(data, &np); err != nil {
		applog.WithComponent("api").Warn().Err(err).Msg("failed to parse now-playing file")
		return model.NowPlaying{}, false
	}
	return np, true
}

func (s *Server) currentListeners() int {
	if s.listeners == nil {
		return 0
	}
	return s.listeners.Current()
}

// trackStatsUpdate maintains the monotonic counters served by /stats,
// ported from the original's track_stats_update: a track counts once per
// distinct change, and total_listeners_served accumulates the listener
// count observed at each transition.
func (s *Server) trackStatsUpdate(np model.NowPlaying) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	if np.Track != "" && np.Track != s.lastTrack {
		atomic.AddInt64(&s.tracksPlayed, 1)
		s.lastTrack = np.Track
		if np.Listeners > 0 {
			atomic.AddInt64(&s.totalListeners, int64(np.Listeners))
		}
	}
}

type componentStatus struct {
	Status string `json:"status"`
}

type healthResponse struct {
	Status        string                      `json:"status"`
	Timestamp     time.Time                   `json:"timestamp"`
	Components    map[string]componentStatus  `json:"components"`
	UptimeSeconds int64                       `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := make(map[string]componentStatus, len(s.checks))
	allOK := true
	for _, c := range s.checks {
		ok := c.Check(r.Context())
		if !ok {
			allOK = false
		}
		status := "down"
		if ok {
			status = "up"
		}
		components[c.Name] = componentStatus{Status: status}
	}

	status := "healthy"
	if !allOK {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:        status,
		Timestamp:     time.Now(),
		Components:    components,
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	})
}

type statsResponse struct {
	Uptime               string    `json:"uptime"`
	UptimeSeconds        int64     `json:"uptime_seconds"`
	TracksPlayed         int64     `json:"tracks_played"`
	TotalListenersServed int64     `json:"total_listeners_served"`
	CurrentListeners     int       `json:"current_listeners"`
	APIStarted           time.Time `json:"api_started"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(s.startedAt)
	hours := int64(uptime.Hours())
	minutes := int64(uptime.Minutes()) % 60

	writeJSON(w, http.StatusOK, statsResponse{
		Uptime:               formatHoursMinutes(hours, minutes),
		UptimeSeconds:        int64(uptime.Seconds()),
		TracksPlayed:         atomic.LoadInt64(&s.tracksPlayed),
		TotalListenersServed: atomic.LoadInt64(&s.totalListeners),
		CurrentListeners:     s.currentListeners(),
		APIStarted:           s.startedAt,
	})
}

func formatHoursMinutes(hours, minutes int64) string {
	h := itoa(hours)
	m := itoa(minutes)
	return h + "h " + m + "m"
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append(digits, byte('0'+n%10))
		n /= 10
	}
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

type historyResponse struct {
	Enabled    bool                       `json:"enabled"`
	Recent     []model.PlayRecord         `json:"recent,omitempty"`
	Stats      *model.HistoryStats        `json:"stats,omitempty"`
	MostPlayed []history.MostPlayedEntry  `json:"most_played,omitempty"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, historyResponse{Enabled: false})
		return
	}

	stats := s.history.Stats(r.Context())
	writeJSON(w, http.StatusOK, historyResponse{
		Enabled:    true,
		Recent:     s.history.Recent(r.Context(), 50),
		Stats:      &stats,
		MostPlayed: s.history.MostPlayed(r.Context(), 10),
	})
}

// handleMessages serves the public view of recent listener messages. The
// client key is persisted (the rate limiter and dedication renderer need
// it) but must never leave this process, so it is cleared here rather
// than at the storage layer.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	recent := s.messages.Recent(20)
	redacted := make([]model.ListenerMessage, len(recent))
	for i, m := range recent {
		m.ClientKey = ""
		redacted[i] = m
	}
	writeJSON(w, http.StatusOK, redacted)
}

// handleWebSocket upgrades the connection and registers it with the hub so
// it receives the same now-playing transitions the file-based publisher
// writes, pushed live instead of polled.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "websocket service unavailable"})
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.WithComponent("api").Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(s.hub, conn)
	s.hub.Register <- client
	client.Start()
}

type messageRequest struct {
	Message string `json:"message" validate:"required,max=280"`
}

func (s *Server) handleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	clientKey := clientKeyFor(r)

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid message"})
		return
	}

	ok, wait := s.limiter.allow(clientKey)
	if !ok {
		writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
			"error":        "rate limited",
			"wait_seconds": wait,
		})
		return
	}

	msg := model.ListenerMessage{
		Message:   req.Message,
		Source:    "web",
		ClientKey: clientKey,
		Timestamp: time.Now(),
	}
	if err := s.messages.Append(msg); err != nil {
		applog.WithComponent("api").Error().Err(err).Msg("failed to persist listener message")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save message"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

// clientKeyFor derives a stable-enough per-client identity for rate
// limiting: the remote address with its port stripped, falling back to a
// random key when the request carries no remote address at all (so such
// requests never share one rate-limit bucket).
func clientKeyFor(r *http.Request) string {
	host := r.RemoteAddr
	if host == "" {
		return uuid.New().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		host = host[:idx]
	}
	return host
}
