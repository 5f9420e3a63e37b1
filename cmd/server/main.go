// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command server runs the WVOID-FM broadcast daemon: it scans the
// station's asset libraries, resolves the running schedule, and drives a
// single always-on Icecast source connection while serving a small HTTP
// API for the web player.
//
// # Application Architecture
//
// main initializes components in the following order:
//
//  1. Configuration: Koanf-layered config (struct defaults, optional
//     YAML file, environment variables)
//  2. Logging: zerolog, configured from the loaded config
//  3. Asset Index + Play History + Bookkeeping + Director: the program's
//     view of what exists and what has already played
//  4. WebSocket hub + State Publisher + listener counter + optional event bus
//  5. Command Channel
//  6. Streaming Engine, wired to all of the above
//  7. HTTP API server (serves /ws against the same hub)
//  8. Supervisor tree: streaming, control (watchdog), and API layers
//     (websocket hub and HTTP server both run as API-layer services)
//  9. Signal handling and graceful shutdown
//
// # Build Tags
//
// The asset-transition event bus requires the "nats" build tag to embed
// a real NATS JetStream server; without it, events are dropped (a warning
// is logged at startup when events.enabled is set):
//
//	go build -tags nats ./cmd/server
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger a graceful shutdown: the supervisor tree is
// asked to stop, which lets the Streaming Engine finish or abort its
// current asset, closes the encoder, and releases database handles.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/wvoid-fm/broadcast/internal/alerts"
	"github.com/wvoid-fm/broadcast/internal/api"
	"github.com/wvoid-fm/broadcast/internal/assetindex"
	"github.com/wvoid-fm/broadcast/internal/command"
	"github.com/wvoid-fm/broadcast/internal/config"
	"github.com/wvoid-fm/broadcast/internal/director"
	"github.com/wvoid-fm/broadcast/internal/engine"
	"github.com/wvoid-fm/broadcast/internal/events"
	"github.com/wvoid-fm/broadcast/internal/history"
	"github.com/wvoid-fm/broadcast/internal/logging"
	"github.com/wvoid-fm/broadcast/internal/publisher"
	"github.com/wvoid-fm/broadcast/internal/schedule"
	"github.com/wvoid-fm/broadcast/internal/supervisor"
	"github.com/wvoid-fm/broadcast/internal/supervisor/services"
	"github.com/wvoid-fm/broadcast/internal/watchdog"
	"github.com/wvoid-fm/broadcast/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Msg("starting WVOID-FM broadcast daemon")

	sched, err := schedule.Load(cfg.Schedule.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Fatal().Err(err).Msg("failed to load station schedule")
		}
		logging.Warn().Str("path", cfg.Schedule.Path).Msg("no schedule file present, falling back to the synthetic time-of-day schedule")
		sched = schedule.Synthesize()
	}

	index := assetindex.NewIndex(assetindex.Directories{
		MusicDirs:       cfg.Station.MusicDirs,
		ArchiveMusicDir: cfg.Station.ArchiveMusicDir,
		SegmentsDir:     cfg.Station.SegmentsDir,
		PodcastsDir:     cfg.Station.PodcastsDir,
	}, assetindex.NewClassifier())

	histStore, err := history.Open(cfg.History.Path)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open play history store")
	}
	defer func() {
		if err := histStore.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing play history store")
		}
	}()

	book, err := director.OpenBookkeeping(cfg.Badger.Dir)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open director bookkeeping")
	}
	defer func() {
		if err := book.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing director bookkeeping")
		}
	}()

	prober := assetindex.NewProber("")
	prog := director.New(index, histStore, book, sched, prober)

	eventBus, err := events.NewBus(cfg.Events)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to start event bus")
	}
	defer func() {
		if err := eventBus.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing event bus")
		}
	}()

	wsHub := websocket.NewHub()
	basePublisher := publisher.New(cfg.Server.NowPlayingPaths, wsHub)
	statePublisher := publisher.NewEventPublishingPublisher(basePublisher, eventBus)
	listenerCounter := publisher.NewListenerCounter(cfg.Icecast.StatusURL, cfg.Server.ListenerCacheTTL)

	commandChannel := command.NewChannel(cfg.Command.File)

	streamEngine := engine.New(
		prog,
		statePublisher,
		histStore,
		commandChannel,
		listenerCounter,
		"", "",
		cfg.Icecast,
	)
	defer func() {
		if err := streamEngine.Shutdown(); err != nil {
			logging.Error().Err(err).Msg("error shutting down streaming engine")
		}
	}()

	var nowPlayingPath string
	if len(cfg.Server.NowPlayingPaths) > 0 {
		nowPlayingPath = cfg.Server.NowPlayingPaths[0]
	}

	apiServer, err := api.New(api.Config{
		NowPlayingPath:  nowPlayingPath,
		Listeners:       listenerCounter,
		History:         histStore,
		MessagesPath:    cfg.Messages.Path,
		MessagesRing:    cfg.Messages.RingSize,
		MessageCooldown: cfg.Messages.Cooldown,
		RateLimitDir:    filepath.Join(cfg.Badger.Dir, "messages"),
		Checks:          healthChecks(cfg),
		Hub:             wsHub,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize HTTP API")
	}
	defer func() {
		if err := apiServer.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing HTTP API")
		}
	}()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      apiServer.Router(120, time.Minute),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	alertSink := alerts.NewCooldownSink(alerts.New(cfg.Watchdog.AlertWebhook), cfg.Watchdog.AlertCooldown)
	watchdogLoop := watchdog.New(watchdogComponents(cfg), cfg.Watchdog.CheckInterval, cfg.Watchdog.MaxRetries, alertSink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create supervisor tree")
	}

	tree.AddStreamingService(services.NewEngineService(streamEngine, "streaming-engine"))
	tree.AddControlService(watchdogLoop)
	tree.AddAPIService(services.NewWebSocketHubService(wsHub))
	tree.AddAPIService(services.NewHTTPServerService(httpServer, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", httpServer.Addr).Msg("starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
	}

	logging.Info().Msg("WVOID-FM broadcast daemon stopped")
}

// healthChecks builds the component probes GET /health reports,
// mirroring the original watchdog's COMPONENTS table.
func healthChecks(cfg *config.Config) []api.ComponentCheck {
	return []api.ComponentCheck{
		{Name: "icecast", Check: api.CheckURL(cfg.Icecast.StatusURL)},
		{Name: "streamer", Check: api.CheckProcess("ffmpeg")},
		{Name: "api", Check: api.AlwaysUp},
	}
}

// watchdogComponents builds the set of components the background
// watchdog monitors. Icecast and the tunnel run outside this process and
// get no Restart func here — this daemon has no process manager access
// to them in the general deployment case; Restart is left for a
// deployment-specific wrapper to fill in if desired.
func watchdogComponents(cfg *config.Config) []watchdog.Component {
	return []watchdog.Component{
		{
			Name:     "icecast",
			Check:    api.CheckURL(cfg.Icecast.StatusURL),
			Critical: true,
		},
		{
			Name:     "streamer",
			Check:    api.CheckProcess("ffmpeg"),
			Critical: true,
		},
	}
}
