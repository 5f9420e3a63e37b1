// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package watchdog

import (
	"context"
	"sync"
	"time"

	"github.com/wvoid-fm/broadcast/internal/alerts"
	"github.com/wvoid-fm/broadcast/internal/logging"
)

// Component is one monitored unit: a liveness probe, an optional restart
// action, and whether its prolonged absence counts as critical (raising
// alert priority). Restart is nil for components the supervisor tree
// already owns and restarts on its own (the streaming engine, the HTTP
// API) — Watchdog only attempts a restart for components outside the
// Go process, like Icecast and the tunnel.
type Component struct {
	Name     string
	Check    func(ctx context.Context) bool
	Restart  func(ctx context.Context) error
	Critical bool
}

// Watchdog runs Components' checks on a fixed interval, retrying failed
// components up to maxRetries restarts before alerting, and notifies on
// recovery. Ported from the original watchdog's run_checks/handle_failure/
// handle_recovery loop; the per-component alert cooldown those functions
// implemented by hand is delegated to an alerts.CooldownSink instead of
// tracked here.
type Watchdog struct {
	components    []Component
	checkInterval time.Duration
	maxRetries    int
	sink          alerts.Sink

	mu            sync.Mutex
	failureCounts map[string]int
	everAlerted   map[string]bool
}

// New constructs a Watchdog. sink receives failure/recovery alerts — pass
// an alerts.CooldownSink to avoid re-alerting on every tick a component
// stays down.
func New(components []Component, checkInterval time.Duration, maxRetries int, sink alerts.Sink) *Watchdog {
	if checkInterval <= 0 {
		checkInterval = 30 * time.Second
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if sink == nil {
		sink = alerts.NoopSink{}
	}
	return &Watchdog{
		components:    components,
		checkInterval: checkInterval,
		maxRetries:    maxRetries,
		sink:          sink,
		failureCounts: make(map[string]int),
		everAlerted:   make(map[string]bool),
	}
}

func (w *Watchdog) String() string { return "watchdog" }

// Serve implements suture.Service: it runs an initial check pass
// immediately, then on every tick until ctx is cancelled.
func (w *Watchdog) Serve(ctx context.Context) error {
	w.runChecks(ctx)

	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.runChecks(ctx)
		}
	}
}

func (w *Watchdog) runChecks(ctx context.Context) {
	for _, c := range w.components {
		if c.Check(ctx) {
			w.handleRecovery(ctx, c)
			continue
		}
		w.handleFailure(ctx, c)
	}
}

func (w *Watchdog) handleFailure(ctx context.Context, c Component) {
	log := logging.WithComponent("watchdog")

	w.mu.Lock()
	w.failureCounts[c.Name]++
	attempt := w.failureCounts[c.Name]
	w.mu.Unlock()

	log.Warn().Str("component", c.Name).Int("attempt", attempt).Int("max_retries", w.maxRetries).Msg("component check failed")

	if attempt <= w.maxRetries && c.Restart != nil {
		if err := c.Restart(ctx); err != nil {
			log.Error().Err(err).Str("component", c.Name).Msg("restart attempt failed")
		} else {
			time.Sleep(2 * time.Second)
			if c.Check(ctx) {
				log.Info().Str("component", c.Name).Msg("component recovered after restart")
				w.mu.Lock()
				w.failureCounts[c.Name] = 0
				w.mu.Unlock()
				return
			}
		}
	}

	if attempt > w.maxRetries || c.Restart == nil {
		priority := alerts.PriorityNormal
		if c.Critical {
			priority = alerts.PriorityCritical
		}
		w.mu.Lock()
		w.everAlerted[c.Name] = true
		w.mu.Unlock()

		_ = w.sink.Send(ctx, alerts.Alert{
			Component: c.Name,
			Title:     c.Name + " DOWN",
			Message:   c.Name + " has failed its health check and could not be recovered automatically.",
			Priority:  priority,
			Timestamp: time.Now(),
		})
	}
}

func (w *Watchdog) handleRecovery(ctx context.Context, c Component) {
	w.mu.Lock()
	wasFailing := w.failureCounts[c.Name] > 0
	wasAlerted := w.everAlerted[c.Name]
	w.failureCounts[c.Name] = 0
	w.everAlerted[c.Name] = false
	w.mu.Unlock()

	if !wasFailing {
		return
	}

	logging.WithComponent("watchdog").Info().Str("component", c.Name).Msg("component recovered")

	if wasAlerted {
		_ = w.sink.Send(ctx, alerts.Alert{
			Component: c.Name,
			Title:     c.Name + " RECOVERED",
			Message:   c.Name + " is back online.",
			Priority:  alerts.PriorityRecovery,
			Timestamp: time.Now(),
		})
	}
}
