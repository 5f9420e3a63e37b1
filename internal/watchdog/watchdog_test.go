// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package watchdog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wvoid-fm/broadcast/internal/alerts"
)

type recordingSink struct {
	mu     sync.Mutex
	alerts []alerts.Alert
}

func (s *recordingSink) Send(ctx context.Context, a alerts.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, a)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts)
}

func (s *recordingSink) last() alerts.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alerts[len(s.alerts)-1]
}

func TestWatchdog_AlertsAfterExhaustingRetriesWithNoRestart(t *testing.T) {
	sink := &recordingSink{}
	comp := Component{
		Name:     "tunnel",
		Check:    func(context.Context) bool { return false },
		Critical: true,
	}
	w := New([]Component{comp}, time.Hour, 2, sink)

	w.runChecks(context.Background())
	require.Equal(t, 1, sink.count())
	assert.Equal(t, alerts.PriorityCritical, sink.last().Priority)
}

func TestWatchdog_RestartRecoversWithoutAlerting(t *testing.T) {
	sink := &recordingSink{}
	restarted := false
	comp := Component{
		Name: "icecast",
		Check: func(context.Context) bool {
			return restarted
		},
		Restart: func(context.Context) error {
			restarted = true
			return nil
		},
	}
	w := New([]Component{comp}, time.Hour, 3, sink)

	w.runChecks(context.Background())
	assert.Equal(t, 0, sink.count())
}

func TestWatchdog_RecoveryNotificationOnlyAfterAPriorAlert(t *testing.T) {
	sink := &recordingSink{}
	up := false
	comp := Component{
		Name:  "api",
		Check: func(context.Context) bool { return up },
	}
	w := New([]Component{comp}, time.Hour, 0, sink)

	w.runChecks(context.Background())
	require.Equal(t, 1, sink.count())

	up = true
	w.runChecks(context.Background())
	require.Equal(t, 2, sink.count())
	assert.Equal(t, alerts.PriorityRecovery, sink.last().Priority)
}

func TestWatchdog_NoRecoveryNotificationWhenNeverFailed(t *testing.T) {
	sink := &recordingSink{}
	comp := Component{
		Name:  "api",
		Check: func(context.Context) bool { return true },
	}
	w := New([]Component{comp}, time.Hour, 0, sink)

	w.runChecks(context.Background())
	assert.Equal(t, 0, sink.count())
}

func TestWatchdog_ServeRunsImmediatelyAndStopsOnCancel(t *testing.T) {
	sink := &recordingSink{}
	calls := 0
	var mu sync.Mutex
	comp := Component{
		Name: "api",
		Check: func(context.Context) bool {
			mu.Lock()
			calls++
			mu.Unlock()
			return true
		},
	}
	w := New([]Component{comp}, time.Millisecond, 0, sink)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_ = w.Serve(ctx)

	mu.Lock()
	defer mu.Unlock()
	assert.Greater(t, calls, 1)
}
