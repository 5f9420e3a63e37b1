// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/wvoid-fm/broadcast/internal/cache"
	"github.com/wvoid-fm/broadcast/internal/logging"
	"github.com/wvoid-fm/broadcast/internal/metrics"
)

// listenerCacheKey is the single cache slot the ListenerCounter occupies;
// there is only ever one Icecast mount to poll.
const listenerCacheKey = "icecast:listeners"

// fetchTimeout bounds a single status-endpoint request per §6/§7's "short
// timeouts on external calls" posture.
const fetchTimeout = 5 * time.Second

// icecastStatus is the subset of Icecast's status-json.xsl document the
// ListenerCounter reads. The "source" field is an object when the mount
// list has exactly one entry and an array otherwise, so both shapes are
// tried.
type icecastStatus struct {
	Icestats struct {
		Source json.RawMessage `json:"source"`
	} `json:"icestats"`
}

type icecastSource struct {
	Listeners int `json:"listeners"`
}

func parseListenerCount(body []byte) (int, error) {
	var status icecastStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return 0, fmt.Errorf("parse icecast status: %w", err)
	}
	if len(status.Icestats.Source) == 0 {
		return 0, nil
	}

	var single icecastSource
	if err := json.Unmarshal(status.Icestats.Source, &single); err == nil {
		return single.Listeners, nil
	}

	var multi []icecastSource
	if err := json.Unmarshal(status.Icestats.Source, &multi); err == nil {
		total := 0
		for _, s := range multi {
			total += s.Listeners
		}
		return total, nil
	}

	return 0, fmt.Errorf("unrecognized icecast status shape")
}

// ListenerCounter polls an Icecast status endpoint for the current listener
// count, caches the result for ttl, and degrades to the last observed value
// on any failure — it never returns an error to callers, matching the
// Streaming Engine's requirement that listener counts never block or abort
// an asset (spec.md §4.F).
type ListenerCounter struct {
	statusURL string
	client    *http.Client
	cache     *cache.Cache
	ttl       time.Duration
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker[int]
	last      int
}

// NewListenerCounter constructs a ListenerCounter against statusURL. ttl is
// the cache lifetime (ServerConfig.ListenerCacheTTL, ~15s). An empty
// statusURL disables polling entirely; Current then always returns 0.
func NewListenerCounter(statusURL string, ttl time.Duration) *ListenerCounter {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	st := gobreaker.Settings{
		Name:        "icecast-status",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &ListenerCounter{
		statusURL: statusURL,
		client:    &http.Client{Timeout: fetchTimeout},
		cache:     cache.New(ttl),
		ttl:       ttl,
		limiter:   rate.NewLimiter(rate.Every(time.Second), 2),
		breaker:   gobreaker.NewCircuitBreaker[int](st),
	}
}

// Current returns the listener count last observed from Icecast, refreshing
// it from the network if the cache entry has expired. Any failure (timeout,
// non-2xx status, unparsable body, open circuit) falls back to the last
// known value instead of propagating an error. When the rate limiter has
// no token available, Current waits for one before fetching.
func (l *ListenerCounter) Current() int {
	if l.statusURL == "" {
		return 0
	}

	if cached, ok := l.cache.Get(listenerCacheKey); ok {
		return cached.(int)
	}

	if err := l.limiter.Wait(context.Background()); err != nil {
		return l.last
	}

	count, err := l.breaker.Execute(func() (int, error) {
		return l.fetch()
	})
	if err != nil {
		logging.WithComponent("publisher").Warn().Err(err).Msg("icecast listener-count fetch failed, using last known value")
		return l.last
	}

	l.last = count
	l.cache.Set(listenerCacheKey, count)
	metrics.CurrentListeners.Set(float64(count))
	return count
}

func (l *ListenerCounter) fetch() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.statusURL, nil)
	if err != nil {
		return 0, err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("icecast status endpoint returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, err
	}

	return parseListenerCount(body)
}
