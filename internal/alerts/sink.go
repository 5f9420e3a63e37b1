// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package alerts

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/wvoid-fm/broadcast/internal/logging"
)

// Priority mirrors Pushover's priority scale closely enough to drive a
// generic webhook: negative values are low-priority/quiet notifications,
// zero is normal, positive values mark something that needs attention.
type Priority int

const (
	PriorityRecovery Priority = -1
	PriorityNormal   Priority = 0
	PriorityCritical Priority = 1
)

// Alert is one notification about a supervised component's health.
type Alert struct {
	Component string    `json:"component"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Priority  Priority  `json:"priority"`
	Sound     string    `json:"sound,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink delivers an Alert. Implementations must not block the supervisor's
// health-check loop for long; callers are expected to pass a context with
// a short deadline.
type Sink interface {
	Send(ctx context.Context, a Alert) error
}

// NoopSink discards every alert. Used when no alert webhook is configured.
type NoopSink struct{}

func (NoopSink) Send(context.Context, Alert) error { return nil }

// WebhookSink posts each Alert as JSON to a configured URL. It generalizes
// the original watchdog's hardcoded Pushover API call into a pluggable
// webhook endpoint — any receiver (a Pushover-compatible relay, a Slack
// incoming webhook adapter, a custom receiver) can consume the same
// {component,title,message,priority,sound,timestamp} document.
type WebhookSink struct {
	url    string
	client *http.Client
}

// NewWebhookSink constructs a WebhookSink posting to url with a 10s
// request timeout, matching the original watchdog's urlopen timeout.
func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts a to the webhook. Failures are logged and returned but never
// panic or retry — a CooldownSink wrapped around it bounds how often
// Send is called for a given component.
func (s *WebhookSink) Send(ctx context.Context, a Alert) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		logging.WithComponent("alerts").Warn().Err(err).Str("component", a.Component).Msg("failed to deliver alert")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		err := fmt.Errorf("alert webhook returned status %d", resp.StatusCode)
		logging.WithComponent("alerts").Warn().Err(err).Str("component", a.Component).Msg("alert webhook rejected payload")
		return err
	}

	return nil
}

// New returns a WebhookSink for a non-empty url, or a NoopSink otherwise.
func New(url string) Sink {
	if url == "" {
		return NoopSink{}
	}
	return NewWebhookSink(url)
}
