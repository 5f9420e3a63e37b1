// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package alerts

import (
	"context"
	"sync"
	"time"
)

// CooldownSink wraps a Sink with a per-component minimum interval between
// deliveries, matching the original watchdog's last_alert_time bookkeeping
// (one timestamp per component, alerts suppressed until ALERT_COOLDOWN
// elapses). Recovery alerts (PriorityRecovery) always bypass the cooldown
// so an operator who was paged about a failure reliably hears it cleared.
type CooldownSink struct {
	next     Sink
	cooldown time.Duration

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// NewCooldownSink wraps next with a per-component cooldown.
func NewCooldownSink(next Sink, cooldown time.Duration) *CooldownSink {
	return &CooldownSink{
		next:     next,
		cooldown: cooldown,
		lastSent: make(map[string]time.Time),
	}
}

// Send delivers a only if the cooldown for a.Component has elapsed since
// the last delivery, or if a is a recovery notification.
func (c *CooldownSink) Send(ctx context.Context, a Alert) error {
	if a.Priority != PriorityRecovery {
		c.mu.Lock()
		last, ok := c.lastSent[a.Component]
		now := time.Now()
		if ok && now.Sub(last) < c.cooldown {
			c.mu.Unlock()
			return nil
		}
		c.lastSent[a.Component] = now
		c.mu.Unlock()
	}

	return c.next.Send(ctx, a)
}

// Reset clears the cooldown for a component, so its next failure alerts
// immediately. Call this after a component recovers.
func (c *CooldownSink) Reset(component string) {
	c.mu.Lock()
	delete(c.lastSent, component)
	c.mu.Unlock()
}
