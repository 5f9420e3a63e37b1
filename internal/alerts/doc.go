// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package alerts sends operator-facing notifications when the watchdog
// (internal/watchdog) observes a component that won't come back up after
// its retry budget is exhausted, or that recovers after having alerted.
// The default Sink posts a Pushover-compatible JSON payload to a webhook
// URL; a NoopSink is used when no webhook is configured.
package alerts
