// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package events

import "context"

// Bus publishes AssetTransitionEvents to whatever subscribers are attached.
// Both the embedded-NATS implementation (build tag "nats") and the no-op
// stub (default build) satisfy this interface, so cmd/server wires the
// same call sites regardless of build configuration.
type Bus interface {
	Publish(ctx context.Context, evt AssetTransitionEvent) error
	Close() error
}
