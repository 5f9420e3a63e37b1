// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !nats

package events

import (
	"context"

	"github.com/wvoid-fm/broadcast/internal/config"
	"github.com/wvoid-fm/broadcast/internal/logging"
)

// noopBus discards every event. It is the default build's Bus so the
// daemon never requires an embedded NATS server to run.
type noopBus struct{}

// NewBus returns a no-op Bus in default builds. If cfg.Enabled is true the
// operator asked for event publishing without compiling it in, which is
// logged once so it's not silently ignored.
func NewBus(cfg config.EventsConfig) (Bus, error) {
	if cfg.Enabled {
		logging.WithComponent("events").Warn().Msg("events.enabled=true but built without the nats tag; playback events will not be published")
	}
	return &noopBus{}, nil
}

func (*noopBus) Publish(context.Context, AssetTransitionEvent) error { return nil }

func (*noopBus) Close() error { return nil }
