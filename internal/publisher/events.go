// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package publisher

import (
	"context"

	"github.com/wvoid-fm/broadcast/internal/events"
	"github.com/wvoid-fm/broadcast/internal/logging"
	"github.com/wvoid-fm/broadcast/internal/model"
)

// inner is the Publish-only seam EventPublishingPublisher wraps — the
// Streaming Engine only ever sees this method, so the plain *Publisher
// satisfies it without change.
type inner interface {
	Publish(ctx context.Context, np model.NowPlaying) error
}

// EventPublishingPublisher decorates a Publisher so that every published
// NowPlaying document also produces an AssetTransitionEvent on the event
// bus. The Streaming Engine's Publisher interface only carries a
// NowPlaying document, not the originating PlaybackItem, so the event is
// reconstructed from the fields NowPlaying already has — sufficient for
// subscribers that care about what's airing now, not the full asset
// metadata a direct Engine-level hook would have carried.
type EventPublishingPublisher struct {
	next inner
	bus  events.Bus
}

// NewEventPublishingPublisher wraps next so every Publish also emits to
// bus. A nil or no-op bus is safe to pass.
func NewEventPublishingPublisher(next inner, bus events.Bus) *EventPublishingPublisher {
	return &EventPublishingPublisher{next: next, bus: bus}
}

// Publish writes the NowPlaying document via next, then best-effort
// publishes a corresponding AssetTransitionEvent. A bus failure is
// logged, never returned, so a down event bus never blocks playback.
func (p *EventPublishingPublisher) Publish(ctx context.Context, np model.NowPlaying) error {
	if err := p.next.Publish(ctx, np); err != nil {
		return err
	}

	if p.bus == nil {
		return nil
	}

	item := model.PlaybackItem{
		Asset: model.Asset{
			TrackName: np.Track,
			Kind:      np.Kind,
			Mood:      model.Mood{Vibe: np.Vibe},
		},
		Kind:     np.Kind,
		ShowID:   np.ShowID,
		ShowName: np.ShowName,
	}
	evt := events.NewAssetTransitionEvent(item, np.Listeners)
	if err := p.bus.Publish(ctx, evt); err != nil {
		logging.WithComponent("publisher").Warn().Err(err).Msg("failed to publish asset-transition event")
	}
	return nil
}
