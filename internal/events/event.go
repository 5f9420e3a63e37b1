// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/wvoid-fm/broadcast/internal/model"
)

// SchemaVersion is the current AssetTransitionEvent wire format version.
// Bump it when the field set changes in a way older subscribers can't
// ignore.
const SchemaVersion = 1

// AssetTransitionEvent is published once per asset the Streaming Engine
// begins playing. It mirrors model.NowPlaying plus enough of model.Asset
// and model.PlaybackItem to let a subscriber reconstruct play history
// without querying the Play History Store directly.
type AssetTransitionEvent struct {
	SchemaVersion int           `json:"schema_version"`
	EventID       string        `json:"event_id"`
	Timestamp     time.Time     `json:"timestamp"`
	Kind          model.AssetKind `json:"kind"`
	Path          string        `json:"path"`
	TrackName     string        `json:"track_name,omitempty"`
	Artist        string        `json:"artist,omitempty"`
	Vibe          model.Vibe    `json:"vibe,omitempty"`
	ShowID        string        `json:"show_id,omitempty"`
	ShowName      string        `json:"show_name,omitempty"`
	Listeners     int           `json:"listeners"`
}

// NewAssetTransitionEvent builds an event from the item the Engine is
// about to stream and the listener count captured alongside it.
func NewAssetTransitionEvent(item model.PlaybackItem, listeners int) AssetTransitionEvent {
	return AssetTransitionEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		Timestamp:     time.Now().UTC(),
		Kind:          item.Kind,
		Path:          item.Asset.Path,
		TrackName:     item.Asset.TrackName,
		Artist:        item.Asset.Artist,
		Vibe:          item.Asset.Mood.Vibe,
		ShowID:        item.ShowID,
		ShowName:      item.ShowName,
		Listeners:     listeners,
	}
}

// Topic returns the NATS subject the event publishes under: playback.<kind>,
// e.g. "playback.music", "playback.segment", "playback.podcast".
func (e AssetTransitionEvent) Topic() string {
	return "playback." + string(e.Kind)
}
