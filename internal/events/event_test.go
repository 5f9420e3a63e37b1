// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wvoid-fm/broadcast/internal/config"
	"github.com/wvoid-fm/broadcast/internal/model"
)

func TestNewAssetTransitionEvent_CopiesFieldsAndStampsID(t *testing.T) {
	item := model.PlaybackItem{
		Asset: model.Asset{
			Path:      "/music/a.flac",
			TrackName: "Night Drive",
			Artist:    "Cool Band",
			Mood:      model.Mood{Vibe: model.VibeDowntempo},
		},
		Kind:     model.KindMusic,
		ShowID:   "late-night",
		ShowName: "Late Night Low End",
	}

	evt := NewAssetTransitionEvent(item, 9)
	require.NotEmpty(t, evt.EventID)
	require.Equal(t, SchemaVersion, evt.SchemaVersion)
	require.Equal(t, model.KindMusic, evt.Kind)
	require.Equal(t, "/music/a.flac", evt.Path)
	require.Equal(t, "Night Drive", evt.TrackName)
	require.Equal(t, "Cool Band", evt.Artist)
	require.Equal(t, model.VibeDowntempo, evt.Vibe)
	require.Equal(t, "late-night", evt.ShowID)
	require.Equal(t, 9, evt.Listeners)
}

func TestAssetTransitionEvent_Topic(t *testing.T) {
	evt := AssetTransitionEvent{Kind: model.KindPodcast}
	require.Equal(t, "playback.podcast", evt.Topic())
}

func TestNewAssetTransitionEvent_EachCallGetsAUniqueID(t *testing.T) {
	item := model.PlaybackItem{Asset: model.Asset{Path: "/music/a.flac"}, Kind: model.KindMusic}
	a := NewAssetTransitionEvent(item, 0)
	b := NewAssetTransitionEvent(item, 0)
	require.NotEqual(t, a.EventID, b.EventID)
}

func TestNoopBus_PublishAndCloseAlwaysSucceed(t *testing.T) {
	bus, err := NewBus(config.EventsConfig{Enabled: false})
	require.NoError(t, err)

	evt := NewAssetTransitionEvent(model.PlaybackItem{Asset: model.Asset{Path: "/x"}, Kind: model.KindMusic}, 1)
	require.NoError(t, bus.Publish(context.Background(), evt))
	require.NoError(t, bus.Close())
}

func TestNoopBus_WarnsButStillNoOpsWhenEnabledWithoutBuildTag(t *testing.T) {
	bus, err := NewBus(config.EventsConfig{Enabled: true})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), AssetTransitionEvent{}))
}
