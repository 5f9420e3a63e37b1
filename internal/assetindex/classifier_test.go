// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package assetindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wvoid-fm/broadcast/internal/model"
)

func TestClassifyMood_LongestMatchWins(t *testing.T) {
	c := NewClassifier()

	// "electronic_chill" must beat the shorter "electronic" substring.
	mood := c.ClassifyMood("/music/library/electronic_chill/track01.flac")
	require.Equal(t, model.VibeElectronicChill, mood.Vibe)

	mood = c.ClassifyMood("/music/library/electronic/banger.mp3")
	require.Equal(t, model.VibeElectronic, mood.Vibe)
}

func TestClassifyMood_NoMatchReturnsDefault(t *testing.T) {
	c := NewClassifier()
	mood := c.ClassifyMood("/music/misc/track_0001.mp3")
	assert.Equal(t, defaultMood, mood)
}

func TestClassifyMood_CaseInsensitive(t *testing.T) {
	c := NewClassifier()
	mood := c.ClassifyMood("/Music/JAZZ/Standards/My Funny Valentine.flac")
	assert.Equal(t, model.VibeJazz, mood.Vibe)
}

func TestClassifySegmentType_DedicationTakesPriority(t *testing.T) {
	c := NewClassifier()

	segType, singleUse := c.ClassifySegmentType("listener_dedication_abc123")
	require.Equal(t, model.SegmentListenerDedication, segType)
	require.True(t, singleUse)

	// Even when another keyword is also present.
	segType, singleUse = c.ClassifySegmentType("listener_dedication_weather_update")
	require.Equal(t, model.SegmentListenerDedication, segType)
	require.True(t, singleUse)
}

func TestClassifySegmentType_OtherCategories(t *testing.T) {
	c := NewClassifier()

	cases := map[string]model.SegmentType{
		"station_id_2026":        model.SegmentStationID,
		"hour_marker_noon":       model.SegmentHourMarker,
		"weather_tuesday":        model.SegmentWeather,
		"dj_talk_intro":          model.SegmentMonologue,
		"bumper_late_night":      model.SegmentBumper,
		"unidentified_clip_0001": model.SegmentUnknown,
	}

	for filename, want := range cases {
		got, singleUse := c.ClassifySegmentType(filename)
		assert.Equalf(t, want, got, "filename %q", filename)
		assert.False(t, singleUse)
	}
}
