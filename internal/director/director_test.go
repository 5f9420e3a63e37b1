// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package director

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wvoid-fm/broadcast/internal/model"
)

func newTestBookkeeping(t *testing.T) *Bookkeeping {
	t.Helper()
	b, err := OpenBookkeeping(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func musicAsset(path string, vibe model.Vibe, energy, warmth float64) model.Asset {
	return model.Asset{
		Path: path,
		Kind: model.KindMusic,
		Mood: model.Mood{Energy: energy, Warmth: warmth, Vibe: vibe},
	}
}

func segmentAsset(path string, segType model.SegmentType, singleUse bool) model.Asset {
	return model.Asset{
		Path:        path,
		Kind:        model.KindSegment,
		SegmentType: segType,
		SingleUse:   singleUse,
	}
}

// TestBuildMusicQueue_RespectsSize covers invariant: a full pool yields
// exactly QueueSize tracks.
func TestBuildMusicQueue_RespectsSize(t *testing.T) {
	var candidates []model.Asset
	for i := 0; i < 40; i++ {
		candidates = append(candidates, musicAsset(filepath.Join("music", string(rune('a'+i))), model.VibeAmbient, 0.5, 0.5))
	}
	profile := model.MusicProfile{EnergyLow: 0.3, EnergyHigh: 0.7, PreferWarmth: 0.5, Vibes: []model.Vibe{model.VibeAmbient}}
	rng := rand.New(rand.NewSource(1))

	queue := buildMusicQueue(candidates, profile, QueueSize, model.VibeUnknown, rng)
	require.Len(t, queue, QueueSize)
}

// TestBuildMusicQueue_TopsUpWhenPoolExhausted covers the case where the
// vibe-repeat rejection would otherwise starve the queue short of
// QueueSize: a tiny all-same-vibe pool must still top up by score order.
func TestBuildMusicQueue_TopsUpWhenPoolExhausted(t *testing.T) {
	candidates := []model.Asset{
		musicAsset("a", model.VibeAmbient, 0.5, 0.5),
		musicAsset("b", model.VibeAmbient, 0.5, 0.5),
		musicAsset("c", model.VibeAmbient, 0.5, 0.5),
	}
	profile := model.MusicProfile{EnergyLow: 0.3, EnergyHigh: 0.7, PreferWarmth: 0.5}
	rng := rand.New(rand.NewSource(2))

	queue := buildMusicQueue(candidates, profile, 3, model.VibeAmbient, rng)
	require.Len(t, queue, 3)
}

// TestInterleave_CadenceS3 mirrors spec.md scenario S3: segment_after_tracks
// = 2 inserts a segment after every second music track.
func TestInterleave_CadenceS3(t *testing.T) {
	book := newTestBookkeeping(t)
	seg := segmentAsset("segments/bumper1.mp3", model.SegmentBumper, false)

	in := &interleaver{
		book: book,
		segmentsFor: func(p model.Period, avoid model.SegmentType) (model.Asset, bool) {
			return seg, true
		},
		podcastPick: func() (model.Asset, bool) { return model.Asset{}, false },
		rng:         rand.New(rand.NewSource(3)),
	}

	music := []model.Asset{
		musicAsset("1", model.VibeAmbient, 0.5, 0.5),
		musicAsset("2", model.VibeAmbient, 0.5, 0.5),
		musicAsset("3", model.VibeAmbient, 0.5, 0.5),
		musicAsset("4", model.VibeAmbient, 0.5, 0.5),
	}
	show := model.Show{ShowID: "s", SegmentAfterTracks: 2}
	plan := in.Plan(time.Now(), music, show, map[int]bool{})

	require.Len(t, plan, 6) // 4 tracks + 2 segments
	require.Equal(t, model.KindMusic, plan[0].kind)
	require.Equal(t, model.KindMusic, plan[1].kind)
	require.Equal(t, model.KindSegment, plan[2].kind)
	require.Equal(t, model.KindMusic, plan[3].kind)
	require.Equal(t, model.KindMusic, plan[4].kind)
	require.Equal(t, model.KindSegment, plan[5].kind)
}

// TestInterleave_ForcedSegmentS4 mirrors spec.md scenario S4: a forced
// segment command fires at the next boundary ahead of the normal cadence.
func TestInterleave_ForcedSegmentS4(t *testing.T) {
	book := newTestBookkeeping(t)
	book.ForceSegment()
	seg := segmentAsset("segments/bumper1.mp3", model.SegmentBumper, false)

	in := &interleaver{
		book: book,
		segmentsFor: func(p model.Period, avoid model.SegmentType) (model.Asset, bool) {
			return seg, true
		},
		podcastPick: func() (model.Asset, bool) { return model.Asset{}, false },
		rng:         rand.New(rand.NewSource(4)),
	}

	music := []model.Asset{
		musicAsset("1", model.VibeAmbient, 0.5, 0.5),
		musicAsset("2", model.VibeAmbient, 0.5, 0.5),
		musicAsset("3", model.VibeAmbient, 0.5, 0.5),
	}
	show := model.Show{ShowID: "s", SegmentAfterTracks: 5} // cadence far off
	plan := in.Plan(time.Now(), music, show, map[int]bool{})

	// The forced segment fires right after the first track, well before
	// the ordinary cadence boundary would.
	require.Equal(t, model.KindMusic, plan[0].kind)
	require.Equal(t, model.KindSegment, plan[1].kind)
	require.True(t, plan[1].forced)

	// Consuming the flag clears it: a second Plan call with no force set
	// falls back to the plain cadence (no segment before track 5 arrives).
	plan2 := in.Plan(time.Now(), music, show, map[int]bool{})
	for _, item := range plan2 {
		require.False(t, item.forced)
	}
}

// TestInterleave_PodcastSlotS5 mirrors spec.md scenario S5: a podcast
// fires once per qualifying hour and is suppressed on a repeat Plan call
// within the same slot.
func TestInterleave_PodcastSlotS5(t *testing.T) {
	book := newTestBookkeeping(t)
	podcast := model.Asset{Path: "podcasts/ep1.mp3", Kind: model.KindPodcast}

	in := &interleaver{
		book:        book,
		segmentsFor: func(p model.Period, avoid model.SegmentType) (model.Asset, bool) { return model.Asset{}, false },
		podcastPick: func() (model.Asset, bool) { return podcast, true },
		rng:         rand.New(rand.NewSource(5)),
	}

	now := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)
	show := model.Show{ShowID: "s", SegmentAfterTracks: 99, PodcastsEnabled: true}
	podcastHours := map[int]bool{9: true, 10: true}
	music := []model.Asset{musicAsset("1", model.VibeAmbient, 0.5, 0.5)}

	plan := in.Plan(now, music, show, podcastHours)
	require.Equal(t, model.KindPodcast, plan[0].kind)

	// Same hour, second call: slot already consumed, no second podcast.
	plan2 := in.Plan(now, music, show, podcastHours)
	for _, item := range plan2 {
		require.NotEqual(t, model.KindPodcast, item.kind)
	}

	// An hour later, the slot is open again.
	later := now.Add(time.Hour)
	plan3 := in.Plan(later, music, show, podcastHours)
	require.Equal(t, model.KindPodcast, plan3[0].kind)
}

// TestOnAssetCompleted_DedicationLifecycle mirrors spec.md scenario S8: a
// single-use dedication is deleted after a completed (non-aborted) play,
// and left alone after an abort.
func TestOnAssetCompleted_DedicationLifecycle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dedication1.mp3")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	d := &Director{}
	item := model.PlaybackItem{
		Asset: model.Asset{Path: path, SegmentType: model.SegmentListenerDedication, SingleUse: true},
		Kind:  model.KindSegment,
	}

	d.OnAssetCompleted(item, true)
	_, err := os.Stat(path)
	require.NoError(t, err, "aborted play must not delete the dedication file")

	d.OnAssetCompleted(item, false)
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err), "completed play must delete the single-use dedication file")
}

// TestChop_LongTrackStaysInBounds covers invariant #12: the chopped window
// always lies within [ChunkMin, ChunkMax] and never runs past the asset's
// duration.
func TestChop_LongTrackStaysInBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	asset := model.Asset{Path: "long.mp3", Kind: model.KindMusic, Duration: 10 * time.Minute, DurationKnown: true}

	for i := 0; i < 200; i++ {
		out := chop(planItem{asset: asset, kind: model.KindMusic}, rng)
		require.GreaterOrEqual(t, out.PlayLength, ChunkMin)
		require.LessOrEqual(t, out.PlayLength, ChunkMax)
		require.GreaterOrEqual(t, out.StartOffset, chopEdgeGuard)
		require.LessOrEqual(t, out.StartOffset+out.PlayLength+chopEdgeGuard, asset.Duration)
	}
}

// TestChop_ShortTrackPlaysInFull covers the edge case where a track is too
// short to safely carve a window out of.
func TestChop_ShortTrackPlaysInFull(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	asset := model.Asset{Path: "short.mp3", Kind: model.KindMusic, Duration: 30 * time.Second, DurationKnown: true}

	out := chop(planItem{asset: asset, kind: model.KindMusic}, rng)
	require.Equal(t, time.Duration(0), out.StartOffset)
	require.Equal(t, asset.Duration, out.PlayLength)
}

// TestChop_SegmentsPlayInFull covers the segment/podcast branch: chopping
// never applies outside music.
func TestChop_SegmentsPlayInFull(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	asset := model.Asset{Path: "seg.mp3", Kind: model.KindSegment, Duration: 20 * time.Minute, DurationKnown: true}

	out := chop(planItem{asset: asset, kind: model.KindSegment}, rng)
	require.Equal(t, time.Duration(0), out.StartOffset)
	require.Equal(t, asset.Duration, out.PlayLength)
	require.True(t, out.IsSpeech)
}
