// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package director

import (
	"math/rand"
	"time"

	"github.com/wvoid-fm/broadcast/internal/model"
)

// ChunkMin and ChunkMax bound the random sub-window taken out of a long
// music track, per spec.md §4.D step 5.
const (
	ChunkMin = 90 * time.Second
	ChunkMax = 240 * time.Second

	chopEdgeGuard = 10 * time.Second
)

// chop computes the playback window for one planned item. Segments,
// podcasts, and any track too short to safely chop play back in full;
// otherwise it picks a random length in [ChunkMin, ChunkMax] and a random
// start offset leaving at least chopEdgeGuard of silence-free room on both
// ends.
func chop(item planItem, rng *rand.Rand) model.PlaybackItem {
	out := model.PlaybackItem{
		Asset: item.asset,
		Kind:  item.kind,
	}
	if item.kind == model.KindSegment {
		out.IsSpeech = true
	}

	if item.kind != model.KindMusic || !item.asset.DurationKnown {
		out.PlayLength = item.asset.Duration
		return out
	}

	duration := item.asset.Duration
	minFull := ChunkMax + 2*chopEdgeGuard
	if duration <= minFull {
		out.PlayLength = duration
		return out
	}

	length := ChunkMin + time.Duration(rng.Int63n(int64(ChunkMax-ChunkMin+1)))
	maxStart := duration - length - chopEdgeGuard
	span := maxStart - chopEdgeGuard
	start := chopEdgeGuard
	if span > 0 {
		start += time.Duration(rng.Int63n(int64(span + 1)))
	}

	out.StartOffset = start
	out.PlayLength = length
	return out
}
