// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package director

import (
	"math/rand"
	"time"

	"github.com/wvoid-fm/broadcast/internal/model"
)

// planItem is one slot in the interleaved running order, before chopping.
type planItem struct {
	asset   model.Asset
	kind    model.AssetKind
	forced  bool // came from the command channel, not cadence/slot policy
}

// podcastSlot formats the hour slot key ("YYYYMMDDHH") bookkeeping uses to
// guarantee at most one podcast per qualifying hour.
func podcastSlot(now time.Time) string {
	return now.Format("2006010215")
}

// interleaver walks a music queue and decides, track by track, whether a
// podcast or segment should be injected next. It owns no state of its own;
// all cross-call memory lives in Bookkeeping so a restart mid-hour doesn't
// replay a slot.
type interleaver struct {
	book        *Bookkeeping
	segmentsFor func(period model.Period, avoid model.SegmentType) (model.Asset, bool)
	podcastPick func() (model.Asset, bool)
	rng         *rand.Rand
}

// Plan builds the full interleaved running order for one queue of already
// scored and ordered music tracks, given the resolved show's cadence and
// the station's podcast-hour set. Forced commands (consumed from
// Bookkeeping) take priority exactly once each, per spec.md §9 Open
// Question 3: a forced podcast fires immediately, ahead of the next
// scheduled track, while cadence counting continues unaffected; a forced
// segment fires at the very next cadence boundary regardless of whether
// that boundary was about to fire anyway.
//
// Because Plan runs once per queue refill rather than once per dequeued
// track, a forced segment consumed here fires after the first track of
// the freshly built queue, not necessarily after the specific track that
// was playing live when the operator's command was polled (spec.md §8
// scenario S4 reads as "after the second track" for a command issued
// mid-first-track). A pull-based Director that re-checked Bookkeeping on
// every single Next() call, instead of once per batch, could line this
// up exactly; this implementation accepts the coarser batch granularity,
// which invariant #11's explicit ±1 cadence tolerance exists to cover.
func (in *interleaver) Plan(now time.Time, music []model.Asset, show model.Show, podcastHours map[int]bool) []planItem {
	var plan []planItem

	if in.book.ConsumeForcePodcast() {
		if p, ok := in.podcastPick(); ok {
			plan = append(plan, planItem{asset: p, kind: model.KindPodcast, forced: true})
			in.book.SetLastPodcastSlot(podcastSlot(now))
		}
	} else if show.PodcastsEnabled && podcastHours[now.Hour()] {
		slot := podcastSlot(now)
		if last, ok := in.book.LastPodcastSlot(); !ok || last != slot {
			if p, ok := in.podcastPick(); ok {
				plan = append(plan, planItem{asset: p, kind: model.KindPodcast})
				in.book.SetLastPodcastSlot(slot)
			}
		}
	}

	cadence := show.SegmentAfterTracks
	if cadence <= 0 {
		cadence = 1
	}
	forcedSegment := in.book.ConsumeForceSegment()
	period := model.PeriodForMinute(now.Hour()*60 + now.Minute())

	sinceSegment := 0
	for _, track := range music {
		plan = append(plan, planItem{asset: track, kind: model.KindMusic})
		sinceSegment++

		if forcedSegment || sinceSegment >= cadence {
			avoid := model.SegmentType("")
			if last, ok := in.book.LastSegmentType(); ok {
				avoid = model.SegmentType(last)
			}
			if seg, ok := in.segmentsFor(period, avoid); ok {
				item := planItem{asset: seg, kind: model.KindSegment, forced: forcedSegment}
				plan = append(plan, item)
				in.book.SetLastSegmentType(string(seg.SegmentType))
			}
			sinceSegment = 0
			forcedSegment = false
		}
	}

	return plan
}

// pickSegment implements the §4.D segment-selection contract: prefer the
// current time period's sub-folder, fall back to the flat segment root.
// Within either pool, a listener dedication wins when one exists and
// dedication was not the immediately previous segment type (the newest
// such file by mtime, per spec.md §8 S8); otherwise pick uniformly among
// segments whose type differs from avoid, relaxing that constraint if it
// would leave no candidates.
func pickSegment(periodSegments, allSegments []model.Asset, avoid model.SegmentType, rng *rand.Rand) (model.Asset, bool) {
	pool := periodSegments
	if len(pool) == 0 {
		pool = allSegments
	}
	if len(pool) == 0 {
		return model.Asset{}, false
	}

	if avoid != model.SegmentListenerDedication {
		if ded, ok := newestOfType(pool, model.SegmentListenerDedication); ok {
			return ded, true
		}
	}

	filtered := make([]model.Asset, 0, len(pool))
	for _, a := range pool {
		if a.SegmentType != avoid {
			filtered = append(filtered, a)
		}
	}
	if len(filtered) == 0 {
		filtered = pool
	}

	return filtered[rng.Intn(len(filtered))], true
}

// newestOfType returns the most recently modified asset of the given
// segment type, if any exist.
func newestOfType(assets []model.Asset, kind model.SegmentType) (model.Asset, bool) {
	var best model.Asset
	found := false
	for _, a := range assets {
		if a.SegmentType != kind {
			continue
		}
		if !found || a.ModTime.After(best.ModTime) {
			best = a
			found = true
		}
	}
	return best, found
}
