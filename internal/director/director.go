// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package director

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/wvoid-fm/broadcast/internal/assetindex"
	"github.com/wvoid-fm/broadcast/internal/history"
	"github.com/wvoid-fm/broadcast/internal/logging"
	"github.com/wvoid-fm/broadcast/internal/model"
	"github.com/wvoid-fm/broadcast/internal/schedule"
)

// QueueSize is the nominal number of music tracks the Director builds per
// queue-refill pass, per spec.md §4.D.
const QueueSize = 10

const (
	recentWindowPrimary  = 24 * time.Hour
	recentWindowRelaxed  = 6 * time.Hour
	minRelaxedCandidates = 2 * QueueSize
)

// durationProber obtains an asset's play duration on demand, per §4.A.
// Satisfied by *assetindex.Prober; declared locally so tests can fake it
// without shelling out to ffprobe.
type durationProber interface {
	Probe(ctx context.Context, path string) (time.Duration, bool)
}

// Director is the Program Director (§4.D). It is only ever called from
// the single streaming thread; Next and OnAssetCompleted are not
// goroutine-safe against each other or against themselves.
type Director struct {
	index   *assetindex.Index
	history *history.Store
	book    *Bookkeeping
	resolver *schedule.Resolver
	schedule *model.StationSchedule
	prober   durationProber

	rng      *rand.Rand
	lastVibe model.Vibe
	pending  []planItem

	currentShow model.Show
}

// New wires an Index, history Store, Bookkeeping, resolved station
// schedule, and an audio-duration Prober into a Director.
func New(index *assetindex.Index, hist *history.Store, book *Bookkeeping, sched *model.StationSchedule, prober durationProber) *Director {
	return &Director{
		index:    index,
		history:  hist,
		book:     book,
		resolver: schedule.NewResolver(sched),
		schedule: sched,
		prober:   prober,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns the next playback item in the running order. It transparently
// rebuilds and interleaves a fresh queue whenever the internal buffer runs
// dry, re-resolving the schedule each time so a show change mid-buffer is
// picked up at the next refill.
func (d *Director) Next(now time.Time) (model.PlaybackItem, error) {
	if len(d.pending) == 0 {
		if err := d.refill(now); err != nil {
			return model.PlaybackItem{}, err
		}
	}
	if len(d.pending) == 0 {
		return model.PlaybackItem{}, fmt.Errorf("director: no playable assets available")
	}

	item := d.pending[0]
	d.pending = d.pending[1:]

	if item.kind == model.KindMusic {
		d.lastVibe = item.asset.Mood.Vibe
		d.probeDuration(&item.asset)
	}

	out := chop(item, d.rng)
	out.ShowID = d.currentShow.ShowID
	out.ShowName = d.currentShow.Name
	return out, nil
}

// probeDuration fills in asset.Duration/DurationKnown for a music item
// about to be chopped, implementing the Engine's "Probing" transition
// (spec.md §4.E state machine) on the streaming thread that calls Next.
// A missing Prober or a failed probe leaves DurationKnown false, which
// chop() treats as "do not chop" per §4.A/§7.
func (d *Director) probeDuration(asset *model.Asset) {
	if asset.DurationKnown || d.prober == nil {
		return
	}
	duration, ok := d.prober.Probe(context.Background(), asset.Path)
	if !ok {
		return
	}
	asset.Duration = duration
	asset.DurationKnown = true
}

func (d *Director) refill(now time.Time) error {
	resolved, err := d.resolver.Resolve(now)
	if err != nil {
		return fmt.Errorf("resolve schedule: %w", err)
	}
	d.currentShow = resolved.Show

	music := d.filterByHistory(d.index.ScanMusic())
	queue := buildMusicQueue(music, resolved.Show.Music, QueueSize, d.lastVibe, d.rng)
	if len(queue) == 0 {
		return fmt.Errorf("director: no music candidates for show %s", resolved.Show.ShowID)
	}

	period := model.PeriodForMinute(now.Hour()*60 + now.Minute())
	periodSegments := d.index.ScanSegmentsInPeriod(period)
	allSegments := d.index.ScanSegments()

	in := &interleaver{
		book: d.book,
		segmentsFor: func(p model.Period, avoid model.SegmentType) (model.Asset, bool) {
			return pickSegment(periodSegments, allSegments, avoid, d.rng)
		},
		podcastPick: func() (model.Asset, bool) {
			return d.pickPodcast()
		},
		rng: d.rng,
	}

	d.pending = in.Plan(now, queue, resolved.Show, d.schedule.PodcastHours)
	return nil
}

// filterByHistory implements the §4.D step-1 recency filter: prefer
// tracks unplayed in 24h, relaxing to 6h if that leaves too small a pool.
func (d *Director) filterByHistory(candidates []model.Asset) []model.Asset {
	if len(candidates) == 0 {
		return nil
	}
	ctx := context.Background()
	paths := filterCandidatePaths(candidates)

	allowed := d.history.FilterRecent(ctx, paths, recentWindowPrimary)
	if len(allowed) < minRelaxedCandidates {
		relaxed := d.history.FilterRecent(ctx, paths, recentWindowRelaxed)
		if len(relaxed) > len(allowed) {
			allowed = relaxed
		}
	}
	if len(allowed) == 0 {
		// Every candidate has played recently; better to repeat than to
		// starve the stream.
		return candidates
	}
	return keepPaths(candidates, allowed)
}

// pickPodcast implements the §4.D podcast-selection contract: prefer a
// podcast not played in the last 24h; when every podcast has played
// recently, fall back to a random pick among the 5 newest by file mtime.
func (d *Director) pickPodcast() (model.Asset, bool) {
	podcasts := d.index.ScanPodcasts()
	if len(podcasts) == 0 {
		return model.Asset{}, false
	}

	allowed := d.history.FilterRecent(context.Background(), filterCandidatePaths(podcasts), recentWindowPrimary)
	if unplayed := keepPaths(podcasts, allowed); len(unplayed) > 0 {
		return unplayed[d.rng.Intn(len(unplayed))], true
	}

	newest := append([]model.Asset{}, podcasts...)
	sort.Slice(newest, func(i, j int) bool { return newest[i].ModTime.After(newest[j].ModTime) })
	if len(newest) > 5 {
		newest = newest[:5]
	}
	return newest[d.rng.Intn(len(newest))], true
}

// OnAssetCompleted runs after the engine finishes (or aborts) streaming an
// item. Its only current responsibility is the dedication lifecycle from
// spec.md §4.B / §9: a single-use segment that played to completion is
// deleted so it is never selected again; an aborted play leaves the file
// in place for a retry.
func (d *Director) OnAssetCompleted(item model.PlaybackItem, aborted bool) {
	if item.Kind != model.KindSegment || !item.Asset.SingleUse || aborted {
		return
	}
	if err := os.Remove(item.Asset.Path); err != nil && !os.IsNotExist(err) {
		logging.WithComponent("director").Warn().Err(err).Str("path", item.Asset.Path).Msg("failed to remove single-use segment")
	}
}

// ForceSegment and ForcePodcast expose the command channel's effect on
// Director state; the Engine calls these when it polls a "segment" or
// "podcast" command.
func (d *Director) ForceSegment() { d.book.ForceSegment() }
func (d *Director) ForcePodcast() { d.book.ForcePodcast() }
