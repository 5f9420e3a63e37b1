// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/wvoid-fm/broadcast/internal/model"
)

// ErrNoMatchingBlock is raised only when now falls outside base coverage,
// which per spec.md §4.C implies a prior validation bug — Validate should
// have already rejected any schedule capable of producing this.
var ErrNoMatchingBlock = errors.New("no schedule block covers the current time")

// Resolver resolves "which show is on right now" from a validated
// StationSchedule.
type Resolver struct {
	sched *model.StationSchedule
}

// NewResolver wraps an already-validated schedule.
func NewResolver(sched *model.StationSchedule) *Resolver {
	return &Resolver{sched: sched}
}

// Resolve picks the first override block matching now, else the unique
// base block covering now. A cross-midnight override applies on its
// start-day from start until midnight, and on the next day from midnight
// until end (spec.md §4.C, scenario S2).
func (r *Resolver) Resolve(now time.Time) (model.ResolvedShow, error) {
	minute := now.Hour()*60 + now.Minute()
	today := weekdayFromTime(now)
	yesterday := previousDay(today)

	for _, b := range r.sched.Overrides {
		if blockMatches(b, minute, today, yesterday) {
			return r.resolved(b, false), nil
		}
	}

	for _, b := range r.sched.Base {
		if blockCoversMinute(b, minute) {
			return r.resolved(b, true), nil
		}
	}

	return model.ResolvedShow{}, fmt.Errorf("%w: minute=%d day=%v", ErrNoMatchingBlock, minute, today)
}

func (r *Resolver) resolved(b model.ScheduleBlock, fromBase bool) model.ResolvedShow {
	return model.ResolvedShow{
		Show:       r.sched.Shows[b.ShowID],
		BlockStart: b.StartMinute,
		BlockEnd:   b.EndMinute,
		FromBase:   fromBase,
	}
}

// blockCoversMinute reports whether a (day-agnostic) base block covers
// minute, accounting for cross-midnight wraparound.
func blockCoversMinute(b model.ScheduleBlock, minute int) bool {
	if !b.CrossesMidnight() {
		return minute >= b.StartMinute && minute < b.EndMinute
	}
	return minute >= b.StartMinute || minute < b.EndMinute
}

// blockMatches reports whether a day-scoped override block matches "now",
// where now falls on `today` at `minute`. A cross-midnight override that
// started `yesterday` still applies through `end` this morning even though
// its day set only names yesterday.
func blockMatches(b model.ScheduleBlock, minute int, today, yesterday model.Weekday) bool {
	if !b.CrossesMidnight() {
		return b.Days[today] && minute >= b.StartMinute && minute < b.EndMinute
	}

	// Started today, runs until midnight.
	if b.Days[today] && minute >= b.StartMinute {
		return true
	}
	// Started yesterday (a day in the override's set), still running into
	// this morning.
	if b.Days[yesterday] && minute < b.EndMinute {
		return true
	}
	return false
}

func previousDay(d model.Weekday) model.Weekday {
	if d == model.Monday {
		return model.Sunday
	}
	return d - 1
}
