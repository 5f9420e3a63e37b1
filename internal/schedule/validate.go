// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package schedule

import (
	"fmt"

	"github.com/wvoid-fm/broadcast/internal/model"
)

const minutesPerDay = 1440

// Validate enforces the load-time invariants from spec.md §4.C / §8.1:
// every minute of the day is covered by exactly one base block, every
// block references a known show, and every podcast hour is in [0,24).
func Validate(sched *model.StationSchedule) error {
	if err := validateCoverage(sched.Base); err != nil {
		return err
	}
	for _, b := range sched.Base {
		if _, ok := sched.Shows[b.ShowID]; !ok {
			return fmt.Errorf("base block references unknown show %q", b.ShowID)
		}
	}
	for _, b := range sched.Overrides {
		if _, ok := sched.Shows[b.ShowID]; !ok {
			return fmt.Errorf("override block references unknown show %q", b.ShowID)
		}
		if len(b.Days) == 0 {
			return fmt.Errorf("override block for show %q must carry a non-empty day set", b.ShowID)
		}
	}
	for h := range sched.PodcastHours {
		if h < 0 || h >= 24 {
			return fmt.Errorf("podcast hour %d out of range [0,24)", h)
		}
	}
	return nil
}

// validateCoverage checks that exactly one base block covers every minute
// of the day, accounting for cross-midnight expansion.
func validateCoverage(base []model.ScheduleBlock) error {
	var covered [minutesPerDay]int
	for _, b := range base {
		for _, m := range expandMinutes(b) {
			covered[m]++
		}
	}

	var gaps, overlaps []int
	for m := 0; m < minutesPerDay; m++ {
		switch {
		case covered[m] == 0:
			gaps = append(gaps, m)
		case covered[m] > 1:
			overlaps = append(overlaps, m)
		}
	}

	if len(gaps) > 0 {
		return fmt.Errorf("schedule coverage gap starting at minute %d (%s)", gaps[0], formatMinute(gaps[0]))
	}
	if len(overlaps) > 0 {
		return fmt.Errorf("schedule coverage overlap at minute %d (%s)", overlaps[0], formatMinute(overlaps[0]))
	}
	return nil
}

// expandMinutes returns every minute-of-day a block (possibly crossing
// midnight) covers.
func expandMinutes(b model.ScheduleBlock) []int {
	if !b.CrossesMidnight() {
		minutes := make([]int, 0, b.EndMinute-b.StartMinute)
		for m := b.StartMinute; m < b.EndMinute; m++ {
			minutes = append(minutes, m)
		}
		return minutes
	}
	minutes := make([]int, 0, (minutesPerDay-b.StartMinute)+b.EndMinute)
	for m := b.StartMinute; m < minutesPerDay; m++ {
		minutes = append(minutes, m)
	}
	for m := 0; m < b.EndMinute; m++ {
		minutes = append(minutes, m)
	}
	return minutes
}

func formatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
