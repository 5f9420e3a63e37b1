// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package schedule

import "github.com/wvoid-fm/broadcast/internal/model"

// syntheticBlock names a fallback period and the minute it starts at; the
// block's end is the next entry's start (or midnight for the last one).
type syntheticBlock struct {
	name  string
	start int
}

var syntheticPeriods = []syntheticBlock{
	{"late_night", 0},
	{"early_morning", 4 * 60},
	{"morning", 7 * 60},
	{"early_afternoon", 12 * 60},
	{"afternoon", 14 * 60},
	{"evening", 18 * 60},
	{"night", 22 * 60},
}

// Synthesize builds the seven-period time-of-day schedule used when no
// schedule.yaml is present (spec.md §4.C fallback). Each period gets one
// synthetic show with a neutral music profile and no cadence override.
func Synthesize() *model.StationSchedule {
	shows := make(map[string]model.Show, len(syntheticPeriods))
	base := make([]model.ScheduleBlock, 0, len(syntheticPeriods))

	for i, p := range syntheticPeriods {
		showID := "synthetic_" + p.name
		shows[showID] = model.Show{
			ShowID:             showID,
			Name:               titleCase(p.name),
			Description:        "Synthetic time-of-day fallback show",
			SegmentAfterTracks: 3,
			PodcastsEnabled:    true,
			Music: model.MusicProfile{
				EnergyLow:    0.0,
				EnergyHigh:   1.0,
				PreferWarmth: 0.5,
				Vibes:        nil,
			},
		}

		end := minutesPerDay
		if i+1 < len(syntheticPeriods) {
			end = syntheticPeriods[i+1].start
		}
		base = append(base, model.ScheduleBlock{
			StartMinute: p.start,
			EndMinute:   end % minutesPerDay,
			ShowID:      showID,
		})
	}
	// end==0 here reads as "crosses midnight to minute 0", i.e. runs to
	// the end of the day — exactly what the last period needs.
	base[len(base)-1].EndMinute = 0

	return &model.StationSchedule{
		Shows:        shows,
		Base:         base,
		Overrides:    nil,
		PodcastHours: map[int]bool{0: true, 3: true, 6: true, 9: true, 12: true, 15: true, 18: true, 21: true},
	}
}

func titleCase(s string) string {
	b := []byte(s)
	out := make([]byte, 0, len(b)+4)
	capitalize := true
	for _, c := range b {
		if c == '_' {
			out = append(out, ' ')
			capitalize = true
			continue
		}
		if capitalize && c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
			capitalize = false
		}
		out = append(out, c)
	}
	return string(out)
}
