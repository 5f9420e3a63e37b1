// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wvoid-fm/broadcast/internal/model"
)

func showSet(ids ...string) map[string]model.Show {
	shows := make(map[string]model.Show, len(ids))
	for _, id := range ids {
		shows[id] = model.Show{ShowID: id, Name: id, SegmentAfterTracks: 3}
	}
	return shows
}

// TestCoverage_S1 mirrors spec.md scenario S1.
func TestCoverage_S1(t *testing.T) {
	base := []model.ScheduleBlock{
		{StartMinute: 0, EndMinute: 6 * 60, ShowID: "night"},
		{StartMinute: 6 * 60, EndMinute: 21 * 60, ShowID: "day"},
		{StartMinute: 21 * 60, EndMinute: 0, ShowID: "night"},
	}
	sched := &model.StationSchedule{Shows: showSet("night", "day"), Base: base}
	require.NoError(t, Validate(sched))

	// Remove the middle block: load fails with a coverage error naming
	// the gap at 06:00.
	gappy := &model.StationSchedule{
		Shows: showSet("night", "day"),
		Base: []model.ScheduleBlock{
			{StartMinute: 0, EndMinute: 6 * 60, ShowID: "night"},
			{StartMinute: 21 * 60, EndMinute: 0, ShowID: "night"},
		},
	}
	err := Validate(gappy)
	require.Error(t, err)
	require.Contains(t, err.Error(), "06:00")
}

func TestCoverage_OverlapDetected(t *testing.T) {
	sched := &model.StationSchedule{
		Shows: showSet("a", "b"),
		Base: []model.ScheduleBlock{
			{StartMinute: 0, EndMinute: 12 * 60, ShowID: "a"},
			{StartMinute: 11 * 60, EndMinute: 24 * 60 % minutesPerDay, ShowID: "b"},
		},
	}
	err := Validate(sched)
	require.Error(t, err)
	require.Contains(t, err.Error(), "overlap")
}

// TestOverride_S2 mirrors spec.md scenario S2.
func TestOverride_S2(t *testing.T) {
	shows := showSet("X", "Y")
	sched := &model.StationSchedule{
		Shows: shows,
		Base: []model.ScheduleBlock{
			{StartMinute: 22 * 60, EndMinute: 2 * 60, ShowID: "X"}, // 22:00-02:00 daily
			{StartMinute: 2 * 60, EndMinute: 22 * 60, ShowID: "X"},
		},
		Overrides: []model.ScheduleBlock{
			{StartMinute: 22 * 60, EndMinute: 2 * 60, ShowID: "Y", Days: map[model.Weekday]bool{model.Friday: true}},
		},
	}
	require.NoError(t, Validate(sched))
	r := NewResolver(sched)

	// Fri 23:30 -> Y
	fri2330 := mustParse(t, "2026-01-02 23:30") // a Friday
	rs, err := r.Resolve(fri2330)
	require.NoError(t, err)
	require.Equal(t, "Y", rs.Show.ShowID)

	// Sat 01:30 -> Y (carries across midnight from its start-day)
	sat0130 := mustParse(t, "2026-01-03 01:30")
	rs, err = r.Resolve(sat0130)
	require.NoError(t, err)
	require.Equal(t, "Y", rs.Show.ShowID)

	// Sat 23:30 -> X
	sat2330 := mustParse(t, "2026-01-03 23:30")
	rs, err = r.Resolve(sat2330)
	require.NoError(t, err)
	require.Equal(t, "X", rs.Show.ShowID)
}

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.ParseInLocation("2006-01-02 15:04", s, time.Local)
	require.NoError(t, err)
	return tm
}

func TestResolve_NoMatchIsValidationBug(t *testing.T) {
	sched := &model.StationSchedule{
		Shows: showSet("only"),
		Base:  []model.ScheduleBlock{{StartMinute: 0, EndMinute: 600, ShowID: "only"}},
	}
	r := NewResolver(sched)
	_, err := r.Resolve(mustParse(t, "2026-01-02 12:00"))
	require.ErrorIs(t, err, ErrNoMatchingBlock)
}

func TestSynthesize_CoversWholeDay(t *testing.T) {
	sched := Synthesize()
	require.NoError(t, Validate(sched))

	r := NewResolver(sched)
	for _, hm := range []string{"00:00", "05:00", "08:00", "13:00", "15:00", "19:00", "23:00"} {
		tm := mustParse(t, "2026-01-02 "+hm)
		rs, err := r.Resolve(tm)
		require.NoErrorf(t, err, "resolving %s", hm)
		require.NotEmpty(t, rs.Show.ShowID)
	}
}

func TestParseDays_Groups(t *testing.T) {
	days, err := parseDays([]string{"weekday"})
	require.NoError(t, err)
	require.True(t, days[model.Monday])
	require.True(t, days[model.Friday])
	require.False(t, days[model.Saturday])

	days, err = parseDays([]string{"weekend"})
	require.NoError(t, err)
	require.True(t, days[model.Saturday])
	require.True(t, days[model.Sunday])
	require.False(t, days[model.Monday])

	days, err = parseDays([]string{"daily"})
	require.NoError(t, err)
	require.Len(t, days, 7)
}
