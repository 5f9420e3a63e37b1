// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package schedule

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wvoid-fm/broadcast/internal/model"
)

// rawConfig mirrors the on-disk schedule.yaml shape described in spec.md §6.
type rawConfig struct {
	Shows    map[string]rawShow `yaml:"shows"`
	Podcasts rawPodcasts        `yaml:"podcasts"`
	Schedule rawSchedule        `yaml:"schedule"`
}

type rawShow struct {
	Name               string            `yaml:"name"`
	Description        string            `yaml:"description"`
	SegmentAfterTracks int               `yaml:"segment_after_tracks"`
	PodcastsEnabled    bool              `yaml:"podcasts_enabled"`
	Music              rawMusicProfile   `yaml:"music"`
	Voices             map[string]string `yaml:"voices"`
}

type rawMusicProfile struct {
	EnergyRange  [2]float64 `yaml:"energy_range"`
	PreferWarmth float64    `yaml:"prefer_warmth"`
	Vibes        []string   `yaml:"vibes"`
}

type rawPodcasts struct {
	Hours []int `yaml:"hours"`
}

type rawSchedule struct {
	Base      []rawBlock `yaml:"base"`
	Overrides []rawBlock `yaml:"overrides"`
}

type rawBlock struct {
	Start string   `yaml:"start"`
	End   string   `yaml:"end"`
	Show  string   `yaml:"show"`
	Days  []string `yaml:"days"`
}

// Load reads and validates the schedule config at path. A missing file is
// returned as the unwrapped os.ReadFile error, so callers that want the
// synthetic fallback can check os.IsNotExist on it and call Synthesize
// instead, matching the "fallback when no schedule file is present"
// contract.
func Load(path string) (*model.StationSchedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse schedule config %s: %w", path, err)
	}

	sched, err := convert(raw)
	if err != nil {
		return nil, fmt.Errorf("build schedule from %s: %w", path, err)
	}

	if err := Validate(sched); err != nil {
		return nil, fmt.Errorf("invalid schedule config %s: %w", path, err)
	}

	return sched, nil
}

func convert(raw rawConfig) (*model.StationSchedule, error) {
	shows := make(map[string]model.Show, len(raw.Shows))
	for id, rs := range raw.Shows {
		vibes := make([]model.Vibe, 0, len(rs.Music.Vibes))
		for _, v := range rs.Music.Vibes {
			vibes = append(vibes, model.Vibe(v))
		}
		segmentAfter := rs.SegmentAfterTracks
		if segmentAfter < 1 {
			segmentAfter = 1
		}
		shows[id] = model.Show{
			ShowID:             id,
			Name:               rs.Name,
			Description:        rs.Description,
			SegmentAfterTracks: segmentAfter,
			PodcastsEnabled:    rs.PodcastsEnabled,
			Voices:             rs.Voices,
			Music: model.MusicProfile{
				EnergyLow:    rs.Music.EnergyRange[0],
				EnergyHigh:   rs.Music.EnergyRange[1],
				PreferWarmth: rs.Music.PreferWarmth,
				Vibes:        vibes,
			},
		}
	}

	base, err := convertBlocks(raw.Schedule.Base, shows, false)
	if err != nil {
		return nil, err
	}
	overrides, err := convertBlocks(raw.Schedule.Overrides, shows, true)
	if err != nil {
		return nil, err
	}

	podcastHours := make(map[int]bool, len(raw.Podcasts.Hours))
	for _, h := range raw.Podcasts.Hours {
		if h < 0 || h >= 24 {
			return nil, fmt.Errorf("podcast hour %d out of range [0,24)", h)
		}
		podcastHours[h] = true
	}

	return &model.StationSchedule{
		Shows:        shows,
		Base:         base,
		Overrides:    overrides,
		PodcastHours: podcastHours,
	}, nil
}

func convertBlocks(raw []rawBlock, shows map[string]model.Show, requireDays bool) ([]model.ScheduleBlock, error) {
	blocks := make([]model.ScheduleBlock, 0, len(raw))
	for _, rb := range raw {
		start, err := parseHHMM(rb.Start)
		if err != nil {
			return nil, fmt.Errorf("block start %q: %w", rb.Start, err)
		}
		end, err := parseHHMM(rb.End)
		if err != nil {
			return nil, fmt.Errorf("block end %q: %w", rb.End, err)
		}
		if end == start {
			return nil, fmt.Errorf("block %s-%s: end_minute == start_minute is forbidden", rb.Start, rb.End)
		}
		if _, ok := shows[rb.Show]; !ok {
			return nil, fmt.Errorf("block %s-%s references unknown show %q", rb.Start, rb.End, rb.Show)
		}

		var days map[model.Weekday]bool
		if len(rb.Days) > 0 {
			var err error
			days, err = parseDays(rb.Days)
			if err != nil {
				return nil, err
			}
		} else if requireDays {
			return nil, fmt.Errorf("override block %s-%s (show %s) must name at least one day", rb.Start, rb.End, rb.Show)
		}

		blocks = append(blocks, model.ScheduleBlock{
			StartMinute: start,
			EndMinute:   end,
			ShowID:      rb.Show,
			Days:        days,
		})
	}
	return blocks, nil
}

// parseHHMM parses a 24h "HH:MM" string into minutes-of-day.
func parseHHMM(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	// 24:00 is accepted as the end-of-day sentinel and normalized to 0,
	// matching the "end < start means crosses midnight" convention.
	if hh == 24 && mm == 0 {
		return 0, nil
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return hh*60 + mm, nil
}

var dayTokens = map[string]model.Weekday{
	"mon": model.Monday, "tue": model.Tuesday, "wed": model.Wednesday,
	"thu": model.Thursday, "fri": model.Friday, "sat": model.Saturday, "sun": model.Sunday,
}

var weekdaySet = []model.Weekday{model.Monday, model.Tuesday, model.Wednesday, model.Thursday, model.Friday}
var weekendSet = []model.Weekday{model.Saturday, model.Sunday}
var allDays = []model.Weekday{model.Monday, model.Tuesday, model.Wednesday, model.Thursday, model.Friday, model.Saturday, model.Sunday}

// parseDays expands the closed set of day tokens ("mon".."sun", "daily",
// "weekday", "weekend") into an explicit weekday set.
func parseDays(tokens []string) (map[model.Weekday]bool, error) {
	days := make(map[model.Weekday]bool)
	for _, tok := range tokens {
		lower := strings.ToLower(strings.TrimSpace(tok))
		switch lower {
		case "daily":
			addAll(days, allDays)
		case "weekday":
			addAll(days, weekdaySet)
		case "weekend":
			addAll(days, weekendSet)
		default:
			wd, ok := dayTokens[lower]
			if !ok {
				return nil, fmt.Errorf("unrecognized day token %q", tok)
			}
			days[wd] = true
		}
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("day token list %v produced no days", tokens)
	}
	return days, nil
}

func addAll(dst map[model.Weekday]bool, days []model.Weekday) {
	for _, d := range days {
		dst[d] = true
	}
}

// weekdayFromTime converts time.Time's Go weekday (Sunday=0..Saturday=6)
// into our model.Weekday (Monday=0..Sunday=6).
func weekdayFromTime(t time.Time) model.Weekday {
	switch t.Weekday() {
	case time.Sunday:
		return model.Sunday
	case time.Monday:
		return model.Monday
	case time.Tuesday:
		return model.Tuesday
	case time.Wednesday:
		return model.Wednesday
	case time.Thursday:
		return model.Thursday
	case time.Friday:
		return model.Friday
	default:
		return model.Saturday
	}
}
