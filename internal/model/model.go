// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model defines the shared domain types passed between the asset
// index, history store, schedule resolver, program director, streaming
// engine, and the now-playing API. Nothing in this package touches disk,
// a subprocess, or the network; it is the vocabulary the rest of the
// daemon speaks.
package model

import "time"

// Vibe is a categorical genre-like tag from the station's closed tag set.
type Vibe string

// The closed set of vibes the classifier can produce. Unknown is the
// fallback when no signature matches.
const (
	VibeAmbient         Vibe = "ambient"
	VibeJazz            Vibe = "jazz"
	VibeDowntempo       Vibe = "downtempo"
	VibeClassical       Vibe = "classical"
	VibeSoulSlow        Vibe = "soul_slow"
	VibeSoul            Vibe = "soul"
	VibeFunk            Vibe = "funk"
	VibeDisco           Vibe = "disco"
	VibeHipHop          Vibe = "hiphop"
	VibeHipHopChill     Vibe = "hiphop_chill"
	VibeIndie           Vibe = "indie"
	VibeElectronic      Vibe = "electronic"
	VibeElectronicChill Vibe = "electronic_chill"
	VibeDub             Vibe = "dub"
	VibeBossa           Vibe = "bossa"
	VibeWorld           Vibe = "world"
	VibeRock            Vibe = "rock"
	VibeRnB             Vibe = "rnb"
	VibeUnknown         Vibe = "unknown"
)

// Mood is the derived three-axis descriptor used by the Director to score
// candidates against a show's music profile.
type Mood struct {
	Energy float64 `json:"energy"`
	Warmth float64 `json:"warmth"`
	Vibe   Vibe    `json:"vibe"`
}

// AssetKind classifies what an Asset is for scheduling and playback
// purposes.
type AssetKind string

const (
	KindMusic     AssetKind = "music"
	KindSegment   AssetKind = "segment"
	KindPodcast   AssetKind = "podcast"
	KindShowAsset AssetKind = "show_asset"
)

// SegmentType is the closed, ordered set of segment filename categories.
// Order matters: classification walks this list and returns the first
// match, with listener_dedication checked ahead of everything else.
type SegmentType string

const (
	SegmentListenerDedication SegmentType = "listener_dedication"
	SegmentStationID          SegmentType = "station_id"
	SegmentHourMarker         SegmentType = "hour_marker"
	SegmentWeather            SegmentType = "weather"
	SegmentMonologue          SegmentType = "monologue"
	SegmentBumper             SegmentType = "bumper"
	SegmentUnknown            SegmentType = "unknown"
)

// OrderedSegmentTypes is the closed set walked, in order, during
// classification. listener_dedication is first by contract.
var OrderedSegmentTypes = []SegmentType{
	SegmentListenerDedication,
	SegmentStationID,
	SegmentHourMarker,
	SegmentWeather,
	SegmentMonologue,
	SegmentBumper,
}

// Asset is a single on-disk audio file known to the station.
type Asset struct {
	Path            string        `json:"path"`
	Kind            AssetKind     `json:"kind"`
	Duration        time.Duration `json:"duration,omitempty"`
	DurationKnown   bool          `json:"duration_known"`
	Mood            Mood          `json:"mood"`
	SegmentType     SegmentType   `json:"segment_type,omitempty"`
	SingleUse       bool          `json:"single_use,omitempty"`
	TrackName       string        `json:"track_name,omitempty"`
	Artist          string        `json:"artist,omitempty"`
	ModTime         time.Time     `json:"mod_time,omitempty"`
}

// MusicProfile describes what a Show wants from music selection.
type MusicProfile struct {
	EnergyLow     float64 `koanf:"energy_low" json:"energy_low"`
	EnergyHigh    float64 `koanf:"energy_high" json:"energy_high"`
	PreferWarmth  float64 `koanf:"prefer_warmth" json:"prefer_warmth"`
	Vibes         []Vibe  `koanf:"vibes" json:"vibes"`
}

// Show is a named program governing music selection, talk cadence, and
// voice routing for a scheduled window.
type Show struct {
	ShowID             string            `koanf:"id" json:"show_id"`
	Name               string            `koanf:"name" json:"name"`
	Description        string            `koanf:"description" json:"description,omitempty"`
	Music              MusicProfile      `koanf:"music" json:"music"`
	SegmentAfterTracks int               `koanf:"segment_after_tracks" json:"segment_after_tracks"`
	PodcastsEnabled    bool              `koanf:"podcasts_enabled" json:"podcasts_enabled"`
	Voices             map[string]string `koanf:"voices" json:"voices,omitempty"`
}

// Weekday is one of the seven days. The schedule config's group tokens
// (daily, weekday, weekend) are expanded into these at load time.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// ScheduleBlock covers [StartMinute, EndMinute) of a day, or, when
// EndMinute < StartMinute, [StartMinute, 1440) that day and [0, EndMinute)
// the following day. Days is empty for base blocks (every day); overrides
// carry an explicit non-empty weekday set.
type ScheduleBlock struct {
	StartMinute int
	EndMinute   int
	ShowID      string
	Days        map[Weekday]bool
}

// CrossesMidnight reports whether the block wraps past 24:00.
func (b ScheduleBlock) CrossesMidnight() bool {
	return b.EndMinute < b.StartMinute
}

// StationSchedule is the fully validated, resolved weekly programming
// configuration.
type StationSchedule struct {
	Shows        map[string]Show
	Base         []ScheduleBlock
	Overrides    []ScheduleBlock
	PodcastHours map[int]bool
}

// ResolvedShow is what the Schedule Resolver hands back for "what's on
// right now" — a uniform interface whether schedule.yaml is present or the
// system fell back to the synthetic time-of-day schedule.
type ResolvedShow struct {
	Show       Show
	BlockStart int
	BlockEnd   int
	FromBase   bool
}

// Period buckets the day into the four segment sub-folders used by the
// Asset Index.
type Period string

const (
	PeriodLateNight Period = "late_night"
	PeriodMorning   Period = "morning"
	PeriodAfternoon Period = "afternoon"
	PeriodEvening   Period = "evening"
)

// PeriodForMinute returns the segment-folder period for a minute-of-day.
func PeriodForMinute(minute int) Period {
	switch {
	case minute >= 0 && minute < 6*60:
		return PeriodLateNight
	case minute >= 6*60 && minute < 12*60:
		return PeriodMorning
	case minute >= 12*60 && minute < 18*60:
		return PeriodAfternoon
	default:
		return PeriodEvening
	}
}

// PlaybackItem is one queued unit of work for the Streaming Engine: an
// asset plus the playback window the Director computed for it.
type PlaybackItem struct {
	Asset       Asset         `json:"asset"`
	Kind        AssetKind     `json:"kind"`
	StartOffset time.Duration `json:"start_offset"`
	PlayLength  time.Duration `json:"play_length,omitempty"`
	IsSpeech    bool          `json:"is_speech"`
	ShowID      string        `json:"show_id,omitempty"`
	ShowName    string        `json:"show_name,omitempty"`
}

// PlayRecord is one append-only row of the Play History Store.
type PlayRecord struct {
	Path            string    `json:"path"`
	TrackName       string    `json:"track_name"`
	Artist          string    `json:"artist,omitempty"`
	Vibe            Vibe      `json:"vibe"`
	TimePeriod      string    `json:"time_period,omitempty"`
	ShowID          string    `json:"show_id,omitempty"`
	ListenersAtPlay int       `json:"listeners_at_play"`
	PlayedAt        time.Time `json:"played_at"`
}

// HistoryStats is the aggregate summary returned by Stats() / the
// /history endpoint.
type HistoryStats struct {
	Plays                int            `json:"plays"`
	UniqueTracks         int            `json:"unique_tracks"`
	ListenersServed      int64          `json:"listeners_served"`
	ByTimePeriod         map[string]int `json:"by_time_period"`
	ByVibe               map[string]int `json:"by_vibe"`
	FirstPlay            *time.Time     `json:"first_play,omitempty"`
	LastPlay             *time.Time     `json:"last_play,omitempty"`
}

// NowPlaying is the document the State Publisher writes atomically on
// every asset transition.
type NowPlaying struct {
	Track     string    `json:"track"`
	Kind      AssetKind `json:"kind"`
	Vibe      Vibe      `json:"vibe,omitempty"`
	ShowID    string    `json:"show_id,omitempty"`
	ShowName  string    `json:"show_name,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Listeners int       `json:"listeners"`
}

// ListenerMessage is a short message a listener submitted for potential
// on-air dedication. ClientKey is persisted to the message store (so the
// rate limiter and dedication renderer can still see it) but must never
// be serialized into the publicly exposed /messages view — callers there
// redact it by clearing the field before marshaling, not via a json tag.
type ListenerMessage struct {
	Message   string    `json:"message"`
	Source    string    `json:"source,omitempty"`
	Username  string    `json:"username,omitempty"`
	ClientKey string    `json:"client_key"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// CommandKind is one of the single-shot operator directives accepted by
// the file-based command channel.
type CommandKind string

const (
	CommandSkip    CommandKind = "skip"
	CommandSegment CommandKind = "segment"
	CommandPodcast CommandKind = "podcast"
)

// ParseCommandKind validates a raw command-file payload. Unknown payloads
// are ignored per spec (ok=false).
func ParseCommandKind(raw string) (CommandKind, bool) {
	switch CommandKind(raw) {
	case CommandSkip, CommandSegment, CommandPodcast:
		return CommandKind(raw), true
	default:
		return "", false
	}
}
