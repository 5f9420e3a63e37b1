// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package assetindex

import "github.com/wvoid-fm/broadcast/internal/model"

// signature associates a lexical keyword with the mood it implies. The
// table is data, not code: classification never special-cases a keyword,
// it only ever consults this table through the longest-match automaton.
type signature struct {
	keyword string
	energy  float64
	warmth  float64
	vibe    model.Vibe
}

// moodSignatures is the built-in keyword table. Keys are path substrings
// (already lower-cased by the matcher); several keywords may map to the
// same vibe at different specificities so the longest one present wins,
// e.g. "electronic_chill" beats "electronic".
var moodSignatures = []signature{
	{"ambient", 0.15, 0.55, model.VibeAmbient},
	{"drone", 0.10, 0.50, model.VibeAmbient},
	{"atmospheric", 0.20, 0.60, model.VibeAmbient},

	{"jazz", 0.40, 0.65, model.VibeJazz},
	{"bebop", 0.55, 0.55, model.VibeJazz},
	{"swing", 0.50, 0.60, model.VibeJazz},

	{"downtempo", 0.30, 0.55, model.VibeDowntempo},
	{"trip-hop", 0.30, 0.50, model.VibeDowntempo},
	{"triphop", 0.30, 0.50, model.VibeDowntempo},
	{"chillout", 0.25, 0.55, model.VibeDowntempo},

	{"classical", 0.35, 0.60, model.VibeClassical},
	{"orchestra", 0.40, 0.60, model.VibeClassical},
	{"symphony", 0.45, 0.60, model.VibeClassical},
	{"piano", 0.30, 0.65, model.VibeClassical},

	{"soul_slow", 0.25, 0.80, model.VibeSoulSlow},
	{"slow_soul", 0.25, 0.80, model.VibeSoulSlow},
	{"soul", 0.50, 0.75, model.VibeSoul},
	{"motown", 0.55, 0.70, model.VibeSoul},

	{"funk", 0.70, 0.55, model.VibeFunk},
	{"funky", 0.70, 0.55, model.VibeFunk},

	{"disco", 0.75, 0.50, model.VibeDisco},

	{"hiphop_chill", 0.40, 0.55, model.VibeHipHopChill},
	{"hip-hop-chill", 0.40, 0.55, model.VibeHipHopChill},
	{"hiphop", 0.65, 0.45, model.VibeHipHop},
	{"hip-hop", 0.65, 0.45, model.VibeHipHop},
	{"hip_hop", 0.65, 0.45, model.VibeHipHop},
	{"rap", 0.65, 0.40, model.VibeHipHop},

	{"indie", 0.55, 0.50, model.VibeIndie},

	{"electronic_chill", 0.35, 0.45, model.VibeElectronicChill},
	{"chill_electronic", 0.35, 0.45, model.VibeElectronicChill},
	{"electronic", 0.70, 0.35, model.VibeElectronic},
	{"techno", 0.80, 0.30, model.VibeElectronic},
	{"house", 0.75, 0.35, model.VibeElectronic},
	{"synth", 0.60, 0.40, model.VibeElectronic},

	{"dub", 0.45, 0.55, model.VibeDub},
	{"reggae", 0.50, 0.60, model.VibeDub},

	{"bossa", 0.35, 0.65, model.VibeBossa},
	{"bossanova", 0.35, 0.65, model.VibeBossa},

	{"world", 0.45, 0.60, model.VibeWorld},
	{"afrobeat", 0.65, 0.55, model.VibeWorld},
	{"latin", 0.60, 0.60, model.VibeWorld},

	{"rock", 0.75, 0.40, model.VibeRock},
	{"punk", 0.85, 0.30, model.VibeRock},
	{"metal", 0.90, 0.25, model.VibeRock},

	{"rnb", 0.45, 0.65, model.VibeRnB},
	{"r&b", 0.45, 0.65, model.VibeRnB},
	{"r_and_b", 0.45, 0.65, model.VibeRnB},
}

// defaultMood is returned when no signature keyword appears in the path.
var defaultMood = model.Mood{Energy: 0.5, Warmth: 0.5, Vibe: model.VibeUnknown}

// segmentKeywords maps each ordered segment type to the filename keywords
// that identify it. listener_dedication is checked first and independently
// of this table (see classifier.go) because it also needs a prefix check.
var segmentKeywords = map[model.SegmentType][]string{
	model.SegmentStationID:  {"station_id", "stationid", "station-id", "id_"},
	model.SegmentHourMarker: {"hour_marker", "hourmarker", "top_of_hour", "time_check"},
	model.SegmentWeather:    {"weather"},
	model.SegmentMonologue:  {"monologue", "commentary", "dj_talk"},
	model.SegmentBumper:     {"bumper", "sweeper", "jingle"},
}

// dedicationKeywords identifies a listener_dedication file independent of
// its position in segmentKeywords — it takes priority over every other
// segment type per spec.
var dedicationKeywords = []string{"listener_dedication", "dedication_", "listener-dedication"}
