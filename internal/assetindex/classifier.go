// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assetindex enumerates music, segment, and podcast files on disk
// and classifies each into a mood vector using purely lexical, path-based
// matching (§4.A). Nothing here touches audio content — only filenames and
// an external duration probe.
package assetindex

import (
	"strings"
	"sync"

	"github.com/wvoid-fm/broadcast/internal/cache"
	"github.com/wvoid-fm/broadcast/internal/model"
)

// Classifier derives a Mood and, for segments, a SegmentType from an
// asset's path using the longest-keyword-wins rule over a built-in
// signature table (data, not code — see signatures.go).
type Classifier struct {
	once         sync.Once
	moodMatcher  *cache.PatternMatcher
	segMatchers  map[model.SegmentType]*cache.PatternMatcher
	dedication   *cache.PatternMatcher
}

// NewClassifier builds the Aho-Corasick automata for mood and segment-type
// classification. Building is one-time and safe for concurrent use
// thereafter.
func NewClassifier() *Classifier {
	c := &Classifier{}
	c.build()
	return c
}

func (c *Classifier) build() {
	c.once.Do(func() {
		patterns := make(map[string]any, len(moodSignatures))
		for _, sig := range moodSignatures {
			patterns[sig.keyword] = sig
		}
		c.moodMatcher = cache.NewPatternMatcher(patterns)

		c.segMatchers = make(map[model.SegmentType]*cache.PatternMatcher, len(segmentKeywords))
		for segType, keywords := range segmentKeywords {
			c.segMatchers[segType] = cache.NewPatternMatcherFromSlice(keywords, segType)
		}

		c.dedication = cache.NewPatternMatcherFromSlice(dedicationKeywords, model.SegmentListenerDedication)
	})
}

// ClassifyMood returns the Mood implied by the longest keyword in path
// that matches a built-in signature, or the default (0.5, 0.5, unknown)
// mood when nothing matches.
func (c *Classifier) ClassifyMood(path string) model.Mood {
	lower := strings.ToLower(path)
	match, ok := c.moodMatcher.LongestMatch(lower)
	if !ok {
		return defaultMood
	}
	sig, ok := match.Data.(signature)
	if !ok {
		return defaultMood
	}
	return model.Mood{Energy: sig.energy, Warmth: sig.warmth, Vibe: sig.vibe}
}

// ClassifySegmentType extracts a SegmentType from a segment's filename
// stem. listener_dedication (and its prefix/keyword variants) is checked
// first and takes priority over every other category. The second return
// value reports whether the file should be treated as single-use.
func (c *Classifier) ClassifySegmentType(filename string) (model.SegmentType, bool) {
	lower := strings.ToLower(filename)

	if c.dedication.Contains(lower) || strings.HasPrefix(lower, "listener_dedication") {
		return model.SegmentListenerDedication, true
	}

	for _, segType := range model.OrderedSegmentTypes {
		if segType == model.SegmentListenerDedication {
			continue
		}
		matcher, ok := c.segMatchers[segType]
		if !ok {
			continue
		}
		if matcher.Contains(lower) {
			return segType, false
		}
	}

	return model.SegmentUnknown, false
}
