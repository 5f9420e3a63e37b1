// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package director

import (
	"math"
	"math/rand"

	"github.com/wvoid-fm/broadcast/internal/model"
)

// scoreCandidate implements the §4.D step-2 scoring rule: energy fit +
// warmth fit + vibe bonus + jitter.
func scoreCandidate(mood model.Mood, profile model.MusicProfile, rng *rand.Rand) float64 {
	score := energyFit(mood.Energy, profile.EnergyLow, profile.EnergyHigh)
	score += warmthFit(mood.Warmth, profile.PreferWarmth)
	score += vibeBonus(mood.Vibe, profile.Vibes)
	score += rng.Float64() * 10 // U[0,10] jitter
	return score
}

func energyFit(energy, lo, hi float64) float64 {
	if energy >= lo && energy <= hi {
		return 40
	}
	dist := math.Min(math.Abs(energy-lo), math.Abs(energy-hi))
	return math.Max(0, 30-dist*50)
}

func warmthFit(warmth, preferWarmth float64) float64 {
	return math.Max(0, 30-math.Abs(warmth-preferWarmth)*40)
}

func vibeBonus(vibe model.Vibe, vibes []model.Vibe) float64 {
	for rank, v := range vibes {
		if v == vibe {
			return 30 - 3*float64(rank)
		}
	}
	return 0
}
