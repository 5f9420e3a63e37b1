// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package director

import (
	"math/rand"
	"sort"

	"github.com/wvoid-fm/broadcast/internal/model"
)

// scoredAsset pairs an asset with its computed score for sorting.
type scoredAsset struct {
	asset model.Asset
	score float64
}

// buildMusicQueue implements §4.D steps 2-4: score, sort, take the top
// half of the pool (never fewer than 2*queueSize when available), shuffle,
// then walk the shuffled pool committing tracks while probabilistically
// rejecting immediate vibe repeats, topping up by original score order if
// the pool runs dry before reaching queueSize.
func buildMusicQueue(candidates []model.Asset, profile model.MusicProfile, queueSize int, prevVibe model.Vibe, rng *rand.Rand) []model.Asset {
	if len(candidates) == 0 {
		return nil
	}

	scored := make([]scoredAsset, len(candidates))
	for i, c := range candidates {
		scored[i] = scoredAsset{asset: c, score: scoreCandidate(c.Mood, profile, rng)}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	poolSize := len(scored) / 2
	if min := 2 * queueSize; poolSize < min {
		poolSize = min
	}
	if poolSize > len(scored) {
		poolSize = len(scored)
	}

	pool := make([]scoredAsset, poolSize)
	copy(pool, scored[:poolSize])
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	queue := make([]model.Asset, 0, queueSize)
	last := prevVibe

	for _, sa := range pool {
		if len(queue) >= queueSize {
			break
		}
		if sa.asset.Mood.Vibe == last && rng.Float64() < 0.6 {
			continue // rejected: repeats the previous committed vibe
		}
		queue = append(queue, sa.asset)
		last = sa.asset.Mood.Vibe
	}

	if len(queue) < queueSize {
		// Top up by original score order, ignoring the vibe-repeat rule,
		// skipping whatever the shuffle pass already committed.
		for _, sa := range scored {
			if len(queue) >= queueSize {
				break
			}
			if containsAsset(queue, sa.asset) {
				continue
			}
			queue = append(queue, sa.asset)
		}
	}

	return queue
}

func containsAsset(queue []model.Asset, a model.Asset) bool {
	for _, q := range queue {
		if q.Path == a.Path {
			return true
		}
	}
	return false
}

// filterCandidatePaths extracts the Path of each asset, for passing to
// the history store's FilterRecent.
func filterCandidatePaths(assets []model.Asset) []string {
	paths := make([]string, len(assets))
	for i, a := range assets {
		paths[i] = a.Path
	}
	return paths
}

// keepPaths returns the subset of assets whose Path is in allowed.
func keepPaths(assets []model.Asset, allowed []string) []model.Asset {
	set := make(map[string]bool, len(allowed))
	for _, p := range allowed {
		set[p] = true
	}
	out := make([]model.Asset, 0, len(assets))
	for _, a := range assets {
		if set[a.Path] {
			out = append(out, a)
		}
	}
	return out
}
