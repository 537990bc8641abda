// Package scoring computes relevance scores for catalog items. Both
// strategies are pure and deterministic; ranking uses a stable sort so that
// ties keep the catalog's own popularity order.
package scoring

import (
	"math"
	"sort"

	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/tmdb"
)

const (
	// PlatformBonus dominates the [0,1] base score range of the
	// normalized-quality strategy, so any platform-matched item outranks
	// every non-matched one.
	PlatformBonus = 50.0

	genreScoreScale = 60.0
	matchRatioScale = 40.0
)

// WeightedGenreMatch scores an item against explicit per-genre weights.
// Genre alignment dominates; rating, vote count and popularity act as a
// small tie-breaker.
func WeightedGenreMatch(item tmdb.Item, weights map[int]int) float64 {
	var genreScore, totalWeight float64
	for gid, w := range weights {
		if w <= 0 {
			continue
		}
		totalWeight += float64(w)
		if item.HasGenre(gid) {
			genreScore += float64(w)
		}
	}

	matchRatio := 0.0
	if totalWeight > 0 {
		matchRatio = genreScore / totalWeight
	}

	quality := item.VoteAverage*0.10 +
		math.Log10(float64(item.VoteCount)+1)*0.08 +
		item.Popularity*0.0004

	return genreScore*genreScoreScale + matchRatio*matchRatioScale + quality
}

// NormalizedQuality scores an item on rating, vote count and popularity,
// each normalized into [0,1]. When preferredPlatforms is non-empty and the
// item is available on at least one of them, PlatformBonus is added.
func NormalizedQuality(item tmdb.Item, availability tmdb.Availability, preferredPlatforms []int) float64 {
	voteNorm := math.Min(item.VoteAverage/10, 1)
	countNorm := math.Min(math.Log10(float64(item.VoteCount)+1)/4, 1)
	popNorm := math.Min(math.Log10(item.Popularity+1)/3, 1)

	score := 0.6*voteNorm + 0.25*countNorm + 0.15*popNorm

	if len(preferredPlatforms) > 0 && onPreferredPlatform(availability, preferredPlatforms) {
		score += PlatformBonus
	}
	return score
}

func onPreferredPlatform(availability tmdb.Availability, preferred []int) bool {
	for _, p := range availability.All() {
		for _, id := range preferred {
			if p.ProviderID == id {
				return true
			}
		}
	}
	return false
}

// Scored pairs an item with its computed score.
type Scored struct {
	Item         tmdb.Item
	Availability tmdb.Availability
	Score        float64
}

// Rank sorts candidates by descending score, keeping input order on ties,
// and truncates to limit. limit <= 0 means no truncation.
func Rank(candidates []Scored, limit int) []Scored {
	ranked := make([]Scored, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
