package matching

import (
	"sort"

	"contractor-matching/internal/models"
)

// Rank orders candidates best first: total score, then distance, then
// effective rating, then contractor id so the order is total.
func Rank(candidates []models.MatchCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if a.DistanceMiles != b.DistanceMiles {
			return a.DistanceMiles < b.DistanceMiles
		}
		if a.EffectiveRating != b.EffectiveRating {
			return a.EffectiveRating > b.EffectiveRating
		}
		return a.ContractorID < b.ContractorID
	})
}
