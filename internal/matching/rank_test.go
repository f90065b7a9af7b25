package matching

import (
	"testing"

	"contractor-matching/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestRank_TieBreaks(t *testing.T) {
	candidates := []models.MatchCandidate{
		{ContractorID: "d", TotalScore: 0.7, DistanceMiles: 3, EffectiveRating: 4},
		{ContractorID: "c", TotalScore: 0.7, DistanceMiles: 3, EffectiveRating: 4},
		{ContractorID: "b", TotalScore: 0.7, DistanceMiles: 3, EffectiveRating: 4.5},
		{ContractorID: "a", TotalScore: 0.7, DistanceMiles: 9, EffectiveRating: 5},
		{ContractorID: "e", TotalScore: 0.9, DistanceMiles: 20, EffectiveRating: 1},
	}

	Rank(candidates)

	assert.Equal(t, []string{"e", "b", "c", "d", "a"}, candidateIDs(candidates))
}
