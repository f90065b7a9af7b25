package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocationScorer_Score(t *testing.T) {
	s := NewLocationScorer(DefaultPolicy().Location)

	tests := []struct {
		distance, capMiles, want float64
	}{
		{0, 25, 1.0},
		{5, 25, 1.0},
		{7, 25, 0.8},
		{10, 25, 0.8},
		{12, 25, 0.6},
		{15, 25, 0.6},
		{20, 25, 0.4},
		{25, 25, 0.4},
		{30, 25, 0.1},
		{8, 6, 0.1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, s.Score(tt.distance, tt.capMiles), "distance=%v cap=%v", tt.distance, tt.capMiles)
	}
}
