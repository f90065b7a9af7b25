package matching

import (
	"math"
	"testing"

	"contractor-matching/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy_WeightsSumToOne(t *testing.T) {
	p := DefaultPolicy()
	assert.InDelta(t, 1.0, p.Weights.Sum(), 1e-12)
	assert.NoError(t, p.Validate())
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Policy)
	}{
		{"weights do not sum to one", func(p *Policy) { p.Weights.Preference = 0.10 }},
		{"negative weight", func(p *Policy) { p.Weights.Expertise = -0.05; p.Weights.Availability = 0.65 }},
		{"tier above one", func(p *Policy) { p.Availability.Partial = 1.2 }},
		{"steps out of order", func(p *Policy) { p.Location.Steps[1].MaxMiles = 2 }},
		{"zero max results", func(p *Policy) { p.DefaultMaxResults = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(&p)
			assert.Error(t, p.Validate())
			_, err := NewScorer(p)
			assert.Error(t, err)
		})
	}
}

func TestNewScorer_CopiesPolicy(t *testing.T) {
	p := DefaultPolicy()
	scorer, err := NewScorer(p)
	require.NoError(t, err)

	p.Cost.Multipliers[models.ServiceBirthDoula] = 9
	p.Expertise.Bonuses[models.ServiceBirthDoula][0].Bonus = 0.9

	assert.Equal(t, 1.2, scorer.Policy().Cost.Multipliers[models.ServiceBirthDoula])
	assert.Equal(t, 0.2, scorer.Policy().Expertise.Bonuses[models.ServiceBirthDoula][0].Bonus)
}

func TestScorer_Score(t *testing.T) {
	scorer, err := NewScorer(DefaultPolicy())
	require.NoError(t, err)

	req := birthRequest("sr-1")
	c := eligibleContractor("c-1", 12)
	crit := DefaultPolicy().criteriaFor(req, Overrides{})

	m := scorer.Score(EligibleContractor{Contractor: c, DistanceMiles: 12}, req, crit)

	assert.Equal(t, "c-1", m.ContractorID)
	assert.Equal(t, 0.6, m.Breakdown.Location.Score)
	assert.Equal(t, 0.35, m.Breakdown.Expertise.Weight)
	assert.InDelta(t, 0.35*0.6+0.25*1+0.20*0.6+0.15*0.8+0.05*1, m.TotalScore, 1e-12)
	assert.Equal(t, []string{"Available at requested time"}, m.Reasons)
	assert.Equal(t, models.AvailabilityFull, m.AvailabilityTier)
	assert.Equal(t, 4.0, m.EffectiveRating)
}

func TestScorer_FallbackReasonAndDefaults(t *testing.T) {
	scorer, err := NewScorer(DefaultPolicy())
	require.NoError(t, err)

	req := birthRequest("sr-1")
	req.ServiceType = models.ServiceEldercareSupport
	req.EstimatedHours = 3.5
	c := eligibleContractor("c-1", 20)
	c.Rating = nil
	c.HourlyRate = 0
	c.Availability = nil
	crit := DefaultPolicy().criteriaFor(req, Overrides{})

	m := scorer.Score(EligibleContractor{Contractor: c, DistanceMiles: 20}, req, crit)

	assert.Equal(t, []string{fallbackReason}, m.Reasons)
	assert.Equal(t, 0.5, m.Breakdown.Performance.Score)
	assert.Equal(t, 2.5, m.EffectiveRating)
	assert.Equal(t, models.CostEstimate{HourlyRate: 25, EstimatedHours: 3.5, BaseAmount: 87.5, Multiplier: 1, TotalEstimated: 87.5}, m.EstimatedCost)
}

func TestScorer_CostRounding(t *testing.T) {
	scorer, err := NewScorer(DefaultPolicy())
	require.NoError(t, err)

	req := birthRequest("sr-1")
	req.ServiceType = models.ServiceEmergencySitter
	req.EstimatedHours = 2.333
	c := eligibleContractor("c-1", 1)
	c.HourlyRate = 19.99
	crit := DefaultPolicy().criteriaFor(req, Overrides{})

	cost := scorer.Score(EligibleContractor{Contractor: c, DistanceMiles: 1}, req, crit).EstimatedCost

	assert.Equal(t, 1.5, cost.Multiplier)
	assert.Equal(t, math.Round(19.99*2.333*100)/100, cost.BaseAmount)
	assert.Equal(t, math.Round(19.99*2.333*1.5*100)/100, cost.TotalEstimated)
}

func TestScorer_TotalAlwaysInRange(t *testing.T) {
	scorer, err := NewScorer(DefaultPolicy())
	require.NoError(t, err)
	req := birthRequest("sr-1")
	req.SpecialRequirements = models.NewTagSet("twins")
	crit := DefaultPolicy().criteriaFor(req, Overrides{})

	for _, r := range []float64{0, 2.5, 5, 7} {
		for _, d := range []float64{0, 6, 14, 25, 80} {
			c := eligibleContractor("c", d)
			c.Rating = rating(r)
			c.Certifications = models.NewTagSet("DONA_certified", "childbirth_educator")
			c.SpecialSkills = models.NewTagSet("twins")
			m := scorer.Score(EligibleContractor{Contractor: c, DistanceMiles: d}, req, crit)
			assert.GreaterOrEqual(t, m.TotalScore, 0.0)
			assert.LessOrEqual(t, m.TotalScore, 1.0)
			assert.LessOrEqual(t, m.Breakdown.Performance.Score, 1.0)
		}
	}
}
