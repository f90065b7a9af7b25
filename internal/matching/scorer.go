package matching

import (
	"fmt"
	"math"
	"strconv"

	"contractor-matching/internal/models"
)

const fallbackReason = "Meets basic service requirements"

// Scorer computes the weighted total, the cost estimate and the match
// reasons for one eligible contractor. It is immutable after construction
// and safe for concurrent use.
type Scorer struct {
	policy       Policy
	expertise    ExpertiseScorer
	availability AvailabilityEvaluator
	location     LocationScorer
	preference   PreferenceScorer
}

// NewScorer validates and copies p.
func NewScorer(p Policy) (*Scorer, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matching policy: %w", err)
	}
	p = p.clone()
	return &Scorer{
		policy:       p,
		expertise:    NewExpertiseScorer(p.Expertise),
		availability: NewAvailabilityEvaluator(p.Availability, p.ScheduleLocation),
		location:     NewLocationScorer(p.Location),
	}, nil
}

// Policy returns a copy of the policy in use.
func (s *Scorer) Policy() Policy {
	return s.policy.clone()
}

func (s *Scorer) Score(e EligibleContractor, req *models.ServiceRequest, c Criteria) models.MatchCandidate {
	contractor := e.Contractor
	w := s.policy.Weights

	avail := s.availability.Evaluate(contractor.Availability, req.PreferredStart, req.EstimatedHours)
	rating := contractor.RatingOr(s.policy.DefaultRating)

	breakdown := models.ScoreBreakdown{
		Expertise:    component(s.expertise.Score(contractor, c.ServiceType, c.Requirements), w.Expertise),
		Availability: component(avail.Score, w.Availability),
		Location:     component(s.location.Score(e.DistanceMiles, c.MaxDistanceMiles), w.Location),
		Performance:  component(rating/s.policy.MaxRating, w.Performance),
		Preference:   component(s.preference.Score(contractor, c.Preferences), w.Preference),
	}

	return models.MatchCandidate{
		ContractorID:     contractor.ID,
		ServiceRequestID: req.ID,
		Contractor:       models.SummarizeContractor(contractor),
		Breakdown:        breakdown,
		TotalScore:       clamp01(breakdown.Total()),
		AvailabilityTier: avail.Tier,
		EstimatedCost:    s.estimateCost(contractor, req),
		DistanceMiles:    e.DistanceMiles,
		EffectiveRating:  rating,
		Reasons:          s.reasons(breakdown, c.ServiceType, rating, e.DistanceMiles),
	}
}

func component(score, weight float64) models.ScoreComponent {
	score = clamp01(score)
	return models.ScoreComponent{Score: score, Weight: weight, Contribution: score * weight}
}

func (s *Scorer) estimateCost(c *models.Contractor, req *models.ServiceRequest) models.CostEstimate {
	rate := c.HourlyRate
	if rate <= 0 {
		rate = s.policy.Cost.DefaultHourlyRate
	}
	hours := math.Max(req.EstimatedHours, 0)
	multiplier, ok := s.policy.Cost.Multipliers[req.ServiceType]
	if !ok {
		multiplier = 1.0
	}
	base := rate * hours
	return models.CostEstimate{
		HourlyRate:     rate,
		EstimatedHours: hours,
		BaseAmount:     roundCents(base),
		Multiplier:     multiplier,
		TotalEstimated: roundCents(base * multiplier),
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *Scorer) reasons(b models.ScoreBreakdown, st models.ServiceType, rating, distance float64) []string {
	threshold := s.policy.ReasonThreshold
	var out []string

	if b.Expertise.Score > threshold {
		out = append(out, fmt.Sprintf("Highly qualified for %s services", st.Label()))
	}
	if b.Performance.Score > threshold {
		out = append(out, fmt.Sprintf("Excellent performance rating (%s/5.0)", strconv.FormatFloat(rating, 'f', -1, 64)))
	}
	if b.Location.Score > threshold {
		out = append(out, fmt.Sprintf("Located very close to service area (%d miles)", int(math.Round(distance))))
	}
	if b.Availability.Score > threshold {
		out = append(out, "Available at requested time")
	}

	if len(out) == 0 {
		out = append(out, fallbackReason)
	}
	return out
}
