package matching

import (
	"fmt"
	"math"
	"sort"
	"time"

	"contractor-matching/internal/models"
)

// Weights are the fixed component weights of the total score.
type Weights struct {
	Expertise    float64 `mapstructure:"expertise"`
	Availability float64 `mapstructure:"availability"`
	Location     float64 `mapstructure:"location"`
	Performance  float64 `mapstructure:"performance"`
	Preference   float64 `mapstructure:"preference"`
}

func (w Weights) Sum() float64 {
	return w.Expertise + w.Availability + w.Location + w.Performance + w.Preference
}

type AvailabilityTiers struct {
	NoSchedule     float64 `mapstructure:"no_schedule"`
	DayUnavailable float64 `mapstructure:"day_unavailable"`
	FullCover      float64 `mapstructure:"full_cover"`
	Partial        float64 `mapstructure:"partial"`
	Poor           float64 `mapstructure:"poor"`
}

// DistanceStep scores every distance up to and including MaxMiles.
type DistanceStep struct {
	MaxMiles float64 `mapstructure:"max_miles"`
	Score    float64 `mapstructure:"score"`
}

type LocationTiers struct {
	Steps     []DistanceStep `mapstructure:"steps"`
	WithinCap float64        `mapstructure:"within_cap"`
	BeyondCap float64        `mapstructure:"beyond_cap"`
}

// CertBonus is awarded once when the contractor holds any of AnyOf.
type CertBonus struct {
	AnyOf []string
	Bonus float64
}

type ExpertisePolicy struct {
	BaseScore          float64
	MaxCertBonus       float64
	RequirementsWeight float64
	Bonuses            map[models.ServiceType][]CertBonus
}

// ServiceGate is a hard filter derived from the service type.
type ServiceGate struct {
	AnyCertifications []string
	MinCompletedJobs  int
}

type CostPolicy struct {
	DefaultHourlyRate float64
	Multipliers       map[models.ServiceType]float64
}

// Policy holds every scoring and filtering constant. Build it once and hand
// it to NewScorer; it is copied on the way in and never mutated after.
type Policy struct {
	Weights            Weights
	Availability       AvailabilityTiers
	Location           LocationTiers
	Expertise          ExpertisePolicy
	Cost               CostPolicy
	ServiceGates       map[models.ServiceType]ServiceGate
	DefaultRating      float64
	MaxRating          float64
	ReasonThreshold    float64
	DefaultMaxDistance float64
	DefaultMaxResults  int
	MaxResultsCap      int
	ScheduleLocation   *time.Location
}

func DefaultPolicy() Policy {
	return Policy{
		Weights: Weights{
			Expertise:    0.35,
			Availability: 0.25,
			Location:     0.20,
			Performance:  0.15,
			Preference:   0.05,
		},
		Availability: AvailabilityTiers{
			NoSchedule:     0.5,
			DayUnavailable: 0.1,
			FullCover:      1.0,
			Partial:        0.7,
			Poor:           0.3,
		},
		Location: LocationTiers{
			Steps: []DistanceStep{
				{MaxMiles: 5, Score: 1.0},
				{MaxMiles: 10, Score: 0.8},
				{MaxMiles: 15, Score: 0.6},
			},
			WithinCap: 0.4,
			BeyondCap: 0.1,
		},
		Expertise: ExpertisePolicy{
			BaseScore:          0.6,
			MaxCertBonus:       0.3,
			RequirementsWeight: 0.2,
			Bonuses: map[models.ServiceType][]CertBonus{
				models.ServiceBirthDoula: {
					{AnyOf: []string{"DONA_certified", "CAPPA_certified"}, Bonus: 0.2},
					{AnyOf: []string{"childbirth_educator"}, Bonus: 0.1},
				},
				models.ServicePostpartumDoula: {
					{AnyOf: []string{"postpartum_specialist", "DONA_postpartum"}, Bonus: 0.2},
					{AnyOf: []string{"lactation_consultant"}, Bonus: 0.1},
				},
				models.ServiceNewbornSpecialist: {
					{AnyOf: []string{"newborn_care_specialist", "NCS_certified"}, Bonus: 0.2},
				},
				models.ServiceLactationSupport: {
					{AnyOf: []string{"IBCLC", "lactation_consultant"}, Bonus: 0.3},
				},
			},
		},
		Cost: CostPolicy{
			DefaultHourlyRate: 25,
			Multipliers: map[models.ServiceType]float64{
				models.ServiceBirthDoula:       1.2,
				models.ServiceEmergencySitter:  1.5,
				models.ServiceLactationSupport: 1.3,
			},
		},
		ServiceGates: map[models.ServiceType]ServiceGate{
			models.ServiceBirthDoula:        {MinCompletedJobs: 1},
			models.ServiceLactationSupport:  {AnyCertifications: []string{"IBCLC", "lactation_consultant"}},
			models.ServiceNewbornSpecialist: {AnyCertifications: []string{"newborn_care_specialist", "NCS_certified"}, MinCompletedJobs: 2},
		},
		DefaultRating:      2.5,
		MaxRating:          5,
		ReasonThreshold:    0.8,
		DefaultMaxDistance: 25,
		DefaultMaxResults:  5,
		MaxResultsCap:      20,
		ScheduleLocation:   time.UTC,
	}
}

const weightTolerance = 1e-9

// Validate rejects policies that would break the score invariants.
func (p Policy) Validate() error {
	weights := map[string]float64{
		"expertise":    p.Weights.Expertise,
		"availability": p.Weights.Availability,
		"location":     p.Weights.Location,
		"performance":  p.Weights.Performance,
		"preference":   p.Weights.Preference,
	}
	for name, w := range weights {
		if w < 0 || w > 1 {
			return fmt.Errorf("weight %s=%v outside [0,1]", name, w)
		}
	}
	if sum := p.Weights.Sum(); math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("weights sum to %v, want 1.0", sum)
	}

	tiers := []float64{
		p.Availability.NoSchedule, p.Availability.DayUnavailable, p.Availability.FullCover,
		p.Availability.Partial, p.Availability.Poor,
		p.Location.WithinCap, p.Location.BeyondCap,
		p.Expertise.BaseScore, p.ReasonThreshold,
	}
	for _, step := range p.Location.Steps {
		tiers = append(tiers, step.Score)
	}
	for _, v := range tiers {
		if v < 0 || v > 1 {
			return fmt.Errorf("tier score %v outside [0,1]", v)
		}
	}
	for i := 1; i < len(p.Location.Steps); i++ {
		if p.Location.Steps[i].MaxMiles <= p.Location.Steps[i-1].MaxMiles {
			return fmt.Errorf("location steps must be strictly increasing in distance")
		}
	}

	if p.MaxRating <= 0 {
		return fmt.Errorf("max rating must be positive")
	}
	if p.DefaultMaxDistance <= 0 {
		return fmt.Errorf("default max distance must be positive")
	}
	if p.DefaultMaxResults < 1 || p.DefaultMaxResults > p.MaxResultsCap {
		return fmt.Errorf("default max results %d outside 1..%d", p.DefaultMaxResults, p.MaxResultsCap)
	}
	return nil
}

// clone deep-copies the maps and slices so callers cannot mutate a policy
// in use.
func (p Policy) clone() Policy {
	out := p
	out.Location.Steps = append([]DistanceStep(nil), p.Location.Steps...)
	sort.SliceStable(out.Location.Steps, func(i, j int) bool {
		return out.Location.Steps[i].MaxMiles < out.Location.Steps[j].MaxMiles
	})

	out.Expertise.Bonuses = make(map[models.ServiceType][]CertBonus, len(p.Expertise.Bonuses))
	for st, bonuses := range p.Expertise.Bonuses {
		copied := make([]CertBonus, len(bonuses))
		for i, b := range bonuses {
			copied[i] = CertBonus{AnyOf: append([]string(nil), b.AnyOf...), Bonus: b.Bonus}
		}
		out.Expertise.Bonuses[st] = copied
	}

	out.Cost.Multipliers = make(map[models.ServiceType]float64, len(p.Cost.Multipliers))
	for st, m := range p.Cost.Multipliers {
		out.Cost.Multipliers[st] = m
	}

	out.ServiceGates = make(map[models.ServiceType]ServiceGate, len(p.ServiceGates))
	for st, g := range p.ServiceGates {
		out.ServiceGates[st] = ServiceGate{
			AnyCertifications: append([]string(nil), g.AnyCertifications...),
			MinCompletedJobs:  g.MinCompletedJobs,
		}
	}

	if out.ScheduleLocation == nil {
		out.ScheduleLocation = time.UTC
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
