// internal/models/match.go
package models

// AvailabilityTier names which availability rule produced a score.
type AvailabilityTier string

const (
	AvailabilityUnknown     AvailabilityTier = "unknown"
	AvailabilityUnavailable AvailabilityTier = "unavailable"
	AvailabilityFull        AvailabilityTier = "full"
	AvailabilityPartial     AvailabilityTier = "partial"
	AvailabilityPoor        AvailabilityTier = "poor"
)

type ScoreComponent struct {
	Score        float64 `json:"score"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

type ScoreBreakdown struct {
	Expertise    ScoreComponent `json:"expertise"`
	Availability ScoreComponent `json:"availability"`
	Location     ScoreComponent `json:"location"`
	Performance  ScoreComponent `json:"performance"`
	Preference   ScoreComponent `json:"preference"`
}

// Total sums the weighted contributions.
func (b ScoreBreakdown) Total() float64 {
	return b.Expertise.Contribution +
		b.Availability.Contribution +
		b.Location.Contribution +
		b.Performance.Contribution +
		b.Preference.Contribution
}

type CostEstimate struct {
	HourlyRate     float64 `json:"hourlyRate"`
	EstimatedHours float64 `json:"estimatedHours"`
	BaseAmount     float64 `json:"baseAmount"`
	Multiplier     float64 `json:"multiplier"`
	TotalEstimated float64 `json:"totalEstimated"`
}

// ContractorSummary is the slice of a contractor profile shown with a match.
type ContractorSummary struct {
	FirstName       string   `json:"firstName"`
	LastName        string   `json:"lastName"`
	ExperienceLevel string   `json:"experienceLevel"`
	Certifications  []string `json:"certifications"`
	Languages       []string `json:"languages"`
	Rating          *float64 `json:"rating,omitempty"`
	CompletedJobs   int      `json:"completedJobs"`
}

func SummarizeContractor(c *Contractor) ContractorSummary {
	return ContractorSummary{
		FirstName:       c.FirstName,
		LastName:        c.LastName,
		ExperienceLevel: c.EffectiveExperienceLevel(),
		Certifications:  c.Certifications.Sorted(),
		Languages:       c.Languages.Sorted(),
		Rating:          c.Rating,
		CompletedJobs:   c.CompletedJobs,
	}
}

// MatchCandidate is one scored contractor for one service request.
type MatchCandidate struct {
	ContractorID     string            `json:"contractorId"`
	ServiceRequestID string            `json:"serviceRequestId"`
	Contractor       ContractorSummary `json:"contractor"`
	Breakdown        ScoreBreakdown    `json:"scoreBreakdown"`
	TotalScore       float64           `json:"totalScore"`
	AvailabilityTier AvailabilityTier  `json:"availabilityTier"`
	EstimatedCost    CostEstimate      `json:"estimatedCost"`
	DistanceMiles    float64           `json:"distanceMiles"`
	EffectiveRating  float64           `json:"-"`
	Reasons          []string          `json:"matchReasons"`
}
