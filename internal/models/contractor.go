// internal/models/contractor.go
package models

type ContractorStatus string

const (
	ContractorActive   ContractorStatus = "active"
	ContractorInactive ContractorStatus = "inactive"
)

type BackgroundCheckStatus string

const (
	BackgroundCheckPending    BackgroundCheckStatus = "pending"
	BackgroundCheckInProgress BackgroundCheckStatus = "in_progress"
	BackgroundCheckApproved   BackgroundCheckStatus = "approved"
	BackgroundCheckRejected   BackgroundCheckStatus = "rejected"
	BackgroundCheckExpired    BackgroundCheckStatus = "expired"
)

type InsuranceStatus string

const (
	InsuranceActive    InsuranceStatus = "active"
	InsuranceExpired   InsuranceStatus = "expired"
	InsurancePending   InsuranceStatus = "pending"
	InsuranceCancelled InsuranceStatus = "cancelled"
)

// DefaultExperienceLevel applies to contractors who never set one.
const DefaultExperienceLevel = "experienced"

type Contractor struct {
	ID                string                `json:"id"`
	FirstName         string                `json:"firstName"`
	LastName          string                `json:"lastName"`
	Gender            string                `json:"gender,omitempty"`
	ExperienceLevel   string                `json:"experienceLevel,omitempty"`
	Certifications    TagSet                `json:"certifications,omitempty"`
	CertifiedServices TagSet                `json:"certifiedServices,omitempty"`
	SpecialSkills     TagSet                `json:"specialSkills,omitempty"`
	Languages         TagSet                `json:"languages,omitempty"`
	Availability      *WeeklySchedule       `json:"availability,omitempty"`
	ServiceArea       *GeoPoint             `json:"serviceArea,omitempty"`
	HourlyRate        float64               `json:"hourlyRate,omitempty"`
	Rating            *float64              `json:"rating,omitempty"`
	CompletedJobs     int                   `json:"completedJobs"`
	Status            ContractorStatus      `json:"status"`
	BackgroundCheck   BackgroundCheckStatus `json:"backgroundCheckStatus"`
	Insurance         InsuranceStatus       `json:"insuranceStatus"`
}

// EffectiveExperienceLevel falls back to DefaultExperienceLevel.
func (c *Contractor) EffectiveExperienceLevel() string {
	if c.ExperienceLevel == "" {
		return DefaultExperienceLevel
	}
	return c.ExperienceLevel
}

// IsCertifiedFor reports whether the contractor holds the service type.
func (c *Contractor) IsCertifiedFor(st ServiceType) bool {
	return c.CertifiedServices.Has(string(st))
}

// RatingOr returns the rating, or fallback when unrated.
func (c *Contractor) RatingOr(fallback float64) float64 {
	if c.Rating == nil {
		return fallback
	}
	return *c.Rating
}

func (c *Contractor) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

// ContractorQuery carries the structural gates a store can push down. Stores
// may over-return; callers re-check every gate.
type ContractorQuery struct {
	Status           ContractorStatus
	BackgroundCheck  BackgroundCheckStatus
	Insurance        InsuranceStatus
	Origin           *GeoPoint
	MaxDistanceMiles float64
}
