package matching

import (
	"sort"

	"contractor-matching/internal/models"
)

// Criteria is the merged, per-run filter and scoring input.
type Criteria struct {
	ServiceType       models.ServiceType
	Origin            *models.GeoPoint
	MaxDistanceMiles  float64
	MinRating         float64
	AnyCertifications []string
	AllCertifications []string
	MinCompletedJobs  int
	MaxResults        int
	Requirements      models.TagSet
	Preferences       models.ClientPreferences
}

// criteriaFor derives the service gates and narrows them with overrides.
// A malformed request location is treated like a missing one.
func (p Policy) criteriaFor(req *models.ServiceRequest, o Overrides) Criteria {
	gate := p.ServiceGates[req.ServiceType]

	c := Criteria{
		ServiceType:       req.ServiceType,
		MaxDistanceMiles:  p.DefaultMaxDistance,
		AnyCertifications: append([]string(nil), gate.AnyCertifications...),
		MinCompletedJobs:  gate.MinCompletedJobs,
		MaxResults:        p.DefaultMaxResults,
		Requirements:      req.SpecialRequirements,
		Preferences:       mergePreferences(req.Preferences, o),
	}
	if req.Location != nil && req.Location.Validate() == nil {
		origin := *req.Location
		c.Origin = &origin
	}

	if o.MaxResults != nil {
		c.MaxResults = *o.MaxResults
	}
	if c.MaxResults > p.MaxResultsCap {
		c.MaxResults = p.MaxResultsCap
	}
	if o.MaxDistance != nil && *o.MaxDistance < c.MaxDistanceMiles {
		c.MaxDistanceMiles = *o.MaxDistance
	}
	if o.MinRating != nil && *o.MinRating > c.MinRating {
		c.MinRating = *o.MinRating
	}
	if len(o.RequiredCertifications) > 0 {
		all := models.NewTagSet(o.RequiredCertifications...)
		c.AllCertifications = all.Sorted()
	}
	sort.Strings(c.AnyCertifications)
	return c
}

func (c Criteria) query() models.ContractorQuery {
	return models.ContractorQuery{
		Status:           models.ContractorActive,
		BackgroundCheck:  models.BackgroundCheckApproved,
		Insurance:        models.InsuranceActive,
		Origin:           c.Origin,
		MaxDistanceMiles: c.MaxDistanceMiles,
	}
}

// SearchCriteria is the reportable part of Criteria, returned to callers
// with the matches.
type SearchCriteria struct {
	ServiceType            models.ServiceType `json:"serviceType"`
	MaxDistanceMiles       float64            `json:"maxDistance"`
	MinRating              float64            `json:"minRating"`
	MaxResults             int                `json:"maxResults"`
	AnyCertifications      []string           `json:"anyCertifications,omitempty"`
	RequiredCertifications []string           `json:"requiredCertifications,omitempty"`
	MinCompletedJobs       int                `json:"minCompletedJobs,omitempty"`
}

func (c Criteria) report() SearchCriteria {
	return SearchCriteria{
		ServiceType:            c.ServiceType,
		MaxDistanceMiles:       c.MaxDistanceMiles,
		MinRating:              c.MinRating,
		MaxResults:             c.MaxResults,
		AnyCertifications:      c.AnyCertifications,
		RequiredCertifications: c.AllCertifications,
		MinCompletedJobs:       c.MinCompletedJobs,
	}
}
