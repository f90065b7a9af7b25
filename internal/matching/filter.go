package matching

import (
	"context"
	"sort"
	"time"

	apperrors "contractor-matching/internal/common/errors"
	"contractor-matching/internal/common/logger"
	"contractor-matching/internal/models"
	"contractor-matching/internal/store"
)

// Rejection reasons reported by the filter.
const (
	rejectStatus          = "status"
	rejectBackgroundCheck = "background_check"
	rejectInsurance       = "insurance"
	rejectCertification   = "certification"
	rejectExperience      = "experience"
	rejectRating          = "rating"
	rejectCoordinates     = "bad_coordinates"
	rejectDistance        = "distance"
)

// EligibleContractor is a contractor that passed every hard gate.
type EligibleContractor struct {
	Contractor    *models.Contractor
	DistanceMiles float64
}

type FilterReport struct {
	Evaluated int            `json:"evaluated"`
	Eligible  int            `json:"eligible"`
	Rejected  map[string]int `json:"rejected,omitempty"`
}

// CandidateFilter applies the hard eligibility gates. It re-checks every
// gate the store was asked to push down.
type CandidateFilter struct {
	contractors store.ContractorStore
	timeout     time.Duration
	logger      logger.Logger
}

func NewCandidateFilter(contractors store.ContractorStore, timeout time.Duration, log logger.Logger) *CandidateFilter {
	return &CandidateFilter{
		contractors: contractors,
		timeout:     timeout,
		logger:      log.WithFields(map[string]interface{}{"component": "candidate-filter"}),
	}
}

// Eligible returns the surviving pool ordered by contractor id. A store
// failure fails the whole call; nothing is returned partially filtered.
func (f *CandidateFilter) Eligible(ctx context.Context, c Criteria) ([]EligibleContractor, FilterReport, error) {
	report := FilterReport{Rejected: map[string]int{}}

	qctx, cancel := withTimeout(ctx, f.timeout)
	defer cancel()

	pool, err := f.contractors.ListContractors(qctx, c.query())
	if err != nil {
		if ctx.Err() != nil {
			return nil, report, ctx.Err()
		}
		return nil, report, apperrors.NewUnavailableError("contractors", err)
	}

	out := make([]EligibleContractor, 0, len(pool))
	for _, contractor := range pool {
		if contractor == nil {
			continue
		}
		report.Evaluated++

		distance, reason := f.check(contractor, c)
		if reason != "" {
			report.Rejected[reason]++
			continue
		}
		out = append(out, EligibleContractor{Contractor: contractor, DistanceMiles: distance})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Contractor.ID < out[j].Contractor.ID
	})
	report.Eligible = len(out)
	return out, report, nil
}

// check returns the distance for a passing contractor, or the first failed
// gate.
func (f *CandidateFilter) check(contractor *models.Contractor, c Criteria) (float64, string) {
	switch {
	case contractor.Status != models.ContractorActive:
		return 0, rejectStatus
	case contractor.BackgroundCheck != models.BackgroundCheckApproved:
		return 0, rejectBackgroundCheck
	case contractor.Insurance != models.InsuranceActive:
		return 0, rejectInsurance
	case len(c.AnyCertifications) > 0 && !contractor.Certifications.HasAny(c.AnyCertifications...):
		return 0, rejectCertification
	case !contractor.Certifications.HasAll(c.AllCertifications...):
		return 0, rejectCertification
	case contractor.CompletedJobs < c.MinCompletedJobs:
		return 0, rejectExperience
	case contractor.RatingOr(0) < c.MinRating:
		return 0, rejectRating
	}

	if c.Origin == nil || contractor.ServiceArea == nil {
		return c.MaxDistanceMiles, ""
	}

	distance, err := DistanceMiles(*c.Origin, *contractor.ServiceArea)
	if err != nil {
		f.logger.Warn("excluding contractor with malformed coordinates", map[string]interface{}{
			"contractorId": contractor.ID,
			"error":        err.Error(),
		})
		return 0, rejectCoordinates
	}
	if distance > c.MaxDistanceMiles {
		return 0, rejectDistance
	}
	return distance, ""
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
