package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"contractor-matching/internal/common/audit"
	apperrors "contractor-matching/internal/common/errors"
	"contractor-matching/internal/common/logger"
	"contractor-matching/internal/models"
	"contractor-matching/internal/store"
	"contractor-matching/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateIDs(cs []models.MatchCandidate) []string {
	ids := make([]string, len(cs))
	for i, c := range cs {
		ids[i] = c.ContractorID
	}
	return ids
}

func TestFindMatches_RanksAndTruncates(t *testing.T) {
	s := memory.New()
	s.PutServiceRequest(birthRequest("sr-1"))
	for i := 8; i >= 1; i-- {
		s.PutContractor(eligibleContractor(fmt.Sprintf("c-%02d", i), float64(i)))
	}
	engine, _ := newTestEngine(t, s, DefaultEngineConfig())

	matches, err := engine.FindMatches(context.Background(), "sr-1", Overrides{})
	require.NoError(t, err)

	assert.Equal(t, []string{"c-01", "c-02", "c-03", "c-04", "c-05"}, candidateIDs(matches))
	for i, m := range matches {
		assert.Equal(t, "sr-1", m.ServiceRequestID)
		assert.NotEmpty(t, m.Reasons)
		assert.GreaterOrEqual(t, m.TotalScore, 0.0)
		assert.LessOrEqual(t, m.TotalScore, 1.0)
		assert.InDelta(t, m.Breakdown.Total(), m.TotalScore, 1e-12)
		if i > 0 {
			assert.GreaterOrEqual(t, matches[i-1].TotalScore, m.TotalScore)
		}
	}
}

func TestFindMatches_BirthDoulaScenario(t *testing.T) {
	s := memory.New()
	s.PutServiceRequest(birthRequest("sr-1"))
	c := eligibleContractor("c-1", 3)
	c.Certifications = models.NewTagSet("DONA_certified")
	c.Rating = rating(4.5)
	s.PutContractor(c)
	engine, _ := newTestEngine(t, s, DefaultEngineConfig())

	matches, err := engine.FindMatches(context.Background(), "sr-1", Overrides{})
	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.InDelta(t, 0.8, m.Breakdown.Expertise.Score, 1e-9)
	assert.Equal(t, 1.0, m.Breakdown.Availability.Score)
	assert.Equal(t, 1.0, m.Breakdown.Location.Score)
	assert.InDelta(t, 0.9, m.Breakdown.Performance.Score, 1e-9)
	assert.Equal(t, 1.0, m.Breakdown.Preference.Score)
	assert.InDelta(t, 0.915, m.TotalScore, 1e-9)
	assert.Equal(t, []string{
		"Excellent performance rating (4.5/5.0)",
		"Located very close to service area (3 miles)",
		"Available at requested time",
	}, m.Reasons)
	assert.Equal(t, models.CostEstimate{HourlyRate: 30, EstimatedHours: 4, BaseAmount: 120, Multiplier: 1.2, TotalEstimated: 144}, m.EstimatedCost)
}

func TestFindMatches_NoScheduleNoPreferences(t *testing.T) {
	s := memory.New()
	s.PutServiceRequest(birthRequest("sr-1"))
	c := eligibleContractor("c-1", 2)
	c.Availability = nil
	s.PutContractor(c)
	engine, _ := newTestEngine(t, s, DefaultEngineConfig())

	matches, err := engine.FindMatches(context.Background(), "sr-1", Overrides{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 0.5, matches[0].Breakdown.Availability.Score)
	assert.Equal(t, models.AvailabilityUnknown, matches[0].AvailabilityTier)
	assert.Equal(t, 1.0, matches[0].Breakdown.Preference.Score)
}

func TestFindMatches_HardGates(t *testing.T) {
	s := memory.New()
	s.PutServiceRequest(birthRequest("sr-1"))

	s.PutContractor(eligibleContractor("ok", 4))

	inactive := eligibleContractor("inactive", 4)
	inactive.Status = models.ContractorInactive
	s.PutContractor(inactive)

	unchecked := eligibleContractor("unchecked", 4)
	unchecked.BackgroundCheck = models.BackgroundCheckPending
	s.PutContractor(unchecked)

	uninsured := eligibleContractor("uninsured", 4)
	uninsured.Insurance = models.InsuranceExpired
	s.PutContractor(uninsured)

	s.PutContractor(eligibleContractor("far", 30))

	badCoords := eligibleContractor("bad-coords", 4)
	badCoords.ServiceArea = &models.GeoPoint{Lat: 200, Lng: 0}
	s.PutContractor(badCoords)

	noCoords := eligibleContractor("no-coords", 4)
	noCoords.ServiceArea = nil
	s.PutContractor(noCoords)

	novice := eligibleContractor("novice", 4)
	novice.CompletedJobs = 0
	s.PutContractor(novice)

	engine, _ := newTestEngine(t, s, DefaultEngineConfig())
	matches, err := engine.FindMatches(context.Background(), "sr-1", Overrides{})
	require.NoError(t, err)

	require.Equal(t, []string{"ok", "no-coords"}, candidateIDs(matches))
	assert.Equal(t, 25.0, matches[1].DistanceMiles)
	assert.Equal(t, 0.4, matches[1].Breakdown.Location.Score)
}

func TestFindMatches_LactationRequiresCredential(t *testing.T) {
	s := memory.New()
	req := birthRequest("sr-1")
	req.ServiceType = models.ServiceLactationSupport
	s.PutServiceRequest(req)

	credentialed := eligibleContractor("ibclc", 2)
	credentialed.CertifiedServices = models.NewTagSet(string(models.ServiceLactationSupport))
	credentialed.Certifications = models.NewTagSet("IBCLC")
	s.PutContractor(credentialed)

	plain := eligibleContractor("plain", 1)
	plain.CertifiedServices = models.NewTagSet(string(models.ServiceLactationSupport))
	s.PutContractor(plain)

	engine, _ := newTestEngine(t, s, DefaultEngineConfig())
	matches, err := engine.FindMatches(context.Background(), "sr-1", Overrides{})
	require.NoError(t, err)

	require.Equal(t, []string{"ibclc"}, candidateIDs(matches))
	assert.InDelta(t, 0.9, matches[0].Breakdown.Expertise.Score, 1e-9)
	assert.Equal(t, 1.3, matches[0].EstimatedCost.Multiplier)
}

func TestFindMatches_OverridesOnlyNarrow(t *testing.T) {
	s := memory.New()
	req := birthRequest("sr-1")
	req.Preferences = models.ClientPreferences{Gender: "male"}
	s.PutServiceRequest(req)

	near := eligibleContractor("near", 3)
	near.Rating = rating(4.8)
	near.Certifications = models.NewTagSet("CPR", "DONA_certified")
	s.PutContractor(near)
	s.PutContractor(eligibleContractor("mid", 8))
	s.PutContractor(eligibleContractor("edge", 20))
	unrated := eligibleContractor("unrated", 2)
	unrated.Rating = nil
	s.PutContractor(unrated)

	engine, _ := newTestEngine(t, s, DefaultEngineConfig())
	ctx := context.Background()

	tests := []struct {
		name      string
		overrides Overrides
		want      []string
	}{
		{"defaults", Overrides{}, []string{"near", "mid", "unrated", "edge"}},
		{"wider distance is ignored", Overrides{MaxDistance: floatPtr(100)}, []string{"near", "mid", "unrated", "edge"}},
		{"tighter distance applies", Overrides{MaxDistance: floatPtr(5)}, []string{"near", "unrated"}},
		{"rating floor excludes unrated", Overrides{MinRating: floatPtr(4.5)}, []string{"near"}},
		{"required certifications", Overrides{RequiredCertifications: []string{"DONA_certified", "CPR"}}, []string{"near"}},
		{"max results", Overrides{MaxResults: intPtr(2)}, []string{"near", "mid"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches, err := engine.FindMatches(ctx, "sr-1", tt.overrides)
			require.NoError(t, err)
			assert.Equal(t, tt.want, candidateIDs(matches))
		})
	}
}

func TestFindMatches_PreferenceOverride(t *testing.T) {
	s := memory.New()
	req := birthRequest("sr-1")
	req.Preferences = models.ClientPreferences{Gender: "male"}
	s.PutServiceRequest(req)
	s.PutContractor(eligibleContractor("c-1", 3))
	engine, _ := newTestEngine(t, s, DefaultEngineConfig())

	matches, err := engine.FindMatches(context.Background(), "sr-1", Overrides{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, matches[0].Breakdown.Preference.Score)

	matches, err = engine.FindMatches(context.Background(), "sr-1", Overrides{PreferredGender: "female"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, matches[0].Breakdown.Preference.Score)
}

func TestFindMatches_EmptyPool(t *testing.T) {
	s := memory.New()
	s.PutServiceRequest(birthRequest("sr-1"))
	engine, rec := newTestEngine(t, s, DefaultEngineConfig())

	matches, err := engine.FindMatches(context.Background(), "sr-1", Overrides{})
	require.NoError(t, err)
	assert.Empty(t, matches)
	require.Len(t, rec.Events(), 1)
	assert.Equal(t, 0, rec.Events()[0].Details["topMatchesReturned"])
}

func TestFindMatches_Errors(t *testing.T) {
	s := memory.New()
	s.PutServiceRequest(birthRequest("sr-1"))
	engine, rec := newTestEngine(t, s, DefaultEngineConfig())

	_, err := engine.FindMatches(context.Background(), "missing", Overrides{})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = engine.FindMatches(context.Background(), "", Overrides{})
	assert.True(t, apperrors.IsValidation(err))

	_, err = engine.FindMatches(context.Background(), "sr-1", Overrides{MaxResults: intPtr(50)})
	assert.True(t, apperrors.IsValidation(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = engine.FindMatches(ctx, "sr-1", Overrides{})
	assert.ErrorIs(t, err, context.Canceled)

	assert.Empty(t, rec.Events())
}

type failingContractors struct {
	err error
}

func (f failingContractors) ListContractors(context.Context, models.ContractorQuery) ([]*models.Contractor, error) {
	return nil, f.err
}

func (f failingContractors) GetContractor(context.Context, string) (*models.Contractor, error) {
	return nil, f.err
}

type slowContractors struct{}

func (slowContractors) ListContractors(ctx context.Context, _ models.ContractorQuery) ([]*models.Contractor, error) {
	<-ctx.Done()
	return nil, fmt.Errorf("list contractors: %w", ctx.Err())
}

func (slowContractors) GetContractor(ctx context.Context, _ string) (*models.Contractor, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type failingRequests struct{}

func (failingRequests) GetServiceRequest(context.Context, string) (*models.ServiceRequest, error) {
	return nil, fmt.Errorf("dial tcp 10.0.0.5:5432: connection refused")
}

func TestFindMatches_StoreFailuresFailClosed(t *testing.T) {
	s := memory.New()
	s.PutServiceRequest(birthRequest("sr-1"))
	scorer, err := NewScorer(DefaultPolicy())
	require.NoError(t, err)
	log := logger.NewTestLogger(t)

	tests := []struct {
		name        string
		requests    store.RequestStore
		contractors store.ContractorStore
		wantCode    apperrors.ErrorCode
	}{
		{"contractor store down", s, failingContractors{err: fmt.Errorf("connection reset by peer")}, apperrors.ErrCodeStoreUnavailable},
		{"contractor store timeout", s, slowContractors{}, apperrors.ErrCodeStoreTimeout},
		{"request store down", failingRequests{}, s, apperrors.ErrCodeStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultEngineConfig()
			cfg.StoreTimeout = 20 * time.Millisecond
			engine := NewEngine(tt.requests, tt.contractors, scorer, audit.NopRecorder{}, cfg, log)

			matches, err := engine.FindMatches(context.Background(), "sr-1", Overrides{})
			require.Error(t, err)
			assert.Nil(t, matches)
			assert.True(t, apperrors.IsUnavailable(err))
			stdErr, ok := apperrors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, stdErr.Code)
		})
	}
}

func TestFindMatches_Idempotent(t *testing.T) {
	s := memory.New()
	s.PutServiceRequest(birthRequest("sr-1"))
	for i := 0; i < 12; i++ {
		c := eligibleContractor(fmt.Sprintf("c-%02d", i), float64(i%6)*4+1)
		c.Rating = rating(3 + float64(i%3)*0.5)
		s.PutContractor(c)
	}
	engine, _ := newTestEngine(t, s, DefaultEngineConfig())

	first, err := engine.FindMatches(context.Background(), "sr-1", Overrides{MaxResults: intPtr(10)})
	require.NoError(t, err)
	second, err := engine.FindMatches(context.Background(), "sr-1", Overrides{MaxResults: intPtr(10)})
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestFindMatches_ParallelMatchesSequential(t *testing.T) {
	s := memory.New()
	s.PutServiceRequest(birthRequest("sr-1"))
	for i := 0; i < 200; i++ {
		c := eligibleContractor(fmt.Sprintf("c-%03d", i), float64(i%25)+0.5)
		c.Rating = rating(float64(i%11) * 0.5)
		if i%7 == 0 {
			c.Availability = nil
		}
		s.PutContractor(c)
	}

	seqCfg := DefaultEngineConfig()
	seqCfg.ParallelThreshold = 1 << 20
	parCfg := DefaultEngineConfig()
	parCfg.ParallelThreshold = 1
	parCfg.Concurrency = 8

	seq, _ := newTestEngine(t, s, seqCfg)
	par, _ := newTestEngine(t, s, parCfg)

	want, err := seq.FindMatches(context.Background(), "sr-1", Overrides{MaxResults: intPtr(20)})
	require.NoError(t, err)
	got, err := par.FindMatches(context.Background(), "sr-1", Overrides{MaxResults: intPtr(20)})
	require.NoError(t, err)

	assert.Len(t, got, 20)
	assert.Equal(t, want, got)
}

func TestFindMatches_AuditEvent(t *testing.T) {
	s := memory.New()
	s.PutServiceRequest(birthRequest("sr-1"))
	s.PutContractor(eligibleContractor("c-1", 2))
	s.PutContractor(eligibleContractor("c-2", 40))
	engine, rec := newTestEngine(t, s, DefaultEngineConfig())

	ctx := audit.WithActor(context.Background(), "emp-3")
	_, err := engine.FindMatches(ctx, "sr-1", Overrides{})
	require.NoError(t, err)

	events := rec.Events()
	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, models.AuditMatchingPerformed, e.Action)
	assert.Equal(t, "sr-1", e.EntityID)
	assert.Equal(t, "emp-3", e.ActorID)
	assert.Equal(t, 2, e.Details["totalContractorsEvaluated"])
	assert.Equal(t, 1, e.Details["topMatchesReturned"])
	assert.Equal(t, "birth_doula", e.Details["serviceType"])
}

func TestMatch_ReportsAppliedCriteria(t *testing.T) {
	s := memory.New()
	lactation := birthRequest("sr-lact")
	lactation.ServiceType = models.ServiceLactationSupport
	s.PutServiceRequest(lactation)
	newborn := birthRequest("sr-newborn")
	newborn.ServiceType = models.ServiceNewbornSpecialist
	s.PutServiceRequest(newborn)
	e, _ := newTestEngine(t, s, DefaultEngineConfig())
	ctx := context.Background()

	res, err := e.Match(ctx, "sr-lact", Overrides{})
	require.NoError(t, err)
	assert.Equal(t, SearchCriteria{
		ServiceType:       models.ServiceLactationSupport,
		MaxDistanceMiles:  25,
		MaxResults:        5,
		AnyCertifications: []string{"IBCLC", "lactation_consultant"},
	}, res.Criteria)

	res, err = e.Match(ctx, "sr-newborn", Overrides{
		MaxResults:             intPtr(3),
		MaxDistance:            floatPtr(40),
		MinRating:              floatPtr(4.2),
		RequiredCertifications: []string{"IBCLC", "CPR", "IBCLC"},
	})
	require.NoError(t, err)
	got := res.Criteria
	assert.Equal(t, models.ServiceNewbornSpecialist, got.ServiceType)
	assert.Equal(t, 25.0, got.MaxDistanceMiles, "distance can only narrow")
	assert.Equal(t, 4.2, got.MinRating)
	assert.Equal(t, 3, got.MaxResults)
	assert.Equal(t, []string{"CPR", "IBCLC"}, got.RequiredCertifications)
	assert.Equal(t, []string{"NCS_certified", "newborn_care_specialist"}, got.AnyCertifications)
	assert.Equal(t, 2, got.MinCompletedJobs)

	_, err = e.Match(ctx, "missing", Overrides{})
	assert.True(t, apperrors.IsNotFound(err))
}
