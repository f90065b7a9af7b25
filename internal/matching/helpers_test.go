package matching

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"contractor-matching/internal/common/logger"
	"contractor-matching/internal/models"
	"contractor-matching/internal/store/memory"

	"github.com/stretchr/testify/require"
)

// 2024-03-04 is a Monday.
var testStart = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

var testOrigin = models.GeoPoint{Lat: 40.7128, Lng: -74.0060}

// pointAtMiles returns a point due north of testOrigin at the given
// great-circle distance.
func pointAtMiles(miles float64) *models.GeoPoint {
	deg := miles / (earthRadiusMeters * metersToMiles) * 180 / math.Pi
	return &models.GeoPoint{Lat: testOrigin.Lat + deg, Lng: testOrigin.Lng}
}

func rating(v float64) *float64 { return &v }

func businessHours() *models.WeeklySchedule {
	days := map[time.Weekday]models.DayWindow{}
	for d := time.Monday; d <= time.Friday; d++ {
		days[d] = models.DayWindow{Available: true, StartHour: 8, EndHour: 18}
	}
	return &models.WeeklySchedule{Days: days}
}

func eligibleContractor(id string, miles float64) *models.Contractor {
	return &models.Contractor{
		ID:                id,
		FirstName:         "Test",
		LastName:          id,
		Gender:            "female",
		CertifiedServices: models.NewTagSet(string(models.ServiceBirthDoula), string(models.ServicePostpartumDoula)),
		Certifications:    models.NewTagSet("CPR"),
		Languages:         models.NewTagSet("English"),
		Availability:      businessHours(),
		ServiceArea:       pointAtMiles(miles),
		HourlyRate:        30,
		Rating:            rating(4.0),
		CompletedJobs:     5,
		Status:            models.ContractorActive,
		BackgroundCheck:   models.BackgroundCheckApproved,
		Insurance:         models.InsuranceActive,
	}
}

func birthRequest(id string) *models.ServiceRequest {
	loc := testOrigin
	return &models.ServiceRequest{
		ID:             id,
		ClientID:       "client-1",
		ServiceType:    models.ServiceBirthDoula,
		Location:       &loc,
		PreferredStart: testStart,
		EstimatedHours: 4,
		Status:         models.RequestPending,
	}
}

func newTestEngine(t *testing.T, s *memory.Store, cfg EngineConfig) (*Engine, *captureRecorder) {
	t.Helper()
	scorer, err := NewScorer(DefaultPolicy())
	require.NoError(t, err)
	rec := &captureRecorder{}
	return NewEngine(s, s, scorer, rec, cfg, logger.NewTestLogger(t)), rec
}

type captureRecorder struct {
	mu     sync.Mutex
	events []models.AuditEvent
}

func (r *captureRecorder) Record(_ context.Context, e models.AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *captureRecorder) Events() []models.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.AuditEvent(nil), r.events...)
}
