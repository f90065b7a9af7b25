package matching

import (
	"testing"
	"time"

	"contractor-matching/internal/models"

	"github.com/stretchr/testify/assert"
)

func weekdaySchedule(start, end float64) *models.WeeklySchedule {
	days := map[time.Weekday]models.DayWindow{}
	for d := time.Monday; d <= time.Friday; d++ {
		days[d] = models.DayWindow{Available: true, StartHour: start, EndHour: end}
	}
	days[time.Saturday] = models.DayWindow{Available: false}
	return &models.WeeklySchedule{Days: days}
}

func TestAvailabilityEvaluator_Evaluate(t *testing.T) {
	e := NewAvailabilityEvaluator(DefaultPolicy().Availability, time.UTC)
	// 2024-03-04 is a Monday.
	monday := func(hour, min int) time.Time { return time.Date(2024, 3, 4, hour, min, 0, 0, time.UTC) }

	tests := []struct {
		name     string
		schedule *models.WeeklySchedule
		start    time.Time
		hours    float64
		want     float64
		tier     models.AvailabilityTier
	}{
		{"no schedule", nil, monday(10, 0), 4, 0.5, models.AvailabilityUnknown},
		{"empty schedule", &models.WeeklySchedule{}, monday(10, 0), 4, 0.5, models.AvailabilityUnknown},
		{"fully inside", weekdaySchedule(9, 17), monday(10, 0), 4, 1.0, models.AvailabilityFull},
		{"ends exactly at close", weekdaySchedule(9, 17), monday(13, 0), 4, 1.0, models.AvailabilityFull},
		{"starts inside ends after", weekdaySchedule(9, 17), monday(15, 0), 4, 0.7, models.AvailabilityPartial},
		{"starts before ends inside", weekdaySchedule(9, 17), monday(7, 30), 2, 0.7, models.AvailabilityPartial},
		{"spans whole window", weekdaySchedule(9, 17), monday(8, 0), 10, 0.3, models.AvailabilityPoor},
		{"entirely outside", weekdaySchedule(9, 17), monday(18, 0), 2, 0.3, models.AvailabilityPoor},
		{"day not available", weekdaySchedule(9, 17), time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC), 2, 0.1, models.AvailabilityUnavailable},
		{"day missing", weekdaySchedule(9, 17), time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC), 2, 0.1, models.AvailabilityUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Evaluate(tt.schedule, tt.start, tt.hours)
			assert.Equal(t, tt.want, got.Score)
			assert.Equal(t, tt.tier, got.Tier)
		})
	}
}

func TestAvailabilityEvaluator_Blackout(t *testing.T) {
	e := NewAvailabilityEvaluator(DefaultPolicy().Availability, time.UTC)
	s := weekdaySchedule(9, 17)
	s.BlackoutDates = []string{"2024-03-04"}

	got := e.Evaluate(s, time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC), 2)
	assert.Equal(t, 0.1, got.Score)
}

func TestAvailabilityEvaluator_ScheduleTimezone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	e := NewAvailabilityEvaluator(DefaultPolicy().Availability, ny)

	// 15:00 UTC on 2024-03-04 is 10:00 in New York (EST).
	got := e.Evaluate(weekdaySchedule(9, 12), time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC), 1)
	assert.Equal(t, 1.0, got.Score)
}
