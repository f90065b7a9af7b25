package matching

import (
	"time"

	"contractor-matching/internal/models"
)

// AvailabilityResult is the availability score plus the rule that fired.
type AvailabilityResult struct {
	Score float64
	Tier  models.AvailabilityTier
}

// AvailabilityEvaluator scores a contractor's weekly schedule against a
// requested start and duration.
type AvailabilityEvaluator struct {
	tiers AvailabilityTiers
	loc   *time.Location
}

func NewAvailabilityEvaluator(tiers AvailabilityTiers, loc *time.Location) AvailabilityEvaluator {
	if loc == nil {
		loc = time.UTC
	}
	return AvailabilityEvaluator{tiers: tiers, loc: loc}
}

func (e AvailabilityEvaluator) Evaluate(schedule *models.WeeklySchedule, start time.Time, durationHours float64) AvailabilityResult {
	if schedule.IsEmpty() {
		return AvailabilityResult{Score: e.tiers.NoSchedule, Tier: models.AvailabilityUnknown}
	}

	local := start.In(e.loc)
	if schedule.IsBlackedOut(local) {
		return AvailabilityResult{Score: e.tiers.DayUnavailable, Tier: models.AvailabilityUnavailable}
	}

	window, ok := schedule.Window(local.Weekday())
	if !ok || !window.Available {
		return AvailabilityResult{Score: e.tiers.DayUnavailable, Tier: models.AvailabilityUnavailable}
	}

	if durationHours < 0 {
		durationHours = 0
	}
	begin := fractionalHour(local)
	end := begin + durationHours

	startInside := begin >= window.StartHour && begin <= window.EndHour
	endInside := end >= window.StartHour && end <= window.EndHour

	switch {
	case startInside && endInside:
		return AvailabilityResult{Score: e.tiers.FullCover, Tier: models.AvailabilityFull}
	case startInside || endInside:
		return AvailabilityResult{Score: e.tiers.Partial, Tier: models.AvailabilityPartial}
	default:
		return AvailabilityResult{Score: e.tiers.Poor, Tier: models.AvailabilityPoor}
	}
}

func fractionalHour(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
}
