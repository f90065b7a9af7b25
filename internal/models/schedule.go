package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// DayWindow is the working window for one weekday, in fractional hours
// since local midnight.
type DayWindow struct {
	Available bool    `json:"available"`
	StartHour float64 `json:"startTime"`
	EndHour   float64 `json:"endTime"`
}

// WeeklySchedule is a contractor's recurring availability plus one-off
// blackout dates.
type WeeklySchedule struct {
	Days          map[time.Weekday]DayWindow
	BlackoutDates []string
}

// IsEmpty is true when no weekday has been declared at all.
func (s *WeeklySchedule) IsEmpty() bool {
	return s == nil || len(s.Days) == 0
}

func (s *WeeklySchedule) Window(day time.Weekday) (DayWindow, bool) {
	if s == nil {
		return DayWindow{}, false
	}
	w, ok := s.Days[day]
	return w, ok
}

// IsBlackedOut compares the calendar date of t in its own location.
func (s *WeeklySchedule) IsBlackedOut(t time.Time) bool {
	if s == nil {
		return false
	}
	date := t.Format(DateLayout)
	for _, d := range s.BlackoutDates {
		if strings.TrimSpace(d) == date {
			return true
		}
	}
	return false
}

// ParseWeekday accepts full English weekday names in any case.
func ParseWeekday(name string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), strings.TrimSpace(name)) {
			return d, true
		}
	}
	return 0, false
}

type scheduleJSON struct {
	Schedule      map[string]DayWindow `json:"schedule,omitempty"`
	BlackoutDates []string             `json:"blackoutDates,omitempty"`
}

// MarshalJSON writes weekdays as lowercase names: {"schedule":{"monday":{...}}}.
func (s WeeklySchedule) MarshalJSON() ([]byte, error) {
	out := scheduleJSON{BlackoutDates: s.BlackoutDates}
	if len(s.Days) > 0 {
		out.Schedule = make(map[string]DayWindow, len(s.Days))
		for day, w := range s.Days {
			out.Schedule[strings.ToLower(day.String())] = w
		}
	}
	return json.Marshal(out)
}

func (s *WeeklySchedule) UnmarshalJSON(data []byte) error {
	var in scheduleJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	days := make(map[time.Weekday]DayWindow, len(in.Schedule))
	for name, w := range in.Schedule {
		day, ok := ParseWeekday(name)
		if !ok {
			return fmt.Errorf("unknown weekday %q in schedule", name)
		}
		days[day] = w
	}
	for _, d := range in.BlackoutDates {
		if _, err := time.Parse(DateLayout, strings.TrimSpace(d)); err != nil {
			return fmt.Errorf("invalid blackout date %q: %w", d, err)
		}
	}
	s.Days = days
	s.BlackoutDates = in.BlackoutDates
	return nil
}
