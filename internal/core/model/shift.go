package model

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time in minutes after midnight.
type TimeOfDay int

// ParseTimeOfDay accepts "15:04" and "15:04:05" layouts.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay(t.Hour()*60 + t.Minute()), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", s)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// On places the time of day on the given calendar day in loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, int(t)/60, int(t)%60, 0, 0, loc)
}

type Shift struct {
	ID        string     `json:"id"`
	CompanyID string     `json:"companyId"`
	Name      string     `json:"name"`
	Start     *TimeOfDay `json:"start,omitempty"`
	End       *TimeOfDay `json:"end,omitempty"`
	// Weekdays is indexed by time.Weekday (Sunday = 0).
	Weekdays [7]bool `json:"weekdays"`
}

// ActiveOn reports whether the shift runs on the weekday of day.
func (s Shift) ActiveOn(day time.Time) bool {
	return s.Weekdays[day.Weekday()]
}

// Overnight reports whether the shift ends on the calendar day after it starts.
func (s Shift) Overnight() bool {
	return s.Start != nil && s.End != nil && *s.End <= *s.Start
}

// Window returns the shift boundaries for the given work day. Missing
// boundaries come back as zero times.
func (s Shift) Window(day time.Time, loc *time.Location) (start, end time.Time) {
	if s.Start != nil {
		start = s.Start.On(day, loc)
	}
	if s.End != nil {
		end = s.End.On(day, loc)
		if s.Overnight() {
			end = end.AddDate(0, 0, 1)
		}
	}
	return start, end
}
