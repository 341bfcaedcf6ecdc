package core

import (
	"time"

	"attendance.service/internal/core/model"
)

// ShiftClock decides the timing part of a check-in or check-out. Times are
// evaluated in the company's location.
type ShiftClock struct {
	Shift *model.Shift
	Loc   *time.Location
}

// WorkDay returns the day a check-in at now belongs to. Until an overnight
// shift that started yesterday has ended, the clock still counts as yesterday.
func (c ShiftClock) WorkDay(now time.Time) time.Time {
	day := model.CalendarDay(now.In(c.Loc))
	if !c.Overnight() {
		return day
	}
	prev := day.AddDate(0, 0, -1)
	if !c.Shift.ActiveOn(prev) {
		return day
	}
	if _, end := c.Shift.Window(prev, c.Loc); now.Before(end) {
		return prev
	}
	return day
}

// CheckInStatus returns LATE when now is after the shift start on day.
func (c ShiftClock) CheckInStatus(day, now time.Time) model.AttendanceStatus {
	if c.Shift == nil || c.Shift.Start == nil || !c.Shift.ActiveOn(day) {
		return model.StatusPresent
	}
	start, _ := c.Shift.Window(day, c.Loc)
	if now.After(start) {
		return model.StatusLate
	}
	return model.StatusPresent
}

// CheckOutAllowed gates check-out for the record of day.
func (c ShiftClock) CheckOutAllowed(day, now time.Time) error {
	if c.Shift == nil {
		return nil
	}
	if c.Shift.End == nil {
		return ErrShiftNotConfigured
	}
	if !c.Shift.ActiveOn(day) {
		return nil
	}
	_, end := c.Shift.Window(day, c.Loc)
	if now.Before(end) {
		return &Error{kind: KindTooEarly, msg: "shift ends at " + end.Format("15:04") + ", check-out is not allowed yet"}
	}
	return nil
}

// Overnight reports whether a check-out may belong to the previous day's record.
func (c ShiftClock) Overnight() bool {
	return c.Shift != nil && c.Shift.Overnight()
}
