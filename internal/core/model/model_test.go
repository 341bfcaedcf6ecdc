package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestCalendarDayUsesOwnLocation(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	late := time.Date(2025, 1, 6, 23, 59, 0, 0, jakarta)

	assert.Equal(t, day(t, "2025-01-06"), CalendarDay(late))
	assert.Equal(t, day(t, "2025-01-06"), CalendarDay(late.UTC()))
	assert.Equal(t, day(t, "2025-01-07"), CalendarDay(late.Add(2*time.Minute)))
}

func TestDaysInRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		want       int
	}{
		{name: "single day", start: "2025-01-10", end: "2025-01-10", want: 1},
		{name: "three days", start: "2025-01-10", end: "2025-01-12", want: 3},
		{name: "whole month", start: "2025-01-01", end: "2025-01-31", want: 31},
		{name: "across leap day", start: "2024-02-28", end: "2024-03-01", want: 3},
		{name: "reversed", start: "2025-01-12", end: "2025-01-10", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days := DaysInRange(day(t, tt.start), day(t, tt.end))
			require.Len(t, days, tt.want)
			if tt.want > 0 {
				assert.Equal(t, day(t, tt.start), days[0])
				assert.Equal(t, day(t, tt.end), days[len(days)-1])
			}
		})
	}
}

func TestLeaveTypeAttendanceStatus(t *testing.T) {
	s, err := LeaveTypeLeave.AttendanceStatus()
	require.NoError(t, err)
	assert.Equal(t, StatusLeave, s)

	s, err = LeaveTypeWFH.AttendanceStatus()
	require.NoError(t, err)
	assert.Equal(t, StatusWFH, s)

	_, err = LeaveType("SICK").AttendanceStatus()
	assert.Error(t, err)
}

func TestLeaveRequestOverlaps(t *testing.T) {
	req := LeaveRequest{StartDate: day(t, "2025-01-10"), EndDate: day(t, "2025-01-14"), Status: LeavePending}

	tests := []struct {
		start, end string
		want       bool
	}{
		{"2025-01-12", "2025-01-16", true},
		{"2025-01-14", "2025-01-14", true},
		{"2025-01-01", "2025-01-31", true},
		{"2025-01-15", "2025-01-16", false},
		{"2025-01-05", "2025-01-09", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, req.Overlaps(day(t, tt.start), day(t, tt.end)), "%s..%s", tt.start, tt.end)
	}

	assert.True(t, req.Blocking())
	req.Status = LeaveApproved
	assert.True(t, req.Blocking())
	req.Status = LeaveRejected
	assert.False(t, req.Blocking())
}

func TestCompanyLocation(t *testing.T) {
	loc, err := Company{}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = Company{TimeZone: "Mars/Olympus"}.Location()
	assert.Error(t, err)
}
