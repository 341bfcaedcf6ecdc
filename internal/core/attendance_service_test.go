package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"attendance.service/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckInStatusFromShift(t *testing.T) {
	tests := []struct {
		name   string
		hh, mm int
		want   model.AttendanceStatus
	}{
		{name: "late at 08:05", hh: 8, mm: 5, want: model.StatusLate},
		{name: "present at 07:55", hh: 7, mm: 55, want: model.StatusPresent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, everyDay(t, "08:00", "17:00"))
			f.at(date(t, "2025-01-06"), tt.hh, tt.mm)

			res, err := f.attendance.CheckIn(context.Background(), f.employee, north(5))
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Record.Status)
			assert.Equal(t, model.SourceCheckIn, res.Record.Source)
			assert.Equal(t, date(t, "2025-01-06"), res.Record.WorkDate)
			assert.Equal(t, 5.0, res.Geofence.DistanceM)

			stored := f.store.Records(employeeID)
			require.Len(t, stored, 1)
			assert.Equal(t, tt.want, stored[0].Status)
			require.NotNil(t, stored[0].CheckInAt)
			assert.True(t, stored[0].CheckInAt.Equal(f.now))
		})
	}
}

func TestCheckInOutOfRange(t *testing.T) {
	f := newFixture(t, everyDay(t, "08:00", "17:00"))
	f.at(date(t, "2025-01-06"), 7, 0)

	_, err := f.attendance.CheckIn(context.Background(), f.employee, north(50))

	var oor *OutOfRangeError
	require.True(t, errors.As(err, &oor))
	assert.Equal(t, 50.0, oor.Distance)
	assert.Equal(t, 30.0, oor.Radius)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Empty(t, f.store.Records(employeeID))
}

func TestCheckInWithoutShiftIsPresent(t *testing.T) {
	f := newFixture(t, nil)
	f.at(date(t, "2025-01-06"), 23, 30)

	res, err := f.attendance.CheckIn(context.Background(), f.employee, north(30))
	require.NoError(t, err)
	assert.Equal(t, model.StatusPresent, res.Record.Status)
}

func TestCheckInTwiceSameDay(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.attendance.CheckIn(ctx, f.employee, office)
	require.NoError(t, err)

	f.now = f.now.Add(2 * time.Hour)
	_, err = f.attendance.CheckIn(ctx, f.employee, office)
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
	assert.Len(t, f.store.Records(employeeID), 1)
}

func TestConcurrentCheckInsCreateOneRecord(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	const attempts = 50
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.attendance.CheckIn(ctx, f.employee, office)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrAlreadyCheckedIn):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)
	assert.Len(t, f.store.Records(employeeID), 1)
}

func TestCheckInDayBoundaryFollowsCompanyZone(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	// 23:59 and 00:01 in Jakarta are 16:59 and 17:01 UTC on the same UTC day.
	f.at(date(t, "2025-01-06"), 23, 59)
	first, err := f.attendance.CheckIn(ctx, f.employee, office)
	require.NoError(t, err)

	f.at(date(t, "2025-01-07"), 0, 1)
	second, err := f.attendance.CheckIn(ctx, f.employee, office)
	require.NoError(t, err)

	assert.Equal(t, date(t, "2025-01-06"), first.Record.WorkDate)
	assert.Equal(t, date(t, "2025-01-07"), second.Record.WorkDate)
	assert.Equal(t, first.Record.CheckInAt.UTC().YearDay(), second.Record.CheckInAt.UTC().YearDay())
	assert.Len(t, f.store.Records(employeeID), 2)
}

func TestCheckInOnLeaveDay(t *testing.T) {
	for _, status := range []model.AttendanceStatus{model.StatusLeave, model.StatusWFH} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t, nil)
			f.store.PutRecord(model.AttendanceRecord{
				ID: "leave-day", EmployeeID: employeeID, WorkDate: date(t, "2025-01-06"),
				Status: status, Source: model.SourceLeave,
			})

			_, err := f.attendance.CheckIn(context.Background(), f.employee, office)
			assert.ErrorIs(t, err, ErrOnLeave)
		})
	}
}

func TestCheckInClaimsCorrectedDay(t *testing.T) {
	f := newFixture(t, everyDay(t, "08:00", "17:00"))
	f.at(date(t, "2025-01-06"), 9, 0)
	f.store.PutRecord(model.AttendanceRecord{
		ID: "absent-day", EmployeeID: employeeID, WorkDate: date(t, "2025-01-06"),
		Status: model.StatusAbsent, Source: model.SourceCorrection,
	})

	res, err := f.attendance.CheckIn(context.Background(), f.employee, office)
	require.NoError(t, err)
	assert.Equal(t, "absent-day", res.Record.ID)
	assert.Equal(t, model.StatusLate, res.Record.Status)

	stored := f.store.Records(employeeID)
	require.Len(t, stored, 1)
	assert.Equal(t, model.SourceCheckIn, stored[0].Source)
	assert.True(t, stored[0].CheckedIn())
}

func TestCheckInRejectsIneligibleSubject(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
		actor func(f *fixture) Actor
		coord *model.Coordinate
		want  error
	}{
		{
			name: "inactive employee",
			setup: func(f *fixture) {
				f.store.PutEmployee(model.Employee{ID: employeeID, CompanyID: companyID, Role: model.RoleEmployee, Status: model.EmployeeInactive})
			},
			want: ErrValidation,
		},
		{
			name: "suspended company",
			setup: func(f *fixture) {
				f.store.PutCompany(model.Company{ID: companyID, Geofence: model.Geofence{Center: office, RadiusM: 30}, Suspended: true})
			},
			want: ErrValidation,
		},
		{
			name: "unknown employee",
			actor: func(f *fixture) Actor {
				return Actor{EmployeeID: "ghost", CompanyID: companyID, Role: model.RoleEmployee}
			},
			want: ErrNotFound,
		},
		{
			name: "token for another company",
			actor: func(f *fixture) Actor {
				return Actor{EmployeeID: employeeID, CompanyID: otherCompanyID, Role: model.RoleEmployee}
			},
			want: ErrForbidden,
		},
		{
			name:  "latitude out of range",
			coord: &model.Coordinate{Lat: 91, Lon: 0},
			want:  ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			if tt.setup != nil {
				tt.setup(f)
			}
			actor := f.employee
			if tt.actor != nil {
				actor = tt.actor(f)
			}
			coord := office
			if tt.coord != nil {
				coord = *tt.coord
			}

			_, err := f.attendance.CheckIn(context.Background(), actor, coord)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, f.store.Records(employeeID))
		})
	}
}

func TestCheckOutFlow(t *testing.T) {
	f := newFixture(t, everyDay(t, "08:00", "17:00"))
	ctx := context.Background()
	day := date(t, "2025-01-06")

	f.at(day, 7, 50)
	_, err := f.attendance.CheckOut(ctx, f.employee, office)
	assert.ErrorIs(t, err, ErrNoCheckInYet)

	_, err = f.attendance.CheckIn(ctx, f.employee, office)
	require.NoError(t, err)

	f.at(day, 16, 0)
	_, err = f.attendance.CheckOut(ctx, f.employee, office)
	assert.ErrorIs(t, err, ErrTooEarly)

	f.at(day, 17, 30)
	_, err = f.attendance.CheckOut(ctx, f.employee, north(100))
	assert.ErrorIs(t, err, ErrOutOfRange)

	res, err := f.attendance.CheckOut(ctx, f.employee, office)
	require.NoError(t, err)
	require.NotNil(t, res.Record.CheckOutAt)
	assert.True(t, res.Record.CheckOutAt.Equal(f.now))

	_, err = f.attendance.CheckOut(ctx, f.employee, office)
	assert.ErrorIs(t, err, ErrAlreadyCheckedOut)

	actions := []string{}
	for _, a := range f.store.Activity(employeeID) {
		actions = append(actions, a.Action)
	}
	assert.Equal(t, []string{"CHECK_IN", "CHECK_OUT"}, actions)
}

func TestCheckOutWithoutShiftEnd(t *testing.T) {
	f := newFixture(t, everyDay(t, "08:00", ""))
	ctx := context.Background()
	f.at(date(t, "2025-01-06"), 8, 0)

	_, err := f.attendance.CheckIn(ctx, f.employee, office)
	require.NoError(t, err)

	f.at(date(t, "2025-01-06"), 20, 0)
	_, err = f.attendance.CheckOut(ctx, f.employee, office)
	assert.ErrorIs(t, err, ErrShiftNotConfigured)
}

func TestCheckOutGeofenceCanBeDisabled(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.attendance.geofenceOnCheckout = false

	_, err := f.attendance.CheckIn(ctx, f.employee, office)
	require.NoError(t, err)

	res, err := f.attendance.CheckOut(ctx, f.employee, north(5000))
	require.NoError(t, err)
	assert.Nil(t, res.Geofence)
}

func TestCheckOutOvernightShiftClosesYesterday(t *testing.T) {
	f := newFixture(t, everyDay(t, "22:00", "06:00"))
	ctx := context.Background()

	f.at(date(t, "2025-01-06"), 22, 10)
	in, err := f.attendance.CheckIn(ctx, f.employee, office)
	require.NoError(t, err)
	assert.Equal(t, model.StatusLate, in.Record.Status)

	f.at(date(t, "2025-01-07"), 5, 0)
	_, err = f.attendance.CheckOut(ctx, f.employee, office)
	assert.ErrorIs(t, err, ErrTooEarly)

	f.at(date(t, "2025-01-07"), 6, 15)
	out, err := f.attendance.CheckOut(ctx, f.employee, office)
	require.NoError(t, err)
	assert.Equal(t, date(t, "2025-01-06"), out.Record.WorkDate)
	assert.Len(t, f.store.Records(employeeID), 1)
}

func TestCheckInAfterMidnightOnOvernightShift(t *testing.T) {
	f := newFixture(t, everyDay(t, "22:00", "06:00"))
	ctx := context.Background()

	f.at(date(t, "2025-01-07"), 0, 30)
	in, err := f.attendance.CheckIn(ctx, f.employee, office)
	require.NoError(t, err)
	assert.Equal(t, date(t, "2025-01-06"), in.Record.WorkDate)
	assert.Equal(t, model.StatusLate, in.Record.Status)

	f.at(date(t, "2025-01-07"), 6, 15)
	out, err := f.attendance.CheckOut(ctx, f.employee, office)
	require.NoError(t, err)
	assert.Equal(t, date(t, "2025-01-06"), out.Record.WorkDate)

	// The evening shift of the same calendar day is a new work day.
	f.at(date(t, "2025-01-07"), 21, 55)
	next, err := f.attendance.CheckIn(ctx, f.employee, office)
	require.NoError(t, err)
	assert.Equal(t, date(t, "2025-01-07"), next.Record.WorkDate)
	assert.Equal(t, model.StatusPresent, next.Record.Status)
	assert.Len(t, f.store.Records(employeeID), 2)
}

func TestCheckLocation(t *testing.T) {
	f := newFixture(t, nil)

	check, err := f.attendance.CheckLocation(context.Background(), f.employee, north(50))
	require.NoError(t, err)
	assert.False(t, check.Within)
	assert.Equal(t, 50.0, check.DistanceM)
	assert.Empty(t, f.store.Records(employeeID))
}

func TestMonthly(t *testing.T) {
	f := newFixture(t, nil)
	for _, d := range []string{"2025-01-20", "2025-01-03", "2025-02-01", "2024-12-31"} {
		f.store.PutRecord(model.AttendanceRecord{
			ID: "r-" + d, EmployeeID: employeeID, WorkDate: date(t, d), Status: model.StatusPresent, Source: model.SourceCheckIn,
		})
	}

	recs, err := f.attendance.Monthly(context.Background(), f.employee, 2025, 1)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, date(t, "2025-01-03"), recs[0].WorkDate)
	assert.Equal(t, date(t, "2025-01-20"), recs[1].WorkDate)

	empty, err := f.attendance.Monthly(context.Background(), f.employee, 2025, 3)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = f.attendance.Monthly(context.Background(), f.employee, 2025, 13)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCorrect(t *testing.T) {
	ctx := context.Background()

	t.Run("admin overrides status and keeps check-in", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.attendance.CheckIn(ctx, f.employee, office)
		require.NoError(t, err)

		note := "forgot badge"
		rec, err := f.attendance.Correct(ctx, f.admin, employeeID, date(t, "2025-01-06"), model.StatusAbsent, &note)
		require.NoError(t, err)
		assert.Equal(t, model.StatusAbsent, rec.Status)
		assert.Equal(t, model.SourceCorrection, rec.Source)
		assert.True(t, rec.CheckedIn())
		assert.Equal(t, "forgot badge", *rec.Note)
	})

	t.Run("creates a missing day", func(t *testing.T) {
		f := newFixture(t, nil)
		rec, err := f.attendance.Correct(ctx, f.admin, employeeID, date(t, "2025-01-02"), model.StatusPresent, nil)
		require.NoError(t, err)
		assert.Equal(t, date(t, "2025-01-02"), rec.WorkDate)
		assert.False(t, rec.CheckedIn())
	})

	t.Run("rejections", func(t *testing.T) {
		f := newFixture(t, nil)
		other := Actor{EmployeeID: otherAdminID, CompanyID: otherCompanyID, Role: model.RoleAdmin}

		_, err := f.attendance.Correct(ctx, f.employee, employeeID, date(t, "2025-01-02"), model.StatusPresent, nil)
		assert.ErrorIs(t, err, ErrForbidden)

		_, err = f.attendance.Correct(ctx, other, employeeID, date(t, "2025-01-02"), model.StatusPresent, nil)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = f.attendance.Correct(ctx, f.admin, employeeID, date(t, "2025-01-02"), "HOLIDAY", nil)
		assert.ErrorIs(t, err, ErrValidation)
	})
}
