package core

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository/memory"
	"github.com/stretchr/testify/require"
)

const (
	companyID      = "company-1"
	otherCompanyID = "company-2"
	employeeID     = "employee-1"
	adminID        = "admin-1"
	otherAdminID   = "admin-2"
)

var office = model.Coordinate{Lat: -6.2, Lon: 106.816666}

// north returns a coordinate m meters due north of the office.
func north(m float64) model.Coordinate {
	return model.Coordinate{Lat: office.Lat + m/earthRadiusM*180/math.Pi, Lon: office.Lon}
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func tod(t *testing.T, s string) *model.TimeOfDay {
	t.Helper()
	v, err := model.ParseTimeOfDay(s)
	require.NoError(t, err)
	return &v
}

// everyDay builds a shift active on all seven weekdays.
func everyDay(t *testing.T, start, end string) *model.Shift {
	sh := &model.Shift{ID: "shift-1", Name: "test", Weekdays: [7]bool{true, true, true, true, true, true, true}}
	if start != "" {
		sh.Start = tod(t, start)
	}
	if end != "" {
		sh.End = tod(t, end)
	}
	return sh
}

type capturePublisher struct {
	mu     sync.Mutex
	events []messaging.LeaveDecidedEvent
	err    error
}

func (p *capturePublisher) PublishLeaveDecided(_ context.Context, e messaging.LeaveDecidedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

type fixture struct {
	store     *memory.Store
	loc       *time.Location
	now       time.Time
	publisher *capturePublisher

	attendance *AttendanceService
	leave      *LeaveService
	company    *CompanyService

	employee Actor
	admin    Actor
}

// newFixture seeds one company in Asia/Jakarta with a 30 m geofence, an
// admin and an employee on the given shift. The clock starts on Monday
// 2025-01-06 12:00 local.
func newFixture(t *testing.T, shift *model.Shift) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	f := &fixture{
		store:     memory.NewStore(),
		loc:       loc,
		now:       time.Date(2025, 1, 6, 12, 0, 0, 0, loc),
		publisher: &capturePublisher{},
		employee:  Actor{EmployeeID: employeeID, CompanyID: companyID, Role: model.RoleEmployee},
		admin:     Actor{EmployeeID: adminID, CompanyID: companyID, Role: model.RoleAdmin},
	}

	f.store.PutCompany(model.Company{
		ID:       companyID,
		Name:     "Acme",
		Geofence: model.Geofence{Center: office, RadiusM: 30},
		TimeZone: "Asia/Jakarta",
	})
	f.store.PutCompany(model.Company{ID: otherCompanyID, Name: "Other", Geofence: model.Geofence{Center: office, RadiusM: 30}})

	emp := model.Employee{
		ID: employeeID, CompanyID: companyID, Email: "employee@acme.test", FullName: "Eve Employee",
		Role: model.RoleEmployee, Status: model.EmployeeActive,
	}
	if shift != nil {
		shift.CompanyID = companyID
		f.store.PutShift(*shift)
		id := shift.ID
		emp.ShiftID = &id
	}
	f.store.PutEmployee(emp)
	f.store.PutEmployee(model.Employee{
		ID: adminID, CompanyID: companyID, Email: "admin@acme.test", FullName: "Ada Admin",
		Role: model.RoleAdmin, Status: model.EmployeeActive,
	})
	f.store.PutEmployee(model.Employee{
		ID: otherAdminID, CompanyID: otherCompanyID, Email: "admin@other.test",
		Role: model.RoleAdmin, Status: model.EmployeeActive,
	})

	clock := WithClock(func() time.Time { return f.now })
	f.attendance = NewAttendanceService(f.store, f.store.Directory(), f.store.Attendance(), f.store.ActivityLog(), true, clock)
	f.leave = NewLeaveService(f.store, f.store.Directory(), f.store.Leave(), f.store.ActivityLog(),
		NewSynthesizer(f.store.Attendance()), f.publisher, clock)
	f.company = NewCompanyService(f.store.Directory(), f.store.ActivityLog(), clock)
	return f
}

// at moves the clock to hh:mm local on the given day.
func (f *fixture) at(day time.Time, hh, mm int) {
	f.now = time.Date(day.Year(), day.Month(), day.Day(), hh, mm, 0, 0, f.loc)
}
