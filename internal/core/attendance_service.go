package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AttendanceResult is what a check-in or check-out returns to the caller.
type AttendanceResult struct {
	Record   model.AttendanceRecord `json:"record"`
	Geofence *GeofenceCheck         `json:"geofence,omitempty"`
}

type AttendanceService struct {
	tx        repository.Transactor
	directory repository.DirectoryRepository
	ledger    repository.AttendanceRepository
	activity  repository.ActivityRepository

	geofenceOnCheckout bool
	opts               options
}

// NewAttendanceService wires the ledger with the directory it validates against.
func NewAttendanceService(
	tx repository.Transactor,
	directory repository.DirectoryRepository,
	ledger repository.AttendanceRepository,
	activity repository.ActivityRepository,
	geofenceOnCheckout bool,
	opts ...Option,
) *AttendanceService {
	return &AttendanceService{
		tx:                 tx,
		directory:          directory,
		ledger:             ledger,
		activity:           activity,
		geofenceOnCheckout: geofenceOnCheckout,
		opts:               buildOptions(opts),
	}
}

// subject is everything needed to validate an attendance action of one employee.
type subject struct {
	employee model.Employee
	company  model.Company
	loc      *time.Location
	clock    ShiftClock
}

func (s *AttendanceService) loadSubject(ctx context.Context, actor Actor) (*subject, error) {
	emp, err := s.directory.GetEmployee(ctx, actor.EmployeeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("employee")
	}
	if err != nil {
		return nil, storage("load employee", err)
	}
	if emp.CompanyID != actor.CompanyID {
		return nil, forbidden("employee does not belong to this company")
	}
	switch emp.Status {
	case model.EmployeeActive:
	case model.EmployeeInactive:
		return nil, validationf("employee is inactive")
	default:
		return nil, validationf("employee status %q is not recognized", emp.Status)
	}

	company, err := s.directory.GetCompany(ctx, emp.CompanyID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("company")
	}
	if err != nil {
		return nil, storage("load company", err)
	}
	if company.Suspended {
		return nil, validationf("company is suspended")
	}
	loc, err := company.Location()
	if err != nil {
		return nil, validationf("company time zone %q is invalid", company.TimeZone)
	}

	var shift *model.Shift
	if emp.ShiftID != nil {
		shift, err = s.directory.GetShift(ctx, *emp.ShiftID)
		if errors.Is(err, repository.ErrNotFound) {
			log.Ctx(ctx).Warn().Str("shift_id", *emp.ShiftID).Msg("Assigned shift not found, treating employee as shiftless")
			shift = nil
		} else if err != nil {
			return nil, storage("load shift", err)
		}
	}

	return &subject{
		employee: *emp,
		company:  *company,
		loc:      loc,
		clock:    ShiftClock{Shift: shift, Loc: loc},
	}, nil
}

// CheckIn records the first check-in of the employee's current work day,
// which is the local calendar day unless an overnight shift is still running.
func (s *AttendanceService) CheckIn(ctx context.Context, actor Actor, coord model.Coordinate) (*AttendanceResult, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", actor.EmployeeID))

	if err := ValidateCoordinate(coord); err != nil {
		return nil, err
	}
	subj, err := s.loadSubject(ctx, actor)
	if err != nil {
		return nil, err
	}

	fence := CheckGeofence(coord, subj.company.Geofence)
	if err := fence.Validate(); err != nil {
		return nil, err
	}

	now := s.opts.now()
	day := subj.clock.WorkDay(now)
	status := subj.clock.CheckInStatus(day, now)
	at := now.UTC()

	var rec model.AttendanceRecord
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.ledger.FindByDay(ctx, actor.EmployeeID, day)
		if err != nil {
			return storage("find attendance day", err)
		}

		if existing == nil {
			rec = model.AttendanceRecord{
				ID:           s.opts.newID(),
				EmployeeID:   actor.EmployeeID,
				WorkDate:     day,
				Status:       status,
				Source:       model.SourceCheckIn,
				CheckInAt:    &at,
				CheckInCoord: &coord,
			}
			if err := s.ledger.Create(ctx, rec); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return ErrAlreadyCheckedIn
				}
				return storage("create attendance day", err)
			}
		} else {
			if existing.CheckedIn() {
				return ErrAlreadyCheckedIn
			}
			switch existing.Status {
			case model.StatusLeave, model.StatusWFH:
				return ErrOnLeave
			case model.StatusPresent, model.StatusLate, model.StatusAbsent:
			default:
				return validationf("attendance status %q is not recognized", existing.Status)
			}

			ok, err := s.ledger.ClaimCheckIn(ctx, existing.ID, status, at, coord)
			if err != nil {
				return storage("claim check-in", err)
			}
			if !ok {
				return ErrAlreadyCheckedIn
			}
			rec = *existing
			rec.Status, rec.Source = status, model.SourceCheckIn
			rec.CheckInAt, rec.CheckInCoord = &at, &coord
		}

		return s.logActivity(ctx, actor.EmployeeID, "CHECK_IN",
			fmt.Sprintf("%s on %s at %.1f m", rec.Status, day.Format(model.DateLayout), fence.DistanceM))
	})
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().Str("status", string(rec.Status)).Str("work_date", day.Format(model.DateLayout)).Msg("Checked in")
	return &AttendanceResult{Record: rec, Geofence: &fence}, nil
}

// CheckOut closes the open day of the employee.
func (s *AttendanceService) CheckOut(ctx context.Context, actor Actor, coord model.Coordinate) (*AttendanceResult, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", actor.EmployeeID))

	if err := ValidateCoordinate(coord); err != nil {
		return nil, err
	}
	subj, err := s.loadSubject(ctx, actor)
	if err != nil {
		return nil, err
	}

	now := s.opts.now()
	day := model.CalendarDay(now.In(subj.loc))
	at := now.UTC()

	var (
		rec   model.AttendanceRecord
		fence *GeofenceCheck
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		open, err := s.openRecord(ctx, actor.EmployeeID, day, subj.clock)
		if err != nil {
			return err
		}
		if open == nil || !open.CheckedIn() {
			return ErrNoCheckInYet
		}
		if open.CheckedOut() {
			return ErrAlreadyCheckedOut
		}

		if s.geofenceOnCheckout {
			check := CheckGeofence(coord, subj.company.Geofence)
			if err := check.Validate(); err != nil {
				return err
			}
			fence = &check
		}
		if err := subj.clock.CheckOutAllowed(open.WorkDate, now); err != nil {
			return err
		}

		ok, err := s.ledger.SetCheckOut(ctx, open.ID, at, coord)
		if err != nil {
			return storage("set check-out", err)
		}
		if !ok {
			return ErrAlreadyCheckedOut
		}
		rec = *open
		rec.CheckOutAt, rec.CheckOutCoord = &at, &coord

		return s.logActivity(ctx, actor.EmployeeID, "CHECK_OUT", "closed "+open.WorkDate.Format(model.DateLayout))
	})
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().Str("work_date", rec.WorkDate.Format(model.DateLayout)).Msg("Checked out")
	return &AttendanceResult{Record: rec, Geofence: fence}, nil
}

// openRecord returns today's record. An overnight shift that started
// yesterday and is still open wins over an empty today.
func (s *AttendanceService) openRecord(ctx context.Context, employeeID string, day time.Time, clock ShiftClock) (*model.AttendanceRecord, error) {
	rec, err := s.ledger.FindByDay(ctx, employeeID, day)
	if err != nil {
		return nil, storage("find attendance day", err)
	}
	if (rec != nil && rec.CheckedIn()) || !clock.Overnight() {
		return rec, nil
	}

	prev, err := s.ledger.FindByDay(ctx, employeeID, day.AddDate(0, 0, -1))
	if err != nil {
		return nil, storage("find previous attendance day", err)
	}
	if prev != nil && prev.CheckedIn() && !prev.CheckedOut() {
		return prev, nil
	}
	return rec, nil
}

// CheckLocation evaluates the geofence without touching the ledger.
func (s *AttendanceService) CheckLocation(ctx context.Context, actor Actor, coord model.Coordinate) (*GeofenceCheck, error) {
	if err := ValidateCoordinate(coord); err != nil {
		return nil, err
	}
	subj, err := s.loadSubject(ctx, actor)
	if err != nil {
		return nil, err
	}
	check := CheckGeofence(coord, subj.company.Geofence)
	return &check, nil
}

// Monthly returns the employee's days of one calendar month, ordered by day.
// Days without a record are absent from the result.
func (s *AttendanceService) Monthly(ctx context.Context, actor Actor, year, month int) ([]model.AttendanceRecord, error) {
	if month < 1 || month > 12 {
		return nil, validationf("month must be between 1 and 12")
	}
	if year < 1970 || year > 9999 {
		return nil, validationf("year %d is out of range", year)
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	recs, err := s.ledger.ListRange(ctx, actor.EmployeeID, from, to)
	if err != nil {
		return nil, storage("list attendance", err)
	}
	if recs == nil {
		recs = []model.AttendanceRecord{}
	}
	return recs, nil
}

// Correct lets an admin set the status of any day of an employee in the same company.
func (s *AttendanceService) Correct(ctx context.Context, actor Actor, employeeID string, day time.Time, status model.AttendanceStatus, note *string) (*model.AttendanceRecord, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, validationf("attendance status %q is not recognized", status)
	}

	emp, err := s.directory.GetEmployee(ctx, employeeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("employee")
	}
	if err != nil {
		return nil, storage("load employee", err)
	}
	if emp.CompanyID != actor.CompanyID {
		return nil, notFound("employee")
	}

	day = model.CalendarDay(day)
	var rec *model.AttendanceRecord
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		err := s.ledger.UpsertCorrection(ctx, model.AttendanceRecord{
			ID:         s.opts.newID(),
			EmployeeID: employeeID,
			WorkDate:   day,
			Status:     status,
			Source:     model.SourceCorrection,
			Note:       note,
		})
		if err != nil {
			return storage("upsert correction", err)
		}
		if rec, err = s.ledger.FindByDay(ctx, employeeID, day); err != nil {
			return storage("find attendance day", err)
		}
		return s.logActivity(ctx, employeeID, "CORRECTION",
			fmt.Sprintf("%s set to %s by %s", day.Format(model.DateLayout), status, actor.EmployeeID))
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *AttendanceService) logActivity(ctx context.Context, accountID, action, detail string) error {
	err := s.activity.Append(ctx, model.ActivityLog{
		AccountID: accountID,
		Action:    action,
		Detail:    detail,
		CreatedAt: s.opts.now().UTC(),
	})
	if err != nil {
		return storage("append activity", err)
	}
	return nil
}
