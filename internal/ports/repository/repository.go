package repository

import (
	"context"
	"errors"
	"time"

	"attendance.service/internal/core/model"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicate is returned when the (employee, day) uniqueness constraint rejects a write.
	ErrDuplicate = errors.New("repository: duplicate attendance day")
	// ErrOverlap is returned when the leave exclusion constraint rejects a write.
	ErrOverlap = errors.New("repository: overlapping leave range")
)

// Transactor runs fn inside a single storage transaction. Repositories called
// with the context handed to fn take part in that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// DirectoryRepository reads employees, companies and shifts.
type DirectoryRepository interface {
	GetEmployee(ctx context.Context, id string) (*model.Employee, error)
	GetCompany(ctx context.Context, id string) (*model.Company, error)
	GetShift(ctx context.Context, id string) (*model.Shift, error)
	UpdateCompanyGeofence(ctx context.Context, id string, fence model.Geofence) error
	SetCompanySuspended(ctx context.Context, id string, suspended bool) error
}

// AttendanceRepository owns the per-employee-per-day ledger.
type AttendanceRepository interface {
	// FindByDay returns nil, nil when the employee has no record for the day.
	FindByDay(ctx context.Context, employeeID string, day time.Time) (*model.AttendanceRecord, error)
	// Create inserts a new day. It returns ErrDuplicate if the day already exists.
	Create(ctx context.Context, rec model.AttendanceRecord) error
	// ClaimCheckIn sets check-in fields on an existing day that has none yet.
	ClaimCheckIn(ctx context.Context, id string, status model.AttendanceStatus, at time.Time, coord model.Coordinate) (bool, error)
	// SetCheckOut sets check-out fields on a day that is not checked out yet.
	SetCheckOut(ctx context.Context, id string, at time.Time, coord model.Coordinate) (bool, error)
	// UpsertSynthesized writes leave-generated days, leaving CHECK_IN and
	// CORRECTION days untouched. It returns how many days were written.
	UpsertSynthesized(ctx context.Context, recs []model.AttendanceRecord) (int, error)
	// UpsertCorrection writes an admin correction over whatever the day holds.
	UpsertCorrection(ctx context.Context, rec model.AttendanceRecord) error
	// ListRange returns the employee's days in [from, to], ordered by day.
	ListRange(ctx context.Context, employeeID string, from, to time.Time) ([]model.AttendanceRecord, error)
}

// LeaveRepository owns leave and WFH requests.
type LeaveRepository interface {
	// Create inserts a PENDING request. It returns ErrOverlap when the range
	// intersects another PENDING or APPROVED request of the same employee.
	Create(ctx context.Context, req model.LeaveRequest) error
	Get(ctx context.Context, id string) (*model.LeaveRequest, error)
	// GetForUpdate reads the request and locks it for the surrounding transaction.
	GetForUpdate(ctx context.Context, id string) (*model.LeaveRequest, error)
	// MarkDecided moves a PENDING request to status. It returns false if the
	// request was no longer PENDING.
	MarkDecided(ctx context.Context, id string, status model.LeaveStatus, approverID string, at time.Time, note *string) (bool, error)
	MarkNotified(ctx context.Context, id string, at time.Time) error
	ListByEmployee(ctx context.Context, employeeID string) ([]model.LeaveRequest, error)
	ListPending(ctx context.Context, companyID string) ([]model.LeaveRequest, error)
}

// AccountRepository covers the registration lifecycle.
type AccountRepository interface {
	// ListExpiredUnverified returns ids of unverified accounts created before
	// cutoff that still hold a verification token.
	ListExpiredUnverified(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
	// PurgeUnverified re-checks the expiry predicate under a row lock and, if it
	// still holds, deletes the account and every row it owns. It must run
	// inside a transaction.
	PurgeUnverified(ctx context.Context, id string, cutoff time.Time) (bool, error)
	// Verify consumes a pending verification token.
	Verify(ctx context.Context, token string) (*model.Account, error)
}

// ActivityRepository appends audit rows.
type ActivityRepository interface {
	Append(ctx context.Context, entry model.ActivityLog) error
}
