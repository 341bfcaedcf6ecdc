// Package memory is an in-process store that enforces the same constraints
// as the PostgreSQL schema. It backs the tests and STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
)

type txKey struct{}

type dayKey struct {
	employeeID string
	day        time.Time
}

type Store struct {
	mu sync.Mutex

	companies map[string]model.Company
	shifts    map[string]model.Shift
	employees map[string]model.Employee
	accounts  map[string]model.Account
	records   map[dayKey]model.AttendanceRecord
	leaves    map[string]model.LeaveRequest
	activity  []model.ActivityLog
}

func NewStore() *Store {
	return &Store{
		companies: map[string]model.Company{},
		shifts:    map[string]model.Shift{},
		employees: map[string]model.Employee{},
		accounts:  map[string]model.Account{},
		records:   map[dayKey]model.AttendanceRecord{},
		leaves:    map[string]model.LeaveRequest{},
	}
}

// lock takes the store mutex unless ctx already runs inside WithinTx.
func (s *Store) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// WithinTx serializes fn against every other store operation and rolls the
// store back to its previous state when fn fails.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	companies map[string]model.Company
	shifts    map[string]model.Shift
	employees map[string]model.Employee
	accounts  map[string]model.Account
	records   map[dayKey]model.AttendanceRecord
	leaves    map[string]model.LeaveRequest
	activity  []model.ActivityLog
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		companies: maps.Clone(s.companies),
		shifts:    maps.Clone(s.shifts),
		employees: maps.Clone(s.employees),
		accounts:  maps.Clone(s.accounts),
		records:   maps.Clone(s.records),
		leaves:    maps.Clone(s.leaves),
		activity:  slices.Clone(s.activity),
	}
}

func (s *Store) restore(snap snapshot) {
	s.companies = snap.companies
	s.shifts = snap.shifts
	s.employees = snap.employees
	s.accounts = snap.accounts
	s.records = snap.records
	s.leaves = snap.leaves
	s.activity = snap.activity
}

// Seeding helpers used by tests and the local memory driver.

func (s *Store) PutCompany(c model.Company) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies[c.ID] = c
}

func (s *Store) PutShift(sh model.Shift) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shifts[sh.ID] = sh
}

// PutEmployee stores the employee and its verified account.
func (s *Store) PutEmployee(e model.Employee) {
	s.PutAccount(e, model.Account{ID: e.ID, CompanyID: e.CompanyID, Email: e.Email, Verified: true})
}

// PutAccount stores an employee together with its registration state.
func (s *Store) PutAccount(e model.Employee, a model.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID, a.CompanyID = e.ID, e.CompanyID
	if a.Email == "" {
		a.Email = e.Email
	}
	s.employees[e.ID] = e
	s.accounts[e.ID] = a
}

func (s *Store) PutRecord(rec model.AttendanceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.WorkDate = model.CalendarDay(rec.WorkDate)
	s.records[dayKey{rec.EmployeeID, rec.WorkDate}] = rec
}

func (s *Store) PutLeave(req model.LeaveRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaves[req.ID] = req
}

// Records returns every ledger row of the employee ordered by day.
func (s *Store) Records(employeeID string) []model.AttendanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordsBetween(employeeID, time.Time{}, time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC))
}

// Activity returns the audit rows of an account.
func (s *Store) Activity(accountID string) []model.ActivityLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ActivityLog
	for _, a := range s.activity {
		if a.AccountID == accountID {
			out = append(out, a)
		}
	}
	return out
}

// HasAccount reports whether the account row still exists.
func (s *Store) HasAccount(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.accounts[id]
	return ok
}

// Leaves returns every request of the employee.
func (s *Store) Leaves(employeeID string) []model.LeaveRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leavesWhere(func(l model.LeaveRequest) bool { return l.EmployeeID == employeeID })
}

func (s *Store) recordsBetween(employeeID string, from, to time.Time) []model.AttendanceRecord {
	var out []model.AttendanceRecord
	for k, rec := range s.records {
		if k.employeeID == employeeID && !k.day.Before(from) && !k.day.After(to) {
			out = append(out, rec)
		}
	}
	slices.SortFunc(out, func(a, b model.AttendanceRecord) int { return a.WorkDate.Compare(b.WorkDate) })
	return out
}

func (s *Store) leavesWhere(keep func(model.LeaveRequest) bool) []model.LeaveRequest {
	var out []model.LeaveRequest
	for _, l := range s.leaves {
		if keep(l) {
			out = append(out, l)
		}
	}
	slices.SortFunc(out, func(a, b model.LeaveRequest) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out
}

// Repository views. Each shares the store lock and its transactions.

func (s *Store) Directory() repository.DirectoryRepository   { return directoryRepo{s} }
func (s *Store) Attendance() repository.AttendanceRepository { return attendanceRepo{s} }
func (s *Store) Leave() repository.LeaveRepository           { return leaveRepo{s} }
func (s *Store) Accounts() repository.AccountRepository      { return accountRepo{s} }
func (s *Store) ActivityLog() repository.ActivityRepository  { return activityRepo{s} }
