package memory

import (
	"context"
	"slices"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
)

type directoryRepo struct{ s *Store }

func (r directoryRepo) GetEmployee(ctx context.Context, id string) (*model.Employee, error) {
	defer r.s.lock(ctx)()
	e, ok := r.s.employees[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r directoryRepo) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	defer r.s.lock(ctx)()
	c, ok := r.s.companies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r directoryRepo) GetShift(ctx context.Context, id string) (*model.Shift, error) {
	defer r.s.lock(ctx)()
	sh, ok := r.s.shifts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sh, nil
}

func (r directoryRepo) UpdateCompanyGeofence(ctx context.Context, id string, fence model.Geofence) error {
	defer r.s.lock(ctx)()
	c, ok := r.s.companies[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Geofence = fence
	r.s.companies[id] = c
	return nil
}

func (r directoryRepo) SetCompanySuspended(ctx context.Context, id string, suspended bool) error {
	defer r.s.lock(ctx)()
	c, ok := r.s.companies[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Suspended = suspended
	r.s.companies[id] = c
	return nil
}

type attendanceRepo struct{ s *Store }

func (r attendanceRepo) FindByDay(ctx context.Context, employeeID string, day time.Time) (*model.AttendanceRecord, error) {
	defer r.s.lock(ctx)()
	rec, ok := r.s.records[dayKey{employeeID, model.CalendarDay(day)}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r attendanceRepo) Create(ctx context.Context, rec model.AttendanceRecord) error {
	defer r.s.lock(ctx)()
	rec.WorkDate = model.CalendarDay(rec.WorkDate)
	k := dayKey{rec.EmployeeID, rec.WorkDate}
	if _, ok := r.s.records[k]; ok {
		return repository.ErrDuplicate
	}
	r.s.records[k] = rec
	return nil
}

// byID finds a record by id. Callers hold the lock.
func (r attendanceRepo) byID(id string) (dayKey, model.AttendanceRecord, bool) {
	for k, rec := range r.s.records {
		if rec.ID == id {
			return k, rec, true
		}
	}
	return dayKey{}, model.AttendanceRecord{}, false
}

func (r attendanceRepo) ClaimCheckIn(ctx context.Context, id string, status model.AttendanceStatus, at time.Time, coord model.Coordinate) (bool, error) {
	defer r.s.lock(ctx)()
	k, rec, ok := r.byID(id)
	if !ok || rec.CheckedIn() || rec.Status == model.StatusLeave || rec.Status == model.StatusWFH {
		return false, nil
	}
	rec.Status = status
	rec.Source = model.SourceCheckIn
	rec.CheckInAt = &at
	rec.CheckInCoord = &coord
	r.s.records[k] = rec
	return true, nil
}

func (r attendanceRepo) SetCheckOut(ctx context.Context, id string, at time.Time, coord model.Coordinate) (bool, error) {
	defer r.s.lock(ctx)()
	k, rec, ok := r.byID(id)
	if !ok || !rec.CheckedIn() || rec.CheckedOut() {
		return false, nil
	}
	rec.CheckOutAt = &at
	rec.CheckOutCoord = &coord
	r.s.records[k] = rec
	return true, nil
}

func (r attendanceRepo) UpsertSynthesized(ctx context.Context, recs []model.AttendanceRecord) (int, error) {
	defer r.s.lock(ctx)()
	written := 0
	for _, rec := range recs {
		rec.WorkDate = model.CalendarDay(rec.WorkDate)
		rec.Source = model.SourceLeave
		rec.CheckInAt, rec.CheckInCoord, rec.CheckOutAt, rec.CheckOutCoord = nil, nil, nil, nil

		k := dayKey{rec.EmployeeID, rec.WorkDate}
		if existing, ok := r.s.records[k]; ok {
			if existing.Source != model.SourceLeave {
				continue
			}
			rec.ID = existing.ID
		}
		r.s.records[k] = rec
		written++
	}
	return written, nil
}

func (r attendanceRepo) UpsertCorrection(ctx context.Context, rec model.AttendanceRecord) error {
	defer r.s.lock(ctx)()
	rec.WorkDate = model.CalendarDay(rec.WorkDate)
	k := dayKey{rec.EmployeeID, rec.WorkDate}
	if existing, ok := r.s.records[k]; ok {
		existing.Status = rec.Status
		existing.Source = model.SourceCorrection
		existing.Note = rec.Note
		r.s.records[k] = existing
		return nil
	}
	rec.Source = model.SourceCorrection
	rec.CheckInAt, rec.CheckInCoord, rec.CheckOutAt, rec.CheckOutCoord, rec.LeaveRequestID = nil, nil, nil, nil, nil
	r.s.records[k] = rec
	return nil
}

func (r attendanceRepo) ListRange(ctx context.Context, employeeID string, from, to time.Time) ([]model.AttendanceRecord, error) {
	defer r.s.lock(ctx)()
	return r.s.recordsBetween(employeeID, model.CalendarDay(from), model.CalendarDay(to)), nil
}

type leaveRepo struct{ s *Store }

func (r leaveRepo) Create(ctx context.Context, req model.LeaveRequest) error {
	defer r.s.lock(ctx)()
	req.StartDate, req.EndDate = model.CalendarDay(req.StartDate), model.CalendarDay(req.EndDate)
	if req.Blocking() {
		for _, other := range r.s.leaves {
			if other.EmployeeID == req.EmployeeID && other.Blocking() && other.Overlaps(req.StartDate, req.EndDate) {
				return repository.ErrOverlap
			}
		}
	}
	r.s.leaves[req.ID] = req
	return nil
}

func (r leaveRepo) Get(ctx context.Context, id string) (*model.LeaveRequest, error) {
	defer r.s.lock(ctx)()
	req, ok := r.s.leaves[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &req, nil
}

// GetForUpdate relies on the transaction already holding the store lock.
func (r leaveRepo) GetForUpdate(ctx context.Context, id string) (*model.LeaveRequest, error) {
	return r.Get(ctx, id)
}

func (r leaveRepo) MarkDecided(ctx context.Context, id string, status model.LeaveStatus, approverID string, at time.Time, note *string) (bool, error) {
	defer r.s.lock(ctx)()
	req, ok := r.s.leaves[id]
	if !ok || req.Status != model.LeavePending {
		return false, nil
	}
	req.Status = status
	req.ApproverID = &approverID
	req.DecidedAt = &at
	req.DecisionNote = note
	r.s.leaves[id] = req
	return true, nil
}

func (r leaveRepo) MarkNotified(ctx context.Context, id string, at time.Time) error {
	defer r.s.lock(ctx)()
	req, ok := r.s.leaves[id]
	if !ok {
		return nil
	}
	req.NotifiedAt = &at
	r.s.leaves[id] = req
	return nil
}

func (r leaveRepo) ListByEmployee(ctx context.Context, employeeID string) ([]model.LeaveRequest, error) {
	defer r.s.lock(ctx)()
	out := r.s.leavesWhere(func(l model.LeaveRequest) bool { return l.EmployeeID == employeeID })
	slices.SortStableFunc(out, func(a, b model.LeaveRequest) int { return b.StartDate.Compare(a.StartDate) })
	return out, nil
}

func (r leaveRepo) ListPending(ctx context.Context, companyID string) ([]model.LeaveRequest, error) {
	defer r.s.lock(ctx)()
	return r.s.leavesWhere(func(l model.LeaveRequest) bool {
		return l.CompanyID == companyID && l.Status == model.LeavePending
	}), nil
}

type accountRepo struct{ s *Store }

func expired(a model.Account, cutoff time.Time) bool {
	return !a.Verified && a.VerificationToken != nil && a.CreatedAt.Before(cutoff)
}

func (r accountRepo) ListExpiredUnverified(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	defer r.s.lock(ctx)()
	var candidates []model.Account
	for _, a := range r.s.accounts {
		if a.CompanyID != model.SystemCompanyID && expired(a, cutoff) {
			candidates = append(candidates, a)
		}
	}
	slices.SortFunc(candidates, func(a, b model.Account) int { return a.CreatedAt.Compare(b.CreatedAt) })

	ids := make([]string, 0, len(candidates))
	for _, a := range candidates {
		if limit > 0 && len(ids) == limit {
			break
		}
		ids = append(ids, a.ID)
	}
	return ids, nil
}

func (r accountRepo) PurgeUnverified(ctx context.Context, id string, cutoff time.Time) (bool, error) {
	defer r.s.lock(ctx)()
	a, ok := r.s.accounts[id]
	if !ok || !expired(a, cutoff) {
		return false, nil
	}

	r.s.activity = slices.DeleteFunc(r.s.activity, func(l model.ActivityLog) bool { return l.AccountID == id })
	for k := range r.s.records {
		if k.employeeID == id {
			delete(r.s.records, k)
		}
	}
	for lid, l := range r.s.leaves {
		if l.EmployeeID == id {
			delete(r.s.leaves, lid)
		}
	}
	delete(r.s.accounts, id)
	delete(r.s.employees, id)
	return true, nil
}

func (r accountRepo) Verify(ctx context.Context, token string) (*model.Account, error) {
	defer r.s.lock(ctx)()
	for id, a := range r.s.accounts {
		if a.Verified || a.VerificationToken == nil || *a.VerificationToken != token {
			continue
		}
		a.Verified = true
		a.VerificationToken = nil
		r.s.accounts[id] = a
		return &a, nil
	}
	return nil, repository.ErrNotFound
}

type activityRepo struct{ s *Store }

func (r activityRepo) Append(ctx context.Context, entry model.ActivityLog) error {
	defer r.s.lock(ctx)()
	r.s.activity = append(r.s.activity, entry)
	return nil
}
