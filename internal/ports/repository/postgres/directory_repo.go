package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
)

// DirectoryRepository reads employees (accounts), companies and shifts.
type DirectoryRepository struct {
	DB *sql.DB
}

// NewDirectoryRepository create new instance
func NewDirectoryRepository(db *sql.DB) repository.DirectoryRepository {
	return &DirectoryRepository{DB: db}
}

func (r *DirectoryRepository) GetEmployee(ctx context.Context, id string) (*model.Employee, error) {
	query := `SELECT id, company_id, shift_id, email, full_name, role, status
              FROM accounts WHERE id = $1`

	var (
		emp     model.Employee
		shiftID sql.NullString
	)
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, id).Scan(
		&emp.ID, &emp.CompanyID, &shiftID, &emp.Email, &emp.FullName, &emp.Role, &emp.Status,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, translate(err)
	}
	emp.ShiftID = stringPtr(shiftID)
	return &emp, nil
}

func (r *DirectoryRepository) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	query := `SELECT id, name, latitude, longitude, radius_m, timezone, suspended
              FROM companies WHERE id = $1`

	var c model.Company
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Geofence.Center.Lat, &c.Geofence.Center.Lon, &c.Geofence.RadiusM, &c.TimeZone, &c.Suspended,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// GetShift reads times as HH24:MI text so the driver never has to decode TIME.
func (r *DirectoryRepository) GetShift(ctx context.Context, id string) (*model.Shift, error) {
	query := `SELECT id, company_id, name,
                     to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
                     sunday, monday, tuesday, wednesday, thursday, friday, saturday
              FROM shifts WHERE id = $1`

	var (
		s          model.Shift
		start, end sql.NullString
	)
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.CompanyID, &s.Name, &start, &end,
		&s.Weekdays[0], &s.Weekdays[1], &s.Weekdays[2], &s.Weekdays[3], &s.Weekdays[4], &s.Weekdays[5], &s.Weekdays[6],
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, translate(err)
	}

	if s.Start, err = parseTimeOfDay(start); err != nil {
		return nil, err
	}
	if s.End, err = parseTimeOfDay(end); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *DirectoryRepository) UpdateCompanyGeofence(ctx context.Context, id string, fence model.Geofence) error {
	query := `UPDATE companies
              SET latitude = $2,
                  longitude = $3,
                  radius_m = $4
              WHERE id = $1`

	res, err := conn(ctx, r.DB).ExecContext(ctx, query, id, fence.Center.Lat, fence.Center.Lon, fence.RadiusM)
	return mustAffect(res, err)
}

func (r *DirectoryRepository) SetCompanySuspended(ctx context.Context, id string, suspended bool) error {
	query := `UPDATE companies SET suspended = $2 WHERE id = $1`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, id, suspended)
	return mustAffect(res, err)
}

func mustAffect(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrNotFound
	}
	return nil
}

func parseTimeOfDay(ns sql.NullString) (*model.TimeOfDay, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := model.ParseTimeOfDay(ns.String)
	if err != nil {
		return nil, fmt.Errorf("shift time: %w", err)
	}
	return &t, nil
}
