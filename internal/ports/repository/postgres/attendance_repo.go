package postgres

import (
	"context"
	"database/sql"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const attendanceColumns = `id, employee_id, work_date, status, source,
	check_in_at, check_in_lat, check_in_lon,
	check_out_at, check_out_lat, check_out_lon,
	note, leave_request_id`

// AttendanceRepository is the PostgreSQL ledger.
type AttendanceRepository struct {
	DB *sql.DB
}

// NewAttendanceRepository create new instance
func NewAttendanceRepository(db *sql.DB) repository.AttendanceRepository {
	return &AttendanceRepository{DB: db}
}

// FindByDay get the employee's record for a calendar day.
func (r *AttendanceRepository) FindByDay(ctx context.Context, employeeID string, day time.Time) (*model.AttendanceRecord, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", employeeID))

	query := `SELECT ` + attendanceColumns + `
              FROM attendance_records
              WHERE employee_id = $1 AND work_date = $2`

	rec, err := scanRecord(conn(ctx, r.DB).QueryRowContext(ctx, query, employeeID, day))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Create insert a new day.
func (r *AttendanceRepository) Create(ctx context.Context, rec model.AttendanceRecord) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", rec.EmployeeID))

	inLat, inLon := coordArgs(rec.CheckInCoord)
	outLat, outLon := coordArgs(rec.CheckOutCoord)
	query := `INSERT INTO attendance_records (` + attendanceColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := conn(ctx, r.DB).ExecContext(ctx, query,
		rec.ID, rec.EmployeeID, rec.WorkDate, rec.Status, rec.Source,
		rec.CheckInAt, inLat, inLon,
		rec.CheckOutAt, outLat, outLon,
		nullString(rec.Note), nullString(rec.LeaveRequestID),
	)
	return translate(err)
}

// ClaimCheckIn records a check-in on a day that exists without one.
func (r *AttendanceRepository) ClaimCheckIn(ctx context.Context, id string, status model.AttendanceStatus, at time.Time, coord model.Coordinate) (bool, error) {
	query := `UPDATE attendance_records
              SET status = $2,
                  source = $3,
                  check_in_at = $4,
                  check_in_lat = $5,
                  check_in_lon = $6,
                  updated_at = now()
              WHERE id = $1 AND check_in_at IS NULL AND status NOT IN ('LEAVE', 'WFH')`

	res, err := conn(ctx, r.DB).ExecContext(ctx, query, id, status, model.SourceCheckIn, at, coord.Lat, coord.Lon)
	if err != nil {
		return false, err
	}
	return affected(res)
}

// SetCheckOut do checkout.
func (r *AttendanceRepository) SetCheckOut(ctx context.Context, id string, at time.Time, coord model.Coordinate) (bool, error) {
	query := `UPDATE attendance_records
              SET check_out_at = $2,
                  check_out_lat = $3,
                  check_out_lon = $4,
                  updated_at = now()
              WHERE id = $1 AND check_in_at IS NOT NULL AND check_out_at IS NULL`

	res, err := conn(ctx, r.DB).ExecContext(ctx, query, id, at, coord.Lat, coord.Lon)
	if err != nil {
		return false, err
	}
	return affected(res)
}

// UpsertSynthesized writes leave days. Rows written by a check-in or a
// correction fail the ON CONFLICT predicate and are left as they are.
func (r *AttendanceRepository) UpsertSynthesized(ctx context.Context, recs []model.AttendanceRecord) (int, error) {
	query := `INSERT INTO attendance_records (id, employee_id, work_date, status, source, note, leave_request_id)
              VALUES ($1, $2, $3, $4, $5, $6, $7)
              ON CONFLICT (employee_id, work_date) DO UPDATE
              SET status = EXCLUDED.status,
                  note = EXCLUDED.note,
                  leave_request_id = EXCLUDED.leave_request_id,
                  updated_at = now()
              WHERE attendance_records.source = 'LEAVE'`

	written := 0
	db := conn(ctx, r.DB)
	for _, rec := range recs {
		res, err := db.ExecContext(ctx, query,
			rec.ID, rec.EmployeeID, rec.WorkDate, rec.Status, model.SourceLeave,
			nullString(rec.Note), nullString(rec.LeaveRequestID),
		)
		if err != nil {
			return written, err
		}
		ok, err := affected(res)
		if err != nil {
			return written, err
		}
		if ok {
			written++
		}
	}
	return written, nil
}

// UpsertCorrection writes an admin correction. Check-in and check-out
// timestamps already on the day are kept.
func (r *AttendanceRepository) UpsertCorrection(ctx context.Context, rec model.AttendanceRecord) error {
	query := `INSERT INTO attendance_records (id, employee_id, work_date, status, source, note)
              VALUES ($1, $2, $3, $4, $5, $6)
              ON CONFLICT (employee_id, work_date) DO UPDATE
              SET status = EXCLUDED.status,
                  source = EXCLUDED.source,
                  note = EXCLUDED.note,
                  updated_at = now()`

	_, err := conn(ctx, r.DB).ExecContext(ctx, query,
		rec.ID, rec.EmployeeID, rec.WorkDate, rec.Status, model.SourceCorrection, nullString(rec.Note),
	)
	return err
}

// ListRange get the employee's days between from and to, inclusive.
func (r *AttendanceRepository) ListRange(ctx context.Context, employeeID string, from, to time.Time) ([]model.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + `
              FROM attendance_records
              WHERE employee_id = $1 AND work_date BETWEEN $2 AND $3
              ORDER BY work_date`

	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AttendanceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanRecord(row scanner) (*model.AttendanceRecord, error) {
	var (
		rec                          model.AttendanceRecord
		inAt, outAt                  sql.NullTime
		inLat, inLon, outLat, outLon sql.NullFloat64
		note, leaveID                sql.NullString
	)
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.WorkDate, &rec.Status, &rec.Source,
		&inAt, &inLat, &inLon,
		&outAt, &outLat, &outLon,
		&note, &leaveID,
	)
	if err != nil {
		return nil, err
	}

	rec.WorkDate = model.CalendarDay(rec.WorkDate)
	rec.CheckInAt = timePtr(inAt)
	rec.CheckInCoord = coordPtr(inLat, inLon)
	rec.CheckOutAt = timePtr(outAt)
	rec.CheckOutCoord = coordPtr(outLat, outLon)
	rec.Note = stringPtr(note)
	rec.LeaveRequestID = stringPtr(leaveID)
	return &rec, nil
}
