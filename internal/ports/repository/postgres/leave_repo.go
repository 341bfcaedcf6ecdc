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

const leaveColumns = `id, employee_id, company_id, start_date, end_date, type, reason, note,
	status, approver_id, decided_at, decision_note, notified_at, created_at`

// LeaveRepository stores leave and WFH requests. Overlap is enforced by the
// leave_requests_no_overlap exclusion constraint.
type LeaveRepository struct {
	DB *sql.DB
}

// NewLeaveRepository create new instance
func NewLeaveRepository(db *sql.DB) repository.LeaveRepository {
	return &LeaveRepository{DB: db}
}

func (r *LeaveRepository) Create(ctx context.Context, req model.LeaveRequest) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", req.EmployeeID))

	query := `INSERT INTO leave_requests (id, employee_id, company_id, start_date, end_date, type, reason, note, status, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := conn(ctx, r.DB).ExecContext(ctx, query,
		req.ID, req.EmployeeID, req.CompanyID, req.StartDate, req.EndDate,
		req.Type, req.Reason, nullString(req.Note), req.Status, req.CreatedAt,
	)
	return translate(err)
}

func (r *LeaveRepository) Get(ctx context.Context, id string) (*model.LeaveRequest, error) {
	return r.get(ctx, `SELECT `+leaveColumns+` FROM leave_requests WHERE id = $1`, id)
}

// GetForUpdate locks the row until the surrounding transaction ends.
func (r *LeaveRepository) GetForUpdate(ctx context.Context, id string) (*model.LeaveRequest, error) {
	return r.get(ctx, `SELECT `+leaveColumns+` FROM leave_requests WHERE id = $1 FOR UPDATE`, id)
}

func (r *LeaveRepository) get(ctx context.Context, query, id string) (*model.LeaveRequest, error) {
	req, err := scanLeave(conn(ctx, r.DB).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, translate(err)
	}
	return req, nil
}

// MarkDecided is conditional on the request still being PENDING.
func (r *LeaveRepository) MarkDecided(ctx context.Context, id string, status model.LeaveStatus, approverID string, at time.Time, note *string) (bool, error) {
	query := `UPDATE leave_requests
              SET status = $2,
                  approver_id = $3,
                  decided_at = $4,
                  decision_note = $5
              WHERE id = $1 AND status = 'PENDING'`

	res, err := conn(ctx, r.DB).ExecContext(ctx, query, id, status, approverID, at, nullString(note))
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (r *LeaveRepository) MarkNotified(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE leave_requests SET notified_at = $2 WHERE id = $1`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query, id, at)
	return err
}

func (r *LeaveRepository) ListByEmployee(ctx context.Context, employeeID string) ([]model.LeaveRequest, error) {
	query := `SELECT ` + leaveColumns + `
              FROM leave_requests
              WHERE employee_id = $1
              ORDER BY start_date DESC`
	return r.list(ctx, query, employeeID)
}

func (r *LeaveRepository) ListPending(ctx context.Context, companyID string) ([]model.LeaveRequest, error) {
	query := `SELECT ` + leaveColumns + `
              FROM leave_requests
              WHERE company_id = $1 AND status = 'PENDING'
              ORDER BY created_at`
	return r.list(ctx, query, companyID)
}

func (r *LeaveRepository) list(ctx context.Context, query string, arg string) ([]model.LeaveRequest, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LeaveRequest
	for rows.Next() {
		req, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

func scanLeave(row scanner) (*model.LeaveRequest, error) {
	var (
		req                         model.LeaveRequest
		note, approver, decisionNot sql.NullString
		decidedAt, notifiedAt       sql.NullTime
	)
	err := row.Scan(
		&req.ID, &req.EmployeeID, &req.CompanyID, &req.StartDate, &req.EndDate, &req.Type, &req.Reason, &note,
		&req.Status, &approver, &decidedAt, &decisionNot, &notifiedAt, &req.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.StartDate = model.CalendarDay(req.StartDate)
	req.EndDate = model.CalendarDay(req.EndDate)
	req.Note = stringPtr(note)
	req.ApproverID = stringPtr(approver)
	req.DecidedAt = timePtr(decidedAt)
	req.DecisionNote = stringPtr(decisionNot)
	req.NotifiedAt = timePtr(notifiedAt)
	return &req, nil
}
