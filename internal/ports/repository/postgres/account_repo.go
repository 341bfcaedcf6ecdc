package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
)

type AccountRepository struct {
	DB *sql.DB
}

// NewAccountRepository create new instance
func NewAccountRepository(db *sql.DB) repository.AccountRepository {
	return &AccountRepository{DB: db}
}

func (r *AccountRepository) ListExpiredUnverified(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	query := `SELECT id FROM accounts
              WHERE is_verified = false
                AND verification_token IS NOT NULL
                AND created_at < $1
                AND company_id <> $2
              ORDER BY created_at
              LIMIT $3`

	// LIMIT NULL is no limit, matching the memory store for limit <= 0.
	var lim any
	if limit > 0 {
		lim = limit
	}
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, cutoff, model.SystemCompanyID, lim)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PurgeUnverified must be called inside a transaction: the row lock taken by
// the first statement is what keeps Verify from interleaving.
func (r *AccountRepository) PurgeUnverified(ctx context.Context, id string, cutoff time.Time) (bool, error) {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); !ok {
		return false, errors.New("purge unverified: no transaction in context")
	}
	db := conn(ctx, r.DB)

	lock := `SELECT id FROM accounts
             WHERE id = $1
               AND is_verified = false
               AND verification_token IS NOT NULL
               AND created_at < $2
             FOR UPDATE`

	var locked string
	err := db.QueryRowContext(ctx, lock, id, cutoff).Scan(&locked)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	for _, stmt := range []string{
		`DELETE FROM activity_logs WHERE account_id = $1`,
		`DELETE FROM attendance_records WHERE employee_id = $1`,
		`DELETE FROM leave_requests WHERE employee_id = $1`,
		`DELETE FROM accounts WHERE id = $1`,
	} {
		if _, err := db.ExecContext(ctx, stmt, id); err != nil {
			return false, err
		}
	}
	return true, nil
}

// Verify consumes the token. An unknown or already used token is ErrNotFound.
func (r *AccountRepository) Verify(ctx context.Context, token string) (*model.Account, error) {
	query := `UPDATE accounts
              SET is_verified = true,
                  verification_token = NULL
              WHERE verification_token = $1 AND is_verified = false
              RETURNING id, company_id, email, is_verified, created_at`

	var a model.Account
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, token).Scan(&a.ID, &a.CompanyID, &a.Email, &a.Verified, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

type ActivityRepository struct {
	DB *sql.DB
}

// NewActivityRepository create new instance
func NewActivityRepository(db *sql.DB) repository.ActivityRepository {
	return &ActivityRepository{DB: db}
}

func (r *ActivityRepository) Append(ctx context.Context, entry model.ActivityLog) error {
	query := `INSERT INTO activity_logs (account_id, action, detail, created_at)
              VALUES ($1, $2, $3, $4)`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query, entry.AccountID, entry.Action, entry.Detail, entry.CreatedAt)
	return err
}
