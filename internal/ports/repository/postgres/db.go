package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

// Postgres error codes and the named constraints from schema.sql.
const (
	uniqueViolation    = "23505"
	exclusionViolation = "23P01"
	// invalid_text_representation, e.g. a malformed uuid key.
	invalidTextRepresentation = "22P02"

	attendanceDayConstraint = "attendance_records_employee_day_key"
	leaveOverlapConstraint  = "leave_requests_no_overlap"
)

type txKey struct{}

// executor is the subset of *sql.DB and *sql.Tx the repositories use.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn returns the transaction bound to ctx, or the pool.
func conn(ctx context.Context, db *sql.DB) executor {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// Transactor implements repository.Transactor over database/sql.
type Transactor struct {
	DB *sql.DB
}

// NewTransactor create new instance
func NewTransactor(db *sql.DB) repository.Transactor {
	return &Transactor{DB: db}
}

// WithinTx runs fn in a transaction. Nested calls join the outer transaction.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := t.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Ctx(ctx).Error().Err(rbErr).Msg("Rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// translate maps constraint violations onto repository sentinels. A key
// that cannot be parsed cannot exist either, so it reads as ErrNotFound.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case pgErr.Code == uniqueViolation && pgErr.ConstraintName == attendanceDayConstraint:
		return repository.ErrDuplicate
	case pgErr.Code == exclusionViolation && pgErr.ConstraintName == leaveOverlapConstraint:
		return repository.ErrOverlap
	case pgErr.Code == invalidTextRepresentation:
		return repository.ErrNotFound
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func coordPtr(lat, lon sql.NullFloat64) *model.Coordinate {
	if !lat.Valid || !lon.Valid {
		return nil
	}
	return &model.Coordinate{Lat: lat.Float64, Lon: lon.Float64}
}

func coordArgs(c *model.Coordinate) (sql.NullFloat64, sql.NullFloat64) {
	if c == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: c.Lat, Valid: true}, sql.NullFloat64{Float64: c.Lon, Valid: true}
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
