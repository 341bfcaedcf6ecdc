package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/rs/zerolog/log"
)

//go:embed schema.sql
var schema string

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	log.Ctx(ctx).Info().Msg("Database schema applied")
	return nil
}
