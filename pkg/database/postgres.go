package database

import (
	"fmt"

	"attendance.service/internal/config"
)

// DSN builds the pgx connection string from config.
func DSN(cfg config.Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
}
