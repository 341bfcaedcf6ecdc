// Package reaper deletes registrations that were never verified.
package reaper

import (
	"context"
	"time"

	"attendance.service/internal/ports/repository"
	"github.com/rs/zerolog/log"
)

type Reaper struct {
	tx       repository.Transactor
	accounts repository.AccountRepository

	interval  time.Duration
	ttl       time.Duration
	batchSize int
	now       func() time.Time
}

func New(tx repository.Transactor, accounts repository.AccountRepository, interval, ttl time.Duration, batchSize int) *Reaper {
	return &Reaper{
		tx:        tx,
		accounts:  accounts,
		interval:  interval,
		ttl:       ttl,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// WithClock replaces time.Now.
func (r *Reaper) WithClock(now func() time.Time) *Reaper {
	r.now = now
	return r
}

// Start sweeps every interval until ctx is canceled.
func (r *Reaper) Start(ctx context.Context) {
	log.Info().Dur("interval", r.interval).Dur("ttl", r.ttl).Msg("Account reaper started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Account reaper stopped")
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("Reaper sweep failed")
			}
		}
	}
}

// Sweep deletes accounts created more than ttl ago that are still unverified.
// Each account is purged in its own transaction; one failing account does not
// stop the others. It returns how many accounts were deleted.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	cutoff := r.now().UTC().Add(-r.ttl)

	ids, err := r.accounts.ListExpiredUnverified(ctx, cutoff, r.batchSize)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}

		var purged bool
		err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
			var err error
			purged, err = r.accounts.PurgeUnverified(ctx, id, cutoff)
			return err
		})
		switch {
		case err != nil:
			log.Error().Err(err).Str("account_id", id).Msg("Failed to purge unverified account")
		case purged:
			deleted++
			log.Info().Str("account_id", id).Msg("Purged unverified account")
		default:
			log.Debug().Str("account_id", id).Msg("Account verified before purge, kept")
		}
	}

	if deleted > 0 {
		log.Info().Int("count", deleted).Msg("Reaper sweep finished")
	}
	return deleted, nil
}
