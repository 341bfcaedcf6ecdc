package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"attendance.service/internal/core"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"attendance.service/internal/worker"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// Processor emails the employee about a leave decision. It calls SES
// through a circuit breaker and marks the request notified so a redelivered
// message does not send twice.
type Processor struct {
	mailer      core.EmailService
	leaves      repository.LeaveRepository
	cb          *gobreaker.CircuitBreaker
	maxAttempts int
	now         func() time.Time
}

func NewProcessor(mailer core.EmailService, leaves repository.LeaveRepository, maxAttempts int) *Processor {
	settings := gobreaker.Settings{
		Name:        "SES",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if failure rate is bigger then 50% after at least 10 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	}

	return &Processor{
		mailer:      mailer,
		leaves:      leaves,
		cb:          gobreaker.NewCircuitBreaker(settings),
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

func (p *Processor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	if msg.Body == nil {
		return false, 0, errors.New("empty message body")
	}
	var event messaging.LeaveDecidedEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal leave decision event")
		return false, 0, err
	}

	req, err := p.leaves.Get(ctx, event.LeaveRequestID)
	if errors.Is(err, repository.ErrNotFound) {
		// The account was reaped after the decision.
		log.Ctx(ctx).Info().Str("leave_request_id", event.LeaveRequestID).Msg("Leave request no longer exists. Skipping.")
		return false, 0, nil
	}
	if err != nil {
		return true, 10, fmt.Errorf("failed to load leave request: %w", err)
	}
	if req.NotifiedAt != nil {
		log.Ctx(ctx).Info().Str("leave_request_id", req.ID).Msg("Notification already sent. Skipping.")
		return false, 0, nil
	}

	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.mailer.SendLeaveDecision(ctx, event)
	})
	if err != nil {
		attempt := worker.ReceiveCount(msg)
		if p.maxAttempts > 0 && attempt >= p.maxAttempts {
			return false, 0, fmt.Errorf("giving up after %d attempts: %w", attempt, err)
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			log.Ctx(ctx).Warn().Msg("Circuit Breaker is OPEN; skipping SES call")
		}
		return true, calculateBackoff(attempt), err
	}

	if err := p.leaves.MarkNotified(ctx, req.ID, p.now().UTC()); err != nil {
		// The email is out; a retry would send it again.
		log.Ctx(ctx).Error().Err(err).Str("leave_request_id", req.ID).Msg("Failed to mark leave request notified")
	}
	return false, 0, nil
}

// calculateBackoff grows the delay exponentially with each attempt, capped at one hour.
func calculateBackoff(attempt int) int32 {
	backoff := math.Pow(2, float64(attempt)) * 10
	if backoff > 3600 {
		return 3600
	}
	return int32(backoff)
}
