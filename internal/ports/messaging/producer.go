package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const EventLeaveDecided = "LeaveDecided"

type Producer struct {
	sender               MessageSender
	notificationQueueURL string
}

func NewProducer(sender MessageSender, notificationQueueURL string) *Producer {
	return &Producer{
		sender:               sender,
		notificationQueueURL: notificationQueueURL,
	}
}

func NewSQSProducer(client SQSClient, notificationQueueURL string) *Producer {
	return NewProducer(&SQSSender{client: client}, notificationQueueURL)
}

func (p *Producer) PublishLeaveDecided(ctx context.Context, event LeaveDecidedEvent) error {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("app.employeeId", event.EmployeeID),
		attribute.String("app.leaveRequestId", event.LeaveRequestID),
	)
	return p.publish(ctx, p.notificationQueueURL, EventLeaveDecided, event)
}

func (p *Producer) publish(ctx context.Context, destination, eventType string, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	if err := p.sender.SendMessage(ctx, destination, eventType, b); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// LogPublisher only logs events. It stands in for SQS when no queue is configured.
type LogPublisher struct{}

func (LogPublisher) PublishLeaveDecided(ctx context.Context, event LeaveDecidedEvent) error {
	log.Ctx(ctx).Info().
		Str("leave_request_id", event.LeaveRequestID).
		Str("status", event.Status).
		Msg("No notification queue configured, event dropped")
	return nil
}
