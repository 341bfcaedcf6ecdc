package core

import (
	"context"
	"fmt"
	"strings"

	"attendance.service/internal/ports/messaging"
	"attendance.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type EmailService interface {
	SendLeaveDecision(ctx context.Context, event messaging.LeaveDecidedEvent) error
}

// SESClient is the part of the SES client the mailer uses.
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESEmailService struct {
	client SESClient
	sender string
}

func NewSESEmailService(client SESClient, sender string) *SESEmailService {
	return &SESEmailService{client: client, sender: sender}
}

func (s *SESEmailService) SendLeaveDecision(ctx context.Context, event messaging.LeaveDecidedEvent) error {
	tracer := otel.Tracer("ses-email-service")
	ctx, span := tracer.Start(ctx, "send_email", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if empID := telemetry.GetEmployeeIDFromContext(ctx); empID != "" {
		span.SetAttributes(attribute.String("app.employeeId", empID))
	}
	if event.Email == "" {
		return fmt.Errorf("leave request %s: no recipient address", event.LeaveRequestID)
	}

	subject, body := LeaveDecisionEmail(event)
	input := &ses.SendEmailInput{
		Source: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{event.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
	}

	_, err := s.client.SendEmail(ctx, input)
	return err
}

// LeaveDecisionEmail renders the subject and plain-text body.
func LeaveDecisionEmail(event messaging.LeaveDecidedEvent) (string, string) {
	kind := "Leave"
	if event.Type == "WFH" {
		kind = "Work-from-home"
	}
	subject := fmt.Sprintf("%s request %s", kind, strings.ToLower(event.Status))

	name := event.FullName
	if name == "" {
		name = "there"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", name)
	fmt.Fprintf(&b, "Your %s request for %s to %s has been %s.\n",
		strings.ToLower(kind), event.StartDate, event.EndDate, strings.ToLower(event.Status))
	if event.DecisionNote != "" {
		fmt.Fprintf(&b, "\nNote from your approver: %s\n", event.DecisionNote)
	}
	return subject, b.String()
}
