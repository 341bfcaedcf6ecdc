package messaging

import (
	"context"

	"attendance.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// SQSSender implements MessageSender for AWS SQS.
type SQSSender struct {
	client SQSClient
}

func (s *SQSSender) SendMessage(ctx context.Context, destination, eventType string, body []byte) error {
	// Trace context travels in the message attributes next to the event type.
	attributes := telemetry.InjectTraceContext(ctx)
	attributes["event_type"] = types.MessageAttributeValue{
		DataType:    aws.String("String"),
		StringValue: aws.String(eventType),
	}

	_, err := s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          aws.String(destination),
		MessageBody:       aws.String(string(body)),
		MessageAttributes: attributes,
	})
	return err
}
