package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestPublishLeaveDecided(t *testing.T) {
	client := &fakeSQS{}
	p := NewSQSProducer(client, "https://sqs.local/notification-queue")
	event := LeaveDecidedEvent{LeaveRequestID: "leave-1", EmployeeID: "e1", Status: "APPROVED", DaysWritten: 3}

	require.NoError(t, p.PublishLeaveDecided(context.Background(), event))
	require.NotNil(t, client.input)
	assert.Equal(t, "https://sqs.local/notification-queue", aws.ToString(client.input.QueueUrl))
	assert.Equal(t, EventLeaveDecided, aws.ToString(client.input.MessageAttributes["event_type"].StringValue))

	var got LeaveDecidedEvent
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(client.input.MessageBody)), &got))
	assert.Equal(t, event.LeaveRequestID, got.LeaveRequestID)
	assert.Equal(t, 3, got.DaysWritten)
}

func TestPublishLeaveDecidedSendError(t *testing.T) {
	p := NewSQSProducer(&fakeSQS{err: errors.New("queue does not exist")}, "q")

	err := p.PublishLeaveDecided(context.Background(), LeaveDecidedEvent{LeaveRequestID: "leave-1"})
	assert.ErrorContains(t, err, "failed to send message")
}
