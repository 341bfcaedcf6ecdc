package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository/memory"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	sent []messaging.LeaveDecidedEvent
	err  error
}

func (m *fakeMailer) SendLeaveDecision(_ context.Context, event messaging.LeaveDecidedEvent) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, event)
	return nil
}

var decidedAt = time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

func setup(t *testing.T, mailer *fakeMailer) (*Processor, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.PutLeave(model.LeaveRequest{
		ID: "leave-1", EmployeeID: "e1", CompanyID: "c1",
		StartDate: decidedAt, EndDate: decidedAt, Type: model.LeaveTypeLeave, Status: model.LeaveApproved,
	})
	p := NewProcessor(mailer, store.Leave(), 3)
	p.now = func() time.Time { return decidedAt.Add(time.Minute) }
	return p, store
}

func message(t *testing.T, leaveID string, receiveCount string) types.Message {
	t.Helper()
	body, err := json.Marshal(messaging.LeaveDecidedEvent{
		LeaveRequestID: leaveID, EmployeeID: "e1", Email: "e1@acme.test", Type: "LEAVE", Status: "APPROVED",
	})
	require.NoError(t, err)
	msg := types.Message{MessageId: aws.String("m-1"), Body: aws.String(string(body))}
	if receiveCount != "" {
		msg.Attributes = map[string]string{"ApproximateReceiveCount": receiveCount}
	}
	return msg
}

func TestProcessSendsAndMarksNotified(t *testing.T) {
	mailer := &fakeMailer{}
	p, store := setup(t, mailer)
	ctx := context.Background()

	retry, delay, err := p.Process(ctx, message(t, "leave-1", ""))
	require.NoError(t, err)
	assert.False(t, retry)
	assert.Zero(t, delay)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "e1@acme.test", mailer.sent[0].Email)

	req, err := store.Leave().Get(ctx, "leave-1")
	require.NoError(t, err)
	require.NotNil(t, req.NotifiedAt)

	// A redelivery does not email twice.
	retry, _, err = p.Process(ctx, message(t, "leave-1", "2"))
	require.NoError(t, err)
	assert.False(t, retry)
	assert.Len(t, mailer.sent, 1)
}

func TestProcessFailures(t *testing.T) {
	sesDown := errors.New("ses unavailable")

	tests := []struct {
		name      string
		mailerErr error
		msg       func(t *testing.T) types.Message
		wantRetry bool
		wantDelay int32
		wantErr   bool
	}{
		{
			name:      "mailer error is retried with backoff",
			mailerErr: sesDown,
			msg:       func(t *testing.T) types.Message { return message(t, "leave-1", "1") },
			wantRetry: true,
			wantDelay: 20,
			wantErr:   true,
		},
		{
			name:      "last attempt gives up",
			mailerErr: sesDown,
			msg:       func(t *testing.T) types.Message { return message(t, "leave-1", "3") },
			wantErr:   true,
		},
		{
			name: "malformed body",
			msg: func(*testing.T) types.Message {
				return types.Message{Body: aws.String("{not json")}
			},
			wantErr: true,
		},
		{
			name:    "missing body",
			msg:     func(*testing.T) types.Message { return types.Message{} },
			wantErr: true,
		},
		{
			name: "request no longer exists",
			msg:  func(t *testing.T) types.Message { return message(t, "gone", "") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := &fakeMailer{err: tt.mailerErr}
			p, _ := setup(t, mailer)

			retry, delay, err := p.Process(context.Background(), tt.msg(t))
			assert.Equal(t, tt.wantRetry, retry)
			assert.Equal(t, tt.wantDelay, delay)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Empty(t, mailer.sent)
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    int32
	}{
		{attempt: 0, want: 10},
		{attempt: 1, want: 20},
		{attempt: 3, want: 80},
		{attempt: 8, want: 2560},
		{attempt: 9, want: 3600},
		{attempt: 20, want: 3600},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, calculateBackoff(tt.attempt), "attempt %d", tt.attempt)
	}
}
