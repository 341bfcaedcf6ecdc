package worker

import (
	"context"
	"strconv"
	"sync"
	"time"

	"attendance.service/pkg/logger"
	"attendance.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
)

type SQSClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	ChangeMessageVisibility(ctx context.Context, params *sqs.ChangeMessageVisibilityInput, optFns ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error)
}

// Processor handles one SQS message. shouldRetry with an error makes the
// message visible again after retryDelay seconds.
type Processor interface {
	Process(ctx context.Context, msg types.Message) (shouldRetry bool, retryDelay int32, err error)
}

// Worker polls a queue and hands messages to a pool of processors.
type Worker struct {
	client    SQSClient
	queueURL  string
	processor Processor
	// Concurrency controls how many messages can be processed at the same time.
	Concurrency int
	// WaitTimeSeconds is the long-poll duration of ReceiveMessage.
	WaitTimeSeconds int32
	// ErrorBackoff is how long the poller pauses after a failed receive.
	ErrorBackoff time.Duration
}

// NewWorker creates a new SQS worker, ready to be started.
func NewWorker(client SQSClient, url string, proc Processor) *Worker {
	return &Worker{
		client:          client,
		queueURL:        url,
		processor:       proc,
		Concurrency:     10,
		WaitTimeSeconds: 20,
		ErrorBackoff:    5 * time.Second,
	}
}

// Start polls until ctx is canceled and returns once in-flight messages are done.
func (w *Worker) Start(ctx context.Context) {
	log.Info().Int("concurrency", w.Concurrency).Str("queue", w.queueURL).Msg("SQS Worker started. Polling for messages...")

	messagesCh := make(chan types.Message, w.Concurrency)

	var wg sync.WaitGroup
	for i := 0; i < w.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.processMessages(ctx, messagesCh)
		}()
	}

	w.pollMessages(ctx, messagesCh)
	wg.Wait()
	log.Info().Msg("SQS Worker stopped")
}

func (w *Worker) pollMessages(ctx context.Context, messagesCh chan<- types.Message) {
	defer close(messagesCh)

	for {
		if ctx.Err() != nil {
			log.Info().Msg("Poller shutting down...")
			return
		}

		output, err := w.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:                    aws.String(w.queueURL),
			MaxNumberOfMessages:         int32(min(w.Concurrency, 10)),
			WaitTimeSeconds:             w.WaitTimeSeconds,
			MessageAttributeNames:       []string{"All"},
			MessageSystemAttributeNames: []types.MessageSystemAttributeName{types.MessageSystemAttributeNameApproximateReceiveCount},
		})
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Error().Err(err).Msg("Error receiving messages")
			select {
			case <-ctx.Done():
			case <-time.After(w.ErrorBackoff):
			}
			continue
		}
		if len(output.Messages) > 0 {
			log.Debug().Int("count", len(output.Messages)).Msg("Received messages")
		}
		for _, msg := range output.Messages {
			messagesCh <- msg
		}
	}
}

func (w *Worker) processMessages(ctx context.Context, messagesCh <-chan types.Message) {
	for msg := range messagesCh {
		w.handleSingleMessage(ctx, msg)
	}
}

// handleSingleMessage deletes the message on success, delays it on a
// retryable failure and leaves it for the redrive policy otherwise.
func (w *Worker) handleSingleMessage(ctx context.Context, msg types.Message) {
	ctx, span := telemetry.StartSpanFromSQSMessage(ctx, msg)
	defer span.End()

	ctx = logger.EnrichContextWithLogger(ctx, "message_id", aws.ToString(msg.MessageId))

	// In-flight work finishes even when the poller is being stopped.
	ctx = context.WithoutCancel(ctx)

	shouldRetry, retryDelay, err := w.processor.Process(ctx, msg)

	if err != nil && shouldRetry {
		log.Ctx(ctx).Warn().Err(err).Int32("retry_delay", retryDelay).Msg("Processing failed, will retry")

		if _, cerr := w.client.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
			QueueUrl:          aws.String(w.queueURL),
			ReceiptHandle:     msg.ReceiptHandle,
			VisibilityTimeout: retryDelay,
		}); cerr != nil {
			log.Ctx(ctx).Error().Err(cerr).Msg("Failed to change message visibility")
		}
		return
	}

	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Unrecoverable error processing message, will not retry")
		return
	}

	if _, derr := w.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(w.queueURL),
		ReceiptHandle: msg.ReceiptHandle,
	}); derr != nil {
		log.Ctx(ctx).Error().Err(derr).Msg("Failed to delete message")
	}
}

// ReceiveCount is the ApproximateReceiveCount of msg, 1 when SQS did not report it.
func ReceiveCount(msg types.Message) int {
	if v, ok := msg.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 1
}
