package main

import (
	"context"
	"os/signal"
	"syscall"

	"attendance.service/internal/config"
	"attendance.service/internal/core"
	"attendance.service/internal/ports/repository/postgres"
	"attendance.service/internal/worker"
	"attendance.service/internal/worker/notification"
	"attendance.service/pkg/aws"
	"attendance.service/pkg/database"
	"attendance.service/pkg/logger"
	"attendance.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	logger.Setup(cfg.IsLocalDev)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.TracerOptions{
			ServiceName: "attendance-notification-worker",
			Endpoint:    cfg.OTelExporterEndpoint,
			Stdout:      cfg.IsLocalDev,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to init tracer")
		}
		defer func() {
			_ = shutdownTracer(context.Background())
		}()
	}

	db, err := database.NewInstrumentedConnection(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening database")
	}
	defer db.Close()
	log.Info().Msg("Successfully connected to the database.")

	awsCfg, err := aws.NewAWSConfig(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}

	sqsClient := sqs.NewFromConfig(awsCfg)
	sesClient := ses.NewFromConfig(awsCfg)
	mailer := core.NewSESEmailService(sesClient, cfg.SESSender)
	processor := notification.NewProcessor(mailer, postgres.NewLeaveRepository(db), cfg.NotificationMaxAttempts)

	app := worker.NewWorker(sqsClient, cfg.NotificationSQSQueueURL, processor)
	if cfg.NotificationWorkerCount > 0 {
		app.Concurrency = cfg.NotificationWorkerCount
	}

	// Start blocks until ctx is canceled and in-flight messages are done.
	app.Start(ctx)

	log.Info().Msg("Worker exited gracefully")
}
