// Entry point for REST API
package main

import (
	"context"
	"database/sql"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // company time zones in images without zoneinfo

	"attendance.service/internal/api"
	"attendance.service/internal/api/middleware"
	"attendance.service/internal/config"
	"attendance.service/internal/core"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"attendance.service/internal/ports/repository/memory"
	"attendance.service/internal/ports/repository/postgres"
	"attendance.service/internal/worker/reaper"
	"attendance.service/pkg/aws"
	"attendance.service/pkg/database"
	"attendance.service/pkg/logger"
	"attendance.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type repositories struct {
	tx         repository.Transactor
	directory  repository.DirectoryRepository
	attendance repository.AttendanceRepository
	leave      repository.LeaveRepository
	accounts   repository.AccountRepository
	activity   repository.ActivityRepository
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	logger.Setup(cfg.IsLocalDev)

	if len(cfg.JWTSecret) == 0 {
		log.Fatal().Msg("JWT_SECRET must be set")
	}
	if err := cfg.ValidateReaper(); err != nil {
		log.Fatal().Err(err).Msg("Invalid reaper configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.TracerOptions{
			ServiceName: "attendance-api",
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

	repos, closeStore := openStore(ctx, cfg)
	defer closeStore()

	publisher := newPublisher(ctx, cfg)

	synthesizer := core.NewSynthesizer(repos.attendance)
	services := api.Services{
		Attendance: core.NewAttendanceService(repos.tx, repos.directory, repos.attendance, repos.activity, cfg.GeofenceOnCheckout),
		Leave:      core.NewLeaveService(repos.tx, repos.directory, repos.leave, repos.activity, synthesizer, publisher),
		Company:    core.NewCompanyService(repos.directory, repos.activity),
		Account:    core.NewAccountService(repos.accounts),
	}

	router := api.NewRouter(services, []byte(cfg.JWTSecret))
	handler := otelhttp.NewHandler(middleware.RequestLogger(router), "api")

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	accountReaper := reaper.New(repos.tx, repos.accounts, cfg.ReaperInterval, cfg.UnverifiedAccountTTL, cfg.ReaperBatchSize)
	reaperDone := make(chan struct{})
	go func() {
		defer close(reaperDone)
		accountReaper.Start(ctx)
	}()

	go func() {
		log.Info().Str("port", cfg.ServerPort).Str("storage", cfg.StorageDriver).Msg("API Service starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	// The server gets 5 seconds to finish the requests it is currently handling.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	<-reaperDone

	log.Info().Msg("Server exiting")
}

func openStore(ctx context.Context, cfg config.Config) (repositories, func()) {
	switch cfg.StorageDriver {
	case "memory":
		log.Warn().Msg("Using in-memory storage. Data is lost on restart.")
		store := memory.NewStore()
		seedDemo(store)
		return repositories{
			tx:         store,
			directory:  store.Directory(),
			attendance: store.Attendance(),
			leave:      store.Leave(),
			accounts:   store.Accounts(),
			activity:   store.ActivityLog(),
		}, func() {}
	case "postgres":
		db, err := database.NewInstrumentedConnection(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Error opening database")
		}
		log.Info().Msg("Successfully connected to the database.")

		if cfg.AutoMigrate {
			if err := database.Migrate(ctx, db); err != nil {
				log.Fatal().Err(err).Msg("Migration failed")
			}
		}
		return postgresRepositories(db), func() { db.Close() }
	}

	log.Fatal().Str("driver", cfg.StorageDriver).Msg("Unknown STORAGE_DRIVER")
	return repositories{}, nil
}

func postgresRepositories(db *sql.DB) repositories {
	return repositories{
		tx:         postgres.NewTransactor(db),
		directory:  postgres.NewDirectoryRepository(db),
		attendance: postgres.NewAttendanceRepository(db),
		leave:      postgres.NewLeaveRepository(db),
		accounts:   postgres.NewAccountRepository(db),
		activity:   postgres.NewActivityRepository(db),
	}
}

func newPublisher(ctx context.Context, cfg config.Config) messaging.Publisher {
	if cfg.NotificationSQSQueueURL == "" {
		return messaging.LogPublisher{}
	}
	awsCfg, err := aws.NewAWSConfig(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}
	return messaging.NewSQSProducer(sqs.NewFromConfig(awsCfg), cfg.NotificationSQSQueueURL)
}
