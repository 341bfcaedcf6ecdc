package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// The service runs as a pod and gets its DB, AWS and queue settings as
// environment variables. Every key needs a default or viper will not
// pick it up from the environment on Unmarshal.

type Config struct {
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	ServerPort string `mapstructure:"SERVER_PORT"`

	AWSRegion               string `mapstructure:"AWS_REGION"`
	AWSEndpoint             string `mapstructure:"AWS_ENDPOINT"`
	IsLocalDev              bool   `mapstructure:"IS_LOCAL_DEV"`
	NotificationSQSQueueURL string `mapstructure:"NOTIFICATION_SQS_QUEUE_URL"`
	SESSender               string `mapstructure:"SES_SENDER"`
	NotificationWorkerCount int    `mapstructure:"NOTIFICATION_WORKER_COUNT"`
	NotificationMaxAttempts int    `mapstructure:"NOTIFICATION_MAX_ATTEMPTS"`

	// StorageDriver is "postgres" or "memory".
	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	AutoMigrate   bool   `mapstructure:"AUTO_MIGRATE"`

	JWTSecret string `mapstructure:"JWT_SECRET"`

	ReaperInterval       time.Duration `mapstructure:"REAPER_INTERVAL"`
	UnverifiedAccountTTL time.Duration `mapstructure:"UNVERIFIED_ACCOUNT_TTL"`
	ReaperBatchSize      int           `mapstructure:"REAPER_BATCH_SIZE"`

	GeofenceOnCheckout bool `mapstructure:"GEOFENCE_ON_CHECKOUT"`

	TracingEnabled       bool   `mapstructure:"TRACING_ENABLED"`
	OTelExporterEndpoint string `mapstructure:"OTEL_EXPORTER_ENDPOINT"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("DB_HOST", "db")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "attendance_db")
	viper.SetDefault("SERVER_PORT", "8080")

	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("AWS_ENDPOINT", "http://localstack:4566")
	viper.SetDefault("IS_LOCAL_DEV", false)
	viper.SetDefault("NOTIFICATION_SQS_QUEUE_URL", "http://localstack:4566/000000000000/notification-queue")
	viper.SetDefault("SES_SENDER", "no-reply@attendance.local")
	viper.SetDefault("NOTIFICATION_WORKER_COUNT", 5)
	viper.SetDefault("NOTIFICATION_MAX_ATTEMPTS", 5)

	viper.SetDefault("STORAGE_DRIVER", "postgres")
	viper.SetDefault("AUTO_MIGRATE", false)
	viper.SetDefault("JWT_SECRET", "")

	viper.SetDefault("REAPER_INTERVAL", time.Minute)
	viper.SetDefault("UNVERIFIED_ACCOUNT_TTL", 3*time.Minute)
	viper.SetDefault("REAPER_BATCH_SIZE", 100)

	viper.SetDefault("GEOFENCE_ON_CHECKOUT", true)

	viper.SetDefault("TRACING_ENABLED", true)
	viper.SetDefault("OTEL_EXPORTER_ENDPOINT", "otel-collector:4317")

	// Read in environment variables that match the keys.
	viper.AutomaticEnv()

	err = viper.Unmarshal(&config)
	return
}

// ValidateReaper rejects reaper settings that would stall or crash the sweep
// loop. time.NewTicker panics on a non-positive interval.
func (c Config) ValidateReaper() error {
	if c.ReaperInterval <= 0 {
		return fmt.Errorf("REAPER_INTERVAL must be positive, got %s", c.ReaperInterval)
	}
	if c.UnverifiedAccountTTL <= 0 {
		return fmt.Errorf("UNVERIFIED_ACCOUNT_TTL must be positive, got %s", c.UnverifiedAccountTTL)
	}
	if c.ReaperBatchSize <= 0 {
		return fmt.Errorf("REAPER_BATCH_SIZE must be positive, got %d", c.ReaperBatchSize)
	}
	return nil
}
