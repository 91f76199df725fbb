package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/physioflow/practice-api/internal/config"
	"github.com/physioflow/practice-api/internal/email"
	"github.com/physioflow/practice-api/internal/repository/postgres"
	"github.com/physioflow/practice-api/pkg/logger"
	messagingredis "github.com/physioflow/practice-api/pkg/messaging/redis"
	"github.com/physioflow/practice-api/pkg/metrics"
	"github.com/physioflow/practice-api/pkg/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// workerConfig is environment-driven; the worker ships without a config file.
type workerConfig struct {
	DatabaseHost     string        `envconfig:"DB_HOST" default:"localhost"`
	DatabasePort     int           `envconfig:"DB_PORT" default:"5432"`
	DatabaseUser     string        `envconfig:"DB_USER" default:"postgres"`
	DatabasePassword string        `envconfig:"DB_PASSWORD"`
	DatabaseName     string        `envconfig:"DB_NAME" default:"practice"`
	DatabaseSSLMode  string        `envconfig:"DB_SSL_MODE" default:"disable"`
	RedisURL         string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	SMTPHost         string        `envconfig:"SMTP_HOST"`
	SMTPPort         int           `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername     string        `envconfig:"SMTP_USERNAME"`
	SMTPPassword     string        `envconfig:"SMTP_PASSWORD"`
	SMTPFrom         string        `envconfig:"SMTP_FROM" default:"noreply@practice.local"`
	BatchSize        int           `envconfig:"BATCH_SIZE" default:"50"`
	PollInterval     time.Duration `envconfig:"POLL_INTERVAL" default:"5s"`
	MaxRetries       int           `envconfig:"MAX_RETRIES" default:"5"`
	MetricsPort      string        `envconfig:"METRICS_PORT" default:"9091"`
}

func main() {
	var cfg workerConfig
	if err := envconfig.Process("PRACTICE", &cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load worker config")
	}

	lg := logger.NewLogger(nil)

	db, err := postgres.NewDB(config.DatabaseConfig{
		Host:     cfg.DatabaseHost,
		Port:     cfg.DatabasePort,
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Name:     cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	})
	if err != nil {
		lg.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	brokerLogger := log.Logger
	broker, err := messagingredis.NewRedisBroker(messagingredis.Config{
		URL:          cfg.RedisURL,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     10,
		MinIdleConns: 2,
	}, &brokerLogger)
	if err != nil {
		lg.Fatal(err, "failed to connect to Redis")
	}
	defer broker.Close()

	var mailer email.Sender
	if cfg.SMTPHost != "" {
		mailer = email.NewSMTPSender(email.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	} else {
		lg.Warn("SMTP not configured, notification mail disabled")
	}

	m := metrics.NewMetrics("practice_worker")

	processor := worker.NewOutboxProcessor(
		postgres.NewOutboxRepository(db),
		broker,
		mailer,
		worker.OutboxProcessorConfig{
			BatchSize:    cfg.BatchSize,
			PollInterval: cfg.PollInterval,
			MaxRetries:   cfg.MaxRetries,
		},
		lg,
		m,
	)

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":"+cfg.MetricsPort, nil); err != nil && err != http.ErrServerClosed {
			lg.Error(err, "metrics server failed")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	go processor.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down worker")
	cancel()
}
