package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/physioflow/practice-api/internal/config"
	"github.com/physioflow/practice-api/internal/email"
	appointmenthandler "github.com/physioflow/practice-api/internal/handler/appointment"
	audithandler "github.com/physioflow/practice-api/internal/handler/audit"
	authhandler "github.com/physioflow/practice-api/internal/handler/auth"
	patienthandler "github.com/physioflow/practice-api/internal/handler/patient"
	reporthandler "github.com/physioflow/practice-api/internal/handler/report"
	therapisthandler "github.com/physioflow/practice-api/internal/handler/therapist"
	transferhandler "github.com/physioflow/practice-api/internal/handler/transfer"
	"github.com/physioflow/practice-api/internal/middleware"
	"github.com/physioflow/practice-api/internal/repository/postgres"
	"github.com/physioflow/practice-api/internal/router"
	appointmentsvc "github.com/physioflow/practice-api/internal/service/appointment"
	auditsvc "github.com/physioflow/practice-api/internal/service/audit"
	authsvc "github.com/physioflow/practice-api/internal/service/auth"
	notificationsvc "github.com/physioflow/practice-api/internal/service/notification"
	patientsvc "github.com/physioflow/practice-api/internal/service/patient"
	reportsvc "github.com/physioflow/practice-api/internal/service/report"
	therapistsvc "github.com/physioflow/practice-api/internal/service/therapist"
	transfersvc "github.com/physioflow/practice-api/internal/service/transfer"
	"github.com/physioflow/practice-api/pkg/auth"
	"github.com/physioflow/practice-api/pkg/logger"
	messagingredis "github.com/physioflow/practice-api/pkg/messaging/redis"
	"github.com/physioflow/practice-api/pkg/metrics"
	"github.com/physioflow/practice-api/pkg/security"
	"github.com/physioflow/practice-api/pkg/worker"
)

func main() {
	cfg, err := config.Load("./config")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if err := middleware.RegisterValidations(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validations")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnLifetime)

	m := metrics.NewMetrics("practice_api")

	// Repositories.
	patientRepo := postgres.NewPatientRepository(db)
	therapistRepo := postgres.NewTherapistRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	availabilityRepo := postgres.NewAvailabilityRepository(db)
	reportRepo := postgres.NewReportRepository(db)
	transferRepo := postgres.NewTransferRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	// Shared infrastructure.
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.RefreshSecret, cfg.JWT.ExpiryHours, cfg.JWT.RefreshExpiryHours)
	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)

	// Services.
	auditor := auditsvc.NewService(auditRepo)
	notifier := notificationsvc.NewService(outboxRepo)
	authService := authsvc.NewService(therapistRepo, jwtSvc, hasher)
	patientService := patientsvc.NewService(patientRepo, therapistRepo, auditor)
	therapistService := therapistsvc.NewService(therapistRepo, availabilityRepo, hasher, auditor)
	appointmentService := appointmentsvc.NewService(appointmentRepo, availabilityRepo, patientRepo, therapistRepo, notifier, auditor)
	transferService := transfersvc.NewService(transferRepo, appointmentRepo, availabilityRepo, therapistRepo, patientRepo, auditor, m)
	reportService := reportsvc.NewService(reportRepo, patientRepo, therapistRepo, notifier, auditor)

	engine := router.New(cfg, db, jwtSvc, router.Handlers{
		Auth:        authhandler.NewHandler(authService),
		Patient:     patienthandler.NewHandler(patientService),
		Therapist:   therapisthandler.NewHandler(therapistService),
		Appointment: appointmenthandler.NewHandler(appointmentService),
		Transfer:    transferhandler.NewHandler(transferService),
		Report:      reporthandler.NewHandler(reportService),
		Audit:       audithandler.NewHandler(auditor),
	})

	// Dispatch outbox events in-process. The processor atomically claims
	// events, so a standalone worker can run alongside; both carry the
	// mailer so no claimed notification goes unmailed.
	brokerLogger := log.Logger
	broker, err := messagingredis.NewRedisBroker(messagingredis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &brokerLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	var mailer email.Sender
	if cfg.SMTP.Host != "" {
		mailer = email.NewSMTPSender(email.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		log.Warn().Msg("SMTP not configured, notification mail disabled")
	}

	processorLogger := logger.NewLogger(&logger.Config{
		Level:      level,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	})

	processorCtx, stopProcessor := context.WithCancel(context.Background())
	defer stopProcessor()
	processor := worker.NewOutboxProcessor(outboxRepo, broker, mailer, worker.OutboxProcessorConfig{}, processorLogger, m)
	go processor.Start(processorCtx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
