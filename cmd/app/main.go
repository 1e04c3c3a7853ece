package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"interpreter-booking/internal/application"
	"interpreter-booking/internal/config"
	"interpreter-booking/internal/domain/ports/adapter"
	mailAdapter "interpreter-booking/internal/infra/adapters/mail"
	pushAdapter "interpreter-booking/internal/infra/adapters/push"
	smsAdapter "interpreter-booking/internal/infra/adapters/sms"
	"interpreter-booking/internal/infra/api"
	pg "interpreter-booking/internal/infra/db/postgres"
	"interpreter-booking/internal/infra/expiry"
	"interpreter-booking/internal/infra/i18n"
	"interpreter-booking/internal/infra/logging"
	"interpreter-booking/internal/infra/metrics"
	red "interpreter-booking/internal/infra/redis"
	"interpreter-booking/internal/infra/sched"
	"interpreter-booking/internal/usecase"
)

var version = "dev"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, runtime.Version())

	// ---- Postgres ----
	if err := pg.Migrate(cfg.Database.URL); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}
	pool, err := pg.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	eventBus := red.NewEventBus(redisClient, logger)

	// ---- Repositories ----
	txm := pg.NewTxManager(pool, logger)
	jobRepo := pg.NewJobRepo(pool, logger)
	assignRepo := pg.NewAssignmentRepo(pool, logger)
	userRepo := pg.NewUserRepo(pool, logger)
	langRepo := pg.NewLanguageRepo(pool, logger)
	distRepo := pg.NewDistanceRepo(pool, logger)
	auditRepo := pg.NewAuditRepo(pool, logger)

	// ---- Outbound adapters ----
	var pushGW adapter.PushGateway = pushAdapter.NewOneSignalGateway(cfg.Push, logger)
	var smsGW adapter.SMSGateway
	if cfg.SMS.URL == "" {
		smsGW = smsAdapter.NewNoopGateway(logger)
	} else {
		smsGW = smsAdapter.NewGateway(cfg.SMS, logger)
	}
	var mailer adapter.Mailer
	if cfg.Mail.URL == "" {
		mailer = mailAdapter.NewNoopMailer(logger)
	} else {
		mailer = mailAdapter.NewMailer(cfg.Mail, logger)
	}

	policy := expiry.NewPolicy(cfg.Booking)
	translator, err := i18n.NewTranslator("sv")
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n")
	}

	// ---- Use cases ----
	matchUC := usecase.NewMatchingUseCase(jobRepo, userRepo, logger)
	dispatcher := usecase.NewNotificationDispatcher(
		userRepo, langRepo, matchUC, pushGW, smsGW, mailer, policy, translator,
		cfg.SMS.Sender, logger)
	bookingUC := usecase.NewBookingUseCase(
		txm, jobRepo, userRepo, auditRepo, assignRepo, dispatcher, eventBus,
		policy, cfg.Booking.ImmediateGrace, logger)
	lifecycleUC := usecase.NewLifecycleUseCase(
		txm, jobRepo, assignRepo, userRepo, langRepo, auditRepo, dispatcher,
		matchUC, eventBus, policy, translator, cfg.Booking.SupportPhone, logger)
	sweepUC := usecase.NewSweepUseCase(
		txm, jobRepo, assignRepo, userRepo, langRepo, auditRepo, dispatcher,
		eventBus, logger)
	distanceUC := usecase.NewDistanceUseCase(jobRepo, distRepo, logger)
	app := application.New(bookingUC, lifecycleUC, matchUC, dispatcher, sweepUC, distanceUC)

	// ---- Workers ----
	worker := sched.NewSweepWorker(cfg.Booking.SweepInterval, cfg.Booking.RemindWindow, app.Sweep, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- Ops server ----
	opsServer := api.NewServer(pool, redisClient, logger)
	go func() {
		if err := opsServer.Listen(ctx, cfg.Ops.Port); err != nil {
			logger.Error().Err(err).Msg("ops server stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
}
