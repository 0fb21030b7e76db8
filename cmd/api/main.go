package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lessonfolio/lessonfolio-backend/api/routes"
	"github.com/lessonfolio/lessonfolio-backend/internal/access"
	"github.com/lessonfolio/lessonfolio-backend/internal/auth"
	"github.com/lessonfolio/lessonfolio-backend/internal/billing"
	"github.com/lessonfolio/lessonfolio-backend/internal/students"
	"github.com/lessonfolio/lessonfolio-backend/internal/teachers"
	stripewebhook "github.com/lessonfolio/lessonfolio-backend/internal/webhooks/stripe"
	"github.com/lessonfolio/lessonfolio-backend/pkg/config"
	"github.com/lessonfolio/lessonfolio-backend/pkg/db"
	"github.com/lessonfolio/lessonfolio-backend/pkg/logger"
	"github.com/lessonfolio/lessonfolio-backend/pkg/metrics"
	"github.com/lessonfolio/lessonfolio-backend/pkg/migrate"
	"github.com/lessonfolio/lessonfolio-backend/pkg/redis"
	pkgstripe "github.com/lessonfolio/lessonfolio-backend/pkg/stripe"
)

const webhookGuardScope = "stripe-webhook"

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to configure stripe client", err)
		os.Exit(1)
	}

	teacherRepo := teachers.NewRepository(dbClient.DB())
	billingRepo := billing.NewRepository(dbClient.DB())
	studentRepo := students.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		TeacherRepo:    teacherRepo,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		BillingConfig:  cfg.Billing,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	billingService, err := billing.NewService(billing.ServiceParams{
		TeacherRepo:  teacherRepo,
		StripeClient: billing.NewStripeClient(stripeClient),
		StripeConfig: cfg.Stripe,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create billing service", err)
		os.Exit(1)
	}

	studentService, err := students.NewService(students.ServiceParams{
		StudentRepo:       studentRepo,
		TeacherRepo:       teacherRepo,
		TransactionRunner: dbClient,
		PasswordConfig:    cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create student service", err)
		os.Exit(1)
	}

	accessService, err := access.NewService(access.ServiceParams{
		StudentRepo: studentRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create access service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		TeacherRepo:       teacherRepo,
		BillingRepo:       billingRepo,
		TransactionRunner: dbClient,
		BillingConfig:     cfg.Billing,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Billing.WebhookDedupTTL, webhookGuardScope)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	webhookMetrics := metrics.NewWebhookMetrics(prometheus.DefaultRegisterer)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"stripe_env": stripeClient.Environment(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:         cfg,
			Logger:         logg,
			DB:             dbClient,
			Redis:          redisClient,
			AuthService:    authService,
			BillingService: billingService,
			StudentService: studentService,
			AccessService:  accessService,
			StripeClient:   stripeClient,
			WebhookService: webhookService,
			WebhookGuard:   webhookGuard,
			WebhookMetrics: webhookMetrics,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
