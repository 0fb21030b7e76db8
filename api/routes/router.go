package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lessonfolio/lessonfolio-backend/api/controllers"
	webhookcontrollers "github.com/lessonfolio/lessonfolio-backend/api/controllers/webhooks"
	"github.com/lessonfolio/lessonfolio-backend/api/middleware"
	"github.com/lessonfolio/lessonfolio-backend/internal/access"
	"github.com/lessonfolio/lessonfolio-backend/internal/auth"
	"github.com/lessonfolio/lessonfolio-backend/internal/billing"
	"github.com/lessonfolio/lessonfolio-backend/internal/students"
	stripewebhook "github.com/lessonfolio/lessonfolio-backend/internal/webhooks/stripe"
	"github.com/lessonfolio/lessonfolio-backend/pkg/config"
	"github.com/lessonfolio/lessonfolio-backend/pkg/db"
	"github.com/lessonfolio/lessonfolio-backend/pkg/logger"
	"github.com/lessonfolio/lessonfolio-backend/pkg/metrics"
	"github.com/lessonfolio/lessonfolio-backend/pkg/redis"
	"github.com/lessonfolio/lessonfolio-backend/pkg/stripe"
)

// RouterParams collects everything the HTTP surface depends on.
type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             *db.Client
	Redis          *redis.Client
	AuthService    auth.Service
	BillingService *billing.Service
	StudentService *students.Service
	AccessService  *access.Service
	StripeClient   *stripe.Client
	WebhookService *stripewebhook.Service
	WebhookGuard   *stripewebhook.IdempotencyGuard
	WebhookMetrics *metrics.WebhookMetrics
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readinessDeps(p.DB, p.Redis)))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", stripeWebhookHandler(p, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(p.AuthService, logg))
		r.Post("/login", controllers.AuthLogin(p.AuthService, logg))
	})

	// Public profile gate; no credentials, boolean answer only.
	r.Post("/api/v1/profiles/{studentId}/access", controllers.ProfileAccess(p.AccessService, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/billing", func(r chi.Router) {
			r.Post("/checkout", controllers.BillingCheckout(p.BillingService, logg))
			r.Get("/entitlement", controllers.BillingEntitlement(p.BillingService, logg))
		})

		r.Route("/students", func(r chi.Router) {
			r.Get("/capacity", controllers.StudentsCapacity(p.StudentService, logg))
			r.Post("/", controllers.StudentsCreate(p.StudentService, logg))
			r.Get("/", controllers.StudentsList(p.StudentService, logg))
			r.Delete("/{studentId}", controllers.StudentsDelete(p.StudentService, logg))
		})
	})

	return r
}

// stripeWebhookHandler wires the webhook controller without handing it typed
// nil pointers for the optional collaborators.
func stripeWebhookHandler(p RouterParams, logg *logger.Logger) http.HandlerFunc {
	var svc webhookcontrollers.StripeWebhookService
	if p.WebhookService != nil {
		svc = p.WebhookService
	}
	if p.StripeClient == nil || p.WebhookGuard == nil {
		if p.StripeClient == nil {
			return webhookcontrollers.StripeWebhook(svc, nil, nil, p.WebhookMetrics, logg)
		}
		return webhookcontrollers.StripeWebhook(svc, p.StripeClient, nil, p.WebhookMetrics, logg)
	}
	return webhookcontrollers.StripeWebhook(svc, p.StripeClient, p.WebhookGuard, p.WebhookMetrics, logg)
}

func readinessDeps(dbClient *db.Client, redisClient *redis.Client) map[string]controllers.Pinger {
	deps := map[string]controllers.Pinger{}
	if dbClient != nil {
		deps["database"] = dbClient
	}
	if redisClient != nil {
		deps["redis"] = redisClient
	}
	return deps
}
