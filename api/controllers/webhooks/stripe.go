package webhooks

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/lessonfolio/lessonfolio-backend/api/responses"
	stripewebhook "github.com/lessonfolio/lessonfolio-backend/internal/webhooks/stripe"
	pkgerrors "github.com/lessonfolio/lessonfolio-backend/pkg/errors"
	"github.com/lessonfolio/lessonfolio-backend/pkg/logger"
	"github.com/lessonfolio/lessonfolio-backend/pkg/metrics"
)

type StripeWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) (stripewebhook.Disposition, error)
}

type stripeWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type stripeClient interface {
	SigningSecret() string
}

// StripeWebhook receives Stripe billing events. Signature verification runs
// against the raw body before anything else; a failed check returns non-2xx
// with no state change. Verified events are acknowledged 2xx even when they
// are duplicates or reference no known teacher, because redelivery cannot
// improve either outcome.
func StripeWebhook(svc StripeWebhookService, client stripeClient, guard stripeWebhookGuard, collector *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stripe client unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeSignatureInvalid, "stripe signature missing"))
			return
		}

		event, err := webhook.ConstructEvent(payload, sigHeader, client.SigningSecret())
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeSignatureInvalid, err, "verify signature"))
			return
		}

		if logg != nil {
			ctx = logg.WithEventID(ctx, event.ID)
		}

		// Redis fast path; the billing_events ledger remains authoritative
		// after the key expires.
		if guard != nil {
			alreadyProcessed, err := guard.CheckAndMark(ctx, event.ID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if alreadyProcessed {
				collector.IncDuplicate(string(event.Type))
				responses.WriteSuccess(w, map[string]string{"status": string(stripewebhook.DispositionDuplicate)})
				return
			}
		}

		start := time.Now()
		disposition, err := svc.HandleEvent(ctx, &event)
		if err != nil {
			// Clear the mark so the sender's redelivery gets a clean retry.
			if guard != nil {
				_ = guard.Delete(ctx, event.ID)
			}
			collector.IncFailure(string(event.Type))
			responses.WriteError(ctx, logg, w, err)
			return
		}
		collector.ObserveDuration(string(event.Type), time.Since(start))

		switch disposition {
		case stripewebhook.DispositionApplied:
			collector.IncProcessed(string(event.Type))
		case stripewebhook.DispositionDuplicate:
			collector.IncDuplicate(string(event.Type))
		case stripewebhook.DispositionUnresolved:
			collector.IncUnresolved(string(event.Type))
		}

		if logg != nil {
			ctx = logg.WithField(ctx, "disposition", string(disposition))
			logg.Info(ctx, "webhook.processed")
		}
		responses.WriteSuccess(w, map[string]string{"status": string(disposition)})
	}
}
