package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/lessonfolio/lessonfolio-backend/internal/billing"
	"github.com/lessonfolio/lessonfolio-backend/internal/teachers"
	"github.com/lessonfolio/lessonfolio-backend/pkg/config"
	pkgdb "github.com/lessonfolio/lessonfolio-backend/pkg/db"
	"github.com/lessonfolio/lessonfolio-backend/pkg/db/models"
	"github.com/lessonfolio/lessonfolio-backend/pkg/enums"
	pkgerrors "github.com/lessonfolio/lessonfolio-backend/pkg/errors"
	"github.com/lessonfolio/lessonfolio-backend/pkg/logger"
)

const teacherIDMetadataKey = "teacher_id"

// Disposition describes what a delivery did to entitlement state.
type Disposition string

const (
	// DispositionApplied means the event produced an entitlement write.
	DispositionApplied Disposition = "applied"
	// DispositionDuplicate means the event id was already in the ledger.
	DispositionDuplicate Disposition = "duplicate"
	// DispositionUnresolved means no teacher account matched; the event was
	// ledgered and acknowledged so Stripe stops redelivering it.
	DispositionUnresolved Disposition = "unresolved"
	// DispositionSkipped means the event type is not one we react to.
	DispositionSkipped Disposition = "skipped"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups the dependencies of the webhook processor.
type ServiceParams struct {
	TeacherRepo       teachers.Repository
	BillingRepo       billing.Repository
	TransactionRunner txRunner
	BillingConfig     config.BillingConfig
	Logger            *logger.Logger
}

// Service applies verified Stripe events to teacher entitlement state.
//
// Every handled event runs in one transaction: a ledger insert keyed by the
// Stripe event id plus a single full-field entitlement UPDATE. Redelivery
// hits the ledger's unique index and rolls back before touching state, which
// is what keeps a replayed checkout event from resurrecting a canceled
// subscription.
type Service struct {
	teacherRepo teachers.Repository
	billingRepo billing.Repository
	txRunner    txRunner
	freeLimit   int
	logg        *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.TeacherRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "teacher repo required")
	}
	if params.BillingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing repo required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	limit := params.BillingConfig.FreeStudentLimit
	if limit <= 0 {
		limit = models.FreeStudentLimit
	}
	return &Service{
		teacherRepo: params.TeacherRepo,
		billingRepo: params.BillingRepo,
		txRunner:    params.TransactionRunner,
		freeLimit:   limit,
		logg:        params.Logger,
	}, nil
}

var errDuplicateDelivery = errors.New("duplicate delivery")

// HandleEvent routes a verified Stripe event. A nil error means the delivery
// may be acknowledged; the disposition says what actually happened.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) (Disposition, error) {
	if event == nil || event.Data == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session event")
		}
		return s.applyCheckoutCompleted(ctx, event, &session)
	case stripe.EventTypeCustomerSubscriptionUpdated, stripe.EventTypeCustomerSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode subscription event")
		}
		return s.applySubscriptionChange(ctx, event, &sub)
	default:
		return DispositionSkipped, nil
	}
}

// applyCheckoutCompleted activates the studio tier. The teacher is resolved
// from session metadata because the customer mapping may not be stored yet
// when Stripe fires the first event.
func (s *Service) applyCheckoutCompleted(ctx context.Context, event *stripe.Event, session *stripe.CheckoutSession) (Disposition, error) {
	teacherID, ok := teacherIDFromMetadata(session.Metadata)
	if !ok {
		return s.recordUnresolved(ctx, event)
	}

	var subscriptionID *string
	if session.Subscription != nil && session.Subscription.ID != "" {
		id := session.Subscription.ID
		subscriptionID = &id
	}

	disposition := DispositionApplied
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		teacherRepo := s.teacherRepo.WithTx(tx)
		if _, err := teacherRepo.FindByID(ctx, teacherID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errUnresolvedTeacher
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load teacher")
		}

		if err := s.recordInTx(ctx, tx, event, &teacherID, enums.BillingEventOutcomeApplied); err != nil {
			return err
		}

		return teacherRepo.ApplyEntitlement(ctx, teacherID, teachers.Entitlement{
			Status:               enums.SubscriptionStatusActive,
			Tier:                 enums.SubscriptionTierStudio,
			MaxStudents:          models.UnlimitedStudents,
			StripeSubscriptionID: subscriptionID,
		})
	})
	return s.finish(ctx, event, disposition, err)
}

// applySubscriptionChange maps a subscription lifecycle event onto the
// entitlement invariant: studio tier iff the subscription is active,
// otherwise free tier with the free-plan student cap.
func (s *Service) applySubscriptionChange(ctx context.Context, event *stripe.Event, sub *stripe.Subscription) (Disposition, error) {
	disposition := DispositionApplied
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		teacherRepo := s.teacherRepo.WithTx(tx)

		teacher, err := s.resolveSubscriptionTeacher(ctx, teacherRepo, sub)
		if err != nil {
			return err
		}

		if err := s.recordInTx(ctx, tx, event, &teacher.ID, enums.BillingEventOutcomeApplied); err != nil {
			return err
		}

		ent := s.entitlementFor(event, sub)
		return teacherRepo.ApplyEntitlement(ctx, teacher.ID, ent)
	})
	return s.finish(ctx, event, disposition, err)
}

var errUnresolvedTeacher = errors.New("unresolved teacher")

// resolveSubscriptionTeacher maps a subscription object back to its owner via
// the stored subscription id. Metadata is only a fallback; unlike the checkout
// completion event, lifecycle events always follow a stored mapping.
func (s *Service) resolveSubscriptionTeacher(ctx context.Context, repo teachers.Repository, sub *stripe.Subscription) (*models.Teacher, error) {
	if sub.ID != "" {
		teacher, err := repo.FindByStripeSubscriptionID(ctx, sub.ID)
		if err == nil {
			return teacher, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup subscription")
		}
	}

	if teacherID, ok := teacherIDFromMetadata(sub.Metadata); ok {
		teacher, err := repo.FindByID(ctx, teacherID)
		if err == nil {
			return teacher, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load teacher")
		}
	}

	return nil, errUnresolvedTeacher
}

func (s *Service) entitlementFor(event *stripe.Event, sub *stripe.Subscription) teachers.Entitlement {
	var subscriptionID *string
	if sub.ID != "" {
		id := sub.ID
		subscriptionID = &id
	}

	// Deletion returns the teacher to the starting free state; they can
	// check out again later. The canceled status is reserved for update
	// events that report it while the subscription object still exists.
	if event.Type == stripe.EventTypeCustomerSubscriptionDeleted {
		return teachers.Entitlement{
			Status:      enums.SubscriptionStatusFree,
			Tier:        enums.SubscriptionTierFree,
			MaxStudents: s.freeLimit,
		}
	}

	switch sub.Status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return teachers.Entitlement{
			Status:               enums.SubscriptionStatusActive,
			Tier:                 enums.SubscriptionTierStudio,
			MaxStudents:          models.UnlimitedStudents,
			StripeSubscriptionID: subscriptionID,
		}
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		return teachers.Entitlement{
			Status:               enums.SubscriptionStatusPastDue,
			Tier:                 enums.SubscriptionTierFree,
			MaxStudents:          s.freeLimit,
			StripeSubscriptionID: subscriptionID,
		}
	default:
		return teachers.Entitlement{
			Status:               enums.SubscriptionStatusCanceled,
			Tier:                 enums.SubscriptionTierFree,
			MaxStudents:          s.freeLimit,
			StripeSubscriptionID: subscriptionID,
		}
	}
}

// recordInTx inserts the ledger row that makes this delivery idempotent.
func (s *Service) recordInTx(ctx context.Context, tx *gorm.DB, event *stripe.Event, teacherID *uuid.UUID, outcome enums.BillingEventOutcome) error {
	err := s.billingRepo.WithTx(tx).RecordEvent(ctx, &models.BillingEvent{
		StripeEventID: event.ID,
		EventType:     string(event.Type),
		TeacherID:     teacherID,
		Outcome:       outcome,
	})
	if err != nil {
		if pkgdb.IsUniqueViolation(err) {
			return errDuplicateDelivery
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record billing event")
	}
	return nil
}

// recordUnresolved ledgers an event that mentions no known teacher and
// acknowledges it. Warn-level log so the account mismatch is visible.
func (s *Service) recordUnresolved(ctx context.Context, event *stripe.Event) (Disposition, error) {
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		return s.recordInTx(ctx, tx, event, nil, enums.BillingEventOutcomeUnresolved)
	})
	if errors.Is(err, errDuplicateDelivery) {
		return DispositionDuplicate, nil
	}
	if err != nil {
		return "", err
	}
	if s.logg != nil {
		ctx = s.logg.WithEventID(ctx, event.ID)
		s.logg.Warn(ctx, "webhook.teacher_unresolved")
	}
	return DispositionUnresolved, nil
}

func (s *Service) finish(ctx context.Context, event *stripe.Event, disposition Disposition, err error) (Disposition, error) {
	if errors.Is(err, errDuplicateDelivery) {
		return DispositionDuplicate, nil
	}
	if errors.Is(err, errUnresolvedTeacher) {
		return s.recordUnresolved(ctx, event)
	}
	if err != nil {
		return "", err
	}
	return disposition, nil
}

func teacherIDFromMetadata(metadata map[string]string) (uuid.UUID, bool) {
	raw, ok := metadata[teacherIDMetadataKey]
	if !ok || raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
