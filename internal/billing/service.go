package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/lessonfolio/lessonfolio-backend/internal/teachers"
	"github.com/lessonfolio/lessonfolio-backend/pkg/config"
	"github.com/lessonfolio/lessonfolio-backend/pkg/db/models"
	"github.com/lessonfolio/lessonfolio-backend/pkg/enums"
	pkgerrors "github.com/lessonfolio/lessonfolio-backend/pkg/errors"
)

const teacherIDMetadataKey = "teacher_id"

// ServiceParams groups the dependencies of the billing service.
type ServiceParams struct {
	TeacherRepo  teachers.Repository
	StripeClient StripeCheckoutClient
	StripeConfig config.StripeConfig
}

// Service starts checkout sessions and reads entitlement state. Entitlement
// writes happen exclusively in the webhook processor; this service never
// mutates subscription fields other than the one-time customer id claim.
type Service struct {
	teacherRepo teachers.Repository
	stripe      StripeCheckoutClient
	cfg         config.StripeConfig
}

// CheckoutSession is the hosted-checkout handoff returned to the frontend.
type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// EntitlementView is the teacher-facing snapshot of billing state.
type EntitlementView struct {
	Status       enums.SubscriptionStatus `json:"status"`
	Tier         enums.SubscriptionTier   `json:"tier"`
	MaxStudents  int                      `json:"max_students"`
	StudentCount int64                    `json:"student_count"`
	Unlimited    bool                     `json:"unlimited"`
}

func NewService(params ServiceParams) (*Service, error) {
	if params.TeacherRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "teacher repo required")
	}
	if params.StripeClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	if params.StripeConfig.SubscriptionPriceID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "subscription price id required")
	}
	return &Service{
		teacherRepo: params.TeacherRepo,
		stripe:      params.StripeClient,
		cfg:         params.StripeConfig,
	}, nil
}

// StartCheckout ensures the teacher has a Stripe customer and opens a hosted
// checkout session for the studio subscription. Entitlement state does not
// change here; activation arrives later through the webhook processor.
func (s *Service) StartCheckout(ctx context.Context, teacherID uuid.UUID) (*CheckoutSession, error) {
	teacher, err := s.teacherRepo.FindByID(ctx, teacherID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "teacher not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load teacher")
	}

	if teacher.SubscriptionStatus == enums.SubscriptionStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "subscription already active")
	}

	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	customerID, err := s.ensureCustomer(ctx, teacher)
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:   stripe.String(customerID),
		SuccessURL: stripe.String(s.cfg.CheckoutSuccessURL),
		CancelURL:  stripe.String(s.cfg.CheckoutCancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.cfg.SubscriptionPriceID),
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			teacherIDMetadataKey: teacher.ID.String(),
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				teacherIDMetadataKey: teacher.ID.String(),
			},
		},
	}

	session, err := s.stripe.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}
	if session == nil || session.URL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "checkout session missing redirect url")
	}

	return &CheckoutSession{SessionID: session.ID, URL: session.URL}, nil
}

// ensureCustomer returns the teacher's Stripe customer id, creating one on
// first checkout. A concurrent checkout can win the claim; the loser re-reads
// and reuses the stored id, leaving at most one orphaned Stripe customer.
func (s *Service) ensureCustomer(ctx context.Context, teacher *models.Teacher) (string, error) {
	if teacher.StripeCustomerID != nil && *teacher.StripeCustomerID != "" {
		return *teacher.StripeCustomerID, nil
	}

	created, err := s.stripe.CreateCustomer(ctx, &stripe.CustomerParams{
		Email: stripe.String(teacher.Email),
		Name:  stripe.String(teacher.DisplayName),
		Metadata: map[string]string{
			teacherIDMetadataKey: teacher.ID.String(),
		},
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stripe customer")
	}
	if created == nil || created.ID == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "stripe customer missing id")
	}

	claimed, err := s.teacherRepo.ClaimStripeCustomerID(ctx, teacher.ID, created.ID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store stripe customer id")
	}
	if claimed {
		return created.ID, nil
	}

	stored, err := s.teacherRepo.FindByID(ctx, teacher.ID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload teacher")
	}
	if stored.StripeCustomerID == nil || *stored.StripeCustomerID == "" {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "customer claim lost but no stored id")
	}
	return *stored.StripeCustomerID, nil
}

// Entitlement returns the teacher's current billing snapshot.
func (s *Service) Entitlement(ctx context.Context, teacherID uuid.UUID) (*EntitlementView, error) {
	teacher, err := s.teacherRepo.FindByID(ctx, teacherID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "teacher not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load teacher")
	}

	count, err := s.teacherRepo.CountStudents(ctx, teacherID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count students")
	}

	return &EntitlementView{
		Status:       teacher.SubscriptionStatus,
		Tier:         teacher.SubscriptionTier,
		MaxStudents:  teacher.MaxStudents,
		StudentCount: count,
		Unlimited:    teacher.HasUnlimitedStudents(),
	}, nil
}
