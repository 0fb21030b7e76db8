package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/lessonfolio/lessonfolio-backend/internal/teachers"
	"github.com/lessonfolio/lessonfolio-backend/pkg/config"
	"github.com/lessonfolio/lessonfolio-backend/pkg/db/models"
	"github.com/lessonfolio/lessonfolio-backend/pkg/enums"
	pkgerrors "github.com/lessonfolio/lessonfolio-backend/pkg/errors"
)

type stubTeacherRepo struct {
	teacher      *models.Teacher
	claimOK      bool
	claimErr     error
	claimedID    string
	claimLostID  string
	studentCount int64
}

func (s *stubTeacherRepo) WithTx(tx *gorm.DB) teachers.Repository { return s }

func (s *stubTeacherRepo) Create(ctx context.Context, teacher *models.Teacher) error { return nil }

func (s *stubTeacherRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Teacher, error) {
	if s.teacher == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.teacher
	return &copied, nil
}

func (s *stubTeacherRepo) FindByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubTeacherRepo) FindByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*models.Teacher, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubTeacherRepo) ClaimStripeCustomerID(ctx context.Context, teacherID uuid.UUID, customerID string) (bool, error) {
	if s.claimErr != nil {
		return false, s.claimErr
	}
	if s.claimOK {
		s.claimedID = customerID
		s.teacher.StripeCustomerID = &customerID
	} else if s.claimLostID != "" {
		s.teacher.StripeCustomerID = &s.claimLostID
	}
	return s.claimOK, nil
}

func (s *stubTeacherRepo) ApplyEntitlement(ctx context.Context, teacherID uuid.UUID, ent teachers.Entitlement) error {
	return nil
}

func (s *stubTeacherRepo) CountStudents(ctx context.Context, teacherID uuid.UUID) (int64, error) {
	return s.studentCount, nil
}

type stubStripeClient struct {
	customer        *stripe.Customer
	customerErr     error
	customerCalls   int
	session         *stripe.CheckoutSession
	sessionErr      error
	capturedSession *stripe.CheckoutSessionParams
}

func (s *stubStripeClient) CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error) {
	s.customerCalls++
	if s.customerErr != nil {
		return nil, s.customerErr
	}
	return s.customer, nil
}

func (s *stubStripeClient) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	s.capturedSession = params
	if s.sessionErr != nil {
		return nil, s.sessionErr
	}
	return s.session, nil
}

func freeTeacher() *models.Teacher {
	return &models.Teacher{
		ID:                 uuid.New(),
		Email:              "teacher@example.com",
		DisplayName:        "Ms. Rivera",
		SubscriptionStatus: enums.SubscriptionStatusFree,
		SubscriptionTier:   enums.SubscriptionTierFree,
		MaxStudents:        models.FreeStudentLimit,
	}
}

func stripeTestConfig() config.StripeConfig {
	return config.StripeConfig{
		SubscriptionPriceID: "price_studio",
		CheckoutSuccessURL:  "https://app.lessonfolio.com/billing/success",
		CheckoutCancelURL:   "https://app.lessonfolio.com/billing/cancel",
	}
}

func TestStartCheckoutCreatesCustomerAndSession(t *testing.T) {
	repo := &stubTeacherRepo{teacher: freeTeacher(), claimOK: true}
	client := &stubStripeClient{
		customer: &stripe.Customer{ID: "cus_123"},
		session:  &stripe.CheckoutSession{ID: "cs_123", URL: "https://checkout.stripe.com/cs_123"},
	}
	svc, err := NewService(ServiceParams{TeacherRepo: repo, StripeClient: client, StripeConfig: stripeTestConfig()})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	out, err := svc.StartCheckout(context.Background(), repo.teacher.ID)
	if err != nil {
		t.Fatalf("start checkout: %v", err)
	}
	if out.URL != "https://checkout.stripe.com/cs_123" {
		t.Fatalf("unexpected url %s", out.URL)
	}
	if repo.claimedID != "cus_123" {
		t.Fatalf("expected customer claim, got %q", repo.claimedID)
	}
	params := client.capturedSession
	if params == nil {
		t.Fatal("expected checkout session params")
	}
	if params.Metadata[teacherIDMetadataKey] != repo.teacher.ID.String() {
		t.Fatalf("expected teacher id in session metadata, got %v", params.Metadata)
	}
	if params.SubscriptionData == nil || params.SubscriptionData.Metadata[teacherIDMetadataKey] != repo.teacher.ID.String() {
		t.Fatal("expected teacher id in subscription metadata")
	}
	if *params.LineItems[0].Price != "price_studio" {
		t.Fatalf("unexpected price %s", *params.LineItems[0].Price)
	}
}

func TestStartCheckoutReusesExistingCustomer(t *testing.T) {
	teacher := freeTeacher()
	existing := "cus_existing"
	teacher.StripeCustomerID = &existing

	repo := &stubTeacherRepo{teacher: teacher}
	client := &stubStripeClient{
		session: &stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/cs_1"},
	}
	svc, err := NewService(ServiceParams{TeacherRepo: repo, StripeClient: client, StripeConfig: stripeTestConfig()})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.StartCheckout(context.Background(), teacher.ID); err != nil {
		t.Fatalf("start checkout: %v", err)
	}
	if client.customerCalls != 0 {
		t.Fatalf("expected no customer creation, got %d calls", client.customerCalls)
	}
	if got := *client.capturedSession.Customer; got != existing {
		t.Fatalf("expected session customer %s, got %s", existing, got)
	}
}

func TestStartCheckoutRejectsActiveSubscription(t *testing.T) {
	teacher := freeTeacher()
	teacher.SubscriptionStatus = enums.SubscriptionStatusActive
	teacher.SubscriptionTier = enums.SubscriptionTierStudio

	repo := &stubTeacherRepo{teacher: teacher}
	svc, err := NewService(ServiceParams{TeacherRepo: repo, StripeClient: &stubStripeClient{}, StripeConfig: stripeTestConfig()})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.StartCheckout(context.Background(), teacher.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestStartCheckoutLostClaimReusesStoredCustomer(t *testing.T) {
	teacher := freeTeacher()
	// The concurrent winner stores its id before the loser's claim lands.
	repo := &stubTeacherRepo{teacher: teacher, claimOK: false, claimLostID: "cus_winner"}
	client := &stubStripeClient{
		customer: &stripe.Customer{ID: "cus_loser"},
		session:  &stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/cs_1"},
	}
	svc, err := NewService(ServiceParams{TeacherRepo: repo, StripeClient: client, StripeConfig: stripeTestConfig()})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.StartCheckout(context.Background(), teacher.ID); err != nil {
		t.Fatalf("start checkout: %v", err)
	}
	if got := *client.capturedSession.Customer; got != "cus_winner" {
		t.Fatalf("expected reuse of stored customer cus_winner, got %s", got)
	}
}

func TestStartCheckoutStripeFailureIsDependencyError(t *testing.T) {
	repo := &stubTeacherRepo{teacher: freeTeacher(), claimOK: true}
	client := &stubStripeClient{
		customer:   &stripe.Customer{ID: "cus_1"},
		sessionErr: errors.New("stripe down"),
	}
	svc, err := NewService(ServiceParams{TeacherRepo: repo, StripeClient: client, StripeConfig: stripeTestConfig()})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.StartCheckout(context.Background(), repo.teacher.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestEntitlementSnapshot(t *testing.T) {
	teacher := freeTeacher()
	repo := &stubTeacherRepo{teacher: teacher, studentCount: 2}
	svc, err := NewService(ServiceParams{TeacherRepo: repo, StripeClient: &stubStripeClient{}, StripeConfig: stripeTestConfig()})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	view, err := svc.Entitlement(context.Background(), teacher.ID)
	if err != nil {
		t.Fatalf("entitlement: %v", err)
	}
	if view.Status != enums.SubscriptionStatusFree || view.Tier != enums.SubscriptionTierFree {
		t.Fatalf("unexpected snapshot %+v", view)
	}
	if view.StudentCount != 2 || view.MaxStudents != models.FreeStudentLimit || view.Unlimited {
		t.Fatalf("unexpected capacity fields %+v", view)
	}
}
