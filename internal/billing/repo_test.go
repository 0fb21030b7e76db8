package billing

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgdb "github.com/lessonfolio/lessonfolio-backend/pkg/db"
	"github.com/lessonfolio/lessonfolio-backend/pkg/db/models"
	"github.com/lessonfolio/lessonfolio-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.BillingEvent{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return conn
}

func TestRecordEventRejectsDuplicateDeliveries(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	teacherID := uuid.New()
	first := &models.BillingEvent{
		StripeEventID: "evt_1",
		EventType:     "checkout.session.completed",
		TeacherID:     &teacherID,
		Outcome:       enums.BillingEventOutcomeApplied,
	}
	if err := repo.RecordEvent(ctx, first); err != nil {
		t.Fatalf("record event: %v", err)
	}

	dup := &models.BillingEvent{
		StripeEventID: "evt_1",
		EventType:     "checkout.session.completed",
		Outcome:       enums.BillingEventOutcomeApplied,
	}
	err := repo.RecordEvent(ctx, dup)
	if err == nil {
		t.Fatal("expected unique violation on redelivery")
	}
	if !pkgdb.IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
}

func TestFindByStripeEventID(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	event := &models.BillingEvent{
		StripeEventID: "evt_lookup",
		EventType:     "customer.subscription.deleted",
		Outcome:       enums.BillingEventOutcomeUnresolved,
	}
	if err := repo.RecordEvent(ctx, event); err != nil {
		t.Fatalf("record event: %v", err)
	}

	found, err := repo.FindByStripeEventID(ctx, "evt_lookup")
	if err != nil {
		t.Fatalf("find event: %v", err)
	}
	if found.Outcome != enums.BillingEventOutcomeUnresolved {
		t.Fatalf("unexpected outcome %s", found.Outcome)
	}

	if _, err := repo.FindByStripeEventID(ctx, "evt_missing"); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected record not found, got %v", err)
	}
}
