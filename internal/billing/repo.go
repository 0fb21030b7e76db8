package billing

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lessonfolio/lessonfolio-backend/pkg/db/models"
)

// Repository handles the billing event ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	RecordEvent(ctx context.Context, event *models.BillingEvent) error
	FindByStripeEventID(ctx context.Context, stripeEventID string) (*models.BillingEvent, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a billing ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// RecordEvent inserts a ledger row for a processed delivery. The unique index
// on stripe_event_id rejects redeliveries; callers check the error with
// db.IsUniqueViolation.
func (r *repository) RecordEvent(ctx context.Context, event *models.BillingEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) FindByStripeEventID(ctx context.Context, stripeEventID string) (*models.BillingEvent, error) {
	var event models.BillingEvent
	if err := r.db.WithContext(ctx).
		First(&event, "stripe_event_id = ?", stripeEventID).Error; err != nil {
		return nil, err
	}
	return &event, nil
}
