package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lessonfolio/lessonfolio-backend/pkg/enums"
)

// BillingEvent is the durable dedup ledger for Stripe webhook deliveries.
// The unique index on StripeEventID is what makes event application
// idempotent: the ledger row is inserted in the same transaction as the
// entitlement write, so a redelivered event aborts before touching state.
type BillingEvent struct {
	ID            uuid.UUID                 `gorm:"type:uuid;primaryKey"`
	StripeEventID string                    `gorm:"column:stripe_event_id;not null;uniqueIndex"`
	EventType     string                    `gorm:"column:event_type;not null"`
	TeacherID     *uuid.UUID                `gorm:"column:teacher_id;type:uuid;index"`
	Outcome       enums.BillingEventOutcome `gorm:"column:outcome;not null"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime"`
}
