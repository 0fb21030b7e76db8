package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lessonfolio/lessonfolio-backend/pkg/enums"
)

// UnlimitedStudents marks a teacher whose capacity is not enforced.
const UnlimitedStudents = -1

// FreeStudentLimit is the managed-profile cap applied to every non-active tier.
const FreeStudentLimit = 3

// Teacher is the entitlement holder and unit of billing.
//
// StripeCustomerID is set once by the checkout initiator and never rewritten
// unless Stripe issues a replacement customer. StripeSubscriptionID is set by
// a checkout-completed event and cleared on cancellation; it is the reverse
// lookup key for subscription update/delete events.
type Teacher struct {
	ID                   uuid.UUID                `gorm:"type:uuid;primaryKey"`
	Email                string                   `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash         string                   `gorm:"column:password_hash;not null"`
	DisplayName          string                   `gorm:"column:display_name;not null"`
	StripeCustomerID     *string                  `gorm:"column:stripe_customer_id;uniqueIndex"`
	StripeSubscriptionID *string                  `gorm:"column:stripe_subscription_id;index"`
	SubscriptionStatus   enums.SubscriptionStatus `gorm:"column:subscription_status;not null;default:'free'"`
	SubscriptionTier     enums.SubscriptionTier   `gorm:"column:subscription_tier;not null;default:'free'"`
	MaxStudents          int                      `gorm:"column:max_students;not null;default:3"`
	CreatedAt            time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

// HasUnlimitedStudents reports whether capacity checks are bypassed.
func (t *Teacher) HasUnlimitedStudents() bool {
	return t.MaxStudents == UnlimitedStudents
}
