package teachers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lessonfolio/lessonfolio-backend/pkg/db/models"
	"github.com/lessonfolio/lessonfolio-backend/pkg/enums"
)

// Repository handles teacher persistence, including the entitlement fields
// driven by billing events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, teacher *models.Teacher) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Teacher, error)
	FindByEmail(ctx context.Context, email string) (*models.Teacher, error)
	FindByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*models.Teacher, error)
	ClaimStripeCustomerID(ctx context.Context, teacherID uuid.UUID, customerID string) (bool, error)
	ApplyEntitlement(ctx context.Context, teacherID uuid.UUID, ent Entitlement) error
	CountStudents(ctx context.Context, teacherID uuid.UUID) (int64, error)
}

// Entitlement is the full derived entitlement state written on every billing
// transition. All fields are set together so a webhook update is a single
// atomic UPDATE regardless of which event produced it.
type Entitlement struct {
	Status               enums.SubscriptionStatus
	Tier                 enums.SubscriptionTier
	MaxStudents          int
	StripeSubscriptionID *string
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a teacher repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == uuid.Nil {
		teacher.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(teacher).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.WithContext(ctx).First(&teacher, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &teacher, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.WithContext(ctx).First(&teacher, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &teacher, nil
}

func (r *repository) FindByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.WithContext(ctx).
		First(&teacher, "stripe_subscription_id = ?", subscriptionID).Error; err != nil {
		return nil, err
	}
	return &teacher, nil
}

// ClaimStripeCustomerID records the Stripe customer for a teacher that does
// not have one yet. Returns false when another request already claimed it,
// which callers treat as "re-read and reuse the stored id".
func (r *repository) ClaimStripeCustomerID(ctx context.Context, teacherID uuid.UUID, customerID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Teacher{}).
		Where("id = ? AND stripe_customer_id IS NULL", teacherID).
		Update("stripe_customer_id", customerID)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) ApplyEntitlement(ctx context.Context, teacherID uuid.UUID, ent Entitlement) error {
	result := r.db.WithContext(ctx).
		Model(&models.Teacher{}).
		Where("id = ?", teacherID).
		Updates(map[string]any{
			"subscription_status":    ent.Status,
			"subscription_tier":      ent.Tier,
			"max_students":           ent.MaxStudents,
			"stripe_subscription_id": ent.StripeSubscriptionID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CountStudents(ctx context.Context, teacherID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("teacher_id = ?", teacherID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
