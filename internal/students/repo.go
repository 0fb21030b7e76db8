package students

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lessonfolio/lessonfolio-backend/pkg/db/models"
)

// Repository handles student profile persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, student *models.Student) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Student, error)
	ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]models.Student, error)
	CountByTeacher(ctx context.Context, teacherID uuid.UUID) (int64, error)
	Delete(ctx context.Context, teacherID, studentID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a student repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == uuid.Nil {
		student.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *repository) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]models.Student, error) {
	var list []models.Student
	if err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("created_at ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) CountByTeacher(ctx context.Context, teacherID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("teacher_id = ?", teacherID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes a student owned by the teacher. Returns false when no such
// student exists, letting callers answer 404 without a prior read.
func (r *repository) Delete(ctx context.Context, teacherID, studentID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND teacher_id = ?", studentID, teacherID).
		Delete(&models.Student{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
