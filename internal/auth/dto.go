package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/lessonfolio/lessonfolio-backend/pkg/db/models"
	"github.com/lessonfolio/lessonfolio-backend/pkg/enums"
)

// RegisterRequest captures the signup payload for a new teacher account.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=120"`
}

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TeacherDTO is the account shape returned to the frontend.
type TeacherDTO struct {
	ID                 uuid.UUID                `json:"id"`
	Email              string                   `json:"email"`
	DisplayName        string                   `json:"display_name"`
	SubscriptionStatus enums.SubscriptionStatus `json:"subscription_status"`
	SubscriptionTier   enums.SubscriptionTier   `json:"subscription_tier"`
	MaxStudents        int                      `json:"max_students"`
	CreatedAt          time.Time                `json:"created_at"`
}

// AuthResponse contains the token and account produced by register or login.
type AuthResponse struct {
	AccessToken string      `json:"access_token"`
	Teacher     *TeacherDTO `json:"teacher"`
}

// FromModel maps a teacher row to its public DTO.
func FromModel(teacher *models.Teacher) *TeacherDTO {
	if teacher == nil {
		return nil
	}
	return &TeacherDTO{
		ID:                 teacher.ID,
		Email:              teacher.Email,
		DisplayName:        teacher.DisplayName,
		SubscriptionStatus: teacher.SubscriptionStatus,
		SubscriptionTier:   teacher.SubscriptionTier,
		MaxStudents:        teacher.MaxStudents,
		CreatedAt:          teacher.CreatedAt,
	}
}
