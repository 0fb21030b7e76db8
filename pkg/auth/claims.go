package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	TeacherID uuid.UUID
	Email     string
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to teachers.
type AccessTokenClaims struct {
	TeacherID uuid.UUID `json:"teacher_id"`
	Email     string    `json:"email,omitempty"`
	jwt.RegisteredClaims
}
