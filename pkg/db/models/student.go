package models

import (
	"time"

	"github.com/google/uuid"
)

// Student is a managed profile owned by a teacher. PasscodeHash is present
// iff the profile is private; it stores an Argon2id hash, never plaintext.
type Student struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	TeacherID    uuid.UUID `gorm:"column:teacher_id;type:uuid;not null;index"`
	DisplayName  string    `gorm:"column:display_name;not null"`
	Instrument   *string   `gorm:"column:instrument"`
	IsPrivate    bool      `gorm:"column:is_private;not null;default:false"`
	PasscodeHash *string   `gorm:"column:passcode_hash"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
