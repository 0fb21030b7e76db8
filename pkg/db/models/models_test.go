package models

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// The test fixtures across the service packages build their schema with
// AutoMigrate on the sqlite driver, which rejects function defaults in DDL.
// IDs are assigned in Go; the Postgres-side defaults live in the goose
// migration, not in the gorm tags.
func TestModelsAutoMigrateOnSQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:models_test?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Teacher{}, &Student{}, &BillingEvent{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	teacher := &Teacher{
		ID:           uuid.New(),
		Email:        "teacher@example.com",
		PasswordHash: "hash",
		DisplayName:  "Ms. Rivera",
		MaxStudents:  FreeStudentLimit,
	}
	if err := db.Create(teacher).Error; err != nil {
		t.Fatalf("insert teacher: %v", err)
	}

	student := &Student{
		ID:          uuid.New(),
		TeacherID:   teacher.ID,
		DisplayName: "Student",
	}
	if err := db.Create(student).Error; err != nil {
		t.Fatalf("insert student: %v", err)
	}

	event := &BillingEvent{
		ID:            uuid.New(),
		StripeEventID: "evt_1",
		EventType:     "checkout.session.completed",
		TeacherID:     &teacher.ID,
		Outcome:       "applied",
	}
	if err := db.Create(event).Error; err != nil {
		t.Fatalf("insert billing event: %v", err)
	}
}
