package access

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lessonfolio/lessonfolio-backend/internal/students"
	"github.com/lessonfolio/lessonfolio-backend/pkg/config"
	"github.com/lessonfolio/lessonfolio-backend/pkg/db/models"
	"github.com/lessonfolio/lessonfolio-backend/pkg/security"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Student{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return conn
}

func seedStudent(t *testing.T, db *gorm.DB, private bool, passcode string) *models.Student {
	t.Helper()
	student := &models.Student{
		ID:          uuid.New(),
		TeacherID:   uuid.New(),
		DisplayName: "Student",
		IsPrivate:   private,
	}
	if passcode != "" {
		hash, err := security.HashPassword(passcode, config.PasswordConfig{})
		if err != nil {
			t.Fatalf("hash passcode: %v", err)
		}
		student.PasscodeHash = &hash
	}
	if err := db.Create(student).Error; err != nil {
		t.Fatalf("seed student: %v", err)
	}
	return student
}

func newTestService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{StudentRepo: students.NewRepository(db)})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestPublicProfileAlwaysAccessible(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	student := seedStudent(t, db, false, "")

	decision, err := svc.CheckAccess(context.Background(), student.ID, "")
	if err != nil {
		t.Fatalf("check access: %v", err)
	}
	if !decision.Accessible {
		t.Fatal("expected public profile to be accessible")
	}
}

func TestPrivateProfileExactMatchOnly(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	student := seedStudent(t, db, true, "4821")
	ctx := context.Background()

	cases := map[string]bool{
		"4821":  true,
		"4820":  false,
		"48210": false,
		"482":   false,
		"":      false,
	}
	for passcode, want := range cases {
		decision, err := svc.CheckAccess(ctx, student.ID, passcode)
		if err != nil {
			t.Fatalf("passcode %q: %v", passcode, err)
		}
		if decision.Accessible != want {
			t.Fatalf("passcode %q: expected accessible=%v", passcode, want)
		}
	}
}

func TestUnknownProfileDeniedWithoutError(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	decision, err := svc.CheckAccess(context.Background(), uuid.New(), "4821")
	if err != nil {
		t.Fatalf("check access: %v", err)
	}
	if decision.Accessible {
		t.Fatal("expected unknown profile to be denied")
	}
}

func TestPrivateProfileWithoutHashStaysLocked(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	student := seedStudent(t, db, true, "")

	decision, err := svc.CheckAccess(context.Background(), student.ID, "anything")
	if err != nil {
		t.Fatalf("check access: %v", err)
	}
	if decision.Accessible {
		t.Fatal("expected locked profile without hash")
	}
}
