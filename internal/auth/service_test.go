package auth

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lessonfolio/lessonfolio-backend/internal/teachers"
	pkgAuth "github.com/lessonfolio/lessonfolio-backend/pkg/auth"
	"github.com/lessonfolio/lessonfolio-backend/pkg/config"
	"github.com/lessonfolio/lessonfolio-backend/pkg/db/models"
	"github.com/lessonfolio/lessonfolio-backend/pkg/enums"
	pkgerrors "github.com/lessonfolio/lessonfolio-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Teacher{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		TeacherRepo: teachers.NewRepository(db),
		JWTConfig:   config.JWTConfig{Secret: "secret", Issuer: "lessonfolio", ExpirationMinutes: 60},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestRegisterCreatesFreeTierTeacher(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:       "Teacher@Example.com",
		Password:    "correct horse",
		DisplayName: "Ms. Rivera",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected access token")
	}
	if resp.Teacher.Email != "teacher@example.com" {
		t.Fatalf("expected normalized email, got %s", resp.Teacher.Email)
	}
	if resp.Teacher.SubscriptionTier != enums.SubscriptionTierFree {
		t.Fatalf("expected free tier, got %s", resp.Teacher.SubscriptionTier)
	}
	if resp.Teacher.MaxStudents != models.FreeStudentLimit {
		t.Fatalf("expected limit %d, got %d", models.FreeStudentLimit, resp.Teacher.MaxStudents)
	}

	claims, err := pkgAuth.ParseAccessToken(config.JWTConfig{Secret: "secret", Issuer: "lessonfolio"}, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.TeacherID != resp.Teacher.ID {
		t.Fatalf("expected teacher id %s in claims, got %s", resp.Teacher.ID, claims.TeacherID)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	req := RegisterRequest{Email: "dup@example.com", Password: "correct horse", DisplayName: "First"}
	if _, err := svc.Register(ctx, req); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := svc.Register(ctx, req)
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterRequest{
		Email:       "login@example.com",
		Password:    "correct horse",
		DisplayName: "Teacher",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	resp, err := svc.Login(ctx, LoginRequest{Email: "Login@Example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected access token")
	}

	_, err = svc.Login(ctx, LoginRequest{Email: "login@example.com", Password: "wrong"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for wrong password, got %v", err)
	}

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "correct horse"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for unknown email, got %v", err)
	}
}
