package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lessonfolio/lessonfolio-backend/internal/teachers"
	pkgAuth "github.com/lessonfolio/lessonfolio-backend/pkg/auth"
	"github.com/lessonfolio/lessonfolio-backend/pkg/config"
	pkgdb "github.com/lessonfolio/lessonfolio-backend/pkg/db"
	"github.com/lessonfolio/lessonfolio-backend/pkg/db/models"
	"github.com/lessonfolio/lessonfolio-backend/pkg/enums"
	pkgerrors "github.com/lessonfolio/lessonfolio-backend/pkg/errors"
	"github.com/lessonfolio/lessonfolio-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
}

type service struct {
	teachers    teachers.Repository
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	billingCfg  config.BillingConfig
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	TeacherRepo    teachers.Repository
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	BillingConfig  config.BillingConfig
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.TeacherRepo == nil {
		return nil, fmt.Errorf("teacher repository is required")
	}
	return &service{
		teachers:    params.TeacherRepo,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		billingCfg:  params.BillingConfig,
	}, nil
}

// Register creates a teacher account on the free tier and signs them in.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	limit := s.billingCfg.FreeStudentLimit
	if limit <= 0 {
		limit = models.FreeStudentLimit
	}

	teacher := &models.Teacher{
		ID:                 uuid.New(),
		Email:              email,
		PasswordHash:       hash,
		DisplayName:        strings.TrimSpace(req.DisplayName),
		SubscriptionStatus: enums.SubscriptionStatusFree,
		SubscriptionTier:   enums.SubscriptionTierFree,
		MaxStudents:        limit,
	}

	if err := s.teachers.Create(ctx, teacher); err != nil {
		if pkgdb.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create teacher")
	}

	return s.buildResponse(teacher)
}

// Login authenticates a teacher by email and password.
func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	teacher, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return s.buildResponse(teacher)
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.Teacher, error) {
	input := strings.TrimSpace(email)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	teacher, err := s.teachers.FindByEmail(ctx, strings.ToLower(input))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup teacher")
	}

	valid, err := security.VerifyPassword(password, teacher.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return teacher, nil
}

func (s *service) buildResponse(teacher *models.Teacher) (*AuthResponse, error) {
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		TeacherID: teacher.ID,
		Email:     teacher.Email,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &AuthResponse{
		AccessToken: token,
		Teacher:     FromModel(teacher),
	}, nil
}
