package access

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lessonfolio/lessonfolio-backend/internal/students"
	pkgerrors "github.com/lessonfolio/lessonfolio-backend/pkg/errors"
	"github.com/lessonfolio/lessonfolio-backend/pkg/security"
)

// ServiceParams groups the dependencies of the access service.
type ServiceParams struct {
	StudentRepo students.Repository
	Verify      func(passcode, encoded string) (bool, error)
}

// Service decides whether a portfolio page may be shown to an anonymous
// visitor. It returns a bare boolean so the response cannot distinguish a
// wrong passcode from a missing or malformed profile.
type Service struct {
	studentRepo students.Repository
	verify      func(passcode, encoded string) (bool, error)
}

// Decision is the public answer for a profile access check.
type Decision struct {
	Accessible bool `json:"accessible"`
}

func NewService(params ServiceParams) (*Service, error) {
	if params.StudentRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "student repo required")
	}
	verify := params.Verify
	if verify == nil {
		verify = security.VerifyPassword
	}
	return &Service{
		studentRepo: params.StudentRepo,
		verify:      verify,
	}, nil
}

// CheckAccess evaluates a profile view request. Public profiles are always
// accessible. Private profiles require an exact passcode match against the
// stored Argon2id hash; any failure mode collapses to accessible=false.
func (s *Service) CheckAccess(ctx context.Context, studentID uuid.UUID, passcode string) (*Decision, error) {
	student, err := s.studentRepo.FindByID(ctx, studentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &Decision{Accessible: false}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load student")
	}

	if !student.IsPrivate {
		return &Decision{Accessible: true}, nil
	}

	if student.PasscodeHash == nil || *student.PasscodeHash == "" {
		// Private profile without a stored hash stays locked.
		return &Decision{Accessible: false}, nil
	}
	if passcode == "" {
		return &Decision{Accessible: false}, nil
	}

	ok, err := s.verify(passcode, *student.PasscodeHash)
	if err != nil {
		// Malformed stored hash reads as a denied check, not a 5xx.
		return &Decision{Accessible: false}, nil
	}
	return &Decision{Accessible: ok}, nil
}
