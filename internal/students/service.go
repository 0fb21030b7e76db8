package students

import (
	"context"
	"regexp"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lessonfolio/lessonfolio-backend/internal/teachers"
	"github.com/lessonfolio/lessonfolio-backend/pkg/config"
	"github.com/lessonfolio/lessonfolio-backend/pkg/db/models"
	pkgerrors "github.com/lessonfolio/lessonfolio-backend/pkg/errors"
	"github.com/lessonfolio/lessonfolio-backend/pkg/security"
)

var passcodePattern = regexp.MustCompile(`^[0-9]{4,8}$`)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups the dependencies of the student service.
type ServiceParams struct {
	StudentRepo       Repository
	TeacherRepo       teachers.Repository
	TransactionRunner txRunner
	PasswordConfig    config.PasswordConfig
	PasscodeHasher    func(plain string) (string, error)
}

// Service manages student profiles under the teacher's capacity limit.
type Service struct {
	studentRepo  Repository
	teacherRepo  teachers.Repository
	txRunner     txRunner
	hashPasscode func(plain string) (string, error)
}

// CreateStudentInput is the validated payload for a new profile.
type CreateStudentInput struct {
	DisplayName string
	Instrument  *string
	IsPrivate   bool
	Passcode    string
}

// CapacityView answers whether the teacher can add another profile.
type CapacityView struct {
	CanAddProfile bool  `json:"can_add_profile"`
	LimitReached  bool  `json:"limit_reached"`
	StudentCount  int64 `json:"student_count"`
	MaxStudents   int   `json:"max_students"`
}

func NewService(params ServiceParams) (*Service, error) {
	if params.StudentRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "student repo required")
	}
	if params.TeacherRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "teacher repo required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	hasher := params.PasscodeHasher
	if hasher == nil {
		cfg := params.PasswordConfig
		hasher = func(plain string) (string, error) {
			return security.HashPassword(plain, cfg)
		}
	}
	return &Service{
		studentRepo:  params.StudentRepo,
		teacherRepo:  params.TeacherRepo,
		txRunner:     params.TransactionRunner,
		hashPasscode: hasher,
	}, nil
}

// Capacity reports the current add-profile decision. The answer is advisory;
// Create re-checks the count inside its transaction.
func (s *Service) Capacity(ctx context.Context, teacherID uuid.UUID) (*CapacityView, error) {
	teacher, err := s.teacherRepo.FindByID(ctx, teacherID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "teacher not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load teacher")
	}

	count, err := s.studentRepo.CountByTeacher(ctx, teacherID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count students")
	}

	return buildCapacityView(teacher, count), nil
}

func buildCapacityView(teacher *models.Teacher, count int64) *CapacityView {
	canAdd := teacher.HasUnlimitedStudents() || count < int64(teacher.MaxStudents)
	return &CapacityView{
		CanAddProfile: canAdd,
		LimitReached:  !canAdd,
		StudentCount:  count,
		MaxStudents:   teacher.MaxStudents,
	}
}

// Create adds a student profile. The capacity count runs inside the insert
// transaction so concurrent creates cannot overshoot the limit.
func (s *Service) Create(ctx context.Context, teacherID uuid.UUID, input CreateStudentInput) (*models.Student, error) {
	if input.DisplayName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "display name is required")
	}

	var passcodeHash *string
	if input.IsPrivate {
		if !passcodePattern.MatchString(input.Passcode) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "passcode must be 4 to 8 digits")
		}
		hashed, err := s.hashPasscode(input.Passcode)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash passcode")
		}
		passcodeHash = &hashed
	} else if input.Passcode != "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "passcode requires a private profile")
	}

	student := &models.Student{
		ID:           uuid.New(),
		TeacherID:    teacherID,
		DisplayName:  input.DisplayName,
		Instrument:   input.Instrument,
		IsPrivate:    input.IsPrivate,
		PasscodeHash: passcodeHash,
	}

	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		teacherRepo := s.teacherRepo.WithTx(tx)
		studentRepo := s.studentRepo.WithTx(tx)

		teacher, err := teacherRepo.FindByID(ctx, teacherID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "teacher not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load teacher")
		}

		if !teacher.HasUnlimitedStudents() {
			count, err := studentRepo.CountByTeacher(ctx, teacherID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count students")
			}
			if count >= int64(teacher.MaxStudents) {
				return pkgerrors.New(pkgerrors.CodeLimitReached, "student limit reached, upgrade to add more").
					WithDetails(map[string]any{
						"max_students":  teacher.MaxStudents,
						"student_count": count,
					})
			}
		}

		return studentRepo.Create(ctx, student)
	})
	if err != nil {
		return nil, err
	}
	return student, nil
}

// List returns the teacher's student profiles.
func (s *Service) List(ctx context.Context, teacherID uuid.UUID) ([]models.Student, error) {
	list, err := s.studentRepo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list students")
	}
	return list, nil
}

// Delete removes a student profile, freeing capacity for a later create.
func (s *Service) Delete(ctx context.Context, teacherID, studentID uuid.UUID) error {
	deleted, err := s.studentRepo.Delete(ctx, teacherID, studentID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete student")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "student not found")
	}
	return nil
}
