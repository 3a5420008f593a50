package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unilibrary/bagdesk-api/internal/models"
	appErrors "github.com/unilibrary/bagdesk-api/pkg/errors"
)

type studentRepository interface {
	FindByExternalID(ctx context.Context, studentID string) (*models.Student, error)
	ExistsByExternalID(ctx context.Context, studentID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
}

// RegisterStudentRequest holds payload for registering a student at the desk.
type RegisterStudentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	FullName  string `json:"full_name" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone"`
}

// StudentService handles the desk-side student directory. The bag lifecycle
// only reads students; registration is the one write path.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// Lookup resolves a student by the campus-issued id.
func (s *StudentService) Lookup(ctx context.Context, studentID string) (*models.Student, error) {
	student, err := s.repo.FindByExternalID(ctx, strings.TrimSpace(studentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrStudentNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up student")
	}
	return student, nil
}

// Register creates a new student identity record.
func (s *StudentService) Register(ctx context.Context, req RegisterStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	exists, err := s.repo.ExistsByExternalID(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate student id")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student id already registered")
	}

	student := &models.Student{
		StudentID: strings.TrimSpace(req.StudentID),
		FullName:  req.FullName,
	}
	if req.Email != "" {
		student.Email = &req.Email
	}
	if req.Phone != "" {
		student.Phone = &req.Phone
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register student")
	}
	return student, nil
}
