package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/acadhub/timetable-api/internal/models"
	appErrors "github.com/acadhub/timetable-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, departmentID string) ([]models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	AddDepartment(ctx context.Context, teacherID, departmentID string) error
	AddQualification(ctx context.Context, teacherID, courseID string) error
	ListQualificationNames(ctx context.Context, teacherID string) ([]string, error)
	ListDepartmentNames(ctx context.Context, teacherID string) ([]string, error)
}

type teacherDepartmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

type teacherCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// CreateTeacherRequest represents payload for creating teachers. Availability
// is a whitelist of day name to allowed timeslot labels; omit it for a
// teacher with no restrictions.
type CreateTeacherRequest struct {
	FullName     string              `json:"full_name" validate:"required,max=200"`
	Email        string              `json:"email" validate:"required,email"`
	Availability map[string][]string `json:"availability"`
}

// TeacherService orchestrates teacher operations.
type TeacherService struct {
	repo        teacherRepository
	departments teacherDepartmentReader
	courses     teacherCourseReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(
	repo teacherRepository,
	departments teacherDepartmentReader,
	courses teacherCourseReader,
	validate *validator.Validate,
	logger *zap.Logger,
) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, departments: departments, courses: courses, validator: validate, logger: logger}
}

// List returns teachers, optionally scoped to a department affiliation.
func (s *TeacherService) List(ctx context.Context, departmentID string) ([]models.Teacher, error) {
	teachers, err := s.repo.List(ctx, departmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, nil
}

// Get returns a teacher together with department and qualification names.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.TeacherDetail, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	departments, err := s.repo.ListDepartmentNames(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher departments")
	}
	qualifications, err := s.repo.ListQualificationNames(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher qualifications")
	}
	return &models.TeacherDetail{Teacher: *teacher, Departments: departments, Qualifications: qualifications}, nil
}

// Create registers a new teacher.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	if err := validateAvailability(req.Availability); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher email already exists")
	}

	teacher := &models.Teacher{
		FullName: strings.TrimSpace(req.FullName),
		Email:    email,
	}
	if len(req.Availability) > 0 {
		raw, err := json.Marshal(req.Availability)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode availability")
		}
		teacher.Availability = types.JSONText(raw)
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	return teacher, nil
}

// AddDepartment affiliates a teacher with a department.
func (s *TeacherService) AddDepartment(ctx context.Context, teacherID, departmentID string) error {
	if teacherID == "" || departmentID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "teacher_id and department_id are required")
	}
	if _, err := s.repo.FindByID(ctx, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if _, err := s.departments.FindByID(ctx, departmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	if err := s.repo.AddDepartment(ctx, teacherID, departmentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add teacher department")
	}
	return nil
}

// AddQualification marks a teacher as qualified to teach a course.
func (s *TeacherService) AddQualification(ctx context.Context, teacherID, courseID string) error {
	if teacherID == "" || courseID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "teacher_id and course_id are required")
	}
	if _, err := s.repo.FindByID(ctx, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if err := s.repo.AddQualification(ctx, teacherID, courseID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add teacher qualification")
	}
	return nil
}

// validateAvailability rejects day or timeslot labels outside the canonical
// scheduling grid.
func validateAvailability(availability map[string][]string) error {
	for day, slots := range availability {
		if !containsLabel(scheduleDays, day) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown day %q in availability", day))
		}
		for _, slot := range slots {
			if !containsLabel(scheduleTimeslots, slot) {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown timeslot %q in availability", slot))
			}
		}
	}
	return nil
}
