package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadhub/timetable-api/internal/dto"
	"github.com/acadhub/timetable-api/internal/models"
	appErrors "github.com/acadhub/timetable-api/pkg/errors"
)

type workloadRepository interface {
	Create(ctx context.Context, workload *models.Workload) error
	ListBySection(ctx context.Context, sectionID string) ([]models.Workload, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Workload, error)
}

type workloadTeacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	IsQualified(ctx context.Context, teacherID, courseID string) (bool, error)
}

type workloadCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type workloadSectionReader interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
}

// WorkloadService manages teaching workloads. Qualification is checked when a
// workload is created; generation trusts stored workloads.
type WorkloadService struct {
	repo      workloadRepository
	teachers  workloadTeacherReader
	courses   workloadCourseReader
	sections  workloadSectionReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWorkloadService constructs a WorkloadService.
func NewWorkloadService(
	repo workloadRepository,
	teachers workloadTeacherReader,
	courses workloadCourseReader,
	sections workloadSectionReader,
	validate *validator.Validate,
	logger *zap.Logger,
) *WorkloadService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkloadService{
		repo:      repo,
		teachers:  teachers,
		courses:   courses,
		sections:  sections,
		validator: validate,
		logger:    logger,
	}
}

// Create registers a workload after verifying its references and the
// teacher's qualification for the course.
func (s *WorkloadService) Create(ctx context.Context, req dto.CreateWorkloadRequest) (*models.Workload, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid workload payload")
	}

	if _, err := s.sections.FindByID(ctx, req.SectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	teacher, err := s.teachers.FindByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	qualified, err := s.teachers.IsQualified(ctx, teacher.ID, course.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check qualification")
	}
	if !qualified {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("%s is not qualified to teach %s", teacher.FullName, course.Name))
	}

	hours := req.HoursPerWeek
	if hours <= 0 {
		hours = defaultHoursPerWeek
	}
	workload := &models.Workload{
		TeacherID:    req.TeacherID,
		CourseID:     req.CourseID,
		SectionID:    req.SectionID,
		HoursPerWeek: hours,
	}
	if err := s.repo.Create(ctx, workload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create workload")
	}
	return workload, nil
}

// ListBySection returns a section's workloads in creation order.
func (s *WorkloadService) ListBySection(ctx context.Context, sectionID string) ([]models.Workload, error) {
	if sectionID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "section_id is required")
	}
	workloads, err := s.repo.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list workloads")
	}
	return workloads, nil
}

// ListByTeacher returns a teacher's workloads.
func (s *WorkloadService) ListByTeacher(ctx context.Context, teacherID string) ([]models.Workload, error) {
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher_id is required")
	}
	workloads, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list workloads")
	}
	return workloads, nil
}
