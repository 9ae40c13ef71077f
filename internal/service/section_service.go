package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadhub/timetable-api/internal/models"
	appErrors "github.com/acadhub/timetable-api/pkg/errors"
)

// defaultStudentCount is applied when a section is created without a size.
const defaultStudentCount = 40

type sectionRepository interface {
	List(ctx context.Context, batchID string) ([]models.Section, error)
	FindByID(ctx context.Context, id string) (*models.Section, error)
	Create(ctx context.Context, section *models.Section) error
}

type sectionBatchReader interface {
	FindByID(ctx context.Context, id string) (*models.Batch, error)
}

// CreateSectionRequest represents payload for creating sections.
type CreateSectionRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	StudentCount int    `json:"student_count" validate:"omitempty,min=1"`
	BatchID      string `json:"batch_id" validate:"required"`
}

// SectionService orchestrates section operations.
type SectionService struct {
	repo      sectionRepository
	batches   sectionBatchReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSectionService constructs a SectionService.
func NewSectionService(repo sectionRepository, batches sectionBatchReader, validate *validator.Validate, logger *zap.Logger) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{repo: repo, batches: batches, validator: validate, logger: logger}
}

// List returns sections, optionally scoped to a batch.
func (s *SectionService) List(ctx context.Context, batchID string) ([]models.Section, error) {
	sections, err := s.repo.List(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, nil
}

// Get returns a section by id.
func (s *SectionService) Get(ctx context.Context, id string) (*models.Section, error) {
	section, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	return section, nil
}

// Create registers a new section under an existing batch.
func (s *SectionService) Create(ctx context.Context, req CreateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	if _, err := s.batches.FindByID(ctx, req.BatchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}

	count := req.StudentCount
	if count <= 0 {
		count = defaultStudentCount
	}

	section := &models.Section{
		Name:         strings.TrimSpace(req.Name),
		StudentCount: count,
		BatchID:      req.BatchID,
	}
	if err := s.repo.Create(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}
	return section, nil
}
