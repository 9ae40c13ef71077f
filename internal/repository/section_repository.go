package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadhub/timetable-api/internal/models"
)

// SectionRepository manages persistence for sections.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs a SectionRepository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// List returns sections, optionally filtered by batch.
func (r *SectionRepository) List(ctx context.Context, batchID string) ([]models.Section, error) {
	if batchID != "" {
		return r.ListByBatch(ctx, batchID)
	}
	const query = `SELECT id, name, student_count, batch_id, created_at, updated_at FROM sections ORDER BY name ASC`
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// ListByBatch returns the sections owned by a batch.
func (r *SectionRepository) ListByBatch(ctx context.Context, batchID string) ([]models.Section, error) {
	const query = `SELECT id, name, student_count, batch_id, created_at, updated_at FROM sections WHERE batch_id = $1 ORDER BY created_at ASC`
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query, batchID); err != nil {
		return nil, fmt.Errorf("list sections by batch: %w", err)
	}
	return sections, nil
}

// FindByID fetches a section by ID.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.Section, error) {
	const query = `SELECT id, name, student_count, batch_id, created_at, updated_at FROM sections WHERE id = $1`
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// Create inserts a new section record.
func (r *SectionRepository) Create(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if section.CreatedAt.IsZero() {
		section.CreatedAt = now
	}
	section.UpdatedAt = now

	const query = `INSERT INTO sections (id, name, student_count, batch_id, created_at, updated_at)
		VALUES (:id, :name, :student_count, :batch_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}
