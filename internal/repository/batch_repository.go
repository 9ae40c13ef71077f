package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadhub/timetable-api/internal/models"
)

// BatchRepository manages persistence for batches.
type BatchRepository struct {
	db *sqlx.DB
}

// NewBatchRepository constructs a BatchRepository.
func NewBatchRepository(db *sqlx.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// List returns batches, optionally filtered by program.
func (r *BatchRepository) List(ctx context.Context, programID string) ([]models.Batch, error) {
	if programID != "" {
		return r.ListByProgram(ctx, programID)
	}
	const query = `SELECT id, name, academic_year, program_id, created_at, updated_at FROM batches ORDER BY academic_year ASC, name ASC`
	var batches []models.Batch
	if err := r.db.SelectContext(ctx, &batches, query); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return batches, nil
}

// ListByProgram returns the batches owned by a program.
func (r *BatchRepository) ListByProgram(ctx context.Context, programID string) ([]models.Batch, error) {
	const query = `SELECT id, name, academic_year, program_id, created_at, updated_at FROM batches WHERE program_id = $1 ORDER BY created_at ASC`
	var batches []models.Batch
	if err := r.db.SelectContext(ctx, &batches, query, programID); err != nil {
		return nil, fmt.Errorf("list batches by program: %w", err)
	}
	return batches, nil
}

// FindByID fetches a batch by ID.
func (r *BatchRepository) FindByID(ctx context.Context, id string) (*models.Batch, error) {
	const query = `SELECT id, name, academic_year, program_id, created_at, updated_at FROM batches WHERE id = $1`
	var batch models.Batch
	if err := r.db.GetContext(ctx, &batch, query, id); err != nil {
		return nil, err
	}
	return &batch, nil
}

// Create inserts a new batch record.
func (r *BatchRepository) Create(ctx context.Context, batch *models.Batch) error {
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = now
	}
	batch.UpdatedAt = now

	const query = `INSERT INTO batches (id, name, academic_year, program_id, created_at, updated_at)
		VALUES (:id, :name, :academic_year, :program_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, batch); err != nil {
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}
