package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadhub/timetable-api/internal/models"
)

// WorkloadRepository manages persistence for teaching workloads.
type WorkloadRepository struct {
	db *sqlx.DB
}

// NewWorkloadRepository constructs a WorkloadRepository.
func NewWorkloadRepository(db *sqlx.DB) *WorkloadRepository {
	return &WorkloadRepository{db: db}
}

// Create inserts a new workload record.
func (r *WorkloadRepository) Create(ctx context.Context, workload *models.Workload) error {
	if workload.ID == "" {
		workload.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if workload.CreatedAt.IsZero() {
		workload.CreatedAt = now
	}
	workload.UpdatedAt = now

	const query = `INSERT INTO workloads (id, teacher_id, course_id, section_id, hours_per_week, created_at, updated_at)
		VALUES (:id, :teacher_id, :course_id, :section_id, :hours_per_week, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, workload); err != nil {
		return fmt.Errorf("create workload: %w", err)
	}
	return nil
}

// FindByID fetches a workload by ID.
func (r *WorkloadRepository) FindByID(ctx context.Context, id string) (*models.Workload, error) {
	const query = `SELECT id, teacher_id, course_id, section_id, hours_per_week, created_at, updated_at FROM workloads WHERE id = $1`
	var workload models.Workload
	if err := r.db.GetContext(ctx, &workload, query, id); err != nil {
		return nil, err
	}
	return &workload, nil
}

// ListBySection returns the workloads attached to a section in creation order.
func (r *WorkloadRepository) ListBySection(ctx context.Context, sectionID string) ([]models.Workload, error) {
	const query = `SELECT id, teacher_id, course_id, section_id, hours_per_week, created_at, updated_at
		FROM workloads WHERE section_id = $1 ORDER BY created_at ASC`
	var workloads []models.Workload
	if err := r.db.SelectContext(ctx, &workloads, query, sectionID); err != nil {
		return nil, fmt.Errorf("list workloads by section: %w", err)
	}
	return workloads, nil
}

// ListByTeacher returns the workloads assigned to a teacher.
func (r *WorkloadRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Workload, error) {
	const query = `SELECT id, teacher_id, course_id, section_id, hours_per_week, created_at, updated_at
		FROM workloads WHERE teacher_id = $1 ORDER BY created_at ASC`
	var workloads []models.Workload
	if err := r.db.SelectContext(ctx, &workloads, query, teacherID); err != nil {
		return nil, fmt.Errorf("list workloads by teacher: %w", err)
	}
	return workloads, nil
}
