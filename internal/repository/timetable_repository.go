package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadhub/timetable-api/internal/models"
)

// TimetableRepository manages committed timetable entries. Write methods and
// FindBySlot accept an optional sqlx.ExtContext so a generation run can scope
// every statement to its own transaction and read its own uncommitted writes;
// passing nil falls back to the pooled connection.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs a TimetableRepository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

func (r *TimetableRepository) exec(ext sqlx.ExtContext) sqlx.ExtContext {
	if ext != nil {
		return ext
	}
	return r.db
}

// DeleteByDepartment removes every entry belonging to a department.
func (r *TimetableRepository) DeleteByDepartment(ctx context.Context, ext sqlx.ExtContext, departmentID string) error {
	const query = `DELETE FROM timetable_entries WHERE department_id = $1`
	if _, err := r.exec(ext).ExecContext(ctx, query, departmentID); err != nil {
		return fmt.Errorf("delete timetable entries by department: %w", err)
	}
	return nil
}

// Insert stores a single committed placement.
func (r *TimetableRepository) Insert(ctx context.Context, ext sqlx.ExtContext, entry *models.TimetableEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO timetable_entries (id, day, timeslot, section_id, course_id, teacher_id, room_id, department_id, created_at)
		VALUES (:id, :day, :timeslot, :section_id, :course_id, :teacher_id, :room_id, :department_id, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(ext), query, entry); err != nil {
		return fmt.Errorf("insert timetable entry: %w", err)
	}
	return nil
}

// FindBySlot returns every entry occupying a (day, timeslot) pair, across all
// departments. Conflict checks scan this set.
func (r *TimetableRepository) FindBySlot(ctx context.Context, ext sqlx.ExtContext, day, timeslot string) ([]models.TimetableEntry, error) {
	const query = `SELECT id, day, timeslot, section_id, course_id, teacher_id, room_id, department_id, created_at
		FROM timetable_entries WHERE day = $1 AND timeslot = $2`
	var entries []models.TimetableEntry
	if err := sqlx.SelectContext(ctx, r.exec(ext), &entries, query, day, timeslot); err != nil {
		return nil, fmt.Errorf("find timetable entries by slot: %w", err)
	}
	return entries, nil
}

// ListByDepartment returns a department's committed timetable joined with
// display names, in insertion order.
func (r *TimetableRepository) ListByDepartment(ctx context.Context, departmentID string) ([]models.TimetableEntryDetail, error) {
	const query = `SELECT te.day AS day, te.timeslot AS timeslot, s.name AS section, c.name AS course, t.full_name AS teacher, r.name AS room
		FROM timetable_entries te
		JOIN sections s ON s.id = te.section_id
		JOIN courses c ON c.id = te.course_id
		JOIN teachers t ON t.id = te.teacher_id
		JOIN rooms r ON r.id = te.room_id
		WHERE te.department_id = $1
		ORDER BY te.created_at ASC`
	var details []models.TimetableEntryDetail
	if err := r.db.SelectContext(ctx, &details, query, departmentID); err != nil {
		return nil, fmt.Errorf("list timetable by department: %w", err)
	}
	return details, nil
}
