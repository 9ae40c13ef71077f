package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadhub/timetable-api/internal/models"
)

// TeacherRepository manages persistence for teachers and their
// department/qualification relations.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teachers, optionally filtered by department affiliation.
func (r *TeacherRepository) List(ctx context.Context, departmentID string) ([]models.Teacher, error) {
	var teachers []models.Teacher
	if departmentID != "" {
		const query = `SELECT t.id, t.full_name, t.email, t.availability, t.created_at, t.updated_at
			FROM teachers t
			JOIN teacher_departments td ON td.teacher_id = t.id
			WHERE td.department_id = $1
			ORDER BY t.full_name ASC`
		if err := r.db.SelectContext(ctx, &teachers, query, departmentID); err != nil {
			return nil, fmt.Errorf("list teachers by department: %w", err)
		}
		return teachers, nil
	}
	const query = `SELECT id, full_name, email, availability, created_at, updated_at FROM teachers ORDER BY full_name ASC`
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// FindByID fetches a teacher by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	const query = `SELECT id, full_name, email, availability, created_at, updated_at FROM teachers WHERE id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// ExistsByEmail checks whether a teacher already uses the given email.
func (r *TeacherRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM teachers WHERE LOWER(email) = LOWER($1) LIMIT 1`, email); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check teacher email: %w", err)
	}
	return true, nil
}

// Create inserts a new teacher record.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = now
	}
	teacher.UpdatedAt = now

	const query = `INSERT INTO teachers (id, full_name, email, availability, created_at, updated_at)
		VALUES (:id, :full_name, :email, :availability, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// AddDepartment affiliates a teacher with a department. The insert is a
// no-op when the affiliation already exists.
func (r *TeacherRepository) AddDepartment(ctx context.Context, teacherID, departmentID string) error {
	const query = `INSERT INTO teacher_departments (teacher_id, department_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, teacherID, departmentID); err != nil {
		return fmt.Errorf("add teacher department: %w", err)
	}
	return nil
}

// AddQualification marks a teacher as qualified to teach a course.
func (r *TeacherRepository) AddQualification(ctx context.Context, teacherID, courseID string) error {
	const query = `INSERT INTO teacher_qualifications (teacher_id, course_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, teacherID, courseID); err != nil {
		return fmt.Errorf("add teacher qualification: %w", err)
	}
	return nil
}

// IsQualified reports whether the teacher is in the course's
// qualified-teacher set.
func (r *TeacherRepository) IsQualified(ctx context.Context, teacherID, courseID string) (bool, error) {
	var exists int
	const query = `SELECT 1 FROM teacher_qualifications WHERE teacher_id = $1 AND course_id = $2 LIMIT 1`
	if err := r.db.GetContext(ctx, &exists, query, teacherID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check teacher qualification: %w", err)
	}
	return true, nil
}

// ListQualificationNames returns the names of the courses a teacher may teach.
func (r *TeacherRepository) ListQualificationNames(ctx context.Context, teacherID string) ([]string, error) {
	const query = `SELECT c.name FROM courses c
		JOIN teacher_qualifications tq ON tq.course_id = c.id
		WHERE tq.teacher_id = $1 ORDER BY c.name ASC`
	var names []string
	if err := r.db.SelectContext(ctx, &names, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher qualifications: %w", err)
	}
	return names, nil
}

// ListDepartmentNames returns the names of a teacher's departments.
func (r *TeacherRepository) ListDepartmentNames(ctx context.Context, teacherID string) ([]string, error) {
	const query = `SELECT d.name FROM departments d
		JOIN teacher_departments td ON td.department_id = d.id
		WHERE td.teacher_id = $1 ORDER BY d.name ASC`
	var names []string
	if err := r.db.SelectContext(ctx, &names, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher departments: %w", err)
	}
	return names, nil
}
