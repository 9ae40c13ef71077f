package models

import "time"

// Course types determine which rooms are eligible during generation.
const (
	CourseTypeTheory = "Theory"
	CourseTypeLab    = "Lab"
)

// Course belongs to a department and carries a qualified-teacher set
// maintained through the teacher_qualifications relation.
type Course struct {
	ID           string    `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	Credits      int       `db:"credits" json:"credits"`
	CourseType   string    `db:"course_type" json:"course_type"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
