package models

import "time"

// Workload is a demand record: a teacher teaches a course to a section for
// HoursPerWeek hours. Qualification is enforced at creation time only.
type Workload struct {
	ID           string    `db:"id" json:"id"`
	TeacherID    string    `db:"teacher_id" json:"teacher_id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	SectionID    string    `db:"section_id" json:"section_id"`
	HoursPerWeek int       `db:"hours_per_week" json:"hours_per_week"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
