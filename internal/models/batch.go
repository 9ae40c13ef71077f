package models

import "time"

// Batch is an intake of a program labelled with its academic year
// (e.g. "Batch 2023-2026").
type Batch struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	ProgramID    string    `db:"program_id" json:"program_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
