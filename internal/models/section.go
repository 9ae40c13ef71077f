package models

import "time"

// Section is a group of students within a batch ("A", "B"). StudentCount
// drives the room capacity filter during timetable generation.
type Section struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	StudentCount int       `db:"student_count" json:"student_count"`
	BatchID      string    `db:"batch_id" json:"batch_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
