package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Teacher represents an instructor record. Availability, when present, is a
// JSON whitelist of day name to allowed timeslot labels; a teacher without an
// availability map can teach in any slot.
type Teacher struct {
	ID           string         `db:"id" json:"id"`
	FullName     string         `db:"full_name" json:"full_name"`
	Email        string         `db:"email" json:"email"`
	Availability types.JSONText `db:"availability" json:"availability,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// TeacherDetail augments a teacher with its association names for listings.
type TeacherDetail struct {
	Teacher
	Departments    []string `json:"departments"`
	Qualifications []string `json:"qualifications"`
}
