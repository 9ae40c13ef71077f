package models

import "time"

// TimetableEntry is one committed placement. For a fixed (day, timeslot) at
// most one entry may reference a given teacher, room or section; the table is
// the single source of truth for conflict detection.
type TimetableEntry struct {
	ID           string    `db:"id" json:"id"`
	Day          string    `db:"day" json:"day"`
	Timeslot     string    `db:"timeslot" json:"timeslot"`
	SectionID    string    `db:"section_id" json:"section_id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	TeacherID    string    `db:"teacher_id" json:"teacher_id"`
	RoomID       string    `db:"room_id" json:"room_id"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// TimetableEntryDetail is the read projection joined with display names.
type TimetableEntryDetail struct {
	Day      string `db:"day" json:"day"`
	Timeslot string `db:"timeslot" json:"timeslot"`
	Section  string `db:"section" json:"section"`
	Course   string `db:"course" json:"course"`
	Teacher  string `db:"teacher" json:"teacher"`
	Room     string `db:"room" json:"room"`
}
