package dto

// GenerateTimetableRequest triggers a generation run for one department.
type GenerateTimetableRequest struct {
	DepartmentID string `json:"department_id" validate:"required"`
}

// GenerateTimetableResponse summarises a generation run. Status is "success"
// when every workload was fully placed, "partial_success" otherwise; Errors
// carries one shortfall message per under-allocated workload.
type GenerateTimetableResponse struct {
	Status  string   `json:"status"`
	Entries int      `json:"entries"`
	Errors  []string `json:"errors"`
}

// CreateWorkloadRequest assigns a teacher to a course for a section.
type CreateWorkloadRequest struct {
	TeacherID    string `json:"teacher_id" validate:"required"`
	CourseID     string `json:"course_id" validate:"required"`
	SectionID    string `json:"section_id" validate:"required"`
	HoursPerWeek int    `json:"hours_per_week" validate:"omitempty,min=1"`
}

// ValidateSlotRequest probes a single (day, timeslot) for collisions. Any of
// the three identifiers may be omitted; omitted ones are not checked.
type ValidateSlotRequest struct {
	Day       string `json:"day" validate:"required"`
	Timeslot  string `json:"timeslot" validate:"required"`
	TeacherID string `json:"teacher_id"`
	RoomID    string `json:"room_id"`
	SectionID string `json:"section_id"`
}

// ValidateSlotResponse reports whether the probed slot is free.
type ValidateSlotResponse struct {
	Available bool `json:"available"`
}
