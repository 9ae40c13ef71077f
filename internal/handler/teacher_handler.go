package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadhub/timetable-api/internal/service"
	appErrors "github.com/acadhub/timetable-api/pkg/errors"
	"github.com/acadhub/timetable-api/pkg/response"
)

// TeacherHandler wires teacher services to HTTP routes.
type TeacherHandler struct {
	teachers  *service.TeacherService
	workloads *service.WorkloadService
}

// NewTeacherHandler constructs a new TeacherHandler.
func NewTeacherHandler(teachers *service.TeacherService, workloads *service.WorkloadService) *TeacherHandler {
	return &TeacherHandler{teachers: teachers, workloads: workloads}
}

// List returns teachers, optionally filtered by department_id.
func (h *TeacherHandler) List(c *gin.Context) {
	teachers, err := h.teachers.List(c.Request.Context(), c.Query("department_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, nil)
}

// Get returns a teacher with department and qualification names.
func (h *TeacherHandler) Get(c *gin.Context) {
	teacher, err := h.teachers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// Create registers a teacher.
func (h *TeacherHandler) Create(c *gin.Context) {
	var req service.CreateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid teacher payload"))
		return
	}
	teacher, err := h.teachers.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, teacher)
}

type teacherRelationRequest struct {
	DepartmentID string `json:"department_id"`
	CourseID     string `json:"course_id"`
}

// AddDepartment affiliates a teacher with a department.
func (h *TeacherHandler) AddDepartment(c *gin.Context) {
	var req teacherRelationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.teachers.AddDepartment(c.Request.Context(), c.Param("id"), req.DepartmentID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddQualification marks a teacher as qualified for a course.
func (h *TeacherHandler) AddQualification(c *gin.Context) {
	var req teacherRelationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.teachers.AddQualification(c.Request.Context(), c.Param("id"), req.CourseID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListWorkloads returns a teacher's workloads.
func (h *TeacherHandler) ListWorkloads(c *gin.Context) {
	workloads, err := h.workloads.ListByTeacher(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, workloads, nil)
}
