package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadhub/timetable-api/internal/dto"
	"github.com/acadhub/timetable-api/internal/service"
	appErrors "github.com/acadhub/timetable-api/pkg/errors"
	"github.com/acadhub/timetable-api/pkg/response"
)

// WorkloadHandler wires workload services to HTTP routes.
type WorkloadHandler struct {
	workloads *service.WorkloadService
}

// NewWorkloadHandler constructs a new WorkloadHandler.
func NewWorkloadHandler(workloads *service.WorkloadService) *WorkloadHandler {
	return &WorkloadHandler{workloads: workloads}
}

// Create registers a workload after the qualification check.
func (h *WorkloadHandler) Create(c *gin.Context) {
	var req dto.CreateWorkloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid workload payload"))
		return
	}
	workload, err := h.workloads.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, workload)
}

// List returns workloads filtered by section_id or teacher_id.
func (h *WorkloadHandler) List(c *gin.Context) {
	if sectionID := c.Query("section_id"); sectionID != "" {
		workloads, err := h.workloads.ListBySection(c.Request.Context(), sectionID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, workloads, nil)
		return
	}
	if teacherID := c.Query("teacher_id"); teacherID != "" {
		workloads, err := h.workloads.ListByTeacher(c.Request.Context(), teacherID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, workloads, nil)
		return
	}
	response.Error(c, appErrors.Clone(appErrors.ErrValidation, "section_id or teacher_id query parameter is required"))
}
