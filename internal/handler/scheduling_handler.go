package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadhub/timetable-api/internal/dto"
	"github.com/acadhub/timetable-api/internal/service"
	appErrors "github.com/acadhub/timetable-api/pkg/errors"
	"github.com/acadhub/timetable-api/pkg/response"
)

// SchedulingHandler wires timetable generation and query services to HTTP
// routes.
type SchedulingHandler struct {
	timetables *service.TimetableService
	exports    *service.ExportService
}

// NewSchedulingHandler constructs a new SchedulingHandler.
func NewSchedulingHandler(timetables *service.TimetableService, exports *service.ExportService) *SchedulingHandler {
	return &SchedulingHandler{timetables: timetables, exports: exports}
}

// Generate rebuilds the timetable for one department.
func (h *SchedulingHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	resp, err := h.timetables.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// GetTimetable returns a department's committed timetable.
func (h *SchedulingHandler) GetTimetable(c *gin.Context) {
	details, err := h.timetables.GetTimetable(c.Request.Context(), c.Param("departmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, nil)
}

// ValidateSlot probes a slot for collisions.
func (h *SchedulingHandler) ValidateSlot(c *gin.Context) {
	var req dto.ValidateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot payload"))
		return
	}
	resp, err := h.timetables.ValidateSlot(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Export renders a department's timetable as a downloadable file. Format is
// chosen with the "format" query parameter and defaults to csv.
func (h *SchedulingHandler) Export(c *gin.Context) {
	file, err := h.exports.ExportTimetable(c.Request.Context(), c.Param("departmentId"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+file.Filename)
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
