package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acadhub/timetable-api/internal/models"
	"github.com/acadhub/timetable-api/internal/service"
)

func newSchedulingHandlerFixture() *SchedulingHandler {
	departments := schedDepartmentStub{items: map[string]*models.Department{
		"dep-1": {ID: "dep-1", Code: "CS", Name: "Computer Science"},
	}}
	store := &schedStoreStub{
		entries: []models.TimetableEntry{
			{ID: "e1", Day: "Monday", Timeslot: "09:00-10:00", TeacherID: "t1", RoomID: "r1", SectionID: "s1", DepartmentID: "dep-1"},
		},
		details: []models.TimetableEntryDetail{
			{Day: "Monday", Timeslot: "09:00-10:00", Section: "CS-A", Course: "Algorithms", Teacher: "Alice Grant", Room: "Room 101"},
		},
	}
	timetables := service.NewTimetableService(
		departments, nil, nil, nil, nil, nil, nil, nil,
		store, nil, nil, nil,
		validator.New(), zap.NewNop(), service.TimetableConfig{},
	)
	exports := service.NewExportService(timetables, departments, nil, nil, zap.NewNop())
	return NewSchedulingHandler(timetables, exports)
}

func TestSchedulingHandlerGenerateRequiresDepartment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSchedulingHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/scheduling/generate", strings.NewReader(`{}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Generate(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSchedulingHandlerValidateSlot(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSchedulingHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := `{"day":"Monday","timeslot":"09:00-10:00","teacher_id":"t1"}`
	c.Request, _ = http.NewRequest(http.MethodPost, "/scheduling/validate-slot", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.ValidateSlot(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"available":false`)
}

func TestSchedulingHandlerGetTimetable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSchedulingHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/scheduling/timetable/dep-1", nil)
	c.Params = gin.Params{{Key: "departmentId", Value: "dep-1"}}

	handler.GetTimetable(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Algorithms")
}

func TestSchedulingHandlerExportCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSchedulingHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/scheduling/timetable/dep-1/export?format=csv", nil)
	c.Params = gin.Params{{Key: "departmentId", Value: "dep-1"}}

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), "Day,Timeslot,Section,Course,Teacher,Room")
}

type schedDepartmentStub struct {
	items map[string]*models.Department
}

func (s schedDepartmentStub) FindByID(ctx context.Context, id string) (*models.Department, error) {
	if dep, ok := s.items[id]; ok {
		return dep, nil
	}
	return nil, sql.ErrNoRows
}

type schedStoreStub struct {
	entries []models.TimetableEntry
	details []models.TimetableEntryDetail
}

func (s *schedStoreStub) DeleteByDepartment(ctx context.Context, ext sqlx.ExtContext, departmentID string) error {
	return nil
}

func (s *schedStoreStub) Insert(ctx context.Context, ext sqlx.ExtContext, entry *models.TimetableEntry) error {
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *schedStoreStub) FindBySlot(ctx context.Context, ext sqlx.ExtContext, day, timeslot string) ([]models.TimetableEntry, error) {
	var occupied []models.TimetableEntry
	for _, entry := range s.entries {
		if entry.Day == day && entry.Timeslot == timeslot {
			occupied = append(occupied, entry)
		}
	}
	return occupied, nil
}

func (s *schedStoreStub) ListByDepartment(ctx context.Context, departmentID string) ([]models.TimetableEntryDetail, error) {
	return s.details, nil
}
