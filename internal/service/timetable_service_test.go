package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acadhub/timetable-api/internal/dto"
	"github.com/acadhub/timetable-api/internal/models"
	appErrors "github.com/acadhub/timetable-api/pkg/errors"
)

func TestTimetableServiceGenerateFullAllocation(t *testing.T) {
	fixture := newTimetableFixture(t)
	fixture.workloads["s1"] = []models.Workload{
		{ID: "w1", TeacherID: "t1", CourseID: "c1", SectionID: "s1", HoursPerWeek: 3},
	}
	service, mock := fixture.build(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := service.Generate(context.Background(), dto.GenerateTimetableRequest{DepartmentID: "dep-1"})
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 3, resp.Entries)
	assert.Empty(t, resp.Errors)

	entries := fixture.store.entries
	require.Len(t, entries, 3)
	assert.Equal(t, "Monday", entries[0].Day)
	assert.Equal(t, "09:00-10:00", entries[0].Timeslot)
	assert.Equal(t, "10:00-11:00", entries[1].Timeslot)
	assert.Equal(t, "11:00-12:00", entries[2].Timeslot)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableServiceGeneratePartialAllocation(t *testing.T) {
	fixture := newTimetableFixture(t)
	fixture.teachers["t1"].Availability = types.JSONText(`{"Monday":["09:00-10:00","10:00-11:00"]}`)
	fixture.workloads["s1"] = []models.Workload{
		{ID: "w1", TeacherID: "t1", CourseID: "c1", SectionID: "s1", HoursPerWeek: 3},
	}
	service, mock := fixture.build(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := service.Generate(context.Background(), dto.GenerateTimetableRequest{DepartmentID: "dep-1"})
	require.NoError(t, err)
	assert.Equal(t, "partial_success", resp.Status)
	assert.Equal(t, 2, resp.Entries)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "Incomplete allocation for Algorithms in CS-A", resp.Errors[0])

	// Days absent from a non-empty availability map stay blocked.
	for _, entry := range fixture.store.entries {
		assert.Equal(t, "Monday", entry.Day)
	}
}

func TestTimetableServiceGenerateTeacherContention(t *testing.T) {
	fixture := newTimetableFixture(t)
	fixture.sections["b1"] = append(fixture.sections["b1"], models.Section{ID: "s2", Name: "CS-B", StudentCount: 30, BatchID: "b1"})
	fixture.workloads["s1"] = []models.Workload{
		{ID: "w1", TeacherID: "t1", CourseID: "c1", SectionID: "s1", HoursPerWeek: 1},
	}
	fixture.workloads["s2"] = []models.Workload{
		{ID: "w2", TeacherID: "t1", CourseID: "c1", SectionID: "s2", HoursPerWeek: 1},
	}
	service, mock := fixture.build(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := service.Generate(context.Background(), dto.GenerateTimetableRequest{DepartmentID: "dep-1"})
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Status)
	require.Len(t, fixture.store.entries, 2)

	first, second := fixture.store.entries[0], fixture.store.entries[1]
	assert.Equal(t, "09:00-10:00", first.Timeslot)
	assert.Equal(t, "10:00-11:00", second.Timeslot, "same teacher must not occupy the same slot twice")
}

func TestTimetableServiceGenerateLabRoomMatching(t *testing.T) {
	fixture := newTimetableFixture(t)
	fixture.courses["c2"] = &models.Course{ID: "c2", Name: "Physics Lab", CourseType: models.CourseTypeLab, DepartmentID: "dep-1"}
	fixture.workloads["s1"] = []models.Workload{
		{ID: "w1", TeacherID: "t1", CourseID: "c2", SectionID: "s1", HoursPerWeek: 1},
	}
	service, mock := fixture.build(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := service.Generate(context.Background(), dto.GenerateTimetableRequest{DepartmentID: "dep-1"})
	require.NoError(t, err)
	require.Len(t, fixture.store.entries, 1)
	assert.Equal(t, "r2", fixture.store.entries[0].RoomID, "lab courses go to lab rooms only")
}

func TestTimetableServiceGenerateSkipsUndersizedRooms(t *testing.T) {
	fixture := newTimetableFixture(t)
	fixture.sections["b1"] = []models.Section{{ID: "s1", Name: "CS-A", StudentCount: 50, BatchID: "b1"}}
	fixture.rooms = append(fixture.rooms, models.Room{ID: "r3", Name: "Auditorium", Capacity: 120, RoomType: "Classroom"})
	fixture.workloads["s1"] = []models.Workload{
		{ID: "w1", TeacherID: "t1", CourseID: "c1", SectionID: "s1", HoursPerWeek: 1},
	}
	service, mock := fixture.build(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := service.Generate(context.Background(), dto.GenerateTimetableRequest{DepartmentID: "dep-1"})
	require.NoError(t, err)
	require.Len(t, fixture.store.entries, 1)
	assert.Equal(t, "r3", fixture.store.entries[0].RoomID)
}

func TestTimetableServiceGenerateEmptyDepartment(t *testing.T) {
	fixture := newTimetableFixture(t)
	fixture.programs["dep-1"] = nil
	service, mock := fixture.build(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := service.Generate(context.Background(), dto.GenerateTimetableRequest{DepartmentID: "dep-1"})
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 0, resp.Entries)
	assert.Empty(t, resp.Errors)
}

func TestTimetableServiceGenerateReplacesPreviousRun(t *testing.T) {
	fixture := newTimetableFixture(t)
	fixture.workloads["s1"] = []models.Workload{
		{ID: "w1", TeacherID: "t1", CourseID: "c1", SectionID: "s1", HoursPerWeek: 2},
	}
	service, mock := fixture.build(t)

	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()

	ctx := context.Background()
	first, err := service.Generate(ctx, dto.GenerateTimetableRequest{DepartmentID: "dep-1"})
	require.NoError(t, err)
	second, err := service.Generate(ctx, dto.GenerateTimetableRequest{DepartmentID: "dep-1"})
	require.NoError(t, err)

	assert.Equal(t, first.Entries, second.Entries)
	assert.Len(t, fixture.store.entries, 2, "regeneration replaces rather than accumulates")
}

func TestTimetableServiceGenerateUnknownDepartment(t *testing.T) {
	fixture := newTimetableFixture(t)
	service, _ := fixture.build(t)

	_, err := service.Generate(context.Background(), dto.GenerateTimetableRequest{DepartmentID: "ghost"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestTimetableServiceValidateSlot(t *testing.T) {
	fixture := newTimetableFixture(t)
	fixture.store.entries = []models.TimetableEntry{
		{ID: "e1", Day: "Monday", Timeslot: "09:00-10:00", TeacherID: "t1", RoomID: "r1", SectionID: "s1", DepartmentID: "dep-1"},
	}
	service, _ := fixture.build(t)
	ctx := context.Background()

	resp, err := service.ValidateSlot(ctx, dto.ValidateSlotRequest{Day: "Monday", Timeslot: "09:00-10:00", TeacherID: "t1"})
	require.NoError(t, err)
	assert.False(t, resp.Available)

	resp, err = service.ValidateSlot(ctx, dto.ValidateSlotRequest{Day: "Monday", Timeslot: "09:00-10:00", TeacherID: "t2", RoomID: "r2", SectionID: "s2"})
	require.NoError(t, err)
	assert.True(t, resp.Available)

	resp, err = service.ValidateSlot(ctx, dto.ValidateSlotRequest{Day: "Tuesday", Timeslot: "09:00-10:00", RoomID: "r1"})
	require.NoError(t, err)
	assert.True(t, resp.Available)

	_, err = service.ValidateSlot(ctx, dto.ValidateSlotRequest{Day: "Sunday", Timeslot: "09:00-10:00"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = service.ValidateSlot(ctx, dto.ValidateSlotRequest{Day: "Monday", Timeslot: "08:00-09:00"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceGetTimetable(t *testing.T) {
	fixture := newTimetableFixture(t)
	fixture.store.details = []models.TimetableEntryDetail{
		{Day: "Monday", Timeslot: "09:00-10:00", Section: "CS-A", Course: "Algorithms", Teacher: "Alice Grant", Room: "Room 101"},
	}
	service, _ := fixture.build(t)

	details, err := service.GetTimetable(context.Background(), "dep-1")
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "Algorithms", details[0].Course)

	_, err = service.GetTimetable(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAvailabilityMapAllows(t *testing.T) {
	var empty availabilityMap
	assert.True(t, empty.Allows("Monday", "09:00-10:00"))

	m := availabilityMap{"Monday": {"09:00-10:00"}}
	assert.True(t, m.Allows("Monday", "09:00-10:00"))
	assert.False(t, m.Allows("Monday", "10:00-11:00"))
	assert.False(t, m.Allows("Tuesday", "09:00-10:00"), "unlisted days are blocked, not open")
}

// --- Fixtures ---

type timetableFixture struct {
	departments map[string]*models.Department
	programs    map[string][]models.Program
	batches     map[string][]models.Batch
	sections    map[string][]models.Section
	workloads   map[string][]models.Workload
	teachers    map[string]*models.Teacher
	courses     map[string]*models.Course
	rooms       []models.Room
	store       *timetableStoreStub
}

func newTimetableFixture(t *testing.T) *timetableFixture {
	t.Helper()
	return &timetableFixture{
		departments: map[string]*models.Department{
			"dep-1": {ID: "dep-1", Code: "CS", Name: "Computer Science"},
		},
		programs: map[string][]models.Program{
			"dep-1": {{ID: "p1", Code: "BCA", Name: "BCA", DepartmentID: "dep-1"}},
		},
		batches: map[string][]models.Batch{
			"p1": {{ID: "b1", Name: "Batch 2023-2026", ProgramID: "p1"}},
		},
		sections: map[string][]models.Section{
			"b1": {{ID: "s1", Name: "CS-A", StudentCount: 30, BatchID: "b1"}},
		},
		workloads: map[string][]models.Workload{},
		teachers: map[string]*models.Teacher{
			"t1": {ID: "t1", FullName: "Alice Grant", Email: "alice@example.com"},
		},
		courses: map[string]*models.Course{
			"c1": {ID: "c1", Code: "CS101", Name: "Algorithms", CourseType: models.CourseTypeTheory, DepartmentID: "dep-1"},
		},
		rooms: []models.Room{
			{ID: "r1", Name: "Room 101", Capacity: 40, RoomType: "Classroom"},
			{ID: "r2", Name: "Physics Lab", Capacity: 35, RoomType: "Laboratory"},
		},
		store: &timetableStoreStub{},
	}
}

func (f *timetableFixture) build(t *testing.T) (*TimetableService, sqlmock.Sqlmock) {
	t.Helper()
	tx, mock := newTxProviderMock(t)
	service := NewTimetableService(
		departmentLookupStub{items: f.departments},
		programListerStub{items: f.programs},
		batchListerStub{items: f.batches},
		sectionListerStub{fixture: f},
		workloadListerStub{fixture: f},
		teacherLookupStub{fixture: f},
		courseLookupStub{fixture: f},
		roomListerStub{fixture: f},
		f.store,
		nil,
		tx,
		nil,
		validator.New(),
		zap.NewNop(),
		TimetableConfig{},
	)
	return service, mock
}

type departmentLookupStub struct {
	items map[string]*models.Department
}

func (s departmentLookupStub) FindByID(ctx context.Context, id string) (*models.Department, error) {
	if dep, ok := s.items[id]; ok {
		return dep, nil
	}
	return nil, sql.ErrNoRows
}

type programListerStub struct {
	items map[string][]models.Program
}

func (s programListerStub) ListByDepartment(ctx context.Context, departmentID string) ([]models.Program, error) {
	return s.items[departmentID], nil
}

type batchListerStub struct {
	items map[string][]models.Batch
}

func (s batchListerStub) ListByProgram(ctx context.Context, programID string) ([]models.Batch, error) {
	return s.items[programID], nil
}

type sectionListerStub struct {
	fixture *timetableFixture
}

func (s sectionListerStub) ListByBatch(ctx context.Context, batchID string) ([]models.Section, error) {
	return s.fixture.sections[batchID], nil
}

type workloadListerStub struct {
	fixture *timetableFixture
}

func (s workloadListerStub) ListBySection(ctx context.Context, sectionID string) ([]models.Workload, error) {
	return s.fixture.workloads[sectionID], nil
}

type teacherLookupStub struct {
	fixture *timetableFixture
}

func (s teacherLookupStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if teacher, ok := s.fixture.teachers[id]; ok {
		return teacher, nil
	}
	return nil, sql.ErrNoRows
}

type courseLookupStub struct {
	fixture *timetableFixture
}

func (s courseLookupStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if course, ok := s.fixture.courses[id]; ok {
		return course, nil
	}
	return nil, sql.ErrNoRows
}

type roomListerStub struct {
	fixture *timetableFixture
}

func (s roomListerStub) ListAll(ctx context.Context) ([]models.Room, error) {
	return s.fixture.rooms, nil
}

// timetableStoreStub keeps entries in memory so insertions in one run are
// visible to its own conflict checks.
type timetableStoreStub struct {
	entries []models.TimetableEntry
	details []models.TimetableEntryDetail
}

func (s *timetableStoreStub) DeleteByDepartment(ctx context.Context, ext sqlx.ExtContext, departmentID string) error {
	kept := s.entries[:0]
	for _, entry := range s.entries {
		if entry.DepartmentID != departmentID {
			kept = append(kept, entry)
		}
	}
	s.entries = kept
	return nil
}

func (s *timetableStoreStub) Insert(ctx context.Context, ext sqlx.ExtContext, entry *models.TimetableEntry) error {
	if entry.ID == "" {
		entry.ID = fmt.Sprintf("entry-%d", len(s.entries)+1)
	}
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *timetableStoreStub) FindBySlot(ctx context.Context, ext sqlx.ExtContext, day, timeslot string) ([]models.TimetableEntry, error) {
	var occupied []models.TimetableEntry
	for _, entry := range s.entries {
		if entry.Day == day && entry.Timeslot == timeslot {
			occupied = append(occupied, entry)
		}
	}
	return occupied, nil
}

func (s *timetableStoreStub) ListByDepartment(ctx context.Context, departmentID string) ([]models.TimetableEntryDetail, error) {
	return s.details, nil
}

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}
