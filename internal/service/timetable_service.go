package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/acadhub/timetable-api/internal/dto"
	"github.com/acadhub/timetable-api/internal/models"
	appErrors "github.com/acadhub/timetable-api/pkg/errors"
)

// Canonical scheduling grid. Generation scans days and timeslots in this
// order and fills each workload compactly from the earliest free slot.
var (
	scheduleDays      = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
	scheduleTimeslots = []string{"09:00-10:00", "10:00-11:00", "11:00-12:00", "01:00-02:00", "02:00-03:00"}
)

const defaultHoursPerWeek = 4

type schedulerDepartmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

type schedulerProgramLister interface {
	ListByDepartment(ctx context.Context, departmentID string) ([]models.Program, error)
}

type schedulerBatchLister interface {
	ListByProgram(ctx context.Context, programID string) ([]models.Batch, error)
}

type schedulerSectionLister interface {
	ListByBatch(ctx context.Context, batchID string) ([]models.Section, error)
}

type schedulerWorkloadLister interface {
	ListBySection(ctx context.Context, sectionID string) ([]models.Workload, error)
}

type schedulerTeacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type schedulerCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type schedulerRoomLister interface {
	ListAll(ctx context.Context) ([]models.Room, error)
}

type timetableStore interface {
	DeleteByDepartment(ctx context.Context, ext sqlx.ExtContext, departmentID string) error
	Insert(ctx context.Context, ext sqlx.ExtContext, entry *models.TimetableEntry) error
	FindBySlot(ctx context.Context, ext sqlx.ExtContext, day, timeslot string) ([]models.TimetableEntry, error)
	ListByDepartment(ctx context.Context, departmentID string) ([]models.TimetableEntryDetail, error)
}

type timetableCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type generationRecorder interface {
	RecordGeneration(status string, entries, shortfalls int)
}

// TimetableService runs timetable generation and serves the committed grid.
type TimetableService struct {
	departments schedulerDepartmentReader
	programs    schedulerProgramLister
	batches     schedulerBatchLister
	sections    schedulerSectionLister
	workloads   schedulerWorkloadLister
	teachers    schedulerTeacherReader
	courses     schedulerCourseReader
	rooms       schedulerRoomLister
	timetable   timetableStore
	cache       timetableCache
	tx          txProvider
	metrics     generationRecorder
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         TimetableConfig

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// TimetableConfig governs caching behaviour of timetable reads.
type TimetableConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// NewTimetableService wires the scheduling dependencies.
func NewTimetableService(
	departments schedulerDepartmentReader,
	programs schedulerProgramLister,
	batches schedulerBatchLister,
	sections schedulerSectionLister,
	workloads schedulerWorkloadLister,
	teachers schedulerTeacherReader,
	courses schedulerCourseReader,
	rooms schedulerRoomLister,
	timetable timetableStore,
	cache timetableCache,
	tx txProvider,
	metrics generationRecorder,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	return &TimetableService{
		departments: departments,
		programs:    programs,
		batches:     batches,
		sections:    sections,
		workloads:   workloads,
		teachers:    teachers,
		courses:     courses,
		rooms:       rooms,
		timetable:   timetable,
		cache:       cache,
		tx:          tx,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		locks:       make(map[string]*sync.Mutex),
	}
}

// departmentLock serialises generation runs per department. Runs for
// different departments proceed concurrently.
func (s *TimetableService) departmentLock(departmentID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[departmentID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[departmentID] = lock
	}
	return lock
}

// Generate rebuilds a department's timetable from its workloads. The run
// replaces any previous timetable for the department atomically: old entries
// are deleted and new ones inserted inside a single transaction, so readers
// never observe a half-built grid.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}

	department, err := s.departments.FindByID(ctx, req.DepartmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}

	lock := s.departmentLock(department.ID)
	lock.Lock()
	defer lock.Unlock()

	sections, err := s.collectSections(ctx, department.ID)
	if err != nil {
		return nil, err
	}

	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin generation transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := s.timetable.DeleteByDepartment(ctx, tx, department.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear previous timetable")
	}

	placed := 0
	var shortfalls []string
	for _, section := range sections {
		workloads, err := s.workloads.ListBySection(ctx, section.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workloads")
		}
		for _, workload := range workloads {
			allocated, shortfall, err := s.placeWorkload(ctx, tx, department.ID, section, workload, rooms)
			if err != nil {
				return nil, err
			}
			placed += allocated
			if shortfall != "" {
				shortfalls = append(shortfalls, shortfall)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit generation transaction")
	}

	s.invalidateCache(ctx, department.ID)

	status := "success"
	if len(shortfalls) > 0 {
		status = "partial_success"
	}
	if s.metrics != nil {
		s.metrics.RecordGeneration(status, placed, len(shortfalls))
	}
	s.logger.Info("timetable generated",
		zap.String("department_id", department.ID),
		zap.String("status", status),
		zap.Int("entries", placed),
		zap.Int("shortfalls", len(shortfalls)),
	)

	return &dto.GenerateTimetableResponse{Status: status, Entries: placed, Errors: shortfalls}, nil
}

// collectSections walks department -> programs -> batches -> sections.
func (s *TimetableService) collectSections(ctx context.Context, departmentID string) ([]models.Section, error) {
	programs, err := s.programs.ListByDepartment(ctx, departmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load programs")
	}
	var sections []models.Section
	for _, program := range programs {
		batches, err := s.batches.ListByProgram(ctx, program.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batches")
		}
		for _, batch := range batches {
			batchSections, err := s.sections.ListByBatch(ctx, batch.ID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sections")
			}
			sections = append(sections, batchSections...)
		}
	}
	return sections, nil
}

// placeWorkload fills one workload's weekly hours into the earliest free
// slots. It returns the number of hours placed and a shortfall message when
// fewer hours than requested could be allocated.
func (s *TimetableService) placeWorkload(
	ctx context.Context,
	tx *sqlx.Tx,
	departmentID string,
	section models.Section,
	workload models.Workload,
	rooms []models.Room,
) (int, string, error) {
	teacher, err := s.teachers.FindByID(ctx, workload.TeacherID)
	if err != nil {
		return 0, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher for workload")
	}
	course, err := s.courses.FindByID(ctx, workload.CourseID)
	if err != nil {
		return 0, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course for workload")
	}

	availability, err := parseAvailability(teacher.Availability)
	if err != nil {
		return 0, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "malformed teacher availability")
	}

	hours := workload.HoursPerWeek
	if hours <= 0 {
		hours = defaultHoursPerWeek
	}
	candidates := eligibleRooms(rooms, section, *course)

	allocated := 0
	for _, day := range scheduleDays {
		if allocated >= hours {
			break
		}
		for _, slot := range scheduleTimeslots {
			if allocated >= hours {
				break
			}
			if !availability.Allows(day, slot) {
				continue
			}
			occupied, err := s.timetable.FindBySlot(ctx, tx, day, slot)
			if err != nil {
				return 0, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect slot occupancy")
			}
			if hasConflict(occupied, teacher.ID, "", section.ID) {
				continue
			}
			room, ok := firstFreeRoom(candidates, occupied)
			if !ok {
				continue
			}
			entry := &models.TimetableEntry{
				Day:          day,
				Timeslot:     slot,
				SectionID:    section.ID,
				CourseID:     course.ID,
				TeacherID:    teacher.ID,
				RoomID:       room.ID,
				DepartmentID: departmentID,
			}
			if err := s.timetable.Insert(ctx, tx, entry); err != nil {
				return 0, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert timetable entry")
			}
			allocated++
		}
	}

	if allocated < hours {
		return allocated, fmt.Sprintf("Incomplete allocation for %s in %s", course.Name, section.Name), nil
	}
	return allocated, "", nil
}

// GetTimetable returns a department's committed timetable in insertion order,
// served from cache when enabled.
func (s *TimetableService) GetTimetable(ctx context.Context, departmentID string) ([]models.TimetableEntryDetail, error) {
	if departmentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department_id is required")
	}
	if _, err := s.departments.FindByID(ctx, departmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}

	key := timetableCacheKey(departmentID)
	if s.cacheActive() {
		var cached []models.TimetableEntryDetail
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("timetable cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	details, err := s.timetable.ListByDepartment(ctx, departmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	if details == nil {
		details = []models.TimetableEntryDetail{}
	}

	if s.cacheActive() {
		if err := s.cache.Set(ctx, key, details, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("timetable cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return details, nil
}

// ValidateSlot probes a (day, timeslot) pair for collisions against the
// committed timetable. Identifiers left empty are not checked.
func (s *TimetableService) ValidateSlot(ctx context.Context, req dto.ValidateSlotRequest) (*dto.ValidateSlotResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot validation payload")
	}
	if !containsLabel(scheduleDays, req.Day) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown day %q", req.Day))
	}
	if !containsLabel(scheduleTimeslots, req.Timeslot) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown timeslot %q", req.Timeslot))
	}

	occupied, err := s.timetable.FindBySlot(ctx, nil, req.Day, req.Timeslot)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect slot occupancy")
	}
	available := !hasConflict(occupied, req.TeacherID, req.RoomID, req.SectionID)
	return &dto.ValidateSlotResponse{Available: available}, nil
}

func (s *TimetableService) cacheActive() bool {
	return s.cfg.CacheEnabled && s.cache != nil
}

func (s *TimetableService) invalidateCache(ctx context.Context, departmentID string) {
	if !s.cacheActive() {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, timetableCacheKey(departmentID)); err != nil {
		s.logger.Warn("timetable cache invalidation failed", zap.String("department_id", departmentID), zap.Error(err))
	}
}

func timetableCacheKey(departmentID string) string {
	return "timetable:" + departmentID
}

// availabilityMap is a whitelist of day name to allowed timeslot labels.
type availabilityMap map[string][]string

// Allows reports whether the owner may teach in the given slot. An empty map
// means always available; a non-empty map blocks every day it does not list.
func (m availabilityMap) Allows(day, timeslot string) bool {
	if len(m) == 0 {
		return true
	}
	slots, ok := m[day]
	if !ok {
		return false
	}
	for _, s := range slots {
		if s == timeslot {
			return true
		}
	}
	return false
}

func parseAvailability(raw types.JSONText) (availabilityMap, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var m availabilityMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse availability: %w", err)
	}
	return m, nil
}

// hasConflict reports whether any occupant of a slot collides with the given
// teacher, room or section. Empty identifiers match nothing.
func hasConflict(occupied []models.TimetableEntry, teacherID, roomID, sectionID string) bool {
	for _, entry := range occupied {
		if teacherID != "" && entry.TeacherID == teacherID {
			return true
		}
		if roomID != "" && entry.RoomID == roomID {
			return true
		}
		if sectionID != "" && entry.SectionID == sectionID {
			return true
		}
	}
	return false
}

// eligibleRooms filters rooms by capacity and lab type. Lab courses require
// lab rooms and theory courses require non-lab rooms; the input order, room
// ID ascending, is preserved.
func eligibleRooms(rooms []models.Room, section models.Section, course models.Course) []models.Room {
	needsLab := course.CourseType == models.CourseTypeLab
	var eligible []models.Room
	for _, room := range rooms {
		if room.Capacity < section.StudentCount {
			continue
		}
		if isLabRoom(room) != needsLab {
			continue
		}
		eligible = append(eligible, room)
	}
	return eligible
}

func isLabRoom(room models.Room) bool {
	return strings.Contains(strings.ToLower(room.RoomType), "lab")
}

// firstFreeRoom returns the first candidate not already occupying the slot.
func firstFreeRoom(candidates []models.Room, occupied []models.TimetableEntry) (models.Room, bool) {
	for _, room := range candidates {
		if !hasConflict(occupied, "", room.ID, "") {
			return room, true
		}
	}
	return models.Room{}, false
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}
