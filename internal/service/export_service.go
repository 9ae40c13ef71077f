package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/acadhub/timetable-api/internal/models"
	appErrors "github.com/acadhub/timetable-api/pkg/errors"
	"github.com/acadhub/timetable-api/pkg/export"
)

type timetableFetcher interface {
	GetTimetable(ctx context.Context, departmentID string) ([]models.TimetableEntryDetail, error)
}

type exportDepartmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered timetable ready to be served as a download.
type ExportFile struct {
	Content     []byte
	Filename    string
	ContentType string
}

// ExportService renders a department's committed timetable as CSV or PDF.
type ExportService struct {
	timetables  timetableFetcher
	departments exportDepartmentReader
	csv         csvRenderer
	pdf         pdfRenderer
	logger      *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(timetables timetableFetcher, departments exportDepartmentReader, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{timetables: timetables, departments: departments, csv: csv, pdf: pdf, logger: logger}
}

// ExportTimetable renders the department timetable in the requested format.
func (s *ExportService) ExportTimetable(ctx context.Context, departmentID, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	department, err := s.departments.FindByID(ctx, departmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}

	details, err := s.timetables.GetTimetable(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	dataset := buildTimetableDataset(details)

	stamp := time.Now().UTC().Format("20060102")
	switch format {
	case "csv":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportFile{
			Content:     content,
			Filename:    fmt.Sprintf("timetable_%s_%s.csv", department.Code, stamp),
			ContentType: "text/csv",
		}, nil
	default:
		title := fmt.Sprintf("Timetable - %s", department.Name)
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportFile{
			Content:     content,
			Filename:    fmt.Sprintf("timetable_%s_%s.pdf", department.Code, stamp),
			ContentType: "application/pdf",
		}, nil
	}
}

func buildTimetableDataset(details []models.TimetableEntryDetail) export.Dataset {
	dataset := export.Dataset{
		Headers: []string{"Day", "Timeslot", "Section", "Course", "Teacher", "Room"},
	}
	for _, detail := range details {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Day":      detail.Day,
			"Timeslot": detail.Timeslot,
			"Section":  detail.Section,
			"Course":   detail.Course,
			"Teacher":  detail.Teacher,
			"Room":     detail.Room,
		})
	}
	return dataset
}
