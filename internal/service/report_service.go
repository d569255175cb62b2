package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/edu-platform/edu-mgmt-api/internal/models"
	appErrors "github.com/edu-platform/edu-mgmt-api/pkg/errors"
	"github.com/edu-platform/edu-mgmt-api/pkg/export"
)

// ReportFormat selects the rendering of a grade report.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

type reportCourseReader interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
}

type reportEnrollmentReader interface {
	FindByCourseID(ctx context.Context, courseID int64) ([]models.EnrollmentDetail, error)
}

// Report is a rendered document ready to stream to the client.
type Report struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ReportService renders a course's grade sheet as CSV or PDF.
type ReportService struct {
	courses     reportCourseReader
	enrollments reportEnrollmentReader
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
}

// NewReportService constructs a ReportService.
func NewReportService(courses reportCourseReader, enrollments reportEnrollmentReader, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		courses:     courses,
		enrollments: enrollments,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
	}
}

var gradeReportHeaders = []string{"Student Number", "Student Name", "Course", "Grade"}

// GradeReport renders the enrollments of one course in the requested format.
// Ungraded enrollments appear with an empty grade cell.
func (s *ReportService) GradeReport(ctx context.Context, courseID int64, format ReportFormat) (*Report, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrCourseNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrEnrollmentsByCourse.Code, appErrors.ErrEnrollmentsByCourse.Status, appErrors.ErrEnrollmentsByCourse.Message)
	}

	enrollments, err := s.enrollments.FindByCourseID(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrEnrollmentsByCourse.Code, appErrors.ErrEnrollmentsByCourse.Status, appErrors.ErrEnrollmentsByCourse.Message)
	}

	dataset := export.Dataset{Headers: gradeReportHeaders, Rows: make([]map[string]string, 0, len(enrollments))}
	for _, e := range enrollments {
		grade := ""
		if e.Grade != nil {
			grade = strconv.FormatFloat(*e.Grade, 'f', -1, 64)
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student Number": e.StudentNumber,
			"Student Name":   e.StudentName,
			"Course":         e.CourseName,
			"Grade":          grade,
		})
	}

	switch format {
	case ReportFormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return &Report{
			FileName:    fmt.Sprintf("grades-course-%d.csv", courseID),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case ReportFormatPDF:
		content, err := s.pdf.Render(dataset, fmt.Sprintf("Grade Report - %s", course.CourseName))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return &Report{
			FileName:    fmt.Sprintf("grades-course-%d.pdf", courseID),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report format %q", format))
	}
}
