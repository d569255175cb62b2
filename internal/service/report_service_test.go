package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edu-platform/edu-mgmt-api/internal/models"
	appErrors "github.com/edu-platform/edu-mgmt-api/pkg/errors"
)

func newTestReportService(courses *mockCourseRepo, enrollments *mockEnrollmentsByCourse) *ReportService {
	return NewReportService(courses, enrollments, nil)
}

func TestReportServiceGradeReportCSV(t *testing.T) {
	grade := 18.5
	courses := &mockCourseRepo{courses: map[int64]*models.Course{
		3: {ID: 3, CourseName: "Algorithms 1"},
	}}
	enrollments := &mockEnrollmentsByCourse{byCourse: map[int64][]models.EnrollmentDetail{
		3: {
			{Enrollment: models.Enrollment{ID: 100, StudentID: 7, CourseID: 3, Grade: &grade}, StudentName: "Ali Rezaei", StudentNumber: "12345", CourseName: "Algorithms 1"},
			{Enrollment: models.Enrollment{ID: 101, StudentID: 8, CourseID: 3}, StudentName: "Sara Ahmadi", StudentNumber: "54321", CourseName: "Algorithms 1"},
		},
	}}
	svc := newTestReportService(courses, enrollments)

	report, err := svc.GradeReport(context.Background(), 3, ReportFormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "grades-course-3.csv", report.FileName)
	assert.Equal(t, "text/csv", report.ContentType)
	assert.Contains(t, string(report.Content), "12345,Ali Rezaei,Algorithms 1,18.5")
	assert.Contains(t, string(report.Content), "54321,Sara Ahmadi,Algorithms 1,")
}

func TestReportServiceGradeReportPDF(t *testing.T) {
	courses := &mockCourseRepo{courses: map[int64]*models.Course{
		3: {ID: 3, CourseName: "Algorithms 1"},
	}}
	enrollments := &mockEnrollmentsByCourse{byCourse: map[int64][]models.EnrollmentDetail{}}
	svc := newTestReportService(courses, enrollments)

	report, err := svc.GradeReport(context.Background(), 3, ReportFormatPDF)
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", report.ContentType)
	assert.True(t, bytes.HasPrefix(report.Content, []byte("%PDF")))
}

func TestReportServiceGradeReportMissingCourse(t *testing.T) {
	svc := newTestReportService(&mockCourseRepo{}, &mockEnrollmentsByCourse{})

	_, err := svc.GradeReport(context.Background(), 404, ReportFormatCSV)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrCourseNotFound.Code, appErr.Code)
}

func TestReportServiceGradeReportUnknownFormat(t *testing.T) {
	courses := &mockCourseRepo{courses: map[int64]*models.Course{
		3: {ID: 3, CourseName: "Algorithms 1"},
	}}
	svc := newTestReportService(courses, &mockEnrollmentsByCourse{})

	_, err := svc.GradeReport(context.Background(), 3, ReportFormat("xlsx"))
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
