package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edu-platform/edu-mgmt-api/internal/models"
	"github.com/edu-platform/edu-mgmt-api/internal/repository"
	appErrors "github.com/edu-platform/edu-mgmt-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	enrollments map[int64]*models.Enrollment
	enrollErr   error
	applied     int
	gradeCalls  map[int64]float64
	nextID      int64
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	var out []models.EnrollmentDetail
	for _, e := range m.enrollments {
		out = append(out, models.EnrollmentDetail{Enrollment: *e})
	}
	return out, len(out), nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		copy := *e
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) FindByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			copy := *e
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) Enroll(ctx context.Context, enrollment *models.Enrollment) error {
	if m.enrollErr != nil {
		return m.enrollErr
	}
	if m.enrollments == nil {
		m.enrollments = make(map[int64]*models.Enrollment)
	}
	m.nextID++
	enrollment.ID = m.nextID
	m.enrollments[enrollment.ID] = enrollment
	return nil
}

func (m *mockEnrollmentRepo) RecordGrades(ctx context.Context, courseID int64, grades map[int64]float64) (int, error) {
	m.gradeCalls = grades
	return m.applied, nil
}

func (m *mockEnrollmentRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.enrollments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.enrollments, id)
	return nil
}

func TestEnrollmentServiceEnroll(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	svc := NewEnrollmentService(repo, nil, nil, nil)

	enrollment, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: 7, CourseID: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(7), enrollment.StudentID)
	assert.Equal(t, int64(3), enrollment.CourseID)
	assert.Nil(t, enrollment.Grade)
}

func TestEnrollmentServiceEnrollCourseFull(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollErr: repository.ErrCourseFull}
	svc := NewEnrollmentService(repo, nil, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: 7, CourseID: 3})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrCourseFull.Code, appErr.Code)
	assert.Equal(t, 409, appErr.Status)
}

func TestEnrollmentServiceEnrollDuplicate(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollErr: repository.ErrAlreadyEnrolled}
	svc := NewEnrollmentService(repo, nil, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: 7, CourseID: 3})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAlreadyEnrolled.Code, appErr.Code)
}

func TestEnrollmentServiceEnrollMissingStudent(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollErr: repository.ErrStudentNotFound}
	svc := NewEnrollmentService(repo, nil, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: 404, CourseID: 3})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrStudentNotFound.Code, appErr.Code)
}

func TestEnrollmentServiceEnrollInvalidIDs(t *testing.T) {
	svc := NewEnrollmentService(&mockEnrollmentRepo{}, nil, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: 0, CourseID: 0})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestEnrollmentServiceFindByStudentAndCourse(t *testing.T) {
	grade := 18.5
	repo := &mockEnrollmentRepo{enrollments: map[int64]*models.Enrollment{
		100: {ID: 100, StudentID: 7, CourseID: 3, Grade: &grade},
	}}
	svc := NewEnrollmentService(repo, nil, nil, nil)

	enrollment, err := svc.FindByStudentAndCourse(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(100), enrollment.ID)
	assert.Equal(t, 18.5, *enrollment.Grade)
}

func TestEnrollmentServiceFindByStudentAndCourseMissing(t *testing.T) {
	svc := NewEnrollmentService(&mockEnrollmentRepo{}, nil, nil, nil)

	_, err := svc.FindByStudentAndCourse(context.Background(), 7, 404)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrEnrollmentNotFound.Code, appErr.Code)
	assert.Equal(t, 404, appErr.Status)
}

func TestEnrollmentServiceEnrollObservesQueryDuration(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewEnrollmentService(&mockEnrollmentRepo{}, metrics, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: 7, CourseID: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.dbQueryDuration))
}

func TestEnrollmentServiceRecordGrades(t *testing.T) {
	repo := &mockEnrollmentRepo{applied: 1}
	svc := NewEnrollmentService(repo, nil, nil, nil)

	result, err := svc.RecordGrades(context.Background(), 3, RecordGradesRequest{
		Grades: []GradeEntry{
			{StudentID: 7, Grade: 18.5},
			{StudentID: 99, Grade: 12},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Applied)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 18.5, repo.gradeCalls[7])
}

func TestEnrollmentServiceRecordGradesOutOfRange(t *testing.T) {
	svc := NewEnrollmentService(&mockEnrollmentRepo{}, nil, nil, nil)

	_, err := svc.RecordGrades(context.Background(), 3, RecordGradesRequest{
		Grades: []GradeEntry{{StudentID: 7, Grade: 21}},
	})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestEnrollmentServiceRecordGradesEmptySheet(t *testing.T) {
	svc := NewEnrollmentService(&mockEnrollmentRepo{}, nil, nil, nil)

	_, err := svc.RecordGrades(context.Background(), 3, RecordGradesRequest{})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestEnrollmentServiceDeleteMissing(t *testing.T) {
	svc := NewEnrollmentService(&mockEnrollmentRepo{}, nil, nil, nil)

	err := svc.Delete(context.Background(), 404)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrEnrollmentNotFound.Code, appErr.Code)
}
