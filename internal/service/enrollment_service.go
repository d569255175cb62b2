package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edu-platform/edu-mgmt-api/internal/models"
	"github.com/edu-platform/edu-mgmt-api/internal/repository"
	appErrors "github.com/edu-platform/edu-mgmt-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id int64) (*models.Enrollment, error)
	FindByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error)
	Enroll(ctx context.Context, enrollment *models.Enrollment) error
	RecordGrades(ctx context.Context, courseID int64, grades map[int64]float64) (int, error)
	Delete(ctx context.Context, id int64) error
}

// EnrollRequest is the payload for enrolling a student in a course.
type EnrollRequest struct {
	StudentID int64 `json:"student_id" validate:"required,gt=0"`
	CourseID  int64 `json:"course_id" validate:"required,gt=0"`
}

// GradeEntry is one (student, grade) pair in a grade sheet.
type GradeEntry struct {
	StudentID int64   `json:"student_id" validate:"required,gt=0"`
	Grade     float64 `json:"grade" validate:"gte=0,lte=20"`
}

// RecordGradesRequest carries the grade sheet for one course.
type RecordGradesRequest struct {
	Grades []GradeEntry `json:"grades" validate:"required,min=1,dive"`
}

// RecordGradesResult reports how much of a grade sheet was applied.
type RecordGradesResult struct {
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
}

// EnrollmentService implements enrollment and grading use cases.
type EnrollmentService struct {
	enrollments enrollmentRepository
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService. metrics may be nil.
func NewEnrollmentService(enrollments enrollmentRepository, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{enrollments: enrollments, metrics: metrics, validator: validate, logger: logger}
}

// Enroll registers a student in a course. The student must exist, the course
// must have a free seat, and the pair must not already be enrolled; all three
// are checked atomically with the insert.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	enrollment := &models.Enrollment{StudentID: req.StudentID, CourseID: req.CourseID}
	start := time.Now()
	err := s.enrollments.Enroll(ctx, enrollment)
	s.metrics.ObserveDBQuery("enrollment_enroll", time.Since(start))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStudentNotFound):
			return nil, appErrors.Clone(appErrors.ErrStudentNotFound, "")
		case errors.Is(err, repository.ErrCourseNotFound):
			return nil, appErrors.Clone(appErrors.ErrCourseNotFound, "")
		case errors.Is(err, repository.ErrAlreadyEnrolled):
			return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
		case errors.Is(err, repository.ErrCourseFull):
			return nil, appErrors.Clone(appErrors.ErrCourseFull, "")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrSaveEnrollment.Code, appErrors.ErrSaveEnrollment.Status, appErrors.ErrSaveEnrollment.Message)
		}
	}

	s.logger.Info("student enrolled",
		zap.Int64("enrollment_id", enrollment.ID),
		zap.Int64("student_id", enrollment.StudentID),
		zap.Int64("course_id", enrollment.CourseID))
	return enrollment, nil
}

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrViewEnrollments.Code, appErrors.ErrViewEnrollments.Status, appErrors.ErrViewEnrollments.Message)
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return enrollments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single enrollment by id.
func (s *EnrollmentService) Get(ctx context.Context, id int64) (*models.Enrollment, error) {
	enrollment, err := s.enrollments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrEnrollmentNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrViewEnrollments.Code, appErrors.ErrViewEnrollments.Status, appErrors.ErrViewEnrollments.Message)
	}
	return enrollment, nil
}

// FindByStudentAndCourse returns the enrollment linking a student to a course,
// grade included when one has been recorded.
func (s *EnrollmentService) FindByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	if studentID <= 0 || courseID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId and courseId must be positive integers")
	}
	enrollment, err := s.enrollments.FindByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrEnrollmentNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrViewEnrollments.Code, appErrors.ErrViewEnrollments.Status, appErrors.ErrViewEnrollments.Message)
	}
	return enrollment, nil
}

// RecordGrades applies a grade sheet to a course. Pairs with no matching
// enrollment are skipped, never created; the caller learns how many grades
// landed and how many were skipped.
func (s *EnrollmentService) RecordGrades(ctx context.Context, courseID int64, req RecordGradesRequest) (*RecordGradesResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	grades := make(map[int64]float64, len(req.Grades))
	for _, entry := range req.Grades {
		grades[entry.StudentID] = entry.Grade
	}

	start := time.Now()
	applied, err := s.enrollments.RecordGrades(ctx, courseID, grades)
	s.metrics.ObserveDBQuery("enrollment_record_grades", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRecordGrades.Code, appErrors.ErrRecordGrades.Status, appErrors.ErrRecordGrades.Message)
	}

	skipped := len(grades) - applied
	if skipped > 0 {
		s.logger.Warn("grade sheet contained unenrolled students",
			zap.Int64("course_id", courseID),
			zap.Int("applied", applied),
			zap.Int("skipped", skipped))
	}
	return &RecordGradesResult{Applied: applied, Skipped: skipped}, nil
}

// Delete removes an enrollment.
func (s *EnrollmentService) Delete(ctx context.Context, id int64) error {
	if err := s.enrollments.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrEnrollmentNotFound, "")
		}
		return appErrors.Wrap(err, appErrors.ErrDeleteEnrollment.Code, appErrors.ErrDeleteEnrollment.Status, appErrors.ErrDeleteEnrollment.Message)
	}
	s.logger.Info("enrollment deleted", zap.Int64("enrollment_id", id))
	return nil
}
