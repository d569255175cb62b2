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

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error)
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	FindAvailable(ctx context.Context, now time.Time) ([]models.CourseDetail, error)
	Create(ctx context.Context, course *models.Course, teacherLastName string) error
	AssignTeacher(ctx context.Context, courseID, teacherID int64) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id int64) error
}

type courseStudentReader interface {
	FindByCourseID(ctx context.Context, courseID int64) ([]models.Student, error)
}

type courseEnrollmentReader interface {
	FindByCourseID(ctx context.Context, courseID int64) ([]models.EnrollmentDetail, error)
}

// CreateCourseRequest is the payload for creating a course. The teacher is
// named by exact last name and resolved atomically with the insert.
type CreateCourseRequest struct {
	CourseName      string    `json:"course_name" validate:"required,max=100"`
	Units           int       `json:"units" validate:"required,gte=1,lte=4"`
	Capacity        int       `json:"capacity" validate:"gte=0,lte=500"`
	TeacherLastName string    `json:"teacher_last_name" validate:"required,max=20"`
	StartDate       time.Time `json:"start_date" validate:"required"`
}

// UpdateCourseRequest is the payload for updating a course's scalar fields.
type UpdateCourseRequest struct {
	CourseName string    `json:"course_name" validate:"required,max=100"`
	Units      int       `json:"units" validate:"required,gte=1,lte=4"`
	Capacity   int       `json:"capacity" validate:"gte=0,lte=500"`
	StartDate  time.Time `json:"start_date" validate:"required"`
}

// AssignTeacherRequest repoints a course at a teacher by id.
type AssignTeacherRequest struct {
	TeacherID int64 `json:"teacher_id" validate:"required,gt=0"`
}

// CourseService implements course management use cases.
type CourseService struct {
	courses     courseRepository
	students    courseStudentReader
	enrollments courseEnrollmentReader
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewCourseService constructs a CourseService.
func NewCourseService(courses courseRepository, students courseStudentReader, enrollments courseEnrollmentReader, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{
		courses:     courses,
		students:    students,
		enrollments: enrollments,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Create validates and persists a new course, resolving the named teacher in
// the same transaction as the insert. The start date may not lie in the past:
// a course that starts before today could never become available.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if startOfDay(req.StartDate).Before(startOfDay(s.now())) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "StartDate must be today or later")
	}

	course := &models.Course{
		CourseName: req.CourseName,
		Units:      req.Units,
		Capacity:   req.Capacity,
		StartDate:  req.StartDate,
	}

	if err := s.courses.Create(ctx, course, req.TeacherLastName); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateCourseName):
			return nil, appErrors.Clone(appErrors.ErrDuplicateCourse, "")
		case errors.Is(err, repository.ErrTeacherNameNotFound):
			return nil, appErrors.Clone(appErrors.ErrTeacherNameNotFound, "")
		case errors.Is(err, repository.ErrAmbiguousTeacherName):
			return nil, appErrors.Clone(appErrors.ErrAmbiguousTeacherName, "")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrCreateCourse.Code, appErrors.ErrCreateCourse.Status, appErrors.ErrCreateCourse.Message)
		}
	}

	s.logger.Info("course created",
		zap.Int64("course_id", course.ID),
		zap.String("course_name", course.CourseName),
		zap.Int64("teacher_id", course.TeacherID))
	return course, nil
}

// List returns courses with enrollment counts and pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, error) {
	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrViewCourses.Code, appErrors.ErrViewCourses.Status, appErrors.ErrViewCourses.Message)
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return courses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single course by id.
func (s *CourseService) Get(ctx context.Context, id int64) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrCourseNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrViewCourses.Code, appErrors.ErrViewCourses.Status, appErrors.ErrViewCourses.Message)
	}
	return course, nil
}

// Available returns courses that have not started yet and still have seats.
func (s *CourseService) Available(ctx context.Context) ([]models.CourseDetail, error) {
	courses, err := s.courses.FindAvailable(ctx, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrViewCourses.Code, appErrors.ErrViewCourses.Status, appErrors.ErrViewCourses.Message)
	}
	return courses, nil
}

// AssignTeacher repoints a course at a teacher, keeping the denormalized name
// in step.
func (s *CourseService) AssignTeacher(ctx context.Context, courseID int64, req AssignTeacherRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err)
	}
	if err := s.courses.AssignTeacher(ctx, courseID, req.TeacherID); err != nil {
		switch {
		case errors.Is(err, repository.ErrCourseNotFound):
			return appErrors.Clone(appErrors.ErrCourseNotFound, "")
		case errors.Is(err, repository.ErrTeacherNotFound):
			return appErrors.Clone(appErrors.ErrTeacherNotFound, "")
		default:
			return appErrors.Wrap(err, appErrors.ErrAssignCourse.Code, appErrors.ErrAssignCourse.Status, appErrors.ErrAssignCourse.Message)
		}
	}
	s.logger.Info("teacher assigned to course",
		zap.Int64("course_id", courseID),
		zap.Int64("teacher_id", req.TeacherID))
	return nil
}

// Update modifies a course's scalar fields.
func (s *CourseService) Update(ctx context.Context, id int64, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrCourseNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpdateCourse.Code, appErrors.ErrUpdateCourse.Status, appErrors.ErrUpdateCourse.Message)
	}

	course.CourseName = req.CourseName
	course.Units = req.Units
	course.Capacity = req.Capacity
	course.StartDate = req.StartDate

	if err := s.courses.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpdateCourse.Code, appErrors.ErrUpdateCourse.Status, appErrors.ErrUpdateCourse.Message)
	}
	return course, nil
}

// Delete removes a course; its enrollments cascade.
func (s *CourseService) Delete(ctx context.Context, id int64) error {
	if err := s.courses.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrCourseNotFound, "")
		}
		return appErrors.Wrap(err, appErrors.ErrDeleteCourse.Code, appErrors.ErrDeleteCourse.Status, appErrors.ErrDeleteCourse.Message)
	}
	s.logger.Info("course deleted", zap.Int64("course_id", id))
	return nil
}

// Students returns the students enrolled in a course.
func (s *CourseService) Students(ctx context.Context, courseID int64) ([]models.Student, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrCourseNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStudentsByCourse.Code, appErrors.ErrStudentsByCourse.Status, appErrors.ErrStudentsByCourse.Message)
	}
	students, err := s.students.FindByCourseID(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStudentsByCourse.Code, appErrors.ErrStudentsByCourse.Status, appErrors.ErrStudentsByCourse.Message)
	}
	return students, nil
}

// Enrollments returns a course's enrollments with student context.
func (s *CourseService) Enrollments(ctx context.Context, courseID int64) ([]models.EnrollmentDetail, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrCourseNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrEnrollmentsByCourse.Code, appErrors.ErrEnrollmentsByCourse.Status, appErrors.ErrEnrollmentsByCourse.Message)
	}
	enrollments, err := s.enrollments.FindByCourseID(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrEnrollmentsByCourse.Code, appErrors.ErrEnrollmentsByCourse.Status, appErrors.ErrEnrollmentsByCourse.Message)
	}
	return enrollments, nil
}
