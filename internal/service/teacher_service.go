package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/edu-platform/edu-mgmt-api/internal/models"
	appErrors "github.com/edu-platform/edu-mgmt-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id int64) (*models.Teacher, error)
	FindConflicts(ctx context.Context, teacher *models.Teacher, excludeID int64) ([]string, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id int64) error
}

type teacherCourseReader interface {
	FindByTeacherID(ctx context.Context, teacherID int64) ([]models.Course, error)
}

// RegisterTeacherRequest is the payload for registering a teacher. Username
// defaults to the personnel code and the password to the national code when
// either is omitted.
type RegisterTeacherRequest struct {
	FirstName      string        `json:"first_name" validate:"required,max=20"`
	LastName       string        `json:"last_name" validate:"required,max=20"`
	Username       string        `json:"username" validate:"omitempty,min=4,max=50"`
	Password       string        `json:"password" validate:"omitempty,min=8,max=20"`
	MobileNumber   string        `json:"mobile_number" validate:"required,len=11,numeric"`
	EmailAddress   string        `json:"email_address" validate:"required,email"`
	NationalCode   string        `json:"national_code" validate:"required,len=10,numeric"`
	SpecialtyField string        `json:"specialty_field" validate:"required,max=50"`
	Degree         models.Degree `json:"degree" validate:"required,oneof=BACHELOR MASTER DOCTORATE"`
	PersonnelCode  string        `json:"personnel_code" validate:"required,len=5,numeric"`
}

// UpdateTeacherRequest is the payload for updating a teacher's profile.
type UpdateTeacherRequest struct {
	FirstName      string        `json:"first_name" validate:"required,max=20"`
	LastName       string        `json:"last_name" validate:"required,max=20"`
	Username       string        `json:"username" validate:"required,min=4,max=50"`
	MobileNumber   string        `json:"mobile_number" validate:"required,len=11,numeric"`
	EmailAddress   string        `json:"email_address" validate:"required,email"`
	NationalCode   string        `json:"national_code" validate:"required,len=10,numeric"`
	SpecialtyField string        `json:"specialty_field" validate:"required,max=50"`
	Degree         models.Degree `json:"degree" validate:"required,oneof=BACHELOR MASTER DOCTORATE"`
	PersonnelCode  string        `json:"personnel_code" validate:"required,len=5,numeric"`
}

// TeacherService implements teacher management use cases.
type TeacherService struct {
	teachers  teacherRepository
	courses   teacherCourseReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(teachers teacherRepository, courses teacherCourseReader, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{teachers: teachers, courses: courses, validator: validate, logger: logger}
}

// Register validates and persists a new teacher.
func (s *TeacherService) Register(ctx context.Context, req RegisterTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	username := req.Username
	if username == "" {
		username = req.PersonnelCode
	}
	password := req.Password
	if password == "" {
		password = req.NationalCode
	}

	teacher := &models.Teacher{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Username:       username,
		MobileNumber:   req.MobileNumber,
		EmailAddress:   req.EmailAddress,
		NationalCode:   req.NationalCode,
		SpecialtyField: req.SpecialtyField,
		Degree:         req.Degree,
		PersonnelCode:  req.PersonnelCode,
	}

	conflicts, err := s.teachers.FindConflicts(ctx, teacher, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRegisterTeacher.Code, appErrors.ErrRegisterTeacher.Status, appErrors.ErrRegisterTeacher.Message)
	}
	if len(conflicts) > 0 {
		return nil, conflictError(appErrors.ErrRegisterTeacher, conflicts)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRegisterTeacher.Code, appErrors.ErrRegisterTeacher.Status, "failed to hash password")
	}
	teacher.PasswordHash = string(hash)

	if err := s.teachers.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRegisterTeacher.Code, appErrors.ErrRegisterTeacher.Status, appErrors.ErrRegisterTeacher.Message)
	}

	s.logger.Info("teacher registered",
		zap.Int64("teacher_id", teacher.ID),
		zap.String("personnel_code", teacher.PersonnelCode))
	return teacher, nil
}

// List returns teachers with pagination metadata.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.teachers.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrViewTeachers.Code, appErrors.ErrViewTeachers.Status, appErrors.ErrViewTeachers.Message)
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return teachers, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single teacher by id.
func (s *TeacherService) Get(ctx context.Context, id int64) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrTeacherNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrViewTeachers.Code, appErrors.ErrViewTeachers.Status, appErrors.ErrViewTeachers.Message)
	}
	return teacher, nil
}

// Update modifies a teacher's profile fields.
func (s *TeacherService) Update(ctx context.Context, id int64, req UpdateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	teacher, err := s.teachers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrTeacherNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpdateTeacher.Code, appErrors.ErrUpdateTeacher.Status, appErrors.ErrUpdateTeacher.Message)
	}

	teacher.FirstName = req.FirstName
	teacher.LastName = req.LastName
	teacher.Username = req.Username
	teacher.MobileNumber = req.MobileNumber
	teacher.EmailAddress = req.EmailAddress
	teacher.NationalCode = req.NationalCode
	teacher.SpecialtyField = req.SpecialtyField
	teacher.Degree = req.Degree
	teacher.PersonnelCode = req.PersonnelCode

	conflicts, err := s.teachers.FindConflicts(ctx, teacher, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpdateTeacher.Code, appErrors.ErrUpdateTeacher.Status, appErrors.ErrUpdateTeacher.Message)
	}
	if len(conflicts) > 0 {
		return nil, conflictError(appErrors.ErrUpdateTeacher, conflicts)
	}

	if err := s.teachers.Update(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpdateTeacher.Code, appErrors.ErrUpdateTeacher.Status, appErrors.ErrUpdateTeacher.Message)
	}
	return teacher, nil
}

// Delete removes a teacher; owned courses and their enrollments cascade.
func (s *TeacherService) Delete(ctx context.Context, id int64) error {
	if err := s.teachers.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrTeacherNotFound, "")
		}
		return appErrors.Wrap(err, appErrors.ErrDeleteTeacher.Code, appErrors.ErrDeleteTeacher.Status, appErrors.ErrDeleteTeacher.Message)
	}
	s.logger.Info("teacher deleted", zap.Int64("teacher_id", id))
	return nil
}

// Courses returns the courses taught by a teacher.
func (s *TeacherService) Courses(ctx context.Context, teacherID int64) ([]models.Course, error) {
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrTeacherNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrCoursesByTeacher.Code, appErrors.ErrCoursesByTeacher.Status, appErrors.ErrCoursesByTeacher.Message)
	}
	courses, err := s.courses.FindByTeacherID(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCoursesByTeacher.Code, appErrors.ErrCoursesByTeacher.Status, appErrors.ErrCoursesByTeacher.Message)
	}
	return courses, nil
}
