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

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	FindConflicts(ctx context.Context, student *models.Student, excludeID int64) ([]string, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id int64) error
}

type studentEnrollmentReader interface {
	FindByStudentID(ctx context.Context, studentID int64) ([]models.EnrollmentDetail, error)
}

// RegisterStudentRequest is the payload for registering a student. Username
// defaults to the student number and the password to the national code when
// either is omitted.
type RegisterStudentRequest struct {
	FirstName     string `json:"first_name" validate:"required,max=20"`
	LastName      string `json:"last_name" validate:"required,max=20"`
	Username      string `json:"username" validate:"omitempty,min=4,max=50"`
	Password      string `json:"password" validate:"omitempty,min=8,max=20"`
	MobileNumber  string `json:"mobile_number" validate:"required,len=11,numeric"`
	EmailAddress  string `json:"email_address" validate:"required,email"`
	NationalCode  string `json:"national_code" validate:"required,len=10,numeric"`
	StudentNumber string `json:"student_number" validate:"required,len=5,numeric"`
}

// UpdateStudentRequest is the payload for updating a student's profile.
type UpdateStudentRequest struct {
	FirstName     string `json:"first_name" validate:"required,max=20"`
	LastName      string `json:"last_name" validate:"required,max=20"`
	Username      string `json:"username" validate:"required,min=4,max=50"`
	MobileNumber  string `json:"mobile_number" validate:"required,len=11,numeric"`
	EmailAddress  string `json:"email_address" validate:"required,email"`
	NationalCode  string `json:"national_code" validate:"required,len=10,numeric"`
	StudentNumber string `json:"student_number" validate:"required,len=5,numeric"`
}

// StudentService implements student management use cases.
type StudentService struct {
	students    studentRepository
	enrollments studentEnrollmentReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(students studentRepository, enrollments studentEnrollmentReader, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{students: students, enrollments: enrollments, validator: validate, logger: logger}
}

// Register validates and persists a new student. Every violated constraint and
// every already-taken unique field is reported in one response.
func (s *StudentService) Register(ctx context.Context, req RegisterStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	username := req.Username
	if username == "" {
		username = req.StudentNumber
	}
	password := req.Password
	if password == "" {
		password = req.NationalCode
	}

	student := &models.Student{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Username:      username,
		MobileNumber:  req.MobileNumber,
		EmailAddress:  req.EmailAddress,
		NationalCode:  req.NationalCode,
		StudentNumber: req.StudentNumber,
	}

	conflicts, err := s.students.FindConflicts(ctx, student, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRegisterStudent.Code, appErrors.ErrRegisterStudent.Status, appErrors.ErrRegisterStudent.Message)
	}
	if len(conflicts) > 0 {
		return nil, conflictError(appErrors.ErrRegisterStudent, conflicts)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRegisterStudent.Code, appErrors.ErrRegisterStudent.Status, "failed to hash password")
	}
	student.PasswordHash = string(hash)

	if err := s.students.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRegisterStudent.Code, appErrors.ErrRegisterStudent.Status, appErrors.ErrRegisterStudent.Message)
	}

	s.logger.Info("student registered",
		zap.Int64("student_id", student.ID),
		zap.String("student_number", student.StudentNumber))
	return student, nil
}

// List returns students with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrViewStudents.Code, appErrors.ErrViewStudents.Status, appErrors.ErrViewStudents.Message)
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single student by id.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrStudentNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrViewStudents.Code, appErrors.ErrViewStudents.Status, appErrors.ErrViewStudents.Message)
	}
	return student, nil
}

// Update modifies a student's profile fields.
func (s *StudentService) Update(ctx context.Context, id int64, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrStudentNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpdateStudent.Code, appErrors.ErrUpdateStudent.Status, appErrors.ErrUpdateStudent.Message)
	}

	student.FirstName = req.FirstName
	student.LastName = req.LastName
	student.Username = req.Username
	student.MobileNumber = req.MobileNumber
	student.EmailAddress = req.EmailAddress
	student.NationalCode = req.NationalCode
	student.StudentNumber = req.StudentNumber

	conflicts, err := s.students.FindConflicts(ctx, student, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpdateStudent.Code, appErrors.ErrUpdateStudent.Status, appErrors.ErrUpdateStudent.Message)
	}
	if len(conflicts) > 0 {
		return nil, conflictError(appErrors.ErrUpdateStudent, conflicts)
	}

	if err := s.students.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpdateStudent.Code, appErrors.ErrUpdateStudent.Status, appErrors.ErrUpdateStudent.Message)
	}
	return student, nil
}

// Delete removes a student and, via cascade, their enrollments.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	if err := s.students.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrStudentNotFound, "")
		}
		return appErrors.Wrap(err, appErrors.ErrDeleteStudent.Code, appErrors.ErrDeleteStudent.Status, appErrors.ErrDeleteStudent.Message)
	}
	s.logger.Info("student deleted", zap.Int64("student_id", id))
	return nil
}

// Enrollments returns a student's enrollments with course context.
func (s *StudentService) Enrollments(ctx context.Context, studentID int64) ([]models.EnrollmentDetail, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrStudentNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrViewEnrollments.Code, appErrors.ErrViewEnrollments.Status, appErrors.ErrViewEnrollments.Message)
	}
	enrollments, err := s.enrollments.FindByStudentID(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrViewEnrollments.Code, appErrors.ErrViewEnrollments.Status, appErrors.ErrViewEnrollments.Message)
	}
	return enrollments, nil
}
