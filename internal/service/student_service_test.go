package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/edu-platform/edu-mgmt-api/internal/models"
	appErrors "github.com/edu-platform/edu-mgmt-api/pkg/errors"
)

type mockStudentRepo struct {
	students  map[int64]*models.Student
	conflicts []string
	created   *models.Student
	nextID    int64
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var out []models.Student
	for _, s := range m.students {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		copy := *s
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) FindConflicts(ctx context.Context, student *models.Student, excludeID int64) ([]string, error) {
	return m.conflicts, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[int64]*models.Student)
	}
	m.nextID++
	student.ID = m.nextID
	m.students[student.ID] = student
	m.created = student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	m.students[student.ID] = student
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.students[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.students, id)
	return nil
}

type mockEnrollmentsByStudent struct {
	byStudent map[int64][]models.EnrollmentDetail
}

func (m *mockEnrollmentsByStudent) FindByStudentID(ctx context.Context, studentID int64) ([]models.EnrollmentDetail, error) {
	return m.byStudent[studentID], nil
}

func validStudentRequest() RegisterStudentRequest {
	return RegisterStudentRequest{
		FirstName:     "Ali",
		LastName:      "Rezaei",
		MobileNumber:  "09123456789",
		EmailAddress:  "ali@example.com",
		NationalCode:  "1234567890",
		StudentNumber: "12345",
	}
}

func TestStudentServiceRegisterDefaultsCredentials(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, &mockEnrollmentsByStudent{}, nil, nil)

	student, err := svc.Register(context.Background(), validStudentRequest())
	require.NoError(t, err)

	assert.Equal(t, "12345", student.Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte("1234567890")))
}

func TestStudentServiceRegisterExplicitCredentials(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, &mockEnrollmentsByStudent{}, nil, nil)

	req := validStudentRequest()
	req.Username = "ali.rezaei"
	req.Password = "mypassword"
	student, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "ali.rezaei", student.Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte("mypassword")))
}

func TestStudentServiceRegisterAggregatesViolations(t *testing.T) {
	svc := NewStudentService(&mockStudentRepo{}, &mockEnrollmentsByStudent{}, nil, nil)

	req := RegisterStudentRequest{
		MobileNumber: "091",
		EmailAddress: "not-an-email",
	}
	_, err := svc.Register(context.Background(), req)
	appErr := appErrors.FromError(err)

	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "FirstName is required")
	assert.Contains(t, appErr.Message, "LastName is required")
	assert.Contains(t, appErr.Message, "EmailAddress must be a valid email address")
	assert.Contains(t, appErr.Message, "StudentNumber is required")
}

func TestStudentServiceRegisterOversizedFields(t *testing.T) {
	svc := NewStudentService(&mockStudentRepo{}, &mockEnrollmentsByStudent{}, nil, nil)

	req := validStudentRequest()
	req.FirstName = strings.Repeat("a", 30)
	req.StudentNumber = "123456"
	_, err := svc.Register(context.Background(), req)
	appErr := appErrors.FromError(err)

	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "FirstName must satisfy max=20")
	assert.Contains(t, appErr.Message, "StudentNumber must satisfy len=5")
}

func TestStudentServiceRegisterReportsAllConflicts(t *testing.T) {
	repo := &mockStudentRepo{conflicts: []string{"username", "national_code", "student_number"}}
	svc := NewStudentService(repo, &mockEnrollmentsByStudent{}, nil, nil)

	_, err := svc.Register(context.Background(), validStudentRequest())
	appErr := appErrors.FromError(err)

	assert.Equal(t, appErrors.ErrRegisterStudent.Code, appErr.Code)
	assert.Equal(t, 409, appErr.Status)
	assert.Contains(t, appErr.Message, "username")
	assert.Contains(t, appErr.Message, "national_code")
	assert.Contains(t, appErr.Message, "student_number")
}

func TestStudentServiceGetMissing(t *testing.T) {
	svc := NewStudentService(&mockStudentRepo{}, &mockEnrollmentsByStudent{}, nil, nil)

	_, err := svc.Get(context.Background(), 404)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrStudentNotFound.Code, appErr.Code)
}

func TestStudentServiceDeleteMissing(t *testing.T) {
	svc := NewStudentService(&mockStudentRepo{}, &mockEnrollmentsByStudent{}, nil, nil)

	err := svc.Delete(context.Background(), 404)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrStudentNotFound.Code, appErr.Code)
}

func TestStudentServiceEnrollments(t *testing.T) {
	repo := &mockStudentRepo{students: map[int64]*models.Student{
		7: {ID: 7, FirstName: "Ali", LastName: "Rezaei"},
	}}
	grade := 18.5
	enrollments := &mockEnrollmentsByStudent{byStudent: map[int64][]models.EnrollmentDetail{
		7: {{Enrollment: models.Enrollment{ID: 100, StudentID: 7, CourseID: 3, Grade: &grade}, CourseName: "Algorithms 1"}},
	}}
	svc := NewStudentService(repo, enrollments, nil, nil)

	out, err := svc.Enrollments(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Algorithms 1", out[0].CourseName)
	assert.Equal(t, 18.5, *out[0].Grade)
}
