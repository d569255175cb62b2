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

type mockTeacherRepo struct {
	teachers  map[int64]*models.Teacher
	conflicts []string
	nextID    int64
}

func (m *mockTeacherRepo) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	var out []models.Teacher
	for _, teacher := range m.teachers {
		out = append(out, *teacher)
	}
	return out, len(out), nil
}

func (m *mockTeacherRepo) FindByID(ctx context.Context, id int64) (*models.Teacher, error) {
	if teacher, ok := m.teachers[id]; ok {
		copy := *teacher
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherRepo) FindConflicts(ctx context.Context, teacher *models.Teacher, excludeID int64) ([]string, error) {
	return m.conflicts, nil
}

func (m *mockTeacherRepo) Create(ctx context.Context, teacher *models.Teacher) error {
	if m.teachers == nil {
		m.teachers = make(map[int64]*models.Teacher)
	}
	m.nextID++
	teacher.ID = m.nextID
	m.teachers[teacher.ID] = teacher
	return nil
}

func (m *mockTeacherRepo) Update(ctx context.Context, teacher *models.Teacher) error {
	m.teachers[teacher.ID] = teacher
	return nil
}

func (m *mockTeacherRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.teachers[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.teachers, id)
	return nil
}

type mockCoursesByTeacher struct {
	byTeacher map[int64][]models.Course
}

func (m *mockCoursesByTeacher) FindByTeacherID(ctx context.Context, teacherID int64) ([]models.Course, error) {
	return m.byTeacher[teacherID], nil
}

func validTeacherRequest() RegisterTeacherRequest {
	return RegisterTeacherRequest{
		FirstName:      "Sara",
		LastName:       "Karimi",
		MobileNumber:   "09120000001",
		EmailAddress:   "sara@example.com",
		NationalCode:   "1111111111",
		SpecialtyField: "Algorithms",
		Degree:         models.DegreeDoctorate,
		PersonnelCode:  "40010",
	}
}

func TestTeacherServiceRegisterDefaultsCredentials(t *testing.T) {
	repo := &mockTeacherRepo{}
	svc := NewTeacherService(repo, &mockCoursesByTeacher{}, nil, nil)

	teacher, err := svc.Register(context.Background(), validTeacherRequest())
	require.NoError(t, err)

	assert.Equal(t, "40010", teacher.Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(teacher.PasswordHash), []byte("1111111111")))
}

func TestTeacherServiceRegisterInvalidDegree(t *testing.T) {
	svc := NewTeacherService(&mockTeacherRepo{}, &mockCoursesByTeacher{}, nil, nil)

	req := validTeacherRequest()
	req.Degree = models.Degree("PHD")
	_, err := svc.Register(context.Background(), req)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "Degree must be one of")
}

func TestTeacherServiceRegisterOversizedFields(t *testing.T) {
	svc := NewTeacherService(&mockTeacherRepo{}, &mockCoursesByTeacher{}, nil, nil)

	req := validTeacherRequest()
	req.PersonnelCode = "400100"
	req.SpecialtyField = strings.Repeat("x", 51)
	_, err := svc.Register(context.Background(), req)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "PersonnelCode must satisfy len=5")
	assert.Contains(t, appErr.Message, "SpecialtyField must satisfy max=50")
}

func TestTeacherServiceRegisterConflicts(t *testing.T) {
	repo := &mockTeacherRepo{conflicts: []string{"personnel_code"}}
	svc := NewTeacherService(repo, &mockCoursesByTeacher{}, nil, nil)

	_, err := svc.Register(context.Background(), validTeacherRequest())
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrRegisterTeacher.Code, appErr.Code)
	assert.Equal(t, 409, appErr.Status)
	assert.Contains(t, appErr.Message, "personnel_code")
}

func TestTeacherServiceGetMissing(t *testing.T) {
	svc := NewTeacherService(&mockTeacherRepo{}, &mockCoursesByTeacher{}, nil, nil)

	_, err := svc.Get(context.Background(), 404)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrTeacherNotFound.Code, appErr.Code)
}

func TestTeacherServiceCourses(t *testing.T) {
	repo := &mockTeacherRepo{teachers: map[int64]*models.Teacher{
		9: {ID: 9, LastName: "Karimi"},
	}}
	courses := &mockCoursesByTeacher{byTeacher: map[int64][]models.Course{
		9: {{ID: 5, CourseName: "Algorithms 1", TeacherID: 9, TeacherName: "Karimi"}},
	}}
	svc := NewTeacherService(repo, courses, nil, nil)

	out, err := svc.Courses(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Algorithms 1", out[0].CourseName)
}

func TestTeacherServiceCoursesMissingTeacher(t *testing.T) {
	svc := NewTeacherService(&mockTeacherRepo{}, &mockCoursesByTeacher{}, nil, nil)

	_, err := svc.Courses(context.Background(), 404)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrTeacherNotFound.Code, appErr.Code)
}
