package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/edu-platform/edu-mgmt-api/internal/models"
	appErrors "github.com/edu-platform/edu-mgmt-api/pkg/errors"
)

type mockAdminReader struct {
	admins map[string]*models.Admin
	err    error
}

func (m *mockAdminReader) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	if m.err != nil {
		return nil, m.err
	}
	if admin, ok := m.admins[username]; ok {
		return admin, nil
	}
	return nil, sql.ErrNoRows
}

type mockTeacherAuthRepo struct {
	teachers       map[string]*models.Teacher
	passwordByID   map[int64]string
	missingOnWrite bool
}

func (m *mockTeacherAuthRepo) FindByUsername(ctx context.Context, username string) (*models.Teacher, error) {
	if teacher, ok := m.teachers[username]; ok {
		return teacher, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherAuthRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	if m.missingOnWrite {
		return sql.ErrNoRows
	}
	if m.passwordByID == nil {
		m.passwordByID = make(map[int64]string)
	}
	m.passwordByID[id] = passwordHash
	return nil
}

type mockStudentAuthReader struct {
	students map[string]*models.Student
}

func (m *mockStudentAuthReader) FindByUsername(ctx context.Context, username string) (*models.Student, error) {
	if student, ok := m.students[username]; ok {
		return student, nil
	}
	return nil, sql.ErrNoRows
}

type mockSessionStore struct {
	sessions map[string]*models.Session
	saveErr  error
}

func (m *mockSessionStore) Save(ctx context.Context, session *models.Session) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.sessions == nil {
		m.sessions = make(map[string]*models.Session)
	}
	m.sessions[session.ID] = session
	return nil
}

func (m *mockSessionStore) Find(ctx context.Context, token string) (*models.Session, error) {
	if session, ok := m.sessions[token]; ok {
		return session, nil
	}
	return nil, redis.Nil
}

func (m *mockSessionStore) Revoke(ctx context.Context, token string) error {
	delete(m.sessions, token)
	return nil
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newTestAuthService(admins *mockAdminReader, teachers *mockTeacherAuthRepo, students *mockStudentAuthReader, sessions *mockSessionStore) *AuthService {
	if admins == nil {
		admins = &mockAdminReader{}
	}
	if teachers == nil {
		teachers = &mockTeacherAuthRepo{}
	}
	if students == nil {
		students = &mockStudentAuthReader{}
	}
	if sessions == nil {
		sessions = &mockSessionStore{}
	}
	return NewAuthService(admins, teachers, students, sessions, nil, nil, AuthConfig{
		Secret:             "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
	})
}

func TestAuthServiceLoginAdmin(t *testing.T) {
	admins := &mockAdminReader{admins: map[string]*models.Admin{
		"admin1": {ID: 1, Username: "admin1", PasswordHash: hashFor(t, "password1")},
	}}
	sessions := &mockSessionStore{}
	svc := newTestAuthService(admins, nil, nil, sessions)

	res, err := svc.Login(context.Background(), models.LoginRequest{Role: models.RoleAdmin, Username: "admin1", Password: "password1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, models.RoleAdmin, res.Role)
	assert.Len(t, sessions.sessions, 1)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.SubjectID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	admins := &mockAdminReader{admins: map[string]*models.Admin{
		"admin1": {ID: 1, Username: "admin1", PasswordHash: hashFor(t, "password1")},
	}}
	svc := newTestAuthService(admins, nil, nil, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Role: models.RoleAdmin, Username: "admin1", Password: "wrong"})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginUnknownUsername(t *testing.T) {
	svc := newTestAuthService(&mockAdminReader{}, nil, nil, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Role: models.RoleAdmin, Username: "nobody", Password: "whatever"})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginBackendFailure(t *testing.T) {
	admins := &mockAdminReader{err: errors.New("connection refused")}
	svc := newTestAuthService(admins, nil, nil, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Role: models.RoleAdmin, Username: "admin1", Password: "password1"})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAuthBackend.Code, appErr.Code)
}

func TestAuthServiceLoginStudent(t *testing.T) {
	students := &mockStudentAuthReader{students: map[string]*models.Student{
		"12345": {ID: 7, Username: "12345", PasswordHash: hashFor(t, "1234567890")},
	}}
	svc := newTestAuthService(nil, nil, students, nil)

	res, err := svc.Login(context.Background(), models.LoginRequest{Role: models.RoleStudent, Username: "12345", Password: "1234567890"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.SubjectID)
	assert.Equal(t, models.RoleStudent, res.Role)
}

func TestAuthServiceRefreshRotatesSession(t *testing.T) {
	admins := &mockAdminReader{admins: map[string]*models.Admin{
		"admin1": {ID: 1, Username: "admin1", PasswordHash: hashFor(t, "password1")},
	}}
	sessions := &mockSessionStore{}
	svc := newTestAuthService(admins, nil, nil, sessions)

	login, err := svc.Login(context.Background(), models.LoginRequest{Role: models.RoleAdmin, Username: "admin1", Password: "password1"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	_, err = svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestAuthService(nil, nil, nil, nil)

	_, err := svc.ValidateToken("not-a-token")
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestAuthServiceChangePassword(t *testing.T) {
	teachers := &mockTeacherAuthRepo{}
	svc := newTestAuthService(nil, teachers, nil, nil)

	err := svc.ChangePassword(context.Background(), 9, ChangePasswordRequest{NewPassword: "supersecret"})
	require.NoError(t, err)

	hash := teachers.passwordByID[9]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("supersecret")))
}

func TestAuthServiceChangePasswordTooShort(t *testing.T) {
	svc := newTestAuthService(nil, nil, nil, nil)

	err := svc.ChangePassword(context.Background(), 9, ChangePasswordRequest{NewPassword: "short"})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestAuthServiceChangePasswordMissingTeacher(t *testing.T) {
	teachers := &mockTeacherAuthRepo{missingOnWrite: true}
	svc := newTestAuthService(nil, teachers, nil, nil)

	err := svc.ChangePassword(context.Background(), 404, ChangePasswordRequest{NewPassword: "supersecret"})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrTeacherNotFound.Code, appErr.Code)
}
