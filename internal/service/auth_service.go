package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/edu-platform/edu-mgmt-api/internal/models"
	appErrors "github.com/edu-platform/edu-mgmt-api/pkg/errors"
)

type adminAuthReader interface {
	FindByUsername(ctx context.Context, username string) (*models.Admin, error)
}

type teacherAuthRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.Teacher, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type studentAuthReader interface {
	FindByUsername(ctx context.Context, username string) (*models.Student, error)
}

type sessionStore interface {
	Save(ctx context.Context, session *models.Session) error
	Find(ctx context.Context, token string) (*models.Session, error)
	Revoke(ctx context.Context, token string) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// ChangePasswordRequest carries a teacher's new password.
type ChangePasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8,max=20"`
}

// AuthService authenticates admins, teachers, and students against their own
// stores and manages token pairs. A credential mismatch and an unreachable
// backend surface as different coded failures.
type AuthService struct {
	admins    adminAuthReader
	teachers  teacherAuthRepository
	students  studentAuthReader
	sessions  sessionStore
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(admins adminAuthReader, teachers teacherAuthRepository, students studentAuthReader, sessions sessionStore, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{admins: admins, teachers: teachers, students: students, sessions: sessions, validator: validate, logger: logger, config: config}
}

// Login authenticates a subject of the requested kind and issues a token pair.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	subjectID, passwordHash, err := s.lookupCredentials(ctx, req.Role, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrAuthBackend.Code, appErrors.ErrAuthBackend.Status, appErrors.ErrAuthBackend.Message)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	accessToken, err := s.generateAccessToken(subjectID, req.Role)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	session := &models.Session{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		Role:      req.Role,
		ExpiresAt: time.Now().UTC().Add(s.config.RefreshTokenExpiry),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrAuthBackend.Code, appErrors.ErrAuthBackend.Status, "failed to persist session")
	}

	return &models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: session.ID,
		ExpiresIn:    int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:     time.Now().UTC(),
		SubjectID:    subjectID,
		Role:         req.Role,
		Username:     req.Username,
	}, nil
}

// Refresh exchanges a refresh token for a new token pair, rotating the session.
func (s *AuthService) Refresh(ctx context.Context, req models.RefreshTokenRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	session, err := s.sessions.Find(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrAuthBackend.Code, appErrors.ErrAuthBackend.Status, "failed to load session")
	}
	if time.Now().UTC().After(session.ExpiresAt) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token expired")
	}

	if err := s.sessions.Revoke(ctx, req.RefreshToken); err != nil {
		s.logger.Warn("failed to revoke used refresh token", zap.Error(err))
	}

	accessToken, err := s.generateAccessToken(session.SubjectID, session.Role)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	next := &models.Session{
		ID:        uuid.NewString(),
		SubjectID: session.SubjectID,
		Role:      session.Role,
		ExpiresAt: time.Now().UTC().Add(s.config.RefreshTokenExpiry),
	}
	if err := s.sessions.Save(ctx, next); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrAuthBackend.Code, appErrors.ErrAuthBackend.Status, "failed to persist session")
	}

	return &models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: next.ID,
		ExpiresIn:    int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:     time.Now().UTC(),
		SubjectID:    session.SubjectID,
		Role:         session.Role,
	}, nil
}

// Logout revokes a refresh session.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.sessions.Revoke(ctx, refreshToken); err != nil {
		return appErrors.Wrap(err, appErrors.ErrAuthBackend.Code, appErrors.ErrAuthBackend.Status, "failed to revoke session")
	}
	return nil
}

// ValidateToken parses and verifies an access token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

// ChangePassword sets a new password for a teacher.
func (s *AuthService) ChangePassword(ctx context.Context, teacherID int64, req ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.teachers.UpdatePassword(ctx, teacherID, string(hash)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrTeacherNotFound, "")
		}
		return appErrors.Wrap(err, appErrors.ErrUpdateTeacher.Code, appErrors.ErrUpdateTeacher.Status, "failed to change password")
	}
	return nil
}

func (s *AuthService) lookupCredentials(ctx context.Context, role models.Role, username string) (int64, string, error) {
	switch role {
	case models.RoleAdmin:
		admin, err := s.admins.FindByUsername(ctx, username)
		if err != nil {
			return 0, "", err
		}
		return admin.ID, admin.PasswordHash, nil
	case models.RoleTeacher:
		teacher, err := s.teachers.FindByUsername(ctx, username)
		if err != nil {
			return 0, "", err
		}
		return teacher.ID, teacher.PasswordHash, nil
	case models.RoleStudent:
		student, err := s.students.FindByUsername(ctx, username)
		if err != nil {
			return 0, "", err
		}
		return student.ID, student.PasswordHash, nil
	default:
		return 0, "", fmt.Errorf("unknown role %q", role)
	}
}

func (s *AuthService) generateAccessToken(subjectID int64, role models.Role) (string, error) {
	now := time.Now().UTC()
	claims := &models.JWTClaims{
		SubjectID: subjectID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subjectID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.AccessTokenExpiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}
