package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edu-platform/edu-mgmt-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("INSERT INTO students").
		WithArgs("Ali", "Rezaei", "12345", sqlmock.AnyArg(), "09123456789", "ali@example.com", "1234567890", "12345", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	student := &models.Student{
		FirstName:     "Ali",
		LastName:      "Rezaei",
		Username:      "12345",
		PasswordHash:  "hash",
		MobileNumber:  "09123456789",
		EmailAddress:  "ali@example.com",
		NationalCode:  "1234567890",
		StudentNumber: "12345",
	}
	err := repo.Create(context.Background(), student)
	require.NoError(t, err)
	assert.Equal(t, int64(42), student.ID)
	assert.False(t, student.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindConflictsReportsEveryField(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"username", "mobile_number", "email_address", "national_code", "student_number"}).
		AddRow("12345", "09120000000", "other@example.com", "0000000000", "99999").
		AddRow("other", "09123456789", "ali@example.com", "0000000001", "88888")
	mock.ExpectQuery("SELECT username, mobile_number, email_address, national_code, student_number").
		WithArgs("12345", "09123456789", "ali@example.com", "1234567890", "12345", int64(0)).
		WillReturnRows(rows)

	conflicts, err := repo.FindConflicts(context.Background(), &models.Student{
		Username:      "12345",
		MobileNumber:  "09123456789",
		EmailAddress:  "ali@example.com",
		NationalCode:  "1234567890",
		StudentNumber: "12345",
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"username", "mobile_number", "email_address", "student_number"}, conflicts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM students WHERE id").
		WithArgs(int64(7)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 7)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByCourseID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "first_name", "last_name", "username", "password_hash", "mobile_number", "email_address", "national_code", "student_number", "created_at", "updated_at"}).
		AddRow(int64(1), "Ali", "Rezaei", "12345", "hash", "09123456789", "ali@example.com", "1234567890", "12345", now, now)
	mock.ExpectQuery("FROM students s\\s+JOIN enrollments e ON e.student_id = s.id").
		WithArgs(int64(3)).
		WillReturnRows(rows)

	students, err := repo.FindByCourseID(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Rezaei", students[0].LastName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
