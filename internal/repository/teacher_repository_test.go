package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edu-platform/edu-mgmt-api/internal/models"
)

func teacherRow(id int64, lastName string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "first_name", "last_name", "username", "password_hash", "mobile_number", "email_address", "national_code", "specialty_field", "degree", "personnel_code", "created_at", "updated_at"}).
		AddRow(id, "Sara", lastName, "4001", "hash", "09120000001", "sara@example.com", "1111111111", "Algorithms", models.DegreeDoctorate, "4001", now, now)
}

func TestTeacherRepositoryFindByLastName(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery("FROM teachers WHERE last_name").
		WithArgs("Karimi").
		WillReturnRows(teacherRow(9, "Karimi"))

	teacher, err := repo.FindByLastName(context.Background(), "Karimi")
	require.NoError(t, err)
	assert.Equal(t, int64(9), teacher.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryFindByLastNameMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	empty := sqlmock.NewRows([]string{"id", "first_name", "last_name", "username", "password_hash", "mobile_number", "email_address", "national_code", "specialty_field", "degree", "personnel_code", "created_at", "updated_at"})
	mock.ExpectQuery("FROM teachers WHERE last_name").
		WithArgs("Ghost").
		WillReturnRows(empty)

	_, err := repo.FindByLastName(context.Background(), "Ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryFindByLastNameAmbiguous(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "first_name", "last_name", "username", "password_hash", "mobile_number", "email_address", "national_code", "specialty_field", "degree", "personnel_code", "created_at", "updated_at"}).
		AddRow(int64(1), "Sara", "Karimi", "4001", "hash", "09120000001", "a@example.com", "1111111111", "Algorithms", models.DegreeDoctorate, "4001", now, now).
		AddRow(int64(2), "Reza", "Karimi", "4002", "hash", "09120000002", "b@example.com", "2222222222", "Databases", models.DegreeMaster, "4002", now, now)
	mock.ExpectQuery("FROM teachers WHERE last_name").
		WithArgs("Karimi").
		WillReturnRows(rows)

	_, err := repo.FindByLastName(context.Background(), "Karimi")
	assert.ErrorIs(t, err, ErrAmbiguousTeacherName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryUpdatePasswordMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectExec("UPDATE teachers SET password_hash").
		WithArgs(int64(404), "newhash", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePassword(context.Background(), 404, "newhash")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
