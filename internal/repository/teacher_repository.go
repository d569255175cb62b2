package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edu-platform/edu-mgmt-api/internal/models"
)

const teacherColumns = "id, first_name, last_name, username, password_hash, mobile_number, email_address, national_code, specialty_field, degree, personnel_code, created_at, updated_at"

// TeacherRepository manages persistence for teacher records.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teachers matching the provided filters.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	base := "FROM teachers t"
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(t.first_name) LIKE $%d OR LOWER(t.last_name) LIKE $%d OR t.personnel_code LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"last_name":      "t.last_name",
		"personnel_code": "t.personnel_code",
		"created_at":     "t.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "t.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT t.id, t.first_name, t.last_name, t.username, t.password_hash, t.mobile_number, t.email_address, t.national_code, t.specialty_field, t.degree, t.personnel_code, t.created_at, t.updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}
	return teachers, total, nil
}

// FindByID fetches a teacher by id.
func (r *TeacherRepository) FindByID(ctx context.Context, id int64) (*models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers WHERE id = $1", teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByUsername fetches a teacher by username for authentication.
func (r *TeacherRepository) FindByUsername(ctx context.Context, username string) (*models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers WHERE username = $1", teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, username); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByLastName resolves a teacher by exact last name. Zero matches surface
// sql.ErrNoRows; more than one match is an ambiguity error the caller must
// resolve with a more specific identifier.
func (r *TeacherRepository) FindByLastName(ctx context.Context, lastName string) (*models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers WHERE last_name = $1", teacherColumns)
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, lastName); err != nil {
		return nil, fmt.Errorf("find teacher by last name: %w", err)
	}
	switch len(teachers) {
	case 0:
		return nil, sql.ErrNoRows
	case 1:
		return &teachers[0], nil
	default:
		return nil, ErrAmbiguousTeacherName
	}
}

// FindConflicts reports which unique fields of the candidate are already taken,
// optionally excluding one id (for updates).
func (r *TeacherRepository) FindConflicts(ctx context.Context, teacher *models.Teacher, excludeID int64) ([]string, error) {
	const query = `SELECT username, mobile_number, email_address, national_code, personnel_code
        FROM teachers
        WHERE (username = $1 OR mobile_number = $2 OR email_address = $3 OR national_code = $4 OR personnel_code = $5)
          AND id <> $6`
	rows, err := r.db.QueryxContext(ctx, query,
		teacher.Username, teacher.MobileNumber, teacher.EmailAddress, teacher.NationalCode, teacher.PersonnelCode, excludeID)
	if err != nil {
		return nil, fmt.Errorf("check teacher conflicts: %w", err)
	}
	defer rows.Close()

	taken := map[string]bool{}
	for rows.Next() {
		var username, mobile, email, national, personnel string
		if err := rows.Scan(&username, &mobile, &email, &national, &personnel); err != nil {
			return nil, fmt.Errorf("scan teacher conflict: %w", err)
		}
		if username == teacher.Username {
			taken["username"] = true
		}
		if mobile == teacher.MobileNumber {
			taken["mobile_number"] = true
		}
		if email == teacher.EmailAddress {
			taken["email_address"] = true
		}
		if national == teacher.NationalCode {
			taken["national_code"] = true
		}
		if personnel == teacher.PersonnelCode {
			taken["personnel_code"] = true
		}
	}
	fields := []string{"username", "mobile_number", "email_address", "national_code", "personnel_code"}
	var conflicts []string
	for _, f := range fields {
		if taken[f] {
			conflicts = append(conflicts, f)
		}
	}
	return conflicts, nil
}

// Create inserts a new teacher record.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	now := time.Now().UTC()
	teacher.CreatedAt = now
	teacher.UpdatedAt = now
	const query = `INSERT INTO teachers (first_name, last_name, username, password_hash, mobile_number, email_address, national_code, specialty_field, degree, personnel_code, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	if err := r.db.GetContext(ctx, &teacher.ID, query,
		teacher.FirstName, teacher.LastName, teacher.Username, teacher.PasswordHash,
		teacher.MobileNumber, teacher.EmailAddress, teacher.NationalCode,
		teacher.SpecialtyField, teacher.Degree, teacher.PersonnelCode,
		teacher.CreatedAt, teacher.UpdatedAt); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Update modifies an existing teacher.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	teacher.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teachers SET first_name = :first_name, last_name = :last_name, username = :username,
        mobile_number = :mobile_number, email_address = :email_address, national_code = :national_code,
        specialty_field = :specialty_field, degree = :degree, personnel_code = :personnel_code,
        updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	return nil
}

// UpdatePassword stores a new password hash for a teacher. A missing teacher
// surfaces sql.ErrNoRows.
func (r *TeacherRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	const query = `UPDATE teachers SET password_hash = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, passwordHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update teacher password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update teacher password: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a teacher after re-verifying it still exists inside the same
// transaction; owned courses and their enrollments go via the schema cascades.
func (r *TeacherRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete teacher: %w", err)
	}
	var exists int
	if err := tx.GetContext(ctx, &exists, "SELECT 1 FROM teachers WHERE id = $1", id); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM teachers WHERE id = $1", id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete teacher: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete teacher: %w", err)
	}
	return nil
}
