package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edu-platform/edu-mgmt-api/internal/models"
)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students s"
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.first_name) LIKE $%d OR LOWER(s.last_name) LIKE $%d OR s.student_number LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"last_name":      "s.last_name",
		"student_number": "s.student_number",
		"created_at":     "s.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "s.created_at"
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

	query := fmt.Sprintf(`SELECT s.id, s.first_name, s.last_name, s.username, s.password_hash, s.mobile_number, s.email_address, s.national_code, s.student_number, s.created_at, s.updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student by id.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	const query = `SELECT id, first_name, last_name, username, password_hash, mobile_number, email_address, national_code, student_number, created_at, updated_at
        FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByUsername fetches a student by username for authentication.
func (r *StudentRepository) FindByUsername(ctx context.Context, username string) (*models.Student, error) {
	const query = `SELECT id, first_name, last_name, username, password_hash, mobile_number, email_address, national_code, student_number, created_at, updated_at
        FROM students WHERE username = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, username); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindConflicts reports which unique fields of the candidate are already taken,
// optionally excluding one id (for updates). Every conflicting field is
// reported, not just the first.
func (r *StudentRepository) FindConflicts(ctx context.Context, student *models.Student, excludeID int64) ([]string, error) {
	const query = `SELECT username, mobile_number, email_address, national_code, student_number
        FROM students
        WHERE (username = $1 OR mobile_number = $2 OR email_address = $3 OR national_code = $4 OR student_number = $5)
          AND id <> $6`
	rows, err := r.db.QueryxContext(ctx, query,
		student.Username, student.MobileNumber, student.EmailAddress, student.NationalCode, student.StudentNumber, excludeID)
	if err != nil {
		return nil, fmt.Errorf("check student conflicts: %w", err)
	}
	defer rows.Close()

	taken := map[string]bool{}
	for rows.Next() {
		var username, mobile, email, national, number string
		if err := rows.Scan(&username, &mobile, &email, &national, &number); err != nil {
			return nil, fmt.Errorf("scan student conflict: %w", err)
		}
		if username == student.Username {
			taken["username"] = true
		}
		if mobile == student.MobileNumber {
			taken["mobile_number"] = true
		}
		if email == student.EmailAddress {
			taken["email_address"] = true
		}
		if national == student.NationalCode {
			taken["national_code"] = true
		}
		if number == student.StudentNumber {
			taken["student_number"] = true
		}
	}
	fields := []string{"username", "mobile_number", "email_address", "national_code", "student_number"}
	var conflicts []string
	for _, f := range fields {
		if taken[f] {
			conflicts = append(conflicts, f)
		}
	}
	return conflicts, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (first_name, last_name, username, password_hash, mobile_number, email_address, national_code, student_number, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	if err := r.db.GetContext(ctx, &student.ID, query,
		student.FirstName, student.LastName, student.Username, student.PasswordHash,
		student.MobileNumber, student.EmailAddress, student.NationalCode, student.StudentNumber,
		student.CreatedAt, student.UpdatedAt); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET first_name = :first_name, last_name = :last_name, username = :username,
        mobile_number = :mobile_number, email_address = :email_address, national_code = :national_code,
        student_number = :student_number, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes a student after re-verifying it still exists; enrollments go
// with it via the schema cascade.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete student: %w", err)
	}
	var exists int
	if err := tx.GetContext(ctx, &exists, "SELECT 1 FROM students WHERE id = $1", id); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete student: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete student: %w", err)
	}
	return nil
}

// FindByCourseID returns all students joined through enrollments for a course.
func (r *StudentRepository) FindByCourseID(ctx context.Context, courseID int64) ([]models.Student, error) {
	const query = `SELECT s.id, s.first_name, s.last_name, s.username, s.password_hash, s.mobile_number, s.email_address, s.national_code, s.student_number, s.created_at, s.updated_at
        FROM students s
        JOIN enrollments e ON e.student_id = s.id
        WHERE e.course_id = $1
        ORDER BY s.last_name ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, courseID); err != nil {
		return nil, fmt.Errorf("find students by course: %w", err)
	}
	return students, nil
}
