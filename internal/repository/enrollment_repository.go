package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edu-platform/edu-mgmt-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollments and grades.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
JOIN students s ON s.id = e.student_id
JOIN courses c ON c.id = e.course_id`
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.StudentID != 0 {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != 0 {
		conditions = append(conditions, fmt.Sprintf("e.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Graded != nil {
		if *filter.Graded {
			conditions = append(conditions, "e.grade IS NOT NULL")
		} else {
			conditions = append(conditions, "e.grade IS NULL")
		}
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.student_id, e.course_id, e.grade, e.created_at,
        s.first_name || ' ' || s.last_name AS student_name, s.student_number, c.course_name
        %s ORDER BY e.created_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID returns an enrollment by its id.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, course_id, grade, created_at FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindByStudentAndCourse returns the single enrollment for the pair, or
// sql.ErrNoRows.
func (r *EnrollmentRepository) FindByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, course_id, grade, created_at FROM enrollments WHERE student_id = $1 AND course_id = $2`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, courseID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindByCourseID returns all enrollments for a course with student context.
func (r *EnrollmentRepository) FindByCourseID(ctx context.Context, courseID int64) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.course_id, e.grade, e.created_at,
        s.first_name || ' ' || s.last_name AS student_name, s.student_number, c.course_name
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN courses c ON c.id = e.course_id
        WHERE e.course_id = $1
        ORDER BY s.last_name ASC`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, courseID); err != nil {
		return nil, fmt.Errorf("find enrollments by course: %w", err)
	}
	return enrollments, nil
}

// FindByStudentID returns all enrollments for a student with course context.
func (r *EnrollmentRepository) FindByStudentID(ctx context.Context, studentID int64) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.course_id, e.grade, e.created_at,
        s.first_name || ' ' || s.last_name AS student_name, s.student_number, c.course_name
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN courses c ON c.id = e.course_id
        WHERE e.student_id = $1
        ORDER BY e.created_at DESC`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("find enrollments by student: %w", err)
	}
	return enrollments, nil
}

// Enroll inserts an enrollment in one transaction: the student must exist, the
// course row is locked while seats are counted, and the (student, course) pair
// must not already be enrolled.
func (r *EnrollmentRepository) Enroll(ctx context.Context, enrollment *models.Enrollment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enroll: %w", err)
	}

	var studentExists int
	if err := tx.GetContext(ctx, &studentExists, "SELECT 1 FROM students WHERE id = $1", enrollment.StudentID); err != nil {
		tx.Rollback() //nolint:errcheck
		if errors.Is(err, sql.ErrNoRows) {
			return ErrStudentNotFound
		}
		return fmt.Errorf("verify student: %w", err)
	}

	var capacity int
	if err := tx.GetContext(ctx, &capacity, "SELECT capacity FROM courses WHERE id = $1 FOR UPDATE", enrollment.CourseID); err != nil {
		tx.Rollback() //nolint:errcheck
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("lock course: %w", err)
	}

	var enrolled int
	if err := tx.GetContext(ctx, &enrolled, "SELECT COUNT(*) FROM enrollments WHERE course_id = $1", enrollment.CourseID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("count enrollments: %w", err)
	}
	if enrolled >= capacity {
		tx.Rollback() //nolint:errcheck
		return ErrCourseFull
	}

	var pairExists int
	err = tx.GetContext(ctx, &pairExists, "SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2 LIMIT 1", enrollment.StudentID, enrollment.CourseID)
	if err == nil {
		tx.Rollback() //nolint:errcheck
		return ErrAlreadyEnrolled
	}
	if !errors.Is(err, sql.ErrNoRows) {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("check enrollment pair: %w", err)
	}

	enrollment.CreatedAt = time.Now().UTC()
	const insert = `INSERT INTO enrollments (student_id, course_id, grade, created_at)
        VALUES ($1, $2, $3, $4) RETURNING id`
	if err := tx.GetContext(ctx, &enrollment.ID, insert,
		enrollment.StudentID, enrollment.CourseID, enrollment.Grade, enrollment.CreatedAt); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create enrollment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit enroll: %w", err)
	}
	return nil
}

// RecordGrades applies the grade map to a course's enrollments inside one
// transaction. Pairs without a matching enrollment are skipped, never created;
// the number of grades actually applied is returned.
func (r *EnrollmentRepository) RecordGrades(ctx context.Context, courseID int64, grades map[int64]float64) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin record grades: %w", err)
	}

	studentIDs := make([]int64, 0, len(grades))
	for studentID := range grades {
		studentIDs = append(studentIDs, studentID)
	}
	sort.Slice(studentIDs, func(i, j int) bool { return studentIDs[i] < studentIDs[j] })

	applied := 0
	const update = `UPDATE enrollments SET grade = $3 WHERE course_id = $1 AND student_id = $2`
	for _, studentID := range studentIDs {
		res, err := tx.ExecContext(ctx, update, courseID, studentID, grades[studentID])
		if err != nil {
			tx.Rollback() //nolint:errcheck
			return 0, fmt.Errorf("record grade: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			tx.Rollback() //nolint:errcheck
			return 0, fmt.Errorf("record grade: %w", err)
		}
		applied += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit record grades: %w", err)
	}
	return applied, nil
}

// Delete removes an enrollment by id.
func (r *EnrollmentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM enrollments WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
