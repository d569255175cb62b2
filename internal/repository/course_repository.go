package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edu-platform/edu-mgmt-api/internal/models"
)

const courseColumns = "id, course_name, units, capacity, teacher_name, start_date, teacher_id, created_at, updated_at"

// CourseRepository manages persistence for course records.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses with their enrollment counts.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	base := "FROM courses c LEFT JOIN enrollments e ON e.course_id = c.id"
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(c.course_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.TeacherID != 0 {
		conditions = append(conditions, fmt.Sprintf("c.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"course_name": "c.course_name",
		"start_date":  "c.start_date",
		"created_at":  "c.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "c.created_at"
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

	query := fmt.Sprintf(`SELECT c.id, c.course_name, c.units, c.capacity, c.teacher_name, c.start_date, c.teacher_id, c.created_at, c.updated_at,
        COUNT(e.id) AS enrolled_count
        %s GROUP BY c.id ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(DISTINCT c.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID fetches a course by id.
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindByTeacherID returns all courses taught by the given teacher.
func (r *CourseRepository) FindByTeacherID(ctx context.Context, teacherID int64) ([]models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE teacher_id = $1 ORDER BY start_date ASC", courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, teacherID); err != nil {
		return nil, fmt.Errorf("find courses by teacher: %w", err)
	}
	return courses, nil
}

// FindAvailable returns courses open for enrollment: start date strictly after
// the given instant and seats remaining.
func (r *CourseRepository) FindAvailable(ctx context.Context, now time.Time) ([]models.CourseDetail, error) {
	const query = `SELECT c.id, c.course_name, c.units, c.capacity, c.teacher_name, c.start_date, c.teacher_id, c.created_at, c.updated_at,
        COUNT(e.id) AS enrolled_count
        FROM courses c
        LEFT JOIN enrollments e ON e.course_id = c.id
        WHERE c.start_date > $1
        GROUP BY c.id
        HAVING c.capacity > COUNT(e.id)
        ORDER BY c.start_date ASC`
	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, now); err != nil {
		return nil, fmt.Errorf("find available courses: %w", err)
	}
	return courses, nil
}

// Create persists a new course in one transaction: reject a duplicate name,
// resolve the teacher by exact last name, attach the reference plus the
// denormalized teacher name, insert. No partial row survives a failure.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course, teacherLastName string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create course: %w", err)
	}

	var nameTaken int
	err = tx.GetContext(ctx, &nameTaken, "SELECT 1 FROM courses WHERE course_name = $1 LIMIT 1", course.CourseName)
	if err == nil {
		tx.Rollback() //nolint:errcheck
		return ErrDuplicateCourseName
	}
	if !errors.Is(err, sql.ErrNoRows) {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("check course name: %w", err)
	}

	var teachers []models.Teacher
	query := fmt.Sprintf("SELECT %s FROM teachers WHERE last_name = $1", teacherColumns)
	if err := tx.SelectContext(ctx, &teachers, query, teacherLastName); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("resolve course teacher: %w", err)
	}
	switch len(teachers) {
	case 0:
		tx.Rollback() //nolint:errcheck
		return ErrTeacherNameNotFound
	case 1:
	default:
		tx.Rollback() //nolint:errcheck
		return ErrAmbiguousTeacherName
	}

	course.TeacherID = teachers[0].ID
	course.TeacherName = teachers[0].LastName
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now

	const insert = `INSERT INTO courses (course_name, units, capacity, teacher_name, start_date, teacher_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := tx.GetContext(ctx, &course.ID, insert,
		course.CourseName, course.Units, course.Capacity, course.TeacherName,
		course.StartDate, course.TeacherID, course.CreatedAt, course.UpdatedAt); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create course: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create course: %w", err)
	}
	return nil
}

// AssignTeacher repoints a course at a teacher inside one transaction, keeping
// the denormalized teacher name in step with the reference.
func (r *CourseRepository) AssignTeacher(ctx context.Context, courseID, teacherID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assign teacher: %w", err)
	}

	var course models.Course
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1", courseColumns)
	if err := tx.GetContext(ctx, &course, query, courseID); err != nil {
		tx.Rollback() //nolint:errcheck
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("load course: %w", err)
	}

	var teacher models.Teacher
	query = fmt.Sprintf("SELECT %s FROM teachers WHERE id = $1", teacherColumns)
	if err := tx.GetContext(ctx, &teacher, query, teacherID); err != nil {
		tx.Rollback() //nolint:errcheck
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTeacherNotFound
		}
		return fmt.Errorf("load teacher: %w", err)
	}

	const update = `UPDATE courses SET teacher_id = $2, teacher_name = $3, updated_at = $4 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, update, courseID, teacher.ID, teacher.LastName, time.Now().UTC()); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("assign teacher: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assign teacher: %w", err)
	}
	return nil
}

// Update modifies an existing course's scalar fields.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET course_name = :course_name, units = :units, capacity = :capacity,
        start_date = :start_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// Delete removes a course after re-verifying it still exists; enrollments go
// via the schema cascade.
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete course: %w", err)
	}
	var exists int
	if err := tx.GetContext(ctx, &exists, "SELECT 1 FROM courses WHERE id = $1", id); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM courses WHERE id = $1", id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete course: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete course: %w", err)
	}
	return nil
}
