package models

import "time"

// Course represents a taught course. TeacherName is a denormalized copy of the
// assigned teacher's name kept in sync whenever the teacher reference changes.
type Course struct {
	ID          int64     `db:"id" json:"id"`
	CourseName  string    `db:"course_name" json:"course_name"`
	Units       int       `db:"units" json:"units"`
	Capacity    int       `db:"capacity" json:"capacity"`
	TeacherName string    `db:"teacher_name" json:"teacher_name"`
	StartDate   time.Time `db:"start_date" json:"start_date"`
	TeacherID   int64     `db:"teacher_id" json:"teacher_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CourseDetail enriches Course with the live enrollment count.
type CourseDetail struct {
	Course
	EnrolledCount int `db:"enrolled_count" json:"enrolled_count"`
}

// CourseFilter captures filtering options for listing courses.
type CourseFilter struct {
	Search    string
	TeacherID int64
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
