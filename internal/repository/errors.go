package repository

import "errors"

// Sentinel errors raised by multi-statement repository operations so services
// can map each logical failure to its own code. Plain "row absent" lookups
// surface sql.ErrNoRows instead.
var (
	ErrDuplicateCourseName  = errors.New("course name already exists")
	ErrTeacherNameNotFound  = errors.New("no teacher with given last name")
	ErrAmbiguousTeacherName = errors.New("multiple teachers share given last name")
	ErrCourseNotFound       = errors.New("course does not exist")
	ErrTeacherNotFound      = errors.New("teacher does not exist")
	ErrStudentNotFound      = errors.New("student does not exist")
	ErrAlreadyEnrolled      = errors.New("enrollment already exists for student and course")
	ErrCourseFull           = errors.New("course capacity exhausted")
)
