package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error carrying the numeric code surfaced to
// callers alongside an HTTP status for the transport layer.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s (code %d): %v", e.Message, e.Code, e.Err)
	}
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches a cause to a coded error.
func Wrap(err error, code, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// One code per logical failure. Authentication distinguishes a credential
// mismatch from an unreachable backend; not-found codes are distinct per entity
// and per lookup kind.
var (
	ErrAuthBackend        = New(300, http.StatusServiceUnavailable, "authentication backend unreachable")
	ErrInvalidCredentials = New(301, http.StatusUnauthorized, "invalid username or password")

	ErrRegisterStudent = New(302, http.StatusInternalServerError, "failed to register student")
	ErrViewStudents    = New(303, http.StatusInternalServerError, "failed to retrieve students")
	ErrStudentNotFound = New(304, http.StatusNotFound, "student not found")
	ErrUpdateStudent   = New(305, http.StatusInternalServerError, "failed to update student")
	ErrDeleteStudent   = New(306, http.StatusInternalServerError, "failed to delete student")

	ErrRegisterTeacher = New(307, http.StatusInternalServerError, "failed to register teacher")
	ErrViewTeachers    = New(308, http.StatusInternalServerError, "failed to retrieve teachers")
	ErrTeacherNotFound = New(309, http.StatusNotFound, "teacher not found")
	ErrUpdateTeacher   = New(310, http.StatusInternalServerError, "failed to update teacher")
	ErrDeleteTeacher   = New(311, http.StatusInternalServerError, "failed to delete teacher")

	ErrCreateCourse         = New(312, http.StatusInternalServerError, "failed to create course")
	ErrAmbiguousTeacherName = New(313, http.StatusBadRequest, "teacher last name matches more than one teacher")
	ErrTeacherNameNotFound  = New(314, http.StatusNotFound, "no teacher with that last name")
	ErrUpdateCourse         = New(315, http.StatusInternalServerError, "failed to update course")
	ErrDeleteCourse         = New(316, http.StatusInternalServerError, "failed to delete course")
	ErrViewCourses          = New(3130, http.StatusInternalServerError, "failed to retrieve courses")
	ErrCourseNotFound       = New(3121, http.StatusNotFound, "course not found")
	ErrDuplicateCourse      = New(3122, http.StatusConflict, "course with that name already exists")
	ErrAssignCourse         = New(3131, http.StatusInternalServerError, "failed to assign course to teacher")
	ErrCoursesByTeacher     = New(3132, http.StatusInternalServerError, "failed to retrieve courses for teacher")
	ErrStudentsByCourse     = New(3134, http.StatusInternalServerError, "failed to retrieve students for course")
	ErrEnrollmentsByCourse  = New(3135, http.StatusInternalServerError, "failed to retrieve enrollments for course")

	ErrSaveEnrollment     = New(317, http.StatusInternalServerError, "failed to save enrollment")
	ErrViewEnrollments    = New(318, http.StatusInternalServerError, "failed to retrieve enrollments")
	ErrEnrollmentNotFound = New(319, http.StatusNotFound, "enrollment not found")
	ErrUpdateEnrollment   = New(320, http.StatusInternalServerError, "failed to update enrollment")
	ErrDeleteEnrollment   = New(321, http.StatusInternalServerError, "failed to delete enrollment")
	ErrRecordGrades       = New(322, http.StatusInternalServerError, "failed to record grades")
	ErrAlreadyEnrolled    = New(324, http.StatusConflict, "student already enrolled in course")
	ErrCourseFull         = New(325, http.StatusConflict, "course has no remaining capacity")

	ErrValidation   = New(330, http.StatusBadRequest, "validation failed")
	ErrUnauthorized = New(331, http.StatusUnauthorized, "unauthorized")
	ErrForbidden    = New(332, http.StatusForbidden, "forbidden")
	ErrInternal     = New(399, http.StatusInternalServerError, "internal error")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
