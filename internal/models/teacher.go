package models

import "time"

// Degree enumerates the academic degrees a teacher may hold.
type Degree string

const (
	DegreeBachelor  Degree = "BACHELOR"
	DegreeMaster    Degree = "MASTER"
	DegreeDoctorate Degree = "DOCTORATE"
)

// Teacher represents an instructor record.
type Teacher struct {
	ID             int64     `db:"id" json:"id"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	Username       string    `db:"username" json:"username"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	MobileNumber   string    `db:"mobile_number" json:"mobile_number"`
	EmailAddress   string    `db:"email_address" json:"email_address"`
	NationalCode   string    `db:"national_code" json:"national_code"`
	SpecialtyField string    `db:"specialty_field" json:"specialty_field"`
	Degree         Degree    `db:"degree" json:"degree"`
	PersonnelCode  string    `db:"personnel_code" json:"personnel_code"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
