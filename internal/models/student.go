package models

import "time"

// Student represents a learner registered in the institution.
type Student struct {
	ID            int64     `db:"id" json:"id"`
	FirstName     string    `db:"first_name" json:"first_name"`
	LastName      string    `db:"last_name" json:"last_name"`
	Username      string    `db:"username" json:"username"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	MobileNumber  string    `db:"mobile_number" json:"mobile_number"`
	EmailAddress  string    `db:"email_address" json:"email_address"`
	NationalCode  string    `db:"national_code" json:"national_code"`
	StudentNumber string    `db:"student_number" json:"student_number"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
