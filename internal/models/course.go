package models

import "time"

// Course represents an internal training course.
type Course struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Assignment links a user to a course and tracks completion progress.
type Assignment struct {
	ID          int64      `db:"id" json:"id"`
	CourseID    int64      `db:"course_id" json:"course_id"`
	UserID      int64      `db:"user_id" json:"user_id"`
	Progress    int        `db:"progress" json:"progress"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Completed reports whether the assignment reached full progress.
func (a Assignment) Completed() bool {
	return a.CompletedAt != nil
}

// AssignmentFilter captures list filters for course assignments.
type AssignmentFilter struct {
	CourseID  int64
	UserID    int64
	Completed *bool
	Page      int
	PageSize  int
}

// Certificate represents a completion certificate issued for an assignment.
type Certificate struct {
	ID           int64     `db:"id" json:"id"`
	AssignmentID int64     `db:"assignment_id" json:"assignment_id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	CourseID     int64     `db:"course_id" json:"course_id"`
	SerialNumber string    `db:"serial_number" json:"serial_number"`
	FilePath     string    `db:"file_path" json:"file_path"`
	IssuedAt     time.Time `db:"issued_at" json:"issued_at"`
}
