package models

import "time"

// PositionStatus marks whether a job posting accepts applications.
type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

// Position represents a published job posting.
type Position struct {
	ID           int64          `db:"id" json:"id"`
	Title        string         `db:"title" json:"title"`
	Department   string         `db:"department" json:"department"`
	Location     string         `db:"location" json:"location"`
	Description  string         `db:"description" json:"description"`
	Requirements string         `db:"requirements" json:"requirements"`
	Status       PositionStatus `db:"status" json:"status"`
	ClosesAt     *time.Time     `db:"closes_at" json:"closes_at,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// PositionFilter captures list filters for job postings.
type PositionFilter struct {
	Status   PositionStatus
	Search   string
	Page     int
	PageSize int
}

// RecruitmentStatus tracks an application through the hiring pipeline.
type RecruitmentStatus string

const (
	RecruitmentReceived  RecruitmentStatus = "RECEIVED"
	RecruitmentReviewing RecruitmentStatus = "REVIEWING"
	RecruitmentInterview RecruitmentStatus = "INTERVIEW"
	RecruitmentHired     RecruitmentStatus = "HIRED"
	RecruitmentRejected  RecruitmentStatus = "REJECTED"
)

// Recruitment represents a candidate application for a position.
type Recruitment struct {
	ID         int64             `db:"id" json:"id"`
	PositionID int64             `db:"position_id" json:"position_id"`
	FullName   string            `db:"full_name" json:"full_name"`
	Email      string            `db:"email" json:"email"`
	Phone      string            `db:"phone" json:"phone"`
	CoverNote  string            `db:"cover_note" json:"cover_note"`
	Status     RecruitmentStatus `db:"status" json:"status"`
	CreatedAt  time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time         `db:"updated_at" json:"updated_at"`
}

// RecruitmentFilter captures list filters for applications.
type RecruitmentFilter struct {
	PositionID int64
	Status     RecruitmentStatus
	Page       int
	PageSize   int
}
