package models

import "time"

// Semester identifies the half of an academic session.
type Semester string

const (
	SemesterFirst  Semester = "FIRST"
	SemesterSecond Semester = "SECOND"
)

// Course represents a taught course tied to an academic session and semester.
type Course struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Title     string    `db:"title" json:"title"`
	SessionID *string   `db:"session_id" json:"session_id,omitempty"`
	Semester  *Semester `db:"semester" json:"semester,omitempty"`
	Units     int       `db:"units" json:"units"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AssignmentStatus marks whether a teaching assignment is in force.
type AssignmentStatus string

const (
	AssignmentStatusActive   AssignmentStatus = "ACTIVE"
	AssignmentStatusInactive AssignmentStatus = "INACTIVE"
)

// TeachingAssignment grants a lecturer teaching rights to a course for a
// specific session and semester.
type TeachingAssignment struct {
	ID         string           `db:"id" json:"id"`
	LecturerID string           `db:"lecturer_id" json:"lecturer_id"`
	CourseID   string           `db:"course_id" json:"course_id"`
	SessionID  string           `db:"session_id" json:"session_id"`
	Semester   Semester         `db:"semester" json:"semester"`
	Status     AssignmentStatus `db:"status" json:"status"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
}
