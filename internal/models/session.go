package models

import "time"

// AcademicSessionStatus marks whether a session accepts registrations.
type AcademicSessionStatus string

const (
	SessionStatusUpcoming AcademicSessionStatus = "UPCOMING"
	SessionStatusOpen     AcademicSessionStatus = "OPEN"
	SessionStatusClosed   AcademicSessionStatus = "CLOSED"
)

// Valid returns true when the status is a supported value.
func (s AcademicSessionStatus) Valid() bool {
	switch s {
	case SessionStatusUpcoming, SessionStatusOpen, SessionStatusClosed:
		return true
	default:
		return false
	}
}

// AcademicSession represents an academic year window, e.g. "2024/2025".
type AcademicSession struct {
	ID        string                `db:"id" json:"id"`
	Name      string                `db:"name" json:"name"`
	Semester  Semester              `db:"semester" json:"semester"`
	Status    AcademicSessionStatus `db:"status" json:"status"`
	StartsAt  time.Time             `db:"starts_at" json:"starts_at"`
	EndsAt    time.Time             `db:"ends_at" json:"ends_at"`
	CreatedAt time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt time.Time             `db:"updated_at" json:"updated_at"`
}

// CreateSessionRequest is the admin payload for creating an academic session.
type CreateSessionRequest struct {
	Name     string   `json:"name" validate:"required"`
	Semester Semester `json:"semester" validate:"required,oneof=FIRST SECOND"`
	Status   string   `json:"status" validate:"omitempty,oneof=UPCOMING OPEN CLOSED"`
	StartsAt string   `json:"starts_at" validate:"required"`
	EndsAt   string   `json:"ends_at" validate:"required"`
}

// UpdateSessionRequest is a partial patch for an academic session.
type UpdateSessionRequest struct {
	Name     *string   `json:"name"`
	Semester *Semester `json:"semester" validate:"omitempty,oneof=FIRST SECOND"`
	Status   *string   `json:"status" validate:"omitempty,oneof=UPCOMING OPEN CLOSED"`
	StartsAt *string   `json:"starts_at"`
	EndsAt   *string   `json:"ends_at"`
}

// StudentRegistration records a student registering into a session; one row
// per (session, student) pair.
type StudentRegistration struct {
	ID           string    `db:"id" json:"id"`
	SessionID    string    `db:"session_id" json:"session_id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	RegisteredAt time.Time `db:"registered_at" json:"registered_at"`
}
