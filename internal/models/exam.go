package models

import (
	"encoding/json"
	"time"
)

// ExamStatus tracks the admin review lifecycle of an exam.
type ExamStatus string

const (
	ExamStatusPendingReview ExamStatus = "PENDING_ADMIN_REVIEW"
	ExamStatusApproved      ExamStatus = "APPROVED"
	ExamStatusDeclined      ExamStatus = "DECLINED"
	ExamStatusNeedsReview   ExamStatus = "NEEDS_REVIEW"
)

// Valid returns true when the status is a supported value.
func (s ExamStatus) Valid() bool {
	switch s {
	case ExamStatusPendingReview, ExamStatusApproved, ExamStatusDeclined, ExamStatusNeedsReview:
		return true
	default:
		return false
	}
}

// NotificationAdminAudience is the sentinel recipient for admin-directed
// notifications; admin viewers match it by query, not by materialised rows.
const NotificationAdminAudience = "admin"

// Exam is a lecturer-authored exam awaiting admin approval.
type Exam struct {
	ID              string          `db:"id" json:"id"`
	CourseID        string          `db:"course_id" json:"course_id"`
	LecturerID      string          `db:"lecturer_id" json:"lecturer_id"`
	Title           string          `db:"title" json:"title"`
	Questions       json.RawMessage `db:"questions" json:"questions"`
	DurationMinutes int             `db:"duration_minutes" json:"duration_minutes"`
	AllowedAttempts int             `db:"allowed_attempts" json:"allowed_attempts"`
	StartDate       time.Time       `db:"start_date" json:"start_date"`
	EndDate         time.Time       `db:"end_date" json:"end_date"`
	AccessCode      string          `db:"access_code" json:"access_code,omitempty"`
	Status          ExamStatus      `db:"status" json:"status"`
	ReviewNotes     *string         `db:"review_notes" json:"review_notes,omitempty"`
	RejectionReason *string         `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// CreateExamRequest is the lecturer payload for submitting an exam.
type CreateExamRequest struct {
	CourseID        string          `json:"course_id" validate:"required"`
	Title           string          `json:"title" validate:"required"`
	Questions       json.RawMessage `json:"questions" validate:"required"`
	DurationMinutes int             `json:"duration_minutes" validate:"required,gt=0"`
	AllowedAttempts int             `json:"allowed_attempts" validate:"required,gt=0"`
	StartDate       time.Time       `json:"start_date" validate:"required"`
	EndDate         time.Time       `json:"end_date" validate:"required"`
	AccessCode      string          `json:"access_code"`
}

// UpdateExamStatusRequest is the admin payload for reviewing an exam.
type UpdateExamStatusRequest struct {
	Status          ExamStatus `json:"status" validate:"required,oneof=PENDING_ADMIN_REVIEW APPROVED DECLINED NEEDS_REVIEW"`
	ReviewNotes     *string    `json:"review_notes"`
	RejectionReason *string    `json:"rejection_reason"`
}

// ExamAttempt is one row per (exam, student, ordinal).
type ExamAttempt struct {
	ID        string    `db:"id" json:"id"`
	ExamID    string    `db:"exam_id" json:"exam_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Ordinal   int       `db:"ordinal" json:"ordinal"`
	StartedAt time.Time `db:"started_at" json:"started_at"`
}

// ExamNotification is addressed to a user id or the admin sentinel.
type ExamNotification struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	ExamID    string    `db:"exam_id" json:"exam_id"`
	Message   string    `db:"message" json:"message"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
