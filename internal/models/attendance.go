package models

import (
	"encoding/json"
	"time"
)

// AttendanceMode identifies how a session collects check-ins.
type AttendanceMode string

const (
	AttendanceModeQR        AttendanceMode = "QR"
	AttendanceModeBiometric AttendanceMode = "BIOMETRIC"
	AttendanceModeDigital   AttendanceMode = "DIGITAL"
)

// Valid returns true when the mode is a supported value.
func (m AttendanceMode) Valid() bool {
	switch m {
	case AttendanceModeQR, AttendanceModeBiometric, AttendanceModeDigital:
		return true
	default:
		return false
	}
}

// AttendanceSessionStatus tracks the session lifecycle.
type AttendanceSessionStatus string

const (
	AttendanceSessionScheduled AttendanceSessionStatus = "SCHEDULED"
	AttendanceSessionOpen      AttendanceSessionStatus = "OPEN"
	AttendanceSessionClosed    AttendanceSessionStatus = "CLOSED"
	AttendanceSessionCancelled AttendanceSessionStatus = "CANCELLED"
)

// AttendanceSession is a lecturer-created check-in window for a course.
type AttendanceSession struct {
	ID          string                  `db:"id" json:"id"`
	CourseID    string                  `db:"course_id" json:"course_id"`
	LecturerID  string                  `db:"lecturer_id" json:"lecturer_id"`
	ScheduledAt time.Time               `db:"scheduled_at" json:"scheduled_at"`
	Mode        AttendanceMode          `db:"mode" json:"mode"`
	Status      AttendanceSessionStatus `db:"status" json:"status"`
	QRToken     string                  `db:"qr_token" json:"qr_token,omitempty"`
	Metadata    json.RawMessage         `db:"metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time               `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time               `db:"updated_at" json:"updated_at"`
}

// CreateAttendanceSessionRequest is the lecturer payload for opening a session.
type CreateAttendanceSessionRequest struct {
	CourseID    string          `json:"course_id" validate:"required"`
	ScheduledAt time.Time       `json:"scheduled_at" validate:"required"`
	Mode        AttendanceMode  `json:"mode" validate:"omitempty,oneof=QR BIOMETRIC DIGITAL"`
	Metadata    json.RawMessage `json:"metadata"`
}

// AttendanceRecordStatus represents the per-student attendance outcome.
type AttendanceRecordStatus string

const (
	AttendancePresent AttendanceRecordStatus = "PRESENT"
	AttendanceAbsent  AttendanceRecordStatus = "ABSENT"
	AttendanceLate    AttendanceRecordStatus = "LATE"
	AttendanceExcused AttendanceRecordStatus = "EXCUSED"
)

// AttendanceRecord holds one row per (session, student); a repeat check-in
// overwrites the previous row.
type AttendanceRecord struct {
	ID          string                 `db:"id" json:"id"`
	SessionID   string                 `db:"session_id" json:"session_id"`
	StudentID   string                 `db:"student_id" json:"student_id"`
	Status      AttendanceRecordStatus `db:"status" json:"status"`
	Mode        AttendanceMode         `db:"mode" json:"mode"`
	CheckedInAt time.Time              `db:"checked_in_at" json:"checked_in_at"`
	Location    *string                `db:"location" json:"location,omitempty"`
	Device      *string                `db:"device" json:"device,omitempty"`
}

// CheckInRequest is the student payload for a QR check-in.
type CheckInRequest struct {
	Token    string  `json:"token" validate:"required"`
	Location *string `json:"location"`
	Device   *string `json:"device"`
}
