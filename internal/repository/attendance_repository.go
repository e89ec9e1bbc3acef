package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuslink-ng/campus-api/internal/models"
)

// AttendanceRepository persists attendance sessions and check-in records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// CreateSession inserts a new attendance session.
func (r *AttendanceRepository) CreateSession(ctx context.Context, session *models.AttendanceSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = session.CreatedAt
	const query = `INSERT INTO attendance_sessions (id, course_id, lecturer_id, scheduled_at, mode, status, qr_token, metadata, created_at, updated_at)
		VALUES (:id, :course_id, :lecturer_id, :scheduled_at, :mode, :status, :qr_token, :metadata, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create attendance session: %w", err)
	}
	return nil
}

// FindSessionByID returns the session with the given id.
func (r *AttendanceRepository) FindSessionByID(ctx context.Context, id string) (*models.AttendanceSession, error) {
	const query = `SELECT id, course_id, lecturer_id, scheduled_at, mode, status, qr_token, metadata, created_at, updated_at
		FROM attendance_sessions WHERE id = $1`
	var session models.AttendanceSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// UpsertRecord writes the attendance record keyed by (session, student).
// A repeat check-in overwrites the prior row: last write wins.
func (r *AttendanceRepository) UpsertRecord(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CheckedInAt.IsZero() {
		record.CheckedInAt = time.Now().UTC()
	}
	const query = `INSERT INTO attendance_records (id, session_id, student_id, status, mode, checked_in_at, location, device)
		VALUES (:id, :session_id, :student_id, :status, :mode, :checked_in_at, :location, :device)
		ON CONFLICT (session_id, student_id) DO UPDATE SET
			status = EXCLUDED.status,
			mode = EXCLUDED.mode,
			checked_in_at = EXCLUDED.checked_in_at,
			location = EXCLUDED.location,
			device = EXCLUDED.device`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert attendance record: %w", err)
	}
	return nil
}

// ListRecordsBySession returns the session register ordered by check-in time.
func (r *AttendanceRepository) ListRecordsBySession(ctx context.Context, sessionID string) ([]models.AttendanceRecord, error) {
	const query = `SELECT id, session_id, student_id, status, mode, checked_in_at, location, device
		FROM attendance_records WHERE session_id = $1 ORDER BY checked_in_at ASC`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, sessionID); err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	return records, nil
}
