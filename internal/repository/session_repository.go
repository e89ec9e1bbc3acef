package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuslink-ng/campus-api/internal/models"
)

// SessionRepository persists academic sessions and student registrations.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs a SessionRepository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, name, semester, status, starts_at, ends_at, created_at, updated_at`

// List returns sessions, optionally restricted to the given statuses.
func (r *SessionRepository) List(ctx context.Context, statuses ...models.AcademicSessionStatus) ([]models.AcademicSession, error) {
	query := fmt.Sprintf("SELECT %s FROM academic_sessions", sessionColumns)
	args := []interface{}{}
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args = append(args, status)
		}
		query += fmt.Sprintf(" WHERE status IN (%s)", strings.Join(placeholders, ", "))
	}
	query += " ORDER BY starts_at DESC"

	var sessions []models.AcademicSession
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("list academic sessions: %w", err)
	}
	return sessions, nil
}

// FindByID returns the session with the given id.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.AcademicSession, error) {
	query := fmt.Sprintf("SELECT %s FROM academic_sessions WHERE id = $1", sessionColumns)
	var session models.AcademicSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// Create inserts a new academic session.
func (r *SessionRepository) Create(ctx context.Context, session *models.AcademicSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = session.CreatedAt
	const query = `INSERT INTO academic_sessions (id, name, semester, status, starts_at, ends_at, created_at, updated_at)
		VALUES (:id, :name, :semester, :status, :starts_at, :ends_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create academic session: %w", err)
	}
	return nil
}

// Update persists the full session row.
func (r *SessionRepository) Update(ctx context.Context, session *models.AcademicSession) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE academic_sessions SET name = :name, semester = :semester, status = :status,
		starts_at = :starts_at, ends_at = :ends_at, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("update academic session: %w", err)
	}
	return nil
}

// Delete removes a session; sql.ErrNoRows when absent.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM academic_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete academic session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted session rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// HasRegistrations reports whether any student has registered into the session.
func (r *SessionRepository) HasRegistrations(ctx context.Context, sessionID string) (bool, error) {
	const query = `SELECT 1 FROM student_registrations WHERE session_id = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, sessionID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check session registrations: %w", err)
	}
	return true, nil
}

// UpsertRegistration records a student registration; one row per
// (session, student), idempotent on repeat.
func (r *SessionRepository) UpsertRegistration(ctx context.Context, reg *models.StudentRegistration) error {
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	if reg.RegisteredAt.IsZero() {
		reg.RegisteredAt = time.Now().UTC()
	}
	const query = `INSERT INTO student_registrations (id, session_id, student_id, registered_at)
		VALUES (:id, :session_id, :student_id, :registered_at)
		ON CONFLICT (session_id, student_id) DO UPDATE SET registered_at = EXCLUDED.registered_at`
	if _, err := r.db.NamedExecContext(ctx, query, reg); err != nil {
		return fmt.Errorf("upsert student registration: %w", err)
	}
	return nil
}
