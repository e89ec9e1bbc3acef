package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campuslink-ng/campus-api/internal/models"
)

// ExamRepository persists exams, attempts and notifications.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs an ExamRepository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

const examColumns = `id, course_id, lecturer_id, title, questions, duration_minutes, allowed_attempts, start_date, end_date, access_code, status, review_notes, rejection_reason, created_at, updated_at`

// Create inserts a new exam.
func (r *ExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	if exam.ID == "" {
		exam.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if exam.CreatedAt.IsZero() {
		exam.CreatedAt = now
	}
	exam.UpdatedAt = exam.CreatedAt
	const query = `INSERT INTO exams (id, course_id, lecturer_id, title, questions, duration_minutes, allowed_attempts, start_date, end_date, access_code, status, created_at, updated_at)
		VALUES (:id, :course_id, :lecturer_id, :title, :questions, :duration_minutes, :allowed_attempts, :start_date, :end_date, :access_code, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, exam); err != nil {
		return fmt.Errorf("create exam: %w", err)
	}
	return nil
}

// FindByID returns the exam with the given id.
func (r *ExamRepository) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	query := fmt.Sprintf("SELECT %s FROM exams WHERE id = $1", examColumns)
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, query, id); err != nil {
		return nil, err
	}
	return &exam, nil
}

// UpdateStatus sets the review status; reviewNotes and rejectionReason are
// written only when non-nil (the service applies the status-combination rules).
func (r *ExamRepository) UpdateStatus(ctx context.Context, id string, status models.ExamStatus, reviewNotes, rejectionReason *string) error {
	const query = `UPDATE exams SET status = $2,
		review_notes = COALESCE($3, review_notes),
		rejection_reason = COALESCE($4, rejection_reason),
		updated_at = $5
		WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, reviewNotes, rejectionReason, time.Now().UTC()); err != nil {
		return fmt.Errorf("update exam status: %w", err)
	}
	return nil
}

// CountAttempts returns the number of attempts a student has made on an exam.
func (r *ExamRepository) CountAttempts(ctx context.Context, examID, studentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM exam_attempts WHERE exam_id = $1 AND student_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, examID, studentID); err != nil {
		return 0, fmt.Errorf("count exam attempts: %w", err)
	}
	return count, nil
}

// CreateAttempt inserts an attempt with the next ordinal assigned in SQL.
func (r *ExamRepository) CreateAttempt(ctx context.Context, attempt *models.ExamAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.StartedAt.IsZero() {
		attempt.StartedAt = time.Now().UTC()
	}
	const query = `INSERT INTO exam_attempts (id, exam_id, student_id, ordinal, started_at)
		SELECT $1, $2, $3, COALESCE(MAX(ordinal), 0) + 1, $4
		FROM exam_attempts WHERE exam_id = $2 AND student_id = $3
		RETURNING ordinal`
	if err := r.db.GetContext(ctx, &attempt.Ordinal, query, attempt.ID, attempt.ExamID, attempt.StudentID, attempt.StartedAt); err != nil {
		return fmt.Errorf("create exam attempt: %w", err)
	}
	return nil
}

// CreateNotification inserts a notification row.
func (r *ExamRepository) CreateNotification(ctx context.Context, notification *models.ExamNotification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO exam_notifications (id, user_id, exam_id, message, read, created_at)
		VALUES (:id, :user_id, :exam_id, :message, :read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notification); err != nil {
		return fmt.Errorf("create exam notification: %w", err)
	}
	return nil
}

// ListNotifications returns notifications addressed to any of the given
// recipients, newest first.
func (r *ExamRepository) ListNotifications(ctx context.Context, recipients []string) ([]models.ExamNotification, error) {
	const query = `SELECT id, user_id, exam_id, message, read, created_at
		FROM exam_notifications WHERE user_id = ANY($1) ORDER BY created_at DESC`
	var notifications []models.ExamNotification
	if err := r.db.SelectContext(ctx, &notifications, query, pq.Array(recipients)); err != nil {
		return nil, fmt.Errorf("list exam notifications: %w", err)
	}
	return notifications, nil
}
