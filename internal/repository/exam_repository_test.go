package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/campuslink-ng/campus-api/internal/models"
)

func newExamRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestExamRepositoryUpdateStatusCoalescesOptionalFields(t *testing.T) {
	db, mock, cleanup := newExamRepoMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	notes := "needs a rubric"
	mock.ExpectExec(regexp.QuoteMeta("review_notes = COALESCE($3, review_notes)")).
		WithArgs("exam-1", models.ExamStatusNeedsReview, notes, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "exam-1", models.ExamStatusNeedsReview, &notes, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryCreateAttemptAssignsNextOrdinal(t *testing.T) {
	db, mock, cleanup := newExamRepoMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(MAX(ordinal), 0) + 1")).
		WithArgs(sqlmock.AnyArg(), "exam-1", "stud-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"ordinal"}).AddRow(3))

	attempt := &models.ExamAttempt{ExamID: "exam-1", StudentID: "stud-1"}
	require.NoError(t, repo.CreateAttempt(context.Background(), attempt))
	require.Equal(t, 3, attempt.Ordinal)
	require.NotEmpty(t, attempt.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryListNotificationsFansInRecipients(t *testing.T) {
	db, mock, cleanup := newExamRepoMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "exam_id", "message", "read", "created_at"}).
		AddRow("n-1", models.NotificationAdminAudience, "exam-1", "Exam awaits review", false, time.Now()).
		AddRow("n-2", "admin-1", "exam-2", "Direct message", true, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = ANY($1) ORDER BY created_at DESC")).
		WithArgs(pq.Array([]string{"admin-1", models.NotificationAdminAudience})).
		WillReturnRows(rows)

	notifications, err := repo.ListNotifications(context.Background(), []string{"admin-1", models.NotificationAdminAudience})
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}
