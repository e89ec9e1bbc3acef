package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuslink-ng/campus-api/internal/models"
	appErrors "github.com/campuslink-ng/campus-api/pkg/errors"
)

type mockExamRepo struct {
	exams         map[string]*models.Exam
	attempts      []models.ExamAttempt
	notifications []models.ExamNotification
}

func newMockExamRepo() *mockExamRepo {
	return &mockExamRepo{exams: make(map[string]*models.Exam)}
}

func (m *mockExamRepo) Create(ctx context.Context, exam *models.Exam) error {
	if exam.ID == "" {
		exam.ID = fmt.Sprintf("exam-%d", len(m.exams)+1)
	}
	cp := *exam
	m.exams[exam.ID] = &cp
	return nil
}

func (m *mockExamRepo) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	if exam, ok := m.exams[id]; ok {
		cp := *exam
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockExamRepo) UpdateStatus(ctx context.Context, id string, status models.ExamStatus, reviewNotes, rejectionReason *string) error {
	exam, ok := m.exams[id]
	if !ok {
		return sql.ErrNoRows
	}
	exam.Status = status
	if reviewNotes != nil {
		exam.ReviewNotes = reviewNotes
	}
	if rejectionReason != nil {
		exam.RejectionReason = rejectionReason
	}
	return nil
}

func (m *mockExamRepo) CountAttempts(ctx context.Context, examID, studentID string) (int, error) {
	count := 0
	for _, a := range m.attempts {
		if a.ExamID == examID && a.StudentID == studentID {
			count++
		}
	}
	return count, nil
}

func (m *mockExamRepo) CreateAttempt(ctx context.Context, attempt *models.ExamAttempt) error {
	count, _ := m.CountAttempts(ctx, attempt.ExamID, attempt.StudentID)
	attempt.ID = fmt.Sprintf("att-%d", len(m.attempts)+1)
	attempt.Ordinal = count + 1
	attempt.StartedAt = time.Now().UTC()
	m.attempts = append(m.attempts, *attempt)
	return nil
}

func (m *mockExamRepo) CreateNotification(ctx context.Context, notification *models.ExamNotification) error {
	cp := *notification
	cp.ID = fmt.Sprintf("notif-%d", len(m.notifications)+1)
	m.notifications = append(m.notifications, cp)
	return nil
}

func (m *mockExamRepo) ListNotifications(ctx context.Context, recipients []string) ([]models.ExamNotification, error) {
	allowed := make(map[string]struct{}, len(recipients))
	for _, r := range recipients {
		allowed[r] = struct{}{}
	}
	var out []models.ExamNotification
	for _, n := range m.notifications {
		if _, ok := allowed[n.UserID]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

type mockUserRepo struct {
	users map[string]*models.User
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

// captureDispatcher records dispatched notifications synchronously so tests
// can assert on them without a running queue.
type captureDispatcher struct {
	repo *mockExamRepo
	sent []*models.ExamNotification
}

func (d *captureDispatcher) Dispatch(notification *models.ExamNotification) {
	d.sent = append(d.sent, notification)
	_ = d.repo.CreateNotification(context.Background(), notification)
}

func examFixture(t *testing.T) (*ExamService, *mockExamRepo, *mockCourseRepo, *captureDispatcher) {
	t.Helper()
	repo := newMockExamRepo()
	courses := newMockCourseRepo()
	users := &mockUserRepo{users: map[string]*models.User{
		"lect-1": {ID: "lect-1", FullName: "Dr. Ada", Role: models.RoleLecturer, Active: true},
	}}
	dispatcher := &captureDispatcher{repo: repo}
	svc := NewExamService(repo, users, courses, dispatcher, nil, zap.NewNop())
	return svc, repo, courses, dispatcher
}

func validExamRequest() models.CreateExamRequest {
	return models.CreateExamRequest{
		CourseID:        "course-1",
		Title:           "Midterm",
		Questions:       json.RawMessage(`[{"q":"2+2?"}]`),
		DurationMinutes: 60,
		AllowedAttempts: 2,
		StartDate:       time.Now().Add(24 * time.Hour),
		EndDate:         time.Now().Add(48 * time.Hour),
	}
}

func TestExamServiceCreateForcesPendingReview(t *testing.T) {
	svc, _, courses, dispatcher := examFixture(t)
	seedCourse(courses, "lect-1")

	exam, err := svc.Create(context.Background(), "lect-1", validExamRequest())
	require.NoError(t, err)
	assert.Equal(t, models.ExamStatusPendingReview, exam.Status)

	require.Len(t, dispatcher.sent, 1)
	assert.Equal(t, models.NotificationAdminAudience, dispatcher.sent[0].UserID)
	assert.Equal(t, exam.ID, dispatcher.sent[0].ExamID)
}

func TestExamServiceCreatePreconditions(t *testing.T) {
	svc, _, courses, _ := examFixture(t)

	// Unknown lecturer.
	_, err := svc.Create(context.Background(), "ghost", validExamRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	// Course missing.
	_, err = svc.Create(context.Background(), "lect-1", validExamRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	// Course without session/semester.
	courses.courses["course-1"] = &models.Course{ID: "course-1"}
	_, err = svc.Create(context.Background(), "lect-1", validExamRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	// No active assignment.
	seedCourse(courses, "")
	_, err = svc.Create(context.Background(), "lect-1", validExamRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExamServiceUpdateStatusFieldRules(t *testing.T) {
	svc, repo, courses, dispatcher := examFixture(t)
	seedCourse(courses, "lect-1")

	exam, err := svc.Create(context.Background(), "lect-1", validExamRequest())
	require.NoError(t, err)

	notes := "tighten question 3"
	reason := "off syllabus"

	// APPROVED ignores both optional fields.
	updated, err := svc.UpdateStatus(context.Background(), exam.ID, models.UpdateExamStatusRequest{
		Status:          models.ExamStatusApproved,
		ReviewNotes:     &notes,
		RejectionReason: &reason,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ExamStatusApproved, updated.Status)
	assert.Nil(t, updated.ReviewNotes)
	assert.Nil(t, updated.RejectionReason)

	// NEEDS_REVIEW persists only the notes.
	updated, err = svc.UpdateStatus(context.Background(), exam.ID, models.UpdateExamStatusRequest{
		Status:      models.ExamStatusNeedsReview,
		ReviewNotes: &notes,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.ReviewNotes)
	assert.Equal(t, notes, *updated.ReviewNotes)
	assert.Nil(t, updated.RejectionReason)

	// DECLINED persists only the reason.
	updated, err = svc.UpdateStatus(context.Background(), exam.ID, models.UpdateExamStatusRequest{
		Status:          models.ExamStatusDeclined,
		RejectionReason: &reason,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.RejectionReason)
	assert.Equal(t, reason, *updated.RejectionReason)

	// One lecturer notification per review, plus the submission notification.
	lecturerNotifs := 0
	for _, n := range repo.notifications {
		if n.UserID == "lect-1" {
			lecturerNotifs++
		}
	}
	assert.Equal(t, 3, lecturerNotifs)
	assert.Len(t, dispatcher.sent, 4)
}

func TestExamServiceCreateAttemptGating(t *testing.T) {
	svc, _, courses, _ := examFixture(t)
	seedCourse(courses, "lect-1")

	exam, err := svc.Create(context.Background(), "lect-1", validExamRequest())
	require.NoError(t, err)

	// Not approved yet.
	_, err = svc.CreateAttempt(context.Background(), exam.ID, "stud-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	_, err = svc.UpdateStatus(context.Background(), exam.ID, models.UpdateExamStatusRequest{Status: models.ExamStatusApproved})
	require.NoError(t, err)

	first, err := svc.CreateAttempt(context.Background(), exam.ID, "stud-1")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Ordinal)

	second, err := svc.CreateAttempt(context.Background(), exam.ID, "stud-1")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Ordinal)

	// AllowedAttempts is 2; the third is rejected.
	_, err = svc.CreateAttempt(context.Background(), exam.ID, "stud-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	// A different student is unaffected.
	_, err = svc.CreateAttempt(context.Background(), exam.ID, "stud-2")
	require.NoError(t, err)
}

func TestExamServiceCreateAttemptMissingExam(t *testing.T) {
	svc, _, _, _ := examFixture(t)

	_, err := svc.CreateAttempt(context.Background(), "missing", "stud-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExamServiceListNotificationsAdminSentinel(t *testing.T) {
	svc, repo, courses, _ := examFixture(t)
	seedCourse(courses, "lect-1")

	exam, err := svc.Create(context.Background(), "lect-1", validExamRequest())
	require.NoError(t, err)
	require.NotEmpty(t, repo.notifications)

	// A plain student sees nothing.
	notifs, err := svc.ListNotifications(context.Background(), &models.JWTClaims{UserID: "stud-1", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Empty(t, notifs)

	// Admins pick up the admin-audience rows.
	notifs, err = svc.ListNotifications(context.Background(), &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, exam.ID, notifs[0].ExamID)

	// The lecturer sees their own review notifications.
	_, err = svc.UpdateStatus(context.Background(), exam.ID, models.UpdateExamStatusRequest{Status: models.ExamStatusApproved})
	require.NoError(t, err)

	notifs, err = svc.ListNotifications(context.Background(), &models.JWTClaims{UserID: "lect-1", Role: models.RoleLecturer})
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Contains(t, notifs[0].Message, "approved")
}
