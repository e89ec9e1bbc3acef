package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuslink-ng/campus-api/internal/models"
	appErrors "github.com/campuslink-ng/campus-api/pkg/errors"
)

type examRepository interface {
	Create(ctx context.Context, exam *models.Exam) error
	FindByID(ctx context.Context, id string) (*models.Exam, error)
	UpdateStatus(ctx context.Context, id string, status models.ExamStatus, reviewNotes, rejectionReason *string) error
	CountAttempts(ctx context.Context, examID, studentID string) (int, error)
	CreateAttempt(ctx context.Context, attempt *models.ExamAttempt) error
	ListNotifications(ctx context.Context, recipients []string) ([]models.ExamNotification, error)
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type notificationDispatcher interface {
	Dispatch(notification *models.ExamNotification)
}

// ExamService owns the exam integrity workflow: lecturer submission, admin
// review and attempt gating.
type ExamService struct {
	exams         examRepository
	users         userReader
	courses       courseReader
	notifications notificationDispatcher
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewExamService constructs an ExamService.
func NewExamService(
	exams examRepository,
	users userReader,
	courses courseReader,
	notifications notificationDispatcher,
	validate *validator.Validate,
	logger *zap.Logger,
) *ExamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{
		exams:         exams,
		users:         users,
		courses:       courses,
		notifications: notifications,
		validator:     validate,
		logger:        logger,
	}
}

// Create submits an exam for admin review. The same precondition chain as
// attendance-session creation applies, plus a lecturer lookup; status is
// forced to PENDING_ADMIN_REVIEW regardless of the payload, and an
// admin-directed notification is dispatched as a detached job.
func (s *ExamService) Create(ctx context.Context, lecturerID string, req models.CreateExamRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}

	lecturer, err := s.users.FindByID(ctx, lecturerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.SessionID == nil || course.Semester == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course has no current session or semester")
	}

	assigned, err := s.courses.ActiveAssignmentExists(ctx, lecturer.ID, course.ID, *course.SessionID, *course.Semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teaching assignment")
	}
	if !assigned {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "lecturer has no active assignment for this course")
	}

	exam := &models.Exam{
		CourseID:        course.ID,
		LecturerID:      lecturer.ID,
		Title:           req.Title,
		Questions:       req.Questions,
		DurationMinutes: req.DurationMinutes,
		AllowedAttempts: req.AllowedAttempts,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		AccessCode:      req.AccessCode,
		Status:          models.ExamStatusPendingReview,
	}
	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam")
	}

	s.notifications.Dispatch(&models.ExamNotification{
		UserID:  models.NotificationAdminAudience,
		ExamID:  exam.ID,
		Message: fmt.Sprintf("Exam %q submitted by %s awaits review", exam.Title, lecturer.FullName),
	})
	return exam, nil
}

// UpdateStatus applies an admin review decision. reviewNotes persists only for
// NEEDS_REVIEW, rejectionReason only for DECLINED; other combinations drop the
// optional field. Exactly one notification goes to the exam's lecturer.
func (s *ExamService) UpdateStatus(ctx context.Context, examID string, req models.UpdateExamStatusRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	exam, err := s.exams.FindByID(ctx, examID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}

	var reviewNotes, rejectionReason *string
	if req.Status == models.ExamStatusNeedsReview && req.ReviewNotes != nil {
		reviewNotes = req.ReviewNotes
	}
	if req.Status == models.ExamStatusDeclined && req.RejectionReason != nil {
		rejectionReason = req.RejectionReason
	}

	if err := s.exams.UpdateStatus(ctx, examID, req.Status, reviewNotes, rejectionReason); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam status")
	}

	s.notifications.Dispatch(&models.ExamNotification{
		UserID:  exam.LecturerID,
		ExamID:  exam.ID,
		Message: reviewMessage(exam.Title, req.Status),
	})

	updated, err := s.exams.FindByID(ctx, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload exam")
	}
	return updated, nil
}

// CreateAttempt starts an attempt. The exam must exist and be APPROVED, and
// the student must be under the allowed attempt count. The checks are
// sequential reads; the storage layer assigns the ordinal.
func (s *ExamService) CreateAttempt(ctx context.Context, examID, studentID string) (*models.ExamAttempt, error) {
	exam, err := s.exams.FindByID(ctx, examID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	if exam.Status != models.ExamStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "exam is not approved for attempts")
	}

	count, err := s.exams.CountAttempts(ctx, examID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attempts")
	}
	if count >= exam.AllowedAttempts {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "allowed attempts exhausted")
	}

	attempt := &models.ExamAttempt{ExamID: examID, StudentID: studentID}
	if err := s.exams.CreateAttempt(ctx, attempt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create attempt")
	}
	return attempt, nil
}

// ListNotifications returns notifications for the caller. Admin viewers also
// see the admin-audience sentinel rows; fan-out happens at query time.
func (s *ExamService) ListNotifications(ctx context.Context, caller *models.JWTClaims) ([]models.ExamNotification, error) {
	if caller == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing caller identity")
	}
	recipients := []string{caller.UserID}
	if caller.IsAdmin() {
		recipients = append(recipients, models.NotificationAdminAudience)
	}
	notifications, err := s.exams.ListNotifications(ctx, recipients)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

func reviewMessage(title string, status models.ExamStatus) string {
	switch status {
	case models.ExamStatusApproved:
		return fmt.Sprintf("Your exam %q has been approved", title)
	case models.ExamStatusDeclined:
		return fmt.Sprintf("Your exam %q has been declined", title)
	case models.ExamStatusNeedsReview:
		return fmt.Sprintf("Your exam %q needs changes before approval", title)
	default:
		return fmt.Sprintf("Your exam %q is pending review", title)
	}
}
