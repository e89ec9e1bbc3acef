package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuslink-ng/campus-api/internal/models"
	appErrors "github.com/campuslink-ng/campus-api/pkg/errors"
)

type sessionRepository interface {
	List(ctx context.Context, statuses ...models.AcademicSessionStatus) ([]models.AcademicSession, error)
	FindByID(ctx context.Context, id string) (*models.AcademicSession, error)
	Create(ctx context.Context, session *models.AcademicSession) error
	Update(ctx context.Context, session *models.AcademicSession) error
	Delete(ctx context.Context, id string) error
	HasRegistrations(ctx context.Context, sessionID string) (bool, error)
	UpsertRegistration(ctx context.Context, reg *models.StudentRegistration) error
}

// SessionService manages academic sessions and student registrations.
type SessionService struct {
	sessions  sessionRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService constructs a SessionService.
func NewSessionService(sessions sessionRepository, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{sessions: sessions, validator: validate, logger: logger}
}

// ListOpen returns sessions students may see: OPEN first, then UPCOMING.
func (s *SessionService) ListOpen(ctx context.Context) ([]models.AcademicSession, error) {
	sessions, err := s.sessions.List(ctx, models.SessionStatusOpen, models.SessionStatusUpcoming)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return sessions, nil
}

// ListAll returns every session regardless of status.
func (s *SessionService) ListAll(ctx context.Context) ([]models.AcademicSession, error) {
	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return sessions, nil
}

// Create adds a session; status defaults to UPCOMING when omitted.
func (s *SessionService) Create(ctx context.Context, req models.CreateSessionRequest) (*models.AcademicSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	startsAt, endsAt, err := parseSessionWindow(req.StartsAt, req.EndsAt)
	if err != nil {
		return nil, err
	}

	status := models.SessionStatusUpcoming
	if req.Status != "" {
		status = models.AcademicSessionStatus(req.Status)
	}

	session := &models.AcademicSession{
		Name:     req.Name,
		Semester: req.Semester,
		Status:   status,
		StartsAt: startsAt,
		EndsAt:   endsAt,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	return session, nil
}

// Update applies a partial patch to a session.
func (s *SessionService) Update(ctx context.Context, id string, req models.UpdateSessionRequest) (*models.AcademicSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	if req.Name != nil {
		session.Name = *req.Name
	}
	if req.Semester != nil {
		session.Semester = *req.Semester
	}
	if req.Status != nil {
		session.Status = models.AcademicSessionStatus(*req.Status)
	}
	if req.StartsAt != nil {
		ts, err := time.Parse(time.RFC3339, *req.StartsAt)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "starts_at must be RFC3339")
		}
		session.StartsAt = ts
	}
	if req.EndsAt != nil {
		ts, err := time.Parse(time.RFC3339, *req.EndsAt)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "ends_at must be RFC3339")
		}
		session.EndsAt = ts
	}

	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}
	return session, nil
}

// Delete removes a session unless students have registered into it.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	if _, err := s.sessions.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	hasRegs, err := s.sessions.HasRegistrations(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registrations")
	}
	if hasRegs {
		return appErrors.Clone(appErrors.ErrConflict, "session has student registrations")
	}

	if err := s.sessions.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	return nil
}

// Register enrols a student into an OPEN session. Re-registering refreshes the
// existing row instead of duplicating it.
func (s *SessionService) Register(ctx context.Context, sessionID, studentID string) (*models.StudentRegistration, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.Status != models.SessionStatusOpen {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "session is not open for registration")
	}

	reg := &models.StudentRegistration{
		SessionID:    sessionID,
		StudentID:    studentID,
		RegisteredAt: time.Now().UTC(),
	}
	if err := s.sessions.UpsertRegistration(ctx, reg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register student")
	}
	return reg, nil
}

func parseSessionWindow(start, end string) (time.Time, time.Time, error) {
	startsAt, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "starts_at must be RFC3339")
	}
	endsAt, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "ends_at must be RFC3339")
	}
	if !endsAt.After(startsAt) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "ends_at must be after starts_at")
	}
	return startsAt, endsAt, nil
}
