package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuslink-ng/campus-api/internal/models"
	appErrors "github.com/campuslink-ng/campus-api/pkg/errors"
)

type mockSessionRepo struct {
	sessions      map[string]*models.AcademicSession
	registrations map[string]*models.StudentRegistration // keyed sessionID/studentID
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{
		sessions:      make(map[string]*models.AcademicSession),
		registrations: make(map[string]*models.StudentRegistration),
	}
}

func (m *mockSessionRepo) List(ctx context.Context, statuses ...models.AcademicSessionStatus) ([]models.AcademicSession, error) {
	var out []models.AcademicSession
	for _, s := range m.sessions {
		if len(statuses) == 0 {
			out = append(out, *s)
			continue
		}
		for _, status := range statuses {
			if s.Status == status {
				out = append(out, *s)
				break
			}
		}
	}
	return out, nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*models.AcademicSession, error) {
	if s, ok := m.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionRepo) Create(ctx context.Context, session *models.AcademicSession) error {
	if session.ID == "" {
		session.ID = fmt.Sprintf("sess-%d", len(m.sessions)+1)
	}
	cp := *session
	m.sessions[session.ID] = &cp
	return nil
}

func (m *mockSessionRepo) Update(ctx context.Context, session *models.AcademicSession) error {
	if _, ok := m.sessions[session.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *session
	m.sessions[session.ID] = &cp
	return nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionRepo) HasRegistrations(ctx context.Context, sessionID string) (bool, error) {
	for _, reg := range m.registrations {
		if reg.SessionID == sessionID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSessionRepo) UpsertRegistration(ctx context.Context, reg *models.StudentRegistration) error {
	key := reg.SessionID + "/" + reg.StudentID
	if existing, ok := m.registrations[key]; ok {
		reg.ID = existing.ID
	} else {
		reg.ID = fmt.Sprintf("reg-%d", len(m.registrations)+1)
	}
	cp := *reg
	m.registrations[key] = &cp
	return nil
}

func sessionFixture(t *testing.T) (*SessionService, *mockSessionRepo) {
	t.Helper()
	repo := newMockSessionRepo()
	return NewSessionService(repo, nil, zap.NewNop()), repo
}

func seedSession(repo *mockSessionRepo, id string, status models.AcademicSessionStatus) {
	repo.sessions[id] = &models.AcademicSession{
		ID:       id,
		Name:     "2025/2026",
		Semester: models.SemesterFirst,
		Status:   status,
		StartsAt: time.Now().Add(-time.Hour),
		EndsAt:   time.Now().Add(90 * 24 * time.Hour),
	}
}

func TestSessionServiceListOpenFiltersClosed(t *testing.T) {
	svc, repo := sessionFixture(t)
	seedSession(repo, "open", models.SessionStatusOpen)
	seedSession(repo, "upcoming", models.SessionStatusUpcoming)
	seedSession(repo, "closed", models.SessionStatusClosed)

	open, err := svc.ListOpen(context.Background())
	require.NoError(t, err)
	assert.Len(t, open, 2)
	for _, s := range open {
		assert.NotEqual(t, models.SessionStatusClosed, s.Status)
	}

	all, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSessionServiceCreateDefaultsToUpcoming(t *testing.T) {
	svc, _ := sessionFixture(t)

	session, err := svc.Create(context.Background(), models.CreateSessionRequest{
		Name:     "2025/2026",
		Semester: models.SemesterFirst,
		StartsAt: "2025-09-01T00:00:00Z",
		EndsAt:   "2026-01-31T00:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusUpcoming, session.Status)
	assert.NotEmpty(t, session.ID)
}

func TestSessionServiceCreateValidatesWindow(t *testing.T) {
	svc, _ := sessionFixture(t)

	_, err := svc.Create(context.Background(), models.CreateSessionRequest{
		Name:     "backwards",
		Semester: models.SemesterFirst,
		StartsAt: "2026-01-31T00:00:00Z",
		EndsAt:   "2025-09-01T00:00:00Z",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), models.CreateSessionRequest{
		Name:     "bad-format",
		Semester: models.SemesterFirst,
		StartsAt: "01/09/2025",
		EndsAt:   "2026-01-31T00:00:00Z",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceUpdatePatchesFields(t *testing.T) {
	svc, repo := sessionFixture(t)
	seedSession(repo, "sess-1", models.SessionStatusUpcoming)

	status := "OPEN"
	name := "2025/2026 Harmattan"
	updated, err := svc.Update(context.Background(), "sess-1", models.UpdateSessionRequest{
		Name:   &name,
		Status: &status,
	})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, models.SessionStatusOpen, updated.Status)
	assert.Equal(t, models.SemesterFirst, updated.Semester)

	_, err = svc.Update(context.Background(), "missing", models.UpdateSessionRequest{Name: &name})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceDeleteBlockedByRegistrations(t *testing.T) {
	svc, repo := sessionFixture(t)
	seedSession(repo, "sess-1", models.SessionStatusOpen)

	_, err := svc.Register(context.Background(), "sess-1", "stud-1")
	require.NoError(t, err)

	err = svc.Delete(context.Background(), "sess-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	// Still deletable once no registrations reference it.
	seedSession(repo, "sess-2", models.SessionStatusUpcoming)
	require.NoError(t, svc.Delete(context.Background(), "sess-2"))
	_, err = repo.FindByID(context.Background(), "sess-2")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	err = svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceRegisterRequiresOpenSession(t *testing.T) {
	svc, repo := sessionFixture(t)
	seedSession(repo, "upcoming", models.SessionStatusUpcoming)
	seedSession(repo, "open", models.SessionStatusOpen)

	_, err := svc.Register(context.Background(), "upcoming", "stud-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	_, err = svc.Register(context.Background(), "missing", "stud-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	reg, err := svc.Register(context.Background(), "open", "stud-1")
	require.NoError(t, err)
	assert.Equal(t, "open", reg.SessionID)
	assert.Equal(t, "stud-1", reg.StudentID)
}

func TestSessionServiceRegisterIsIdempotent(t *testing.T) {
	svc, repo := sessionFixture(t)
	seedSession(repo, "open", models.SessionStatusOpen)

	first, err := svc.Register(context.Background(), "open", "stud-1")
	require.NoError(t, err)

	second, err := svc.Register(context.Background(), "open", "stud-1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.registrations, 1)
	assert.True(t, second.RegisteredAt.After(first.RegisteredAt) || second.RegisteredAt.Equal(first.RegisteredAt))
}
