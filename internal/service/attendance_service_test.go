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
	"github.com/campuslink-ng/campus-api/pkg/storage"
)

type mockCourseRepo struct {
	courses     map[string]*models.Course
	assignments map[string]bool
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{
		courses:     make(map[string]*models.Course),
		assignments: make(map[string]bool),
	}
}

func assignmentKey(lecturerID, courseID, sessionID string, semester models.Semester) string {
	return fmt.Sprintf("%s/%s/%s/%s", lecturerID, courseID, sessionID, semester)
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if course, ok := m.courses[id]; ok {
		cp := *course
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) ActiveAssignmentExists(ctx context.Context, lecturerID, courseID, sessionID string, semester models.Semester) (bool, error) {
	return m.assignments[assignmentKey(lecturerID, courseID, sessionID, semester)], nil
}

type mockAttendanceRepo struct {
	sessions map[string]*models.AttendanceSession
	records  map[string]*models.AttendanceRecord
	upserts  int
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{
		sessions: make(map[string]*models.AttendanceSession),
		records:  make(map[string]*models.AttendanceRecord),
	}
}

func (m *mockAttendanceRepo) CreateSession(ctx context.Context, session *models.AttendanceSession) error {
	if session.ID == "" {
		session.ID = fmt.Sprintf("att-%d", len(m.sessions)+1)
	}
	cp := *session
	m.sessions[session.ID] = &cp
	return nil
}

func (m *mockAttendanceRepo) FindSessionByID(ctx context.Context, id string) (*models.AttendanceSession, error) {
	if session, ok := m.sessions[id]; ok {
		cp := *session
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) UpsertRecord(ctx context.Context, record *models.AttendanceRecord) error {
	m.upserts++
	key := record.SessionID + "/" + record.StudentID
	if existing, ok := m.records[key]; ok {
		record.ID = existing.ID
	} else if record.ID == "" {
		record.ID = fmt.Sprintf("rec-%d", len(m.records)+1)
	}
	cp := *record
	m.records[key] = &cp
	return nil
}

func (m *mockAttendanceRepo) ListRecordsBySession(ctx context.Context, sessionID string) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	for _, r := range m.records {
		if r.SessionID == sessionID {
			out = append(out, *r)
		}
	}
	return out, nil
}

type memoryReportStore struct {
	files map[string][]byte
}

func (m *memoryReportStore) Save(filename string, data []byte) (string, error) {
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.files[filename] = data
	return filename, nil
}

func attendanceFixture(t *testing.T) (*AttendanceService, *mockAttendanceRepo, *mockCourseRepo) {
	t.Helper()
	courses := newMockCourseRepo()
	repo := newMockAttendanceRepo()
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewAttendanceService(repo, courses, &memoryReportStore{}, signer, nil, zap.NewNop())
	return svc, repo, courses
}

func seedCourse(courses *mockCourseRepo, lecturerID string) *models.Course {
	sessionID := "sess-1"
	semester := models.SemesterFirst
	course := &models.Course{
		ID:        "course-1",
		Code:      "CSC101",
		Title:     "Intro to Computing",
		SessionID: &sessionID,
		Semester:  &semester,
	}
	courses.courses[course.ID] = course
	if lecturerID != "" {
		courses.assignments[assignmentKey(lecturerID, course.ID, sessionID, semester)] = true
	}
	return course
}

func TestAttendanceServiceCreateSessionPreconditions(t *testing.T) {
	svc, _, courses := attendanceFixture(t)
	req := models.CreateAttendanceSessionRequest{
		CourseID:    "course-1",
		ScheduledAt: time.Now().Add(time.Hour),
	}

	// Course missing.
	_, err := svc.CreateSession(context.Background(), "lect-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	// Course present but without session/semester.
	courses.courses["course-1"] = &models.Course{ID: "course-1", Code: "CSC101"}
	_, err = svc.CreateSession(context.Background(), "lect-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	// Course ready but no active assignment for the lecturer.
	seedCourse(courses, "")
	_, err = svc.CreateSession(context.Background(), "lect-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceCreateSessionIssuesToken(t *testing.T) {
	svc, _, courses := attendanceFixture(t)
	seedCourse(courses, "lect-1")

	session, err := svc.CreateSession(context.Background(), "lect-1", models.CreateAttendanceSessionRequest{
		CourseID:    "course-1",
		ScheduledAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceModeQR, session.Mode)
	assert.Equal(t, models.AttendanceSessionScheduled, session.Status)
	assert.NotEmpty(t, session.QRToken)
}

func TestAttendanceServiceCheckIn(t *testing.T) {
	svc, repo, courses := attendanceFixture(t)
	seedCourse(courses, "lect-1")

	session, err := svc.CreateSession(context.Background(), "lect-1", models.CreateAttendanceSessionRequest{
		CourseID:    "course-1",
		ScheduledAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	// Wrong token.
	_, err = svc.CheckIn(context.Background(), session.ID, "stud-1", models.CheckInRequest{Token: "bogus"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	record, err := svc.CheckIn(context.Background(), session.ID, "stud-1", models.CheckInRequest{Token: session.QRToken})
	require.NoError(t, err)
	assert.Equal(t, models.AttendancePresent, record.Status)
	assert.Equal(t, models.AttendanceModeQR, record.Mode)

	// Repeat check-in overwrites in place instead of adding a row.
	location := "Hall B"
	again, err := svc.CheckIn(context.Background(), session.ID, "stud-1", models.CheckInRequest{
		Token:    session.QRToken,
		Location: &location,
	})
	require.NoError(t, err)
	assert.Equal(t, record.ID, again.ID)
	assert.Equal(t, 2, repo.upserts)

	records, err := repo.ListRecordsBySession(context.Background(), session.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Location)
	assert.Equal(t, "Hall B", *records[0].Location)
}

func TestAttendanceServiceCheckInMissingSession(t *testing.T) {
	svc, _, _ := attendanceFixture(t)

	_, err := svc.CheckIn(context.Background(), "missing", "stud-1", models.CheckInRequest{Token: "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceListRecordsAccess(t *testing.T) {
	svc, _, courses := attendanceFixture(t)
	seedCourse(courses, "lect-1")

	session, err := svc.CreateSession(context.Background(), "lect-1", models.CreateAttendanceSessionRequest{
		CourseID:    "course-1",
		ScheduledAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	_, err = svc.ListRecords(context.Background(), session.ID, &models.JWTClaims{UserID: "lect-2", Role: models.RoleLecturer})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.ListRecords(context.Background(), session.ID, &models.JWTClaims{UserID: "lect-1", Role: models.RoleLecturer})
	require.NoError(t, err)

	_, err = svc.ListRecords(context.Background(), session.ID, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	require.NoError(t, err)
}

func TestAttendanceServiceExportRecords(t *testing.T) {
	svc, _, courses := attendanceFixture(t)
	seedCourse(courses, "lect-1")

	session, err := svc.CreateSession(context.Background(), "lect-1", models.CreateAttendanceSessionRequest{
		CourseID:    "course-1",
		ScheduledAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	_, err = svc.CheckIn(context.Background(), session.ID, "stud-1", models.CheckInRequest{Token: session.QRToken})
	require.NoError(t, err)

	lecturer := &models.JWTClaims{UserID: "lect-1", Role: models.RoleLecturer}
	download, err := svc.ExportRecords(context.Background(), session.ID, "csv", lecturer)
	require.NoError(t, err)
	assert.Equal(t, "csv", download.Format)
	assert.Contains(t, download.URL, "/reports/download/")
	assert.True(t, download.ExpiresAt.After(time.Now()))

	_, err = svc.ExportRecords(context.Background(), session.ID, "xlsx", lecturer)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
