package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuslink-ng/campus-api/internal/models"
	appErrors "github.com/campuslink-ng/campus-api/pkg/errors"
	"github.com/campuslink-ng/campus-api/pkg/export"
	"github.com/campuslink-ng/campus-api/pkg/storage"
)

type attendanceRepository interface {
	CreateSession(ctx context.Context, session *models.AttendanceSession) error
	FindSessionByID(ctx context.Context, id string) (*models.AttendanceSession, error)
	UpsertRecord(ctx context.Context, record *models.AttendanceRecord) error
	ListRecordsBySession(ctx context.Context, sessionID string) ([]models.AttendanceRecord, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ActiveAssignmentExists(ctx context.Context, lecturerID, courseID, sessionID string, semester models.Semester) (bool, error)
}

type reportStore interface {
	Save(filename string, data []byte) (string, error)
}

// AttendanceService owns session creation, check-in and register export.
type AttendanceService struct {
	repo      attendanceRepository
	courses   courseReader
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	store     reportStore
	signer    *storage.SignedURLSigner
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(
	repo attendanceRepository,
	courses courseReader,
	store reportStore,
	signer *storage.SignedURLSigner,
	validate *validator.Validate,
	logger *zap.Logger,
) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		repo:      repo,
		courses:   courses,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		store:     store,
		signer:    signer,
		validator: validate,
		logger:    logger,
	}
}

// CreateSession opens an attendance session. Preconditions run in order and
// each aborts with its own failure before any write: the course must exist,
// must carry a session and semester, and the lecturer must hold an ACTIVE
// assignment for it in that session and semester.
func (s *AttendanceService) CreateSession(ctx context.Context, lecturerID string, req models.CreateAttendanceSessionRequest) (*models.AttendanceSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance session payload")
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

	assigned, err := s.courses.ActiveAssignmentExists(ctx, lecturerID, course.ID, *course.SessionID, *course.Semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teaching assignment")
	}
	if !assigned {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "lecturer has no active assignment for this course")
	}

	mode := req.Mode
	if mode == "" {
		mode = models.AttendanceModeQR
	}
	session := &models.AttendanceSession{
		CourseID:    course.ID,
		LecturerID:  lecturerID,
		ScheduledAt: req.ScheduledAt,
		Mode:        mode,
		Status:      models.AttendanceSessionScheduled,
		QRToken:     generateQRToken(),
		Metadata:    req.Metadata,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create attendance session")
	}
	return session, nil
}

// CheckIn upserts the attendance record keyed by (session, student), always
// setting PRESENT and QR. A repeat check-in overwrites the prior record.
func (s *AttendanceService) CheckIn(ctx context.Context, sessionID, studentID string, req models.CheckInRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid check-in payload")
	}

	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance session")
	}
	if session.QRToken != req.Token {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid check-in token")
	}

	record := &models.AttendanceRecord{
		SessionID:   sessionID,
		StudentID:   studentID,
		Status:      models.AttendancePresent,
		Mode:        models.AttendanceModeQR,
		CheckedInAt: time.Now().UTC(),
		Location:    req.Location,
		Device:      req.Device,
	}
	if err := s.repo.UpsertRecord(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record check-in")
	}
	return record, nil
}

// ListRecords returns the session register; restricted to the session's
// lecturer or an admin.
func (s *AttendanceService) ListRecords(ctx context.Context, sessionID string, caller *models.JWTClaims) ([]models.AttendanceRecord, error) {
	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance session")
	}
	if caller == nil || (caller.UserID != session.LecturerID && !caller.IsAdmin()) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the session lecturer may view its register")
	}
	records, err := s.repo.ListRecordsBySession(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance records")
	}
	return records, nil
}

// ExportRecords renders the register as CSV or PDF, stores the file and
// returns a signed download link.
func (s *AttendanceService) ExportRecords(ctx context.Context, sessionID, format string, caller *models.JWTClaims) (*models.ReportDownload, error) {
	records, err := s.ListRecords(ctx, sessionID, caller)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Student", "Status", "Mode", "Checked In", "Location"},
		Rows:    make([]map[string]string, 0, len(records)),
	}
	for _, record := range records {
		location := ""
		if record.Location != nil {
			location = *record.Location
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student":    record.StudentID,
			"Status":     string(record.Status),
			"Mode":       string(record.Mode),
			"Checked In": record.CheckedInAt.Format(time.RFC3339),
			"Location":   location,
		})
	}

	var payload []byte
	switch format {
	case "csv", "":
		format = "csv"
		payload, err = s.csv.Render(dataset)
	case "pdf":
		payload, err = s.pdf.Render(dataset, fmt.Sprintf("Attendance register %s", sessionID))
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render register")
	}

	fileName := fmt.Sprintf("attendance/%s-%d.%s", sessionID, time.Now().UTC().Unix(), format)
	if _, err := s.store.Save(fileName, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store register export")
	}

	token, expiresAt, err := s.signer.Generate(sessionID, fileName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}

	return &models.ReportDownload{
		FileName:  fileName,
		Format:    format,
		URL:       fmt.Sprintf("/reports/download/%s", token),
		ExpiresAt: expiresAt,
	}, nil
}

func generateQRToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("qr-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
