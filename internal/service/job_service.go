package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuslink-ng/campus-api/internal/models"
	"github.com/campuslink-ng/campus-api/pkg/config"
	"github.com/campuslink-ng/campus-api/pkg/jobs"
)

const (
	jobTypeNotification = "exam.notification"
	jobTypeLastLogin    = "auth.last_login"
)

type notificationWriter interface {
	CreateNotification(ctx context.Context, notification *models.ExamNotification) error
}

type lastLoginWriter interface {
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
}

type lastLoginPayload struct {
	UserID string
	At     time.Time
}

// JobService runs side effects off the request path: notification persistence
// and last-login stamps. Failures retry inside the queue and never surface to
// the caller.
type JobService struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewJobService builds the background queue from config.
func NewJobService(cfg config.JobsConfig, notifications notificationWriter, logins lastLoginWriter, logger *zap.Logger) *JobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &JobService{logger: logger}

	handler := func(ctx context.Context, job jobs.Job) error {
		switch job.Type {
		case jobTypeNotification:
			notification, ok := job.Payload.(*models.ExamNotification)
			if !ok {
				return fmt.Errorf("unexpected payload type for %s", job.Type)
			}
			return notifications.CreateNotification(ctx, notification)
		case jobTypeLastLogin:
			payload, ok := job.Payload.(lastLoginPayload)
			if !ok {
				return fmt.Errorf("unexpected payload type for %s", job.Type)
			}
			return logins.UpdateLastLogin(ctx, payload.UserID, payload.At)
		default:
			return fmt.Errorf("unknown job type %s", job.Type)
		}
	}

	s.queue = jobs.NewQueue("side-effects", handler, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the workers.
func (s *JobService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *JobService) Stop() {
	s.queue.Stop()
}

// Dispatch enqueues a notification write. A full queue or stopped service is
// logged and dropped; the triggering operation already succeeded.
func (s *JobService) Dispatch(notification *models.ExamNotification) {
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobTypeNotification,
		Payload: notification,
	})
	if err != nil {
		s.logger.Sugar().Warnw("failed to enqueue notification", "user_id", notification.UserID, "error", err)
	}
}

// RecordLogin enqueues a last-login stamp for the user.
func (s *JobService) RecordLogin(userID string, at time.Time) {
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobTypeLastLogin,
		Payload: lastLoginPayload{UserID: userID, At: at},
	})
	if err != nil {
		s.logger.Sugar().Warnw("failed to enqueue last-login update", "user_id", userID, "error", err)
	}
}
