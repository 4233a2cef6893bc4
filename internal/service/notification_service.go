package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aquaflow/aquaflow-api/internal/models"
	"github.com/aquaflow/aquaflow-api/pkg/config"
	"github.com/aquaflow/aquaflow-api/pkg/jobs"
)

type channelPublisher interface {
	Publish(ctx context.Context, channel string, payload interface{}) error
}

// NotificationService fans workflow events out to the notification channel
// through a background worker pool, keeping publish latency off the
// request path.
type NotificationService struct {
	queue   *jobs.Queue
	channel string
	logger  *zap.Logger
}

// NewNotificationService constructs NotificationService. Call Start before
// publishing and Stop on shutdown.
func NewNotificationService(publisher channelPublisher, cfg config.NotificationsConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{channel: cfg.Channel, logger: logger}
	s.queue = jobs.NewQueue("notifications", func(ctx context.Context, job jobs.Job) error {
		return publisher.Publish(ctx, s.channel, job.Payload)
	}, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the worker pool.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// PublishStatusChanged enqueues a workflow event for delivery. Delivery is
// best effort; a full queue is logged and dropped rather than blocking
// the transition that produced the event.
func (s *NotificationService) PublishStatusChanged(ctx context.Context, event models.ServiceStatusChanged) {
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "service.status_changed",
		Payload: event,
	})
	if err != nil {
		s.logger.Warn("failed to enqueue status event",
			zap.String("service_id", event.ServiceID),
			zap.String("to", string(event.To)),
			zap.Error(err))
	}
}
