package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unilibrary/bagdesk-api/internal/models"
	"github.com/unilibrary/bagdesk-api/internal/notifier"
	"github.com/unilibrary/bagdesk-api/internal/repository"
	"github.com/unilibrary/bagdesk-api/pkg/jobs"
)

// Notification job types consumed by the outbox workers.
const (
	jobCheckinNotice  = "checkin_notice"
	jobCheckoutNotice = "checkout_notice"
)

type noticeFlagStore interface {
	Update(ctx context.Context, id string, params repository.UpdateCheckinParams) error
}

// NotificationService is the outbox between the lifecycle manager and the
// email sender: lifecycle operations enqueue notices and return immediately;
// workers deliver, retry and record outcomes independently.
type NotificationService struct {
	queue    *jobs.Queue
	notifier notifier.Notifier
	checkins noticeFlagStore
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewNotificationService constructs the outbox with its worker queue.
func NewNotificationService(n notifier.Notifier, checkins noticeFlagStore, metrics *MetricsService, logger *zap.Logger, cfg jobs.QueueConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotificationService{
		notifier: n,
		checkins: checkins,
		metrics:  metrics,
		logger:   logger,
	}
	cfg.Logger = logger
	svc.queue = jobs.NewQueue("notifications", svc.process, cfg)
	return svc
}

// Start launches the outbox workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the outbox workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// DispatchCheckinNotice enqueues a check-in notice for delivery.
func (s *NotificationService) DispatchCheckinNotice(notice models.CheckinNotice) error {
	return s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: jobCheckinNotice, Payload: notice})
}

// DispatchCheckoutNotice enqueues a check-out notice for delivery.
func (s *NotificationService) DispatchCheckoutNotice(notice models.CheckoutNotice) error {
	return s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: jobCheckoutNotice, Payload: notice})
}

func (s *NotificationService) process(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case jobCheckinNotice:
		notice, ok := job.Payload.(models.CheckinNotice)
		if !ok {
			return fmt.Errorf("unexpected payload for %s job", job.Type)
		}
		if err := s.notifier.SendCheckinNotice(ctx, notice); err != nil {
			s.metrics.IncNotification(jobCheckinNotice, false)
			return err
		}
		s.metrics.IncNotification(jobCheckinNotice, true)
		s.markEmailSent(ctx, notice.CheckinID)
		return nil
	case jobCheckoutNotice:
		notice, ok := job.Payload.(models.CheckoutNotice)
		if !ok {
			return fmt.Errorf("unexpected payload for %s job", job.Type)
		}
		if err := s.notifier.SendCheckoutNotice(ctx, notice); err != nil {
			s.metrics.IncNotification(jobCheckoutNotice, false)
			return err
		}
		s.metrics.IncNotification(jobCheckoutNotice, true)
		return nil
	default:
		return fmt.Errorf("unknown notification job type %q", job.Type)
	}
}

// markEmailSent flips the qr_email_sent flag once the check-in email is out.
// The record is otherwise immutable at this point, so a failure here only
// loses the flag, not the notice.
func (s *NotificationService) markEmailSent(ctx context.Context, checkinID string) {
	if s.checkins == nil {
		return
	}
	sent := true
	if err := s.checkins.Update(ctx, checkinID, repository.UpdateCheckinParams{QREmailSent: &sent}); err != nil {
		s.logger.Sugar().Warnw("mark qr email sent", "checkin_id", checkinID, "error", err)
	}
}
