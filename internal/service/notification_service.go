package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emma-hr/emma-api/internal/models"
	appErrors "github.com/emma-hr/emma-api/pkg/errors"
	"github.com/emma-hr/emma-api/pkg/jobs"
)

type notificationRepository interface {
	List(ctx context.Context) ([]models.Notification, error)
	GetByID(ctx context.Context, id int64) (*models.Notification, error)
	Create(ctx context.Context, item *models.Notification) error
	UpdateStatus(ctx context.Context, id int64, status models.NotificationStatus, dispatchedAt *time.Time) error
}

type notificationSubscriberSource interface {
	List(ctx context.Context, activeOnly bool) ([]models.Subscription, error)
}

// Sender delivers one notification to one recipient.
type Sender interface {
	Send(ctx context.Context, recipient string, title, body string) error
}

// LogSender writes deliveries to the log instead of an external channel.
// It stands in until a mail or push provider is wired up.
type LogSender struct {
	Logger *zap.Logger
}

// Send logs the delivery.
func (s LogSender) Send(ctx context.Context, recipient string, title, body string) error {
	if s.Logger != nil {
		s.Logger.Info("notification delivered",
			zap.String("recipient", recipient),
			zap.String("title", title))
	}
	return nil
}

// NotificationConfig tunes the dispatch worker pool.
type NotificationConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

type dispatchPayload struct {
	NotificationID int64
	Recipient      string
	Title          string
	Body           string
}

// NotificationService queues announcements for delivery to subscribers
// through an in-memory worker pool.
type NotificationService struct {
	repo        notificationRepository
	subscribers notificationSubscriberSource
	sender      Sender
	queue       *jobs.Queue
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewNotificationService constructs the service and its dispatch queue.
// Start must be called before notifications can be sent.
func NewNotificationService(repo notificationRepository, subscribers notificationSubscriberSource, sender Sender, validate *validator.Validate, logger *zap.Logger, cfg NotificationConfig) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if sender == nil {
		sender = LogSender{Logger: logger}
	}
	svc := &NotificationService{
		repo:        repo,
		subscribers: subscribers,
		sender:      sender,
		validator:   validate,
		logger:      logger,
	}
	svc.queue = jobs.NewQueue("notifications", svc.handleDispatch, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return svc
}

// Start launches the dispatch workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue and stops the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// CreateNotificationRequest describes a new announcement.
type CreateNotificationRequest struct {
	Title string `json:"title" validate:"required"`
	Body  string `json:"body" validate:"required"`
}

// List returns all notifications, newest first.
func (s *NotificationService) List(ctx context.Context) ([]models.Notification, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return items, nil
}

// Get returns a notification by id.
func (s *NotificationService) Get(ctx context.Context, id int64) (*models.Notification, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification")
	}
	return item, nil
}

// Create stores a draft notification.
func (s *NotificationService) Create(ctx context.Context, createdBy int64, req CreateNotificationRequest) (*models.Notification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notification payload")
	}
	item := &models.Notification{
		Title:     req.Title,
		Body:      req.Body,
		Status:    models.NotificationDraft,
		CreatedBy: createdBy,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notification")
	}
	return item, nil
}

// Send queues a draft for delivery to every active subscriber. The
// notification moves to QUEUED immediately; workers mark it SENT once the
// fan-out completes.
func (s *NotificationService) Send(ctx context.Context, id int64) (*models.Notification, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.Status != models.NotificationDraft && item.Status != models.NotificationFailed {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "notification was already sent")
	}

	subs, err := s.subscribers.List(ctx, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subscribers")
	}
	if len(subs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no active subscribers")
	}

	if err := s.repo.UpdateStatus(ctx, id, models.NotificationQueued, nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue notification")
	}
	item.Status = models.NotificationQueued

	for _, sub := range subs {
		job := jobs.Job{
			ID:   uuid.NewString(),
			Type: "notification.dispatch",
			Payload: dispatchPayload{
				NotificationID: item.ID,
				Recipient:      sub.Email,
				Title:          item.Title,
				Body:           item.Body,
			},
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("failed to enqueue notification delivery",
				zap.Int64("notification_id", item.ID),
				zap.String("recipient", sub.Email),
				zap.Error(err))
		}
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, models.NotificationSent, &now); err != nil {
		s.logger.Warn("failed to mark notification sent", zap.Int64("notification_id", id), zap.Error(err))
	} else {
		item.Status = models.NotificationSent
		item.DispatchedAt = &now
	}
	return item, nil
}

func (s *NotificationService) handleDispatch(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(dispatchPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	return s.sender.Send(ctx, payload.Recipient, payload.Title, payload.Body)
}
