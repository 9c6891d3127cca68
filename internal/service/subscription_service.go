package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/emma-hr/emma-api/internal/models"
	appErrors "github.com/emma-hr/emma-api/pkg/errors"
	"github.com/emma-hr/emma-api/pkg/export"
)

type subscriptionRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.Subscription, error)
	FindByEmail(ctx context.Context, email string) (*models.Subscription, error)
	Create(ctx context.Context, sub *models.Subscription) error
	SetActive(ctx context.Context, email string, active bool) error
}

// SubscriptionService manages the newsletter subscriber list.
type SubscriptionService struct {
	repo      subscriptionRepository
	exporter  *export.CSVExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubscriptionService constructs the service.
func NewSubscriptionService(repo subscriptionRepository, validate *validator.Validate, logger *zap.Logger) *SubscriptionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubscriptionService{repo: repo, exporter: export.NewCSVExporter(), validator: validate, logger: logger}
}

// SubscribeRequest carries the subscriber email.
type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// List returns subscribers, optionally only active ones.
func (s *SubscriptionService) List(ctx context.Context, activeOnly bool) ([]models.Subscription, error) {
	subs, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subscriptions")
	}
	return subs, nil
}

// Subscribe registers a new subscriber. Resubscribing a previously
// unsubscribed address reactivates it instead of failing.
func (s *SubscriptionService) Subscribe(ctx context.Context, req SubscribeRequest) (*models.Subscription, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subscription payload")
	}

	existing, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subscription")
	}
	if existing != nil {
		if existing.Active {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email is already subscribed")
		}
		if err := s.repo.SetActive(ctx, req.Email, true); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reactivate subscription")
		}
		existing.Active = true
		existing.UnsubscribedAt = nil
		return existing, nil
	}

	sub := &models.Subscription{
		Email:        req.Email,
		Active:       true,
		SubscribedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subscription")
	}
	return sub, nil
}

// Unsubscribe deactivates a subscriber.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, email string) error {
	if _, err := s.repo.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subscription not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subscription")
	}
	if err := s.repo.SetActive(ctx, email, false); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unsubscribe")
	}
	return nil
}

// ExportCSV renders the active subscriber list as CSV.
func (s *SubscriptionService) ExportCSV(ctx context.Context) ([]byte, error) {
	subs, err := s.repo.List(ctx, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subscriptions")
	}
	dataset := export.Dataset{Headers: []string{"email", "subscribed_at"}}
	for _, sub := range subs {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"email":         sub.Email,
			"subscribed_at": sub.SubscribedAt.UTC().Format(time.RFC3339),
		})
	}
	payload, err := s.exporter.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return payload, nil
}
