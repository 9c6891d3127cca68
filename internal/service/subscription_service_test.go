package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emma-hr/emma-api/internal/models"
	appErrors "github.com/emma-hr/emma-api/pkg/errors"
)

type subscriptionRepoStub struct {
	subs   map[string]*models.Subscription
	nextID int64
}

func newSubscriptionRepoStub() *subscriptionRepoStub {
	return &subscriptionRepoStub{subs: map[string]*models.Subscription{}}
}

func (r *subscriptionRepoStub) List(_ context.Context, activeOnly bool) ([]models.Subscription, error) {
	var out []models.Subscription
	for _, sub := range r.subs {
		if activeOnly && !sub.Active {
			continue
		}
		out = append(out, *sub)
	}
	return out, nil
}

func (r *subscriptionRepoStub) FindByEmail(_ context.Context, email string) (*models.Subscription, error) {
	sub, ok := r.subs[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *sub
	return &copied, nil
}

func (r *subscriptionRepoStub) Create(_ context.Context, sub *models.Subscription) error {
	r.nextID++
	sub.ID = r.nextID
	stored := *sub
	r.subs[sub.Email] = &stored
	return nil
}

func (r *subscriptionRepoStub) SetActive(_ context.Context, email string, active bool) error {
	sub, ok := r.subs[email]
	if !ok {
		return sql.ErrNoRows
	}
	sub.Active = active
	return nil
}

func TestSubscriptionServiceSubscribeConflict(t *testing.T) {
	repo := newSubscriptionRepoStub()
	svc := NewSubscriptionService(repo, nil, nil)

	_, err := svc.Subscribe(context.Background(), SubscribeRequest{Email: "ana@example.com"})
	require.NoError(t, err)

	_, err = svc.Subscribe(context.Background(), SubscribeRequest{Email: "ana@example.com"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSubscriptionServiceResubscribeReactivates(t *testing.T) {
	repo := newSubscriptionRepoStub()
	svc := NewSubscriptionService(repo, nil, nil)

	_, err := svc.Subscribe(context.Background(), SubscribeRequest{Email: "ana@example.com"})
	require.NoError(t, err)
	require.NoError(t, svc.Unsubscribe(context.Background(), "ana@example.com"))

	_, err = svc.Subscribe(context.Background(), SubscribeRequest{Email: "ana@example.com"})
	require.NoError(t, err)
	assert.True(t, repo.subs["ana@example.com"].Active)
}

func TestSubscriptionServiceExportCSV(t *testing.T) {
	repo := newSubscriptionRepoStub()
	subscribedAt := time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC)
	repo.subs["ana@example.com"] = &models.Subscription{ID: 1, Email: "ana@example.com", Active: true, SubscribedAt: subscribedAt}
	repo.subs["old@example.com"] = &models.Subscription{ID: 2, Email: "old@example.com", Active: false, SubscribedAt: subscribedAt}
	svc := NewSubscriptionService(repo, nil, nil)

	payload, err := svc.ExportCSV(context.Background())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "email,subscribed_at", lines[0])
	assert.Equal(t, "ana@example.com,2026-02-10T08:30:00Z", lines[1])
}
