package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/emma-hr/emma-api/internal/models"
)

// NotificationRepository handles notification persistence.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const notificationColumns = `id, title, body, status, created_by, dispatched_at, created_at, updated_at`

// List returns notifications, newest first.
func (r *NotificationRepository) List(ctx context.Context) ([]models.Notification, error) {
	query := fmt.Sprintf(`SELECT %s FROM notifications ORDER BY created_at DESC`, notificationColumns)
	var items []models.Notification
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

// GetByID retrieves one notification.
func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*models.Notification, error) {
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE id = $1`, notificationColumns)
	var item models.Notification
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a notification draft.
func (r *NotificationRepository) Create(ctx context.Context, item *models.Notification) error {
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.Status == "" {
		item.Status = models.NotificationDraft
	}
	const query = `INSERT INTO notifications (title, body, status, created_by, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		item.Title, item.Body, item.Status, item.CreatedBy, item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// UpdateStatus records dispatch progress for a notification.
func (r *NotificationRepository) UpdateStatus(ctx context.Context, id int64, status models.NotificationStatus, dispatchedAt *time.Time) error {
	const query = `UPDATE notifications SET status = $2, dispatched_at = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, dispatchedAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update notification status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check notification update rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
