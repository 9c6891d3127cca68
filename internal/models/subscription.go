package models

import "time"

// Subscription represents a newsletter subscriber.
type Subscription struct {
	ID             int64      `db:"id" json:"id"`
	Email          string     `db:"email" json:"email"`
	Active         bool       `db:"active" json:"active"`
	SubscribedAt   time.Time  `db:"subscribed_at" json:"subscribed_at"`
	UnsubscribedAt *time.Time `db:"unsubscribed_at" json:"unsubscribed_at,omitempty"`
}

// NotificationStatus tracks dispatch progress for a notification.
type NotificationStatus string

const (
	NotificationDraft  NotificationStatus = "DRAFT"
	NotificationQueued NotificationStatus = "QUEUED"
	NotificationSent   NotificationStatus = "SENT"
	NotificationFailed NotificationStatus = "FAILED"
)

// Notification represents an announcement dispatched to subscribers.
type Notification struct {
	ID           int64              `db:"id" json:"id"`
	Title        string             `db:"title" json:"title"`
	Body         string             `db:"body" json:"body"`
	Status       NotificationStatus `db:"status" json:"status"`
	CreatedBy    int64              `db:"created_by" json:"created_by"`
	DispatchedAt *time.Time         `db:"dispatched_at" json:"dispatched_at,omitempty"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `db:"updated_at" json:"updated_at"`
}
