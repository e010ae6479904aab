package notification

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Queue coordinates between the API and the worker.
const (
	QueueKey    = "classpin:marks"
	MessageType = "attendance.marked"
)

// MarkedEvent is published by the API whenever an attendance record is
// written, and consumed by the worker to fill user inboxes.
type MarkedEvent struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name,omitempty"`
	ClassName   string `json:"class_name"`
	Status      string `json:"status"`
	Date        string `json:"date"`
}

// Describe renders the inbox line for an event.
func (e MarkedEvent) Describe() string {
	return fmt.Sprintf("You were marked %s in %s on %s.", e.Status, e.ClassName, e.Date)
}

// Notification is one inbox entry for a user.
type Notification struct {
	NotificationID string    `json:"notification_id"`
	UserID         string    `json:"user_id"`
	Description    string    `json:"description"`
	Status         string    `json:"status"` // "unread" | "read"
	CreatedAt      time.Time `json:"created_at"`
}

// Repository persists notifications in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes one unread notification for a user.
func (r *Repository) Insert(ctx context.Context, userID, description string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (notification_id, user_id, description, status)
		VALUES ($1, $2, $3, 'unread')
	`, uuid.NewString(), userID, description)
	return err
}

// ListForUser returns a user's notifications, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error) {
	query := `
		SELECT notification_id, user_id, description, status, created_at
		FROM notifications
		WHERE user_id = $1`
	if unreadOnly {
		query += ` AND status = 'unread'`
	}
	query += ` ORDER BY created_at DESC LIMIT 100`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.NotificationID, &n.UserID, &n.Description, &n.Status, &n.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, n)
	}
	return res, rows.Err()
}

// MarkRead flips one of the user's notifications to read. Returns false when
// the notification does not exist or belongs to someone else.
func (r *Repository) MarkRead(ctx context.Context, notificationID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET status = 'read'
		WHERE notification_id = $1 AND user_id = $2
	`, notificationID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
