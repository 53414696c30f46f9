package storage

import (
	"context"
	"time"

	"github.com/vetlinkhq/vetsched/libs/db"
)

type Notification struct {
	ID            string
	RecipientID   string
	Type          string
	Title         string
	Content       string
	AppointmentID string
	IsRead        bool
	CreatedAt     time.Time
}

type DeviceToken struct {
	Token    string
	Platform string
}

type PushDelivery struct {
	RecipientID string
	DeviceToken string
	EventID     string
	EventType   string
	ProviderID  string
	Status      string // "sent" or "failed"
	ErrorReason string
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `
		SELECT id, recipient_id, type, title, content, COALESCE(appointment_id::text, ''), is_read, created_at
		FROM notifications
		WHERE recipient_id = $1`
	if unreadOnly {
		query += ` AND NOT is_read`
	}
	query += `
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, recipientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Type, &n.Title, &n.Content, &n.AppointmentID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flips is_read for the caller's own notifications only; ids
// belonging to other recipients are silently ignored.
func (r *Repository) MarkRead(ctx context.Context, recipientID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET is_read = true
		WHERE recipient_id = $1 AND id = ANY($2) AND NOT is_read
	`, recipientID, ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) RegisterDevice(ctx context.Context, userID, token, platform string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO device_tokens (user_id, token, platform)
		VALUES ($1, $2, $3)
		ON CONFLICT (token) DO UPDATE SET user_id = $1, platform = $3, updated_at = now()
	`, userID, token, platform)
	return err
}

func (r *Repository) DeviceTokens(ctx context.Context, userID string) ([]DeviceToken, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT token, platform
		FROM device_tokens
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []DeviceToken
	for rows.Next() {
		var t DeviceToken
		if err := rows.Scan(&t.Token, &t.Platform); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (r *Repository) RecordDelivery(ctx context.Context, d PushDelivery) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO push_deliveries (recipient_id, device_token, event_id, event_type, provider_id, status, error_reason)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
	`, d.RecipientID, d.DeviceToken, d.EventID, d.EventType, d.ProviderID, d.Status, d.ErrorReason)
	return err
}
