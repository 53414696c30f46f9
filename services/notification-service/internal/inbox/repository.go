package inbox

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vetlinkhq/vetsched/libs/db"
)

// Repository dedupes consumed events. The unique constraint on event_id is
// the idempotency guard: Kafka redeliveries insert nothing and are dropped.
type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record returns false when the event was already processed.
func (r *Repository) Record(ctx context.Context, eventID string, eventType string) (bool, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO inbox_events (event_id, event_type)
		VALUES ($1, $2)
	`, eventID, eventType)
	if err == nil {
		return true, nil
	}

	if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
		return false, nil
	}

	return false, err
}
