package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rental-hub/rental-hub/internal/domain/notification"
	"github.com/rental-hub/rental-hub/internal/domain/quote"
)

// RetryRepository implements notification.RetryRepository on top of
// the notification_retries table.
type RetryRepository struct {
	pool *pgxpool.Pool
}

func NewRetryRepository(pool *pgxpool.Pool) *RetryRepository {
	return &RetryRepository{pool: pool}
}

func (r *RetryRepository) Upsert(ctx context.Context, quoteID uuid.UUID, status quote.Status, lastError string) error {
	// Re-enqueueing an already queued (quote, status) pair only
	// refreshes the error text. The retry count never resets here.
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notification_retries (quote_id, status, retry_count, last_error, created_at)
		VALUES ($1, $2, 0, $3, NOW())
		ON CONFLICT (quote_id, status) DO UPDATE SET last_error = EXCLUDED.last_error
	`, quoteID, status, lastError)
	return err
}

func (r *RetryRepository) ListRetryable(ctx context.Context, max, limit int) ([]*notification.RetryRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, quote_id, status, retry_count, last_error, created_at, last_retry_at
		FROM notification_retries
		WHERE retry_count < $1
		ORDER BY created_at ASC LIMIT $2
	`, max, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*notification.RetryRecord
	for rows.Next() {
		var rec notification.RetryRecord
		if err := rows.Scan(&rec.ID, &rec.QuoteID, &rec.Status, &rec.RetryCount, &rec.LastError, &rec.CreatedAt, &rec.LastRetryAt); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (r *RetryRepository) IncrementRetry(ctx context.Context, id int64, lastError string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		UPDATE notification_retries
		SET retry_count = retry_count + 1, last_error = $1, last_retry_at = NOW()
		WHERE id = $2
		RETURNING retry_count
	`, lastError, id).Scan(&count)
	return count, err
}

func (r *RetryRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM notification_retries WHERE id=$1`, id)
	return err
}
