package notification

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository,RetryRepository

import (
	"context"

	"github.com/google/uuid"

	"github.com/rental-hub/rental-hub/internal/domain/quote"
)

// Repository defines persistence for notification records.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Notification, error)
	// MarkRead and Delete are recipient-scoped: they affect the
	// notification only when it belongs to userID.
	MarkRead(ctx context.Context, id uuid.UUID, userID string) error
	Delete(ctx context.Context, id uuid.UUID, userID string) error
	CountUnread(ctx context.Context, userID string) (int, error)
}

// RetryRepository defines the durable retry queue for failed
// dispatches.
type RetryRepository interface {
	// Upsert creates the record for (quoteID, status) with
	// RetryCount 0, or refreshes LastError if one already exists.
	// Attempt counting happens only in IncrementRetry.
	Upsert(ctx context.Context, quoteID uuid.UUID, status quote.Status, lastError string) error
	// ListRetryable returns records with RetryCount below max,
	// oldest first.
	ListRetryable(ctx context.Context, max, limit int) ([]*RetryRecord, error)
	// IncrementRetry atomically increments the attempt counter and
	// returns the new count.
	IncrementRetry(ctx context.Context, id int64, lastError string) (int, error)
	Delete(ctx context.Context, id int64) error
}
