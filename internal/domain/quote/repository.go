package quote

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for quotes. ListByOwner and
// ListByRequester return quotes ordered by CreatedAt descending.
type Repository interface {
	Create(ctx context.Context, q *Quote) error
	GetByID(ctx context.Context, id uuid.UUID) (*Quote, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Quote, error)
	ListByRequester(ctx context.Context, requesterID string) ([]*Quote, error)
	// UpdateTransition persists status, commercial/return payload
	// fields and UpdatedAt in a single write.
	UpdateTransition(ctx context.Context, q *Quote) error
}
