package quote

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	domainQuote "github.com/rental-hub/rental-hub/internal/domain/quote"
	"github.com/rental-hub/rental-hub/internal/infrastructure/metrics"
)

// TransitionPublisher receives transition events after the quote
// write has succeeded. Publishing must never fail the transition.
type TransitionPublisher interface {
	Publish(ev domainQuote.TransitionEvent)
}

// Service validates and applies quote lifecycle transitions.
type Service struct {
	quoteRepo domainQuote.Repository
	publisher TransitionPublisher
	logger    zerolog.Logger
}

func NewService(quoteRepo domainQuote.Repository, publisher TransitionPublisher, logger zerolog.Logger) *Service {
	return &Service{
		quoteRepo: quoteRepo,
		publisher: publisher,
		logger:    logger.With().Str("service", "quote").Logger(),
	}
}

// CreateInput carries the requester-supplied fields of a new rental
// request.
type CreateInput struct {
	OwnerID     string
	RequesterID string
	MachineID   string
	MachineName string
	PhotoURLs   []string
	StartDate   time.Time
	EndDate     time.Time
	Purpose     string
	Location    string
}

// TransitionPayload carries the optional fields a transition may set.
type TransitionPayload struct {
	Value       *float64
	Message     *string
	ReturnType  *domainQuote.ReturnType
	ReturnNotes *string
}

// CreateRequest inserts a new quote in pending status and publishes
// the initial event so the owner is notified of the new request.
func (s *Service) CreateRequest(ctx context.Context, input CreateInput) (*domainQuote.Quote, error) {
	if input.OwnerID == "" || input.RequesterID == "" || input.MachineID == "" {
		return nil, fmt.Errorf("%w: ownerId, requesterId and machineId are required", domainQuote.ErrValidation)
	}
	if input.EndDate.Before(input.StartDate) {
		return nil, fmt.Errorf("%w: endDate precedes startDate", domainQuote.ErrValidation)
	}

	q := domainQuote.NewQuote(input.OwnerID, input.RequesterID, input.MachineID, input.MachineName, input.StartDate, input.EndDate)
	q.PhotoURLs = input.PhotoURLs
	q.Purpose = input.Purpose
	q.Location = input.Location

	if err := s.quoteRepo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to create quote: %w", err)
	}

	metrics.QuotesCreatedTotal.Inc()
	s.logger.Info().
		Str("quote_id", q.ID.String()).
		Str("owner_id", q.OwnerID).
		Str("requester_id", q.RequesterID).
		Msg("quote request created")

	s.publisher.Publish(domainQuote.TransitionEvent{
		QuoteID: q.ID,
		From:    "",
		To:      domainQuote.StatusPending,
		Quote:   q,
	})
	return q, nil
}

// Transition moves a quote along one edge of the lifecycle table.
// Validation, authorization and persistence failures are surfaced to
// the caller; downstream notification failures never are.
func (s *Service) Transition(ctx context.Context, quoteID uuid.UUID, target domainQuote.Status, actorID string, payload *TransitionPayload) (*domainQuote.Quote, error) {
	if !domainQuote.ValidStatus(target) {
		return nil, fmt.Errorf("%w: unknown status %q", domainQuote.ErrIllegalTransition, target)
	}

	q, err := s.quoteRepo.GetByID(ctx, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to load quote: %w", err)
	}
	if q == nil {
		return nil, fmt.Errorf("%w: %s", domainQuote.ErrNotFound, quoteID)
	}

	if !q.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s -> %s", domainQuote.ErrIllegalTransition, q.Status, target)
	}

	role, ok := q.RoleOf(actorID)
	if !ok || role != q.RequiredActor(target) {
		return nil, fmt.Errorf("%w: %s -> %s requires the %s", domainQuote.ErrUnauthorized, q.Status, target, q.RequiredActor(target))
	}

	if err := applyPayload(q, target, payload); err != nil {
		return nil, err
	}

	from := q.Status
	backward := q.IsBackward(target)
	q.Status = target
	q.UpdatedAt = time.Now().UTC()

	if err := s.quoteRepo.UpdateTransition(ctx, q); err != nil {
		// no event is published for a failed write
		q.Status = from
		return nil, fmt.Errorf("failed to persist transition: %w", err)
	}

	metrics.TransitionsTotal.WithLabelValues(string(target)).Inc()
	s.logger.Info().
		Str("quote_id", q.ID.String()).
		Str("from", string(from)).
		Str("to", string(target)).
		Str("actor", actorID).
		Bool("backward", backward).
		Msg("quote transitioned")

	s.publisher.Publish(domainQuote.TransitionEvent{
		QuoteID: q.ID,
		From:    from,
		To:      target,
		Quote:   q,
	})
	return q, nil
}

// applyPayload validates and applies transition-specific fields.
func applyPayload(q *domainQuote.Quote, target domainQuote.Status, payload *TransitionPayload) error {
	switch target {
	case domainQuote.StatusQuoted:
		if payload == nil || payload.Value == nil {
			return fmt.Errorf("%w: value is required to quote a request", domainQuote.ErrValidation)
		}
		if *payload.Value <= 0 {
			return fmt.Errorf("%w: value must be positive", domainQuote.ErrValidation)
		}
		if payload.Message == nil || *payload.Message == "" {
			return fmt.Errorf("%w: message is required to quote a request", domainQuote.ErrValidation)
		}
		q.Value = payload.Value
		q.Message = payload.Message
	case domainQuote.StatusReturnRequested:
		if payload != nil {
			if payload.ReturnType != nil {
				if *payload.ReturnType != domainQuote.ReturnTypeStore && *payload.ReturnType != domainQuote.ReturnTypePickup {
					return fmt.Errorf("%w: unknown return type %q", domainQuote.ErrValidation, *payload.ReturnType)
				}
				q.ReturnType = payload.ReturnType
			}
			if payload.ReturnNotes != nil {
				q.ReturnNotes = payload.ReturnNotes
			}
		}
	}
	return nil
}

// ListByOwner returns the owner's quotes, newest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]*domainQuote.Quote, error) {
	return s.quoteRepo.ListByOwner(ctx, ownerID)
}

// ListByRequester returns the requester's quotes, newest first.
func (s *Service) ListByRequester(ctx context.Context, requesterID string) ([]*domainQuote.Quote, error) {
	return s.quoteRepo.ListByRequester(ctx, requesterID)
}

// GetQuote loads one quote.
func (s *Service) GetQuote(ctx context.Context, quoteID uuid.UUID) (*domainQuote.Quote, error) {
	q, err := s.quoteRepo.GetByID(ctx, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to load quote: %w", err)
	}
	if q == nil {
		return nil, fmt.Errorf("%w: %s", domainQuote.ErrNotFound, quoteID)
	}
	return q, nil
}
