package quote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domainQuote "github.com/rental-hub/rental-hub/internal/domain/quote"
	quoteMocks "github.com/rental-hub/rental-hub/internal/domain/quote/mocks"
)

// capturePublisher records published events for assertions.
type capturePublisher struct {
	events []domainQuote.TransitionEvent
}

func (p *capturePublisher) Publish(ev domainQuote.TransitionEvent) {
	p.events = append(p.events, ev)
}

func newTestQuote(status domainQuote.Status) *domainQuote.Quote {
	q := domainQuote.NewQuote("owner-1", "requester-1", "machine-1", "Excavator", time.Now(), time.Now().Add(48*time.Hour))
	q.Status = status
	return q
}

func ptrFloat(v float64) *float64 { return &v }
func ptrString(v string) *string  { return &v }

func TestService_CreateRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending quote and publishes event", func(t *testing.T) {
		repo := new(quoteMocks.MockRepository)
		pub := &capturePublisher{}
		svc := NewService(repo, pub, zerolog.Nop())

		repo.On("Create", ctx, mock.Anything).Return(nil)

		q, err := svc.CreateRequest(ctx, CreateInput{
			OwnerID:     "owner-1",
			RequesterID: "requester-1",
			MachineID:   "machine-1",
			MachineName: "Excavator",
			StartDate:   time.Now(),
			EndDate:     time.Now().Add(24 * time.Hour),
		})

		require.NoError(t, err)
		assert.Equal(t, domainQuote.StatusPending, q.Status)
		require.Len(t, pub.events, 1)
		assert.Equal(t, domainQuote.StatusPending, pub.events[0].To)
		assert.Equal(t, q.ID, pub.events[0].QuoteID)
		repo.AssertExpectations(t)
	})

	t.Run("rejects missing ids", func(t *testing.T) {
		repo := new(quoteMocks.MockRepository)
		pub := &capturePublisher{}
		svc := NewService(repo, pub, zerolog.Nop())

		_, err := svc.CreateRequest(ctx, CreateInput{
			RequesterID: "requester-1",
			MachineID:   "machine-1",
			StartDate:   time.Now(),
			EndDate:     time.Now().Add(24 * time.Hour),
		})

		require.ErrorIs(t, err, domainQuote.ErrValidation)
		assert.Empty(t, pub.events)
	})

	t.Run("rejects inverted date range", func(t *testing.T) {
		repo := new(quoteMocks.MockRepository)
		pub := &capturePublisher{}
		svc := NewService(repo, pub, zerolog.Nop())

		_, err := svc.CreateRequest(ctx, CreateInput{
			OwnerID:     "owner-1",
			RequesterID: "requester-1",
			MachineID:   "machine-1",
			StartDate:   time.Now(),
			EndDate:     time.Now().Add(-24 * time.Hour),
		})

		require.ErrorIs(t, err, domainQuote.ErrValidation)
	})

	t.Run("no event when persistence fails", func(t *testing.T) {
		repo := new(quoteMocks.MockRepository)
		pub := &capturePublisher{}
		svc := NewService(repo, pub, zerolog.Nop())

		repo.On("Create", ctx, mock.Anything).Return(errors.New("db down"))

		_, err := svc.CreateRequest(ctx, CreateInput{
			OwnerID:     "owner-1",
			RequesterID: "requester-1",
			MachineID:   "machine-1",
			StartDate:   time.Now(),
			EndDate:     time.Now().Add(24 * time.Hour),
		})

		require.Error(t, err)
		assert.Empty(t, pub.events)
	})
}

func TestService_Transition(t *testing.T) {
	ctx := context.Background()

	setup := func(q *domainQuote.Quote) (*quoteMocks.MockRepository, *capturePublisher, *Service) {
		repo := new(quoteMocks.MockRepository)
		pub := &capturePublisher{}
		svc := NewService(repo, pub, zerolog.Nop())
		if q != nil {
			repo.On("GetByID", ctx, q.ID).Return(q, nil)
		}
		return repo, pub, svc
	}

	t.Run("owner quotes a pending request", func(t *testing.T) {
		q := newTestQuote(domainQuote.StatusPending)
		repo, pub, svc := setup(q)
		repo.On("UpdateTransition", ctx, mock.Anything).Return(nil)

		payload := &TransitionPayload{Value: ptrFloat(1200), Message: ptrString("available next week")}
		updated, err := svc.Transition(ctx, q.ID, domainQuote.StatusQuoted, "owner-1", payload)

		require.NoError(t, err)
		assert.Equal(t, domainQuote.StatusQuoted, updated.Status)
		require.NotNil(t, updated.Value)
		assert.Equal(t, 1200.0, *updated.Value)
		require.Len(t, pub.events, 1)
		assert.Equal(t, domainQuote.StatusPending, pub.events[0].From)
		assert.Equal(t, domainQuote.StatusQuoted, pub.events[0].To)
	})

	t.Run("quoted requires value and message", func(t *testing.T) {
		q := newTestQuote(domainQuote.StatusPending)
		_, pub, svc := setup(q)

		_, err := svc.Transition(ctx, q.ID, domainQuote.StatusQuoted, "owner-1", nil)
		require.ErrorIs(t, err, domainQuote.ErrValidation)

		_, err = svc.Transition(ctx, q.ID, domainQuote.StatusQuoted, "owner-1", &TransitionPayload{Value: ptrFloat(-5), Message: ptrString("x")})
		require.ErrorIs(t, err, domainQuote.ErrValidation)

		_, err = svc.Transition(ctx, q.ID, domainQuote.StatusQuoted, "owner-1", &TransitionPayload{Value: ptrFloat(100)})
		require.ErrorIs(t, err, domainQuote.ErrValidation)

		assert.Empty(t, pub.events)
		assert.Equal(t, domainQuote.StatusPending, q.Status)
	})

	t.Run("skipping a phase is illegal", func(t *testing.T) {
		q := newTestQuote(domainQuote.StatusPending)
		_, pub, svc := setup(q)

		_, err := svc.Transition(ctx, q.ID, domainQuote.StatusDelivered, "owner-1", nil)

		require.ErrorIs(t, err, domainQuote.ErrIllegalTransition)
		assert.Equal(t, domainQuote.StatusPending, q.Status)
		assert.Empty(t, pub.events)
	})

	t.Run("unknown status is illegal", func(t *testing.T) {
		repo := new(quoteMocks.MockRepository)
		svc := NewService(repo, &capturePublisher{}, zerolog.Nop())

		_, err := svc.Transition(ctx, uuid.New(), domainQuote.Status("returned"), "owner-1", nil)

		require.ErrorIs(t, err, domainQuote.ErrIllegalTransition)
		repo.AssertNotCalled(t, "GetByID")
	})

	t.Run("wrong party is rejected", func(t *testing.T) {
		q := newTestQuote(domainQuote.StatusQuoted)
		_, pub, svc := setup(q)

		// accepting is the requester's move
		_, err := svc.Transition(ctx, q.ID, domainQuote.StatusAccepted, "owner-1", nil)
		require.ErrorIs(t, err, domainQuote.ErrUnauthorized)

		// a stranger holds no role at all
		_, err = svc.Transition(ctx, q.ID, domainQuote.StatusAccepted, "someone-else", nil)
		require.ErrorIs(t, err, domainQuote.ErrUnauthorized)

		assert.Equal(t, domainQuote.StatusQuoted, q.Status)
		assert.Empty(t, pub.events)
	})

	t.Run("backward correction is owner only", func(t *testing.T) {
		q := newTestQuote(domainQuote.StatusInTransit)
		repo, pub, svc := setup(q)
		repo.On("UpdateTransition", ctx, mock.Anything).Return(nil)

		_, err := svc.Transition(ctx, q.ID, domainQuote.StatusInPreparation, "requester-1", nil)
		require.ErrorIs(t, err, domainQuote.ErrUnauthorized)

		updated, err := svc.Transition(ctx, q.ID, domainQuote.StatusInPreparation, "owner-1", nil)
		require.NoError(t, err)
		assert.Equal(t, domainQuote.StatusInPreparation, updated.Status)
		require.Len(t, pub.events, 1)
	})

	t.Run("terminal statuses admit no moves", func(t *testing.T) {
		for _, status := range []domainQuote.Status{
			domainQuote.StatusRejected,
			domainQuote.StatusCanceled,
			domainQuote.StatusCompleted,
		} {
			q := newTestQuote(status)
			_, pub, svc := setup(q)

			_, err := svc.Transition(ctx, q.ID, domainQuote.StatusPending, "owner-1", nil)

			require.ErrorIs(t, err, domainQuote.ErrIllegalTransition, "from %s", status)
			assert.Empty(t, pub.events)
		}
	})

	t.Run("missing quote", func(t *testing.T) {
		repo := new(quoteMocks.MockRepository)
		svc := NewService(repo, &capturePublisher{}, zerolog.Nop())
		id := uuid.New()
		repo.On("GetByID", ctx, id).Return(nil, nil)

		_, err := svc.Transition(ctx, id, domainQuote.StatusQuoted, "owner-1", &TransitionPayload{Value: ptrFloat(10), Message: ptrString("m")})

		require.ErrorIs(t, err, domainQuote.ErrNotFound)
	})

	t.Run("no event when persistence fails", func(t *testing.T) {
		q := newTestQuote(domainQuote.StatusQuoted)
		repo, pub, svc := setup(q)
		repo.On("UpdateTransition", ctx, mock.Anything).Return(errors.New("db down"))

		_, err := svc.Transition(ctx, q.ID, domainQuote.StatusAccepted, "requester-1", nil)

		require.Error(t, err)
		assert.Equal(t, domainQuote.StatusQuoted, q.Status)
		assert.Empty(t, pub.events)
	})

	t.Run("full forward walk publishes every edge", func(t *testing.T) {
		q := newTestQuote(domainQuote.StatusPending)
		repo := new(quoteMocks.MockRepository)
		pub := &capturePublisher{}
		svc := NewService(repo, pub, zerolog.Nop())
		repo.On("GetByID", ctx, q.ID).Return(q, nil)
		repo.On("UpdateTransition", ctx, mock.Anything).Return(nil)

		steps := []struct {
			to      domainQuote.Status
			actor   string
			payload *TransitionPayload
		}{
			{domainQuote.StatusQuoted, "owner-1", &TransitionPayload{Value: ptrFloat(800), Message: ptrString("deal")}},
			{domainQuote.StatusAccepted, "requester-1", nil},
			{domainQuote.StatusInPreparation, "owner-1", nil},
			{domainQuote.StatusInTransit, "owner-1", nil},
			{domainQuote.StatusDelivered, "owner-1", nil},
			{domainQuote.StatusReturnRequested, "requester-1", nil},
			{domainQuote.StatusPickupScheduled, "owner-1", nil},
			{domainQuote.StatusReturnInTransit, "owner-1", nil},
			{domainQuote.StatusCompleted, "owner-1", nil},
		}
		for _, step := range steps {
			_, err := svc.Transition(ctx, q.ID, step.to, step.actor, step.payload)
			require.NoError(t, err, "to %s", step.to)
		}

		require.Len(t, pub.events, len(steps))
		assert.Equal(t, domainQuote.StatusCompleted, q.Status)
		assert.True(t, q.IsTerminal())
	})
}
