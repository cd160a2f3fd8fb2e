package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domainNotification "github.com/rental-hub/rental-hub/internal/domain/notification"
	domainQuote "github.com/rental-hub/rental-hub/internal/domain/quote"
	quoteMocks "github.com/rental-hub/rental-hub/internal/domain/quote/mocks"
)

type retryFixture struct {
	dispatcherFixture
	quoteRepo *quoteMocks.MockRepository
	exhausted []*domainNotification.RetryRecord
	p         *RetryProcessor
}

func newRetryFixture() *retryFixture {
	f := &retryFixture{
		dispatcherFixture: *newDispatcherFixture(),
		quoteRepo:         new(quoteMocks.MockRepository),
	}
	f.p = NewRetryProcessor(f.retryRepo, f.quoteRepo, f.d, func(rec *domainNotification.RetryRecord) {
		f.exhausted = append(f.exhausted, rec)
	}, zerolog.Nop())
	return f
}

func retryRecord(q *domainQuote.Quote, status domainQuote.Status, count int) *domainNotification.RetryRecord {
	return &domainNotification.RetryRecord{
		ID:         1,
		QuoteID:    q.ID,
		Status:     status,
		RetryCount: count,
		LastError:  "push gateway down",
		CreatedAt:  time.Now().UTC(),
	}
}

func TestRetryProcessor_Drain(t *testing.T) {
	ctx := context.Background()

	t.Run("successful replay deletes the record", func(t *testing.T) {
		f := newRetryFixture()
		q := testQuote(domainQuote.StatusQuoted)
		rec := retryRecord(q, domainQuote.StatusQuoted, 1)

		f.retryRepo.On("ListRetryable", ctx, domainNotification.MaxRetries, 50).
			Return([]*domainNotification.RetryRecord{rec}, nil)
		f.quoteRepo.On("GetByID", ctx, q.ID).Return(q, nil)
		f.notifRepo.On("Create", ctx, mock.Anything).Return(nil)
		f.directory.On("GetContact", ctx, mock.Anything).Return(contactFor("requester-1"), nil)
		f.retryRepo.On("Delete", ctx, rec.ID).Return(nil)

		resolved, failed, err := f.p.Drain(ctx, 50)

		require.NoError(t, err)
		assert.Equal(t, 1, resolved)
		assert.Equal(t, 0, failed)
		f.retryRepo.AssertExpectations(t)
	})

	t.Run("failed replay bumps the counter", func(t *testing.T) {
		f := newRetryFixture()
		f.push.err = errors.New("push gateway down")
		q := testQuote(domainQuote.StatusQuoted)
		rec := retryRecord(q, domainQuote.StatusQuoted, 0)

		f.retryRepo.On("ListRetryable", ctx, domainNotification.MaxRetries, 50).
			Return([]*domainNotification.RetryRecord{rec}, nil)
		f.quoteRepo.On("GetByID", ctx, q.ID).Return(q, nil)
		f.notifRepo.On("Create", ctx, mock.Anything).Return(nil)
		f.directory.On("GetContact", ctx, mock.Anything).Return(contactFor("requester-1"), nil)
		f.retryRepo.On("IncrementRetry", ctx, rec.ID, mock.Anything).Return(1, nil)

		resolved, failed, err := f.p.Drain(ctx, 50)

		require.NoError(t, err)
		assert.Equal(t, 0, resolved)
		assert.Equal(t, 1, failed)
		f.retryRepo.AssertNotCalled(t, "Delete")
		assert.Empty(t, f.exhausted)
	})

	t.Run("third failure exhausts the record", func(t *testing.T) {
		f := newRetryFixture()
		f.push.err = errors.New("push gateway down")
		q := testQuote(domainQuote.StatusQuoted)
		rec := retryRecord(q, domainQuote.StatusQuoted, 2)

		f.retryRepo.On("ListRetryable", ctx, domainNotification.MaxRetries, 50).
			Return([]*domainNotification.RetryRecord{rec}, nil)
		f.quoteRepo.On("GetByID", ctx, q.ID).Return(q, nil)
		f.notifRepo.On("Create", ctx, mock.Anything).Return(nil)
		f.directory.On("GetContact", ctx, mock.Anything).Return(contactFor("requester-1"), nil)
		f.retryRepo.On("IncrementRetry", ctx, rec.ID, mock.Anything).Return(3, nil)

		_, failed, err := f.p.Drain(ctx, 50)

		require.NoError(t, err)
		assert.Equal(t, 1, failed)
		require.Len(t, f.exhausted, 1)
		assert.True(t, f.exhausted[0].Exhausted())
		// the record stays; exclusion happens in ListRetryable
		f.retryRepo.AssertNotCalled(t, "Delete")
	})

	t.Run("missing quote counts as a failed replay", func(t *testing.T) {
		f := newRetryFixture()
		q := testQuote(domainQuote.StatusQuoted)
		rec := retryRecord(q, domainQuote.StatusQuoted, 0)

		f.retryRepo.On("ListRetryable", ctx, domainNotification.MaxRetries, 50).
			Return([]*domainNotification.RetryRecord{rec}, nil)
		f.quoteRepo.On("GetByID", ctx, q.ID).Return(nil, nil)
		f.retryRepo.On("IncrementRetry", ctx, rec.ID, mock.Anything).Return(1, nil)

		resolved, failed, err := f.p.Drain(ctx, 50)

		require.NoError(t, err)
		assert.Equal(t, 0, resolved)
		assert.Equal(t, 1, failed)
	})

	t.Run("empty queue is a no-op", func(t *testing.T) {
		f := newRetryFixture()
		f.retryRepo.On("ListRetryable", ctx, domainNotification.MaxRetries, 50).
			Return([]*domainNotification.RetryRecord{}, nil)

		resolved, failed, err := f.p.Drain(ctx, 50)

		require.NoError(t, err)
		assert.Zero(t, resolved)
		assert.Zero(t, failed)
	})

	t.Run("list failure surfaces", func(t *testing.T) {
		f := newRetryFixture()
		f.retryRepo.On("ListRetryable", ctx, domainNotification.MaxRetries, 50).
			Return(nil, errors.New("db down"))

		_, _, err := f.p.Drain(ctx, 50)
		require.Error(t, err)
	})
}
