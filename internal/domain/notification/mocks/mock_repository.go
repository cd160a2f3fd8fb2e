package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/rental-hub/rental-hub/internal/domain/notification"
	"github.com/rental-hub/rental-hub/internal/domain/quote"
)

// MockRepository is a mock implementation of notification.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, n *notification.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*notification.Notification, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*notification.Notification), args.Error(1)
}

func (m *MockRepository) MarkRead(ctx context.Context, id uuid.UUID, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

// MockRetryRepository is a mock implementation of notification.RetryRepository
type MockRetryRepository struct {
	mock.Mock
}

func (m *MockRetryRepository) Upsert(ctx context.Context, quoteID uuid.UUID, status quote.Status, lastError string) error {
	args := m.Called(ctx, quoteID, status, lastError)
	return args.Error(0)
}

func (m *MockRetryRepository) ListRetryable(ctx context.Context, max, limit int) ([]*notification.RetryRecord, error) {
	args := m.Called(ctx, max, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*notification.RetryRecord), args.Error(1)
}

func (m *MockRetryRepository) IncrementRetry(ctx context.Context, id int64, lastError string) (int, error) {
	args := m.Called(ctx, id, lastError)
	return args.Int(0), args.Error(1)
}

func (m *MockRetryRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
