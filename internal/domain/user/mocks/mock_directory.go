package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/rental-hub/rental-hub/internal/domain/user"
)

// MockDirectory is a mock implementation of user.Directory
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) GetContact(ctx context.Context, userID string) (*user.Contact, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.Contact), args.Error(1)
}
