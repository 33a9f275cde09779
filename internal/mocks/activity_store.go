package mocks

import (
	"context"

	"github.com/phrazzld/totem-api/internal/domain"
	"github.com/stretchr/testify/mock"
)

// TestifyMockActivityStore is a mock of store.ActivityStore for use with testify/mock
type TestifyMockActivityStore struct {
	mock.Mock
}

// Record is a mock implementation of store.ActivityStore.Record
func (m *TestifyMockActivityStore) Record(ctx context.Context, entry *domain.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
