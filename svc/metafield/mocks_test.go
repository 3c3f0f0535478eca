package metafield_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/metafields/svc/metafield"
)

// MockEventPublisher is a mock implementation of EventPublisher.
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishDefinitionDeleted(ctx context.Context, event metafield.DefinitionDeleted) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockOwnerChecker is a mock implementation of OwnerChecker.
type MockOwnerChecker struct {
	mock.Mock
}

func (m *MockOwnerChecker) Exists(ctx context.Context, resource metafield.OwnerResource, id int64, storeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, resource, id, storeID)
	return args.Bool(0), args.Error(1)
}
