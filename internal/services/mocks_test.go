package services

import (
	"context"

	"github.com/confessly/backend/internal/models"
	"github.com/stretchr/testify/mock"
)

// anything re-exports mock.Anything for tests where a local sqlmock variable
// shadows the mock package identifier.
var anything = mock.Anything

type MockRoomEnsurer struct {
	mock.Mock
}

func (m *MockRoomEnsurer) EnsureRoom(ctx context.Context, userA, userB, confessionID string) (string, error) {
	args := m.Called(ctx, userA, userB, confessionID)
	return args.String(0), args.Error(1)
}

type MockUnlockCache struct {
	mock.Mock
}

func (m *MockUnlockCache) Get(ctx context.Context, userID string) (*models.UserUnlocks, bool) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*models.UserUnlocks), args.Bool(1)
}

func (m *MockUnlockCache) Set(ctx context.Context, userID string, unlocks *models.UserUnlocks) {
	m.Called(ctx, userID, unlocks)
}

func (m *MockUnlockCache) Invalidate(ctx context.Context, userID string) {
	m.Called(ctx, userID)
}
