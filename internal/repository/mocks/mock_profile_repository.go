package mocks

import (
	"context"

	"studydocs/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) FindIDByUserID(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockProfileRepository) FindByID(ctx context.Context, id string) (*model.StudentProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StudentProfile), args.Error(1)
}

func (m *MockProfileRepository) SwapAvatar(ctx context.Context, id string, loc model.StorageLocation) (*model.StorageLocation, error) {
	args := m.Called(ctx, id, loc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StorageLocation), args.Error(1)
}
