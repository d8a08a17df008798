package mocks

import (
	"context"

	"studydocs/internal/identity"
	"studydocs/internal/model"
	"studydocs/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockAvatarService struct {
	mock.Mock
}

func (m *MockAvatarService) ReplaceAvatar(ctx context.Context, caller identity.Caller, in service.UploadInput) (*model.StudentProfile, error) {
	args := m.Called(ctx, caller, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StudentProfile), args.Error(1)
}
