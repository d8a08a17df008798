package mocks

import (
	"context"

	"studydocs/internal/identity"
	"studydocs/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockDeliveryService struct {
	mock.Mock
}

func (m *MockDeliveryService) Deliver(ctx context.Context, caller identity.Caller, id string, disposition service.Disposition) (*service.Delivery, error) {
	args := m.Called(ctx, caller, id, disposition)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Delivery), args.Error(1)
}

func (m *MockDeliveryService) DeliverAvatar(ctx context.Context, caller identity.Caller, studentID string) (*service.Delivery, error) {
	args := m.Called(ctx, caller, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Delivery), args.Error(1)
}
