package mocks

import (
	"context"

	"studydocs/internal/identity"
	"studydocs/internal/model"
	"studydocs/internal/policy"
	"studydocs/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, caller identity.Caller, in service.UploadInput) (*model.Document, error) {
	args := m.Called(ctx, caller, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, caller identity.Caller, limit, offset int) (*service.DocumentListResult, error) {
	args := m.Called(ctx, caller, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockDocumentService) ListByOwner(ctx context.Context, caller identity.Caller, ownerID string) ([]model.Document, error) {
	args := m.Called(ctx, caller, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentService) ListMine(ctx context.Context, caller identity.Caller) ([]model.Document, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, caller identity.Caller, id string) (*model.Document, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) GetFor(ctx context.Context, caller identity.Caller, id string, op policy.Operation) (*model.Document, error) {
	args := m.Called(ctx, caller, id, op)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, caller identity.Caller, id string) error {
	args := m.Called(ctx, caller, id)
	return args.Error(0)
}
