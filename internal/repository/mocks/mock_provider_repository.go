package mocks

import (
	"context"

	"routecore/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockProviderRepository struct {
	mock.Mock
}

func (m *MockProviderRepository) Create(ctx context.Context, p *model.Provider) (*model.Provider, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Provider), args.Error(1)
}

func (m *MockProviderRepository) FindByID(ctx context.Context, id string) (*model.Provider, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Provider), args.Error(1)
}

func (m *MockProviderRepository) List(ctx context.Context, onlyActive bool) ([]model.Provider, error) {
	args := m.Called(ctx, onlyActive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Provider), args.Error(1)
}

func (m *MockProviderRepository) SetHealth(ctx context.Context, id string, healthy bool) error {
	args := m.Called(ctx, id, healthy)
	return args.Error(0)
}
