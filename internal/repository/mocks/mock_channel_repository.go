package mocks

import (
	"context"

	"routecore/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockChannelRepository struct {
	mock.Mock
}

func (m *MockChannelRepository) Create(ctx context.Context, c *model.Channel) (*model.Channel, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Channel), args.Error(1)
}

func (m *MockChannelRepository) List(ctx context.Context, onlyActive bool) ([]model.Channel, error) {
	args := m.Called(ctx, onlyActive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Channel), args.Error(1)
}

func (m *MockChannelRepository) SetHealth(ctx context.Context, id string, healthy bool) error {
	args := m.Called(ctx, id, healthy)
	return args.Error(0)
}
