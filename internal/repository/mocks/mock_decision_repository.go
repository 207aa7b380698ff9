package mocks

import (
	"context"

	"routecore/internal/model"
	"routecore/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockDecisionRepository struct {
	mock.Mock
}

func (m *MockDecisionRepository) Create(ctx context.Context, d *model.RouteDecision) (*model.RouteDecision, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RouteDecision), args.Error(1)
}

func (m *MockDecisionRepository) FindByID(ctx context.Context, id string) (*model.RouteDecision, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RouteDecision), args.Error(1)
}

func (m *MockDecisionRepository) List(ctx context.Context, kind string, pq repository.PageQuery) (*repository.PageResult[model.RouteDecision], error) {
	args := m.Called(ctx, kind, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.RouteDecision]), args.Error(1)
}
