package mocks

import (
	"context"

	"routecore/internal/model"
	"routecore/internal/search"
	"routecore/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockRoutingService struct {
	mock.Mock
}

func (m *MockRoutingService) RoutePayment(ctx context.Context, req service.PaymentRequest) (*model.RouteDecision, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RouteDecision), args.Error(1)
}

func (m *MockRoutingService) ListProviders(ctx context.Context) ([]model.Provider, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Provider), args.Error(1)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) Notify(ctx context.Context, req service.NotificationRequest) (*model.RouteDecision, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RouteDecision), args.Error(1)
}

type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) Index(ctx context.Context, req service.IndexRequest) (*model.SearchDocument, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SearchDocument), args.Error(1)
}

func (m *MockSearchService) Search(ctx context.Context, req service.SearchRequest) ([]search.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]search.Result), args.Error(1)
}

func (m *MockSearchService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockDecisionService struct {
	mock.Mock
}

func (m *MockDecisionService) List(ctx context.Context, kind string, limit, offset int) (*service.DecisionListResult, error) {
	args := m.Called(ctx, kind, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DecisionListResult), args.Error(1)
}

func (m *MockDecisionService) Get(ctx context.Context, id string) (*model.RouteDecision, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RouteDecision), args.Error(1)
}

func (m *MockDecisionService) TraceURL(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}
