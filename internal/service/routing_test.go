package service

import (
	"context"
	"errors"
	"testing"

	"routecore/internal/config"
	"routecore/internal/model"
	repoMocks "routecore/internal/repository/mocks"
	"routecore/internal/routing"
	"routecore/internal/storage"
	storeMocks "routecore/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func testRouterConfig() config.RouterConfig {
	return config.RouterConfig{
		WeightSuccessRate: 0.4,
		WeightCost:        0.3,
		WeightLatency:     0.2,
		WeightHealth:      0.1,
		ExcludeUnhealthy:  true,
		MaxAttempts:       5,
		RetriesPerTarget:  0,
	}
}

func usdProvider(id, name string, rate float64, priority int) model.Provider {
	return model.Provider{
		ID:          id,
		Name:        name,
		Active:      true,
		Healthy:     true,
		SuccessRate: rate,
		FeeRate:     0.03,
		LatencyMS:   100,
		Currencies:  []string{"USD"},
		Priority:    priority,
	}
}

func TestRoutingService_RoutePayment(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		req        PaymentRequest
		dispatcher routing.Dispatcher
		setupMocks func(mProv *repoMocks.MockProviderRepository, mDec *repoMocks.MockDecisionRepository, mStore *storeMocks.MockStorage)
		wantErr    error
		checkRes   func(t *testing.T, d *model.RouteDecision)
	}{
		{
			name: "happy path - top ranked provider wins",
			req:  PaymentRequest{Amount: 1000, Currency: "USD"},
			dispatcher: routing.DispatcherFunc(func(ctx context.Context, c routing.Candidate, payload []byte) error {
				return nil
			}),
			setupMocks: func(mProv *repoMocks.MockProviderRepository, mDec *repoMocks.MockDecisionRepository, mStore *storeMocks.MockStorage) {
				mProv.On("List", ctx, true).Return([]model.Provider{
					usdProvider("p1", "alpha", 0.99, 1),
					usdProvider("p2", "beta", 0.80, 2),
				}, nil)
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{Key: "decisions/x.json"}, nil)
				mDec.On("Create", ctx, mock.MatchedBy(func(d *model.RouteDecision) bool {
					return d.Succeeded && d.Winner == "p1" && d.Kind == model.DecisionPayment && d.TracePath != ""
				})).Return(&model.RouteDecision{ID: "dec-1", Winner: "p1", Succeeded: true}, nil)
			},
			checkRes: func(t *testing.T, d *model.RouteDecision) {
				assert.Equal(t, "p1", d.Winner)
				assert.True(t, d.Succeeded)
			},
		},
		{
			name:    "validation error - amount",
			req:     PaymentRequest{Amount: 0, Currency: "USD"},
			wantErr: ErrAmountRequired,
		},
		{
			name:    "validation error - currency",
			req:     PaymentRequest{Amount: 100},
			wantErr: ErrCurrencyRequired,
		},
		{
			name: "no provider supports currency",
			req:  PaymentRequest{Amount: 1000, Currency: "JPY"},
			setupMocks: func(mProv *repoMocks.MockProviderRepository, mDec *repoMocks.MockDecisionRepository, mStore *storeMocks.MockStorage) {
				mProv.On("List", ctx, true).Return([]model.Provider{
					usdProvider("p1", "alpha", 0.99, 1),
				}, nil)
			},
			wantErr: ErrNoEligibleProviders,
		},
		{
			name: "all eligible providers unhealthy",
			req:  PaymentRequest{Amount: 1000, Currency: "USD"},
			setupMocks: func(mProv *repoMocks.MockProviderRepository, mDec *repoMocks.MockDecisionRepository, mStore *storeMocks.MockStorage) {
				down := usdProvider("p1", "alpha", 0.99, 1)
				down.Healthy = false
				mProv.On("List", ctx, true).Return([]model.Provider{down}, nil)
			},
			wantErr: ErrNoEligibleProviders,
		},
		{
			name: "fallback to second provider on terminal error",
			req:  PaymentRequest{Amount: 1000, Currency: "USD"},
			dispatcher: routing.DispatcherFunc(func(ctx context.Context, c routing.Candidate, payload []byte) error {
				if c.ID == "p1" {
					return &routing.DispatchError{Err: errors.New("rejected"), Retryable: false}
				}
				return nil
			}),
			setupMocks: func(mProv *repoMocks.MockProviderRepository, mDec *repoMocks.MockDecisionRepository, mStore *storeMocks.MockStorage) {
				mProv.On("List", ctx, true).Return([]model.Provider{
					usdProvider("p1", "alpha", 0.99, 1),
					usdProvider("p2", "beta", 0.80, 2),
				}, nil)
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, nil)
				mDec.On("Create", ctx, mock.MatchedBy(func(d *model.RouteDecision) bool {
					return d.Winner == "p2" && len(d.Attempts) == 2
				})).Return(&model.RouteDecision{ID: "dec-2", Winner: "p2", Succeeded: true}, nil)
			},
			checkRes: func(t *testing.T, d *model.RouteDecision) {
				assert.Equal(t, "p2", d.Winner)
			},
		},
		{
			name: "all providers fail - decision still persisted",
			req:  PaymentRequest{Amount: 1000, Currency: "USD"},
			dispatcher: routing.DispatcherFunc(func(ctx context.Context, c routing.Candidate, payload []byte) error {
				return &routing.DispatchError{Err: errors.New("down"), Retryable: false}
			}),
			setupMocks: func(mProv *repoMocks.MockProviderRepository, mDec *repoMocks.MockDecisionRepository, mStore *storeMocks.MockStorage) {
				mProv.On("List", ctx, true).Return([]model.Provider{
					usdProvider("p1", "alpha", 0.99, 1),
				}, nil)
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, nil)
				mDec.On("Create", ctx, mock.MatchedBy(func(d *model.RouteDecision) bool {
					return !d.Succeeded && d.Winner == ""
				})).Return(&model.RouteDecision{ID: "dec-3", Succeeded: false}, nil)
			},
			wantErr: ErrRoutingFailed,
			checkRes: func(t *testing.T, d *model.RouteDecision) {
				assert.False(t, d.Succeeded)
			},
		},
		{
			name: "archive failure does not fail the request",
			req:  PaymentRequest{Amount: 1000, Currency: "USD"},
			dispatcher: routing.DispatcherFunc(func(ctx context.Context, c routing.Candidate, payload []byte) error {
				return nil
			}),
			setupMocks: func(mProv *repoMocks.MockProviderRepository, mDec *repoMocks.MockDecisionRepository, mStore *storeMocks.MockStorage) {
				mProv.On("List", ctx, true).Return([]model.Provider{
					usdProvider("p1", "alpha", 0.99, 1),
				}, nil)
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("bucket offline"))
				mDec.On("Create", ctx, mock.MatchedBy(func(d *model.RouteDecision) bool {
					return d.TracePath == ""
				})).Return(&model.RouteDecision{ID: "dec-4", Succeeded: true}, nil)
			},
		},
		{
			name: "provider list error",
			req:  PaymentRequest{Amount: 1000, Currency: "USD"},
			setupMocks: func(mProv *repoMocks.MockProviderRepository, mDec *repoMocks.MockDecisionRepository, mStore *storeMocks.MockStorage) {
				mProv.On("List", ctx, true).Return(nil, errors.New("db fail"))
			},
			wantErr: nil, // wrapped, checked by message below
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mProv := new(repoMocks.MockProviderRepository)
			mDec := new(repoMocks.MockDecisionRepository)
			mStore := new(storeMocks.MockStorage)

			dispatcher := tt.dispatcher
			if dispatcher == nil {
				dispatcher = routing.DispatcherFunc(func(ctx context.Context, c routing.Candidate, payload []byte) error {
					return nil
				})
			}

			svc, err := NewRoutingService(testRouterConfig(), mProv, mDec, mStore, dispatcher, nil)
			assert.NoError(t, err)

			if tt.setupMocks != nil {
				tt.setupMocks(mProv, mDec, mStore)
			}

			d, err := svc.RoutePayment(ctx, tt.req)

			if tt.name == "provider list error" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "list providers")
			} else if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, d)
			}
			if tt.checkRes != nil && d != nil {
				tt.checkRes(t, d)
			}

			mProv.AssertExpectations(t)
			mDec.AssertExpectations(t)
			mStore.AssertExpectations(t)
		})
	}
}

func TestNewRoutingService_InvalidWeights(t *testing.T) {
	cfg := testRouterConfig()
	cfg.WeightSuccessRate = 0
	cfg.WeightCost = 0
	cfg.WeightLatency = 0
	cfg.WeightHealth = 0

	_, err := NewRoutingService(cfg, nil, nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestRoutingService_ListProviders(t *testing.T) {
	ctx := context.Background()
	mProv := new(repoMocks.MockProviderRepository)
	mProv.On("List", ctx, false).Return([]model.Provider{{ID: "p1"}}, nil)

	svc, err := NewRoutingService(testRouterConfig(), mProv, nil, nil, nil, nil)
	assert.NoError(t, err)

	got, err := svc.ListProviders(ctx)
	assert.NoError(t, err)
	assert.Len(t, got, 1)
	mProv.AssertExpectations(t)
}
