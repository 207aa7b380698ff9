package mocks

import (
	"context"

	"routecore/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockSearchDocumentRepository struct {
	mock.Mock
}

func (m *MockSearchDocumentRepository) Create(ctx context.Context, doc *model.SearchDocument) (*model.SearchDocument, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SearchDocument), args.Error(1)
}

func (m *MockSearchDocumentRepository) FindByID(ctx context.Context, id string) (*model.SearchDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SearchDocument), args.Error(1)
}

func (m *MockSearchDocumentRepository) FindByIDs(ctx context.Context, ids []string) ([]model.SearchDocument, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SearchDocument), args.Error(1)
}

func (m *MockSearchDocumentRepository) KeywordSearch(ctx context.Context, query string, limit int) ([]model.KeywordHit, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.KeywordHit), args.Error(1)
}

func (m *MockSearchDocumentRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
