package mocks

import (
	"context"

	"airmiles-service/internal/domain/entity"

	"github.com/stretchr/testify/mock"
)

// MockSearcher is a mock implementation of usecase.Searcher
type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, req entity.SearchRequest) (*entity.SearchResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.SearchResult), args.Error(1)
}
