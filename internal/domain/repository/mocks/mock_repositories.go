package mocks

import (
	"context"
	"time"

	"airmiles-service/internal/domain/entity"

	"github.com/stretchr/testify/mock"
)

// MockFlightRecordRepository is a mock implementation of FlightRecordRepository
type MockFlightRecordRepository struct {
	mock.Mock
}

func (m *MockFlightRecordRepository) QueryByRouteAndWindow(ctx context.Context, origin, destination string, window entity.DateWindow) ([]*entity.FlightRecord, error) {
	args := m.Called(ctx, origin, destination, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.FlightRecord), args.Error(1)
}

func (m *MockFlightRecordRepository) Upsert(ctx context.Context, record *entity.FlightRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockFlightRecordRepository) PurgeExpired(ctx context.Context, today entity.Date) (int64, error) {
	args := m.Called(ctx, today)
	return args.Get(0).(int64), args.Error(1)
}

// MockRouteWatchRepository is a mock implementation of RouteWatchRepository
type MockRouteWatchRepository struct {
	mock.Mock
}

func (m *MockRouteWatchRepository) Touch(ctx context.Context, origin, destination, carrier string) (*entity.RouteWatch, error) {
	args := m.Called(ctx, origin, destination, carrier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RouteWatch), args.Error(1)
}

func (m *MockRouteWatchRepository) MarkFetched(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockRouteWatchRepository) ListStalest(ctx context.Context, limit int) ([]*entity.RouteWatch, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.RouteWatch), args.Error(1)
}

// MockFetchJobRepository is a mock implementation of FetchJobRepository
type MockFetchJobRepository struct {
	mock.Mock
}

func (m *MockFetchJobRepository) Create(ctx context.Context, job *entity.FetchJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockFetchJobRepository) Complete(ctx context.Context, job *entity.FetchJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockFetchJobRepository) LatestSuccessfulCovering(ctx context.Context, origin, destination, carrier string, cabin entity.CabinClass, window entity.DateWindow) (*entity.FetchJob, error) {
	args := m.Called(ctx, origin, destination, carrier, cabin, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.FetchJob), args.Error(1)
}

// MockRecordSource is a mock implementation of RecordSource
type MockRecordSource struct {
	mock.Mock
}

func (m *MockRecordSource) Fetch(ctx context.Context, query entity.FetchQuery) ([]*entity.FlightRecord, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.FlightRecord), args.Error(1)
}
