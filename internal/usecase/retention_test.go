package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"airmiles-service/internal/domain/entity"
	"airmiles-service/internal/domain/repository/mocks"
	"airmiles-service/pkg/logger"
	"airmiles-service/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRetentionSweeper_SweepOnce(t *testing.T) {
	flights := new(mocks.MockFlightRecordRepository)
	m := metrics.NewNopMetrics()
	sweeper := NewRetentionSweeper(flights, m, logger.NewNop())
	sweeper.now = func() time.Time { return time.Date(2025, 6, 3, 23, 30, 0, 0, time.UTC) }

	flights.On("PurgeExpired", mock.Anything, entity.MustParseDate("2025-06-03")).Return(int64(7), nil).Once()

	deleted, err := sweeper.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), deleted)
	assert.Equal(t, float64(7), testutil.ToFloat64(m.RecordsPurged))
	flights.AssertExpectations(t)
}

func TestRetentionSweeper_SweepOnceStoreError(t *testing.T) {
	flights := new(mocks.MockFlightRecordRepository)
	m := metrics.NewNopMetrics()
	sweeper := NewRetentionSweeper(flights, m, logger.NewNop())

	flights.On("PurgeExpired", mock.Anything, mock.Anything).Return(int64(0), errors.New("database is locked"))

	deleted, err := sweeper.SweepOnce(context.Background())
	assert.Zero(t, deleted)

	var storeErr *entity.StoreUnavailableError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "purge", storeErr.Op)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ErrorsCount.WithLabelValues("purge")))
}

func TestRetentionSweeper_RunSweepsImmediatelyAndStops(t *testing.T) {
	flights := new(mocks.MockFlightRecordRepository)
	sweeper := NewRetentionSweeper(flights, metrics.NewNopMetrics(), logger.NewNop())

	swept := make(chan struct{}, 1)
	flights.On("PurgeExpired", mock.Anything, mock.Anything).Return(int64(0), nil).Run(func(mock.Arguments) {
		select {
		case swept <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx, time.Hour)
		close(done)
	}()

	select {
	case <-swept:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not run on start")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestRetentionSweeper_RunDisabled(t *testing.T) {
	flights := new(mocks.MockFlightRecordRepository)
	sweeper := NewRetentionSweeper(flights, metrics.NewNopMetrics(), logger.NewNop())

	sweeper.Run(context.Background(), 0)
	flights.AssertNotCalled(t, "PurgeExpired", mock.Anything, mock.Anything)
}
