package usecase

import (
	"context"
	"time"

	"airmiles-service/internal/domain/entity"
	"airmiles-service/internal/domain/repository"
	"airmiles-service/pkg/logger"
	"airmiles-service/pkg/metrics"
)

// RetentionSweeper deletes flight records whose service date has passed
type RetentionSweeper struct {
	flights repository.FlightRecordRepository
	metrics *metrics.Metrics
	logger  logger.Logger
	now     func() time.Time
}

// NewRetentionSweeper creates a new retention sweeper
func NewRetentionSweeper(flights repository.FlightRecordRepository, metrics *metrics.Metrics, logger logger.Logger) *RetentionSweeper {
	return &RetentionSweeper{
		flights: flights,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// SweepOnce purges records dated before today (UTC) and returns how many went
func (s *RetentionSweeper) SweepOnce(ctx context.Context) (int64, error) {
	today := entity.Today(s.now())

	deleted, err := s.flights.PurgeExpired(ctx, today)
	if err != nil {
		s.metrics.ErrorsCount.WithLabelValues("purge").Inc()
		return 0, &entity.StoreUnavailableError{Op: "purge", Err: err}
	}

	s.metrics.RecordsPurged.Add(float64(deleted))
	if deleted > 0 {
		s.logger.Info("Purged expired flight records", "deleted", deleted, "before", today.String())
	}
	return deleted, nil
}

// Run sweeps immediately and then every interval until ctx is cancelled
func (s *RetentionSweeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		s.logger.Info("Retention sweeper disabled")
		return
	}

	if _, err := s.SweepOnce(ctx); err != nil {
		s.logger.Error("Error purging expired records", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Retention sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logger.Error("Error purging expired records", "error", err)
			}
		}
	}
}
