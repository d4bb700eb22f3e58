package usecase

import (
	"context"
	"time"

	"airmiles-service/internal/domain/entity"
	"airmiles-service/internal/domain/repository"
	"airmiles-service/pkg/logger"
)

// RouteRefresher keeps the stalest watched routes warm by searching them in the background
type RouteRefresher struct {
	routes      repository.RouteWatchRepository
	searcher    Searcher
	logger      logger.Logger
	batchSize   int
	horizonDays int
	now         func() time.Time
}

// NewRouteRefresher creates a new route refresher
func NewRouteRefresher(routes repository.RouteWatchRepository, searcher Searcher, batchSize, horizonDays int, logger logger.Logger) *RouteRefresher {
	if batchSize <= 0 {
		batchSize = 5
	}
	if horizonDays <= 0 {
		horizonDays = 30
	}
	return &RouteRefresher{
		routes:      routes,
		searcher:    searcher,
		logger:      logger,
		batchSize:   batchSize,
		horizonDays: horizonDays,
		now:         time.Now,
	}
}

// RefreshOnce searches the stalest batch of routes over [today, today+horizon]
// in economy. A failing route is logged and skipped. It returns how many
// routes were searched successfully.
func (r *RouteRefresher) RefreshOnce(ctx context.Context) (int, error) {
	watches, err := r.routes.ListStalest(ctx, r.batchSize)
	if err != nil {
		return 0, &entity.StoreUnavailableError{Op: "list routes", Err: err}
	}

	today := entity.Today(r.now())
	window := entity.DateWindow{Start: today, End: today.AddDays(r.horizonDays)}

	refreshed := 0
	for _, w := range watches {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}

		result, err := r.searcher.Search(ctx, entity.SearchRequest{
			Origin:      w.OriginCode,
			Destination: w.DestinationCode,
			Window:      window,
			CabinClass:  entity.CabinEconomy,
			CarrierCode: w.CarrierCode,
		})
		if err != nil {
			r.logger.Warn("Failed to refresh route",
				"origin", w.OriginCode,
				"destination", w.DestinationCode,
				"carrier", w.CarrierCode,
				"error", err)
			continue
		}

		refreshed++
		r.logger.Debug("Refreshed route",
			"origin", w.OriginCode,
			"destination", w.DestinationCode,
			"carrier", w.CarrierCode,
			"cached", result.ServedFromCache,
			"records", len(result.Records))
	}

	return refreshed, nil
}

// Run refreshes a batch every interval until ctx is cancelled
func (r *RouteRefresher) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		r.logger.Info("Route refresher disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Route refresher stopped")
			return
		case <-ticker.C:
			r.logger.Info("Refreshing stale routes")
			if _, err := r.RefreshOnce(ctx); err != nil {
				r.logger.Error("Error refreshing routes", "error", err)
			}
		}
	}
}
