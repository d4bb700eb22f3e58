package repository

import (
	"context"
	"time"

	"airmiles-service/internal/domain/entity"
)

// RouteWatchRepository defines the interface for route watch bookkeeping
type RouteWatchRepository interface {
	Touch(ctx context.Context, origin, destination, carrier string) (*entity.RouteWatch, error)
	MarkFetched(ctx context.Context, id string, at time.Time) error
	ListStalest(ctx context.Context, limit int) ([]*entity.RouteWatch, error)
}
