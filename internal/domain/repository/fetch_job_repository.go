package repository

import (
	"context"

	"airmiles-service/internal/domain/entity"
)

// FetchJobRepository defines the interface for fetch audit rows
type FetchJobRepository interface {
	Create(ctx context.Context, job *entity.FetchJob) error
	Complete(ctx context.Context, job *entity.FetchJob) error
	// LatestSuccessfulCovering returns the most recently completed successful job
	// for the route, cabin and carrier whose window covers window, or nil.
	LatestSuccessfulCovering(ctx context.Context, origin, destination, carrier string, cabin entity.CabinClass, window entity.DateWindow) (*entity.FetchJob, error)
}
