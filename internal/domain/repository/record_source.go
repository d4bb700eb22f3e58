package repository

import (
	"context"

	"airmiles-service/internal/domain/entity"
)

// RecordSource produces flight records for a route and date window. Calls may
// be slow and may fail; implementations must honour ctx cancellation.
type RecordSource interface {
	Fetch(ctx context.Context, query entity.FetchQuery) ([]*entity.FlightRecord, error)
}
