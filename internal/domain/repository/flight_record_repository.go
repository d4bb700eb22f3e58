package repository

import (
	"context"

	"airmiles-service/internal/domain/entity"
)

// FlightRecordRepository defines the interface for flight record storage
type FlightRecordRepository interface {
	// QueryByRouteAndWindow returns records for origin/destination with a service
	// date inside window, ordered by service date then points ascending.
	QueryByRouteAndWindow(ctx context.Context, origin, destination string, window entity.DateWindow) ([]*entity.FlightRecord, error)
	// Upsert inserts the record or fully replaces the row with the same id.
	Upsert(ctx context.Context, record *entity.FlightRecord) error
	// PurgeExpired deletes records whose service date is before today.
	PurgeExpired(ctx context.Context, today entity.Date) (int64, error)
}
