package repository

import (
	"context"
	"fmt"
	"time"

	"airmiles-service/internal/domain/entity"
	"airmiles-service/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRouteWatchRepository implements the RouteWatchRepository interface
type GormRouteWatchRepository struct {
	db *gorm.DB
}

// NewGormRouteWatchRepository creates a new GORM route watch repository
func NewGormRouteWatchRepository(db *gorm.DB) repository.RouteWatchRepository {
	return &GormRouteWatchRepository{
		db: db,
	}
}

// RouteWatches GORM model for database mapping
type RouteWatches struct {
	ID              string     `gorm:"column:id;primaryKey;size:36"`
	OriginCode      string     `gorm:"column:origin_code;size:8;not null;uniqueIndex:idx_route_watches_triple,priority:1"`
	DestinationCode string     `gorm:"column:destination_code;size:8;not null;uniqueIndex:idx_route_watches_triple,priority:2"`
	CarrierCode     string     `gorm:"column:carrier_code;size:8;not null;uniqueIndex:idx_route_watches_triple,priority:3"`
	IsActive        bool       `gorm:"column:is_active;not null;default:true"`
	LastFetchedAt   *time.Time `gorm:"column:last_fetched_at"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

// TableName overrides the default table name
func (RouteWatches) TableName() string {
	return "route_watches"
}

// Touch returns the watch for the triple, creating an active one on first sight
func (r *GormRouteWatchRepository) Touch(ctx context.Context, origin, destination, carrier string) (*entity.RouteWatch, error) {
	var model RouteWatches
	key := RouteWatches{OriginCode: origin, DestinationCode: destination, CarrierCode: carrier}

	err := r.db.WithContext(ctx).
		Where(key).
		Attrs(RouteWatches{ID: uuid.NewString(), IsActive: true}).
		FirstOrCreate(&model).Error
	if err != nil {
		// A concurrent Touch may have inserted the same triple first.
		if retryErr := r.db.WithContext(ctx).Where(key).First(&model).Error; retryErr != nil {
			return nil, fmt.Errorf("failed to touch route watch: %w", err)
		}
	}

	return model.toEntity(), nil
}

// MarkFetched records when the route was last fetched
func (r *GormRouteWatchRepository) MarkFetched(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&RouteWatches{}).
		Where("id = ?", id).
		Update("last_fetched_at", at.UTC())
	if result.Error != nil {
		return fmt.Errorf("failed to mark route watch fetched: %w", result.Error)
	}
	return nil
}

// ListStalest returns active watches, never-fetched first, then oldest fetch first
func (r *GormRouteWatchRepository) ListStalest(ctx context.Context, limit int) ([]*entity.RouteWatch, error) {
	var models []RouteWatches
	result := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("last_fetched_at IS NOT NULL, last_fetched_at ASC, created_at ASC").
		Limit(limit).
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list route watches: %w", result.Error)
	}

	watches := make([]*entity.RouteWatch, 0, len(models))
	for i := range models {
		watches = append(watches, models[i].toEntity())
	}
	return watches, nil
}

func (m RouteWatches) toEntity() *entity.RouteWatch {
	watch := &entity.RouteWatch{
		ID:              m.ID,
		OriginCode:      m.OriginCode,
		DestinationCode: m.DestinationCode,
		CarrierCode:     m.CarrierCode,
		IsActive:        m.IsActive,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.LastFetchedAt != nil {
		t := m.LastFetchedAt.UTC()
		watch.LastFetchedAt = &t
	}
	return watch
}
