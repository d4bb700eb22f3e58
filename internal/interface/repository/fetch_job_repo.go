package repository

import (
	"context"
	"fmt"
	"time"

	"airmiles-service/internal/domain/entity"
	"airmiles-service/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GormFetchJobRepository implements the FetchJobRepository interface
type GormFetchJobRepository struct {
	db *gorm.DB
}

// NewGormFetchJobRepository creates a new GORM fetch job repository
func NewGormFetchJobRepository(db *gorm.DB) repository.FetchJobRepository {
	return &GormFetchJobRepository{
		db: db,
	}
}

// FetchJobs GORM model for database mapping
type FetchJobs struct {
	ID              string         `gorm:"column:id;primaryKey;size:36"`
	RouteWatchID    string         `gorm:"column:route_watch_id;size:36"`
	CarrierCode     string         `gorm:"column:carrier_code;size:8;not null"`
	OriginCode      string         `gorm:"column:origin_code;size:8;not null"`
	DestinationCode string         `gorm:"column:destination_code;size:8;not null"`
	CabinClass      string         `gorm:"column:cabin_class;size:24;not null"`
	Status          string         `gorm:"column:status;size:16;not null"`
	StartDate       datatypes.Date `gorm:"column:start_date;not null"`
	EndDate         datatypes.Date `gorm:"column:end_date;not null"`
	StartedAt       time.Time      `gorm:"column:started_at;not null"`
	CompletedAt     *time.Time     `gorm:"column:completed_at"`
	ErrorMessage    string         `gorm:"column:error_message;type:text"`
	RecordsFound    int            `gorm:"column:records_found"`
	CreatedAt       time.Time      `gorm:"column:created_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at"`
}

// TableName overrides the default table name
func (FetchJobs) TableName() string {
	return "fetch_jobs"
}

// Create inserts a new fetch job, assigning an id when the caller left it empty
func (r *GormFetchJobRepository) Create(ctx context.Context, job *entity.FetchJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = entity.FetchJobPending
	}

	model := FetchJobs{
		ID:              job.ID,
		RouteWatchID:    job.RouteWatchID,
		CarrierCode:     job.CarrierCode,
		OriginCode:      job.OriginCode,
		DestinationCode: job.DestinationCode,
		CabinClass:      string(job.CabinClass),
		Status:          string(job.Status),
		StartDate:       toSQLDate(job.Window.Start),
		EndDate:         toSQLDate(job.Window.End),
		StartedAt:       job.StartedAt.UTC(),
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to create fetch job: %w", err)
	}
	return nil
}

// Complete stores the terminal status, error text and record count of a job
func (r *GormFetchJobRepository) Complete(ctx context.Context, job *entity.FetchJob) error {
	updates := map[string]interface{}{
		"status":        string(job.Status),
		"error_message": job.Error,
		"records_found": job.RecordsFound,
	}
	if job.CompletedAt != nil {
		updates["completed_at"] = job.CompletedAt.UTC()
	}

	result := r.db.WithContext(ctx).
		Model(&FetchJobs{}).
		Where("id = ?", job.ID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to complete fetch job %s: %w", job.ID, result.Error)
	}
	return nil
}

// LatestSuccessfulCovering finds the newest successful job whose window covers window
func (r *GormFetchJobRepository) LatestSuccessfulCovering(ctx context.Context, origin, destination, carrier string, cabin entity.CabinClass, window entity.DateWindow) (*entity.FetchJob, error) {
	var models []FetchJobs
	result := r.db.WithContext(ctx).
		Where("origin_code = ? AND destination_code = ? AND carrier_code = ? AND cabin_class = ?",
			origin, destination, carrier, string(cabin)).
		Where("status = ?", string(entity.FetchJobSuccess)).
		Where("start_date <= ? AND end_date >= ?", toSQLDate(window.Start), toSQLDate(window.End)).
		Where("completed_at IS NOT NULL").
		Order("completed_at DESC").
		Limit(1).
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find covering fetch job: %w", result.Error)
	}
	if len(models) == 0 {
		return nil, nil
	}
	return models[0].toEntity(), nil
}

func (m FetchJobs) toEntity() *entity.FetchJob {
	job := &entity.FetchJob{
		ID:              m.ID,
		RouteWatchID:    m.RouteWatchID,
		CarrierCode:     m.CarrierCode,
		OriginCode:      m.OriginCode,
		DestinationCode: m.DestinationCode,
		CabinClass:      entity.CabinClass(m.CabinClass),
		Status:          entity.FetchJobStatus(m.Status),
		Window: entity.DateWindow{
			Start: fromSQLDate(m.StartDate),
			End:   fromSQLDate(m.EndDate),
		},
		StartedAt:    m.StartedAt.UTC(),
		Error:        m.ErrorMessage,
		RecordsFound: m.RecordsFound,
	}
	if m.CompletedAt != nil {
		t := m.CompletedAt.UTC()
		job.CompletedAt = &t
	}
	return job
}
