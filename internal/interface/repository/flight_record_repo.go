package repository

import (
	"context"
	"fmt"
	"time"

	"airmiles-service/internal/domain/entity"
	"airmiles-service/internal/domain/repository"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormFlightRecordRepository implements FlightRecordRepository on a SQL store
type GormFlightRecordRepository struct {
	db *gorm.DB
}

// NewGormFlightRecordRepository creates a new GORM flight record repository
func NewGormFlightRecordRepository(db *gorm.DB) repository.FlightRecordRepository {
	return &GormFlightRecordRepository{
		db: db,
	}
}

// FlightRecords GORM model for database mapping
type FlightRecords struct {
	ID              string         `gorm:"column:id;primaryKey;size:64"`
	CarrierCode     string         `gorm:"column:carrier_code;size:8;not null"`
	FlightNumber    string         `gorm:"column:flight_number;size:16;not null"`
	OriginCode      string         `gorm:"column:origin_code;size:8;not null"`
	DestinationCode string         `gorm:"column:destination_code;size:8;not null"`
	ServiceDate     datatypes.Date `gorm:"column:service_date;not null"`
	DepartureTime   string         `gorm:"column:departure_time;size:5"`
	ArrivalTime     string         `gorm:"column:arrival_time;size:5"`
	DurationMinutes int            `gorm:"column:duration_minutes"`
	StopCount       int            `gorm:"column:stop_count"`
	CabinClass      string         `gorm:"column:cabin_class;size:24;not null"`
	PointsRequired  int            `gorm:"column:points_required"`
	SeatsAvailable  int            `gorm:"column:seats_available"`
	FetchedAt       time.Time      `gorm:"column:fetched_at;not null"`
	CreatedAt       time.Time      `gorm:"column:created_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at"`
}

// TableName overrides the default table name
func (FlightRecords) TableName() string {
	return "flight_records"
}

// upsertColumns are replaced wholesale when a record with the same id arrives
var upsertColumns = []string{
	"carrier_code", "flight_number", "origin_code", "destination_code",
	"service_date", "departure_time", "arrival_time", "duration_minutes",
	"stop_count", "cabin_class", "points_required", "seats_available",
	"fetched_at", "updated_at",
}

// QueryByRouteAndWindow returns records on the route with service dates inside window
func (r *GormFlightRecordRepository) QueryByRouteAndWindow(ctx context.Context, origin, destination string, window entity.DateWindow) ([]*entity.FlightRecord, error) {
	var rows []FlightRecords
	result := r.db.WithContext(ctx).
		Where("origin_code = ? AND destination_code = ?", origin, destination).
		Where("service_date >= ? AND service_date <= ?", toSQLDate(window.Start), toSQLDate(window.End)).
		Order("service_date ASC, points_required ASC, id ASC").
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to query flight records: %w", result.Error)
	}

	records := make([]*entity.FlightRecord, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].toEntity())
	}
	return records, nil
}

// Upsert inserts a record or replaces every column of the row sharing its id
func (r *GormFlightRecordRepository) Upsert(ctx context.Context, record *entity.FlightRecord) error {
	model := flightRecordModel(record)

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}).Create(&model)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert flight record %s: %w", record.ID, result.Error)
	}
	return nil
}

// PurgeExpired deletes records whose service date is before today
func (r *GormFlightRecordRepository) PurgeExpired(ctx context.Context, today entity.Date) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("service_date < ?", toSQLDate(today)).
		Delete(&FlightRecords{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge expired flight records: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func flightRecordModel(record *entity.FlightRecord) FlightRecords {
	return FlightRecords{
		ID:              record.ID,
		CarrierCode:     record.CarrierCode,
		FlightNumber:    record.FlightNumber,
		OriginCode:      record.OriginCode,
		DestinationCode: record.DestinationCode,
		ServiceDate:     toSQLDate(record.ServiceDate),
		DepartureTime:   record.DepartureTime,
		ArrivalTime:     record.ArrivalTime,
		DurationMinutes: record.DurationMinutes,
		StopCount:       record.StopCount,
		CabinClass:      string(record.CabinClass),
		PointsRequired:  record.PointsRequired,
		SeatsAvailable:  record.SeatsAvailable,
		FetchedAt:       record.FetchedAt.UTC(),
	}
}

func (m FlightRecords) toEntity() *entity.FlightRecord {
	return &entity.FlightRecord{
		ID:              m.ID,
		CarrierCode:     m.CarrierCode,
		FlightNumber:    m.FlightNumber,
		OriginCode:      m.OriginCode,
		DestinationCode: m.DestinationCode,
		ServiceDate:     fromSQLDate(m.ServiceDate),
		DepartureTime:   m.DepartureTime,
		ArrivalTime:     m.ArrivalTime,
		DurationMinutes: m.DurationMinutes,
		StopCount:       m.StopCount,
		CabinClass:      entity.CabinClass(m.CabinClass),
		PointsRequired:  m.PointsRequired,
		SeatsAvailable:  m.SeatsAvailable,
		FetchedAt:       m.FetchedAt.UTC(),
	}
}

func toSQLDate(d entity.Date) datatypes.Date {
	return datatypes.Date(d.Time)
}

func fromSQLDate(d datatypes.Date) entity.Date {
	return entity.NewDate(time.Time(d))
}
