package repository

import (
	"fmt"

	"gorm.io/gorm"
)

// AutoMigrate applies idempotent schema migrations for the SQL store:
// tables and columns from the GORM models, then the lookup indexes.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&FlightRecords{},
		&RouteWatches{},
		&FetchJobs{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_flight_records_route ON flight_records (origin_code, destination_code, service_date)`,
		`CREATE INDEX IF NOT EXISTS idx_flight_records_carrier ON flight_records (carrier_code, service_date)`,
		`CREATE INDEX IF NOT EXISTS idx_flight_records_fetched_at ON flight_records (fetched_at)`,
		`CREATE INDEX IF NOT EXISTS idx_route_watches_active ON route_watches (is_active, last_fetched_at)`,
		`CREATE INDEX IF NOT EXISTS idx_fetch_jobs_route ON fetch_jobs (origin_code, destination_code, carrier_code, status)`,
	}
	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
		}
	}

	return nil
}
