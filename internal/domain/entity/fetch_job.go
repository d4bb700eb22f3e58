package entity

import (
	"time"
)

// FetchJobStatus is the lifecycle state of a fetch attempt
type FetchJobStatus string

const (
	FetchJobPending FetchJobStatus = "pending"
	FetchJobSuccess FetchJobStatus = "success"
	FetchJobFailed  FetchJobStatus = "failed"
)

// FetchJob is the audit row written for one record-source fetch
type FetchJob struct {
	ID              string         `json:"id"`
	RouteWatchID    string         `json:"routeWatchId,omitempty"`
	CarrierCode     string         `json:"carrierCode"`
	OriginCode      string         `json:"originCode"`
	DestinationCode string         `json:"destinationCode"`
	CabinClass      CabinClass     `json:"cabinClass"`
	Status          FetchJobStatus `json:"status"`
	Window          DateWindow     `json:"window"`
	StartedAt       time.Time      `json:"startedAt"`
	CompletedAt     *time.Time     `json:"completedAt,omitempty"`
	Error           string         `json:"error,omitempty"`
	RecordsFound    int            `json:"recordsFound"`
}
