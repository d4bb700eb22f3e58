package entity

import (
	"time"
)

// RouteWatch tracks an origin/destination/carrier triple that has been searched
type RouteWatch struct {
	ID              string     `json:"id" bson:"_id"`
	OriginCode      string     `json:"originCode" bson:"originCode"`
	DestinationCode string     `json:"destinationCode" bson:"destinationCode"`
	CarrierCode     string     `json:"carrierCode" bson:"carrierCode"`
	IsActive        bool       `json:"isActive" bson:"isActive"`
	LastFetchedAt   *time.Time `json:"lastFetchedAt,omitempty" bson:"lastFetchedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt" bson:"updatedAt"`
}
