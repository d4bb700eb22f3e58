package entity

import (
	"strings"
	"time"
)

// SearchRequest is the input to the freshness-gated fetch pipeline
type SearchRequest struct {
	Origin      string
	Destination string
	Window      DateWindow
	CabinClass  CabinClass
	CarrierCode string
}

// Normalize upper-cases airport and carrier codes
func (r SearchRequest) Normalize() SearchRequest {
	r.Origin = strings.ToUpper(strings.TrimSpace(r.Origin))
	r.Destination = strings.ToUpper(strings.TrimSpace(r.Destination))
	r.CarrierCode = strings.ToUpper(strings.TrimSpace(r.CarrierCode))
	return r
}

// Validate checks the request before it reaches the store
func (r SearchRequest) Validate() error {
	if r.Origin == "" || r.Destination == "" {
		return &ValidationError{Field: "route", Reason: "origin and destination are required"}
	}
	if err := r.Window.Validate(); err != nil {
		return err
	}
	if !r.CabinClass.Valid() {
		return &ValidationError{Field: "cabinClass", Reason: "unknown cabin " + string(r.CabinClass)}
	}
	return nil
}

// SearchResult is what a search hands back to its caller
type SearchResult struct {
	Records         []*FlightRecord
	ServedFromCache bool
	AsOf            time.Time
}

// FetchQuery is the parameter set handed to a record source
type FetchQuery struct {
	Origin      string
	Destination string
	Window      DateWindow
	CabinClass  CabinClass
}
