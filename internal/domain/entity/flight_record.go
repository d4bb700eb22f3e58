// internal/domain/entity/flight_record.go
package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CabinClass is the fare cabin an award offer is priced in
type CabinClass string

const (
	CabinEconomy        CabinClass = "economy"
	CabinPremiumEconomy CabinClass = "premium_economy"
	CabinBusiness       CabinClass = "business"
	CabinFirst          CabinClass = "first"
)

// Valid reports whether c is one of the known cabins
func (c CabinClass) Valid() bool {
	switch c {
	case CabinEconomy, CabinPremiumEconomy, CabinBusiness, CabinFirst:
		return true
	}
	return false
}

// ParseCabinClass parses a cabin name, defaulting to economy when empty
func ParseCabinClass(s string) (CabinClass, error) {
	if s == "" {
		return CabinEconomy, nil
	}
	c := CabinClass(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", &ValidationError{Field: "cabinClass", Reason: fmt.Sprintf("unknown cabin %q", s)}
	}
	return c, nil
}

// FlightRecord is a single priced award itinerary offer
type FlightRecord struct {
	ID              string     `json:"id"`
	CarrierCode     string     `json:"carrierCode"`
	FlightNumber    string     `json:"flightNumber"`
	OriginCode      string     `json:"originCode"`
	DestinationCode string     `json:"destinationCode"`
	ServiceDate     Date       `json:"serviceDate"`
	DepartureTime   string     `json:"departureTime"` // local HH:MM
	ArrivalTime     string     `json:"arrivalTime"`   // local HH:MM
	DurationMinutes int        `json:"durationMinutes"`
	StopCount       int        `json:"stopCount"`
	CabinClass      CabinClass `json:"cabinClass"`
	PointsRequired  int        `json:"pointsRequired"`
	SeatsAvailable  int        `json:"seatsAvailable"`
	FetchedAt       time.Time  `json:"fetchedAt"`
}

// flightKeySpace namespaces the name-based ids derived from natural keys
var flightKeySpace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("airmiles.flight-record"))

// NaturalKeyID derives a stable record id from the offer's natural key, so a
// re-fetch of the same logical offer replaces the earlier row.
func NaturalKeyID(origin, destination string, date Date, carrier, flightNumber, departure string, cabin CabinClass) string {
	key := strings.Join([]string{
		strings.ToUpper(origin),
		strings.ToUpper(destination),
		date.String(),
		strings.ToUpper(carrier),
		strings.ToUpper(flightNumber),
		departure,
		string(cabin),
	}, "|")
	return uuid.NewSHA1(flightKeySpace, []byte(key)).String()
}

// IsFresh reports whether the record was fetched less than window before now
func (f *FlightRecord) IsFresh(now time.Time, window time.Duration) bool {
	return now.Sub(f.FetchedAt) < window
}

// Validate checks the non-negative and required-field invariants
func (f *FlightRecord) Validate() error {
	switch {
	case f.ID == "":
		return &ValidationError{Field: "id", Reason: "required"}
	case f.OriginCode == "" || f.DestinationCode == "":
		return &ValidationError{Field: "route", Reason: "origin and destination are required"}
	case f.ServiceDate.IsZero():
		return &ValidationError{Field: "serviceDate", Reason: "required"}
	case !f.CabinClass.Valid():
		return &ValidationError{Field: "cabinClass", Reason: fmt.Sprintf("unknown cabin %q", f.CabinClass)}
	case f.DurationMinutes < 0, f.StopCount < 0, f.PointsRequired < 0, f.SeatsAvailable < 0:
		return &ValidationError{Field: "record", Reason: "numeric fields must be non-negative"}
	}
	return nil
}
