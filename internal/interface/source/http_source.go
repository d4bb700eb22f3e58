package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"airmiles-service/internal/domain/entity"
	"airmiles-service/internal/domain/repository"
	"airmiles-service/pkg/logger"
)

// HTTPSource fetches award offers from a remote availability service
type HTTPSource struct {
	logger      logger.Logger
	client      *http.Client
	baseURL     string
	bearerToken string
	carrier     string
	now         func() time.Time
}

// NewHTTPSource creates a record source backed by a remote search endpoint
func NewHTTPSource(baseURL, bearerToken, carrier string, log logger.Logger) *HTTPSource {
	return &HTTPSource{
		logger:      log.With("source", "http", "carrier", strings.ToUpper(carrier)),
		client:      &http.Client{Timeout: 30 * time.Second},
		baseURL:     strings.TrimRight(baseURL, "/"),
		bearerToken: bearerToken,
		carrier:     strings.ToUpper(carrier),
		now:         time.Now,
	}
}

var _ repository.RecordSource = (*HTTPSource)(nil)

type remoteSearchRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	CabinClass  string `json:"cabinClass"`
	CarrierCode string `json:"carrierCode"`
}

// remoteFlight is the upstream wire shape of one offer
type remoteFlight struct {
	ID            string `json:"id"`
	Airline       string `json:"airline"`
	FlightNumber  string `json:"flightNumber"`
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	Date          string `json:"date"`
	DepartureTime string `json:"departureTime"`
	ArrivalTime   string `json:"arrivalTime"`
	Duration      int    `json:"duration"`
	Stops         int    `json:"stops"`
	CabinClass    string `json:"cabinClass"`
	MilesRequired int    `json:"milesRequired"`
	Availability  int    `json:"availability"`
}

type remoteSearchResponse struct {
	Flights []remoteFlight `json:"flights"`
	Error   string         `json:"error,omitempty"`
}

// Fetch posts the query to the remote service and maps its offers
func (s *HTTPSource) Fetch(ctx context.Context, query entity.FetchQuery) ([]*entity.FlightRecord, error) {
	body, err := json.Marshal(remoteSearchRequest{
		Origin:      query.Origin,
		Destination: query.Destination,
		StartDate:   query.Window.Start.String(),
		EndDate:     query.Window.End.String(),
		CabinClass:  string(query.CabinClass),
		CarrierCode: s.carrier,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	url := fmt.Sprintf("%s/search", s.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if s.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.bearerToken)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("remote source returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var payload remoteSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if payload.Error != "" {
		return nil, fmt.Errorf("remote source error: %s", payload.Error)
	}

	fetchedAt := s.now().UTC()
	records := make([]*entity.FlightRecord, 0, len(payload.Flights))
	for i, remote := range payload.Flights {
		record, err := mapRemoteFlight(remote, query, s.carrier, fetchedAt)
		if err != nil {
			return nil, fmt.Errorf("flight %d: %w", i, err)
		}
		records = append(records, record)
	}

	s.logger.Info("Remote fetch complete",
		"origin", query.Origin,
		"destination", query.Destination,
		"found", len(records))

	return records, nil
}

// mapRemoteFlight converts one upstream offer into a FlightRecord. Missing
// route, carrier and cabin fields fall back to the query; a missing id is
// derived from the natural key. FetchedAt is always the local completion
// time, whatever scrape time the upstream reports.
func mapRemoteFlight(remote remoteFlight, query entity.FetchQuery, carrier string, fetchedAt time.Time) (*entity.FlightRecord, error) {
	date, err := entity.ParseDate(remote.Date)
	if err != nil {
		return nil, err
	}

	cabin := query.CabinClass
	if remote.CabinClass != "" {
		if cabin, err = entity.ParseCabinClass(remote.CabinClass); err != nil {
			return nil, err
		}
	}

	record := &entity.FlightRecord{
		ID:              remote.ID,
		CarrierCode:     firstNonEmpty(strings.ToUpper(remote.Airline), carrier),
		FlightNumber:    remote.FlightNumber,
		OriginCode:      firstNonEmpty(strings.ToUpper(remote.Origin), query.Origin),
		DestinationCode: firstNonEmpty(strings.ToUpper(remote.Destination), query.Destination),
		ServiceDate:     date,
		DepartureTime:   remote.DepartureTime,
		ArrivalTime:     remote.ArrivalTime,
		DurationMinutes: remote.Duration,
		StopCount:       remote.Stops,
		CabinClass:      cabin,
		PointsRequired:  remote.MilesRequired,
		SeatsAvailable:  remote.Availability,
		FetchedAt:       fetchedAt,
	}
	if record.ID == "" {
		record.ID = entity.NaturalKeyID(record.OriginCode, record.DestinationCode, record.ServiceDate,
			record.CarrierCode, record.FlightNumber, record.DepartureTime, record.CabinClass)
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}
	return record, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
