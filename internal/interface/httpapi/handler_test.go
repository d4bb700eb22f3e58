package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"airmiles-service/internal/domain/entity"
	repomocks "airmiles-service/internal/domain/repository/mocks"
	"airmiles-service/internal/usecase/mocks"
	"airmiles-service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 5, 30, 12, 0, 0, 0, time.UTC)

func newTestHandler() (*Handler, *mocks.MockSearcher, *repomocks.MockFlightRecordRepository) {
	searcher := new(mocks.MockSearcher)
	flights := new(repomocks.MockFlightRecordRepository)
	h := NewHandler(searcher, flights, "test", logger.NewNop())
	h.now = func() time.Time { return fixedNow }
	return h, searcher, flights
}

func sampleRecord() *entity.FlightRecord {
	return &entity.FlightRecord{
		ID:              "rec-1",
		CarrierCode:     "UA",
		FlightNumber:    "UA901",
		OriginCode:      "LHR",
		DestinationCode: "JFK",
		ServiceDate:     entity.MustParseDate("2025-06-02"),
		DepartureTime:   "10:15",
		ArrivalTime:     "13:20",
		DurationMinutes: 485,
		CabinClass:      entity.CabinEconomy,
		PointsRequired:  45000,
		SeatsAvailable:  4,
		FetchedAt:       fixedNow,
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandler_Search(t *testing.T) {
	h, searcher, _ := newTestHandler()

	searcher.On("Search", mock.Anything, entity.SearchRequest{
		Origin:      "LHR",
		Destination: "JFK",
		Window:      entity.DateWindow{Start: entity.MustParseDate("2025-06-01"), End: entity.MustParseDate("2025-06-07")},
		CabinClass:  entity.CabinBusiness,
		CarrierCode: "BA",
	}).Return(&entity.SearchResult{
		Records:         []*entity.FlightRecord{sampleRecord()},
		ServedFromCache: true,
		AsOf:            fixedNow,
	}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(
		`{"origin":"lhr","destination":"JFK","startDate":"2025-06-01","endDate":"2025-06-07","cabinClass":"Business","airline":"BA"}`))
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Cached)
	assert.True(t, fixedNow.Equal(resp.AsOf))
	require.Len(t, resp.Flights, 1)
	assert.Equal(t, "rec-1", resp.Flights[0].ID)
	assert.Equal(t, "2025-06-02", resp.Flights[0].ServiceDate.String())
	searcher.AssertExpectations(t)
}

func TestHandler_SearchDefaults(t *testing.T) {
	h, searcher, _ := newTestHandler()

	searcher.On("Search", mock.Anything, entity.SearchRequest{
		Origin:      "LHR",
		Destination: "JFK",
		Window:      entity.DateWindow{Start: entity.MustParseDate("2025-05-30"), End: entity.MustParseDate("2025-06-06")},
		CabinClass:  entity.CabinEconomy,
	}).Return(&entity.SearchResult{AsOf: fixedNow}, nil).Once()

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"origin":"LHR","destination":"JFK"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, []interface{}{}, body["flights"], "empty result encodes as an array")
	assert.Equal(t, false, body["cached"])
	searcher.AssertExpectations(t)
}

func TestHandler_SearchBadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "malformed json", body: `{"origin":`, wantMsg: "Invalid request body"},
		{name: "missing origin", body: `{"destination":"JFK"}`, wantMsg: "origin is required"},
		{name: "missing destination", body: `{"origin":"LHR"}`, wantMsg: "destination is required"},
		{name: "bad date", body: `{"origin":"LHR","destination":"JFK","startDate":"06/01/2025"}`, wantMsg: "startDate"},
		{name: "end before start", body: `{"origin":"LHR","destination":"JFK","startDate":"2025-06-07","endDate":"2025-06-01"}`, wantMsg: "endDate"},
		{name: "unknown cabin", body: `{"origin":"LHR","destination":"JFK","cabinClass":"steerage"}`, wantMsg: "cabinClass"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, searcher, _ := newTestHandler()

			rec := httptest.NewRecorder()
			h.Search(rec, httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(tt.body)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeBody(t, rec)
			assert.Contains(t, body["error"], tt.wantMsg)
			searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_SearchPipelineErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "validation", err: &entity.ValidationError{Field: "route", Reason: "origin and destination are required"}, wantStatus: http.StatusBadRequest},
		{name: "fetch failed", err: &entity.FetchFailedError{Carrier: "UA", Err: errors.New("upstream timeout")}, wantStatus: http.StatusInternalServerError},
		{name: "store unavailable", err: &entity.StoreUnavailableError{Op: "upsert", Err: errors.New("disk full")}, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, searcher, _ := newTestHandler()
			searcher.On("Search", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			rec := httptest.NewRecorder()
			h.Search(rec, httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"origin":"LHR","destination":"JFK"}`)))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.err.Error(), decodeBody(t, rec)["error"])
		})
	}
}

func TestHandler_GetFlights(t *testing.T) {
	h, searcher, flights := newTestHandler()

	flights.On("QueryByRouteAndWindow", mock.Anything, "LHR", "JFK", entity.DateWindow{
		Start: entity.MustParseDate("2025-05-30"),
		End:   entity.MustParseDate("2025-11-26"),
	}).Return([]*entity.FlightRecord{sampleRecord()}, nil).Once()

	rec := httptest.NewRecorder()
	h.GetFlights(rec, httptest.NewRequest(http.MethodGet, "/flights?origin=lhr&destination=jfk", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ListFlightsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Flights, 1)
	assert.Equal(t, "rec-1", resp.Flights[0].ID)

	flights.AssertExpectations(t)
	searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestHandler_GetFlightsExplicitWindow(t *testing.T) {
	h, _, flights := newTestHandler()

	flights.On("QueryByRouteAndWindow", mock.Anything, "LHR", "JFK", entity.DateWindow{
		Start: entity.MustParseDate("2025-06-01"),
		End:   entity.MustParseDate("2025-06-07"),
	}).Return(nil, nil).Once()

	rec := httptest.NewRecorder()
	h.GetFlights(rec, httptest.NewRequest(http.MethodGet,
		"/flights?origin=LHR&destination=JFK&startDate=2025-06-01&endDate=2025-06-07", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, []interface{}{}, body["flights"])
	assert.Equal(t, float64(0), body["count"])
	flights.AssertExpectations(t)
}

func TestHandler_GetFlightsErrors(t *testing.T) {
	t.Run("missing destination", func(t *testing.T) {
		h, _, flights := newTestHandler()

		rec := httptest.NewRecorder()
		h.GetFlights(rec, httptest.NewRequest(http.MethodGet, "/flights?origin=LHR", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeBody(t, rec)["error"], "destination is required")
		flights.AssertNotCalled(t, "QueryByRouteAndWindow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store failure", func(t *testing.T) {
		h, _, flights := newTestHandler()
		flights.On("QueryByRouteAndWindow", mock.Anything, "LHR", "JFK", mock.Anything).
			Return(nil, errors.New("connection refused")).Once()

		rec := httptest.NewRecorder()
		h.GetFlights(rec, httptest.NewRequest(http.MethodGet, "/flights?origin=LHR&destination=JFK", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, decodeBody(t, rec)["error"], "connection refused")
	})
}

func TestHandler_HealthAndIndex(t *testing.T) {
	h, _, _ := newTestHandler()

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "2025-05-30T12:00:00Z", body["timestamp"])

	rec = httptest.NewRecorder()
	h.Index(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, "airmiles-service", body["name"])
	assert.Equal(t, "test", body["version"])
	assert.Contains(t, body["endpoints"], "search")
}
