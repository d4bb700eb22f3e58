package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"airmiles-service/internal/domain/entity"
	"airmiles-service/internal/domain/repository"
	"airmiles-service/internal/usecase"
	"airmiles-service/pkg/logger"

	"github.com/go-playground/validator/v10"
)

const (
	defaultSearchDays  = 7
	defaultListingDays = 180
	maxBodyBytes       = 1 << 20
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json/query names instead of Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// Handler contains HTTP handlers for the API
type Handler struct {
	searcher usecase.Searcher
	flights  repository.FlightRecordRepository
	logger   logger.Logger
	version  string
	now      func() time.Time
}

// NewHandler creates a new Handler instance
func NewHandler(searcher usecase.Searcher, flights repository.FlightRecordRepository, version string, logger logger.Logger) *Handler {
	return &Handler{
		searcher: searcher,
		flights:  flights,
		logger:   logger,
		version:  version,
		now:      time.Now,
	}
}

// SearchRequest is the body of POST /search
type SearchRequest struct {
	Origin      string `json:"origin" validate:"required,alpha,len=3"`
	Destination string `json:"destination" validate:"required,alpha,len=3"`
	StartDate   string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	CabinClass  string `json:"cabinClass"`
	CarrierCode string `json:"carrierCode" validate:"omitempty,alphanum,max=3"`
	Airline     string `json:"airline" validate:"omitempty,alphanum,max=3"`
}

// SearchResponse is the body returned by POST /search
type SearchResponse struct {
	Flights []*entity.FlightRecord `json:"flights"`
	Cached  bool                   `json:"cached"`
	AsOf    time.Time              `json:"asOf"`
}

// ListFlightsQuery holds the query parameters of GET /flights
type ListFlightsQuery struct {
	Origin      string `query:"origin" validate:"required,alpha,len=3"`
	Destination string `query:"destination" validate:"required,alpha,len=3"`
	StartDate   string `query:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string `query:"endDate" validate:"omitempty,datetime=2006-01-02"`
}

// ListFlightsResponse is the body returned by GET /flights
type ListFlightsResponse struct {
	Flights []*entity.FlightRecord `json:"flights"`
	Count   int                    `json:"count"`
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondFailure maps the error taxonomy onto HTTP statuses
func (h *Handler) respondFailure(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *entity.ValidationError
	if errors.As(err, &validationErr) {
		respondError(w, http.StatusBadRequest, validationErr.Error())
		return
	}

	var fetchErr *entity.FetchFailedError
	var storeErr *entity.StoreUnavailableError
	switch {
	case errors.As(err, &fetchErr):
		h.logger.Error("Search fetch failed", "path", r.URL.Path, "carrier", fetchErr.Carrier, "error", err)
	case errors.As(err, &storeErr):
		h.logger.Error("Store unavailable", "path", r.URL.Path, "op", storeErr.Op, "error", err)
	default:
		h.logger.Error("Unexpected error", "path", r.URL.Path, "error", err)
	}
	respondError(w, http.StatusInternalServerError, err.Error())
}

// Search handles POST /search
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req, err := h.toSearchRequest(body)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}

	result, err := h.searcher.Search(r.Context(), req)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, SearchResponse{
		Flights: nonNil(result.Records),
		Cached:  result.ServedFromCache,
		AsOf:    result.AsOf.UTC(),
	})
}

func (h *Handler) toSearchRequest(body SearchRequest) (entity.SearchRequest, error) {
	body.Origin = strings.ToUpper(strings.TrimSpace(body.Origin))
	body.Destination = strings.ToUpper(strings.TrimSpace(body.Destination))
	if err := validate.Struct(body); err != nil {
		return entity.SearchRequest{}, toValidationError(err)
	}

	window, err := h.window(body.StartDate, body.EndDate, defaultSearchDays)
	if err != nil {
		return entity.SearchRequest{}, err
	}

	cabin, err := entity.ParseCabinClass(body.CabinClass)
	if err != nil {
		return entity.SearchRequest{}, err
	}

	carrier := body.CarrierCode
	if carrier == "" {
		carrier = body.Airline
	}

	return entity.SearchRequest{
		Origin:      body.Origin,
		Destination: body.Destination,
		Window:      window,
		CabinClass:  cabin,
		CarrierCode: carrier,
	}, nil
}

// GetFlights handles GET /flights, reading the store without fetching
func (h *Handler) GetFlights(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	query := ListFlightsQuery{
		Origin:      strings.ToUpper(strings.TrimSpace(values.Get("origin"))),
		Destination: strings.ToUpper(strings.TrimSpace(values.Get("destination"))),
		StartDate:   values.Get("startDate"),
		EndDate:     values.Get("endDate"),
	}
	if err := validate.Struct(query); err != nil {
		h.respondFailure(w, r, toValidationError(err))
		return
	}

	window, err := h.window(query.StartDate, query.EndDate, defaultListingDays)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}

	records, err := h.flights.QueryByRouteAndWindow(r.Context(), query.Origin, query.Destination, window)
	if err != nil {
		h.respondFailure(w, r, &entity.StoreUnavailableError{Op: "query", Err: err})
		return
	}

	respondJSON(w, http.StatusOK, ListFlightsResponse{
		Flights: nonNil(records),
		Count:   len(records),
	})
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": h.now().UTC(),
	})
}

// Index handles GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "airmiles-service",
		"version": h.version,
		"endpoints": map[string]string{
			"search":  "POST /search",
			"flights": "GET /flights",
			"health":  "GET /health",
			"metrics": "GET /metrics",
		},
	})
}

// window resolves optional start/end dates. A missing start is today (UTC),
// a missing end is start plus defaultDays.
func (h *Handler) window(start, end string, defaultDays int) (entity.DateWindow, error) {
	var w entity.DateWindow
	var err error

	if start == "" {
		w.Start = entity.Today(h.now())
	} else if w.Start, err = entity.ParseDate(start); err != nil {
		return entity.DateWindow{}, &entity.ValidationError{Field: "startDate", Reason: err.Error()}
	}

	if end == "" {
		w.End = w.Start.AddDays(defaultDays)
	} else if w.End, err = entity.ParseDate(end); err != nil {
		return entity.DateWindow{}, &entity.ValidationError{Field: "endDate", Reason: err.Error()}
	}

	if err := w.Validate(); err != nil {
		return entity.DateWindow{}, err
	}
	return w, nil
}

// toValidationError reduces validator output to the first failing field
func toValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &entity.ValidationError{Field: "request", Reason: err.Error()}
	}

	fe := fieldErrs[0]
	reason := fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	switch fe.Tag() {
	case "required":
		reason = fmt.Sprintf("%s is required", fe.Field())
	case "datetime":
		reason = fmt.Sprintf("%s must be a YYYY-MM-DD date", fe.Field())
	case "len", "alpha":
		reason = fmt.Sprintf("%s must be a 3-letter airport code", fe.Field())
	}
	return &entity.ValidationError{Field: fe.Field(), Reason: reason}
}

func nonNil(records []*entity.FlightRecord) []*entity.FlightRecord {
	if records == nil {
		return []*entity.FlightRecord{}
	}
	return records
}
