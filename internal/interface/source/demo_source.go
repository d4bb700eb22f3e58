package source

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"airmiles-service/internal/domain/entity"
	"airmiles-service/internal/domain/repository"
	"airmiles-service/pkg/logger"
)

// DemoSource generates plausible award offers for a carrier. The daily
// schedule is a pure function of carrier, route and date so record ids stay
// stable across fetches; seats and prices move a little on every fetch.
type DemoSource struct {
	carrier  string
	minDelay time.Duration
	maxDelay time.Duration
	now      func() time.Time
	logger   logger.Logger
}

// NewDemoSource creates a demo record source for carrier
func NewDemoSource(carrier string, minDelay, maxDelay time.Duration, log logger.Logger) *DemoSource {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &DemoSource{
		carrier:  strings.ToUpper(carrier),
		minDelay: minDelay,
		maxDelay: maxDelay,
		now:      time.Now,
		logger:   log.With("source", "demo", "carrier", strings.ToUpper(carrier)),
	}
}

var _ repository.RecordSource = (*DemoSource)(nil)

var cabinMultipliers = map[entity.CabinClass]float64{
	entity.CabinEconomy:        1,
	entity.CabinPremiumEconomy: 1.5,
	entity.CabinBusiness:       2.5,
	entity.CabinFirst:          4,
}

// Fetch simulates a slow upstream search and returns the offers for every day in the window
func (s *DemoSource) Fetch(ctx context.Context, query entity.FetchQuery) ([]*entity.FlightRecord, error) {
	if err := query.Window.Validate(); err != nil {
		return nil, err
	}
	cabin := query.CabinClass
	if cabin == "" {
		cabin = entity.CabinEconomy
	}
	if !cabin.Valid() {
		return nil, fmt.Errorf("demo source: unsupported cabin %q", cabin)
	}

	s.logger.Info("Fetching demo offers",
		"origin", query.Origin,
		"destination", query.Destination,
		"window", query.Window.String(),
		"cabinClass", cabin)

	if err := s.sleep(ctx); err != nil {
		return nil, err
	}

	fetchedAt := s.now().UTC()
	distance := estimateDistance(query.Destination)

	var records []*entity.FlightRecord
	for _, day := range query.Window.Days() {
		for _, slot := range s.schedule(query.Origin, query.Destination, day, distance) {
			records = append(records, s.price(query, day, cabin, slot, distance, fetchedAt))
		}
	}

	s.logger.Info("Demo fetch complete", "found", len(records))
	return records, nil
}

// sleep waits a random duration between minDelay and maxDelay, or until ctx ends
func (s *DemoSource) sleep(ctx context.Context) error {
	delay := s.minDelay
	if spread := s.maxDelay - s.minDelay; spread > 0 {
		delay += time.Duration(rand.Int64N(int64(spread) + 1))
	}
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// slot is one scheduled departure on a given day
type slot struct {
	flightNumber    string
	departureMinute int
	durationMinutes int
	stops           int
}

// schedule returns the 0-4 departures the carrier operates on the route that day
func (s *DemoSource) schedule(origin, destination string, day entity.Date, distance int) []slot {
	rng := rand.New(rand.NewPCG(seed(s.carrier, origin, destination, day.String()), 0x5eed))

	count := rng.IntN(5)
	slots := make([]slot, 0, count)
	used := make(map[string]bool, count)

	stopChoices := []int{0, 0, 0, 1, 1, 2}
	minuteChoices := []int{0, 15, 30, 45}

	for len(slots) < count {
		number := fmt.Sprintf("%s%d", s.carrier, 100+rng.IntN(9900))
		if used[number] {
			continue
		}
		used[number] = true

		hour := 6 + rng.IntN(17)
		duration := distance/8 + rng.IntN(61) - 30
		if duration < 30 {
			duration = 30
		}

		slots = append(slots, slot{
			flightNumber:    number,
			departureMinute: hour*60 + minuteChoices[rng.IntN(len(minuteChoices))],
			durationMinutes: duration,
			stops:           stopChoices[rng.IntN(len(stopChoices))],
		})
	}
	return slots
}

// price turns a scheduled slot into an offer with this fetch's seats and points
func (s *DemoSource) price(query entity.FetchQuery, day entity.Date, cabin entity.CabinClass, sl slot, distance int, fetchedAt time.Time) *entity.FlightRecord {
	points := float64(baseMiles(distance)) * cabinMultipliers[cabin]
	if sl.stops > 0 {
		points *= 1.2
	}
	// +/-10% per fetch
	points *= 0.9 + rand.Float64()*0.2

	departure := clock(sl.departureMinute)
	return &entity.FlightRecord{
		ID:              entity.NaturalKeyID(query.Origin, query.Destination, day, s.carrier, sl.flightNumber, departure, cabin),
		CarrierCode:     s.carrier,
		FlightNumber:    sl.flightNumber,
		OriginCode:      query.Origin,
		DestinationCode: query.Destination,
		ServiceDate:     day,
		DepartureTime:   departure,
		ArrivalTime:     clock(sl.departureMinute + sl.durationMinutes),
		DurationMinutes: sl.durationMinutes,
		StopCount:       sl.stops,
		CabinClass:      cabin,
		PointsRequired:  int(math.Round(points/500) * 500),
		SeatsAvailable:  1 + rand.IntN(9),
		FetchedAt:       fetchedAt,
	}
}

func seed(parts ...string) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(strings.ToUpper(p)))
		h.Write([]byte{'|'})
	}
	return h.Sum64()
}

// clock formats minutes after midnight as HH:MM, wrapping past midnight
func clock(minutes int) string {
	minutes %= 24 * 60
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func baseMiles(distance int) int {
	return int(math.Round(float64(distance)/10)) * 1000
}

var regionDistance = map[string]int{
	"europe":        1500,
	"north_america": 4500,
	"middle_east":   3500,
	"asia":          6000,
	"oceania":       11000,
	"africa":        5000,
	"south_america": 7000,
}

var airportRegion = map[string]string{
	"CDG": "europe", "AMS": "europe", "FRA": "europe", "MAD": "europe", "BCN": "europe",
	"FCO": "europe", "MXP": "europe", "ZRH": "europe", "VIE": "europe", "CPH": "europe",
	"ARN": "europe", "LHR": "europe",
	"JFK": "north_america", "LAX": "north_america", "SFO": "north_america", "MIA": "north_america",
	"ORD": "north_america", "YYZ": "north_america", "YVR": "north_america", "EWR": "north_america",
	"DXB": "middle_east", "DOH": "middle_east", "CAI": "middle_east",
	"SIN": "asia", "HKG": "asia", "NRT": "asia", "HND": "asia", "ICN": "asia",
	"BKK": "asia", "DEL": "asia", "BOM": "asia",
	"SYD": "oceania", "MEL": "oceania", "AKL": "oceania",
	"JNB": "africa", "CPT": "africa",
	"GRU": "south_america", "EZE": "south_america", "BOG": "south_america",
}

// estimateDistance guesses a flight distance in miles from the destination's region
func estimateDistance(destination string) int {
	region, ok := airportRegion[strings.ToUpper(destination)]
	if !ok {
		region = "north_america"
	}
	return regionDistance[region]
}
