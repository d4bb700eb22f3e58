package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"airmiles-service/internal/domain/entity"
	"airmiles-service/internal/domain/repository"
	"airmiles-service/pkg/logger"
	"airmiles-service/pkg/metrics"

	"golang.org/x/sync/singleflight"
)

// Freshness policies
const (
	// PolicyRecord serves from the store when any record in the window is fresh.
	PolicyRecord = "record"
	// PolicyWindow serves from the store only when a successful fetch covering
	// the whole window completed within the freshness window.
	PolicyWindow = "window"
)

// Searcher runs freshness-gated searches
type Searcher interface {
	Search(ctx context.Context, req entity.SearchRequest) (*entity.SearchResult, error)
}

// PipelineConfig tunes the search pipeline
type PipelineConfig struct {
	FreshnessWindow time.Duration
	Policy          string
	DefaultCarrier  string
}

// SearchPipeline decides per search whether stored records are fresh enough to
// serve or whether the record source must be called and its results stored.
type SearchPipeline struct {
	flights repository.FlightRecordRepository
	routes  repository.RouteWatchRepository
	jobs    repository.FetchJobRepository
	sources *SourceRegistry
	metrics *metrics.Metrics
	logger  logger.Logger
	cfg     PipelineConfig

	group singleflight.Group
	now   func() time.Time
}

// NewSearchPipeline creates a new search pipeline. routes and jobs may be nil,
// in which case no bookkeeping is written and PolicyWindow behaves like PolicyRecord.
func NewSearchPipeline(
	flights repository.FlightRecordRepository,
	routes repository.RouteWatchRepository,
	jobs repository.FetchJobRepository,
	sources *SourceRegistry,
	metrics *metrics.Metrics,
	cfg PipelineConfig,
	logger logger.Logger,
) *SearchPipeline {
	if cfg.FreshnessWindow <= 0 {
		cfg.FreshnessWindow = 4 * time.Hour
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyRecord
	}
	if cfg.DefaultCarrier == "" {
		cfg.DefaultCarrier = "UA"
	}

	return &SearchPipeline{
		flights: flights,
		routes:  routes,
		jobs:    jobs,
		sources: sources,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

var _ Searcher = (*SearchPipeline)(nil)

// fetchOutcome is what one shared fetch hands to every waiter
type fetchOutcome struct {
	records []*entity.FlightRecord
	asOf    time.Time
}

// Search serves the request from the store when fresh, otherwise fetches,
// stores and returns the new records.
func (p *SearchPipeline) Search(ctx context.Context, req entity.SearchRequest) (*entity.SearchResult, error) {
	req = req.Normalize()
	if req.CabinClass == "" {
		req.CabinClass = entity.CabinEconomy
	}
	if req.CarrierCode == "" {
		req.CarrierCode = p.cfg.DefaultCarrier
	}
	if err := req.Validate(); err != nil {
		p.metrics.SearchesTotal.WithLabelValues(metrics.OutcomeError).Inc()
		p.metrics.ErrorsCount.WithLabelValues("validate").Inc()
		return nil, err
	}

	source, carrier, err := p.sources.Resolve(req.CarrierCode)
	if err != nil {
		p.metrics.SearchesTotal.WithLabelValues(metrics.OutcomeError).Inc()
		p.metrics.ErrorsCount.WithLabelValues("resolve").Inc()
		return nil, &entity.FetchFailedError{Carrier: req.CarrierCode, Err: err}
	}
	req.CarrierCode = carrier

	log := p.logger.With(
		"origin", req.Origin,
		"destination", req.Destination,
		"window", req.Window.String(),
		"cabinClass", req.CabinClass,
		"carrier", carrier,
	)

	stored, err := p.flights.QueryByRouteAndWindow(ctx, req.Origin, req.Destination, req.Window)
	if err != nil {
		p.metrics.SearchesTotal.WithLabelValues(metrics.OutcomeError).Inc()
		p.metrics.ErrorsCount.WithLabelValues("query").Inc()
		return nil, &entity.StoreUnavailableError{Op: "query", Err: err}
	}

	if records, asOf, ok := p.servable(ctx, req, stored, log); ok {
		log.Debug("Serving search from store", "records", len(records), "asOf", asOf)
		p.metrics.SearchesTotal.WithLabelValues(metrics.OutcomeCache).Inc()
		return &entity.SearchResult{Records: records, ServedFromCache: true, AsOf: asOf}, nil
	}

	outcome, err := p.fetchShared(ctx, req, source, log)
	if err != nil {
		p.metrics.SearchesTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}

	p.metrics.SearchesTotal.WithLabelValues(metrics.OutcomeFetch).Inc()
	return &entity.SearchResult{
		Records:         cloneRecords(outcome.records),
		ServedFromCache: false,
		AsOf:            outcome.asOf,
	}, nil
}

// servable applies the freshness gate to the stored records
func (p *SearchPipeline) servable(ctx context.Context, req entity.SearchRequest, stored []*entity.FlightRecord, log logger.Logger) ([]*entity.FlightRecord, time.Time, bool) {
	now := p.now()

	if p.cfg.Policy == PolicyWindow && p.jobs != nil {
		job, err := p.jobs.LatestSuccessfulCovering(ctx, req.Origin, req.Destination, req.CarrierCode, req.CabinClass, req.Window)
		if err != nil {
			log.Warn("Failed to look up covering fetch job", "error", err)
			return nil, time.Time{}, false
		}
		if job == nil || job.CompletedAt == nil || now.Sub(*job.CompletedAt) >= p.cfg.FreshnessWindow {
			return nil, time.Time{}, false
		}

		var fresh []*entity.FlightRecord
		for _, r := range stored {
			if r.IsFresh(now, p.cfg.FreshnessWindow) && r.CabinClass == req.CabinClass && r.CarrierCode == req.CarrierCode {
				fresh = append(fresh, r)
			}
		}
		asOf := latestFetch(fresh)
		if asOf.IsZero() {
			asOf = job.CompletedAt.UTC()
		}
		return nonNil(fresh), asOf, true
	}

	var fresh []*entity.FlightRecord
	for _, r := range stored {
		if r.IsFresh(now, p.cfg.FreshnessWindow) {
			fresh = append(fresh, r)
		}
	}
	if len(fresh) == 0 {
		return nil, time.Time{}, false
	}
	return fresh, latestFetch(fresh), true
}

// fetchShared runs at most one fetch per identical search at a time. Waiters
// stop waiting when their own context ends; if the caller leading the shared
// fetch is cancelled, a still-live waiter starts a fresh one.
func (p *SearchPipeline) fetchShared(ctx context.Context, req entity.SearchRequest, source repository.RecordSource, log logger.Logger) (*fetchOutcome, error) {
	key := fmt.Sprintf("%s|%s|%s|%s|%s", req.Origin, req.Destination, req.Window.String(), req.CabinClass, req.CarrierCode)

	for {
		ch := p.group.DoChan(key, func() (interface{}, error) {
			return p.fetchAndStore(ctx, req, source, log)
		})

		select {
		case <-ctx.Done():
			return nil, &entity.FetchFailedError{Carrier: req.CarrierCode, Err: ctx.Err()}
		case res := <-ch:
			if res.Err != nil {
				if res.Shared && ctx.Err() == nil && isContextError(res.Err) {
					log.Debug("Shared fetch was cancelled by its leader, retrying")
					continue
				}
				return nil, res.Err
			}
			return res.Val.(*fetchOutcome), nil
		}
	}
}

// fetchAndStore invokes the record source and upserts what it returns
func (p *SearchPipeline) fetchAndStore(ctx context.Context, req entity.SearchRequest, source repository.RecordSource, log logger.Logger) (*fetchOutcome, error) {
	// Bookkeeping outlives a cancelled search so failed attempts are still recorded.
	bookCtx := context.WithoutCancel(ctx)

	watch := p.touchRoute(bookCtx, req, log)
	job := p.startJob(bookCtx, req, watch, log)

	started := p.now()
	records, err := source.Fetch(ctx, entity.FetchQuery{
		Origin:      req.Origin,
		Destination: req.Destination,
		Window:      req.Window,
		CabinClass:  req.CabinClass,
	})
	completed := p.now()
	p.metrics.FetchDuration.Observe(completed.Sub(started).Seconds())

	if err != nil {
		log.Error("Record source fetch failed", "error", err)
		p.metrics.ErrorsCount.WithLabelValues("fetch").Inc()
		p.finishJob(bookCtx, job, entity.FetchJobFailed, err, 0, log)
		return nil, &entity.FetchFailedError{Carrier: req.CarrierCode, Err: err}
	}

	kept := make([]*entity.FlightRecord, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		if r.FetchedAt.IsZero() {
			r.FetchedAt = completed
		}
		if r.OriginCode != req.Origin || r.DestinationCode != req.Destination || !req.Window.Contains(r.ServiceDate) {
			log.Warn("Dropping record outside requested route or window",
				"id", r.ID, "route", r.OriginCode+"-"+r.DestinationCode, "serviceDate", r.ServiceDate.String())
			continue
		}
		if err := r.Validate(); err != nil {
			log.Warn("Dropping invalid record", "id", r.ID, "error", err)
			continue
		}
		kept = append(kept, r)
	}
	sortRecords(kept)

	for i, r := range kept {
		if err := p.flights.Upsert(ctx, r); err != nil {
			log.Error("Failed to store fetched record", "id", r.ID, "written", i, "error", err)
			p.metrics.ErrorsCount.WithLabelValues("upsert").Inc()
			p.finishJob(bookCtx, job, entity.FetchJobFailed, err, i, log)
			return nil, &entity.StoreUnavailableError{Op: "upsert", Err: err}
		}
		p.metrics.RecordsUpserted.Inc()
	}

	p.finishJob(bookCtx, job, entity.FetchJobSuccess, nil, len(kept), log)
	if watch != nil {
		if err := p.routes.MarkFetched(bookCtx, watch.ID, completed); err != nil {
			log.Warn("Failed to mark route watch fetched", "error", err)
		}
	}

	log.Info("Fetched and stored records", "fetched", len(records), "stored", len(kept))
	return &fetchOutcome{records: kept, asOf: completed.UTC()}, nil
}

func (p *SearchPipeline) touchRoute(ctx context.Context, req entity.SearchRequest, log logger.Logger) *entity.RouteWatch {
	if p.routes == nil {
		return nil
	}
	watch, err := p.routes.Touch(ctx, req.Origin, req.Destination, req.CarrierCode)
	if err != nil {
		log.Warn("Failed to touch route watch", "error", err)
		return nil
	}
	return watch
}

func (p *SearchPipeline) startJob(ctx context.Context, req entity.SearchRequest, watch *entity.RouteWatch, log logger.Logger) *entity.FetchJob {
	if p.jobs == nil {
		return nil
	}
	job := &entity.FetchJob{
		CarrierCode:     req.CarrierCode,
		OriginCode:      req.Origin,
		DestinationCode: req.Destination,
		CabinClass:      req.CabinClass,
		Status:          entity.FetchJobPending,
		Window:          req.Window,
		StartedAt:       p.now().UTC(),
	}
	if watch != nil {
		job.RouteWatchID = watch.ID
	}
	if err := p.jobs.Create(ctx, job); err != nil {
		log.Warn("Failed to create fetch job", "error", err)
		return nil
	}
	return job
}

func (p *SearchPipeline) finishJob(ctx context.Context, job *entity.FetchJob, status entity.FetchJobStatus, cause error, found int, log logger.Logger) {
	if job == nil {
		return
	}
	done := p.now().UTC()
	job.Status = status
	job.CompletedAt = &done
	job.RecordsFound = found
	if cause != nil {
		job.Error = cause.Error()
	}
	if err := p.jobs.Complete(ctx, job); err != nil {
		log.Warn("Failed to complete fetch job", "jobId", job.ID, "error", err)
	}
}

func latestFetch(records []*entity.FlightRecord) time.Time {
	var latest time.Time
	for _, r := range records {
		if r.FetchedAt.After(latest) {
			latest = r.FetchedAt
		}
	}
	return latest
}

// sortRecords orders records the way the store returns them
func sortRecords(records []*entity.FlightRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.ServiceDate.Equal(b.ServiceDate.Time) {
			return a.ServiceDate.Before(b.ServiceDate)
		}
		if a.PointsRequired != b.PointsRequired {
			return a.PointsRequired < b.PointsRequired
		}
		return a.ID < b.ID
	})
}

// cloneRecords copies records so callers sharing one fetch never alias each other
func cloneRecords(records []*entity.FlightRecord) []*entity.FlightRecord {
	out := make([]*entity.FlightRecord, len(records))
	for i, r := range records {
		c := *r
		out[i] = &c
	}
	return out
}

func nonNil(records []*entity.FlightRecord) []*entity.FlightRecord {
	if records == nil {
		return []*entity.FlightRecord{}
	}
	return records
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
