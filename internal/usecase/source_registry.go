package usecase

import (
	"fmt"
	"sort"
	"strings"

	"airmiles-service/internal/domain/repository"
	"airmiles-service/pkg/logger"
)

// SourceRegistry maps carrier codes to record sources. Carriers without a
// registered source resolve to the fallback carrier's source.
type SourceRegistry struct {
	sources  map[string]repository.RecordSource
	fallback string
	logger   logger.Logger
}

// NewSourceRegistry creates a registry that falls back to fallbackCarrier
func NewSourceRegistry(fallbackCarrier string, logger logger.Logger) *SourceRegistry {
	return &SourceRegistry{
		sources:  make(map[string]repository.RecordSource),
		fallback: strings.ToUpper(fallbackCarrier),
		logger:   logger,
	}
}

// Register registers a source for a carrier, replacing any earlier one
func (r *SourceRegistry) Register(carrier string, source repository.RecordSource) {
	carrier = strings.ToUpper(carrier)
	r.sources[carrier] = source
	r.logger.Info("Registered record source", "carrier", carrier, "source", fmt.Sprintf("%T", source))
}

// Resolve returns the source for carrier and the carrier code it was registered under
func (r *SourceRegistry) Resolve(carrier string) (repository.RecordSource, string, error) {
	carrier = strings.ToUpper(carrier)
	if source, ok := r.sources[carrier]; ok {
		return source, carrier, nil
	}
	if source, ok := r.sources[r.fallback]; ok {
		r.logger.Debug("No source for carrier, using fallback", "carrier", carrier, "fallback", r.fallback)
		return source, r.fallback, nil
	}
	return nil, "", fmt.Errorf("no record source registered for %q and no fallback %q", carrier, r.fallback)
}

// Carriers lists the registered carrier codes in order
func (r *SourceRegistry) Carriers() []string {
	carriers := make([]string, 0, len(r.sources))
	for c := range r.sources {
		carriers = append(carriers, c)
	}
	sort.Strings(carriers)
	return carriers
}
