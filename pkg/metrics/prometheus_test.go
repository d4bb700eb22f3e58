package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("airmiles", reg)

	m.SearchesTotal.WithLabelValues(OutcomeCache).Inc()
	m.SearchesTotal.WithLabelValues(OutcomeFetch).Add(2)
	m.RecordsUpserted.Add(5)
	m.ErrorsCount.WithLabelValues("fetch").Inc()
	m.FetchDuration.Observe(0.5)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.SearchesTotal.WithLabelValues(OutcomeCache)))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.SearchesTotal.WithLabelValues(OutcomeFetch)))
	assert.Equal(t, float64(5), testutil.ToFloat64(m.RecordsUpserted))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "airmiles_searches_total")
	assert.Contains(t, names, "airmiles_fetch_duration_seconds")
	assert.Contains(t, names, "airmiles_errors_total")
}

func TestNewMetrics_SeparateRegistriesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNopMetrics()
		NewNopMetrics()
	})
}
