package metrics_test

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/tailgate/server/internal/metrics"
)

func TestMetrics_HandlerExposesCollectors(t *testing.T) {
	m := metrics.New()
	m.Verdicts.WithLabelValues("TAILGATE").Inc()
	people := -3
	m.Track(func() int { return people }, func() int { return 10 })

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `tailgate_verdicts_total{verdict="TAILGATE"} 1`)
	assert.Contains(t, string(body), "tailgate_people_count -3")
	assert.Contains(t, string(body), "tailgate_window_seconds 10")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Verdicts.WithLabelValues("TAILGATE")))
}

func TestMetrics_TrackedGaugesReadAtScrape(t *testing.T) {
	m := metrics.New()
	people := 0
	m.Track(func() int { return people }, func() int { return 10 })

	people = 4
	n, err := testutil.GatherAndCount(m.Registry(), "tailgate_people_count")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "tailgate_people_count 4")
}
