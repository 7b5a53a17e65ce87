package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishedUpdatesCollectors(t *testing.T) {
	m := New()
	m.Published(4, 120, 20*time.Millisecond)
	m.Published(5, 80, 10*time.Millisecond)
	m.Superseded()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Recomputes.WithLabelValues(OutcomePublished)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Recomputes.WithLabelValues(OutcomeSuperseded)))
	assert.Equal(t, 80.0, testutil.ToFloat64(m.ControlPoints))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.Generation))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Duration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Published(1, 1, time.Millisecond)
		m.Superseded()
		m.Failed()
	})
}

func TestHandlerServesExposition(t *testing.T) {
	m := New()
	m.Failed()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `facewarp_recomputes_total{outcome="failed"} 1`)
}
