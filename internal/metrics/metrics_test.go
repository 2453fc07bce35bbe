package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveHTTP(t *testing.T) {
	m := New()
	m.ObserveHTTP("/api/v1/tiers", http.MethodGet, http.StatusOK, 20*time.Millisecond)
	m.ObserveHTTP("/api/v1/tiers", http.MethodGet, http.StatusOK, 30*time.Millisecond)
	m.ObserveHTTP("/api/v1/tiers/{tier}", http.MethodGet, http.StatusNotFound, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/v1/tiers", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/v1/tiers/{tier}", "GET", "404")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.httpDuration))
}

func TestDomainCounters(t *testing.T) {
	m := New()
	m.RecordCheckout("premium", "annual", OutcomeSuccess)
	m.RecordCheckout("basic", "monthly", OutcomeRejected)
	m.RecordWebhookEvent("invoice.paid", OutcomeSuccess)
	m.RecordWebhookEvent("invoice.paid", OutcomeSuccess)
	m.RecordCancellation()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.checkouts.WithLabelValues("premium", "annual", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checkouts.WithLabelValues("basic", "monthly", OutcomeRejected)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.webhookEvents.WithLabelValues("invoice.paid", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cancellations))
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.RecordCancellation()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), MetricCancellationsTotal+" 1"))
	assert.Contains(t, string(body), "go_goroutines")
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.RecordCancellation()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.cancellations))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.cancellations))
}
