package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentLabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Instrument)
	r.Get("/api/diary/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/diary/{id}", "404"))

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/diary/"+id, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/diary/{id}", "404"))
	assert.Equal(t, before+2, after)
}

func TestCountersAndHandler(t *testing.T) {
	before := testutil.ToFloat64(dateConflicts.WithLabelValues("diary"))
	RecordDateConflict("diary")
	assert.Equal(t, before+1, testutil.ToFloat64(dateConflicts.WithLabelValues("diary")))

	RecordGateOutcome("rejected", "expired")
	RecordTokenIssued(true)
	RecordWebhook("processed")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "fittrack_auth_gate_outcomes_total"))
	assert.True(t, strings.Contains(body, "fittrack_payment_webhook_events_total"))
}
