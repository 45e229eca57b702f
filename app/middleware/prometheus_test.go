package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"folio/app/metrics"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusUsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Prometheus)
	r.HandleFunc("/api/comments/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods("DELETE")

	counter := metrics.HTTPRequestsTotal.WithLabelValues("DELETE", "/api/comments/{id}", "204")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"1", "2"} {
		req := httptest.NewRequest("DELETE", "/api/comments/"+id, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestRouteLabelUnmatched(t *testing.T) {
	req := httptest.NewRequest("GET", "/nowhere", nil)
	assert.Equal(t, "unmatched", routeLabel(req))
}
