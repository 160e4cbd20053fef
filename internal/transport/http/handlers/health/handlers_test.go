package healthhandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nomina/internal/platform/metrics"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func get(h *Handler, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthAndReadiness(t *testing.T) {
	h := NewHandler(pinger{}, nil)
	assert.Equal(t, http.StatusOK, get(h, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(h, "/readyz").Code)
	assert.Equal(t, http.StatusNotFound, get(h, "/metrics").Code)

	down := NewHandler(pinger{err: errors.New("refused")}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, get(down, "/readyz").Code)
}

func TestMetricsSnapshot(t *testing.T) {
	collector := metrics.New()
	collector.ShiftEvaluated()
	collector.ReportBuilt()

	rec := get(NewHandler(nil, collector), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data map[string]float64 `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 1.0, env.Data["shiftsEvaluatedTotal"])
	assert.Equal(t, 1.0, env.Data["reportsBuiltTotal"])
}
