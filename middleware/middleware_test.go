package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayushbirla71/survey-backend/pkg/metrics"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestLog(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := zerolog.New(buf)
	ctx := logger.WithContext(context.Background())

	var sawLogID bool
	h := Log(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Ctx(r.Context()).Info().Msg("inside")
		sawLogID = true
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/get_campaign", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.True(t, sawLogID)
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Contains(t, buf.String(), `"log_id"`)
	assert.Contains(t, buf.String(), "GET /api/v1/get_campaign, status: 418")
}

func TestMetrics(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Metrics)
	r.HandleFunc("/track/open/{tracking_id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	before := testutil.ToFloat64(metrics.HttpRequestsTotal.WithLabelValues(http.MethodGet, "/track/open/{tracking_id}", "200"))

	for _, tok := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/track/open/"+tok, nil))
	}

	after := testutil.ToFloat64(metrics.HttpRequestsTotal.WithLabelValues(http.MethodGet, "/track/open/{tracking_id}", "200"))
	assert.Equal(t, float64(2), after-before)
}
