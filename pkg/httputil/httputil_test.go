package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayushbirla71/survey-backend/pkg/errutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReturnServerResponse(t *testing.T) {
	w := httptest.NewRecorder()
	ReturnServerResponse(w, map[string]string{"id": "1"}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"code":200,"error":"","body":{"id":"1"}}`, w.Body.String())

	w = httptest.NewRecorder()
	ReturnServerResponse(w, map[string]string{"id": "1"}, errutil.NotFoundError(errors.New("campaign not found")))

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := new(Response)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), resp))
	assert.Equal(t, "campaign not found", resp.Error)
	assert.Nil(t, resp.Body)
}

func TestReturnNoCache(t *testing.T) {
	w := httptest.NewRecorder()
	ReturnNoCache(w, "image/png", []byte{1, 2})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-cache, no-store, must-revalidate", w.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", w.Header().Get("Pragma"))
	assert.Equal(t, "0", w.Header().Get("Expires"))
	assert.Equal(t, []byte{1, 2}, w.Body.Bytes())
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", ClientIP(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.3")
	assert.Equal(t, "203.0.113.7", ClientIP(r))
}
