package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, ReadyResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestLiveAndHealthAlwaysOK(t *testing.T) {
	s := NewServer(Config{ServiceName: "afl-predictor", Version: "1.0.0", Port: "0"})
	h := s.Handler()

	for _, path := range []string{"/live", "/health"} {
		rec, body := get(t, h, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "ok", body.Status)
		assert.Equal(t, "afl-predictor", body.Service)
	}
}

func TestReadyRequiresFlagAndChecks(t *testing.T) {
	dbErr := errors.New("connection refused")
	var dbDown bool
	s := NewServer(Config{
		ServiceName: "afl-predictor",
		Port:        "0",
		Checks: map[string]Checker{
			"database": CheckerFunc(func(context.Context) error {
				if dbDown {
					return dbErr
				}
				return nil
			}),
			"ignored": nil,
		},
	})
	h := s.Handler()

	rec, body := get(t, h, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_ready", body.Checks["service"])

	s.SetReady(true)
	rec, body = get(t, h, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body.Checks["database"])
	assert.NotContains(t, body.Checks, "ignored")

	dbDown = true
	rec, body = get(t, h, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, body.Checks["database"], "connection refused")

	s.AddCheck("estimator", CheckerFunc(func(context.Context) error { return nil }))
	dbDown = false
	rec, body = get(t, h, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body.Checks["estimator"])
}

func TestPortFallsBackToEnv(t *testing.T) {
	t.Setenv("HEALTH_PORT", "9191")
	s := NewServer(Config{ServiceName: "x"})
	assert.Equal(t, "9191", s.port)
}
