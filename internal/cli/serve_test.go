package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer(t *testing.T) {
	basic, err := os.ReadFile(scenarios + "basic.yaml")
	require.NoError(t, err)

	post := func(t *testing.T, h http.Handler, target, body string) *httptest.ResponseRecorder {
		t.Helper()

		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("health", func(t *testing.T) {
		h := NewServer(prometheus.NewRegistry(), 0)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
	})

	t.Run("runs a scenario", func(t *testing.T) {
		want, err := os.ReadFile(scenarios + "golden/basic.golden")
		require.NoError(t, err)

		rec := post(t, NewServer(prometheus.NewRegistry(), 0), "/run", string(basic))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, string(want), rec.Body.String())
	})

	t.Run("runs a scenario as json", func(t *testing.T) {
		rec := post(t, NewServer(prometheus.NewRegistry(), 0), "/run?format=json", string(basic))
		require.Equal(t, http.StatusOK, rec.Code)

		var result struct {
			Trace   []string       `json:"trace"`
			State   map[string]any `json:"state"`
			Flushes int            `json:"flushes"`
			Errors  int            `json:"errors"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

		assert.Equal(t, 4, result.Flushes)
		assert.Equal(t, 0, result.Errors)
		assert.Equal(t, "user-name: <nil> -> ada", result.Trace[0])
		assert.Equal(t, 4.0, result.State["count"])
	})

	t.Run("rejects invalid scenarios", func(t *testing.T) {
		rec := post(t, NewServer(prometheus.NewRegistry(), 0), "/run", "name: x\nstates: {}")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "failed to parse YAML")
	})

	t.Run("reports failing steps", func(t *testing.T) {
		rec := post(t, NewServer(prometheus.NewRegistry(), 0), "/run", "name: x\nstate: {a: 1}\nsteps:\n  - {set: a.b, value: 1}")

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), `"a" is not an object`)
	})

	t.Run("exposes run metrics", func(t *testing.T) {
		h := NewServer(prometheus.NewRegistry(), 0)

		post(t, h, "/run", string(basic))
		post(t, h, "/run", string(basic))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "reactor_flushes_total 8\n")
	})
}
