package healthprobe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, handler http.HandlerFunc) (int, HealthResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return w.Code, resp
}

func TestNew(t *testing.T) {
	hc := New()

	require.NotNil(t, hc)
	assert.False(t, hc.ready.Load(), "not ready by default")
	assert.Empty(t, hc.checks)
}

func TestHealth_AlwaysReturnsOK(t *testing.T) {
	hc := New()
	hc.AddCheck("postgres", func(context.Context) error { return errors.New("down") })

	for _, ready := range []bool{false, true} {
		hc.SetReady(ready)

		code, resp := serve(t, hc.Health())
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", resp.Status)
		assert.NotEmpty(t, resp.Uptime)
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		checkErr   error
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name:       "starting",
			ready:      false,
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "not_ready",
		},
		{
			name:       "ready_without_failures",
			ready:      true,
			wantCode:   http.StatusOK,
			wantStatus: "ready",
			wantChecks: map[string]string{"postgres": "ok"},
		},
		{
			name:       "ready_with_failing_dependency",
			ready:      true,
			checkErr:   errors.New("connection refused"),
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "not_ready",
			wantChecks: map[string]string{"postgres": "connection refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := New()
			hc.SetReady(tt.ready)
			hc.AddCheck("postgres", func(context.Context) error { return tt.checkErr })

			code, resp := serve(t, hc.Ready())
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.wantChecks, resp.Checks)
		})
	}
}

func TestReady_NoChecks(t *testing.T) {
	hc := New()
	hc.SetReady(true)

	code, resp := serve(t, hc.Ready())
	assert.Equal(t, http.StatusOK, code)
	assert.Nil(t, resp.Checks)
	assert.NotEmpty(t, resp.Uptime)
}

func TestAddCheck_ReplacesByName(t *testing.T) {
	hc := New()
	hc.SetReady(true)
	hc.AddCheck("rpc", func(context.Context) error { return errors.New("stale") })
	hc.AddCheck("rpc", func(context.Context) error { return nil })

	code, resp := serve(t, hc.Ready())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]string{"rpc": "ok"}, resp.Checks)
}

func TestHealthChecker_ConcurrentAccess(t *testing.T) {
	hc := New()
	handler := hc.Ready()

	done := make(chan bool)

	go func() {
		for i := 0; i < 100; i++ {
			hc.SetReady(i%2 == 0)
			hc.AddCheck("noop", func(context.Context) error { return nil })
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			req := httptest.NewRequest(http.MethodGet, "/ready", nil)
			handler(httptest.NewRecorder(), req)
		}
		done <- true
	}()

	<-done
	<-done
}
