package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const promText = `# HELP rooty_hooks_dispatch_total Hook dispatches.
# TYPE rooty_hooks_dispatch_total counter
rooty_hooks_dispatch_total{kind="action"} 12
rooty_hooks_dispatch_total{kind="filter"} 30
# HELP rooty_services_lookups_total Service lookups.
# TYPE rooty_services_lookups_total counter
rooty_services_lookups_total{status="found"} 5
# HELP go_goroutines Number of goroutines.
# TYPE go_goroutines gauge
go_goroutines 17
# HELP process_resident_memory_bytes Resident memory size in bytes.
# TYPE process_resident_memory_bytes gauge
process_resident_memory_bytes 2.097152e+07
`

func fakeServer(t *testing.T, healthCode int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(healthCode)
		if healthCode == http.StatusOK {
			_, _ = w.Write([]byte(`{"status":"ok","booted":true,"telemetry":{"healthy":true,"degraded":true}}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"starting","booted":false}`))
	})
	mux.HandleFunc("/api/v1/hooks", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"counts":{"actions":3,"filters":5,"by_hook":{"init":1,"all_plugins":1}},"records":[]}`))
	})
	mux.HandleFunc("/api/v1/services", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"services":[{"name":"conflicts","status":"bound"},{"name":"caps","status":"bound"},{"name":"x","status":"unbound"}]}`))
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(promText))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Snapshot(t *testing.T) {
	srv := fakeServer(t, http.StatusOK)

	s, err := NewClient(srv.URL+"/").Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "ok", s.Status)
	assert.True(t, s.Booted)
	assert.True(t, s.Degraded)
	assert.Equal(t, 3, s.Actions)
	assert.Equal(t, 5, s.Filters)
	assert.Equal(t, 2, s.Hooks)
	assert.Equal(t, 2, s.ServicesFound)
	assert.Equal(t, 3, s.ServicesTotal)
	assert.Equal(t, 42.0, s.Dispatches)
	assert.Equal(t, 5.0, s.Lookups)
	assert.Equal(t, 17, s.Goroutines)
	assert.InDelta(t, 20.0, s.MemoryMB, 0.001)
	assert.Greater(t, s.Latency, 0.0)
	assert.WithinDuration(t, time.Now(), s.Taken, time.Minute)
}

func TestClient_HealthNotBooted(t *testing.T) {
	srv := fakeServer(t, http.StatusServiceUnavailable)

	h, _, err := NewClient(srv.URL).Health(context.Background())
	require.NoError(t, err, "503 carries a report")
	assert.Equal(t, "starting", h.Status)
	assert.False(t, h.Booted)
}

func TestClient_Errors(t *testing.T) {
	srv := fakeServer(t, http.StatusInternalServerError)
	_, err := NewClient(srv.URL).Snapshot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code 500")

	_, err = NewClient("http://127.0.0.1:1").Snapshot(context.Background())
	assert.Error(t, err)
}

func TestParseMetrics(t *testing.T) {
	families, err := parseMetrics(strings.NewReader(promText))
	require.NoError(t, err)
	assert.Equal(t, 42.0, sumFamily(families, metricDispatches))
	assert.Zero(t, sumFamily(families, "missing_total"))

	_, err = parseMetrics(strings.NewReader("not a metric line {"))
	assert.Error(t, err)
}
