package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/prometheus/common/model"

	httpserver "github.com/fyrsmithlabs/rooty/internal/http"
	"github.com/fyrsmithlabs/rooty/internal/services"
)

const (
	metricDispatches = "rooty_hooks_dispatch_total"
	metricLookups    = "rooty_services_lookups_total"
	metricGoroutines = "go_goroutines"
	metricResident   = "process_resident_memory_bytes"
	metricStartTime  = "process_start_time_seconds"
)

// Client polls the JSON and Prometheus endpoints of a rooty server.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 2 * time.Second,
		},
	}
}

func (c *Client) get(ctx context.Context, path string, accept ...int) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode == http.StatusOK {
		return resp, nil
	}
	for _, code := range accept {
		if resp.StatusCode == code {
			return resp, nil
		}
	}
	_ = resp.Body.Close()
	return nil, fmt.Errorf("%s: unexpected status code %d", path, resp.StatusCode)
}

func (c *Client) getJSON(ctx context.Context, path string, v any, accept ...int) error {
	resp, err := c.get(ctx, path, accept...)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", path, err)
	}
	return nil
}

// Health returns the health report and how long the probe took. A server
// that has not booted yet answers 503 with a report.
func (c *Client) Health(ctx context.Context) (httpserver.HealthResponse, time.Duration, error) {
	var h httpserver.HealthResponse
	start := time.Now()
	err := c.getJSON(ctx, "/health", &h, http.StatusServiceUnavailable)
	return h, time.Since(start), err
}

// Hooks returns the registrar records and counts.
func (c *Client) Hooks(ctx context.Context) (httpserver.HooksResponse, error) {
	var h httpserver.HooksResponse
	err := c.getJSON(ctx, "/api/v1/hooks", &h)
	return h, err
}

// Services returns the service map status.
func (c *Client) Services(ctx context.Context) (httpserver.ServicesResponse, error) {
	var s httpserver.ServicesResponse
	err := c.getJSON(ctx, "/api/v1/services", &s)
	return s, err
}

// Metrics scrapes /metrics.
func (c *Client) Metrics(ctx context.Context) (map[string]*dto.MetricFamily, error) {
	resp, err := c.get(ctx, "/metrics")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return parseMetrics(resp.Body)
}

func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	parser := expfmt.NewTextParser(model.UTF8Validation)
	families, err := parser.TextToMetricFamilies(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse metrics: %w", err)
	}
	return families, nil
}

// Snapshot polls every endpoint once. Only a failed health probe is an
// error; the other endpoints leave their fields zero.
func (c *Client) Snapshot(ctx context.Context) (Snapshot, error) {
	health, latency, err := c.Health(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	s := Snapshot{
		Status:  health.Status,
		Booted:  health.Booted,
		Latency: latency.Seconds(),
		Taken:   time.Now(),
	}
	if health.Telemetry != nil {
		s.Degraded = health.Telemetry.Degraded
	}

	if hooks, err := c.Hooks(ctx); err == nil {
		s.Actions = hooks.Counts.Actions
		s.Filters = hooks.Counts.Filters
		s.Hooks = len(hooks.Counts.ByHook)
	}

	if resp, err := c.Services(ctx); err == nil {
		s.ServicesTotal = len(resp.Services)
		for _, svc := range resp.Services {
			if svc.Status == services.Bound.String() || svc.Status == services.Found.String() {
				s.ServicesFound++
			}
		}
	}

	if families, err := c.Metrics(ctx); err == nil {
		s.Dispatches = sumFamily(families, metricDispatches)
		s.Lookups = sumFamily(families, metricLookups)
		s.Goroutines = int(sumFamily(families, metricGoroutines))
		s.MemoryMB = sumFamily(families, metricResident) / (1024 * 1024)
		if started := sumFamily(families, metricStartTime); started > 0 {
			s.Uptime = int64(s.Taken.Sub(time.Unix(int64(started), 0)).Seconds())
		}
	}
	return s, nil
}

// sumFamily adds up the samples of a counter or gauge family across all
// label sets.
func sumFamily(families map[string]*dto.MetricFamily, name string) float64 {
	family, ok := families[name]
	if !ok {
		return 0
	}
	var total float64
	for _, m := range family.GetMetric() {
		switch family.GetType() {
		case dto.MetricType_COUNTER:
			total += m.GetCounter().GetValue()
		case dto.MetricType_GAUGE:
			total += m.GetGauge().GetValue()
		case dto.MetricType_UNTYPED:
			total += m.GetUntyped().GetValue()
		}
	}
	return total
}
