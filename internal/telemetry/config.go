package telemetry

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/fyrsmithlabs/rooty/internal/config"
)

// Config holds telemetry configuration.
type Config struct {
	Enabled        bool           `koanf:"enabled"`
	Endpoint       string         `koanf:"endpoint"`
	Protocol       string         `koanf:"protocol"` // "grpc" or "http"
	ServiceName    string         `koanf:"service_name"`
	ServiceVersion string         `koanf:"service_version"`
	Environment    string         `koanf:"environment"`
	Insecure       bool           `koanf:"insecure"` // Use insecure connection (no TLS)
	Sampling       SamplingConfig `koanf:"sampling"`
	Metrics        MetricsConfig  `koanf:"metrics"`
	Shutdown       ShutdownConfig `koanf:"shutdown"`
}

// SamplingConfig controls trace sampling behavior.
type SamplingConfig struct {
	Rate float64 `koanf:"rate"` // 0.0-1.0, default 1.0
}

// MetricsConfig controls metrics export.
type MetricsConfig struct {
	Enabled        bool            `koanf:"enabled"`
	ExportInterval config.Duration `koanf:"export_interval"`
}

// ShutdownConfig controls graceful shutdown behavior.
type ShutdownConfig struct {
	Timeout config.Duration `koanf:"timeout"`
}

// OTLP transports.
const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http"
)

// NewDefaultConfig returns telemetry defaults. Telemetry is disabled until
// OBSERVABILITY_ENABLE_TELEMETRY=true or observability.enable_telemetry is
// set, since most sites run without a collector.
func NewDefaultConfig() *Config {
	return &Config{
		Enabled:        false,
		Endpoint:       "localhost:4317",
		Protocol:       ProtocolGRPC,
		ServiceName:    "rooty",
		ServiceVersion: "dev",
		Environment:    "development",
		Insecure:       true,
		Sampling:       SamplingConfig{Rate: 1.0},
		Metrics: MetricsConfig{
			Enabled:        true,
			ExportInterval: config.Duration(15 * time.Second),
		},
		Shutdown: ShutdownConfig{
			Timeout: config.Duration(5 * time.Second),
		},
	}
}

// FromConfig derives the telemetry configuration from the application
// configuration. Production samples a tenth of the traces.
func FromConfig(cfg *config.Config, version string) *Config {
	tc := NewDefaultConfig()
	tc.Enabled = cfg.Observability.EnableTelemetry
	if cfg.Observability.Endpoint != "" {
		tc.Endpoint = cfg.Observability.Endpoint
	}
	tc.Insecure = cfg.Observability.Insecure
	if p := strings.ToLower(cfg.Observability.Protocol); p != "" {
		tc.Protocol = p
	}
	if cfg.Observability.ServiceName != "" {
		tc.ServiceName = cfg.Observability.ServiceName
	}
	if version != "" {
		tc.ServiceVersion = version
	}
	if cfg.App.Env != "" {
		tc.Environment = cfg.App.Env
	}
	if cfg.Production() {
		tc.Sampling.Rate = 0.1
	}
	if cfg.Server.ShutdownTimeout > 0 {
		tc.Shutdown.Timeout = config.Duration(cfg.Server.ShutdownTimeout)
	}
	return tc
}

// Validate checks configuration for errors.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when telemetry is enabled")
	}
	if c.Protocol != ProtocolGRPC && c.Protocol != ProtocolHTTP {
		return fmt.Errorf("protocol must be %q or %q, got %q", ProtocolGRPC, ProtocolHTTP, c.Protocol)
	}
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required when telemetry is enabled")
	}
	if c.ServiceVersion == "" {
		return fmt.Errorf("service_version is required when telemetry is enabled")
	}
	if c.Insecure && !c.isLocalEndpoint() {
		return fmt.Errorf("insecure connections to remote endpoints are not allowed; set insecure=false for TLS or use a local endpoint (localhost/127.0.0.1)")
	}
	if c.Sampling.Rate < 0 || c.Sampling.Rate > 1 {
		return fmt.Errorf("sampling.rate must be between 0 and 1, got %f", c.Sampling.Rate)
	}
	if c.Metrics.Enabled && c.Metrics.ExportInterval.Duration() <= 0 {
		return fmt.Errorf("metrics.export_interval must be positive when metrics enabled")
	}
	if c.Shutdown.Timeout.Duration() <= 0 {
		return fmt.Errorf("shutdown.timeout must be positive")
	}
	return nil
}

// isLocalEndpoint reports whether the endpoint host is a loopback address.
func (c *Config) isLocalEndpoint() bool {
	host := c.Endpoint
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
