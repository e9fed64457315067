package http

import (
	"github.com/fyrsmithlabs/rooty/internal/hooks"
	"github.com/fyrsmithlabs/rooty/internal/platform"
	"github.com/fyrsmithlabs/rooty/internal/telemetry"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status    string                  `json:"status"`
	Booted    bool                    `json:"booted"`
	Telemetry *telemetry.HealthStatus `json:"telemetry,omitempty"`
}

// ServiceStatus describes one entry of the service map.
type ServiceStatus struct {
	Name   string `json:"name"`
	Class  string `json:"class"`
	Key    string `json:"key"`
	Bound  bool   `json:"bound"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ServicesResponse is the response body for GET /api/v1/services.
type ServicesResponse struct {
	Services []ServiceStatus `json:"services"`
}

// HooksResponse is the response body for GET /api/v1/hooks.
type HooksResponse struct {
	Counts  HookCounts     `json:"counts"`
	Records []hooks.Record `json:"records"`
}

// PluginsResponse is the response body for GET /api/v1/plugins. Blocked
// plugins are filtered out.
type PluginsResponse struct {
	Plugins []platform.Plugin `json:"plugins"`
}

// ErrorResponse is the body of API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Title string `json:"title,omitempty"`
}
