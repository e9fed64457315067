// Package monitor implements the terminal dashboard behind `rooty monitor`.
// It polls /health, /api/v1/hooks, /api/v1/services and the Prometheus
// /metrics endpoint of a running server.
package monitor
