// Package responses defines JSON bodies served by the preview admin listener.
package responses

import "time"

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Version       string    `json:"version"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	TLS           bool      `json:"tls"`
}
