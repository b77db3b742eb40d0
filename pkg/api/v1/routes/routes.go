// Package routes defines the bridge backend's job API URL structure
package routes

import "fmt"

// API base configuration
const (
	// DefaultPort is the default port the bridge backend listens on
	DefaultPort = "8765"
)

// DefaultBaseURL is the default base URL for the bridge backend
var DefaultBaseURL = fmt.Sprintf("http://localhost:%s", DefaultPort)

// Endpoint paths
const (
	// StartJobPath accepts job submissions
	StartJobPath = "/jobs/start"
	// JobStatusPath is the prefix for per-job status checks
	JobStatusPath = "/jobs/status"
	// CancelJobPath is the prefix for per-job cancel requests
	CancelJobPath = "/jobs/cancel"
	// HealthCheckPath reports backend liveness
	HealthCheckPath = "/health"
)

// StartJobURL returns the URL for submitting a new job
func StartJobURL() string {
	return StartJobPath
}

// JobStatusURL returns the URL for checking the status of a job
func JobStatusURL(jobID string) string {
	return fmt.Sprintf("%s/%s", JobStatusPath, jobID)
}

// CancelJobURL returns the URL for cancelling a job
func CancelJobURL(jobID string) string {
	return fmt.Sprintf("%s/%s", CancelJobPath, jobID)
}

// HealthCheckURL returns the URL for the health check endpoint
func HealthCheckURL() string {
	return HealthCheckPath
}
