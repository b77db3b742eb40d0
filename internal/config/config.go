// Package config reads process configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/tomlim2/unreal-mcp-jobs/internal/poller"
	"github.com/tomlim2/unreal-mcp-jobs/pkg/api/v1/routes"
)

// Environment variable names
const (
	// EnvBridgeAPIURL overrides the bridge backend base URL
	EnvBridgeAPIURL = "BRIDGE_API_URL"
	// EnvPollBaseDelayMs overrides the delay before the second status check
	EnvPollBaseDelayMs = "JOB_POLL_BASE_DELAY_MS"
	// EnvPollBackoffMultiplier overrides the backoff growth factor
	EnvPollBackoffMultiplier = "JOB_POLL_BACKOFF_MULTIPLIER"
	// EnvPollMaxDelayMs overrides the cap on the delay between checks
	EnvPollMaxDelayMs = "JOB_POLL_MAX_DELAY_MS"
	// EnvPollMaxRetries overrides the retry budget per job
	EnvPollMaxRetries = "JOB_POLL_MAX_RETRIES"
)

// GetEnv retrieves the value of an environment variable with a fallback
// value if not set
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// BridgeAPIURL returns the base URL of the bridge backend
func BridgeAPIURL() string {
	return GetEnv(EnvBridgeAPIURL, routes.DefaultBaseURL)
}

// PollerOptions builds polling options from the environment, keeping the
// defaults for any variable that is unset. A set-but-unparsable variable
// is an error rather than a silent fallback.
func PollerOptions() (poller.Options, error) {
	opts := poller.DefaultOptions()

	if v := os.Getenv(EnvPollBaseDelayMs); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return opts, fmt.Errorf("invalid %s: %q", EnvPollBaseDelayMs, v)
		}
		opts.BaseDelay = millis(ms)
	}

	if v := os.Getenv(EnvPollBackoffMultiplier); v != "" {
		mult, err := strconv.ParseFloat(v, 64)
		if err != nil || mult <= 1 {
			return opts, fmt.Errorf("invalid %s: %q", EnvPollBackoffMultiplier, v)
		}
		opts.BackoffMultiplier = mult
	}

	if v := os.Getenv(EnvPollMaxDelayMs); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return opts, fmt.Errorf("invalid %s: %q", EnvPollMaxDelayMs, v)
		}
		opts.MaxDelay = millis(ms)
	}

	if v := os.Getenv(EnvPollMaxRetries); v != "" {
		retries, err := strconv.Atoi(v)
		if err != nil || retries <= 0 {
			return opts, fmt.Errorf("invalid %s: %q", EnvPollMaxRetries, v)
		}
		opts.MaxRetries = retries
	}

	return opts, nil
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
