package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomlim2/unreal-mcp-jobs/internal/poller"
	"github.com/tomlim2/unreal-mcp-jobs/pkg/api/v1/routes"
)

func TestBridgeAPIURL(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		// Setenv registers the restore; the variable must be absent,
		// not empty, for the fallback to apply.
		t.Setenv(EnvBridgeAPIURL, "")
		os.Unsetenv(EnvBridgeAPIURL)

		assert.Equal(t, routes.DefaultBaseURL, BridgeAPIURL())
	})

	t.Run("from environment", func(t *testing.T) {
		t.Setenv(EnvBridgeAPIURL, "http://bridge.internal:9000")
		assert.Equal(t, "http://bridge.internal:9000", BridgeAPIURL())
	})
}

func TestPollerOptionsDefaults(t *testing.T) {
	opts, err := PollerOptions()
	require.NoError(t, err)
	assert.Equal(t, poller.DefaultOptions(), opts)
}

func TestPollerOptionsFromEnvironment(t *testing.T) {
	t.Setenv(EnvPollBaseDelayMs, "500")
	t.Setenv(EnvPollBackoffMultiplier, "2.0")
	t.Setenv(EnvPollMaxDelayMs, "4000")
	t.Setenv(EnvPollMaxRetries, "10")

	opts, err := PollerOptions()
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, opts.BaseDelay)
	assert.Equal(t, 2.0, opts.BackoffMultiplier)
	assert.Equal(t, 4*time.Second, opts.MaxDelay)
	assert.Equal(t, 10, opts.MaxRetries)
}

func TestPollerOptionsRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "non-numeric delay", key: EnvPollBaseDelayMs, value: "soon"},
		{name: "negative delay", key: EnvPollBaseDelayMs, value: "-5"},
		{name: "multiplier at one", key: EnvPollBackoffMultiplier, value: "1.0"},
		{name: "zero retries", key: EnvPollMaxRetries, value: "0"},
		{name: "non-numeric max delay", key: EnvPollMaxDelayMs, value: "later"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := PollerOptions()
			assert.Error(t, err)
		})
	}
}
