package telemetry

import (
	"context"
	"testing"

	"taxonomy/scraper/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TelemetryConfig{ServiceName: "taxonomy-scraper"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupWithEndpoint(t *testing.T) {
	ctx := context.Background()

	// The exporter connects lazily, so no collector is needed.
	shutdown, err := Setup(ctx, config.TelemetryConfig{
		Endpoint:    "http://127.0.0.1:4318/v1/traces",
		ServiceName: "taxonomy-scraper",
	})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
}
