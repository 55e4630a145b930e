package observability

import (
	"testing"

	"github.com/smallbiznis/storefront/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfigNormalizes(t *testing.T) {
	cfg := LoadConfig(config.Config{
		AppName:      " ",
		AppVersion:   " 1.2.0 ",
		Environment:  "Production",
		OTLPEndpoint: " collector:4317 ",
		Observability: config.ObservabilityConfig{
			LogLevel:      "WARN",
			LogFormat:     "yaml",
			OtelEnabled:   true,
			OtelProtocol:  "HTTP/protobuf",
			SamplingRatio: 3,
		},
	})

	assert.Equal(t, "storefront", cfg.ServiceName)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "1.2.0", cfg.Version)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.OtelEnabled)
	assert.Equal(t, "collector:4317", cfg.OtelExporterEndpoint)
	assert.Equal(t, "http", cfg.OtelExporterProtocol)
	assert.Equal(t, 1.0, cfg.OtelSamplingRatio)
	assert.False(t, cfg.Debug())
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig(config.Config{Environment: "test", Observability: config.ObservabilityConfig{SamplingRatio: -1}})

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "grpc", cfg.OtelExporterProtocol)
	assert.Zero(t, cfg.OtelSamplingRatio)
	assert.True(t, cfg.Debug())
}
