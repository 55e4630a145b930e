package observability

import (
	"strings"

	"github.com/smallbiznis/storefront/internal/config"
)

// Config is the normalized observability view of the application config.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

var (
	logLevels    = []string{"info", "debug", "warn", "error"}
	logFormats   = []string{"json", "console"}
	otlpProtocol = []string{"grpc", "http"}
)

// LoadConfig derives the observability settings. Unrecognized values fall back
// to the first allowed option instead of failing startup.
func LoadConfig(cfg config.Config) Config {
	obs := cfg.Observability

	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = "storefront"
	}

	return Config{
		ServiceName:          serviceName,
		Environment:          strings.ToLower(strings.TrimSpace(cfg.Environment)),
		Version:              strings.TrimSpace(cfg.AppVersion),
		LogLevel:             oneOf(obs.LogLevel, logLevels),
		LogFormat:            oneOf(obs.LogFormat, logFormats),
		OtelEnabled:          obs.OtelEnabled,
		OtelExporterEndpoint: strings.TrimSpace(cfg.OTLPEndpoint),
		OtelExporterProtocol: oneOf(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(obs.OtelProtocol)), "/protobuf"), otlpProtocol),
		OtelSamplingRatio:    clampRatio(obs.SamplingRatio),
	}
}

// Debug enables verbose request logging for debug level or a dev environment.
func (c Config) Debug() bool {
	if c.LogLevel == "debug" {
		return true
	}
	switch c.Environment {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func oneOf(value string, allowed []string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range allowed {
		if value == candidate {
			return value
		}
	}
	return allowed[0]
}

func clampRatio(ratio float64) float64 {
	switch {
	case ratio < 0:
		return 0
	case ratio > 1:
		return 1
	default:
		return ratio
	}
}
