package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Getters(t *testing.T) {
	t.Parallel()

	empty := &Config{}
	assert.Equal(t, DefaultServiceName, empty.GetServiceName())
	assert.Equal(t, "unknown", empty.GetServiceVersion())
	assert.Equal(t, DefaultEndpoint, empty.GetEndpoint())
	assert.False(t, empty.GetInsecure())

	configured := &Config{
		ServiceName:    "my-service",
		ServiceVersion: "1.2.3",
		Endpoint:       "collector:4318",
		Insecure:       true,
	}
	assert.Equal(t, "my-service", configured.GetServiceName())
	assert.Equal(t, "1.2.3", configured.GetServiceVersion())
	assert.Equal(t, "collector:4318", configured.GetEndpoint())
	assert.True(t, configured.GetInsecure())
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{name: "nil config is valid", config: nil},
		{name: "disabled config skips validation", config: &Config{
			Enabled: false,
			Tracing: &TracingConfig{Enabled: true, Sampling: 7},
		}},
		{name: "valid sampling", config: &Config{
			Enabled: true,
			Tracing: &TracingConfig{Enabled: true, Sampling: 0.5},
		}},
		{name: "sampling above one", wantErr: true, config: &Config{
			Enabled: true,
			Tracing: &TracingConfig{Enabled: true, Sampling: 1.5},
		}},
		{name: "negative sampling", wantErr: true, config: &Config{
			Enabled: true,
			Tracing: &TracingConfig{Enabled: true, Sampling: -0.1},
		}},
		{name: "prometheus exporter", config: &Config{
			Enabled: true,
			Metrics: &MetricsConfig{Enabled: true, Exporter: ExporterPrometheus},
		}},
		{name: "unknown exporter", wantErr: true, config: &Config{
			Enabled: true,
			Metrics: &MetricsConfig{Enabled: true, Exporter: "graphite"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTracingConfig_GetSampling(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, DefaultSampling, (&TracingConfig{}).GetSampling(), 0.0001)
	assert.InDelta(t, 0.25, (&TracingConfig{Sampling: 0.25}).GetSampling(), 0.0001)
}

func TestMetricsConfig_GetExporter(t *testing.T) {
	t.Parallel()

	var nilConfig *MetricsConfig
	assert.Equal(t, ExporterOTLP, nilConfig.GetExporter())
	assert.Equal(t, ExporterOTLP, (&MetricsConfig{}).GetExporter())
	assert.Equal(t, ExporterPrometheus, (&MetricsConfig{Exporter: ExporterPrometheus}).GetExporter())
}
