package otel

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampler(t *testing.T) {
	cases := map[string]struct {
		name, arg string
		want      string
	}{
		"always on":  {"always_on", "", "AlwaysOnSampler"},
		"always off": {"always_off", "", "AlwaysOffSampler"},
		"ratio":      {"traceidratio", "0.25", "TraceIDRatioBased{0.25}"},
		"bad ratio":  {"traceidratio", "lots", "AlwaysOnSampler"},
		"unknown":    {"sometimes", "", "ParentBased{root:AlwaysOnSampler,remoteParentSampled:AlwaysOnSampler,remoteParentNotSampled:AlwaysOffSampler,localParentSampled:AlwaysOnSampler,localParentNotSampled:AlwaysOffSampler}"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, Sampler(tc.name, tc.arg).Description())
		})
	}
}

func TestInit_Disabled(t *testing.T) {
	t.Setenv("OTEL_SDK_DISABLED", "true")
	log, hook := test.NewNullLogger()

	shutdown, err := Init(context.Background(), log, "docfiling")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "tracing_configured", entry.Message)
	assert.Equal(t, false, entry.Data["tracing_enabled"])
}

func TestInit_UnsupportedProtocolKeepsRunning(t *testing.T) {
	t.Setenv("OTEL_SDK_DISABLED", "false")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "carrier-pigeon")
	log, hook := test.NewNullLogger()

	shutdown, err := Init(context.Background(), log, "docfiling")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
	assert.Equal(t, "tracing_init_failed", hook.LastEntry().Message)
}
