package telemetry

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_Disabled(t *testing.T) {
	tel, shutdown, err := New(Config{Enabled: false})
	require.NoError(t, err)
	require.Nil(t, tel.TracerProvider)
	require.Nil(t, tel.MeterProvider)
	require.NotNil(t, tel.Tracer)
	require.NotNil(t, tel.Meter)
	require.Empty(t, tel.MetricsAddr())
	require.NoError(t, shutdown(context.Background()))
}

func TestNew_ServesPrometheusMetrics(t *testing.T) {
	ctx := context.Background()
	tel, shutdown, err := New(Config{
		Enabled:     true,
		ServiceName: "gojovmm-test",
		MetricsAddr: "127.0.0.1:0",
	})
	require.NoError(t, err)
	defer func() { require.NoError(t, shutdown(ctx)) }()

	counter, err := tel.Meter.Int64Counter("gojovmm.test.faults_total")
	require.NoError(t, err)
	counter.Add(ctx, 3)

	_, span := tel.Tracer.Start(ctx, "probe")
	require.True(t, span.SpanContext().IsValid())
	span.End()

	resp, err := http.Get("http://" + tel.MetricsAddr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "faults_total")
}

func TestNew_WithoutEndpoint(t *testing.T) {
	tel, shutdown, err := New(Config{Enabled: true, ServiceName: "gojovmm-test", TraceSampleRatio: 7})
	require.NoError(t, err)
	require.Empty(t, tel.MetricsAddr())
	require.NotNil(t, tel.MeterProvider)
	require.NoError(t, shutdown(context.Background()))
}
