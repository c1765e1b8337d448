package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "roommatch-test", Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracingStdout(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{
		ServiceName:  "roommatch-test",
		Enabled:      true,
		Exporter:     "stdout",
		SamplerRatio: 1.0,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	span, ctx := StartServiceSpan(context.Background(), "MessageService", "SendMessage", attribute.Int("receiver_id", 2))
	require.NotNil(t, ctx)
	span.SetError(errors.New("boom"))
	assert.NotEmpty(t, span.TraceID())
	assert.NotEmpty(t, span.SpanID())
	span.End()
}

func TestTrackQueryObserves(t *testing.T) {
	before := testutil.CollectAndCount(DatabaseQueryLatency)
	done := TrackQuery("select", "observability_test")
	done()
	assert.Equal(t, before+1, testutil.CollectAndCount(DatabaseQueryLatency))
}
