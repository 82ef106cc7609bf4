package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitNone(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Exporter: "none"}, "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestInitUnknownExporter(t *testing.T) {
	_, err := Init(context.Background(), Config{Exporter: "jaeger"}, "test")
	require.Error(t, err)
}

func TestProviderWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	tp, err := NewProvider("fincast", "test", &buf)
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "predict_range")
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), `"Name":"predict_range"`)
	assert.Contains(t, buf.String(), "fincast")
}
