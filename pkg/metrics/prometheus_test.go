package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordPrediction("day", "ok")
	r.RecordPrediction("day", "ok")
	r.RecordTraining("failure")
	r.RecordError("model_not_found")
	r.RecordHoldoutMAE("HDFC", 12.5)
	r.RecordLatency("predict", 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.predictions.WithLabelValues("day", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.training.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("model_not_found")))
	assert.Equal(t, 12.5, testutil.ToFloat64(r.holdoutMAE.WithLabelValues("HDFC")))

	n, err := testutil.GatherAndCount(reg, "fincast_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecordersOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
