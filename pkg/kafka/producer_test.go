package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewProducerRequiresBrokersAndTopic(t *testing.T) {
	_, err := NewProducer(WithTopic("t"))
	require.Error(t, err)
	_, err = NewProducer(WithBrokers([]string{"localhost:9092"}))
	require.Error(t, err)
}

func TestPublishEncodesJSON(t *testing.T) {
	w := &recordingWriter{}
	reg := prometheus.NewRegistry()
	p := NewProducerWithWriter(w, "fincast.training", "gzip", reg)

	require.NoError(t, p.Publish(context.Background(), []byte("HDFC"), map[string]int{"rows": 3}))
	require.NoError(t, p.Publish(context.Background(), nil, "raw"))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, []byte("HDFC"), w.msgs[0].Key)
	assert.JSONEq(t, `{"rows":3}`, string(w.msgs[0].Value))
	assert.Equal(t, "raw", string(w.msgs[1].Value))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.metrics.msgs.WithLabelValues("fincast.training", "gzip", "ok")))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewProducerWithWriter(&recordingWriter{err: boom}, "t", "gzip", nil)
	err := p.Publish(context.Background(), nil, "x")
	require.ErrorIs(t, err, boom)
}
