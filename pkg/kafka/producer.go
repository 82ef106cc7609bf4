package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes JSON payloads to a single topic.
type Producer struct {
	writer  MessageWriter
	topic   string
	comp    string
	metrics *producerMetrics
}

// NewProducer creates a new Kafka producer.
func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := &ProducerConfig{
		RequiredAcks: -1,
		Compression:  "gzip",
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		BatchTimeout: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:  parseCompression(cfg.Compression),
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: cfg.WriteTimeout,
		BatchTimeout: cfg.BatchTimeout,
	}
	return NewProducerWithWriter(writer, cfg.Topic, cfg.Compression, cfg.Registerer), nil
}

// NewProducerWithWriter wraps an existing writer. reg may be nil.
func NewProducerWithWriter(w MessageWriter, topic, compression string, reg prometheus.Registerer) *Producer {
	p := &Producer{writer: w, topic: topic, comp: compression}
	if reg != nil {
		p.metrics = newProducerMetrics(reg)
	}
	return p
}

func (p *Producer) Topic() string { return p.topic }

// Publish sends value to the producer's topic. Values other than []byte and
// string are JSON encoded.
func (p *Producer) Publish(ctx context.Context, key []byte, value interface{}) error {
	start := time.Now()
	var v []byte
	switch val := value.(type) {
	case []byte:
		v = val
	case string:
		v = []byte(val)
	default:
		var err error
		v, err = json.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal value: %w", err)
		}
	}

	err := p.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: v, Time: time.Now()})
	p.metrics.observe(p.topic, p.comp, len(v), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("kafka publish to %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

func parseCompression(s string) kafka.Compression {
	switch s {
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Gzip
	}
}

type producerMetrics struct {
	msgs    *prometheus.CounterVec
	bytes   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

func newProducerMetrics(reg prometheus.Registerer) *producerMetrics {
	f := promauto.With(reg)
	return &producerMetrics{
		msgs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fincast_kafka_producer_messages_total",
			Help: "Total messages published to Kafka",
		}, []string{"topic", "compression", "result"}),
		bytes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fincast_kafka_producer_bytes_total",
			Help: "Total payload bytes published",
		}, []string{"topic", "compression"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fincast_kafka_producer_publish_seconds",
			Help:    "Publish latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"}),
	}
}

func (m *producerMetrics) observe(topic, comp string, n int, dur time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.msgs.WithLabelValues(topic, comp, result).Inc()
	m.bytes.WithLabelValues(topic, comp).Add(float64(n))
	m.latency.WithLabelValues(topic).Observe(dur.Seconds())
}
