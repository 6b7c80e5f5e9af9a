// Package retryqueue publishes failed webhook payloads to Kafka so a
// downstream consumer can replay them. Payloads are forwarded verbatim: the
// bytes that failed are the bytes that get retried.
package retryqueue

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"voice-lead-pipeline/internal/observability/metrics"
)

// Publisher publishes failed-event payloads to the retry topic.
type Publisher struct {
	writer  *kafka.Writer
	topic   string
	enabled bool
	metrics *metrics.Metrics
}

// Config holds Kafka retry queue configuration.
type Config struct {
	Brokers []string
	Topic   string
	Enabled bool
}

// New creates a retry queue publisher. With Kafka disabled or no brokers
// configured it runs in log-only mode: failures are recorded but not queued.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("retry queue disabled (nil config), using log-only mode")
		return &Publisher{enabled: false, metrics: m}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("retry queue disabled, using log-only mode")
		return &Publisher{
			topic:   cfg.Topic,
			enabled: false,
			metrics: m,
		}
	}

	// Longer dial timeout for DNS resolution in Kubernetes.
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Msg("retry queue publisher initialized")

	return &Publisher{
		writer:  writer,
		topic:   cfg.Topic,
		enabled: true,
		metrics: m,
	}
}

// Publish queues one failed payload keyed by call identifier. The failure
// reason travels in a header so consumers can triage without parsing bodies.
func (p *Publisher) Publish(ctx context.Context, callID string, payload []byte, reason string) error {
	start := time.Now()

	log.Debug().
		Str("topic", p.topic).
		Str("callId", callID).
		Str("reason", reason).
		Int("bytes", len(payload)).
		Msg("queueing failed event for retry")

	if !p.enabled || p.writer == nil {
		p.metrics.RecordRetryPublish(nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(callID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte("call.completed.retry")},
			{Key: "error", Value: []byte(reason)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", p.topic).
			Str("callId", callID).
			Msg("failed to write to retry queue")
		p.metrics.RecordRetryPublish(err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordRetryPublish(nil, time.Since(start).Seconds())
	return nil
}

// Close closes the Kafka writer.
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		log.Error().Err(err).Msg("error closing retry queue writer")
		return err
	}
	return nil
}
