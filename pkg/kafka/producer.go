// Package kafka publishes JSON events to a Kafka topic with segmentio/kafka-go.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/course-search/pkg/config"
)

// Event is the unit of data published to Kafka. Key is used for partition
// hashing and Value is JSON-serialised.
type Event struct {
	Key   string
	Value any
}

type Producer struct {
	writer  *kafka.Writer
	brokers []string
	logger  *slog.Logger

	mu          sync.Mutex
	lastErr     error
	lastErrTime time.Time
}

// NewProducer creates a Producer for the configured analytics topic. No
// connection is made until the first write.
func NewProducer(cfg config.KafkaConfig) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.AnalyticsTopic,
		Balancer:               &kafka.Hash{},
		BatchSize:              100,
		BatchTimeout:           10 * time.Millisecond,
		MaxAttempts:            3,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &Producer{
		writer:  w,
		brokers: cfg.Brokers,
		logger:  slog.Default().With("component", "kafka-producer", "topic", cfg.AnalyticsTopic),
	}
}

// Encode turns events into Kafka messages.
func Encode(events []Event) ([]kafka.Message, error) {
	messages := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		value, err := json.Marshal(event.Value)
		if err != nil {
			return nil, fmt.Errorf("marshaling event %q: %w", event.Key, err)
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(event.Key),
			Value: value,
		})
	}
	return messages, nil
}

// PublishBatch writes events to Kafka in a single write call.
func (p *Producer) PublishBatch(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	messages, err := Encode(events)
	if err != nil {
		return err
	}
	err = p.writer.WriteMessages(ctx, messages...)
	p.recordPublish(err)
	if err != nil {
		p.logger.Error("failed to publish batch",
			"count", len(messages),
			"error", err,
		)
		return fmt.Errorf("publishing batch to kafka: %w", err)
	}
	p.logger.Debug("batch published", "count", len(messages))
	return nil
}

func (p *Producer) recordPublish(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastErr = err
	if err != nil {
		p.lastErrTime = time.Now()
	}
}

// LastPublishError returns the error of the most recent batch write and when
// it happened. It is nil once a later write succeeds.
func (p *Producer) LastPublishError() (time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastErr == nil {
		return time.Time{}, nil
	}
	return p.lastErrTime, p.lastErr
}

// Ping asks the first reachable broker for cluster metadata. A reachable
// cluster still fails Ping while the most recent batch write failed.
func (p *Producer) Ping(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	var dialErr error
	for _, addr := range p.brokers {
		conn, err := kafka.DialContext(ctx, "tcp", addr)
		if err != nil {
			dialErr = errors.Join(dialErr, err)
			continue
		}
		if deadline, ok := ctx.Deadline(); ok {
			_ = conn.SetDeadline(deadline)
		}
		_, err = conn.Brokers()
		conn.Close()
		if err != nil {
			dialErr = errors.Join(dialErr, fmt.Errorf("reading metadata from %s: %w", addr, err))
			continue
		}
		if at, lastErr := p.LastPublishError(); lastErr != nil {
			return fmt.Errorf("last publish at %s failed: %w", at.UTC().Format(time.RFC3339), lastErr)
		}
		return nil
	}
	return fmt.Errorf("no kafka broker reachable: %w", dialErr)
}

// Close flushes pending writes and closes the underlying Kafka writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
