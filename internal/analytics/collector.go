package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/course-search/pkg/kafka"
)

// Publisher ships a batch of events. *kafka.Producer satisfies it.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Recorder receives every tracked event in process. *Aggregator satisfies
// it.
type Recorder interface {
	Record(event any)
}

// Collector buffers events and flushes them to the publisher when a batch
// fills up or the flush interval elapses. Track never blocks; events are
// dropped when the buffer is full.
type Collector struct {
	publisher     Publisher
	recorder      Recorder
	eventCh       chan any
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger
	done          chan struct{}
}

type CollectorConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

// NewCollector builds a collector. Either publisher or recorder may be nil.
func NewCollector(publisher Publisher, recorder Recorder, cfg CollectorConfig) *Collector {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	return &Collector{
		publisher:     publisher,
		recorder:      recorder,
		eventCh:       make(chan any, cfg.BufferSize),
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		logger:        slog.Default().With("component", "analytics-collector"),
		done:          make(chan struct{}),
	}
}

// Start launches the flush loop. It returns once the goroutine is running;
// the loop stops when ctx is cancelled or Close is called.
func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
	c.logger.Info("analytics collector started",
		"buffer_size", cap(c.eventCh),
		"batch_size", c.batchSize,
		"flush_interval", c.flushInterval,
	)
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	batch := make([]kafka.Event, 0, c.batchSize)
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				c.flushFinal(batch)
				return
			}
			batch = c.add(ctx, batch, event)
		case <-ticker.C:
			batch = c.flush(ctx, batch)
		case <-ctx.Done():
			for {
				select {
				case event, ok := <-c.eventCh:
					if !ok {
						c.flushFinal(batch)
						return
					}
					batch = append(batch, c.wrap(event))
				default:
					c.flushFinal(batch)
					return
				}
			}
		}
	}
}

func (c *Collector) add(ctx context.Context, batch []kafka.Event, event any) []kafka.Event {
	batch = append(batch, c.wrap(event))
	if len(batch) >= c.batchSize {
		return c.flush(ctx, batch)
	}
	return batch
}

func (c *Collector) wrap(event any) kafka.Event {
	if c.recorder != nil {
		c.recorder.Record(event)
	}
	return kafka.Event{Key: eventKey(event), Value: event}
}

func (c *Collector) flushFinal(batch []kafka.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.flush(ctx, batch)
}

// flush publishes batch and returns it emptied for reuse.
func (c *Collector) flush(ctx context.Context, batch []kafka.Event) []kafka.Event {
	if len(batch) == 0 || c.publisher == nil {
		return batch[:0]
	}
	if err := c.publisher.PublishBatch(ctx, batch); err != nil {
		c.logger.Error("failed to publish analytics batch", "count", len(batch), "error", err)
	} else {
		c.logger.Debug("analytics batch published", "count", len(batch))
	}
	return batch[:0]
}

// Track enqueues an event without blocking.
func (c *Collector) Track(event any) {
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// Close stops accepting events, flushes what is buffered and waits for the
// loop to exit. Track must not be called afterwards.
func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
}

func eventKey(event any) string {
	switch e := event.(type) {
	case QueryEvent:
		return string(e.Type)
	case CompareEvent:
		return string(e.Type)
	}
	return "analytics"
}
