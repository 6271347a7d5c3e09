package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/geomag-field-service/internal/config"
	"github.com/couchcryptid/geomag-field-service/internal/domain"
)

// defaultDrainWait bounds how long ExtractBatch waits for messages beyond
// the first one when no flush interval is configured. Short enough to keep
// end-to-end latency low, long enough to fill batches under sustained load.
const defaultDrainWait = 100 * time.Millisecond

// Reader consumes position fixes from the source topic as part of a
// consumer group. It implements pipeline.BatchExtractor.
type Reader struct {
	reader    *kafkago.Reader
	logger    *slog.Logger
	drainWait time.Duration
}

// NewReader creates a Kafka consumer for the configured source topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaGroupID,
		Topic:    cfg.KafkaSourceTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})
	drain := cfg.BatchFlushInterval
	if drain <= 0 {
		drain = defaultDrainWait
	}
	return &Reader{reader: r, logger: logger, drainWait: drain}
}

// ExtractBatch blocks until at least one fix arrives, then drains
// whatever else is already available, up to batchSize. Offsets are not
// committed here: each RawFix carries a Commit closure the pipeline
// invokes after a successful load.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawFix, error) {
	first, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}

	batch := make([]domain.RawFix, 0, batchSize)
	batch = append(batch, r.mapMessage(first))

	drainCtx, cancel := context.WithTimeout(ctx, r.drainWait)
	defer cancel()

	for len(batch) < batchSize {
		msg, err := r.reader.FetchMessage(drainCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				break
			}
			r.logger.Warn("batch drain stopped early", "error", err, "batch_size", len(batch))
			break
		}
		batch = append(batch, r.mapMessage(msg))
	}

	return batch, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

func (r *Reader) mapMessage(msg kafkago.Message) domain.RawFix {
	raw := mapMessageToRawFix(msg)
	raw.Commit = func(ctx context.Context) error {
		return r.reader.CommitMessages(ctx, msg)
	}
	return raw
}

// mapMessageToRawFix converts a Kafka message into the transport-neutral
// domain form. The Commit closure is attached by the caller.
func mapMessageToRawFix(msg kafkago.Message) domain.RawFix {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawFix{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
	}
}
