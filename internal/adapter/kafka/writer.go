package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-dashboard/internal/config"
	"github.com/couchcryptid/storm-dashboard/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes storm snapshots to a Kafka topic.
// It implements dashboard.SnapshotPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured snapshot topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSnapshotTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishSnapshot writes one snapshot keyed by its date, so every snapshot
// of a date lands on the same partition.
func (w *Writer) PublishSnapshot(ctx context.Context, snapshot domain.Snapshot) error {
	msg, err := serializeSnapshot(snapshot)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write snapshot %s: %w", snapshot.Date, err)
	}
	w.logger.Debug("snapshot published", "date", snapshot.Date.String(), "storm_count", len(snapshot.Storms))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeSnapshot marshals a Snapshot into a Kafka message.
func serializeSnapshot(snapshot domain.Snapshot) (kafkago.Message, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize snapshot: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(snapshot.Date),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "snapshot_date", Value: []byte(snapshot.Date)},
			{Key: "storm_count", Value: []byte(strconv.Itoa(len(snapshot.Storms)))},
			{Key: "fetched_at", Value: []byte(snapshot.FetchedAt.Format(time.RFC3339))},
		},
	}, nil
}
