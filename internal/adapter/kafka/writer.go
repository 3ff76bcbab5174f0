// Package kafka publishes completed output records to a Kafka topic so
// downstream consumers (dashboards, aggregation jobs) can pick up loss
// results without polling for output files. Publishing is best-effort and
// never fails a run.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Niyamit/hazus/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces output records to a Kafka topic. It implements the
// pipeline's Sink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured results topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishBatch serializes and publishes output records in a single
// WriteMessages call.
func (w *Writer) PublishBatch(ctx context.Context, runID string, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(runID, records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a record into a Kafka message keyed by the
// run ID, with one JSON object of column name to raw value.
func serializeToMessage(runID string, rec domain.Record) (kafkago.Message, error) {
	payload := make(map[string]string, len(rec.Columns()))
	for _, col := range rec.Columns() {
		v, _ := rec.Get(col)
		payload[col] = v
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize output record: %w", err)
	}

	grid, _ := rec.Get(domain.ColGridName)
	return kafkago.Message{
		Key:   []byte(runID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "grid_name", Value: []byte(grid)},
		},
	}, nil
}
