// Package kafka publishes normalized measurement records to a Kafka topic
// for downstream consumers that want a stream instead of the Parquet
// datasets. Publishing is optional; the pipeline runs without it.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/climatehub/dwd-cdc-etl/internal/domain"
)

// Publisher produces measurement messages to a Kafka topic.
// It implements pipeline.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the given brokers and topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishMeasurements serializes and publishes a batch of records in a
// single WriteMessages call. Records are keyed by station id so all
// messages for one station land on the same partition.
func (p *Publisher) PublishMeasurements(ctx context.Context, resolution, parameter string, records []domain.MeasurementRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(resolution, parameter, records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	p.logger.Debug("publishing measurements", "count", len(msgs))
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a MeasurementRecord into a Kafka message.
func serializeToMessage(resolution, parameter string, rec domain.MeasurementRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize measurement record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.StationID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "resolution", Value: []byte(resolution)},
			{Key: "parameter", Value: []byte(parameter)},
		},
	}, nil
}
