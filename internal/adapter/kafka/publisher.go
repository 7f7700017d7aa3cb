// Package kafka publishes alert events for downstream consumers (SMS
// gateways, audit trails). The publisher is feature-flagged; without
// brokers configured the fan-out simply leaves it out.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/air-quality-monitor/internal/domain"
)

// Publisher produces alert events to a Kafka topic.
// It implements domain.Notifier.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the alert topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// SendAlert serializes and publishes one alert event. The subscriber email
// keys the message so alerts for one subscriber stay ordered.
func (p *Publisher) SendAlert(ctx context.Context, alert domain.Alert) error {
	msg, err := serializeToMessage(alert)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish alert event: %w", err)
	}
	p.logger.Info("alert event published", "topic", p.writer.Topic, "aqi", alert.Reading.Value)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an Alert into a Kafka message.
func serializeToMessage(alert domain.Alert) (kafkago.Message, error) {
	data, err := json.Marshal(alert)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(alert.Subscription.Email),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "category", Value: []byte(alert.Reading.Category)},
			{Key: "triggered_at", Value: []byte(alert.Reading.Timestamp.Format(time.RFC3339))},
		},
	}, nil
}
