// Package kafka mirrors delivered notifications to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	skafka "github.com/segmentio/kafka-go"

	"github.com/jingally/booking-system/internal/core/domain"
)

// Writer is the subset of kafka.Writer the producer needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

// Producer publishes JSON values keyed by a string.
type Producer struct {
	writer Writer
}

// NewProducer writes to topic on the given brokers.
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{writer: &skafka.Writer{
		Addr:         skafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &skafka.LeastBytes{},
		RequiredAcks: skafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}}
}

func NewProducerWithWriter(w Writer) *Producer {
	return &Producer{writer: w}
}

// Publish marshals value to JSON and writes it under key.
func (p *Producer) Publish(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal kafka value: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, skafka.Message{Key: []byte(key), Value: b}); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// NotificationEvent is the record published for each delivered notification.
type NotificationEvent struct {
	MessageID      string    `json:"messageId"`
	Kind           string    `json:"kind"`
	ShipmentID     string    `json:"shipmentId,omitempty"`
	TrackingNumber string    `json:"trackingNumber,omitempty"`
	Recipient      string    `json:"recipient"`
	Subject        string    `json:"subject"`
	Attempts       int       `json:"attempts"`
	DeliveredAt    time.Time `json:"deliveredAt"`
}

// NotificationMirror publishes NotificationEvents keyed by shard key so
// consumers see one shipment's notifications in order.
type NotificationMirror struct {
	producer *Producer
}

func NewNotificationMirror(p *Producer) *NotificationMirror {
	return &NotificationMirror{producer: p}
}

func (m *NotificationMirror) Mirror(ctx context.Context, msg *domain.OutboxMessage, deliveredAt time.Time) error {
	return m.producer.Publish(ctx, msg.ShardKey(), NotificationEvent{
		MessageID:      msg.ID,
		Kind:           string(msg.Kind),
		ShipmentID:     msg.ShipmentID,
		TrackingNumber: msg.TrackingNumber,
		Recipient:      msg.Recipient,
		Subject:        msg.Subject,
		Attempts:       msg.Attempts + 1,
		DeliveredAt:    deliveredAt.UTC(),
	})
}

func (m *NotificationMirror) Close() error {
	return m.producer.Close()
}
