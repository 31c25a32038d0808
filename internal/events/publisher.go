// Package events bridges analytics events onto the Kafka topics other
// services consume.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/clientpulse/internal/kafka"
	"github.com/clientpulse/pkg/models"
)

// Publisher serializes analytics events and hands them to a Kafka producer.
// Events are keyed by client id so per-client ordering holds within a topic.
type Publisher struct {
	producer kafka.Producer
}

// NewPublisher creates an event publisher backed by the given producer
func NewPublisher(producer kafka.Producer) *Publisher {
	return &Publisher{producer: producer}
}

// Publish sends a single analytics event to its topic. The event type
// doubles as the topic name.
func (p *Publisher) Publish(ctx context.Context, event models.AnalyticsEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.ID, err)
	}

	var key []byte
	if event.ClientID != "" {
		key = []byte(event.ClientID)
	} else {
		key = []byte(event.ID)
	}

	if err := p.producer.Send(ctx, string(event.Type), key, data); err != nil {
		return fmt.Errorf("failed to publish event %s to %s: %w", event.ID, event.Type, err)
	}

	return nil
}

// Close closes the underlying producer
func (p *Publisher) Close() error {
	return p.producer.Close()
}
