package kafka

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/clientpulse/internal/config"
)

// Producer defines the interface for Kafka message production
type Producer interface {
	Send(ctx context.Context, topic string, key []byte, value []byte) error
	Close() error
}

// kafkaProducer implements the Producer interface
type kafkaProducer struct {
	writer       *kafka.Writer
	defaultTopic string
	mu           sync.Mutex
	closed       bool
}

// NewProducer creates a new Kafka producer. The configured topic is the
// fallback for sends that do not name one; the writer itself carries no
// topic because kafka-go rejects messages that set a topic when the
// writer already has one.
func NewProducer(cfg config.KafkaConfig) (Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrInvalidBrokers
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Compression:  kafka.Gzip,
		RequiredAcks: kafka.RequireAll,
	}

	return &kafkaProducer{
		writer:       writer,
		defaultTopic: cfg.Topic,
		closed:       false,
	}, nil
}

// Send sends a message to Kafka
func (p *kafkaProducer) Send(ctx context.Context, topic string, key []byte, value []byte) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrProducerClosed
	}
	p.mu.Unlock()

	message, err := p.buildMessage(topic, key, value)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, message)
}

// buildMessage resolves the destination topic for a send.
func (p *kafkaProducer) buildMessage(topic string, key []byte, value []byte) (kafka.Message, error) {
	if topic == "" {
		topic = p.defaultTopic
	}
	if topic == "" {
		return kafka.Message{}, ErrInvalidTopic
	}

	return kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	}, nil
}

// Close closes the producer
func (p *kafkaProducer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true
	return p.writer.Close()
}
