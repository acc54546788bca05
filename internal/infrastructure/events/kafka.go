package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"ProcureAI/internal/config"
	"ProcureAI/internal/domain"
	"ProcureAI/internal/ports"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes lifecycle events to a topic keyed by RFP id.
type KafkaPublisher struct {
	writer messageWriter
	logger *slog.Logger
}

var _ ports.EventPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher builds a synchronous producer for the configured brokers.
func NewKafkaPublisher(cfg config.KafkaConfig, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

// Publish sends one event.
func (p *KafkaPublisher) Publish(ctx context.Context, event domain.Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.RFPID, 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event: %w", event.Type, err)
	}

	p.logger.Debug("event published", "type", event.Type, "rfp_id", event.RFPID)
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Noop discards events when no broker is configured.
type Noop struct{}

var _ ports.EventPublisher = Noop{}

func (Noop) Publish(context.Context, domain.Event) error { return nil }

// Fanout delivers each event to every publisher and joins their errors.
type Fanout []ports.EventPublisher

var _ ports.EventPublisher = Fanout(nil)

func (f Fanout) Publish(ctx context.Context, event domain.Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
