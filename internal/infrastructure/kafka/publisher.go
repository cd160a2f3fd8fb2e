// Package kafka mirrors applied transitions onto a durable topic for
// downstream consumers (audit, analytics). The stream is best-effort
// and sits behind the in-process bus, never on the transition path.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/rental-hub/rental-hub/internal/domain/quote"
)

// Publisher writes transition events to one Kafka topic, keyed by
// quote id so a partition preserves per-quote order.
type Publisher struct {
	writer *kafkago.Writer
	logger zerolog.Logger
}

func NewPublisher(brokers []string, topic string, logger zerolog.Logger) *Publisher {
	return &Publisher{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.Hash{},
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafkago.RequireOne,
		},
		logger: logger.With().Str("component", "kafka").Logger(),
	}
}

func (p *Publisher) HandleTransition(ctx context.Context, ev quote.TransitionEvent) {
	value, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to marshal transition event")
		return
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(ev.QuoteID.String()),
		Value: value,
	})
	if err != nil {
		p.logger.Warn().
			Str("quote_id", ev.QuoteID.String()).
			Str("to_status", string(ev.To)).
			Err(err).
			Msg("failed to publish transition event")
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
