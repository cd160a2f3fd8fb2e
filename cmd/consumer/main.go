// Command consumer tails the quote transition topic and prints each
// event; a stand-in for downstream audit/analytics consumers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/rental-hub/rental-hub/internal/config"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config error")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		GroupID:        "quote-events-consumer",
		Topic:          cfg.KafkaTopic,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		MaxWait:        3 * time.Second,
	})
	defer func() {
		if err := r.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close kafka reader")
		}
	}()

	logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("consumer started")

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info().Msg("consumer stopped")
				return
			}
			logger.Warn().Err(err).Msg("failed to read message")
			time.Sleep(5 * time.Second)
			continue
		}
		fmt.Printf("%s partition=%d offset=%d key=%s value=%s\n",
			m.Time.Format(time.RFC3339), m.Partition, m.Offset, string(m.Key), string(m.Value))
	}
}
