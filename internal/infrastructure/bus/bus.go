// Package bus decouples quote state mutation from its side effects.
// Transitions are published to an in-process queue; a single worker
// hands them to the registered handlers in publish order, so the
// notification fan-out and subscription snapshots never sit on the
// transition's critical path.
package bus

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rental-hub/rental-hub/internal/domain/quote"
)

// Handler consumes transition events. Handlers own their failure
// handling; errors never travel back to the publisher.
type Handler interface {
	HandleTransition(ctx context.Context, ev quote.TransitionEvent)
}

// Bus is a bounded in-process transition queue with one worker.
type Bus struct {
	ch       chan quote.TransitionEvent
	handlers []Handler
	logger   zerolog.Logger
}

func New(buffer int, logger zerolog.Logger, handlers ...Handler) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	return &Bus{
		ch:       make(chan quote.TransitionEvent, buffer),
		handlers: handlers,
		logger:   logger.With().Str("component", "bus").Logger(),
	}
}

// Publish enqueues an event without blocking. A full queue drops the
// event and logs; the retry sweep will not see it, so the buffer is
// sized generously in wiring.
func (b *Bus) Publish(ev quote.TransitionEvent) {
	select {
	case b.ch <- ev:
	default:
		b.logger.Error().
			Str("quote_id", ev.QuoteID.String()).
			Str("to_status", string(ev.To)).
			Msg("transition queue full, event dropped")
	}
}

// Run consumes events until ctx is done. It must be called from
// exactly one goroutine to preserve per-quote ordering.
func (b *Bus) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-b.ch:
			for _, h := range b.handlers {
				h.HandleTransition(ctx, ev)
			}
		}
	}
}
