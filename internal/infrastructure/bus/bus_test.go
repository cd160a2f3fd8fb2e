package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rental-hub/rental-hub/internal/domain/quote"
)

// collector gathers handled events in order.
type collector struct {
	mu     sync.Mutex
	events []quote.TransitionEvent
}

func (c *collector) HandleTransition(_ context.Context, ev quote.TransitionEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *collector) snapshot() []quote.TransitionEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]quote.TransitionEvent(nil), c.events...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached")
}

func TestBus(t *testing.T) {
	t.Run("delivers events to every handler in order", func(t *testing.T) {
		h1 := &collector{}
		h2 := &collector{}
		b := New(16, zerolog.Nop(), h1, h2)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go b.Run(ctx)

		q := quote.NewQuote("owner-1", "requester-1", "machine-1", "Excavator", time.Now(), time.Now().Add(time.Hour))
		statuses := []quote.Status{quote.StatusPending, quote.StatusQuoted, quote.StatusAccepted}
		for _, s := range statuses {
			b.Publish(quote.TransitionEvent{QuoteID: q.ID, To: s, Quote: q})
		}

		waitFor(t, func() bool { return len(h1.snapshot()) == 3 && len(h2.snapshot()) == 3 })
		for i, ev := range h1.snapshot() {
			assert.Equal(t, statuses[i], ev.To)
		}
	})

	t.Run("a full queue drops instead of blocking", func(t *testing.T) {
		b := New(1, zerolog.Nop()) // no handlers, no worker
		q := quote.NewQuote("owner-1", "requester-1", "machine-1", "Excavator", time.Now(), time.Now().Add(time.Hour))

		done := make(chan struct{})
		go func() {
			for i := 0; i < 10; i++ {
				b.Publish(quote.TransitionEvent{QuoteID: q.ID, To: quote.StatusPending, Quote: q})
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("publish blocked on a full queue")
		}
	})

	t.Run("run stops on context cancel", func(t *testing.T) {
		h := &collector{}
		b := New(16, zerolog.Nop(), h)
		ctx, cancel := context.WithCancel(context.Background())

		stopped := make(chan struct{})
		go func() {
			b.Run(ctx)
			close(stopped)
		}()
		cancel()

		select {
		case <-stopped:
		case <-time.After(time.Second):
			t.Fatal("worker did not stop")
		}
		require.Empty(t, h.snapshot())
	})
}
