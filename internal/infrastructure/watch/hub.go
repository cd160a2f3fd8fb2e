// Package watch maintains live, ordered views of a user's quotes.
// Every matching change re-queries the store and pushes the full
// re-sorted snapshot to subscribers; consumers replace their local
// view wholesale on each emission.
package watch

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rental-hub/rental-hub/internal/domain/quote"
	"github.com/rental-hub/rental-hub/internal/infrastructure/metrics"
)

const snapshotBuffer = 16

type streamKey struct {
	userID string
	role   quote.Role
}

// Subscription is one live snapshot stream. C carries full snapshots,
// newest quote first. Cancel stops the stream; no emission follows.
type Subscription struct {
	C <-chan []*quote.Quote

	id     string
	key    streamKey
	hub    *Hub
	ch     chan []*quote.Quote
	closed bool
}

// Cancel tears the subscription down. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.hub.unsubscribe(s)
}

// Hub fans re-queried snapshots out to subscription streams.
type Hub struct {
	mu     sync.RWMutex
	subs   map[streamKey]map[string]*Subscription
	repo   quote.Repository
	logger zerolog.Logger
}

func NewHub(repo quote.Repository, logger zerolog.Logger) *Hub {
	return &Hub{
		subs:   make(map[streamKey]map[string]*Subscription),
		repo:   repo,
		logger: logger.With().Str("component", "watch").Logger(),
	}
}

// Subscribe opens a stream of quote snapshots for (userID, role) and
// emits the current snapshot immediately.
func (h *Hub) Subscribe(ctx context.Context, userID string, role quote.Role) *Subscription {
	key := streamKey{userID: userID, role: role}
	sub := &Subscription{
		id:  uuid.New().String(),
		key: key,
		hub: h,
		ch:  make(chan []*quote.Quote, snapshotBuffer),
	}
	sub.C = sub.ch

	h.mu.Lock()
	if h.subs[key] == nil {
		h.subs[key] = make(map[string]*Subscription)
	}
	h.subs[key][sub.id] = sub
	h.mu.Unlock()
	metrics.SubscribersGauge.Inc()

	if snapshot, err := h.query(ctx, key); err == nil {
		h.send(sub, snapshot)
	} else {
		h.logger.Warn().Str("user_id", userID).Str("role", string(role)).Err(err).Msg("initial snapshot query failed")
	}
	return sub
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub.closed {
		return
	}
	sub.closed = true
	if m := h.subs[sub.key]; m != nil {
		delete(m, sub.id)
		if len(m) == 0 {
			delete(h.subs, sub.key)
		}
	}
	close(sub.ch)
	metrics.SubscribersGauge.Dec()
}

// HandleTransition re-publishes snapshots to both parties' streams.
// Called from the single bus worker, which gives per-stream ordering.
func (h *Hub) HandleTransition(ctx context.Context, ev quote.TransitionEvent) {
	h.QuoteChanged(ctx, ev.Quote)
}

// QuoteChanged refreshes every stream the changed quote belongs to.
func (h *Hub) QuoteChanged(ctx context.Context, q *quote.Quote) {
	keys := []streamKey{
		{userID: q.OwnerID, role: quote.RoleOwner},
		{userID: q.RequesterID, role: quote.RoleRequester},
	}
	for _, key := range keys {
		h.mu.RLock()
		targets := make([]*Subscription, 0, len(h.subs[key]))
		for _, sub := range h.subs[key] {
			targets = append(targets, sub)
		}
		h.mu.RUnlock()
		if len(targets) == 0 {
			continue
		}

		snapshot, err := h.query(ctx, key)
		if err != nil {
			h.logger.Warn().
				Str("user_id", key.userID).
				Str("role", string(key.role)).
				Err(err).
				Msg("snapshot query failed, emission skipped")
			continue
		}
		for _, sub := range targets {
			h.send(sub, snapshot)
		}
	}
}

func (h *Hub) query(ctx context.Context, key streamKey) ([]*quote.Quote, error) {
	if key.role == quote.RoleOwner {
		return h.repo.ListByOwner(ctx, key.userID)
	}
	return h.repo.ListByRequester(ctx, key.userID)
}

// send delivers a snapshot without blocking. Under back-pressure the
// oldest buffered snapshot is discarded: each emission is
// authoritative, so only the latest matters.
func (h *Hub) send(sub *Subscription, snapshot []*quote.Quote) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if sub.closed {
		return
	}
	for {
		select {
		case sub.ch <- snapshot:
			return
		default:
			select {
			case <-sub.ch:
			default:
			}
		}
	}
}

// SubscriberCount returns the number of live streams.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, m := range h.subs {
		n += len(m)
	}
	return n
}
