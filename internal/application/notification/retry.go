package notification

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	domainNotification "github.com/rental-hub/rental-hub/internal/domain/notification"
	domainQuote "github.com/rental-hub/rental-hub/internal/domain/quote"
	"github.com/rental-hub/rental-hub/internal/infrastructure/metrics"
)

// ExhaustedFunc is invoked once when a retry record reaches the
// attempt cap without success, so operator-facing tooling can act on
// the abandonment.
type ExhaustedFunc func(rec *domainNotification.RetryRecord)

// RetryProcessor replays failed notification dispatches until success
// or exhaustion. Safe to run from overlapping sweeps: attempt
// counting is an atomic increment-and-fetch per record.
type RetryProcessor struct {
	retryRepo   domainNotification.RetryRepository
	quoteRepo   domainQuote.Repository
	dispatcher  *Dispatcher
	onExhausted ExhaustedFunc
	logger      zerolog.Logger
}

func NewRetryProcessor(
	retryRepo domainNotification.RetryRepository,
	quoteRepo domainQuote.Repository,
	dispatcher *Dispatcher,
	onExhausted ExhaustedFunc,
	logger zerolog.Logger,
) *RetryProcessor {
	return &RetryProcessor{
		retryRepo:   retryRepo,
		quoteRepo:   quoteRepo,
		dispatcher:  dispatcher,
		onExhausted: onExhausted,
		logger:      logger.With().Str("service", "retry").Logger(),
	}
}

// Drain replays every eligible retry record once. Resolved records
// are deleted; failed ones get their counter bumped. Records at the
// cap stay in place but are never selected again.
func (p *RetryProcessor) Drain(ctx context.Context, limit int) (resolved, failed int, err error) {
	if limit <= 0 {
		limit = 50
	}
	records, err := p.retryRepo.ListRetryable(ctx, domainNotification.MaxRetries, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list retryable records: %w", err)
	}

	for _, rec := range records {
		if err := p.replay(ctx, rec); err != nil {
			failed++
			p.fail(ctx, rec, err)
			continue
		}
		if err := p.retryRepo.Delete(ctx, rec.ID); err != nil {
			p.logger.Error().
				Int64("retry_id", rec.ID).
				Err(err).
				Msg("failed to delete resolved retry record")
			continue
		}
		resolved++
		p.logger.Info().
			Int64("retry_id", rec.ID).
			Str("quote_id", rec.QuoteID.String()).
			Str("status", string(rec.Status)).
			Msg("retry resolved")
	}
	return resolved, failed, nil
}

// replay re-fetches the quote and re-runs the resolution-and-send for
// the recorded status.
func (p *RetryProcessor) replay(ctx context.Context, rec *domainNotification.RetryRecord) error {
	q, err := p.quoteRepo.GetByID(ctx, rec.QuoteID)
	if err != nil {
		return fmt.Errorf("failed to load quote: %w", err)
	}
	if q == nil {
		return fmt.Errorf("%w: %s", domainQuote.ErrNotFound, rec.QuoteID)
	}
	return p.dispatcher.DispatchStatus(ctx, q, rec.Status)
}

func (p *RetryProcessor) fail(ctx context.Context, rec *domainNotification.RetryRecord, cause error) {
	count, err := p.retryRepo.IncrementRetry(ctx, rec.ID, cause.Error())
	if err != nil {
		p.logger.Error().
			Int64("retry_id", rec.ID).
			Err(err).
			Msg("failed to increment retry counter")
		return
	}

	if count >= domainNotification.MaxRetries {
		rec.RetryCount = count
		rec.LastError = cause.Error()
		metrics.RetriesExhaustedTotal.Inc()
		p.logger.Warn().
			Int64("retry_id", rec.ID).
			Str("quote_id", rec.QuoteID.String()).
			Str("status", string(rec.Status)).
			Int("retry_count", count).
			Msg("retry attempts exhausted, abandoning")
		if p.onExhausted != nil {
			p.onExhausted(rec)
		}
		return
	}

	p.logger.Warn().
		Int64("retry_id", rec.ID).
		Str("quote_id", rec.QuoteID.String()).
		Int("retry_count", count).
		Err(cause).
		Msg("retry attempt failed")
}
