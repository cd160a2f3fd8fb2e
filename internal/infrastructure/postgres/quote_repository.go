package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rental-hub/rental-hub/internal/domain/quote"
)

const quoteColumns = `id, owner_id, requester_id, machine_id, machine_name, photo_urls, start_date, end_date, purpose, location, value, message, status, return_type, return_notes, created_at, updated_at`

// QuoteRepository implements quote.Repository.
type QuoteRepository struct {
	pool *pgxpool.Pool
}

func NewQuoteRepository(pool *pgxpool.Pool) *QuoteRepository {
	return &QuoteRepository{pool: pool}
}

func (r *QuoteRepository) Create(ctx context.Context, q *quote.Quote) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO quotes
		(`+quoteColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`, q.ID, q.OwnerID, q.RequesterID, q.MachineID, q.MachineName, q.PhotoURLs, q.StartDate, q.EndDate, q.Purpose, q.Location, q.Value, q.Message, q.Status, q.ReturnType, q.ReturnNotes, q.CreatedAt, q.UpdatedAt)
	return err
}

func (r *QuoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*quote.Quote, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+quoteColumns+` FROM quotes WHERE id=$1
	`, id)
	return scanQuote(row)
}

func (r *QuoteRepository) ListByOwner(ctx context.Context, ownerID string) ([]*quote.Quote, error) {
	return r.list(ctx, `
		SELECT `+quoteColumns+` FROM quotes WHERE owner_id=$1 ORDER BY created_at DESC
	`, ownerID)
}

func (r *QuoteRepository) ListByRequester(ctx context.Context, requesterID string) ([]*quote.Quote, error) {
	return r.list(ctx, `
		SELECT `+quoteColumns+` FROM quotes WHERE requester_id=$1 ORDER BY created_at DESC
	`, requesterID)
}

func (r *QuoteRepository) UpdateTransition(ctx context.Context, q *quote.Quote) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE quotes
		SET status=$1, value=$2, message=$3, return_type=$4, return_notes=$5, updated_at=$6
		WHERE id=$7
	`, q.Status, q.Value, q.Message, q.ReturnType, q.ReturnNotes, q.UpdatedAt, q.ID)
	return err
}

func (r *QuoteRepository) list(ctx context.Context, query string, args ...interface{}) ([]*quote.Quote, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*quote.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func scanQuote(row pgx.Row) (*quote.Quote, error) {
	var q quote.Quote
	if err := row.Scan(&q.ID, &q.OwnerID, &q.RequesterID, &q.MachineID, &q.MachineName, &q.PhotoURLs, &q.StartDate, &q.EndDate, &q.Purpose, &q.Location, &q.Value, &q.Message, &q.Status, &q.ReturnType, &q.ReturnNotes, &q.CreatedAt, &q.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}
