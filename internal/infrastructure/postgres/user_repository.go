package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rental-hub/rental-hub/internal/domain/user"
)

// UserRepository implements user.Directory against the users table.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) GetContact(ctx context.Context, userID string) (*user.Contact, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, display_name, email, push_token FROM users WHERE id=$1
	`, userID)
	var c user.Contact
	if err := row.Scan(&c.ID, &c.DisplayName, &c.Email, &c.PushToken); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
