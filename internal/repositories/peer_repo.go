package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/voxchat/voxgate/internal/models"
)

type PostgresPeerRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresPeerRepository(pool *pgxpool.Pool) *PostgresPeerRepository {
	return &PostgresPeerRepository{pool: pool}
}

func (r *PostgresPeerRepository) GetByDomain(ctx context.Context, domain string) (*models.FederationPeer, error) {
	query := `SELECT domain, shared_secret, blocked, created_at
	          FROM federation_peers
	          WHERE domain = $1`

	var peer models.FederationPeer
	err := r.pool.QueryRow(ctx, query, domain).Scan(
		&peer.Domain,
		&peer.SharedSecret,
		&peer.Blocked,
		&peer.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get peer: %w", err)
	}
	return &peer, nil
}

// IsBlocked distinguishes an explicit block entry from a plain unknown
// domain. An unknown domain is not blocked, just not allowed.
func (r *PostgresPeerRepository) IsBlocked(ctx context.Context, domain string) (bool, error) {
	query := `SELECT blocked FROM federation_peers WHERE domain = $1`

	var blocked bool
	err := r.pool.QueryRow(ctx, query, domain).Scan(&blocked)

	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check block list: %w", err)
	}
	return blocked, nil
}
