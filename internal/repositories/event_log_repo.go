package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/voxchat/voxgate/internal/models"
)

var ErrNotFound = errors.New("not found")

type PostgresEventLogRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresEventLogRepository(pool *pgxpool.Pool) *PostgresEventLogRepository {
	return &PostgresEventLogRepository{pool: pool}
}

// Append stores a log entry under its pre-assigned id. Ids come from the
// sync service's generator; the table never assigns its own.
func (r *PostgresEventLogRepository) Append(ctx context.Context, entry *models.EventLogEntry) error {
	query := `INSERT INTO event_log (id, event_type, payload, created_at)
	          VALUES ($1, $2, $3, $4)`

	_, err := r.pool.Exec(ctx, query, entry.ID, entry.EventType, entry.Payload, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *PostgresEventLogRepository) GetByID(ctx context.Context, id int64) (*models.EventLogEntry, error) {
	query := `SELECT id, event_type, payload, created_at FROM event_log WHERE id = $1`

	var entry models.EventLogEntry
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&entry.ID,
		&entry.EventType,
		&entry.Payload,
		&entry.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &entry, nil
}

// Query returns entries oldest-first. When q.After is set the cursor
// predicate (id > after) replaces the timestamp one; q.Since is a Unix
// seconds lower bound otherwise. Empty categories means all types.
func (r *PostgresEventLogRepository) Query(ctx context.Context, q EventLogQuery) ([]*models.EventLogEntry, error) {
	query := `SELECT id, event_type, payload, created_at FROM event_log WHERE `
	args := []any{}

	if q.After > 0 {
		args = append(args, q.After)
		query += fmt.Sprintf("id > $%d", len(args))
	} else {
		args = append(args, q.Since)
		query += fmt.Sprintf("created_at >= to_timestamp($%d)", len(args))
	}

	if len(q.Categories) > 0 {
		args = append(args, q.Categories)
		query += fmt.Sprintf(" AND event_type = ANY($%d)", len(args))
	}

	args = append(args, q.Limit)
	query += fmt.Sprintf(" ORDER BY id ASC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var entries []*models.EventLogEntry
	for rows.Next() {
		var entry models.EventLogEntry
		err := rows.Scan(
			&entry.ID,
			&entry.EventType,
			&entry.Payload,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return entries, nil
}
