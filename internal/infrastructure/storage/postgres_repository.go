package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"

	"canvascal/internal/ports"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository persists synced item IDs into Postgres. It backs the
// "N new since last run" report; the calendar file itself is regenerated in
// full every run.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.HistoryRepository = (*PostgresRepository)(nil)

// Open connects to Postgres via the pgx stdlib driver and verifies the
// connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the history table if it does not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return nil
	}

	const ddl = `CREATE TABLE IF NOT EXISTS synced_items (
        external_id TEXT PRIMARY KEY,
        kind        TEXT NOT NULL,
        synced_at   TIMESTAMPTZ NOT NULL
    )`

	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create synced_items: %w", err)
	}
	return nil
}

// AlreadyProcessed returns a map with IDs that already exist in storage.
func (r *PostgresRepository) AlreadyProcessed(ctx context.Context, ids []string) (map[string]bool, error) {
	if r.db == nil || len(ids) == 0 {
		return map[string]bool{}, nil
	}

	query, args, err := psql.
		Select("external_id").
		From("synced_items").
		Where(sq.Eq{"external_id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query processed: %w", err)
	}
	defer rows.Close()

	result := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		result[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return result, nil
}

// SaveProcessed upserts a synced item snapshot.
func (r *PostgresRepository) SaveProcessed(ctx context.Context, id, kind string, syncedAt time.Time) error {
	if r.db == nil {
		return nil
	}

	query, args, err := psql.
		Insert("synced_items").
		Columns("external_id", "kind", "synced_at").
		Values(id, kind, syncedAt).
		Suffix("ON CONFLICT (external_id) DO UPDATE SET synced_at = EXCLUDED.synced_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert processed: %w", err)
	}
	return nil
}
