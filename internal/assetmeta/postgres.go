package assetmeta

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS assets (
	id           BIGSERIAL PRIMARY KEY,
	path         TEXT NOT NULL,
	filename     TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	content_type TEXT,
	size_bytes   BIGINT,
	upload_token TEXT,
	status       TEXT NOT NULL DEFAULT 'pending_upload',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_assets_user_id ON assets(user_id);
`

const insertSQL = `
INSERT INTO assets (path, filename, user_id, content_type, size_bytes, upload_token, status)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at`

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres writes rows straight into a Postgres database.
type Postgres struct {
	db querier
}

var _ Store = (*Postgres)(nil)

// OpenPool connects to dsn and verifies the connection.
func OpenPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("assetmeta: parse dsn: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("assetmeta: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("assetmeta: ping: %w", err)
	}
	return pool, nil
}

// NewPostgres returns a sink over db.
func NewPostgres(db querier) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the assets table when it does not exist.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("assetmeta: apply schema: %w", err)
	}
	return nil
}

type storedRow struct {
	ID int64 `json:"id"`
	Metadata
	CreatedAt time.Time `json:"created_at"`
}

// Insert implements Store.
func (s *Postgres) Insert(ctx context.Context, m Metadata) (json.RawMessage, error) {
	row := storedRow{Metadata: m}
	err := s.db.QueryRow(ctx, insertSQL,
		m.Path, m.Filename, m.UserID, m.ContentType, m.SizeBytes, m.UploadToken, m.Status,
	).Scan(&row.ID, &row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("assetmeta: insert: %w", err)
	}
	b, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("assetmeta: encode row: %w", err)
	}
	return b, nil
}
