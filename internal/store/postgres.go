package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// snapshotRowID is the primary key of the single row holding the document.
const snapshotRowID = 1

// PostgresBackend stores the document as jsonb in the consent_snapshots
// table (see migrations/001_consent_snapshots.sql). Each write is one upsert.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend takes ownership of pool; Close closes it.
func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

func (b *PostgresBackend) Name() string { return "postgres" }

// Pool exposes the connection pool for health checks.
func (b *PostgresBackend) Pool() *pgxpool.Pool { return b.pool }

func (b *PostgresBackend) Read(ctx context.Context) ([]byte, error) {
	var doc []byte
	err := b.pool.QueryRow(ctx,
		`SELECT document FROM consent_snapshots WHERE id = $1`, snapshotRowID,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("select snapshot: %w", err)
	}
	return doc, nil
}

func (b *PostgresBackend) Write(ctx context.Context, data []byte) error {
	_, err := b.pool.Exec(ctx, `
		INSERT INTO consent_snapshots (id, document, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = NOW()`,
		snapshotRowID, data,
	)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Close() error {
	b.pool.Close()
	return nil
}
