package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBackend stores documents in the metadata_records table created by
// migrations/000001_create_metadata_records.up.sql.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend creates a new PostgresBackend.
func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

// Upsert inserts the document or replaces the one with the same id. The original
// insertion position (seq) is kept on replace.
func (b *PostgresBackend) Upsert(ctx context.Context, doc Document) error {
	_, err := b.pool.Exec(ctx,
		`INSERT INTO metadata_records (id, type, email, metadata)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET type = EXCLUDED.type,
		     email = EXCLUDED.email,
		     metadata = EXCLUDED.metadata,
		     updated_at = CURRENT_TIMESTAMP`,
		doc.ID, string(doc.Type), doc.Email, []byte(doc.Metadata),
	)
	return err
}

// Query returns matching documents ordered by first insertion.
func (b *PostgresBackend) Query(ctx context.Context, q Query) ([]Document, error) {
	rows, err := b.pool.Query(ctx,
		`SELECT id, type, email, metadata
		 FROM metadata_records
		 WHERE type = $1 AND ($2 = '' OR email = $2)
		 ORDER BY seq
		 LIMIT $3`,
		string(q.Type), q.Email, q.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			d       Document
			typ     string
			payload []byte
		)
		if err := rows.Scan(&d.ID, &typ, &d.Email, &payload); err != nil {
			return nil, err
		}
		d.Type = RecordType(typ)
		d.Metadata = payload
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Ping checks the pool can reach the database.
func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}
