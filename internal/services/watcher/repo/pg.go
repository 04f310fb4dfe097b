package repo

import (
	"context"

	perr "mintwatch/internal/platform/errors"
	"mintwatch/internal/services/watcher/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the slice of pgxpool.Pool the PG store needs
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const (
	pgSchema = `
CREATE TABLE IF NOT EXISTS mint_records (
	id           BIGSERIAL PRIMARY KEY,
	source_url   TEXT NOT NULL,
	signature    TEXT NOT NULL,
	mint_address TEXT NOT NULL,
	recorded_at  TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

	pgInsert = `
INSERT INTO mint_records (source_url, signature, mint_address, recorded_at)
VALUES ($1, $2, $3, $4)`

	pgList = `
SELECT source_url, signature, mint_address, recorded_at
FROM mint_records
ORDER BY id`
)

// PG keeps records in the mint_records table; id order is append order
type PG struct {
	q Querier
}

var _ domain.RecordStore = (*PG)(nil)

// NewPG ensures the table exists and returns the store
func NewPG(ctx context.Context, q Querier) (*PG, error) {
	if _, err := q.Exec(ctx, pgSchema); err != nil {
		return nil, perr.FromPG(err, "create mint_records")
	}
	return &PG{q: q}, nil
}

// Append inserts rec as the newest row
func (p *PG) Append(ctx context.Context, rec domain.ResultRecord) error {
	_, err := p.q.Exec(ctx, pgInsert, rec.SourceURL, rec.Signature, rec.MintAddress, rec.Timestamp)
	return perr.FromPG(err, "insert mint record")
}

// List returns every record in insertion order
func (p *PG) List(ctx context.Context) ([]domain.ResultRecord, error) {
	rows, err := p.q.Query(ctx, pgList)
	if err != nil {
		return nil, perr.FromPG(err, "list mint records")
	}
	defer rows.Close()

	out := []domain.ResultRecord{}
	for rows.Next() {
		var r domain.ResultRecord
		if err := rows.Scan(&r.SourceURL, &r.Signature, &r.MintAddress, &r.Timestamp); err != nil {
			return nil, perr.FromPG(err, "scan mint record")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, perr.FromPG(err, "iterate mint records")
	}
	return out, nil
}
