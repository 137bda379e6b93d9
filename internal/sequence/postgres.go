package sequence

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresAllocator keeps one counter row per day in day_counters.
type PostgresAllocator struct {
	db rowQuerier
}

func NewPostgresAllocator(pool *pgxpool.Pool) *PostgresAllocator {
	if pool == nil {
		panic("sequence: pgx pool required")
	}
	return &PostgresAllocator{db: pool}
}

func newPostgresAllocatorWithQuerier(db rowQuerier) *PostgresAllocator {
	if db == nil {
		panic("sequence: querier required")
	}
	return &PostgresAllocator{db: db}
}

const nextSeqQuery = `
	INSERT INTO day_counters (date_key, seq, updated_at)
	VALUES ($1, 1, now())
	ON CONFLICT (date_key)
	DO UPDATE SET seq = day_counters.seq + 1, updated_at = now()
	RETURNING seq
`

func (a *PostgresAllocator) Allocate(ctx context.Context, forDate time.Time) (string, error) {
	key := DayKey(forDate)
	var seq int64
	if err := a.db.QueryRow(ctx, nextSeqQuery, key).Scan(&seq); err != nil {
		return "", unavailable("postgres", err)
	}
	return Format(key, seq), nil
}
