package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx used by the repositories. Both
// *pgxpool.Pool and pgx.Tx satisfy it, so the same repository code serves
// plain reads and the single-transaction import path.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SyncRepository holds the queries for the syncable entity tables.
type SyncRepository struct {
	db Querier
}

// NewSyncRepository creates a SyncRepository over a pool or transaction.
func NewSyncRepository(db Querier) *SyncRepository {
	return &SyncRepository{db: db}
}
