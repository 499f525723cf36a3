package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opennode-labs/fieldnode/internal/domain"
	"github.com/opennode-labs/fieldnode/internal/repository"
)

// Store bundles the pool-backed repositories and opens import transactions.
// It satisfies repository.ExportStore, repository.ImportStore and
// repository.Attempts.
type Store struct {
	pool *pgxpool.Pool
	*SyncRepository
	*AttemptRepository
}

// NewStore creates a Store over the connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:              pool,
		SyncRepository:    NewSyncRepository(pool),
		AttemptRepository: NewAttemptRepository(pool),
	}
}

// Begin opens the single transaction an import runs inside.
func (s *Store) Begin(ctx context.Context) (repository.ImportTx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin import transaction: %w", err)
	}
	return &importTx{
		tx:       tx,
		repo:     NewSyncRepository(tx),
		attempts: NewAttemptRepository(tx),
	}, nil
}

// importTx routes the repository calls of one import through a pgx
// transaction. Commit or Rollback ends it.
type importTx struct {
	tx       pgx.Tx
	repo     *SyncRepository
	attempts *AttemptRepository
}

func (t *importTx) CreateAttempt(ctx context.Context, remoteNodeID string) (int64, error) {
	return t.attempts.CreateAttempt(ctx, remoteNodeID)
}

func (t *importTx) CompleteAttempt(ctx context.Context, id int64, watermark time.Time, counts map[string]int, missingFiles []string) error {
	return t.attempts.CompleteAttempt(ctx, id, watermark, counts, missingFiles)
}

func (t *importTx) UpsertCatalog(ctx context.Context, kind string, entries []domain.CatalogEntry) (int, error) {
	return t.repo.UpsertCatalog(ctx, kind, entries)
}

func (t *importTx) UpsertSubjects(ctx context.Context, subjects []domain.Subject) (int, error) {
	return t.repo.UpsertSubjects(ctx, subjects)
}

func (t *importTx) UpsertProjects(ctx context.Context, projects []domain.Project, localNodeID string) (int, error) {
	return t.repo.UpsertProjects(ctx, projects, localNodeID)
}

func (t *importTx) UpsertSessions(ctx context.Context, sessions []domain.Session) (int, error) {
	return t.repo.UpsertSessions(ctx, sessions)
}

func (t *importTx) UpsertRecordings(ctx context.Context, recordings []domain.Recording) (int, error) {
	return t.repo.UpsertRecordings(ctx, recordings)
}

func (t *importTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *importTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
