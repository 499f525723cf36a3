// Package repository defines the storage interfaces consumed by the sync
// engine. The postgres package provides the production implementations;
// tests substitute in-memory fakes.
package repository

import (
	"context"
	"time"

	"github.com/opennode-labs/fieldnode/internal/domain"
)

// ExportStore is the read-only view the export reader works against.
type ExportStore interface {
	// Summary counts the records of kind with updated_at > since (all
	// records when since is nil) and reports their latest update.
	Summary(ctx context.Context, kind string, since *time.Time) (domain.EntitySummary, error)

	// Page returns one page of kind ordered by primary key, plus the total
	// record count for the since filter. data is the typed slice for the
	// kind ([]domain.CatalogEntry, []domain.Subject, ...).
	Page(ctx context.Context, kind string, since *time.Time, limit, offset int) (data any, total int, err error)

	// FileSummary summarizes recordings that carry a file payload.
	FileSummary(ctx context.Context, since *time.Time) (domain.FileSummary, error)

	// GetRecording fetches one recording's metadata, or nil if absent.
	GetRecording(ctx context.Context, id string) (*domain.Recording, error)
}

// ImportTx is the transactional write surface of one import attempt. All
// upserts apply "newer wins": a row is only overwritten when the incoming
// updated_at is strictly greater than the stored one.
type ImportTx interface {
	CreateAttempt(ctx context.Context, remoteNodeID string) (int64, error)
	CompleteAttempt(ctx context.Context, id int64, watermark time.Time, counts map[string]int, missingFiles []string) error

	UpsertCatalog(ctx context.Context, kind string, entries []domain.CatalogEntry) (int, error)
	UpsertSubjects(ctx context.Context, subjects []domain.Subject) (int, error)
	// UpsertProjects re-points owner_node_id at localNodeID: imported
	// projects belong to the importing node, not the remote one.
	UpsertProjects(ctx context.Context, projects []domain.Project, localNodeID string) (int, error)
	UpsertSessions(ctx context.Context, sessions []domain.Session) (int, error)
	UpsertRecordings(ctx context.Context, recordings []domain.Recording) (int, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// ImportStore opens import transactions and records failures outside them.
type ImportStore interface {
	Begin(ctx context.Context) (ImportTx, error)

	// RecordFailure durably writes a failed attempt row. It must run on a
	// fresh connection, never inside a rolled-back transaction, so the
	// failure stays visible after the entity writes are undone.
	RecordFailure(ctx context.Context, remoteNodeID string, startedAt time.Time, errMsg string) error
}

// Attempts is the read side of the sync audit log.
type Attempts interface {
	// LastCompletedWatermark returns the watermark of the most recent
	// completed attempt for the remote node, or nil when none exists.
	LastCompletedWatermark(ctx context.Context, remoteNodeID string) (*time.Time, error)

	List(ctx context.Context, remoteNodeID string, page, pageSize int) ([]domain.SyncAttempt, int, error)
}
