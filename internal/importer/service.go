// Package importer applies a pulled snapshot to the local node. All entity
// writes of one import run inside a single database transaction, applied in
// dependency order so foreign keys resolve; recording payloads are staged on
// disk and only promoted once the transaction commits.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/opennode-labs/fieldnode/internal/domain"
	"github.com/opennode-labs/fieldnode/internal/repository"
)

// BlobStager is the staging surface of the blob store.
type BlobStager interface {
	Stage(id string, data []byte) error
	Promote(ids []string) error
	Discard(ids []string)
}

// Service applies snapshots.
type Service struct {
	store       repository.ImportStore
	blobs       BlobStager
	localNodeID string
	log         *slog.Logger
}

// NewService creates an importer. localNodeID is the id imported projects
// are re-owned to.
func NewService(store repository.ImportStore, blobs BlobStager, localNodeID string) *Service {
	return &Service{
		store:       store,
		blobs:       blobs,
		localNodeID: localNodeID,
		log:         slog.Default(),
	}
}

// Import applies snapshot inside one transaction and returns the number of
// rows actually applied per kind. Every upsert is newer-wins, so re-importing
// an identical snapshot applies zero rows. On any error the transaction is
// rolled back and staged payloads are discarded; nothing partial survives.
func (s *Service) Import(ctx context.Context, snapshot *domain.Snapshot, remoteNodeID string) (map[string]int, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start import: %w", err)
	}

	staged := []string{}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.log.Error("import rollback failed", "error", rbErr)
			}
			s.blobs.Discard(staged)
		}
	}()

	attemptID, err := tx.CreateAttempt(ctx, remoteNodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to open sync attempt: %w", err)
	}

	applied := make(map[string]int, len(domain.KindOrder))
	for _, kind := range domain.KindOrder {
		n, err := s.applyKind(ctx, tx, snapshot, kind)
		if err != nil {
			return nil, fmt.Errorf("failed to apply %s: %w", kind, err)
		}
		applied[kind] = n
	}

	for _, file := range snapshot.Files {
		if err := s.blobs.Stage(file.RecordingID, file.Data); err != nil {
			return nil, fmt.Errorf("failed to stage recording file: %w", err)
		}
		staged = append(staged, file.RecordingID)
	}

	if err := tx.CompleteAttempt(ctx, attemptID, snapshot.GeneratedAt, applied, snapshot.MissingFiles); err != nil {
		return nil, fmt.Errorf("failed to complete sync attempt: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}
	committed = true

	if err := s.blobs.Promote(staged); err != nil {
		// The metadata is already committed; the payloads can be re-pulled.
		s.log.Error("failed to promote staged recording files", "error", err)
	}

	s.log.Info("import applied",
		"remote_node_id", remoteNodeID,
		"attempt_id", attemptID,
		"files", len(staged),
		"missing_files", len(snapshot.MissingFiles))

	return applied, nil
}

func (s *Service) applyKind(ctx context.Context, tx repository.ImportTx, snapshot *domain.Snapshot, kind string) (int, error) {
	if domain.IsCatalogKind(kind) {
		return tx.UpsertCatalog(ctx, kind, snapshot.Catalog[kind])
	}
	switch kind {
	case domain.KindSubjects:
		return tx.UpsertSubjects(ctx, snapshot.Subjects)
	case domain.KindProjects:
		return tx.UpsertProjects(ctx, snapshot.Projects, s.localNodeID)
	case domain.KindSessions:
		return tx.UpsertSessions(ctx, snapshot.Sessions)
	case domain.KindRecordings:
		return tx.UpsertRecordings(ctx, snapshot.Recordings)
	}
	return 0, fmt.Errorf("%w: %s", domain.ErrUnknownKind, kind)
}

// RecordFailure writes a failed attempt row outside any transaction. The
// pull orchestrator calls it after a rollback (or after a failure in an
// earlier stage) so the audit log keeps the attempt even though the entity
// writes are gone.
func (s *Service) RecordFailure(ctx context.Context, remoteNodeID string, startedAt time.Time, errMsg string) error {
	return s.store.RecordFailure(ctx, remoteNodeID, startedAt, errMsg)
}
