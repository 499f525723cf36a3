package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/opennode-labs/fieldnode/internal/domain"
)

// AttemptRepository reads and writes the sync_attempts audit log.
type AttemptRepository struct {
	db Querier
}

// NewAttemptRepository creates an AttemptRepository over a pool or transaction.
func NewAttemptRepository(db Querier) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// CreateAttempt inserts an in_progress attempt row and returns its id.
func (r *AttemptRepository) CreateAttempt(ctx context.Context, remoteNodeID string) (int64, error) {
	query := `
		INSERT INTO sync_attempts (remote_node_id, started_at, status)
		VALUES ($1, NOW(), $2)
		RETURNING sync_attempt_id`

	var id int64
	if err := r.db.QueryRow(ctx, query, remoteNodeID, domain.SyncStatusInProgress).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create sync attempt: %w", err)
	}
	return id, nil
}

// CompleteAttempt marks an attempt completed with its watermark and counts.
func (r *AttemptRepository) CompleteAttempt(ctx context.Context, id int64, watermark time.Time, counts map[string]int, missingFiles []string) error {
	countsJSON, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("failed to encode entity counts: %w", err)
	}
	if missingFiles == nil {
		missingFiles = []string{}
	}
	missingJSON, err := json.Marshal(missingFiles)
	if err != nil {
		return fmt.Errorf("failed to encode missing files: %w", err)
	}

	query := `
		UPDATE sync_attempts
		SET completed_at = NOW(),
		    status = $2,
		    watermark = $3,
		    entity_counts = $4,
		    missing_files = $5
		WHERE sync_attempt_id = $1`

	tag, err := r.db.Exec(ctx, query, id, domain.SyncStatusCompleted, watermark, countsJSON, missingJSON)
	if err != nil {
		return fmt.Errorf("failed to complete sync attempt %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sync attempt %d not found", id)
	}
	return nil
}

// RecordFailure writes a complete failed attempt row in one insert. It is
// called after the import transaction has been rolled back, on a fresh pool
// connection, so the in_progress row from that transaction no longer exists.
func (r *AttemptRepository) RecordFailure(ctx context.Context, remoteNodeID string, startedAt time.Time, errMsg string) error {
	query := `
		INSERT INTO sync_attempts (remote_node_id, started_at, completed_at, status, error_message)
		VALUES ($1, $2, NOW(), $3, $4)`

	if _, err := r.db.Exec(ctx, query, remoteNodeID, startedAt, domain.SyncStatusFailed, errMsg); err != nil {
		return fmt.Errorf("failed to record sync failure: %w", err)
	}
	return nil
}

// LastCompletedWatermark returns the watermark of the most recent completed
// attempt for the remote node, or nil when it has never completed.
func (r *AttemptRepository) LastCompletedWatermark(ctx context.Context, remoteNodeID string) (*time.Time, error) {
	query := `
		SELECT watermark
		FROM sync_attempts
		WHERE remote_node_id = $1 AND status = $2 AND watermark IS NOT NULL
		ORDER BY started_at DESC
		LIMIT 1`

	var watermark time.Time
	err := r.db.QueryRow(ctx, query, remoteNodeID, domain.SyncStatusCompleted).Scan(&watermark)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last watermark for %s: %w", remoteNodeID, err)
	}
	return &watermark, nil
}

// List returns one page of the audit log, newest first. An empty
// remoteNodeID lists attempts against every node.
func (r *AttemptRepository) List(ctx context.Context, remoteNodeID string, page, pageSize int) ([]domain.SyncAttempt, int, error) {
	var total int
	countQuery := `
		SELECT COUNT(*) FROM sync_attempts
		WHERE ($1 = '' OR remote_node_id = $1)`
	if err := r.db.QueryRow(ctx, countQuery, remoteNodeID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sync attempts: %w", err)
	}

	query := `
		SELECT sync_attempt_id, remote_node_id, started_at, completed_at, status,
		       watermark, entity_counts, missing_files, error_message
		FROM sync_attempts
		WHERE ($1 = '' OR remote_node_id = $1)
		ORDER BY started_at DESC, sync_attempt_id DESC
		LIMIT $2 OFFSET $3`

	offset := (page - 1) * pageSize
	rows, err := r.db.Query(ctx, query, remoteNodeID, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sync attempts: %w", err)
	}
	defer rows.Close()

	attempts := []domain.SyncAttempt{}
	for rows.Next() {
		var (
			a           domain.SyncAttempt
			countsJSON  []byte
			missingJSON []byte
		)
		if err := rows.Scan(&a.ID, &a.RemoteNodeID, &a.StartedAt, &a.CompletedAt, &a.Status,
			&a.Watermark, &countsJSON, &missingJSON, &a.ErrorMessage); err != nil {
			return nil, 0, fmt.Errorf("failed to scan sync attempt row: %w", err)
		}
		if len(countsJSON) > 0 {
			if err := json.Unmarshal(countsJSON, &a.EntityCounts); err != nil {
				return nil, 0, fmt.Errorf("failed to decode entity counts: %w", err)
			}
		}
		if len(missingJSON) > 0 {
			if err := json.Unmarshal(missingJSON, &a.MissingFiles); err != nil {
				return nil, 0, fmt.Errorf("failed to decode missing files: %w", err)
			}
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read sync attempt rows: %w", err)
	}

	return attempts, total, nil
}
