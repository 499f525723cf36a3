package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/opennode-labs/fieldnode/internal/domain"
)

func (r *SyncRepository) recordingSummary(ctx context.Context, since *time.Time) (domain.EntitySummary, error) {
	query := `
		SELECT COUNT(*), MAX(updated_at)
		FROM recordings
		WHERE ($1::timestamptz IS NULL OR updated_at > $1)`

	var summary domain.EntitySummary
	if err := r.db.QueryRow(ctx, query, since).Scan(&summary.Count, &summary.LatestUpdate); err != nil {
		return domain.EntitySummary{}, fmt.Errorf("failed to summarize recordings: %w", err)
	}
	return summary, nil
}

func (r *SyncRepository) recordingPage(ctx context.Context, since *time.Time, limit, offset int) ([]domain.Recording, int, error) {
	var total int
	countQuery := `
		SELECT COUNT(*) FROM recordings
		WHERE ($1::timestamptz IS NULL OR updated_at > $1)`
	if err := r.db.QueryRow(ctx, countQuery, since).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count recordings: %w", err)
	}

	query := `
		SELECT recording_id, session_id, device_type_code, file_name, content_type,
		       duration_seconds, size_bytes, has_file, created_at, updated_at
		FROM recordings
		WHERE ($1::timestamptz IS NULL OR updated_at > $1)
		ORDER BY recording_id
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, since, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to page recordings: %w", err)
	}
	defer rows.Close()

	recordings := []domain.Recording{}
	for rows.Next() {
		var rec domain.Recording
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.DeviceTypeCode, &rec.FileName, &rec.ContentType,
			&rec.DurationSeconds, &rec.SizeBytes, &rec.HasFile, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan recording row: %w", err)
		}
		recordings = append(recordings, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read recording rows: %w", err)
	}

	return recordings, total, nil
}

// FileSummary summarizes the recordings that carry a binary payload.
func (r *SyncRepository) FileSummary(ctx context.Context, since *time.Time) (domain.FileSummary, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(size_bytes), 0)
		FROM recordings
		WHERE has_file
		  AND ($1::timestamptz IS NULL OR updated_at > $1)`

	var summary domain.FileSummary
	if err := r.db.QueryRow(ctx, query, since).Scan(&summary.Count, &summary.TotalSizeBytes); err != nil {
		return domain.FileSummary{}, fmt.Errorf("failed to summarize recording files: %w", err)
	}
	return summary, nil
}

// GetRecording fetches one recording's metadata. A missing row is not an
// error; it returns (nil, nil).
func (r *SyncRepository) GetRecording(ctx context.Context, id string) (*domain.Recording, error) {
	query := `
		SELECT recording_id, session_id, device_type_code, file_name, content_type,
		       duration_seconds, size_bytes, has_file, created_at, updated_at
		FROM recordings
		WHERE recording_id = $1`

	var rec domain.Recording
	err := r.db.QueryRow(ctx, query, id).Scan(&rec.ID, &rec.SessionID, &rec.DeviceTypeCode,
		&rec.FileName, &rec.ContentType, &rec.DurationSeconds, &rec.SizeBytes, &rec.HasFile,
		&rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recording %s: %w", id, err)
	}
	return &rec, nil
}

// UpsertRecordings applies a batch of recording metadata, newer-wins per row.
func (r *SyncRepository) UpsertRecordings(ctx context.Context, recordings []domain.Recording) (int, error) {
	query := `
		INSERT INTO recordings (recording_id, session_id, device_type_code, file_name,
		                        content_type, duration_seconds, size_bytes, has_file,
		                        created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (recording_id) DO UPDATE
		SET session_id = EXCLUDED.session_id,
		    device_type_code = EXCLUDED.device_type_code,
		    file_name = EXCLUDED.file_name,
		    content_type = EXCLUDED.content_type,
		    duration_seconds = EXCLUDED.duration_seconds,
		    size_bytes = EXCLUDED.size_bytes,
		    has_file = EXCLUDED.has_file,
		    created_at = EXCLUDED.created_at,
		    updated_at = EXCLUDED.updated_at
		WHERE recordings.updated_at < EXCLUDED.updated_at`

	applied := 0
	for _, rec := range recordings {
		tag, err := r.db.Exec(ctx, query, rec.ID, rec.SessionID, rec.DeviceTypeCode, rec.FileName,
			rec.ContentType, rec.DurationSeconds, rec.SizeBytes, rec.HasFile, rec.CreatedAt, rec.UpdatedAt)
		if err != nil {
			return applied, fmt.Errorf("failed to upsert recording %s: %w", rec.ID, err)
		}
		applied += int(tag.RowsAffected())
	}
	return applied, nil
}
