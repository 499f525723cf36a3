package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/opennode-labs/fieldnode/internal/domain"
)

func (r *SyncRepository) sessionSummary(ctx context.Context, since *time.Time) (domain.EntitySummary, error) {
	query := `
		SELECT COUNT(*), MAX(updated_at)
		FROM sessions
		WHERE ($1::timestamptz IS NULL OR updated_at > $1)`

	var summary domain.EntitySummary
	if err := r.db.QueryRow(ctx, query, since).Scan(&summary.Count, &summary.LatestUpdate); err != nil {
		return domain.EntitySummary{}, fmt.Errorf("failed to summarize sessions: %w", err)
	}
	return summary, nil
}

func (r *SyncRepository) sessionPage(ctx context.Context, since *time.Time, limit, offset int) ([]domain.Session, int, error) {
	var total int
	countQuery := `
		SELECT COUNT(*) FROM sessions
		WHERE ($1::timestamptz IS NULL OR updated_at > $1)`
	if err := r.db.QueryRow(ctx, countQuery, since).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	query := `
		SELECT session_id, project_id, subject_id, task_code, genre_code, region_code,
		       session_date, location, notes, created_at, updated_at
		FROM sessions
		WHERE ($1::timestamptz IS NULL OR updated_at > $1)
		ORDER BY session_id
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, since, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to page sessions: %w", err)
	}
	defer rows.Close()

	sessions := []domain.Session{}
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.SubjectID, &s.TaskCode, &s.GenreCode, &s.RegionCode,
			&s.SessionDate, &s.Location, &s.Notes, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read session rows: %w", err)
	}

	return sessions, total, nil
}

// UpsertSessions applies a batch of sessions, newer-wins per row.
func (r *SyncRepository) UpsertSessions(ctx context.Context, sessions []domain.Session) (int, error) {
	query := `
		INSERT INTO sessions (session_id, project_id, subject_id, task_code, genre_code,
		                      region_code, session_date, location, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (session_id) DO UPDATE
		SET project_id = EXCLUDED.project_id,
		    subject_id = EXCLUDED.subject_id,
		    task_code = EXCLUDED.task_code,
		    genre_code = EXCLUDED.genre_code,
		    region_code = EXCLUDED.region_code,
		    session_date = EXCLUDED.session_date,
		    location = EXCLUDED.location,
		    notes = EXCLUDED.notes,
		    created_at = EXCLUDED.created_at,
		    updated_at = EXCLUDED.updated_at
		WHERE sessions.updated_at < EXCLUDED.updated_at`

	applied := 0
	for _, s := range sessions {
		tag, err := r.db.Exec(ctx, query, s.ID, s.ProjectID, s.SubjectID, s.TaskCode, s.GenreCode,
			s.RegionCode, s.SessionDate, s.Location, s.Notes, s.CreatedAt, s.UpdatedAt)
		if err != nil {
			return applied, fmt.Errorf("failed to upsert session %s: %w", s.ID, err)
		}
		applied += int(tag.RowsAffected())
	}
	return applied, nil
}
