package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/opennode-labs/fieldnode/internal/domain"
)

func (r *SyncRepository) projectSummary(ctx context.Context, since *time.Time) (domain.EntitySummary, error) {
	query := `
		SELECT COUNT(*), MAX(updated_at)
		FROM projects
		WHERE ($1::timestamptz IS NULL OR updated_at > $1)`

	var summary domain.EntitySummary
	if err := r.db.QueryRow(ctx, query, since).Scan(&summary.Count, &summary.LatestUpdate); err != nil {
		return domain.EntitySummary{}, fmt.Errorf("failed to summarize projects: %w", err)
	}
	return summary, nil
}

func (r *SyncRepository) projectPage(ctx context.Context, since *time.Time, limit, offset int) ([]domain.Project, int, error) {
	var total int
	countQuery := `
		SELECT COUNT(*) FROM projects
		WHERE ($1::timestamptz IS NULL OR updated_at > $1)`
	if err := r.db.QueryRow(ctx, countQuery, since).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count projects: %w", err)
	}

	query := `
		SELECT project_id, name, description, owner_node_id, started_on,
		       created_at, updated_at
		FROM projects
		WHERE ($1::timestamptz IS NULL OR updated_at > $1)
		ORDER BY project_id
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, since, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to page projects: %w", err)
	}
	defer rows.Close()

	projects := []domain.Project{}
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerNodeID, &p.StartedOn,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan project row: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read project rows: %w", err)
	}

	return projects, total, nil
}

// UpsertProjects applies a batch of projects, newer-wins per row. Ownership
// is re-pointed at localNodeID: a project pulled from a remote node belongs
// to the importing node afterwards.
func (r *SyncRepository) UpsertProjects(ctx context.Context, projects []domain.Project, localNodeID string) (int, error) {
	query := `
		INSERT INTO projects (project_id, name, description, owner_node_id, started_on,
		                      created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (project_id) DO UPDATE
		SET name = EXCLUDED.name,
		    description = EXCLUDED.description,
		    owner_node_id = EXCLUDED.owner_node_id,
		    started_on = EXCLUDED.started_on,
		    created_at = EXCLUDED.created_at,
		    updated_at = EXCLUDED.updated_at
		WHERE projects.updated_at < EXCLUDED.updated_at`

	applied := 0
	for _, p := range projects {
		tag, err := r.db.Exec(ctx, query, p.ID, p.Name, p.Description, localNodeID, p.StartedOn,
			p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return applied, fmt.Errorf("failed to upsert project %s: %w", p.ID, err)
		}
		applied += int(tag.RowsAffected())
	}
	return applied, nil
}
