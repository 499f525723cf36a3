package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/opennode-labs/fieldnode/internal/domain"
)

// catalogTables whitelists the table name per catalog kind. Table names are
// interpolated into queries, so only values from this map may be used.
var catalogTables = map[string]string{
	domain.KindLanguages:    "languages",
	domain.KindDialects:     "dialects",
	domain.KindRegions:      "regions",
	domain.KindGenres:       "genres",
	domain.KindRoles:        "roles",
	domain.KindConsentTypes: "consent_types",
	domain.KindDeviceTypes:  "device_types",
	domain.KindTasks:        "tasks",
	domain.KindKeywords:     "keywords",
}

func catalogTable(kind string) (string, error) {
	table, ok := catalogTables[kind]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownKind, kind)
	}
	return table, nil
}

func (r *SyncRepository) catalogSummary(ctx context.Context, kind string, since *time.Time) (domain.EntitySummary, error) {
	table, err := catalogTable(kind)
	if err != nil {
		return domain.EntitySummary{}, err
	}

	query := fmt.Sprintf(`
		SELECT COUNT(*), MAX(updated_at)
		FROM %s
		WHERE ($1::timestamptz IS NULL OR updated_at > $1)`, table)

	var summary domain.EntitySummary
	if err := r.db.QueryRow(ctx, query, since).Scan(&summary.Count, &summary.LatestUpdate); err != nil {
		return domain.EntitySummary{}, fmt.Errorf("failed to summarize %s: %w", table, err)
	}
	return summary, nil
}

func (r *SyncRepository) catalogPage(ctx context.Context, kind string, since *time.Time, limit, offset int) ([]domain.CatalogEntry, int, error) {
	table, err := catalogTable(kind)
	if err != nil {
		return nil, 0, err
	}

	var total int
	countQuery := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s
		WHERE ($1::timestamptz IS NULL OR updated_at > $1)`, table)
	if err := r.db.QueryRow(ctx, countQuery, since).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", table, err)
	}

	query := fmt.Sprintf(`
		SELECT code, name, attrs, created_at, updated_at
		FROM %s
		WHERE ($1::timestamptz IS NULL OR updated_at > $1)
		ORDER BY code
		LIMIT $2 OFFSET $3`, table)

	rows, err := r.db.Query(ctx, query, since, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to page %s: %w", table, err)
	}
	defer rows.Close()

	entries := []domain.CatalogEntry{}
	for rows.Next() {
		var e domain.CatalogEntry
		if err := rows.Scan(&e.Code, &e.Name, &e.Attrs, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read %s rows: %w", table, err)
	}

	return entries, total, nil
}

// UpsertCatalog applies a batch of catalog entries with newer-wins
// resolution: an existing row is only overwritten when the incoming
// updated_at is strictly greater, so equal timestamps keep the local row.
func (r *SyncRepository) UpsertCatalog(ctx context.Context, kind string, entries []domain.CatalogEntry) (int, error) {
	table, err := catalogTable(kind)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (code, name, attrs, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO UPDATE
		SET name = EXCLUDED.name,
		    attrs = EXCLUDED.attrs,
		    created_at = EXCLUDED.created_at,
		    updated_at = EXCLUDED.updated_at
		WHERE %s.updated_at < EXCLUDED.updated_at`, table, table)

	applied := 0
	for _, e := range entries {
		tag, err := r.db.Exec(ctx, query, e.Code, e.Name, e.Attrs, e.CreatedAt, e.UpdatedAt)
		if err != nil {
			return applied, fmt.Errorf("failed to upsert %s %s: %w", table, e.Code, err)
		}
		applied += int(tag.RowsAffected())
	}
	return applied, nil
}
