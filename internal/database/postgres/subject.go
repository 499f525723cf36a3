package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/opennode-labs/fieldnode/internal/domain"
)

func (r *SyncRepository) subjectSummary(ctx context.Context, since *time.Time) (domain.EntitySummary, error) {
	query := `
		SELECT COUNT(*), MAX(updated_at)
		FROM subjects
		WHERE ($1::timestamptz IS NULL OR updated_at > $1)`

	var summary domain.EntitySummary
	if err := r.db.QueryRow(ctx, query, since).Scan(&summary.Count, &summary.LatestUpdate); err != nil {
		return domain.EntitySummary{}, fmt.Errorf("failed to summarize subjects: %w", err)
	}
	return summary, nil
}

func (r *SyncRepository) subjectPage(ctx context.Context, since *time.Time, limit, offset int) ([]domain.Subject, int, error) {
	var total int
	countQuery := `
		SELECT COUNT(*) FROM subjects
		WHERE ($1::timestamptz IS NULL OR updated_at > $1)`
	if err := r.db.QueryRow(ctx, countQuery, since).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count subjects: %w", err)
	}

	query := `
		SELECT subject_id, code, display_name, birth_year, language_code,
		       dialect_code, region_code, consent_type_code, notes,
		       created_at, updated_at
		FROM subjects
		WHERE ($1::timestamptz IS NULL OR updated_at > $1)
		ORDER BY subject_id
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, since, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to page subjects: %w", err)
	}
	defer rows.Close()

	subjects := []domain.Subject{}
	for rows.Next() {
		var s domain.Subject
		if err := rows.Scan(&s.ID, &s.Code, &s.DisplayName, &s.BirthYear, &s.LanguageCode,
			&s.DialectCode, &s.RegionCode, &s.ConsentTypeCode, &s.Notes,
			&s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan subject row: %w", err)
		}
		subjects = append(subjects, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read subject rows: %w", err)
	}

	return subjects, total, nil
}

// UpsertSubjects applies a batch of subjects, newer-wins per row.
func (r *SyncRepository) UpsertSubjects(ctx context.Context, subjects []domain.Subject) (int, error) {
	query := `
		INSERT INTO subjects (subject_id, code, display_name, birth_year, language_code,
		                      dialect_code, region_code, consent_type_code, notes,
		                      created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (subject_id) DO UPDATE
		SET code = EXCLUDED.code,
		    display_name = EXCLUDED.display_name,
		    birth_year = EXCLUDED.birth_year,
		    language_code = EXCLUDED.language_code,
		    dialect_code = EXCLUDED.dialect_code,
		    region_code = EXCLUDED.region_code,
		    consent_type_code = EXCLUDED.consent_type_code,
		    notes = EXCLUDED.notes,
		    created_at = EXCLUDED.created_at,
		    updated_at = EXCLUDED.updated_at
		WHERE subjects.updated_at < EXCLUDED.updated_at`

	applied := 0
	for _, s := range subjects {
		tag, err := r.db.Exec(ctx, query, s.ID, s.Code, s.DisplayName, s.BirthYear, s.LanguageCode,
			s.DialectCode, s.RegionCode, s.ConsentTypeCode, s.Notes, s.CreatedAt, s.UpdatedAt)
		if err != nil {
			return applied, fmt.Errorf("failed to upsert subject %s: %w", s.ID, err)
		}
		applied += int(tag.RowsAffected())
	}
	return applied, nil
}
