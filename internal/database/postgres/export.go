package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/opennode-labs/fieldnode/internal/domain"
)

// Summary dispatches to the per-kind count query.
func (r *SyncRepository) Summary(ctx context.Context, kind string, since *time.Time) (domain.EntitySummary, error) {
	if domain.IsCatalogKind(kind) {
		return r.catalogSummary(ctx, kind, since)
	}
	switch kind {
	case domain.KindSubjects:
		return r.subjectSummary(ctx, since)
	case domain.KindProjects:
		return r.projectSummary(ctx, since)
	case domain.KindSessions:
		return r.sessionSummary(ctx, since)
	case domain.KindRecordings:
		return r.recordingSummary(ctx, since)
	}
	return domain.EntitySummary{}, fmt.Errorf("%w: %s", domain.ErrUnknownKind, kind)
}

// Page dispatches to the per-kind page query and returns the typed slice.
func (r *SyncRepository) Page(ctx context.Context, kind string, since *time.Time, limit, offset int) (any, int, error) {
	if domain.IsCatalogKind(kind) {
		return r.catalogPage(ctx, kind, since, limit, offset)
	}
	switch kind {
	case domain.KindSubjects:
		return r.subjectPage(ctx, since, limit, offset)
	case domain.KindProjects:
		return r.projectPage(ctx, since, limit, offset)
	case domain.KindSessions:
		return r.sessionPage(ctx, since, limit, offset)
	case domain.KindRecordings:
		return r.recordingPage(ctx, since, limit, offset)
	}
	return nil, 0, fmt.Errorf("%w: %s", domain.ErrUnknownKind, kind)
}
