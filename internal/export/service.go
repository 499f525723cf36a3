// Package export implements the read side of node synchronization: the
// manifest, the paginated entity pages and the recording file fetch that a
// pulling node walks through.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/opennode-labs/fieldnode/internal/domain"
	"github.com/opennode-labs/fieldnode/internal/repository"
)

const (
	// MaxPageSize caps what a remote node may request per page.
	MaxPageSize     = 500
	DefaultPageSize = 100
)

// BlobReader reads stored recording payloads.
type BlobReader interface {
	Get(id string) ([]byte, error)
}

// Service assembles export responses from the entity store and blob store.
type Service struct {
	store repository.ExportStore
	blobs BlobReader
}

// NewService creates an export Service.
func NewService(store repository.ExportStore, blobs BlobReader) *Service {
	return &Service{store: store, blobs: blobs}
}

// Manifest summarizes every syncable kind with updated_at after since (all
// records when since is nil). GeneratedAt is taken before the counts so a
// pulling node can safely use it as its next watermark.
func (s *Service) Manifest(ctx context.Context, since *time.Time) (*domain.Manifest, error) {
	manifest := &domain.Manifest{
		GeneratedAt: time.Now().UTC(),
		Entities:    make(map[string]domain.EntitySummary, len(domain.KindOrder)),
	}

	for _, kind := range domain.KindOrder {
		summary, err := s.store.Summary(ctx, kind, since)
		if err != nil {
			return nil, fmt.Errorf("failed to build manifest: %w", err)
		}
		manifest.Entities[kind] = summary
	}

	files, err := s.store.FileSummary(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to build manifest: %w", err)
	}
	manifest.Recordings = files

	return manifest, nil
}

// EntityPage returns one page of kind, ordered by primary key. Pages are
// 1-based; a page past the end comes back with empty data, never an error.
func (s *Service) EntityPage(ctx context.Context, kind string, since *time.Time, page, pageSize int) (*domain.EntityPage, error) {
	if !domain.KnownKind(kind) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownKind, kind)
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	offset := (page - 1) * pageSize
	data, total, err := s.store.Page(ctx, kind, since, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to page %s: %w", kind, err)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s page: %w", kind, err)
	}

	totalPages := (total + pageSize - 1) / pageSize
	return &domain.EntityPage{
		Data:         raw,
		Page:         page,
		PageSize:     pageSize,
		TotalRecords: total,
		TotalPages:   totalPages,
	}, nil
}

// RecordingFile fetches the payload for one recording. A recording that does
// not exist, has no file flag, or whose blob is gone from disk all return
// (nil, nil): an absent file is a tolerated condition, not an error.
func (s *Service) RecordingFile(ctx context.Context, id string) (*domain.FilePayload, error) {
	rec, err := s.store.GetRecording(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up recording %s: %w", id, err)
	}
	if rec == nil || !rec.HasFile {
		return nil, nil
	}

	data, err := s.blobs.Get(id)
	if err != nil {
		return nil, fmt.Errorf("failed to read recording file %s: %w", id, err)
	}
	if data == nil {
		slog.Default().Warn("recording flagged has_file but blob is missing", "recording_id", id)
		return nil, nil
	}

	return &domain.FilePayload{
		ContentEncoded: data,
		ContentType:    rec.ContentType,
		FileName:       rec.FileName,
	}, nil
}
