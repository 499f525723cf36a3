// Package pull orchestrates one-way synchronization from a remote node: it
// opens the channel, walks the remote export (manifest, entity pages,
// recording files) into a snapshot, and hands the snapshot to the importer.
package pull

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/opennode-labs/fieldnode/internal/channel"
	"github.com/opennode-labs/fieldnode/internal/domain"
	"github.com/opennode-labs/fieldnode/internal/logger"
	"github.com/opennode-labs/fieldnode/internal/metrics"
	"github.com/opennode-labs/fieldnode/internal/registry"
	"github.com/opennode-labs/fieldnode/internal/repository"
)

// ErrPullInProgress is returned when a pull is requested while another one
// is still running. Imports are single-writer; overlapping pulls would
// fight over the same rows.
var ErrPullInProgress = errors.New("pull already in progress")

// ExportClient is the remote-export surface the orchestrator reads through.
// *channel.Client is the production implementation.
type ExportClient interface {
	Manifest(ctx context.Context, since *time.Time) (*domain.Manifest, error)
	EntityPage(ctx context.Context, kind string, since *time.Time, page, pageSize int) (*domain.EntityPage, error)
	RecordingFile(ctx context.Context, id string) (*domain.FilePayload, error)
	Close(ctx context.Context) error
}

// Importer applies snapshots and records failed attempts.
type Importer interface {
	Import(ctx context.Context, snapshot *domain.Snapshot, remoteNodeID string) (map[string]int, error)
	RecordFailure(ctx context.Context, remoteNodeID string, startedAt time.Time, errMsg string) error
}

// Opener establishes a channel to a peer.
type Opener func(ctx context.Context, localNodeID string, peer registry.Peer, httpClient *http.Client) (ExportClient, error)

// Service runs pulls.
type Service struct {
	registry    *registry.Registry
	importer    Importer
	attempts    repository.Attempts
	localNodeID string
	pageSize    int
	timeout     time.Duration
	httpClient  *http.Client
	opener      Opener

	mu sync.Mutex
}

// NewService creates a pull orchestrator. pageSize is the page size used
// when walking remote entity pages; timeout bounds a whole pull.
func NewService(reg *registry.Registry, imp Importer, attempts repository.Attempts, localNodeID string, pageSize int, timeout time.Duration) *Service {
	return &Service{
		registry:    reg,
		importer:    imp,
		attempts:    attempts,
		localNodeID: localNodeID,
		pageSize:    pageSize,
		timeout:     timeout,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		opener: func(ctx context.Context, localNodeID string, peer registry.Peer, hc *http.Client) (ExportClient, error) {
			return channel.Open(ctx, localNodeID, peer, hc)
		},
	}
}

// Pull synchronizes from remoteNodeID. A nil since falls back to the
// watermark of the last completed pull against that node; first contact
// pulls everything. The returned result is populated for failures too, with
// the stage that failed; every attempt, failed or not, lands in the audit
// log.
func (s *Service) Pull(ctx context.Context, remoteNodeID string, since *time.Time) (*domain.SyncResult, error) {
	if !s.mu.TryLock() {
		return nil, ErrPullInProgress
	}
	defer s.mu.Unlock()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	startedAt := time.Now().UTC()
	log := logger.FromContext(ctx)

	peer, err := s.registry.Resolve(remoteNodeID)
	if err != nil {
		return s.fail(ctx, remoteNodeID, startedAt, domain.StageResolve, err)
	}

	if since == nil {
		since, err = s.attempts.LastCompletedWatermark(ctx, remoteNodeID)
		if err != nil {
			return s.fail(ctx, remoteNodeID, startedAt, domain.StageResolve, err)
		}
	}

	client, err := s.opener(ctx, s.localNodeID, peer, s.httpClient)
	if err != nil {
		return s.fail(ctx, remoteNodeID, startedAt, domain.StageHandshake, err)
	}
	defer func() {
		if err := client.Close(context.WithoutCancel(ctx)); err != nil {
			log.Warn("failed to close channel", "remote_node_id", remoteNodeID, "error", err)
		}
	}()

	manifest, err := client.Manifest(ctx, since)
	if err != nil {
		return s.fail(ctx, remoteNodeID, startedAt, domain.StageManifest, err)
	}
	log.Info("pull manifest received",
		"remote_node_id", remoteNodeID,
		"generated_at", manifest.GeneratedAt,
		"files", manifest.Recordings.Count)

	snapshot := &domain.Snapshot{
		GeneratedAt: manifest.GeneratedAt,
		Catalog:     map[string][]domain.CatalogEntry{},
	}
	if err := s.fetchEntities(ctx, client, since, snapshot); err != nil {
		return s.fail(ctx, remoteNodeID, startedAt, domain.StageEntities, err)
	}
	if err := s.fetchFiles(ctx, client, snapshot); err != nil {
		return s.fail(ctx, remoteNodeID, startedAt, domain.StageFiles, err)
	}

	applied, err := s.importer.Import(ctx, snapshot, remoteNodeID)
	if err != nil {
		metrics.ImportRollbacks.Inc()
		return s.fail(ctx, remoteNodeID, startedAt, domain.StageImport, err)
	}

	for kind, n := range applied {
		metrics.EntitiesApplied.WithLabelValues(kind).Add(float64(n))
	}
	metrics.PullsTotal.WithLabelValues(remoteNodeID, domain.SyncStatusCompleted).Inc()
	metrics.PullDuration.WithLabelValues(remoteNodeID).Observe(time.Since(startedAt).Seconds())

	completedAt := time.Now().UTC()
	watermark := manifest.GeneratedAt
	log.Info("pull completed",
		"remote_node_id", remoteNodeID,
		"duration", completedAt.Sub(startedAt),
		"missing_files", len(snapshot.MissingFiles))

	return &domain.SyncResult{
		Status:       domain.SyncStatusCompleted,
		RemoteNodeID: remoteNodeID,
		StartedAt:    startedAt,
		CompletedAt:  &completedAt,
		Watermark:    &watermark,
		EntityCounts: applied,
		MissingFiles: snapshot.MissingFiles,
	}, nil
}

// fetchEntities pages every kind in dependency order into the snapshot.
func (s *Service) fetchEntities(ctx context.Context, client ExportClient, since *time.Time, snapshot *domain.Snapshot) error {
	for _, kind := range domain.KindOrder {
		for page := 1; ; page++ {
			result, err := client.EntityPage(ctx, kind, since, page, s.pageSize)
			if err != nil {
				return fmt.Errorf("page %d of %s: %w", page, kind, err)
			}
			if err := appendPage(snapshot, kind, result.Data); err != nil {
				return fmt.Errorf("page %d of %s: %w", page, kind, err)
			}
			if page >= result.TotalPages {
				break
			}
		}
	}
	return nil
}

func appendPage(snapshot *domain.Snapshot, kind string, data json.RawMessage) error {
	if domain.IsCatalogKind(kind) {
		var entries []domain.CatalogEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return err
		}
		snapshot.Catalog[kind] = append(snapshot.Catalog[kind], entries...)
		return nil
	}

	switch kind {
	case domain.KindSubjects:
		var subjects []domain.Subject
		if err := json.Unmarshal(data, &subjects); err != nil {
			return err
		}
		snapshot.Subjects = append(snapshot.Subjects, subjects...)
	case domain.KindProjects:
		var projects []domain.Project
		if err := json.Unmarshal(data, &projects); err != nil {
			return err
		}
		snapshot.Projects = append(snapshot.Projects, projects...)
	case domain.KindSessions:
		var sessions []domain.Session
		if err := json.Unmarshal(data, &sessions); err != nil {
			return err
		}
		snapshot.Sessions = append(snapshot.Sessions, sessions...)
	case domain.KindRecordings:
		var recordings []domain.Recording
		if err := json.Unmarshal(data, &recordings); err != nil {
			return err
		}
		snapshot.Recordings = append(snapshot.Recordings, recordings...)
	default:
		return fmt.Errorf("%w: %s", domain.ErrUnknownKind, kind)
	}
	return nil
}

// fetchFiles pulls the payload of every recording that claims one. A remote
// that cannot produce a payload does not fail the pull; the recording is
// noted in MissingFiles and the metadata imports without it.
func (s *Service) fetchFiles(ctx context.Context, client ExportClient, snapshot *domain.Snapshot) error {
	log := logger.FromContext(ctx)
	for _, rec := range snapshot.Recordings {
		if !rec.HasFile {
			continue
		}
		payload, err := client.RecordingFile(ctx, rec.ID)
		if err != nil {
			return fmt.Errorf("file for recording %s: %w", rec.ID, err)
		}
		if payload == nil {
			log.Warn("remote recording file missing", "recording_id", rec.ID)
			metrics.FilesMissing.Inc()
			snapshot.MissingFiles = append(snapshot.MissingFiles, rec.ID)
			continue
		}
		metrics.FilesFetched.Inc()
		snapshot.Files = append(snapshot.Files, domain.RecordingFile{
			RecordingID: rec.ID,
			FileName:    payload.FileName,
			ContentType: payload.ContentType,
			Data:        payload.ContentEncoded,
		})
	}
	return nil
}

// fail records the attempt in the audit log and builds the failed result.
// The audit write runs outside any import transaction, so it survives the
// rollback that may have just happened.
func (s *Service) fail(ctx context.Context, remoteNodeID string, startedAt time.Time, stage string, cause error) (*domain.SyncResult, error) {
	stageErr := &domain.StageError{Stage: stage, Err: cause}
	log := logger.FromContext(ctx)
	log.Error("pull failed", "remote_node_id", remoteNodeID, "stage", stage, "error", cause)

	auditCtx := context.WithoutCancel(ctx)
	if err := s.importer.RecordFailure(auditCtx, remoteNodeID, startedAt, stageErr.Error()); err != nil {
		log.Error("failed to record pull failure", "remote_node_id", remoteNodeID, "error", err)
	}

	metrics.PullsTotal.WithLabelValues(remoteNodeID, domain.SyncStatusFailed).Inc()

	completedAt := time.Now().UTC()
	return &domain.SyncResult{
		Status:       domain.SyncStatusFailed,
		RemoteNodeID: remoteNodeID,
		StartedAt:    startedAt,
		CompletedAt:  &completedAt,
		Stage:        stage,
		ErrorMessage: cause.Error(),
	}, stageErr
}
