package pull

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opennode-labs/fieldnode/internal/domain"
	"github.com/opennode-labs/fieldnode/internal/registry"
)

const testPeers = "node-a=http://node-a.test=000102030405060708090a0b0c0d0e0f"

// fakeRemote plays the export side of a remote node.
type fakeRemote struct {
	generatedAt time.Time
	catalog     map[string][]domain.CatalogEntry
	subjects    []domain.Subject
	recordings  []domain.Recording
	files       map[string][]byte

	sinceSeen    []*time.Time
	pageRequests map[string]int
	closed       bool
	manifestErr  error
}

func paginate[T any](items []T, page, pageSize int) ([]T, int) {
	total := len(items)
	offset := (page - 1) * pageSize
	if offset > total {
		offset = total
	}
	end := offset + pageSize
	if end > total {
		end = total
	}
	return items[offset:end], total
}

func (f *fakeRemote) Manifest(_ context.Context, since *time.Time) (*domain.Manifest, error) {
	if f.manifestErr != nil {
		return nil, f.manifestErr
	}
	f.sinceSeen = append(f.sinceSeen, since)
	return &domain.Manifest{GeneratedAt: f.generatedAt, Entities: map[string]domain.EntitySummary{}}, nil
}

func (f *fakeRemote) EntityPage(_ context.Context, kind string, _ *time.Time, page, pageSize int) (*domain.EntityPage, error) {
	if f.pageRequests == nil {
		f.pageRequests = map[string]int{}
	}
	f.pageRequests[kind]++

	var (
		data  any
		total int
	)
	switch {
	case domain.IsCatalogKind(kind):
		data, total = paginate(f.catalog[kind], page, pageSize)
	case kind == domain.KindSubjects:
		data, total = paginate(f.subjects, page, pageSize)
	case kind == domain.KindRecordings:
		data, total = paginate(f.recordings, page, pageSize)
	case kind == domain.KindProjects:
		data, total = paginate([]domain.Project{}, page, pageSize)
	case kind == domain.KindSessions:
		data, total = paginate([]domain.Session{}, page, pageSize)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownKind, kind)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &domain.EntityPage{
		Data:         raw,
		Page:         page,
		PageSize:     pageSize,
		TotalRecords: total,
		TotalPages:   (total + pageSize - 1) / pageSize,
	}, nil
}

func (f *fakeRemote) RecordingFile(_ context.Context, id string) (*domain.FilePayload, error) {
	data, ok := f.files[id]
	if !ok {
		return nil, nil
	}
	return &domain.FilePayload{ContentEncoded: data, FileName: id + ".wav", ContentType: "audio/wav"}, nil
}

func (f *fakeRemote) Close(context.Context) error {
	f.closed = true
	return nil
}

// fakeImporter records what it was asked to apply.
type fakeImporter struct {
	snapshots []*domain.Snapshot
	failures  []string
	importErr error
}

func (f *fakeImporter) Import(_ context.Context, snapshot *domain.Snapshot, _ string) (map[string]int, error) {
	if f.importErr != nil {
		return nil, f.importErr
	}
	f.snapshots = append(f.snapshots, snapshot)
	counts := map[string]int{}
	for _, kind := range domain.KindOrder {
		counts[kind] = snapshot.CountByKind(kind)
	}
	return counts, nil
}

func (f *fakeImporter) RecordFailure(_ context.Context, remoteNodeID string, _ time.Time, errMsg string) error {
	f.failures = append(f.failures, remoteNodeID+": "+errMsg)
	return nil
}

type fakeAttempts struct {
	watermark *time.Time
}

func (f *fakeAttempts) LastCompletedWatermark(context.Context, string) (*time.Time, error) {
	return f.watermark, nil
}

func (f *fakeAttempts) List(context.Context, string, int, int) ([]domain.SyncAttempt, int, error) {
	return nil, 0, nil
}

func newTestService(t *testing.T, remote *fakeRemote, imp *fakeImporter, attempts *fakeAttempts) *Service {
	t.Helper()
	reg, err := registry.Parse(testPeers)
	require.NoError(t, err)

	svc := NewService(reg, imp, attempts, "node-local", 10, time.Minute)
	svc.opener = func(context.Context, string, registry.Peer, *http.Client) (ExportClient, error) {
		return remote, nil
	}
	return svc
}

func makeCatalog(kind string, n int) []domain.CatalogEntry {
	entries := make([]domain.CatalogEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, domain.CatalogEntry{
			Code:      fmt.Sprintf("%s-%03d", kind, i),
			UpdatedAt: time.Date(2026, 2, 1, 0, i, 0, 0, time.UTC),
		})
	}
	return entries
}

func TestPullEndToEnd(t *testing.T) {
	withFile := "11111111-1111-4111-8111-111111111111"
	fileGone := "22222222-2222-4222-8222-222222222222"
	remote := &fakeRemote{
		generatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		catalog: map[string][]domain.CatalogEntry{
			domain.KindLanguages: makeCatalog(domain.KindLanguages, 25),
		},
		subjects: []domain.Subject{{ID: "subj-1", LanguageCode: "lang-000"}},
		recordings: []domain.Recording{
			{ID: withFile, HasFile: true},
			{ID: fileGone, HasFile: true},
		},
		files: map[string][]byte{withFile: []byte("wav")},
	}
	imp := &fakeImporter{}
	svc := newTestService(t, remote, imp, &fakeAttempts{})

	result, err := svc.Pull(context.Background(), "node-a", nil)
	require.NoError(t, err)

	assert.Equal(t, domain.SyncStatusCompleted, result.Status)
	assert.Equal(t, "node-a", result.RemoteNodeID)
	require.NotNil(t, result.Watermark)
	assert.Equal(t, remote.generatedAt, *result.Watermark)
	assert.Equal(t, 25, result.EntityCounts[domain.KindLanguages])
	assert.Equal(t, 1, result.EntityCounts[domain.KindSubjects])
	assert.Equal(t, []string{fileGone}, result.MissingFiles)

	// 25 language records at page size 10 take exactly 3 pages.
	assert.Equal(t, 3, remote.pageRequests[domain.KindLanguages])

	require.Len(t, imp.snapshots, 1)
	snapshot := imp.snapshots[0]
	assert.Len(t, snapshot.Catalog[domain.KindLanguages], 25)
	require.Len(t, snapshot.Files, 1)
	assert.Equal(t, withFile, snapshot.Files[0].RecordingID)

	assert.True(t, remote.closed)
	assert.Empty(t, imp.failures)
}

func TestPullDefaultsToStoredWatermark(t *testing.T) {
	watermark := time.Date(2026, 2, 15, 8, 0, 0, 0, time.UTC)
	remote := &fakeRemote{generatedAt: time.Now().UTC()}
	svc := newTestService(t, remote, &fakeImporter{}, &fakeAttempts{watermark: &watermark})

	_, err := svc.Pull(context.Background(), "node-a", nil)
	require.NoError(t, err)

	require.Len(t, remote.sinceSeen, 1)
	require.NotNil(t, remote.sinceSeen[0])
	assert.Equal(t, watermark, *remote.sinceSeen[0])
}

func TestPullExplicitSinceOverridesWatermark(t *testing.T) {
	stored := time.Date(2026, 2, 15, 8, 0, 0, 0, time.UTC)
	explicit := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	remote := &fakeRemote{generatedAt: time.Now().UTC()}
	svc := newTestService(t, remote, &fakeImporter{}, &fakeAttempts{watermark: &stored})

	_, err := svc.Pull(context.Background(), "node-a", &explicit)
	require.NoError(t, err)

	require.Len(t, remote.sinceSeen, 1)
	require.NotNil(t, remote.sinceSeen[0])
	assert.Equal(t, explicit, *remote.sinceSeen[0])
}

func TestPullUnknownNodeFailsAtResolve(t *testing.T) {
	imp := &fakeImporter{}
	svc := newTestService(t, &fakeRemote{}, imp, &fakeAttempts{})

	result, err := svc.Pull(context.Background(), "node-x", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	assert.Equal(t, domain.StageResolve, domain.Stage(err))
	assert.Equal(t, domain.SyncStatusFailed, result.Status)

	// The failed attempt is audited even though no channel was opened.
	require.Len(t, imp.failures, 1)
	assert.Contains(t, imp.failures[0], "node-x")
}

func TestPullHandshakeFailureIsAudited(t *testing.T) {
	imp := &fakeImporter{}
	svc := newTestService(t, &fakeRemote{}, imp, &fakeAttempts{})
	svc.opener = func(context.Context, string, registry.Peer, *http.Client) (ExportClient, error) {
		return nil, fmt.Errorf("%w: connection refused", domain.ErrChannel)
	}

	result, err := svc.Pull(context.Background(), "node-a", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrChannel)
	assert.Equal(t, domain.StageHandshake, domain.Stage(err))
	assert.Equal(t, domain.StageHandshake, result.Stage)
	assert.Empty(t, imp.snapshots)
	require.Len(t, imp.failures, 1)
}

func TestPullManifestFailureClosesChannel(t *testing.T) {
	remote := &fakeRemote{manifestErr: &domain.RemoteError{Status: 500, Detail: "boom"}}
	imp := &fakeImporter{}
	svc := newTestService(t, remote, imp, &fakeAttempts{})

	_, err := svc.Pull(context.Background(), "node-a", nil)
	require.Error(t, err)
	assert.Equal(t, domain.StageManifest, domain.Stage(err))
	assert.True(t, remote.closed)
}

func TestPullImportFailureReportsImportStage(t *testing.T) {
	remote := &fakeRemote{generatedAt: time.Now().UTC()}
	imp := &fakeImporter{importErr: errors.New("fk violation")}
	svc := newTestService(t, remote, imp, &fakeAttempts{})

	result, err := svc.Pull(context.Background(), "node-a", nil)
	require.Error(t, err)
	assert.Equal(t, domain.StageImport, domain.Stage(err))
	assert.Equal(t, domain.SyncStatusFailed, result.Status)
	assert.Contains(t, result.ErrorMessage, "fk violation")
	require.Len(t, imp.failures, 1)
	assert.True(t, remote.closed)
}

func TestPullRejectsConcurrentRuns(t *testing.T) {
	svc := newTestService(t, &fakeRemote{}, &fakeImporter{}, &fakeAttempts{})

	svc.mu.Lock()
	defer svc.mu.Unlock()

	_, err := svc.Pull(context.Background(), "node-a", nil)
	assert.ErrorIs(t, err, ErrPullInProgress)
}
