package domain

import (
	"encoding/json"
	"time"
)

// Sync attempt statuses
const (
	SyncStatusInProgress = "in_progress"
	SyncStatusCompleted  = "completed"
	SyncStatusFailed     = "failed"
)

// Pull stages, reported on failure so callers can tell "never reached the
// remote" apart from "import failed and was rolled back".
const (
	StageResolve   = "resolve"
	StageHandshake = "handshake"
	StageManifest  = "manifest"
	StageEntities  = "entities"
	StageFiles     = "files"
	StageImport    = "import"
)

// EntitySummary is the per-kind slice of a manifest.
type EntitySummary struct {
	Count        int        `json:"count"`
	LatestUpdate *time.Time `json:"latest_update,omitempty"`
}

// FileSummary summarizes the recording files a manifest covers.
type FileSummary struct {
	Count          int   `json:"count"`
	TotalSizeBytes int64 `json:"total_size_bytes"`
}

// Manifest is the lightweight summary computed by the export side before a
// transfer. It is never persisted; GeneratedAt becomes the watermark of a
// successful pull.
type Manifest struct {
	GeneratedAt time.Time                `json:"generated_at"`
	Entities    map[string]EntitySummary `json:"entities"`
	Recordings  FileSummary              `json:"recordings"`
}

// EntityPage is one page of a paginated entity export. Data holds the typed
// slice on the export side and raw JSON on the pulling side.
type EntityPage struct {
	Data         json.RawMessage `json:"data"`
	Page         int             `json:"page"`
	PageSize     int             `json:"page_size"`
	TotalRecords int             `json:"total_records"`
	TotalPages   int             `json:"total_pages"`
}

// FilePayload is the structured envelope for a recording's binary content.
// The bytes are base64-coded by encoding/json so the payload rides the same
// encrypted JSON pipe as every other sync response.
type FilePayload struct {
	ContentEncoded []byte `json:"content_encoded"`
	ContentType    string `json:"content_type"`
	FileName       string `json:"file_name"`
}

// Snapshot is the fully assembled result of paginating a remote node's
// export: every entity kind plus the fetched recording files.
type Snapshot struct {
	GeneratedAt  time.Time
	Catalog      map[string][]CatalogEntry
	Subjects     []Subject
	Projects     []Project
	Sessions     []Session
	Recordings   []Recording
	Files        []RecordingFile
	MissingFiles []string
}

// CountByKind returns how many records the snapshot holds for kind.
func (s *Snapshot) CountByKind(kind string) int {
	if IsCatalogKind(kind) {
		return len(s.Catalog[kind])
	}
	switch kind {
	case KindSubjects:
		return len(s.Subjects)
	case KindProjects:
		return len(s.Projects)
	case KindSessions:
		return len(s.Sessions)
	case KindRecordings:
		return len(s.Recordings)
	}
	return 0
}

// SyncAttempt is one row of the append-only sync audit log.
type SyncAttempt struct {
	ID           int64          `json:"id" db:"sync_attempt_id"`
	RemoteNodeID string         `json:"remote_node_id" db:"remote_node_id"`
	StartedAt    time.Time      `json:"started_at" db:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
	Status       string         `json:"status" db:"status"`
	Watermark    *time.Time     `json:"watermark,omitempty" db:"watermark"`
	EntityCounts map[string]int `json:"entity_counts,omitempty" db:"entity_counts"`
	MissingFiles []string       `json:"missing_files,omitempty" db:"missing_files"`
	ErrorMessage *string        `json:"error_message,omitempty" db:"error_message"`
}

// SyncResult is what a pull returns to its caller.
type SyncResult struct {
	Status       string         `json:"status"`
	RemoteNodeID string         `json:"remote_node_id"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	Watermark    *time.Time     `json:"watermark,omitempty"`
	EntityCounts map[string]int `json:"entities_received,omitempty"`
	MissingFiles []string       `json:"missing_files,omitempty"`
	Stage        string         `json:"stage,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}
