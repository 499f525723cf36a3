package domain

import (
	"encoding/json"
	"time"
)

// CatalogEntry is a row in one of the code-keyed reference tables
// (languages, dialects, regions, ...). All catalog tables share the same
// shape; kind-specific fields (a dialect's language code, a device's
// manufacturer) live in Attrs.
type CatalogEntry struct {
	Code      string          `json:"code" db:"code"`
	Name      string          `json:"name" db:"name"`
	Attrs     json.RawMessage `json:"attrs,omitempty" db:"attrs"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// Subject is a recorded participant. Catalog foreign keys are nullable
// except the primary language.
type Subject struct {
	ID              string    `json:"id" db:"subject_id"`
	Code            string    `json:"code" db:"code"`
	DisplayName     string    `json:"display_name" db:"display_name"`
	BirthYear       *int      `json:"birth_year,omitempty" db:"birth_year"`
	LanguageCode    string    `json:"language_code" db:"language_code"`
	DialectCode     *string   `json:"dialect_code,omitempty" db:"dialect_code"`
	RegionCode      *string   `json:"region_code,omitempty" db:"region_code"`
	ConsentTypeCode *string   `json:"consent_type_code,omitempty" db:"consent_type_code"`
	Notes           string    `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Project is a top-level collection effort. OwnerNodeID records which node
// the project belongs to; on import it is re-pointed at the importing node.
type Project struct {
	ID          string     `json:"id" db:"project_id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description,omitempty" db:"description"`
	OwnerNodeID string     `json:"owner_node_id" db:"owner_node_id"`
	StartedOn   *time.Time `json:"started_on,omitempty" db:"started_on"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Session is one recording session of a subject within a project.
type Session struct {
	ID          string    `json:"id" db:"session_id"`
	ProjectID   string    `json:"project_id" db:"project_id"`
	SubjectID   string    `json:"subject_id" db:"subject_id"`
	TaskCode    *string   `json:"task_code,omitempty" db:"task_code"`
	GenreCode   *string   `json:"genre_code,omitempty" db:"genre_code"`
	RegionCode  *string   `json:"region_code,omitempty" db:"region_code"`
	SessionDate time.Time `json:"session_date" db:"session_date"`
	Location    string    `json:"location,omitempty" db:"location"`
	Notes       string    `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Recording is the metadata row for one captured audio file. HasFile marks
// whether a binary payload exists on the owning node; the payload itself is
// transferred separately.
type Recording struct {
	ID              string    `json:"id" db:"recording_id"`
	SessionID       string    `json:"session_id" db:"session_id"`
	DeviceTypeCode  *string   `json:"device_type_code,omitempty" db:"device_type_code"`
	FileName        string    `json:"file_name" db:"file_name"`
	ContentType     string    `json:"content_type" db:"content_type"`
	DurationSeconds float64   `json:"duration_seconds" db:"duration_seconds"`
	SizeBytes       int64     `json:"size_bytes" db:"size_bytes"`
	HasFile         bool      `json:"has_file" db:"has_file"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// RecordingFile is a fetched binary payload, held in memory between the
// export fetch and the import apply.
type RecordingFile struct {
	RecordingID string `json:"recording_id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}
