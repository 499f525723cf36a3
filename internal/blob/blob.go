// Package blob stores recording payloads on the local filesystem, one file
// per recording id. Imported payloads are staged first and only promoted
// into the store once the surrounding database transaction commits, so a
// rolled-back import leaves no files behind.
package blob

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const stagingDir = ".staging"

// Store is a directory of recording payloads keyed by recording id.
type Store struct {
	dir string
}

// NewStore creates the store directory and its staging area if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, stagingDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// path validates the id before joining it into a filesystem path. Recording
// ids are UUIDs; anything else is rejected so an id can never escape dir.
func (s *Store) path(base, id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("invalid recording id %q: %w", id, err)
	}
	return filepath.Join(base, id), nil
}

// Get returns the payload for id, or (nil, nil) when no file exists.
func (s *Store) Get(id string) ([]byte, error) {
	p, err := s.path(s.dir, id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", id, err)
	}
	return data, nil
}

// Put writes a payload directly into the store.
func (s *Store) Put(id string, data []byte) error {
	p, err := s.path(s.dir, id)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", id, err)
	}
	return nil
}

// Stage writes a payload into the staging area.
func (s *Store) Stage(id string, data []byte) error {
	p, err := s.path(filepath.Join(s.dir, stagingDir), id)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("failed to stage blob %s: %w", id, err)
	}
	return nil
}

// Promote moves staged payloads into the store. Called after the import
// transaction commits.
func (s *Store) Promote(ids []string) error {
	for _, id := range ids {
		staged, err := s.path(filepath.Join(s.dir, stagingDir), id)
		if err != nil {
			return err
		}
		final, err := s.path(s.dir, id)
		if err != nil {
			return err
		}
		if err := os.Rename(staged, final); err != nil {
			return fmt.Errorf("failed to promote blob %s: %w", id, err)
		}
	}
	return nil
}

// Discard removes staged payloads. Called after a rollback; missing staged
// files are ignored.
func (s *Store) Discard(ids []string) {
	for _, id := range ids {
		p, err := s.path(filepath.Join(s.dir, stagingDir), id)
		if err != nil {
			continue
		}
		_ = os.Remove(p)
	}
}
