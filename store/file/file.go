// Package file provides a GraphStore that keeps one JSON file per record.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/smallnest/gptindex/store"
)

const ext = ".json"

// FileGraphStore stores records as <dir>/<id>.json.
type FileGraphStore struct {
	mu   sync.RWMutex
	path string
}

var _ store.GraphStore = (*FileGraphStore)(nil)

// NewFileGraphStore creates the directory if needed and returns a store rooted at it.
func NewFileGraphStore(path string) (*FileGraphStore, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileGraphStore{path: path}, nil
}

// Path returns the store directory.
func (s *FileGraphStore) Path() string {
	return s.path
}

func (s *FileGraphStore) filename(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("%w: id %q is not a valid file name", store.ErrInvalidRecord, id)
	}
	return filepath.Join(s.path, id+ext), nil
}

// Save writes the record to a temporary file and renames it into place.
func (s *FileGraphStore) Save(ctx context.Context, record *store.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := s.filename(record.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tmp, err := os.CreateTemp(s.path, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := os.Rename(tmp.Name(), name); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

// Load reads a record by id.
func (s *FileGraphStore) Load(ctx context.Context, id string) (*store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := s.filename(id)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return readRecord(name, id)
}

func readRecord(name, id string) (*store.Record, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	var r store.Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %s: %w", id, err)
	}
	return &r, nil
}

// List reads every record file in the directory.
func (s *FileGraphStore) List(ctx context.Context) ([]*store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read store directory: %w", err)
	}
	var records []*store.Record
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ext || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ext)
		r, err := readRecord(filepath.Join(s.path, e.Name()), id)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	store.SortRecords(records)
	return records, nil
}

// Delete removes the record file.
func (s *FileGraphStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := s.filename(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}
