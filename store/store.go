package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	// ErrNotFound is returned when no record exists for the requested id.
	ErrNotFound = errors.New("graph record not found")

	// ErrInvalidRecord is returned when a record cannot be stored as given.
	ErrInvalidRecord = errors.New("invalid graph record")
)

// Record is one persisted composable graph.
type Record struct {
	// ID names the record inside the store.
	ID string `json:"id"`

	// RootID is the root index id of the stored graph.
	RootID string `json:"root_id"`

	// Version is the docstore version of Data.
	Version string `json:"version"`

	// Data is the serialized graph document.
	Data json.RawMessage `json:"data"`

	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Validate reports whether the record can be saved.
func (r *Record) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil record", ErrInvalidRecord)
	}
	if r.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRecord)
	}
	if len(r.Data) == 0 {
		return fmt.Errorf("%w: record %s has no data", ErrInvalidRecord, r.ID)
	}
	return nil
}

// GraphStore defines the interface for graph persistence backends.
type GraphStore interface {
	// Save stores a record, replacing any record with the same id.
	Save(ctx context.Context, record *Record) error

	// Load retrieves a record by id. Missing records yield ErrNotFound.
	Load(ctx context.Context, id string) (*Record, error)

	// List returns every record ordered by timestamp, then id.
	List(ctx context.Context) ([]*Record, error)

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error
}

// SortRecords orders records by timestamp ascending, then by id.
func SortRecords(records []*Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.Before(records[j].Timestamp)
		}
		return records[i].ID < records[j].ID
	})
}

// Clone returns a deep copy of the record so callers cannot mutate stored state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Data = append(json.RawMessage(nil), r.Data...)
	if r.Metadata != nil {
		c.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
