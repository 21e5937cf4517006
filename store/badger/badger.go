// Package badger provides a GraphStore backed by an embedded BadgerDB.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/smallnest/gptindex/log"
	"github.com/smallnest/gptindex/store"
)

const keyPrefix = "graph/"

// BadgerGraphStore stores each record under "graph/<id>".
type BadgerGraphStore struct {
	db *badgerdb.DB
}

var _ store.GraphStore = (*BadgerGraphStore)(nil)

// BadgerOptions configures the database.
type BadgerOptions struct {
	// Dir is the data directory. Required unless InMemory is set.
	Dir string

	// InMemory runs without disk persistence.
	InMemory bool

	// Logger receives badger's warnings and errors. Defaults to the package logger.
	Logger log.Logger
}

// NewBadgerGraphStore opens the database.
func NewBadgerGraphStore(opts BadgerOptions) (*BadgerGraphStore, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("badger: Dir is required for on-disk mode")
	}
	dbOpts := badgerdb.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = badgerdb.DefaultOptions("").WithInMemory(true)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	dbOpts = dbOpts.WithLogger(badgerLogger{log.Named(logger, "badger")})

	db, err := badgerdb.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("unable to open badger: %w", err)
	}
	return &BadgerGraphStore{db: db}, nil
}

// Close closes the database.
func (s *BadgerGraphStore) Close() error {
	return s.db.Close()
}

func graphKey(id string) []byte {
	return []byte(keyPrefix + id)
}

// Save stores a record.
func (s *BadgerGraphStore) Save(ctx context.Context, record *store.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}
	err = s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(graphKey(record.ID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save graph: %w", err)
	}
	return nil
}

// Load retrieves a record by id.
func (s *BadgerGraphStore) Load(ctx context.Context, id string) (*store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(graphKey(id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}
	var r store.Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph: %w", err)
	}
	return &r, nil
}

// List iterates the graph key range.
func (s *BadgerGraphStore) List(ctx context.Context) ([]*store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := []byte(keyPrefix)
	var records []*store.Record
	err := s.db.View(func(txn *badgerdb.Txn) error {
		iterOpts := badgerdb.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var r store.Record
			if err := json.Unmarshal(val, &r); err != nil {
				return fmt.Errorf("failed to unmarshal graph %s: %w", it.Item().Key(), err)
			}
			records = append(records, &r)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list graphs: %w", err)
	}
	store.SortRecords(records)
	return records, nil
}

// Delete removes a record.
func (s *BadgerGraphStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(graphKey(id))
	})
	if err != nil && !errors.Is(err, badgerdb.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete graph: %w", err)
	}
	return nil
}

// badgerLogger forwards badger output to a log.Logger; info chatter goes to debug.
type badgerLogger struct {
	l log.Logger
}

func (b badgerLogger) Errorf(f string, v ...any)   { b.l.Error(f, v...) }
func (b badgerLogger) Warningf(f string, v ...any) { b.l.Warn(f, v...) }
func (b badgerLogger) Infof(f string, v ...any)    { b.l.Debug(f, v...) }
func (b badgerLogger) Debugf(f string, v ...any)   { b.l.Debug(f, v...) }
