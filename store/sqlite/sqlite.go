// Package sqlite provides a GraphStore backed by a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/smallnest/gptindex/store"
)

// SqliteGraphStore implements store.GraphStore using SQLite
type SqliteGraphStore struct {
	db        *sql.DB
	tableName string
}

var _ store.GraphStore = (*SqliteGraphStore)(nil)

// SqliteOptions configuration for SQLite connection
type SqliteOptions struct {
	Path      string
	TableName string // Default "graphs"
}

// NewSqliteGraphStore opens the database and creates the table if needed
func NewSqliteGraphStore(opts SqliteOptions) (*SqliteGraphStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	tableName := opts.TableName
	if tableName == "" {
		tableName = "graphs"
	}

	s := &SqliteGraphStore{
		db:        db,
		tableName: tableName,
	}

	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// InitSchema creates the necessary table if it doesn't exist
func (s *SqliteGraphStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			root_id TEXT NOT NULL,
			version TEXT NOT NULL,
			data TEXT NOT NULL,
			metadata TEXT,
			timestamp DATETIME NOT NULL
		);
	`, s.tableName)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SqliteGraphStore) Close() error {
	return s.db.Close()
}

// Save stores a record
func (s *SqliteGraphStore) Save(ctx context.Context, record *store.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}
	metadataJSON, err := json.Marshal(record.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, root_id, version, data, metadata, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			root_id = excluded.root_id,
			version = excluded.version,
			data = excluded.data,
			metadata = excluded.metadata,
			timestamp = excluded.timestamp
	`, s.tableName)

	_, err = s.db.ExecContext(ctx, query,
		record.ID,
		record.RootID,
		record.Version,
		string(record.Data),
		string(metadataJSON),
		record.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save graph: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*store.Record, error) {
	var (
		r            store.Record
		data         string
		metadataJSON sql.NullString
		ts           time.Time
	)
	if err := row.Scan(&r.ID, &r.RootID, &r.Version, &data, &metadataJSON, &ts); err != nil {
		return nil, err
	}
	r.Data = json.RawMessage(data)
	r.Timestamp = ts.UTC()
	if metadataJSON.Valid && metadataJSON.String != "" && metadataJSON.String != "null" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &r.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &r, nil
}

// Load retrieves a record by id
func (s *SqliteGraphStore) Load(ctx context.Context, id string) (*store.Record, error) {
	query := fmt.Sprintf(`
		SELECT id, root_id, version, data, metadata, timestamp
		FROM %s
		WHERE id = ?
	`, s.tableName)

	r, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}
	return r, nil
}

// List returns all records
func (s *SqliteGraphStore) List(ctx context.Context) ([]*store.Record, error) {
	query := fmt.Sprintf(`
		SELECT id, root_id, version, data, metadata, timestamp
		FROM %s
		ORDER BY timestamp ASC, id ASC
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list graphs: %w", err)
	}
	defer rows.Close()

	var records []*store.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan graph row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating graph rows: %w", err)
	}
	// DATETIME text ordering is not reliable across zones.
	store.SortRecords(records)
	return records, nil
}

// Delete removes a record
func (s *SqliteGraphStore) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.tableName)
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete graph: %w", err)
	}
	return nil
}
