// Package postgres provides a GraphStore backed by PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smallnest/gptindex/store"
)

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresGraphStore implements store.GraphStore using PostgreSQL
type PostgresGraphStore struct {
	pool      DBPool
	tableName string
}

var _ store.GraphStore = (*PostgresGraphStore)(nil)

// PostgresOptions configuration for Postgres connection
type PostgresOptions struct {
	ConnString string
	TableName  string // Default "graphs"
}

// NewPostgresGraphStore creates a new Postgres graph store
func NewPostgresGraphStore(ctx context.Context, opts PostgresOptions) (*PostgresGraphStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return NewPostgresGraphStoreWithPool(pool, opts.TableName), nil
}

// NewPostgresGraphStoreWithPool creates a new Postgres graph store with an existing pool
// Useful for testing with mocks
func NewPostgresGraphStoreWithPool(pool DBPool, tableName string) *PostgresGraphStore {
	if tableName == "" {
		tableName = "graphs"
	}
	return &PostgresGraphStore{
		pool:      pool,
		tableName: tableName,
	}
}

// InitSchema creates the necessary table if it doesn't exist
func (s *PostgresGraphStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			root_id TEXT NOT NULL,
			version TEXT NOT NULL,
			data JSONB NOT NULL,
			metadata JSONB,
			timestamp TIMESTAMPTZ NOT NULL
		);
	`, s.tableName)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresGraphStore) Close() {
	s.pool.Close()
}

// Save stores a record
func (s *PostgresGraphStore) Save(ctx context.Context, record *store.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}
	metadataJSON, err := json.Marshal(record.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, root_id, version, data, metadata, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			root_id = EXCLUDED.root_id,
			version = EXCLUDED.version,
			data = EXCLUDED.data,
			metadata = EXCLUDED.metadata,
			timestamp = EXCLUDED.timestamp
	`, s.tableName)

	_, err = s.pool.Exec(ctx, query,
		record.ID,
		record.RootID,
		record.Version,
		[]byte(record.Data),
		metadataJSON,
		record.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save graph: %w", err)
	}
	return nil
}

func scanRecord(row pgx.Row) (*store.Record, error) {
	var (
		r            store.Record
		data         []byte
		metadataJSON []byte
		ts           time.Time
	)
	if err := row.Scan(&r.ID, &r.RootID, &r.Version, &data, &metadataJSON, &ts); err != nil {
		return nil, err
	}
	r.Data = json.RawMessage(data)
	r.Timestamp = ts
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &r.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &r, nil
}

// Load retrieves a record by id
func (s *PostgresGraphStore) Load(ctx context.Context, id string) (*store.Record, error) {
	query := fmt.Sprintf(`
		SELECT id, root_id, version, data, metadata, timestamp
		FROM %s
		WHERE id = $1
	`, s.tableName)

	r, err := scanRecord(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}
	return r, nil
}

// List returns all records
func (s *PostgresGraphStore) List(ctx context.Context) ([]*store.Record, error) {
	query := fmt.Sprintf(`
		SELECT id, root_id, version, data, metadata, timestamp
		FROM %s
		ORDER BY timestamp ASC, id ASC
	`, s.tableName)

	rows, err := s.pool.Query(ctx, query)
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
	return records, nil
}

// Delete removes a record
func (s *PostgresGraphStore) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tableName)
	if _, err := s.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete graph: %w", err)
	}
	return nil
}
