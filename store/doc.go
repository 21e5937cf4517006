// Package store persists composable index graphs.
//
// A graph is stored as a Record: the serialized graph document together with its root
// index id, docstore version, free-form metadata and a timestamp. Every backend
// implements GraphStore:
//
//	type GraphStore interface {
//	    Save(ctx context.Context, record *Record) error
//	    Load(ctx context.Context, id string) (*Record, error)
//	    List(ctx context.Context) ([]*Record, error)
//	    Delete(ctx context.Context, id string) error
//	}
//
// Backends live in sub-packages:
//   - memory: process-local map, useful for tests
//   - file: one JSON file per record in a directory
//   - sqlite: a single table in a SQLite database
//   - postgres: a single table with a JSONB column
//   - redis: one key per record plus an index set
//   - badger: an embedded key/value database
//
// # Example
//
//	st, err := sqlite.NewSqliteGraphStore(sqlite.SqliteOptions{Path: "./graphs.db"})
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	if err := g.Save(ctx, st, "handbook"); err != nil {
//	    return err
//	}
//	loaded, err := composable.Load(ctx, sc, st, "handbook")
package store
