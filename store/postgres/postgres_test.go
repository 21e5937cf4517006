package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/smallnest/gptindex/store"
	"github.com/stretchr/testify/assert"
)

const selectOne = "SELECT id, root_id, version, data, metadata, timestamp FROM graphs WHERE id = $1"

func newRecord() *store.Record {
	return &store.Record{
		ID:        "g-1",
		RootID:    "root",
		Version:   "1",
		Data:      json.RawMessage(`{"root_id":"root"}`),
		Metadata:  map[string]any{"owner": "alice"},
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPostgresGraphStore_InitSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	s := NewPostgresGraphStoreWithPool(mock, "")

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS graphs")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	assert.NoError(t, s.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGraphStore_Save(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	s := NewPostgresGraphStoreWithPool(mock, "graphs")
	r := newRecord()
	metadataJSON, _ := json.Marshal(r.Metadata)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO graphs")).
		WithArgs(r.ID, r.RootID, r.Version, []byte(r.Data), metadataJSON, r.Timestamp).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, s.Save(context.Background(), r))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGraphStore_Save_Invalid(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	s := NewPostgresGraphStoreWithPool(mock, "graphs")
	err = s.Save(context.Background(), &store.Record{ID: "g"})
	assert.ErrorIs(t, err, store.ErrInvalidRecord)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGraphStore_Save_DatabaseError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	s := NewPostgresGraphStoreWithPool(mock, "graphs")
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO graphs")).
		WillReturnError(errors.New("connection reset"))

	err = s.Save(context.Background(), newRecord())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save graph")
}

func TestPostgresGraphStore_Load(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	s := NewPostgresGraphStoreWithPool(mock, "graphs")
	r := newRecord()
	metadataJSON, _ := json.Marshal(r.Metadata)

	rows := pgxmock.NewRows([]string{"id", "root_id", "version", "data", "metadata", "timestamp"}).
		AddRow(r.ID, r.RootID, r.Version, []byte(r.Data), metadataJSON, r.Timestamp)

	mock.ExpectQuery(regexp.QuoteMeta(selectOne)).
		WithArgs(r.ID).
		WillReturnRows(rows)

	loaded, err := s.Load(context.Background(), r.ID)
	assert.NoError(t, err)
	assert.Equal(t, r.RootID, loaded.RootID)
	assert.JSONEq(t, string(r.Data), string(loaded.Data))
	assert.Equal(t, "alice", loaded.Metadata["owner"])
	assert.True(t, r.Timestamp.Equal(loaded.Timestamp))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGraphStore_Load_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	s := NewPostgresGraphStoreWithPool(mock, "graphs")
	mock.ExpectQuery(regexp.QuoteMeta(selectOne)).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	loaded, err := s.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Nil(t, loaded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGraphStore_Load_DatabaseError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	s := NewPostgresGraphStoreWithPool(mock, "graphs")
	mock.ExpectQuery(regexp.QuoteMeta(selectOne)).
		WithArgs("g-1").
		WillReturnError(errors.New("database connection failed"))

	_, err = s.Load(context.Background(), "g-1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrNotFound)
	assert.Contains(t, err.Error(), "failed to load graph")
}

func TestPostgresGraphStore_Load_InvalidMetadata(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	s := NewPostgresGraphStoreWithPool(mock, "graphs")
	rows := pgxmock.NewRows([]string{"id", "root_id", "version", "data", "metadata", "timestamp"}).
		AddRow("g-1", "root", "1", []byte(`{}`), []byte(`{bad`), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(selectOne)).
		WithArgs("g-1").
		WillReturnRows(rows)

	_, err = s.Load(context.Background(), "g-1")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal metadata")
}

func TestPostgresGraphStore_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	s := NewPostgresGraphStoreWithPool(mock, "graphs")
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"id", "root_id", "version", "data", "metadata", "timestamp"}).
		AddRow("a", "ra", "1", []byte(`{}`), []byte(nil), ts).
		AddRow("b", "rb", "1", []byte(`{}`), []byte(`{"k":"v"}`), ts.Add(time.Minute))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, root_id, version, data, metadata, timestamp FROM graphs ORDER BY timestamp ASC, id ASC")).
		WillReturnRows(rows)

	records, err := s.List(context.Background())
	assert.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, "a", records[0].ID)
	assert.Nil(t, records[0].Metadata)
	assert.Equal(t, "v", records[1].Metadata["k"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGraphStore_List_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	s := NewPostgresGraphStoreWithPool(mock, "graphs")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, root_id")).
		WillReturnError(errors.New("boom"))

	_, err = s.List(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list graphs")
}

func TestPostgresGraphStore_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	s := NewPostgresGraphStoreWithPool(mock, "graphs")
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM graphs WHERE id = $1")).
		WithArgs("g-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	assert.NoError(t, s.Delete(context.Background(), "g-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGraphStore_Close(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)

	s := NewPostgresGraphStoreWithPool(mock, "graphs")
	mock.ExpectClose()
	s.Close()
	assert.NoError(t, mock.ExpectationsWereMet())
}
