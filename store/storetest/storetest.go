// Package storetest holds a behavioral test suite shared by every GraphStore backend.
package storetest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smallnest/gptindex/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewRecord builds a small record for tests.
func NewRecord(id string, ts time.Time) *store.Record {
	return &store.Record{
		ID:        id,
		RootID:    "root-" + id,
		Version:   "1",
		Data:      json.RawMessage(fmt.Sprintf(`{"root_id":"root-%s"}`, id)),
		Metadata:  map[string]any{"owner": "alice"},
		Timestamp: ts.UTC().Truncate(time.Millisecond),
	}
}

// Run exercises st with the contract every backend must satisfy. st must start empty.
func Run(t *testing.T, st store.GraphStore) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("load missing", func(t *testing.T) {
		_, err := st.Load(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("reject invalid", func(t *testing.T) {
		err := st.Save(ctx, &store.Record{ID: "empty"})
		assert.ErrorIs(t, err, store.ErrInvalidRecord)
	})

	t.Run("save and load", func(t *testing.T) {
		r := NewRecord("g1", base)
		require.NoError(t, st.Save(ctx, r))

		loaded, err := st.Load(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, r.ID, loaded.ID)
		assert.Equal(t, r.RootID, loaded.RootID)
		assert.Equal(t, r.Version, loaded.Version)
		assert.JSONEq(t, string(r.Data), string(loaded.Data))
		assert.Equal(t, "alice", loaded.Metadata["owner"])
		assert.True(t, r.Timestamp.Equal(loaded.Timestamp))
	})

	t.Run("overwrite", func(t *testing.T) {
		r := NewRecord("g1", base)
		r.RootID = "other"
		require.NoError(t, st.Save(ctx, r))

		loaded, err := st.Load(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, "other", loaded.RootID)
	})

	t.Run("list ordered", func(t *testing.T) {
		require.NoError(t, st.Save(ctx, NewRecord("g0", base.Add(-time.Hour))))
		require.NoError(t, st.Save(ctx, NewRecord("g2", base.Add(time.Hour))))

		records, err := st.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "g0", records[0].ID)
		assert.Equal(t, "g1", records[1].ID)
		assert.Equal(t, "g2", records[2].ID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, st.Delete(ctx, "g1"))
		_, err := st.Load(ctx, "g1")
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.NoError(t, st.Delete(ctx, "g1"))

		records, err := st.List(ctx)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("concurrent saves", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, st.Save(ctx, NewRecord(fmt.Sprintf("c%d", i), base)))
			}(i)
		}
		wg.Wait()

		records, err := st.List(ctx)
		require.NoError(t, err)
		assert.Len(t, records, 10)
	})
}
