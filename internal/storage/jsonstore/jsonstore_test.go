package jsonstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func Test_New_InitializesMissingFile(t *testing.T) {
	// given
	path := filepath.Join(t.TempDir(), "records.json")

	// when
	store, err := New[record](path)

	// then
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))

	records, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func Test_New_KeepsExistingFile(t *testing.T) {
	// given
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":1,"name":"kept"}]`), 0o644))

	// when
	store, err := New[record](path)

	// then
	require.NoError(t, err)
	records, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "kept", records[0].Name)
}

func Test_Load_CorruptFile(t *testing.T) {
	// given
	path := filepath.Join(t.TempDir(), "records.json")
	store, err := New[record](path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	// when
	_, err = store.Load(context.Background())

	// then
	assert.ErrorIs(t, err, ErrRead)
}

func Test_Save_ReplacesFullContents(t *testing.T) {
	// given
	path := filepath.Join(t.TempDir(), "records.json")
	store, err := New[record](path)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, []record{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}))

	// when
	require.NoError(t, store.Save(ctx, []record{{ID: 3, Name: "c"}}))

	// then
	records, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(3), records[0].ID)
}

func Test_Save_NilBecomesEmptySequence(t *testing.T) {
	// given
	path := filepath.Join(t.TempDir(), "records.json")
	store, err := New[record](path)
	require.NoError(t, err)

	// when
	require.NoError(t, store.Save(context.Background(), nil))

	// then
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func Test_Mutate_PersistsResult(t *testing.T) {
	// given
	path := filepath.Join(t.TempDir(), "records.json")
	store, err := New[record](path)
	require.NoError(t, err)
	ctx := context.Background()

	// when
	err = store.Mutate(ctx, func(records []record) ([]record, error) {
		return append(records, record{ID: 1, Name: "added"}), nil
	})

	// then
	require.NoError(t, err)
	records, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "added", records[0].Name)
}

func Test_Mutate_ErrorLeavesFileIntact(t *testing.T) {
	// given
	path := filepath.Join(t.TempDir(), "records.json")
	store, err := New[record](path)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, []record{{ID: 1, Name: "original"}}))
	boom := assert.AnError

	// when
	err = store.Mutate(ctx, func(records []record) ([]record, error) {
		return nil, boom
	})

	// then
	assert.ErrorIs(t, err, boom)
	records, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "original", records[0].Name)
}

func Test_Mutate_CanceledContext(t *testing.T) {
	// given
	path := filepath.Join(t.TempDir(), "records.json")
	store, err := New[record](path)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// when
	err = store.Mutate(ctx, func(records []record) ([]record, error) {
		return records, nil
	})

	// then
	assert.ErrorIs(t, err, context.Canceled)
}
