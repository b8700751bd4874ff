// Package blobtest checks that a core.Store backend honours the store contract.
package blobtest

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitalcore/internal/blob/core"
)

// Run exercises put, overwrite, get, list and the error paths against store,
// which must start empty.
func Run(t *testing.T, store core.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("put and get", func(t *testing.T) {
		obj, err := store.Put(ctx, "archives/u1/a.json", strings.NewReader(`{"a":1}`), core.PutOptions{
			ContentType: "application/json",
			Metadata:    map[string]string{"user": "u1"},
		})
		require.NoError(t, err)
		assert.Equal(t, "archives/u1/a.json", obj.Key)
		assert.EqualValues(t, 7, obj.Size)
		assert.NotEmpty(t, obj.Checksum)

		got, body := get(t, store, "archives/u1/a.json")
		assert.Equal(t, `{"a":1}`, body)
		assert.Equal(t, "application/json", got.ContentType)
		assert.Equal(t, "u1", got.Metadata["user"])
	})

	t.Run("overwrite", func(t *testing.T) {
		first, _ := get(t, store, "archives/u1/a.json")
		obj, err := store.Put(ctx, "archives/u1/a.json", strings.NewReader(`{"a":2,"b":3}`), core.PutOptions{})
		require.NoError(t, err)
		assert.EqualValues(t, 13, obj.Size)
		assert.NotEqual(t, first.Checksum, obj.Checksum)
		_, body := get(t, store, "archives/u1/a.json")
		assert.Equal(t, `{"a":2,"b":3}`, body)
	})

	t.Run("list by prefix", func(t *testing.T) {
		_, err := store.Put(ctx, "archives/u1/b.json", strings.NewReader("{}"), core.PutOptions{})
		require.NoError(t, err)
		_, err = store.Put(ctx, "archives/u2/c.json", strings.NewReader("{}"), core.PutOptions{})
		require.NoError(t, err)

		listed, err := store.List(ctx, "archives/u1/")
		require.NoError(t, err)
		keys := make([]string, 0, len(listed))
		for _, o := range listed {
			keys = append(keys, o.Key)
		}
		assert.Equal(t, []string{"archives/u1/a.json", "archives/u1/b.json"}, keys)

		none, err := store.List(ctx, "archives/nobody/")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("missing and invalid keys", func(t *testing.T) {
		_, _, err := store.Get(ctx, "archives/u1/missing.json")
		assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)
		_, err = store.Put(ctx, "../escape", strings.NewReader("x"), core.PutOptions{})
		assert.Error(t, err)
		_, _, err = store.Get(ctx, "/abs")
		assert.Error(t, err)
	})
}

func get(t *testing.T, store core.Store, key string) (core.Object, string) {
	t.Helper()
	obj, rc, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return obj, string(data)
}
