package fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitalcore/internal/blob/blobtest"
	"vitalcore/internal/blob/core"
)

func TestStoreContract(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "blobs"))
	require.NoError(t, err)
	blobtest.Run(t, s)
}

func TestLayoutOnDisk(t *testing.T) {
	root := filepath.Join(t.TempDir(), "blobs")
	s, err := New(root)
	require.NoError(t, err)
	assert.Equal(t, root, s.Root())

	_, err = s.Put(context.Background(), "archives/u1/i1.json", strings.NewReader("payload"), core.PutOptions{})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "archives", "u1", "i1.json"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	_, err = os.Stat(filepath.Join(root, metaDir, "archives", "u1", "i1.json.json"))
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(root, "archives", "u1"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no partial files left behind")
}

func TestReservedAndCorruptAttributes(t *testing.T) {
	root := t.TempDir()
	s, err := New(root)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Put(ctx, ".meta/x", strings.NewReader("x"), core.PutOptions{})
	assert.ErrorContains(t, err, "reserved")

	_, err = s.Put(ctx, "k", strings.NewReader("v"), core.PutOptions{})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, metaDir, "k.json"), []byte("{"), 0o600))
	_, _, err = s.Get(ctx, "k")
	assert.ErrorContains(t, err, "decode")
	_, err = s.List(ctx, "")
	assert.Error(t, err)

	_, err = New("")
	assert.Error(t, err)
}
