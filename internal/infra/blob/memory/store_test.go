package memory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitalcore/internal/blob/blobtest"
	"vitalcore/internal/blob/core"
)

func TestStoreContract(t *testing.T) {
	blobtest.Run(t, New())
}

func TestReturnedMetadataIsACopy(t *testing.T) {
	s := New()
	s.now = func() time.Time { return time.Date(2024, 2, 1, 12, 0, 0, 0, time.FixedZone("x", 3600)) }
	ctx := context.Background()
	obj, err := s.Put(ctx, "k", strings.NewReader("v"), core.PutOptions{Metadata: map[string]string{"a": "1"}})
	require.NoError(t, err)
	assert.Equal(t, time.UTC, obj.Modified.Location())
	obj.Metadata["a"] = "mutated"

	got, rc, err := s.Get(ctx, "k")
	require.NoError(t, err)
	_ = rc.Close()
	assert.Equal(t, "1", got.Metadata["a"])
}

func TestPutHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Put(ctx, "k", strings.NewReader("v"), core.PutOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
