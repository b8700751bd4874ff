package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateKey(t *testing.T) {
	valid := map[string]string{
		"archives/u/i.json":    "archives/u/i.json",
		"archives//u/./i.json": "archives/u/i.json",
		"archives/u/..i..json": "archives/u/..i..json",
	}
	for in, want := range valid {
		got, err := ValidateKey(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	for _, in := range []string{"", "   ", "/etc/passwd", "archives/../../x", "..", "a/.."} {
		_, err := ValidateKey(in)
		assert.Error(t, err, in)
	}
}

func TestNotFoundAndCopyMetadata(t *testing.T) {
	err := NotFound("k")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "k")

	assert.Nil(t, CopyMetadata(nil))
	md := map[string]string{"a": "b"}
	cp := CopyMetadata(md)
	cp["a"] = "c"
	assert.Equal(t, "b", md["a"])
}
