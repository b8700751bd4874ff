// Package memory keeps blob objects in process memory.
package memory

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"vitalcore/internal/blob/core"
)

var _ core.Store = (*Store)(nil)

// Store is a map-backed core.Store, safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	objects map[string]object
	now     func() time.Time
}

type object struct {
	meta core.Object
	data []byte
}

// New returns an empty store.
func New() *Store {
	return &Store{objects: make(map[string]object), now: time.Now}
}

// Put implements core.Store.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Object, error) {
	key, err := core.ValidateKey(key)
	if err != nil {
		return core.Object{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return core.Object{}, err
	}
	if err := ctx.Err(); err != nil {
		return core.Object{}, err
	}
	sum := sha256.Sum256(data)
	meta := core.Object{
		Key:         key,
		Size:        int64(len(data)),
		ContentType: opts.ContentType,
		Checksum:    hex.EncodeToString(sum[:]),
		Metadata:    core.CopyMetadata(opts.Metadata),
		Modified:    s.now().UTC(),
	}
	s.mu.Lock()
	s.objects[key] = object{meta: meta, data: data}
	s.mu.Unlock()
	return withCopiedMetadata(meta), nil
}

// Get implements core.Store.
func (s *Store) Get(_ context.Context, key string) (core.Object, io.ReadCloser, error) {
	key, err := core.ValidateKey(key)
	if err != nil {
		return core.Object{}, nil, err
	}
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return core.Object{}, nil, core.NotFound(key)
	}
	return withCopiedMetadata(obj.meta), io.NopCloser(bytes.NewReader(obj.data)), nil
}

// List implements core.Store.
func (s *Store) List(_ context.Context, prefix string) ([]core.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []core.Object{}
	for key, obj := range s.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, withCopiedMetadata(obj.meta))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func withCopiedMetadata(o core.Object) core.Object {
	o.Metadata = core.CopyMetadata(o.Metadata)
	return o
}
