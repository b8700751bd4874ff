// Package fs stores blob objects as files under a root directory.
//
// Object data lives at <root>/<key>; attributes live in a JSON document at
// <root>/.meta/<key>.json. Both are replaced atomically by rename.
package fs

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"vitalcore/internal/blob/core"
)

const metaDir = ".meta"

var _ core.Store = (*Store)(nil)

// Store is a directory-backed core.Store.
type Store struct {
	root string
}

// New opens root, creating it when missing.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("blob root directory required")
	}
	if err := os.MkdirAll(filepath.Join(root, metaDir), 0o750); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the base directory.
func (s *Store) Root() string { return s.root }

func (s *Store) paths(key string) (clean, data, meta string, err error) {
	clean, err = core.ValidateKey(key)
	if err != nil {
		return "", "", "", err
	}
	if clean == metaDir || strings.HasPrefix(clean, metaDir+"/") {
		return "", "", "", fmt.Errorf("object key %q is reserved", key)
	}
	rel := filepath.FromSlash(clean)
	return clean, filepath.Join(s.root, rel), filepath.Join(s.root, metaDir, rel+".json"), nil
}

// Put implements core.Store.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Object, error) {
	clean, dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return core.Object{}, err
	}
	h := sha256.New()
	size, err := writeAtomic(dataPath, io.TeeReader(r, h))
	if err != nil {
		return core.Object{}, fmt.Errorf("write %s: %w", clean, err)
	}
	if err := ctx.Err(); err != nil {
		return core.Object{}, err
	}
	obj := core.Object{
		Key:         clean,
		Size:        size,
		ContentType: opts.ContentType,
		Checksum:    hex.EncodeToString(h.Sum(nil)),
		Metadata:    core.CopyMetadata(opts.Metadata),
		Modified:    time.Now().UTC(),
	}
	doc, err := json.Marshal(obj)
	if err != nil {
		return core.Object{}, err
	}
	if _, err := writeAtomic(metaPath, bytes.NewReader(doc)); err != nil {
		return core.Object{}, fmt.Errorf("write %s attributes: %w", clean, err)
	}
	return obj, nil
}

// Get implements core.Store.
func (s *Store) Get(_ context.Context, key string) (core.Object, io.ReadCloser, error) {
	clean, dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return core.Object{}, nil, err
	}
	obj, err := readObject(metaPath)
	if errors.Is(err, iofs.ErrNotExist) {
		return core.Object{}, nil, core.NotFound(clean)
	}
	if err != nil {
		return core.Object{}, nil, err
	}
	f, err := os.Open(dataPath) // #nosec G304 -- validated key under root
	if errors.Is(err, iofs.ErrNotExist) {
		return core.Object{}, nil, core.NotFound(clean)
	}
	if err != nil {
		return core.Object{}, nil, err
	}
	return obj, f, nil
}

// List implements core.Store.
func (s *Store) List(_ context.Context, prefix string) ([]core.Object, error) {
	base := filepath.Join(s.root, metaDir)
	out := []core.Object{}
	err := filepath.WalkDir(base, func(p string, d iofs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, ".json") {
			return err
		}
		rel, err := filepath.Rel(base, strings.TrimSuffix(p, ".json"))
		if err != nil {
			return err
		}
		if !strings.HasPrefix(filepath.ToSlash(rel), prefix) {
			return nil
		}
		obj, err := readObject(p)
		if err != nil {
			return err
		}
		out = append(out, obj)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func readObject(path string) (core.Object, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- attribute path under root
	if err != nil {
		return core.Object{}, err
	}
	var obj core.Object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return core.Object{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return obj, nil
}

func writeAtomic(path string, r io.Reader) (int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(dir, ".partial-*")
	if err != nil {
		return 0, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, err
	}
	return n, os.Rename(tmp.Name(), path)
}
