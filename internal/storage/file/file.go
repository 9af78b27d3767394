// Package file is a storage backend that keeps every key in one
// gzip-compressed JSON document on disk.
package file

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/klauspost/pgzip"

	"github.com/xenking/kart-storefront/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store persists to a single file. Every write rewrites the file through a
// temporary file and rename, so a crash leaves either the old or the new
// document.
type Store struct {
	path string

	mu   sync.Mutex
	data map[string]string
}

// Open loads path, creating parent directories. A missing file is an empty
// store.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrap(err, "create storage dir")
	}
	s := &Store{path: path, data: make(map[string]string)}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() error {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "open storage file")
	}
	defer func() { _ = f.Close() }()

	zr, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrap(err, "open gzip reader")
	}
	defer func() { _ = zr.Close() }()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return errors.Wrap(err, "read storage file")
	}
	if err := jx.DecodeBytes(raw).Obj(func(d *jx.Decoder, key string) error {
		v, err := d.Str()
		if err != nil {
			return err
		}
		s.data[key] = v
		return nil
	}); err != nil {
		return errors.Wrap(err, "decode storage file")
	}
	return nil
}

// flush writes the document. Callers hold s.mu.
func (s *Store) flush() error {
	e := &jx.Encoder{}
	e.ObjStart()
	for k, v := range s.data {
		e.FieldStart(k)
		e.Str(v)
	}
	e.ObjEnd()

	var buf bytes.Buffer
	zw := pgzip.NewWriter(&buf)
	if _, err := zw.Write(e.Bytes()); err != nil {
		return errors.Wrap(err, "compress")
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "close gzip writer")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".storefront-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrap(err, "replace storage file")
	}
	return nil
}

// Get returns the value for key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return []byte(v), nil
}

// Set stores value and flushes. On flush failure the previous value is
// restored.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.data[key]
	s.data[key] = string(value)
	if err := s.flush(); err != nil {
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

// Delete removes keys and flushes if anything changed.
func (s *Store) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make(map[string]string)
	for _, key := range keys {
		if v, ok := s.data[key]; ok {
			removed[key] = v
			delete(s.data, key)
		}
	}
	if len(removed) == 0 {
		return nil
	}
	if err := s.flush(); err != nil {
		for k, v := range removed {
			s.data[k] = v
		}
		return err
	}
	return nil
}

// Clear removes every key.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.data
	s.data = make(map[string]string)
	if err := s.flush(); err != nil {
		s.data = prev
		return err
	}
	return nil
}

// Ping checks that the directory is still writable.
func (s *Store) Ping(context.Context) error {
	f, err := os.CreateTemp(filepath.Dir(s.path), ".storefront-ping-*")
	if err != nil {
		return errors.Wrap(err, "storage dir not writable")
	}
	_ = f.Close()
	return os.Remove(f.Name())
}

// Close is a no-op; every write is already durable.
func (s *Store) Close() error {
	return nil
}
