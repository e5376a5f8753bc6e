// Package jsonstore provides generic persistence of a record sequence to a
// flat JSON file. Every operation works on the full sequence: reads decode
// the whole file, writes replace it atomically via a temp file and rename.
package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var (
	// ErrRead indicates the backing file could not be read or decoded.
	ErrRead = errors.New("store read failed")
	// ErrWrite indicates the backing file could not be written.
	ErrWrite = errors.New("store write failed")
)

// Store persists a sequence of records of type T in a single JSON file.
// A per-store RWMutex serializes writers, so concurrent read-modify-write
// cycles through Mutate cannot lose updates.
type Store[T any] struct {
	path string
	mu   sync.RWMutex
}

// New creates a store backed by the file at path, initializing the file to
// an empty sequence when it does not exist yet. Safe to call repeatedly on
// the same path.
func New[T any](path string) (*Store[T], error) {
	if err := ensureExists(path); err != nil {
		return nil, err
	}
	return &Store[T]{path: path}, nil
}

// Path returns the location of the backing file.
func (s *Store[T]) Path() string {
	return s.path
}

// Load reads and decodes the full record sequence.
func (s *Store[T]) Load(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load()
}

// Save serializes records and replaces the backing file. The new contents
// are written to a temp file in the same directory and renamed over the
// target, so a reader never observes a partial write.
func (s *Store[T]) Save(ctx context.Context, records []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(records)
}

// Mutate runs one read-modify-write cycle under the write lock. fn receives
// the current sequence and returns the sequence to persist; returning an
// error aborts the cycle and leaves the file untouched. Errors from fn are
// returned unwrapped so callers can match domain sentinels.
func (s *Store[T]) Mutate(ctx context.Context, fn func(records []T) ([]T, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	updated, err := fn(records)
	if err != nil {
		return err
	}
	return s.save(updated)
}

func (s *Store[T]) load() ([]T, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrRead, s.path, err)
	}
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrRead, s.path, err)
	}
	return records, nil
}

func (s *Store[T]) save(records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %v", ErrWrite, s.path, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp file in %s: %v", ErrWrite, dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: writing %s: %v", ErrWrite, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: closing %s: %v", ErrWrite, tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: replacing %s: %v", ErrWrite, s.path, err)
	}
	return nil
}

// ensureExists initializes path with an empty JSON sequence when absent.
func ensureExists(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%w: stat %s: %v", ErrRead, path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: creating directory for %s: %v", ErrWrite, path, err)
	}
	if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
		return fmt.Errorf("%w: initializing %s: %v", ErrWrite, path, err)
	}
	return nil
}
