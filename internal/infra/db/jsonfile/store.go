package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bryanwahyu/newscheck/internal/domain/analysis"
)

// document is the on-disk layout. Records are kept oldest first.
type document struct {
	Version int                `json:"version"`
	NextID  analysis.ID        `json:"next_id"`
	Records []*analysis.Record `json:"records"`
}

const documentVersion = 1

// Store is a history store backed by one indented JSON file. Every mutation
// rewrites the file through a temp file and rename.
type Store struct {
	mu   sync.Mutex
	path string
	doc  document
	now  func() time.Time
}

// Open loads path, or starts empty when the file does not exist yet.
func Open(path string, now func() time.Time) (*Store, error) {
	if now == nil {
		now = time.Now
	}
	s := &Store{path: path, now: now, doc: document{Version: documentVersion, NextID: 1}}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("%w: read %s: %v", analysis.ErrPersistence, path, err)
	}
	if len(data) == 0 {
		return s, nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", analysis.ErrPersistence, path, err)
	}
	// next_id never falls behind the ids already on disk
	for _, r := range doc.Records {
		if r.ID >= doc.NextID {
			doc.NextID = r.ID + 1
		}
	}
	if doc.NextID < 1 {
		doc.NextID = 1
	}
	doc.Version = documentVersion
	s.doc = doc
	return s, nil
}

// Path of the backing file.
func (s *Store) Path() string { return s.path }

func (s *Store) Insert(ctx context.Context, d analysis.Draft) (*analysis.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := analysis.NewRecord(s.doc.NextID, s.now(), d)
	next := s.doc
	next.NextID++
	next.Records = append(append([]*analysis.Record{}, s.doc.Records...), rec)
	if err := s.commit(next); err != nil {
		return nil, err
	}
	out := *rec
	return &out, nil
}

func (s *Store) List(ctx context.Context, f analysis.Filter) ([]*analysis.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*analysis.Record, 0, len(s.doc.Records))
	for i := len(s.doc.Records) - 1; i >= 0; i-- {
		r := s.doc.Records[i]
		if f.Match(r) {
			c := *r
			out = append(out, &c)
		}
	}
	analysis.SortNewestFirst(out)
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id analysis.ID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, r := range s.doc.Records {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}
	next := s.doc
	next.Records = make([]*analysis.Record, 0, len(s.doc.Records)-1)
	next.Records = append(next.Records, s.doc.Records[:idx]...)
	next.Records = append(next.Records, s.doc.Records[idx+1:]...)
	if err := s.commit(next); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Clear(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.doc.Records)
	next := s.doc
	next.Records = nil
	if err := s.commit(next); err != nil {
		return 0, err
	}
	return n, nil
}

// Ping reports whether the store directory is still writable.
func (s *Store) Ping(_ context.Context) error {
	dir := filepath.Dir(s.path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %v", analysis.ErrPersistence, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", analysis.ErrPersistence, dir)
	}
	return nil
}

// commit writes next to disk and only then swaps it in memory, so a failed
// write leaves both the file and the in-memory state unchanged.
func (s *Store) commit(next document) error {
	if next.Records == nil {
		next.Records = []*analysis.Record{}
	}
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal history: %v", analysis.ErrPersistence, err)
	}
	if err := writeAtomic(s.path, data); err != nil {
		return fmt.Errorf("%w: %v", analysis.ErrPersistence, err)
	}
	s.doc = next
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
