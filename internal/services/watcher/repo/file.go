// Package repo holds the record store backends for the watcher
package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	perr "mintwatch/internal/platform/errors"
	"mintwatch/internal/services/watcher/domain"
)

// File keeps records as one pretty-printed JSON array on disk
// every Append is a full read-modify-write under a mutex
type File struct {
	path string
	mu   sync.Mutex
}

var _ domain.RecordStore = (*File)(nil)

// seams for tests
var (
	readFile   = os.ReadFile
	createTemp = os.CreateTemp
	rename     = os.Rename
)

// NewFile returns a store backed by path; the file is created on first append
func NewFile(path string) *File { return &File{path: path} }

// Path returns the backing file path
func (f *File) Path() string { return f.path }

// Append loads the array, pushes rec, and writes the whole array back
// a file that does not decode fails the append and is left untouched
func (f *File) Append(_ context.Context, rec domain.ResultRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	recs, err := f.load()
	if err != nil {
		return perr.WithOp(err, "append")
	}
	recs = append(recs, rec)
	return f.write(recs)
}

// List returns the records in append order
func (f *File) List(_ context.Context) ([]domain.ResultRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	recs, err := f.load()
	if err != nil {
		return nil, perr.WithOp(err, "list")
	}
	return recs, nil
}

// load treats a missing, unreadable, or blank file as empty
func (f *File) load() ([]domain.ResultRecord, error) {
	raw, err := readFile(f.path)
	if err != nil {
		return []domain.ResultRecord{}, nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return []domain.ResultRecord{}, nil
	}
	var recs []domain.ResultRecord
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeCorrupt, "record store %s is not a JSON array of records", f.path)
	}
	if recs == nil {
		recs = []domain.ResultRecord{}
	}
	return recs, nil
}

// write replaces the file via temp file + rename so readers never see a torn array
func (f *File) write(recs []domain.ResultRecord) error {
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "encode records")
	}

	dir := filepath.Dir(f.path)
	tmp, err := createTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeIO, "create temp file in %s", dir)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return perr.Wrapf(err, perr.ErrorCodeIO, "write %s", tmpName)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return perr.Wrapf(err, perr.ErrorCodeIO, "sync %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return perr.Wrapf(err, perr.ErrorCodeIO, "close %s", tmpName)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return perr.Wrapf(err, perr.ErrorCodeIO, "chmod %s", tmpName)
	}
	if err := rename(tmpName, f.path); err != nil {
		cleanup()
		return perr.Wrapf(err, perr.ErrorCodeIO, "replace %s", f.path)
	}
	return nil
}
