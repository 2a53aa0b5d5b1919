package repositories

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var (
	// ErrDataUnavailable is returned when a dataset file is missing or
	// unparseable. Callers render with no data instead of failing the request.
	ErrDataUnavailable = errors.New("dataset unavailable")

	// ErrSaveFailed is returned when the durable rewrite of a dataset did not
	// complete. In-memory state must not be assumed persisted.
	ErrSaveFailed = errors.New("dataset save failed")
)

// table is one CSV-backed dataset: a fixed header row followed by data rows.
//
// Reads open and parse the file on every call; nothing is cached, so a
// mutation is visible to the next read as soon as the rename lands. Writes
// rewrite the whole file through a temp file + rename in the same directory,
// so readers never observe a partial file and concurrent writers resolve to
// last-writer-wins. The mutex serializes read-modify-write cycles so two
// mutations cannot interleave and drop each other's rows.
type table struct {
	path   string
	header []string
	mu     sync.Mutex
}

func newTable(dir, name string, header []string) *table {
	return &table{path: filepath.Join(dir, name), header: header}
}

// load reads every data row. A missing file, an unexpected header, or a row
// with the wrong field count all collapse to ErrDataUnavailable: the dataset
// is either wholly usable or treated as absent, never half-parsed.
func (t *table) load() ([][]string, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrDataUnavailable, filepath.Base(t.path), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(t.header)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrDataUnavailable, filepath.Base(t.path), err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s has no header row", ErrDataUnavailable, filepath.Base(t.path))
	}
	for i, col := range t.header {
		if records[0][i] != col {
			return nil, fmt.Errorf("%w: %s header column %d is %q, want %q",
				ErrDataUnavailable, filepath.Base(t.path), i, records[0][i], col)
		}
	}
	return records[1:], nil
}

// save atomically replaces the dataset with header + rows.
func (t *table) save(rows [][]string) error {
	dir := filepath.Dir(t.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(t.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp for %s: %v", ErrSaveFailed, filepath.Base(t.path), err)
	}
	tmpPath := tmp.Name()

	w := csv.NewWriter(tmp)
	writeErr := w.Write(t.header)
	if writeErr == nil {
		writeErr = w.WriteAll(rows) // flushes
	}
	if err := firstErr(writeErr, w.Error(), tmp.Close()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: write %s: %v", ErrSaveFailed, filepath.Base(t.path), err)
	}
	// CreateTemp files are 0600; datasets are meant to be readable.
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: chmod %s: %v", ErrSaveFailed, filepath.Base(t.path), err)
	}
	if err := os.Rename(tmpPath, t.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: replace %s: %v", ErrSaveFailed, filepath.Base(t.path), err)
	}
	return nil
}

// mutate runs fn over the current rows and persists the result, all under the
// table's write lock. An unavailable dataset mutates from empty, matching the
// whole-file-rewrite model: the first successful save recreates the file. If
// fn fails nothing is written.
func (t *table) mutate(fn func(rows [][]string) ([][]string, error)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.load()
	if err != nil {
		rows = nil
	}
	updated, err := fn(rows)
	if err != nil {
		return err
	}
	return t.save(updated)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
