package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dvidovic/lokator/internal/record"
)

// WriteFileAtomic replaces path with data via a temp file and rename, so
// a concurrently running instance never observes a partial file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("store: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: rename: %w", err)
	}
	return nil
}

// ReadLedgerFile loads a ledger file. A missing file is not an error: it
// returns an empty ledger and false.
func ReadLedgerFile(path string, sep rune) ([]record.Record, bool, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: read %s: %w", path, err)
	}
	recs, err := DecodeLedger(b, sep)
	if err != nil {
		return nil, true, err
	}
	return recs, true, nil
}

// WriteLedgerFile encodes and atomically replaces a ledger file.
func WriteLedgerFile(path string, ledger []record.Record, sep rune) error {
	b, err := EncodeLedger(ledger, sep)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, b)
}

// AppendPending adds rows to the pending queue file. The queue keeps the
// ledger schema; rows are merged by record id on replay, so duplicate
// appends are harmless. The file is rewritten whole through the atomic
// path to keep its header consistent when the column set grows.
func AppendPending(path string, rows []record.Record, sep rune) error {
	existing, _, err := ReadLedgerFile(path, sep)
	if err != nil {
		// A corrupt queue must not swallow new rows; start over with the
		// rows we were asked to keep.
		existing = nil
	}
	return WriteLedgerFile(path, append(existing, rows...), sep)
}

// ReadPending loads the pending queue. Missing file means an empty queue.
func ReadPending(path string, sep rune) ([]record.Record, error) {
	recs, _, err := ReadLedgerFile(path, sep)
	return recs, err
}

// ClearPending removes the pending queue file after a successful replay.
func ClearPending(path string) error {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
