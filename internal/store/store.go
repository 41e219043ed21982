// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store reads, merges, and atomically rewrites the per-stage JSON
// document stores. Each store is a flat list of records in one file; a
// missing file is an empty store, and a file that fails to parse is treated
// as empty rather than aborting the run, so an interrupted prior run never
// wedges the pipeline.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Load reads a JSON document list from path. Absence is not an error; a
// corrupt file loads as empty (fail-open).
func Load[T any](path string) []T {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil
	}
	return records
}

// Merge combines existing and incoming records, right-biased: an incoming
// record replaces any existing record with the same key. Records whose key
// is empty are dropped. The result is ordered by pos (the song's position
// in the base dataset); records with equal positions keep their relative
// arrival order.
func Merge[T any](existing, incoming []T, key func(T) string, pos func(T) int) []T {
	index := make(map[string]int)
	var merged []T
	for _, rec := range append(append([]T(nil), existing...), incoming...) {
		k := key(rec)
		if k == "" {
			continue
		}
		if i, ok := index[k]; ok {
			merged[i] = rec
			continue
		}
		index[k] = len(merged)
		merged = append(merged, rec)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return pos(merged[i]) < pos(merged[j])
	})
	return merged
}

// AtomicWrite persists records to path via a temp file in the same
// directory followed by a rename, so readers always see either the old or
// the new complete document, never a partial one.
func AtomicWrite[T any](path string, records []T) error {
	tmpPath, err := writeTemp(path, records)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp store file: %w", err)
	}
	return nil
}

// writeTemp writes the serialized records to a temp file beside path and
// returns the temp path. Split from AtomicWrite so tests can exercise the
// crash window between write and rename.
func writeTemp[T any](path string, records []T) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating store directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling store records: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp store file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing temp store file: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp store file: %w", closeErr)
	}
	return tmpPath, nil
}
