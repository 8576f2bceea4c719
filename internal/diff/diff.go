// Package diff compares the named-resource directories of two archives.
package diff

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/TFMV/devarchive/internal/blob"
	"github.com/TFMV/devarchive/internal/dearchiver"
	"github.com/TFMV/devarchive/internal/gfx"
	"github.com/TFMV/devarchive/internal/layout"
)

// Common errors
var (
	// ErrArchiveNotFound is returned when an archive file is not found.
	ErrArchiveNotFound = errors.New("archive file not found")
	// ErrOperationCanceled is returned when an operation is canceled.
	ErrOperationCanceled = errors.New("operation canceled")
)

// Entry represents a single difference between two archives.
type Entry struct {
	Type string // "New", "Modified", "Deleted"
	Kind layout.ChunkKind
	Name string
}

// String returns a string representation of an Entry.
func (e Entry) String() string {
	return fmt.Sprintf("%s: %s %q", e.Type, e.Kind, e.Name)
}

type resourceKey struct {
	kind layout.ChunkKind
	name string
}

// loadDirectory opens an archive file and returns its named entries with
// their shared-data sizes.
func loadDirectory(ctx context.Context, filename string) (map[resourceKey]uint32, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrArchiveNotFound, filename)
	}
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrOperationCanceled, ctx.Err())
	default:
	}

	src, err := blob.OpenFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer src.Close()

	// The selected backend does not matter for directory listing; the
	// directories are backend-agnostic.
	d, err := dearchiver.New(src, gfx.Vulkan, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse archive %s: %w", filename, err)
	}

	entries := make(map[resourceKey]uint32)
	for _, res := range d.Resources() {
		entries[resourceKey{kind: res.Kind, name: res.Name}] = res.Size
	}
	return entries, nil
}

// Compare computes the differences between two archive files, reported
// relative to the old one.
func Compare(ctx context.Context, oldFile, newFile string) ([]Entry, error) {
	oldEntries, err := loadDirectory(ctx, oldFile)
	if err != nil {
		return nil, err
	}
	newEntries, err := loadDirectory(ctx, newFile)
	if err != nil {
		return nil, err
	}

	var diffs []Entry
	for key, newSize := range newEntries {
		oldSize, ok := oldEntries[key]
		switch {
		case !ok:
			diffs = append(diffs, Entry{Type: "New", Kind: key.kind, Name: key.name})
		case oldSize != newSize:
			diffs = append(diffs, Entry{Type: "Modified", Kind: key.kind, Name: key.name})
		}
	}
	for key := range oldEntries {
		if _, ok := newEntries[key]; !ok {
			diffs = append(diffs, Entry{Type: "Deleted", Kind: key.kind, Name: key.name})
		}
	}

	sort.Slice(diffs, func(i, j int) bool {
		if diffs[i].Kind != diffs[j].Kind {
			return diffs[i].Kind < diffs[j].Kind
		}
		return diffs[i].Name < diffs[j].Name
	})
	return diffs, nil
}
