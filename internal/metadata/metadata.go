// Package metadata keeps a hot index of archived resources backed by
// BuntDB so tooling can query archives without reopening them.
package metadata

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/buntdb"
)

// ArchiveMetadata describes one stored archive.
type ArchiveMetadata struct {
	Digest      string `json:"digest"`
	ChunkCount  int    `json:"chunks"`
	ShaderCount int    `json:"shaders,omitempty"`
	IndexedAt   int64  `json:"indexedAt"`
}

// ResourceMetadata describes one named resource inside an archive.
type ResourceMetadata struct {
	Kind string `json:"kind"`
	Size uint32 `json:"size"`
}

// ResourceMatch is a query result: a resource and the archive holding
// it.
type ResourceMatch struct {
	Archive string
	Kind    string
	Name    string
	Size    uint32
}

// Options configures the metadata store.
type Options struct {
	// InMemory keeps the index in memory instead of on disk.
	InMemory bool
	// SyncPolicy controls how often BuntDB fsyncs.
	SyncPolicy buntdb.SyncPolicy
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{SyncPolicy: buntdb.EverySecond}
}

// Store is a metadata index backed by BuntDB.
type Store struct {
	db    *buntdb.DB
	mutex sync.RWMutex
}

// New opens or creates a metadata store at path.
func New(path string, options Options) (*Store, error) {
	if options.InMemory {
		path = ":memory:"
	}
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}
	var cfg buntdb.Config
	if err := db.ReadConfig(&cfg); err != nil {
		db.Close()
		return nil, err
	}
	cfg.SyncPolicy = options.SyncPolicy
	if err := db.SetConfig(cfg); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

func archiveKey(archive string) string {
	return "archive:" + archive + ":info"
}

func resourceKey(archive, kind, name string) string {
	return "archive:" + archive + ":resource:" + kind + ":" + name
}

// PutArchive records an archive's metadata, replacing any previous
// entry.
func (s *Store) PutArchive(archive string, meta ArchiveMetadata) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	meta.IndexedAt = time.Now().Unix()
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(archiveKey(archive), string(data), nil)
		return err
	})
}

// PutResource records one resource of an archive.
func (s *Store) PutResource(archive, kind, name string, meta ResourceMetadata) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(resourceKey(archive, kind, name), string(data), nil)
		return err
	})
}

// GetArchive returns an archive's metadata.
func (s *Store) GetArchive(archive string) (ArchiveMetadata, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var meta ArchiveMetadata
	err := s.db.View(func(tx *buntdb.Tx) error {
		val, err := tx.Get(archiveKey(archive))
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(val), &meta)
	})
	return meta, err
}

// FindResources returns every indexed resource whose name contains the
// given substring. An empty substring matches everything.
func (s *Store) FindResources(substr string) ([]ResourceMatch, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var matches []ResourceMatch
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend("", func(key, val string) bool {
			parts := strings.SplitN(key, ":", 5)
			if len(parts) != 5 || parts[0] != "archive" || parts[2] != "resource" {
				return true
			}
			archive, kind, name := parts[1], parts[3], parts[4]
			if substr != "" && !strings.Contains(name, substr) {
				return true
			}
			var meta ResourceMetadata
			if err := json.Unmarshal([]byte(val), &meta); err != nil {
				return true
			}
			matches = append(matches, ResourceMatch{
				Archive: archive,
				Kind:    kind,
				Name:    name,
				Size:    meta.Size,
			})
			return true
		})
	})
	return matches, err
}

// DeleteArchive removes an archive and all its resources from the
// index.
func (s *Store) DeleteArchive(archive string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	prefix := "archive:" + archive + ":"
	return s.db.Update(func(tx *buntdb.Tx) error {
		var keys []string
		err := tx.Ascend("", func(key, _ string) bool {
			if strings.HasPrefix(key, prefix) {
				keys = append(keys, key)
			}
			return true
		})
		if err != nil {
			return err
		}
		for _, key := range keys {
			if _, err := tx.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}
