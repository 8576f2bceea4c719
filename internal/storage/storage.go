// Package storage keeps device-object archives at rest. Archives are
// compressed with zstd on disk and verified with a dual checksum on
// read; the wire format inside stays raw.
package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/spaolacci/murmur3"

	"github.com/TFMV/devarchive/internal/blob"
	"github.com/TFMV/devarchive/internal/hash"
)

const (
	// DefaultCompression is the default zstd compression level.
	DefaultCompression = 3
	// DefaultCacheSize is the default number of decompressed archives to
	// cache.
	DefaultCacheSize = 10
	// ArchiveFileExt is the file extension for stored archives.
	ArchiveFileExt = ".doa.zst"

	checksumSize = 16
)

var (
	// ErrArchiveNotFound is returned when a stored archive is not found.
	ErrArchiveNotFound = errors.New("archive not found")
	// ErrChecksumMismatch is returned when a stored archive fails its
	// checksum on read.
	ErrChecksumMismatch = errors.New("archive checksum mismatch")
)

// ArchiveStore manages archive storage operations.
type ArchiveStore struct {
	baseDir      string
	encoder      *zstd.Encoder
	decoder      *zstd.Decoder
	cacheMutex   sync.RWMutex
	archiveCache map[string][]byte
	cacheSize    int
	cacheKeys    []string
}

// NewArchiveStore creates a new archive store rooted at baseDir.
func NewArchiveStore(baseDir string) (*ArchiveStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevel(DefaultCompression)))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &ArchiveStore{
		baseDir:      baseDir,
		encoder:      encoder,
		decoder:      decoder,
		archiveCache: make(map[string][]byte),
		cacheSize:    DefaultCacheSize,
		cacheKeys:    make([]string, 0, DefaultCacheSize),
	}, nil
}

// Close closes the store.
func (s *ArchiveStore) Close() error {
	s.encoder.Close()
	s.decoder.Close()
	return nil
}

// checksum is a 16-byte pair of independent 64-bit hashes over the raw
// archive bytes, stored ahead of the compressed payload.
func checksum(data []byte) [checksumSize]byte {
	var sum [checksumSize]byte
	binary.LittleEndian.PutUint64(sum[0:], xxhash.Sum64(data))
	binary.LittleEndian.PutUint64(sum[8:], murmur3.Sum64(data))
	return sum
}

// WriteArchive stores an archive under name, compressed and checksummed.
func (s *ArchiveStore) WriteArchive(name string, data []byte) error {
	filename := filepath.Join(s.baseDir, name+ArchiveFileExt)

	sum := checksum(data)
	compressed := s.encoder.EncodeAll(data, nil)

	f, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC|os.O_SYNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(sum[:]); err != nil {
		return err
	}
	if _, err := f.Write(compressed); err != nil {
		return err
	}

	s.cacheArchive(name, data)
	return nil
}

// ReadArchive reads an archive from cache or disk, verifying the stored
// checksum.
func (s *ArchiveStore) ReadArchive(name string) ([]byte, error) {
	s.cacheMutex.RLock()
	if data, ok := s.archiveCache[name]; ok {
		s.cacheMutex.RUnlock()
		return data, nil
	}
	s.cacheMutex.RUnlock()

	filename := filepath.Join(s.baseDir, name+ArchiveFileExt)
	stored, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrArchiveNotFound, name)
		}
		return nil, err
	}
	if len(stored) < checksumSize {
		return nil, fmt.Errorf("%w: %s is truncated", ErrChecksumMismatch, name)
	}

	data, err := s.decoder.DecodeAll(stored[checksumSize:], nil)
	if err != nil {
		return nil, err
	}
	sum := checksum(data)
	if !bytes.Equal(sum[:], stored[:checksumSize]) {
		return nil, fmt.Errorf("%w: %s", ErrChecksumMismatch, name)
	}

	s.cacheArchive(name, data)
	return data, nil
}

// OpenArchive reads an archive and returns it as a random-access byte
// source for the dearchiver.
func (s *ArchiveStore) OpenArchive(name string) (blob.Source, error) {
	data, err := s.ReadArchive(name)
	if err != nil {
		return nil, err
	}
	return blob.MemorySource(data), nil
}

// Digest returns the hex BLAKE3 digest of the stored archive's raw
// bytes.
func (s *ArchiveStore) Digest(name string) (string, error) {
	data, err := s.ReadArchive(name)
	if err != nil {
		return "", err
	}
	return hash.SumString(data, hash.BLAKE3)
}

// ListArchives returns the names of stored archives.
func (s *ArchiveStore) ListArchives() ([]string, error) {
	files, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}
	archives := make([]string, 0, len(files))
	for _, file := range files {
		n := file.Name()
		if len(n) > len(ArchiveFileExt) && n[len(n)-len(ArchiveFileExt):] == ArchiveFileExt {
			archives = append(archives, n[:len(n)-len(ArchiveFileExt)])
		}
	}
	return archives, nil
}

// DeleteArchive removes a stored archive.
func (s *ArchiveStore) DeleteArchive(name string) error {
	s.cacheMutex.Lock()
	delete(s.archiveCache, name)
	for i, key := range s.cacheKeys {
		if key == name {
			s.cacheKeys = append(s.cacheKeys[:i], s.cacheKeys[i+1:]...)
			break
		}
	}
	s.cacheMutex.Unlock()

	return os.Remove(filepath.Join(s.baseDir, name+ArchiveFileExt))
}

// cacheArchive adds an archive to the cache, evicting the oldest entry
// when full.
func (s *ArchiveStore) cacheArchive(name string, data []byte) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	if _, ok := s.archiveCache[name]; !ok {
		if len(s.cacheKeys) >= s.cacheSize {
			oldest := s.cacheKeys[0]
			s.cacheKeys = s.cacheKeys[1:]
			delete(s.archiveCache, oldest)
		}
		s.cacheKeys = append(s.cacheKeys, name)
	}
	s.archiveCache[name] = data
}

// BloomFilter is a probabilistic set of resource names used to skip
// archives that cannot contain a queried name.
type BloomFilter struct {
	bits    []byte
	numHash uint
}

// NewBloomFilter creates a bloom filter with the given bit size and hash
// count.
func NewBloomFilter(size uint, numHash uint) *BloomFilter {
	if size == 0 {
		size = 8
	}
	return &BloomFilter{
		bits:    make([]byte, (size+7)/8),
		numHash: numHash,
	}
}

// Add adds an item to the bloom filter.
func (b *BloomFilter) Add(data []byte) {
	h1 := xxhash.Sum64(data)
	h2 := murmur3.Sum64(data)

	for i := uint(0); i < b.numHash; i++ {
		idx := (h1 + uint64(i)*h2) % uint64(len(b.bits)*8)
		b.bits[idx/8] |= 1 << (idx % 8)
	}
}

// Contains checks if an item might be in the bloom filter.
func (b *BloomFilter) Contains(data []byte) bool {
	h1 := xxhash.Sum64(data)
	h2 := murmur3.Sum64(data)

	for i := uint(0); i < b.numHash; i++ {
		idx := (h1 + uint64(i)*h2) % uint64(len(b.bits)*8)
		if b.bits[idx/8]&(1<<(idx%8)) == 0 {
			return false
		}
	}
	return true
}

// NewBloomFilterFromNames builds a filter sized for the given resource
// names.
func NewBloomFilterFromNames(names []string) *BloomFilter {
	filter := NewBloomFilter(uint(len(names)*10), 4)
	for _, name := range names {
		filter.Add([]byte(name))
	}
	return filter
}
