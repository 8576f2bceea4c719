// Package layout defines the fixed on-disk records of the device-object
// archive format.
//
// Archive file layout:
//
//	| ArchiveHeader |
//	| ChunkHeader * ChunkCount |  --> offset --> chunk body
//	| chunk bodies |
//	| shared data |               --> DataHeader + description per entry
//	| per-backend blocks |        --> shader tables, binding blobs
//
// All records are packed, little-endian, with absolute 32-bit offsets
// from the start of the file. The format makes no alignment guarantees
// beyond byte packing.
package layout

import (
	"errors"

	"github.com/TFMV/devarchive/internal/gfx"
	"github.com/TFMV/devarchive/internal/serializer"
)

const (
	// Magic identifies the archive format.
	Magic uint64 = 0x44494C4E54415243
	// Version is the only format version this package reads or writes.
	Version uint32 = 1
	// InvalidOffset marks an absent offset.
	InvalidOffset uint32 = ^uint32(0)
)

var (
	// ErrBadMagic is returned when the archive does not start with Magic.
	ErrBadMagic = errors.New("archive has invalid magic number")
	// ErrUnsupportedVersion is returned for any version other than Version.
	ErrUnsupportedVersion = errors.New("archive version is not supported")
	// ErrCorruptArchive is returned for any structural violation: offsets
	// out of bounds, truncated records, mismatched kind tags.
	ErrCorruptArchive = errors.New("archive is corrupt")
	// ErrDuplicateChunk is returned when a chunk kind appears twice.
	ErrDuplicateChunk = errors.New("archive contains duplicate chunk")
	// ErrUnknownChunk is returned for an unrecognized chunk kind.
	ErrUnknownChunk = errors.New("archive contains unknown chunk")
)

// ChunkKind tags a chunk of the archive. Each kind appears at most once.
type ChunkKind uint32

const (
	ChunkDebugInfo ChunkKind = iota
	ChunkResourceSignature
	ChunkRenderPass
	ChunkGraphicsPipeline
	ChunkComputePipeline
	ChunkRayTracingPipeline
	ChunkTilePipeline
	ChunkShaders
	chunkReserved
	// ChunkCount is the number of chunk kinds, reserved slot included.
	ChunkCount
)

// String provides the string representation of the chunk kind.
func (k ChunkKind) String() string {
	switch k {
	case ChunkDebugInfo:
		return "debug-info"
	case ChunkResourceSignature:
		return "resource-signature"
	case ChunkRenderPass:
		return "render-pass"
	case ChunkGraphicsPipeline:
		return "graphics-pipeline"
	case ChunkComputePipeline:
		return "compute-pipeline"
	case ChunkRayTracingPipeline:
		return "ray-tracing-pipeline"
	case ChunkTilePipeline:
		return "tile-pipeline"
	case ChunkShaders:
		return "shaders"
	default:
		return "reserved"
	}
}

// Named reports whether the chunk kind carries a named-resource array.
func (k ChunkKind) Named() bool {
	switch k {
	case ChunkResourceSignature, ChunkRenderPass, ChunkGraphicsPipeline,
		ChunkComputePipeline, ChunkRayTracingPipeline, ChunkTilePipeline:
		return true
	default:
		return false
	}
}

// ArchiveHeader is the first record of every archive.
type ArchiveHeader struct {
	Magic            uint64
	Version          uint32
	ChunkCount       uint32
	BlockBaseOffsets [gfx.BackendCount]uint32
}

// ArchiveHeaderSize is the encoded size of ArchiveHeader.
const ArchiveHeaderSize = 8 + 4 + 4 + 4*int(gfx.BackendCount)

// Serialize runs the header through the tri-mode serializer.
func (h *ArchiveHeader) Serialize(s *serializer.Serializer) {
	s.Uint64(&h.Magic)
	s.Uint32(&h.Version)
	s.Uint32(&h.ChunkCount)
	for i := range h.BlockBaseOffsets {
		s.Uint32(&h.BlockBaseOffsets[i])
	}
}

// ChunkHeader is one entry of the chunk directory.
type ChunkHeader struct {
	Kind   ChunkKind
	Size   uint32
	Offset uint32
}

// ChunkHeaderSize is the encoded size of ChunkHeader.
const ChunkHeaderSize = 12

// Serialize runs the chunk header through the tri-mode serializer.
func (h *ChunkHeader) Serialize(s *serializer.Serializer) {
	k := uint32(h.Kind)
	s.Uint32(&k)
	h.Kind = ChunkKind(k)
	s.Uint32(&h.Size)
	s.Uint32(&h.Offset)
}

// DataHeader is the kind-tagged record at the start of a named entry's
// shared bytes. Per-backend offsets are relative to that backend's block;
// InvalidOffset with size zero marks an absent backend.
type DataHeader struct {
	Kind           ChunkKind
	PerBackendSize [gfx.BackendCount]uint32
	PerBackendOff  [gfx.BackendCount]uint32
}

// DataHeaderSize is the encoded size of DataHeader.
const DataHeaderSize = 4 + 8*int(gfx.BackendCount)

// NewDataHeader returns a header of the given kind with every backend
// marked absent.
func NewDataHeader(kind ChunkKind) DataHeader {
	h := DataHeader{Kind: kind}
	for i := range h.PerBackendOff {
		h.PerBackendOff[i] = InvalidOffset
	}
	return h
}

// Serialize runs the data header through the tri-mode serializer.
func (h *DataHeader) Serialize(s *serializer.Serializer) {
	k := uint32(h.Kind)
	s.Uint32(&k)
	h.Kind = ChunkKind(k)
	for i := range h.PerBackendSize {
		s.Uint32(&h.PerBackendSize[i])
	}
	for i := range h.PerBackendOff {
		s.Uint32(&h.PerBackendOff[i])
	}
}

// Size returns the backend's data size.
func (h *DataHeader) Size(b gfx.Backend) uint32 { return h.PerBackendSize[b] }

// Offset returns the backend's block-relative data offset.
func (h *DataHeader) Offset(b gfx.Backend) uint32 { return h.PerBackendOff[b] }

// SetData records the backend's size and block-relative offset.
func (h *DataHeader) SetData(b gfx.Backend, off, size uint32) {
	h.PerBackendOff[b] = off
	h.PerBackendSize[b] = size
}

// FileOffsetAndSize locates a byte range.
type FileOffsetAndSize struct {
	Offset uint32
	Size   uint32
}

// FileOffsetAndSizeSize is the encoded size of FileOffsetAndSize.
const FileOffsetAndSizeSize = 8

// Serialize runs the record through the tri-mode serializer.
func (f *FileOffsetAndSize) Serialize(s *serializer.Serializer) {
	s.Uint32(&f.Offset)
	s.Uint32(&f.Size)
}

// NamedResourceArray is the body of a named-resource chunk: a count,
// three parallel arrays, and the packed zero-terminated names.
// NameLengths include the terminator. A DataOffset of InvalidOffset
// marks an entry without shared data.
type NamedResourceArray struct {
	NameLengths []uint32
	DataSizes   []uint32
	DataOffsets []uint32
	Names       []string
}

// Serialize runs the named-resource array through the tri-mode
// serializer. All four arrays share one count.
func (a *NamedResourceArray) Serialize(s *serializer.Serializer) {
	n := uint32(len(a.Names))
	s.Uint32(&n)
	if s.IsReading() {
		if s.Err() != nil {
			return
		}
		// Each entry needs three uint32 array slots plus a terminated
		// name, so a count beyond that bound is corrupt.
		if int64(n)*12 > int64(s.Remain()) {
			s.Fail()
			return
		}
		a.NameLengths = make([]uint32, n)
		a.DataSizes = make([]uint32, n)
		a.DataOffsets = make([]uint32, n)
		a.Names = make([]string, n)
	}
	for i := range a.NameLengths {
		s.Uint32(&a.NameLengths[i])
	}
	for i := range a.DataSizes {
		s.Uint32(&a.DataSizes[i])
	}
	for i := range a.DataOffsets {
		s.Uint32(&a.DataOffsets[i])
	}
	for i := range a.Names {
		if s.IsReading() {
			nl := int(a.NameLengths[i])
			if nl == 0 {
				s.Fail()
				return
			}
			b := make([]byte, nl)
			s.Bytes(b)
			if s.Err() != nil {
				return
			}
			if b[nl-1] != 0 {
				s.Fail()
				return
			}
			a.Names[i] = string(b[:nl-1])
		} else {
			b := make([]byte, len(a.Names[i])+1)
			copy(b, a.Names[i])
			s.Bytes(b)
		}
	}
}
