// Package dearchiver reads device-object archives and materializes live
// objects from them on demand.
//
// A Dearchiver parses the archive's directories once at construction and
// is immutable afterwards except for its caches. Unpacks may run from
// many goroutines; each named resource kind has one mutex guarding its
// directory and weak-reference cache, and all byte-source reads and
// factory calls happen outside the locks.
package dearchiver

import (
	"errors"
	"fmt"
	"sync"
	"weak"

	"github.com/go-kit/log"

	"github.com/TFMV/devarchive/internal/blob"
	"github.com/TFMV/devarchive/internal/device"
	"github.com/TFMV/devarchive/internal/gfx"
	"github.com/TFMV/devarchive/internal/layout"
	"github.com/TFMV/devarchive/internal/serializer"
)

var (
	// ErrNotFound is returned when a name is not present in the archive.
	ErrNotFound = errors.New("resource is not present in the archive")
	// ErrBackendUnavailable is returned when the selected backend has no
	// data for the requested resource.
	ErrBackendUnavailable = errors.New("archive has no data for the selected backend")
	// ErrFactoryFailed is returned when the external factory rejected a
	// description.
	ErrFactoryFailed = errors.New("object factory failed")
	// ErrInvalidArgument is returned for unusable unpack options.
	ErrInvalidArgument = errors.New("invalid argument")
)

// DebugInfo is the content of the archive's debug chunk.
type DebugInfo struct {
	APIVersion uint32
	CommitHash string
}

// resourceMap is one kind's name directory plus its weak-reference
// cache, guarded by a single mutex. The directory is immutable after
// construction.
type resourceMap[T any] struct {
	mu      sync.Mutex
	entries map[string]layout.FileOffsetAndSize
	cache   map[string]weak.Pointer[T]
}

func (m *resourceMap[T]) lookup(name string) (layout.FileOffsetAndSize, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fos, ok := m.entries[name]
	return fos, ok
}

// cached returns the live object for name, or nil. Upgrading the weak
// pointer under the mutex is the synchronization point that keeps
// concurrent unpacks from multiplying live objects.
func (m *resourceMap[T]) cached(name string) *T {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.cache[name]; ok {
		if v := p.Value(); v != nil {
			return v
		}
	}
	return nil
}

// store installs a weak reference for name unless a live one is already
// present.
func (m *resourceMap[T]) store(name string, v *T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[name]; !ok {
		return
	}
	if p, ok := m.cache[name]; ok && p.Value() != nil {
		return
	}
	if m.cache == nil {
		m.cache = make(map[string]weak.Pointer[T])
	}
	m.cache[name] = weak.Make(v)
}

func (m *resourceMap[T]) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = nil
}

// shaderSlot locates one shader of the selected backend and holds the
// live shader once built. Shader references are strong: pipelines do not
// keep the archive's shaders alive, so a weak slot would rebuild the
// shader on every pipeline.
type shaderSlot struct {
	layout.FileOffsetAndSize
	cache *device.Shader
}

// Dearchiver reads one archive for one selected backend.
type Dearchiver struct {
	src     blob.Source
	backend gfx.Backend
	logger  log.Logger
	base    [gfx.BackendCount]uint32
	debug   DebugInfo

	prs        resourceMap[device.ResourceSignature]
	rps        resourceMap[device.RenderPass]
	graphics   resourceMap[device.Pipeline]
	compute    resourceMap[device.Pipeline]
	tile       resourceMap[device.Pipeline]
	rayTracing resourceMap[device.Pipeline]

	shadersMu sync.Mutex
	shaders   []shaderSlot
}

// New parses the archive in src for the given backend. Structural
// problems fail construction; a valid but empty archive is fine.
func New(src blob.Source, backend gfx.Backend, logger log.Logger) (*Dearchiver, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: byte source must not be nil", ErrInvalidArgument)
	}
	if backend >= gfx.BackendCount {
		return nil, fmt.Errorf("%w: unknown backend %d", ErrInvalidArgument, backend)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	d := &Dearchiver{src: src, backend: backend, logger: logger}

	hdrData, err := blob.ReadRange(src, 0, uint32(layout.ArchiveHeaderSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", layout.ErrCorruptArchive, err)
	}
	var hdr layout.ArchiveHeader
	r := serializer.NewReader(hdrData)
	hdr.Serialize(r)
	if r.Err() != nil {
		return nil, fmt.Errorf("%w: truncated header", layout.ErrCorruptArchive)
	}
	if hdr.Magic != layout.Magic {
		return nil, layout.ErrBadMagic
	}
	if hdr.Version != layout.Version {
		return nil, fmt.Errorf("%w: version %d, expected %d", layout.ErrUnsupportedVersion, hdr.Version, layout.Version)
	}
	if hdr.ChunkCount > uint32(layout.ChunkCount) {
		return nil, fmt.Errorf("%w: chunk count %d", layout.ErrCorruptArchive, hdr.ChunkCount)
	}
	d.base = hdr.BlockBaseOffsets

	chunkData, err := blob.ReadRange(src, uint32(layout.ArchiveHeaderSize), hdr.ChunkCount*uint32(layout.ChunkHeaderSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", layout.ErrCorruptArchive, err)
	}
	chunks := make([]layout.ChunkHeader, hdr.ChunkCount)
	r = serializer.NewReader(chunkData)
	for i := range chunks {
		chunks[i].Serialize(r)
	}
	if r.Err() != nil {
		return nil, fmt.Errorf("%w: truncated chunk directory", layout.ErrCorruptArchive)
	}

	var seen [layout.ChunkCount]bool
	for i := range chunks {
		chunk := &chunks[i]
		if chunk.Kind >= layout.ChunkCount {
			return nil, fmt.Errorf("%w: kind %d", layout.ErrUnknownChunk, chunk.Kind)
		}
		if seen[chunk.Kind] {
			return nil, fmt.Errorf("%w: %s", layout.ErrDuplicateChunk, chunk.Kind)
		}
		seen[chunk.Kind] = true
		if int64(chunk.Offset)+int64(chunk.Size) > src.Size() {
			return nil, fmt.Errorf("%w: chunk %s exceeds archive size", layout.ErrCorruptArchive, chunk.Kind)
		}

		switch chunk.Kind {
		case layout.ChunkDebugInfo:
			err = d.readDebugInfo(chunk)
		case layout.ChunkResourceSignature:
			err = readNamedResources(d, chunk, &d.prs)
		case layout.ChunkRenderPass:
			err = readNamedResources(d, chunk, &d.rps)
		case layout.ChunkGraphicsPipeline:
			err = readNamedResources(d, chunk, &d.graphics)
		case layout.ChunkComputePipeline:
			err = readNamedResources(d, chunk, &d.compute)
		case layout.ChunkTilePipeline:
			err = readNamedResources(d, chunk, &d.tile)
		case layout.ChunkRayTracingPipeline:
			err = readNamedResources(d, chunk, &d.rayTracing)
		case layout.ChunkShaders:
			err = d.readShaderIndex(chunk)
		default:
			err = fmt.Errorf("%w: %s", layout.ErrUnknownChunk, chunk.Kind)
		}
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Backend returns the backend the dearchiver was opened for.
func (d *Dearchiver) Backend() gfx.Backend { return d.backend }

// DebugInfo returns the archive's debug chunk content.
func (d *Dearchiver) DebugInfo() DebugInfo { return d.debug }

// ClearCache drops every cached live object. Objects still referenced by
// callers are unaffected.
func (d *Dearchiver) ClearCache() {
	d.prs.clear()
	d.rps.clear()
	d.graphics.clear()
	d.compute.clear()
	d.tile.clear()
	d.rayTracing.clear()

	d.shadersMu.Lock()
	for i := range d.shaders {
		d.shaders[i].cache = nil
	}
	d.shadersMu.Unlock()
}

func (d *Dearchiver) readDebugInfo(chunk *layout.ChunkHeader) error {
	body, err := blob.ReadRange(d.src, chunk.Offset, chunk.Size)
	if err != nil {
		return fmt.Errorf("%w: %v", layout.ErrCorruptArchive, err)
	}
	r := serializer.NewReader(body)
	r.Uint32(&d.debug.APIVersion)
	r.String(&d.debug.CommitHash)
	if r.Err() != nil || !r.End() {
		return fmt.Errorf("%w: malformed debug info", layout.ErrCorruptArchive)
	}
	if d.debug.APIVersion != gfx.APIVersion {
		d.logger.Log("msg", "archive was created with a different engine API version",
			"archive", d.debug.APIVersion, "engine", gfx.APIVersion)
	}
	return nil
}

// readNamedResources parses one named-resource chunk into its directory.
func readNamedResources[T any](d *Dearchiver, chunk *layout.ChunkHeader, m *resourceMap[T]) error {
	body, err := blob.ReadRange(d.src, chunk.Offset, chunk.Size)
	if err != nil {
		return fmt.Errorf("%w: %v", layout.ErrCorruptArchive, err)
	}
	var arr layout.NamedResourceArray
	r := serializer.NewReader(body)
	arr.Serialize(r)
	if r.Err() != nil {
		return fmt.Errorf("%w: malformed %s chunk", layout.ErrCorruptArchive, chunk.Kind)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]layout.FileOffsetAndSize, len(arr.Names))
	for i, name := range arr.Names {
		if name == "" {
			return fmt.Errorf("%w: empty resource name in %s chunk", layout.ErrCorruptArchive, chunk.Kind)
		}
		fos := layout.FileOffsetAndSize{Offset: arr.DataOffsets[i], Size: arr.DataSizes[i]}
		if fos.Offset != layout.InvalidOffset && int64(fos.Offset)+int64(fos.Size) > d.src.Size() {
			return fmt.Errorf("%w: %s %q data exceeds archive size", layout.ErrCorruptArchive, chunk.Kind, name)
		}
		if _, dup := m.entries[name]; dup {
			return fmt.Errorf("%w: duplicate name %q in %s chunk", layout.ErrCorruptArchive, name, chunk.Kind)
		}
		m.entries[name] = fos
	}
	return nil
}

// readShaderIndex parses the shaders chunk and the selected backend's
// offset/size preamble into the shader slot table.
func (d *Dearchiver) readShaderIndex(chunk *layout.ChunkHeader) error {
	if chunk.Size != uint32(layout.DataHeaderSize) {
		return fmt.Errorf("%w: shaders chunk has size %d", layout.ErrCorruptArchive, chunk.Size)
	}
	body, err := blob.ReadRange(d.src, chunk.Offset, chunk.Size)
	if err != nil {
		return fmt.Errorf("%w: %v", layout.ErrCorruptArchive, err)
	}
	var hdr layout.DataHeader
	r := serializer.NewReader(body)
	hdr.Serialize(r)
	if r.Err() != nil || hdr.Kind != layout.ChunkShaders {
		return fmt.Errorf("%w: malformed shaders chunk", layout.ErrCorruptArchive)
	}

	size := hdr.Size(d.backend)
	if size == 0 {
		// The selected backend contributed no shaders.
		return nil
	}
	if size%uint32(layout.FileOffsetAndSizeSize) != 0 {
		return fmt.Errorf("%w: shader table size %d", layout.ErrCorruptArchive, size)
	}
	base := d.base[d.backend]
	if base == layout.InvalidOffset {
		return fmt.Errorf("%w: shaders recorded for %s but its block is absent", layout.ErrCorruptArchive, d.backend)
	}
	table, err := blob.ReadRange(d.src, base+hdr.Offset(d.backend), size)
	if err != nil {
		return fmt.Errorf("%w: %v", layout.ErrCorruptArchive, err)
	}

	count := int(size) / layout.FileOffsetAndSizeSize
	slots := make([]shaderSlot, count)
	r = serializer.NewReader(table)
	for i := range slots {
		slots[i].FileOffsetAndSize.Serialize(r)
	}
	if r.Err() != nil {
		return fmt.Errorf("%w: truncated shader table", layout.ErrCorruptArchive)
	}

	d.shadersMu.Lock()
	d.shaders = slots
	d.shadersMu.Unlock()
	return nil
}

// loadNamed reads a named entry's shared bytes and returns the decoded
// data header plus a serializer positioned at the description.
func loadNamed[T any](d *Dearchiver, m *resourceMap[T], kind layout.ChunkKind, name string) (*layout.DataHeader, *serializer.Serializer, error) {
	fos, ok := m.lookup(name)
	if !ok {
		return nil, nil, fmt.Errorf("%s %q: %w", kind, name, ErrNotFound)
	}
	data, err := blob.ReadRange(d.src, fos.Offset, fos.Size)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", layout.ErrCorruptArchive, err)
	}
	r := serializer.NewReader(data)
	var hdr layout.DataHeader
	hdr.Serialize(r)
	if r.Err() != nil || hdr.Kind != kind {
		return nil, nil, fmt.Errorf("%w: %s %q has mismatched data header", layout.ErrCorruptArchive, kind, name)
	}
	return &hdr, r, nil
}

// loadBackendData reads the selected backend's bytes for one entry.
func (d *Dearchiver) loadBackendData(hdr *layout.DataHeader) ([]byte, error) {
	size := hdr.Size(d.backend)
	off := hdr.Offset(d.backend)
	if size == 0 || off == layout.InvalidOffset {
		return nil, fmt.Errorf("%s: %w", d.backend, ErrBackendUnavailable)
	}
	base := d.base[d.backend]
	if base == layout.InvalidOffset {
		return nil, fmt.Errorf("%s: %w", d.backend, ErrBackendUnavailable)
	}
	data, err := blob.ReadRange(d.src, base+off, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", layout.ErrCorruptArchive, err)
	}
	return data, nil
}

// loadShaders resolves shader indices into live shaders, reusing cached
// slots. Two goroutines may build the same shader; the later install
// wins and both handles refer to content-identical bytes.
func (d *Dearchiver) loadShaders(indices []uint32, dev device.Device) ([]*device.Shader, error) {
	shaders := make([]*device.Shader, len(indices))
	for i, idx := range indices {
		d.shadersMu.Lock()
		if int(idx) >= len(d.shaders) {
			d.shadersMu.Unlock()
			return nil, fmt.Errorf("%w: shader index %d out of range", layout.ErrCorruptArchive, idx)
		}
		if sh := d.shaders[idx].cache; sh != nil {
			d.shadersMu.Unlock()
			shaders[i] = sh
			continue
		}
		fos := d.shaders[idx].FileOffsetAndSize
		d.shadersMu.Unlock()

		base := d.base[d.backend]
		if base == layout.InvalidOffset {
			return nil, fmt.Errorf("%s: %w", d.backend, ErrBackendUnavailable)
		}
		data, err := blob.ReadRange(d.src, base+fos.Offset, fos.Size)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", layout.ErrCorruptArchive, err)
		}
		r := serializer.NewReader(data)
		var ci gfx.ShaderCreateInfo
		gfx.SerializeShaderHeader(r, &ci)
		payload := r.Remaining()
		if r.Err() != nil {
			return nil, fmt.Errorf("%w: malformed shader %d", layout.ErrCorruptArchive, idx)
		}

		sh, err := dev.CreateShader(&ci, payload)
		if err != nil {
			return nil, fmt.Errorf("%w: shader %d: %v", ErrFactoryFailed, idx, err)
		}
		d.shadersMu.Lock()
		d.shaders[idx].cache = sh
		d.shadersMu.Unlock()
		shaders[i] = sh
	}
	return shaders, nil
}
