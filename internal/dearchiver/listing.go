package dearchiver

import (
	"sort"

	"github.com/TFMV/devarchive/internal/gfx"
	"github.com/TFMV/devarchive/internal/layout"
)

// ResourceInfo describes one named entry of the archive for inspection
// tooling. Size covers the entry's shared bytes (data header included).
type ResourceInfo struct {
	Kind layout.ChunkKind
	Name string
	Size uint32
}

func (d *Dearchiver) mapFor(kind layout.ChunkKind) map[string]layout.FileOffsetAndSize {
	switch kind {
	case layout.ChunkResourceSignature:
		return d.prs.entries
	case layout.ChunkRenderPass:
		return d.rps.entries
	case layout.ChunkGraphicsPipeline:
		return d.graphics.entries
	case layout.ChunkComputePipeline:
		return d.compute.entries
	case layout.ChunkTilePipeline:
		return d.tile.entries
	case layout.ChunkRayTracingPipeline:
		return d.rayTracing.entries
	default:
		return nil
	}
}

// ResourceNames returns the sorted names stored under one chunk kind.
// Directories are immutable after construction, so no lock is needed.
func (d *Dearchiver) ResourceNames(kind layout.ChunkKind) []string {
	m := d.mapFor(kind)
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resources returns every named entry of the archive, ordered by chunk
// kind then name.
func (d *Dearchiver) Resources() []ResourceInfo {
	var out []ResourceInfo
	for kind := layout.ChunkKind(0); kind < layout.ChunkCount; kind++ {
		if !kind.Named() {
			continue
		}
		m := d.mapFor(kind)
		for _, name := range d.ResourceNames(kind) {
			out = append(out, ResourceInfo{Kind: kind, Name: name, Size: m[name].Size})
		}
	}
	return out
}

// ShaderCount returns the number of shaders recorded for the selected
// backend.
func (d *Dearchiver) ShaderCount() int {
	d.shadersMu.Lock()
	defer d.shadersMu.Unlock()
	return len(d.shaders)
}

// BlockBaseOffsets returns the per-backend block base offsets from the
// archive header. Absent blocks carry layout.InvalidOffset.
func (d *Dearchiver) BlockBaseOffsets() [gfx.BackendCount]uint32 { return d.base }
