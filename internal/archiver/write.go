package archiver

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/TFMV/devarchive/internal/gfx"
	"github.com/TFMV/devarchive/internal/layout"
	"github.com/TFMV/devarchive/internal/serializer"
)

// element is a byte region assembled in two passes: addSpace during
// reservation, append during filling. The two passes must agree.
type element struct {
	reserved int
	buf      []byte
}

func (e *element) addSpace(n int) { e.reserved += n }

func (e *element) reserve() { e.buf = make([]byte, 0, e.reserved) }

// append copies p into the element and returns its offset.
func (e *element) append(p []byte) uint32 {
	off := uint32(len(e.buf))
	e.buf = append(e.buf, p...)
	return off
}

func (e *element) empty() bool { return len(e.buf) == 0 }

func (e *element) check() error {
	if e.reserved != len(e.buf) {
		return fmt.Errorf("reserved %d bytes but wrote %d", e.reserved, len(e.buf))
	}
	return nil
}

// pending holds every region of the archive while it is assembled.
type pending struct {
	header     []byte
	chunks     [layout.ChunkCount][]byte
	shared     element
	perBackend [gfx.BackendCount]element
	total      int
}

// namedItem is one entry of a named-resource chunk during assembly.
type namedItem struct {
	name        string
	shared      []byte
	backendData func(b gfx.Backend) []byte
}

func (a *Archiver) namedItems(kind layout.ChunkKind) []namedItem {
	switch kind {
	case layout.ChunkResourceSignature:
		items := make([]namedItem, 0, a.prs.len())
		for _, name := range a.prs.order {
			entry, _ := a.prs.get(name)
			sig := entry.sig
			items = append(items, namedItem{
				name:   name,
				shared: entry.shared,
				// Metal macOS reuses the iOS signature bytes, copied into
				// its own block.
				backendData: func(b gfx.Backend) []byte {
					return sig.PerBackend[b.SignatureBackend()]
				},
			})
		}
		return items
	case layout.ChunkRenderPass:
		items := make([]namedItem, 0, a.rps.len())
		for _, name := range a.rps.order {
			entry, _ := a.rps.get(name)
			items = append(items, namedItem{name: name, shared: entry.shared})
		}
		return items
	default:
		var kind4 pipelineKind
		for k := kindGraphics; k < pipelineKindCount; k++ {
			if k.chunk() == kind {
				kind4 = k
			}
		}
		items := make([]namedItem, 0, a.psos[kind4].len())
		for _, name := range a.psos[kind4].order {
			entry, _ := a.psos[kind4].get(name)
			items = append(items, namedItem{
				name:        name,
				shared:      entry.shared,
				backendData: func(b gfx.Backend) []byte { return entry.perBackend[b] },
			})
		}
		return items
	}
}

var namedChunkOrder = []layout.ChunkKind{
	layout.ChunkResourceSignature,
	layout.ChunkRenderPass,
	layout.ChunkGraphicsPipeline,
	layout.ChunkComputePipeline,
	layout.ChunkTilePipeline,
	layout.ChunkRayTracingPipeline,
}

// reserveSpace sizes the shared and per-backend regions without writing
// any payload.
func (a *Archiver) reserveSpace(p *pending) {
	for b := range a.shaders {
		t := &a.shaders[b]
		if len(t.list) == 0 {
			continue
		}
		p.perBackend[b].addSpace(layout.FileOffsetAndSizeSize * len(t.list))
		for _, sh := range t.list {
			p.perBackend[b].addSpace(len(sh))
		}
	}

	for _, kind := range namedChunkOrder {
		for _, item := range a.namedItems(kind) {
			p.shared.addSpace(layout.DataHeaderSize + len(item.shared))
			if item.backendData == nil {
				continue
			}
			for b := gfx.Backend(0); b < gfx.BackendCount; b++ {
				p.perBackend[b].addSpace(len(item.backendData(b)))
			}
		}
	}

	p.shared.reserve()
	for b := range p.perBackend {
		p.perBackend[b].reserve()
	}
}

// writeDebugInfo fills the debug chunk with the engine API version and
// the optional source commit identifier.
func (a *Archiver) writeDebugInfo(p *pending) error {
	body, err := serializeSchema(func(s *serializer.Serializer) {
		v := gfx.APIVersion
		s.Uint32(&v)
		commit := a.commitHash
		s.String(&commit)
	})
	if err != nil {
		return err
	}
	p.chunks[layout.ChunkDebugInfo] = body
	return nil
}

// writeShaderData emits each backend's shader block: the offset/size
// preamble followed by the packed shader entries. The shaders chunk body
// is a single data header pointing at each preamble.
func (a *Archiver) writeShaderData(p *pending) error {
	any := false
	for b := range a.shaders {
		if len(a.shaders[b].list) > 0 {
			any = true
		}
	}
	if !any {
		return nil
	}

	hdr := layout.NewDataHeader(layout.ChunkShaders)
	for b := range a.shaders {
		list := a.shaders[b].list
		if len(list) == 0 {
			continue
		}
		dst := &p.perBackend[b]

		preamble := make([]layout.FileOffsetAndSize, len(list))
		// Shader payloads follow the preamble; their offsets are known
		// before anything is written because the preamble size is fixed.
		off := uint32(layout.FileOffsetAndSizeSize * len(list))
		for i, sh := range list {
			preamble[i] = layout.FileOffsetAndSize{Offset: off, Size: uint32(len(sh))}
			off += uint32(len(sh))
		}
		blob, err := serializeSchema(func(s *serializer.Serializer) {
			for i := range preamble {
				preamble[i].Serialize(s)
			}
		})
		if err != nil {
			return err
		}
		preambleOff := dst.append(blob)
		hdr.SetData(gfx.Backend(b), preambleOff, uint32(len(blob)))
		for _, sh := range list {
			dst.append(sh)
		}
	}

	body, err := serializeSchema(hdr.Serialize)
	if err != nil {
		return err
	}
	p.chunks[layout.ChunkShaders] = body
	return nil
}

// writeNamedChunk emits one named-resource chunk body and places each
// entry's data header and shared blob into the shared region. Data
// offsets are shared-relative until updateOffsets rebases them.
func (a *Archiver) writeNamedChunk(p *pending, kind layout.ChunkKind) error {
	items := a.namedItems(kind)
	if len(items) == 0 {
		return nil
	}

	arr := layout.NamedResourceArray{
		NameLengths: make([]uint32, len(items)),
		DataSizes:   make([]uint32, len(items)),
		DataOffsets: make([]uint32, len(items)),
		Names:       make([]string, len(items)),
	}
	for i, item := range items {
		hdr := layout.NewDataHeader(kind)
		if item.backendData != nil {
			for b := gfx.Backend(0); b < gfx.BackendCount; b++ {
				data := item.backendData(b)
				if len(data) == 0 {
					continue
				}
				off := p.perBackend[b].append(data)
				hdr.SetData(b, off, uint32(len(data)))
			}
		}
		hdrBlob, err := serializeSchema(hdr.Serialize)
		if err != nil {
			return err
		}
		headerOff := p.shared.append(hdrBlob)
		p.shared.append(item.shared)

		arr.Names[i] = item.name
		arr.NameLengths[i] = uint32(len(item.name)) + 1
		arr.DataSizes[i] = uint32(layout.DataHeaderSize + len(item.shared))
		arr.DataOffsets[i] = headerOff
	}

	body, err := serializeSchema(arr.Serialize)
	if err != nil {
		return err
	}
	p.chunks[kind] = body
	return nil
}

// patchDataOffsets rebases a named chunk body's data-offset array by
// adding the absolute file offset of the shared region.
func patchDataOffsets(body []byte, sharedBase uint32) {
	n := binary.LittleEndian.Uint32(body)
	// count, name-lengths, data-sizes precede the data-offset array.
	base := 4 + 8*int(n)
	for i := 0; i < int(n); i++ {
		pos := base + 4*i
		off := binary.LittleEndian.Uint32(body[pos:])
		if off == layout.InvalidOffset {
			continue
		}
		binary.LittleEndian.PutUint32(body[pos:], off+sharedBase)
	}
}

// updateOffsets assigns absolute file offsets to every chunk, the shared
// region, and each backend block, then builds the file header and chunk
// directory.
func (a *Archiver) updateOffsets(p *pending) error {
	numChunks := 0
	for _, body := range p.chunks {
		if len(body) > 0 {
			numChunks++
		}
	}

	hdr := layout.ArchiveHeader{
		Magic:      layout.Magic,
		Version:    layout.Version,
		ChunkCount: uint32(numChunks),
	}

	ofs := uint32(layout.ArchiveHeaderSize + numChunks*layout.ChunkHeaderSize)
	chunkHeaders := make([]layout.ChunkHeader, 0, numChunks)
	for kind := layout.ChunkKind(0); kind < layout.ChunkCount; kind++ {
		body := p.chunks[kind]
		if len(body) == 0 {
			continue
		}
		chunkHeaders = append(chunkHeaders, layout.ChunkHeader{
			Kind:   kind,
			Size:   uint32(len(body)),
			Offset: ofs,
		})
		ofs += uint32(len(body))
	}

	sharedBase := ofs
	for _, kind := range namedChunkOrder {
		if len(p.chunks[kind]) > 0 {
			patchDataOffsets(p.chunks[kind], sharedBase)
		}
	}
	ofs += uint32(len(p.shared.buf))

	for b := range p.perBackend {
		if p.perBackend[b].empty() {
			hdr.BlockBaseOffsets[b] = layout.InvalidOffset
			continue
		}
		hdr.BlockBaseOffsets[b] = ofs
		ofs += uint32(len(p.perBackend[b].buf))
	}
	p.total = int(ofs)

	headerBlob, err := serializeSchema(func(s *serializer.Serializer) {
		hdr.Serialize(s)
		for i := range chunkHeaders {
			chunkHeaders[i].Serialize(s)
		}
	})
	if err != nil {
		return err
	}
	p.header = headerBlob
	return nil
}

// SerializeToStream lays out the archive and writes it to w. The emitted
// byte count always equals the offsets computed during layout.
func (a *Archiver) SerializeToStream(w io.Writer) error {
	var p pending
	a.reserveSpace(&p)
	if err := a.writeDebugInfo(&p); err != nil {
		return err
	}
	if err := a.writeShaderData(&p); err != nil {
		return err
	}
	for _, kind := range namedChunkOrder {
		if err := a.writeNamedChunk(&p, kind); err != nil {
			return err
		}
	}
	if err := p.shared.check(); err != nil {
		return fmt.Errorf("shared data: %w", err)
	}
	for b := range p.perBackend {
		if err := p.perBackend[b].check(); err != nil {
			return fmt.Errorf("%s block: %w", gfx.Backend(b), err)
		}
	}
	if err := a.updateOffsets(&p); err != nil {
		return err
	}

	written := 0
	emit := func(b []byte) error {
		if len(b) == 0 {
			return nil
		}
		n, err := w.Write(b)
		written += n
		return err
	}
	if err := emit(p.header); err != nil {
		return err
	}
	for kind := layout.ChunkKind(0); kind < layout.ChunkCount; kind++ {
		if err := emit(p.chunks[kind]); err != nil {
			return err
		}
	}
	if err := emit(p.shared.buf); err != nil {
		return err
	}
	for b := range p.perBackend {
		if err := emit(p.perBackend[b].buf); err != nil {
			return err
		}
	}
	if written != p.total {
		return fmt.Errorf("emitted %d bytes, computed layout is %d", written, p.total)
	}
	return nil
}

// SerializeToBlob lays out the archive and returns its bytes.
func (a *Archiver) SerializeToBlob() ([]byte, error) {
	var buf bytes.Buffer
	if err := a.SerializeToStream(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
