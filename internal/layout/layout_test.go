package layout

import (
	"reflect"
	"testing"

	"github.com/TFMV/devarchive/internal/gfx"
	"github.com/TFMV/devarchive/internal/serializer"
)

func encoded(t *testing.T, schema func(*serializer.Serializer)) []byte {
	t.Helper()
	m := serializer.NewMeasurer()
	schema(m)
	buf := make([]byte, m.Size())
	w := serializer.NewWriter(buf)
	schema(w)
	if err := w.Err(); err != nil || !w.End() {
		t.Fatalf("write failed: err=%v end=%v", err, w.End())
	}
	return buf
}

func TestRecordSizes(t *testing.T) {
	t.Parallel()

	var hdr ArchiveHeader
	if got := len(encoded(t, hdr.Serialize)); got != ArchiveHeaderSize {
		t.Fatalf("ArchiveHeader encodes to %d bytes, constant says %d", got, ArchiveHeaderSize)
	}

	var chunk ChunkHeader
	if got := len(encoded(t, chunk.Serialize)); got != ChunkHeaderSize {
		t.Fatalf("ChunkHeader encodes to %d bytes, constant says %d", got, ChunkHeaderSize)
	}

	dh := NewDataHeader(ChunkResourceSignature)
	if got := len(encoded(t, dh.Serialize)); got != DataHeaderSize {
		t.Fatalf("DataHeader encodes to %d bytes, constant says %d", got, DataHeaderSize)
	}

	var fos FileOffsetAndSize
	if got := len(encoded(t, fos.Serialize)); got != FileOffsetAndSizeSize {
		t.Fatalf("FileOffsetAndSize encodes to %d bytes, constant says %d", got, FileOffsetAndSizeSize)
	}
}

func TestDataHeaderDefaults(t *testing.T) {
	t.Parallel()

	h := NewDataHeader(ChunkGraphicsPipeline)
	for b := gfx.Backend(0); b < gfx.BackendCount; b++ {
		if h.Offset(b) != InvalidOffset {
			t.Fatalf("backend %s offset not initialized to sentinel", b)
		}
		if h.Size(b) != 0 {
			t.Fatalf("backend %s size not zero", b)
		}
	}

	h.SetData(gfx.Vulkan, 128, 64)
	if h.Offset(gfx.Vulkan) != 128 || h.Size(gfx.Vulkan) != 64 {
		t.Fatal("SetData did not record the backend slot")
	}
}

func TestDataHeaderRoundTrip(t *testing.T) {
	t.Parallel()

	in := NewDataHeader(ChunkComputePipeline)
	in.SetData(gfx.D3D12, 4096, 512)
	in.SetData(gfx.MetalMacOS, 0, 16)

	buf := encoded(t, in.Serialize)
	var out DataHeader
	r := serializer.NewReader(buf)
	out.Serialize(r)
	if err := r.Err(); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("data header mismatch:\n got %+v\nwant %+v", out, in)
	}
}

func TestNamedResourceArrayRoundTrip(t *testing.T) {
	t.Parallel()

	in := NamedResourceArray{
		NameLengths: []uint32{2, 9},
		DataSizes:   []uint32{100, 200},
		DataOffsets: []uint32{0, InvalidOffset},
		Names:       []string{"A", "Pipeline"},
	}

	buf := encoded(t, in.Serialize)
	var out NamedResourceArray
	r := serializer.NewReader(buf)
	out.Serialize(r)
	if err := r.Err(); err != nil || !r.End() {
		t.Fatalf("read failed: err=%v end=%v", r.Err(), r.End())
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("array mismatch:\n got %+v\nwant %+v", out, in)
	}
}

func TestNamedResourceArrayRejectsUnterminatedName(t *testing.T) {
	t.Parallel()

	in := NamedResourceArray{
		NameLengths: []uint32{4},
		DataSizes:   []uint32{0},
		DataOffsets: []uint32{0},
		Names:       []string{"abc"},
	}
	buf := encoded(t, in.Serialize)
	// Clobber the terminator.
	buf[len(buf)-1] = 'x'

	var out NamedResourceArray
	r := serializer.NewReader(buf)
	out.Serialize(r)
	if r.Err() == nil {
		t.Fatal("unterminated name was accepted")
	}
}

func TestChunkKindNamed(t *testing.T) {
	t.Parallel()

	named := map[ChunkKind]bool{
		ChunkResourceSignature:  true,
		ChunkRenderPass:         true,
		ChunkGraphicsPipeline:   true,
		ChunkComputePipeline:    true,
		ChunkRayTracingPipeline: true,
		ChunkTilePipeline:       true,
	}
	for kind := ChunkKind(0); kind < ChunkCount; kind++ {
		if kind.Named() != named[kind] {
			t.Fatalf("%s Named() = %v", kind, kind.Named())
		}
	}
}
