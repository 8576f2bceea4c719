// Package archiver builds device-object archives. Objects are added one
// at a time under unique names, shaders are deduplicated per backend by
// content, and SerializeToStream or SerializeToBlob lays the whole set out
// as a single binary archive.
//
// The archiver is single-producer: Add calls and serialization must not
// run concurrently.
package archiver

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/TFMV/devarchive/internal/device"
	"github.com/TFMV/devarchive/internal/gfx"
	"github.com/TFMV/devarchive/internal/layout"
	"github.com/TFMV/devarchive/internal/serializer"
)

var (
	// ErrInvalidArgument is returned for a nil object, empty name, empty
	// backend set, or duplicate signature binding index.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNameConflict is returned when a name is reused for a different
	// object.
	ErrNameConflict = errors.New("name is already used by another resource")
)

// pipelineKind indexes the four pipeline registries.
type pipelineKind int

const (
	kindGraphics pipelineKind = iota
	kindCompute
	kindTile
	kindRayTracing
	pipelineKindCount
)

func (k pipelineKind) chunk() layout.ChunkKind {
	switch k {
	case kindGraphics:
		return layout.ChunkGraphicsPipeline
	case kindCompute:
		return layout.ChunkComputePipeline
	case kindTile:
		return layout.ChunkTilePipeline
	default:
		return layout.ChunkRayTracingPipeline
	}
}

// prsEntry is a pending resource signature: the object, its serialized
// shared blob, and the content hash the coalescing cache keys on.
type prsEntry struct {
	sig    *gfx.SignatureData
	shared []byte
	hash   uint64
}

// rpEntry is a pending render pass.
type rpEntry struct {
	desc   *gfx.RenderPassDesc
	shared []byte
}

// psoEntry is a pending pipeline of any kind.
type psoEntry struct {
	shared     []byte
	perBackend [gfx.BackendCount][]byte
}

// shaderTable deduplicates one backend's shaders by full serialized
// content. The map key is the exact prefix-plus-payload byte string, so
// collisions are impossible.
type shaderTable struct {
	index map[string]uint32
	list  [][]byte
}

func (t *shaderTable) add(entry []byte) uint32 {
	if t.index == nil {
		t.index = make(map[string]uint32)
	}
	key := string(entry)
	if idx, ok := t.index[key]; ok {
		return idx
	}
	idx := uint32(len(t.list))
	t.index[key] = idx
	t.list = append(t.list, entry)
	return idx
}

// orderedMap keeps registration order so emission is deterministic.
type orderedMap[V any] struct {
	entries map[string]V
	order   []string
}

func (m *orderedMap[V]) get(name string) (V, bool) {
	v, ok := m.entries[name]
	return v, ok
}

func (m *orderedMap[V]) put(name string, v V) {
	if m.entries == nil {
		m.entries = make(map[string]V)
	}
	if _, ok := m.entries[name]; !ok {
		m.order = append(m.order, name)
	}
	m.entries[name] = v
}

func (m *orderedMap[V]) delete(name string) {
	if _, ok := m.entries[name]; !ok {
		return
	}
	delete(m.entries, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *orderedMap[V]) len() int { return len(m.entries) }

// Archiver accumulates named device objects and serializes them.
type Archiver struct {
	patcher device.Patcher

	prs      orderedMap[*prsEntry]
	prsCache map[uint64][]*prsEntry
	rps      orderedMap[*rpEntry]
	psos     [pipelineKindCount]orderedMap[*psoEntry]
	shaders  [gfx.BackendCount]shaderTable

	commitHash string
}

// New returns an empty archiver. The patcher produces per-backend
// pipeline data; it may be nil for archives without pipelines.
func New(patcher device.Patcher) *Archiver {
	return &Archiver{
		patcher:  patcher,
		prsCache: make(map[uint64][]*prsEntry),
	}
}

// SetCommitHash records the source commit identifier written into the
// archive's debug chunk.
func (a *Archiver) SetCommitHash(hash string) { a.commitHash = hash }

// AddResourceSignature registers a signature under its name. Re-adding
// the same object is a no-op; reusing the name for a different object
// fails.
func (a *Archiver) AddResourceSignature(sig *gfx.SignatureData) error {
	if sig == nil || sig.Desc.Name == "" {
		return fmt.Errorf("%w: signature must have a name", ErrInvalidArgument)
	}
	if existing, ok := a.prs.get(sig.Desc.Name); ok {
		if existing.sig != sig {
			return fmt.Errorf("%w: resource signature %q", ErrNameConflict, sig.Desc.Name)
		}
		return nil
	}

	entry, err := newPRSEntry(sig)
	if err != nil {
		return err
	}
	a.prs.put(sig.Desc.Name, entry)
	a.prsCache[entry.hash] = append(a.prsCache[entry.hash], entry)
	return nil
}

func newPRSEntry(sig *gfx.SignatureData) (*prsEntry, error) {
	shared, err := serializeSchema(func(s *serializer.Serializer) {
		gfx.SerializeSignatureDesc(s, &sig.Desc, &sig.Internal)
	})
	if err != nil {
		return nil, err
	}
	return &prsEntry{sig: sig, shared: shared, hash: xxhash.Sum64(shared)}, nil
}

// cacheSignature coalesces content-identical signatures added from
// different pipelines onto one entry and returns the canonical object.
func (a *Archiver) cacheSignature(sig *gfx.SignatureData) (*gfx.SignatureData, error) {
	entry, err := newPRSEntry(sig)
	if err != nil {
		return nil, err
	}
	for _, cached := range a.prsCache[entry.hash] {
		if string(cached.shared) == string(entry.shared) {
			return cached.sig, nil
		}
	}
	if err := a.AddResourceSignature(sig); err != nil {
		return nil, err
	}
	return sig, nil
}

// AddRenderPass registers a render pass under its name with the same
// duplicate rules as AddResourceSignature.
func (a *Archiver) AddRenderPass(desc *gfx.RenderPassDesc) error {
	if desc == nil || desc.Name == "" {
		return fmt.Errorf("%w: render pass must have a name", ErrInvalidArgument)
	}
	if existing, ok := a.rps.get(desc.Name); ok {
		if existing.desc != desc {
			return fmt.Errorf("%w: render pass %q", ErrNameConflict, desc.Name)
		}
		return nil
	}
	shared, err := serializeSchema(func(s *serializer.Serializer) {
		gfx.SerializeRenderPassDesc(s, desc)
	})
	if err != nil {
		return err
	}
	a.rps.put(desc.Name, &rpEntry{desc: desc, shared: shared})
	return nil
}

// SerializeShader appends a shader to the backend's deduplicated list
// and returns its index. Byte-identical header-plus-payload entries
// share one index. Implements device.ShaderSink.
func (a *Archiver) SerializeShader(backend gfx.Backend, ci *gfx.ShaderCreateInfo, payload []byte) uint32 {
	m := serializer.NewMeasurer()
	gfx.SerializeShaderHeader(m, ci)

	entry := make([]byte, m.Size()+len(payload))
	w := serializer.NewWriter(entry[:m.Size()])
	gfx.SerializeShaderHeader(w, ci)
	copy(entry[m.Size():], payload)

	return a.shaders[backend].add(entry)
}

// defaultPRSName returns an unused name for a pipeline's synthesized
// default signature.
func (a *Archiver) defaultPRSName(psoName string) string {
	base := "Default Signature of PSO '" + psoName + "'"
	name := base
	for i := 1; ; i++ {
		if _, ok := a.prs.get(name); !ok {
			return name
		}
		name = base + strconv.Itoa(i)
	}
}

// AddGraphicsPipeline registers a graphics pipeline for the given
// backends, patching shaders per backend. The pipeline's render pass, if
// any, is added first.
func (a *Archiver) AddGraphicsPipeline(ci *gfx.GraphicsPipelineCreateInfo, backends gfx.BackendFlags) error {
	if ci == nil {
		return fmt.Errorf("%w: pipeline must not be nil", ErrInvalidArgument)
	}
	if ci.RenderPass != nil {
		if err := a.AddRenderPass(ci.RenderPass); err != nil {
			return err
		}
	}
	rpName := ""
	if ci.RenderPass != nil {
		rpName = ci.RenderPass.Name
	}
	return a.addPipeline(kindGraphics, &ci.PipelineStateCreateInfo, backends,
		func(req *device.PatchRequest) { req.Graphics = ci },
		func(s *serializer.Serializer, prsNames *[]string) {
			gfx.SerializeGraphicsPipeline(s, ci, prsNames, &rpName)
		})
}

// AddComputePipeline registers a compute pipeline for the given
// backends.
func (a *Archiver) AddComputePipeline(ci *gfx.ComputePipelineCreateInfo, backends gfx.BackendFlags) error {
	if ci == nil {
		return fmt.Errorf("%w: pipeline must not be nil", ErrInvalidArgument)
	}
	return a.addPipeline(kindCompute, &ci.PipelineStateCreateInfo, backends,
		func(req *device.PatchRequest) { req.Compute = ci },
		func(s *serializer.Serializer, prsNames *[]string) {
			gfx.SerializeComputePipeline(s, ci, prsNames)
		})
}

// AddTilePipeline registers a tile pipeline for the given backends.
func (a *Archiver) AddTilePipeline(ci *gfx.TilePipelineCreateInfo, backends gfx.BackendFlags) error {
	if ci == nil {
		return fmt.Errorf("%w: pipeline must not be nil", ErrInvalidArgument)
	}
	return a.addPipeline(kindTile, &ci.PipelineStateCreateInfo, backends,
		func(req *device.PatchRequest) { req.Tile = ci },
		func(s *serializer.Serializer, prsNames *[]string) {
			gfx.SerializeTilePipeline(s, ci, prsNames)
		})
}

// AddRayTracingPipeline registers a ray-tracing pipeline for the given
// backends.
func (a *Archiver) AddRayTracingPipeline(ci *gfx.RayTracingPipelineCreateInfo, backends gfx.BackendFlags) error {
	if ci == nil {
		return fmt.Errorf("%w: pipeline must not be nil", ErrInvalidArgument)
	}
	return a.addPipeline(kindRayTracing, &ci.PipelineStateCreateInfo, backends,
		func(req *device.PatchRequest) { req.RayTracing = ci },
		func(s *serializer.Serializer, prsNames *[]string) {
			gfx.SerializeRayTracingPipeline(s, ci, prsNames)
		})
}

func validatePipeline(base *gfx.PipelineStateCreateInfo, backends gfx.BackendFlags) error {
	if base.Name == "" {
		return fmt.Errorf("%w: pipeline must have a name", ErrInvalidArgument)
	}
	if backends == 0 {
		return fmt.Errorf("%w: at least one backend must be selected", ErrInvalidArgument)
	}
	if backends&^gfx.BackendFlagsAll != 0 {
		return fmt.Errorf("%w: backend flags contain unsupported backends", ErrInvalidArgument)
	}
	var seen [gfx.MaxResourceSignatures]bool
	for _, sig := range base.Signatures {
		if sig == nil {
			return fmt.Errorf("%w: signature must not be nil", ErrInvalidArgument)
		}
		idx := sig.Desc.BindingIndex
		if int(idx) >= len(seen) {
			return fmt.Errorf("%w: signature binding index %d out of range", ErrInvalidArgument, idx)
		}
		if seen[idx] {
			return fmt.Errorf("%w: signature binding index %d is not unique", ErrInvalidArgument, idx)
		}
		seen[idx] = true
	}
	return nil
}

// addPipeline runs the shared pipeline registration sequence: validate,
// reserve the name, patch each selected backend, register signatures,
// and serialize the shared description once. Any failure removes the
// pipeline's entry.
func (a *Archiver) addPipeline(kind pipelineKind, base *gfx.PipelineStateCreateInfo, backends gfx.BackendFlags,
	setReq func(*device.PatchRequest), schema func(*serializer.Serializer, *[]string)) error {

	if err := validatePipeline(base, backends); err != nil {
		return err
	}
	if _, ok := a.psos[kind].get(base.Name); ok {
		return fmt.Errorf("%w: pipeline %q", ErrNameConflict, base.Name)
	}
	if a.patcher == nil {
		return fmt.Errorf("%w: archiver has no backend patcher", ErrInvalidArgument)
	}

	entry := &psoEntry{}
	a.psos[kind].put(base.Name, entry)

	err := a.patchAndSerialize(entry, base, backends, setReq, schema)
	if err != nil {
		a.psos[kind].delete(base.Name)
	}
	return err
}

func (a *Archiver) patchAndSerialize(entry *psoEntry, base *gfx.PipelineStateCreateInfo, backends gfx.BackendFlags,
	setReq func(*device.PatchRequest), schema func(*serializer.Serializer, *[]string)) error {

	defName := ""
	if len(base.Signatures) == 0 {
		defName = a.defaultPRSName(base.Name)
	}

	var defaultSig *gfx.SignatureData
	for b := gfx.Backend(0); b < gfx.BackendCount; b++ {
		if !backends.Has(b) {
			continue
		}
		req := &device.PatchRequest{Backend: b, DefaultSignatureName: defName}
		setReq(req)
		res, err := a.patcher.Patch(req, a)
		if err != nil {
			return fmt.Errorf("patching pipeline %q for %s: %w", base.Name, b, err)
		}
		blob, err := serializeSchema(func(s *serializer.Serializer) {
			gfx.SerializeShaderIndices(s, &res.ShaderIndices)
		})
		if err != nil {
			return err
		}
		entry.perBackend[b] = blob
		if res.DefaultSignature == nil {
			continue
		}
		// The first backend's synthesized signature becomes the shared
		// object; later backends contribute their binding blobs to it.
		if defaultSig == nil {
			defaultSig = res.DefaultSignature
			defaultSig.Desc.Name = defName
		} else {
			for i, data := range res.DefaultSignature.PerBackend {
				if len(data) > 0 {
					defaultSig.PerBackend[i] = data
				}
			}
		}
	}

	sigs := base.Signatures
	if len(sigs) == 0 {
		if defaultSig == nil {
			return fmt.Errorf("%w: pipeline %q has no resource signatures", ErrInvalidArgument, base.Name)
		}
		sigs = []*gfx.SignatureData{defaultSig}
	}

	prsNames := make([]string, len(sigs))
	for i, sig := range sigs {
		canonical, err := a.cacheSignature(sig)
		if err != nil {
			return err
		}
		prsNames[i] = canonical.Desc.Name
	}

	shared, err := serializeSchema(func(s *serializer.Serializer) {
		schema(s, &prsNames)
	})
	if err != nil {
		return err
	}
	entry.shared = shared
	return nil
}

// serializeSchema measures a schema, writes it into a fresh buffer, and
// checks the two agree.
func serializeSchema(schema func(*serializer.Serializer)) ([]byte, error) {
	m := serializer.NewMeasurer()
	schema(m)
	if err := m.Err(); err != nil {
		return nil, err
	}
	buf := make([]byte, m.Size())
	w := serializer.NewWriter(buf)
	schema(w)
	if err := w.Err(); err != nil {
		return nil, err
	}
	if !w.End() {
		return nil, errors.New("serializer: measured and written sizes differ")
	}
	return buf, nil
}
