// Package device declares the external collaborators of the archive
// core: backend shader patchers on the write side and object factories
// on the read side. The core treats both as opaque; real implementations
// live with the rendering backends.
package device

import (
	"github.com/TFMV/devarchive/internal/gfx"
)

// Shader is a live shader produced by a Device factory. The wrapper owns
// nothing; Impl is the backend object.
type Shader struct {
	Desc gfx.ShaderCreateInfo
	Impl any
}

// ResourceSignature is a live pipeline resource signature.
type ResourceSignature struct {
	Name string
	Impl any
}

// RenderPass is a live render pass.
type RenderPass struct {
	Name string
	Impl any
}

// Pipeline is a live pipeline state of any kind.
type Pipeline struct {
	Name string
	Impl any
}

// PipelineResources carries the dependencies resolved for a pipeline
// before its factory call: bound signatures, the optional render pass,
// and the pipeline's shaders in archive order.
type PipelineResources struct {
	Signatures []*ResourceSignature
	RenderPass *RenderPass
	Shaders    []*Shader
}

// Device materializes live objects from deserialized descriptions. The
// archive reader calls it outside its locks; implementations must
// tolerate concurrent calls.
type Device interface {
	CreateShader(ci *gfx.ShaderCreateInfo, payload []byte) (*Shader, error)
	CreateResourceSignature(desc *gfx.PipelineResourceSignatureDesc, internal *gfx.SignatureInternalData, backendData []byte) (*ResourceSignature, error)
	CreateRenderPass(desc *gfx.RenderPassDesc) (*RenderPass, error)
	CreateGraphicsPipeline(ci *gfx.GraphicsPipelineCreateInfo, res *PipelineResources) (*Pipeline, error)
	CreateComputePipeline(ci *gfx.ComputePipelineCreateInfo, res *PipelineResources) (*Pipeline, error)
	CreateTilePipeline(ci *gfx.TilePipelineCreateInfo, res *PipelineResources) (*Pipeline, error)
	CreateRayTracingPipeline(ci *gfx.RayTracingPipelineCreateInfo, res *PipelineResources) (*Pipeline, error)
}

// ShaderSink receives shaders during pipeline patching. The archiver
// implements it with the per-backend deduplicating shader table; the
// returned index is the shader's position in that backend's list.
type ShaderSink interface {
	SerializeShader(backend gfx.Backend, ci *gfx.ShaderCreateInfo, payload []byte) uint32
}

// PatchRequest is the input to a backend patcher: the pipeline being
// archived, the target backend, and the name to use should the patcher
// synthesize a default resource signature.
type PatchRequest struct {
	Backend gfx.Backend

	// Exactly one of the four pipeline fields is non-nil.
	Graphics   *gfx.GraphicsPipelineCreateInfo
	Compute    *gfx.ComputePipelineCreateInfo
	Tile       *gfx.TilePipelineCreateInfo
	RayTracing *gfx.RayTracingPipelineCreateInfo

	DefaultSignatureName string
}

// PatchResult is the output of a backend patcher.
type PatchResult struct {
	// ShaderIndices lists the pipeline's shaders as indices into the
	// backend's shader table, in pipeline shader order.
	ShaderIndices []uint32
	// DefaultSignature is the signature the patcher synthesized for a
	// pipeline that binds none, or nil.
	DefaultSignature *gfx.SignatureData
}

// Patcher specializes pipelines per backend. It serializes the
// pipeline's shaders through the sink and reports their indices;
// implementations are pure with respect to the request.
type Patcher interface {
	Patch(req *PatchRequest, shaders ShaderSink) (*PatchResult, error)
}
