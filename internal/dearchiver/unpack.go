package dearchiver

import (
	"fmt"

	"github.com/TFMV/devarchive/internal/device"
	"github.com/TFMV/devarchive/internal/gfx"
	"github.com/TFMV/devarchive/internal/layout"
	"github.com/TFMV/devarchive/internal/serializer"
)

// PipelineOverrideFlags select pipeline description fields replaced at
// unpack time. Any override skips the live-object cache.
type PipelineOverrideFlags uint32

const (
	OverrideName PipelineOverrideFlags = 1 << iota
	OverrideRasterizer
	OverrideBlendState
	OverrideSampleMask
	OverrideDepthStencil
	OverrideInputLayout
	OverridePrimitiveTopology
	OverrideNumViewports
	OverrideRenderTargets
	OverrideRenderPass
	OverrideShadingRate
	OverrideDepthStencilTarget
	OverrideSampleDesc
)

// tileOverrideFlags are the overrides a tile pipeline understands.
const tileOverrideFlags = OverrideName | OverrideRenderTargets | OverrideSampleDesc

// PipelineOverrides substitutes description fields at unpack time. Only
// the fields selected by Flags are read. Name is mandatory when
// OverrideName is set.
type PipelineOverrides struct {
	Flags PipelineOverrideFlags

	Name     string
	Graphics gfx.GraphicsPipelineDesc

	// RenderPass replaces the archived render-pass reference together
	// with the subpass index.
	RenderPass   *device.RenderPass
	SubpassIndex uint8
}

func (o *PipelineOverrides) active() bool { return o != nil && o.Flags != 0 }

func (o *PipelineOverrides) validate(allowed PipelineOverrideFlags) error {
	if !o.active() {
		return nil
	}
	if o.Flags&^allowed != 0 {
		return fmt.Errorf("%w: override flags %#x are not supported for this pipeline kind", ErrInvalidArgument, o.Flags&^allowed)
	}
	if o.Flags&OverrideName != 0 && o.Name == "" {
		return fmt.Errorf("%w: name override requires a name", ErrInvalidArgument)
	}
	return nil
}

// RenderPassOverrideFlags select attachment fields replaced at unpack
// time.
type RenderPassOverrideFlags uint32

const (
	OverrideAttachmentFormat RenderPassOverrideFlags = 1 << iota
	OverrideAttachmentSampleCount
	OverrideAttachmentLoadOp
	OverrideAttachmentStoreOp
	OverrideAttachmentStencilLoadOp
	OverrideAttachmentStencilStoreOp
	OverrideAttachmentInitialState
	OverrideAttachmentFinalState
)

// AttachmentOverride substitutes fields of one render-pass attachment.
type AttachmentOverride struct {
	Attachment uint32
	Flags      RenderPassOverrideFlags
	Desc       gfx.RenderPassAttachmentDesc
}

// UnpackResourceSignature materializes the named resource signature,
// serving repeat requests from the weak cache while the object is alive.
func (d *Dearchiver) UnpackResourceSignature(name string, dev device.Device) (*device.ResourceSignature, error) {
	if dev == nil {
		return nil, fmt.Errorf("%w: device must not be nil", ErrInvalidArgument)
	}
	if sig := d.prs.cached(name); sig != nil {
		return sig, nil
	}

	sig, err := d.buildResourceSignature(name, dev)
	if err != nil {
		d.logger.Log("msg", "failed to unpack resource signature", "name", name, "err", err)
		return nil, err
	}
	d.prs.store(name, sig)
	return sig, nil
}

func (d *Dearchiver) buildResourceSignature(name string, dev device.Device) (*device.ResourceSignature, error) {
	hdr, r, err := loadNamed(d, &d.prs, layout.ChunkResourceSignature, name)
	if err != nil {
		return nil, err
	}
	var desc gfx.PipelineResourceSignatureDesc
	var internal gfx.SignatureInternalData
	gfx.SerializeSignatureDesc(r, &desc, &internal)
	if r.Err() != nil || !r.End() {
		return nil, fmt.Errorf("%w: malformed resource signature %q", layout.ErrCorruptArchive, name)
	}
	desc.Name = name

	data, err := d.loadBackendData(hdr)
	if err != nil {
		return nil, err
	}
	sig, err := dev.CreateResourceSignature(&desc, &internal, data)
	if err != nil {
		return nil, fmt.Errorf("%w: resource signature %q: %v", ErrFactoryFailed, name, err)
	}
	return sig, nil
}

// UnpackRenderPass materializes the named render pass. Attachment
// overrides bypass the cache in both directions.
func (d *Dearchiver) UnpackRenderPass(name string, dev device.Device, overrides []AttachmentOverride) (*device.RenderPass, error) {
	if dev == nil {
		return nil, fmt.Errorf("%w: device must not be nil", ErrInvalidArgument)
	}
	if len(overrides) == 0 {
		if rp := d.rps.cached(name); rp != nil {
			return rp, nil
		}
	}

	rp, err := d.buildRenderPass(name, dev, overrides)
	if err != nil {
		d.logger.Log("msg", "failed to unpack render pass", "name", name, "err", err)
		return nil, err
	}
	if len(overrides) == 0 {
		d.rps.store(name, rp)
	}
	return rp, nil
}

func (d *Dearchiver) buildRenderPass(name string, dev device.Device, overrides []AttachmentOverride) (*device.RenderPass, error) {
	_, r, err := loadNamed(d, &d.rps, layout.ChunkRenderPass, name)
	if err != nil {
		return nil, err
	}
	var desc gfx.RenderPassDesc
	gfx.SerializeRenderPassDesc(r, &desc)
	if r.Err() != nil || !r.End() {
		return nil, fmt.Errorf("%w: malformed render pass %q", layout.ErrCorruptArchive, name)
	}
	desc.Name = name

	for _, ov := range overrides {
		if int(ov.Attachment) >= len(desc.Attachments) {
			return nil, fmt.Errorf("%w: attachment override index %d out of range", ErrInvalidArgument, ov.Attachment)
		}
		a := &desc.Attachments[ov.Attachment]
		if ov.Flags&OverrideAttachmentFormat != 0 {
			a.Format = ov.Desc.Format
		}
		if ov.Flags&OverrideAttachmentSampleCount != 0 {
			a.SampleCount = ov.Desc.SampleCount
		}
		if ov.Flags&OverrideAttachmentLoadOp != 0 {
			a.LoadOp = ov.Desc.LoadOp
		}
		if ov.Flags&OverrideAttachmentStoreOp != 0 {
			a.StoreOp = ov.Desc.StoreOp
		}
		if ov.Flags&OverrideAttachmentStencilLoadOp != 0 {
			a.StencilLoadOp = ov.Desc.StencilLoadOp
		}
		if ov.Flags&OverrideAttachmentStencilStoreOp != 0 {
			a.StencilStoreOp = ov.Desc.StencilStoreOp
		}
		if ov.Flags&OverrideAttachmentInitialState != 0 {
			a.InitialState = ov.Desc.InitialState
		}
		if ov.Flags&OverrideAttachmentFinalState != 0 {
			a.FinalState = ov.Desc.FinalState
		}
	}

	rp, err := dev.CreateRenderPass(&desc)
	if err != nil {
		return nil, fmt.Errorf("%w: render pass %q: %v", ErrFactoryFailed, name, err)
	}
	return rp, nil
}

// resolveSignatures unpacks each referenced signature by name. The
// returned strong references live until the pipeline factory returns.
func (d *Dearchiver) resolveSignatures(names []string, dev device.Device) ([]*device.ResourceSignature, error) {
	sigs := make([]*device.ResourceSignature, len(names))
	for i, name := range names {
		sig, err := d.UnpackResourceSignature(name, dev)
		if err != nil {
			return nil, err
		}
		sigs[i] = sig
	}
	return sigs, nil
}

// loadPipelineShaders reads a pipeline's per-backend blob, decodes the
// shader index list, and resolves the shaders. The serializer must be
// fully consumed.
func (d *Dearchiver) loadPipelineShaders(hdr *layout.DataHeader, dev device.Device) ([]*device.Shader, error) {
	data, err := d.loadBackendData(hdr)
	if err != nil {
		return nil, err
	}
	r := serializer.NewReader(data)
	var indices []uint32
	gfx.SerializeShaderIndices(r, &indices)
	if r.Err() != nil || !r.End() {
		return nil, fmt.Errorf("%w: malformed shader index list", layout.ErrCorruptArchive)
	}
	return d.loadShaders(indices, dev)
}

// UnpackGraphicsPipeline materializes the named graphics pipeline,
// recursively unpacking its render pass and resource signatures.
func (d *Dearchiver) UnpackGraphicsPipeline(name string, dev device.Device, overrides *PipelineOverrides) (*device.Pipeline, error) {
	if dev == nil {
		return nil, fmt.Errorf("%w: device must not be nil", ErrInvalidArgument)
	}
	if err := overrides.validate(^PipelineOverrideFlags(0)); err != nil {
		return nil, err
	}
	if !overrides.active() {
		if pso := d.graphics.cached(name); pso != nil {
			return pso, nil
		}
	}

	pso, err := d.buildGraphicsPipeline(name, dev, overrides)
	if err != nil {
		d.logger.Log("msg", "failed to unpack graphics pipeline", "name", name, "err", err)
		return nil, err
	}
	if !overrides.active() {
		d.graphics.store(name, pso)
	}
	return pso, nil
}

func (d *Dearchiver) buildGraphicsPipeline(name string, dev device.Device, overrides *PipelineOverrides) (*device.Pipeline, error) {
	hdr, r, err := loadNamed(d, &d.graphics, layout.ChunkGraphicsPipeline, name)
	if err != nil {
		return nil, err
	}
	var ci gfx.GraphicsPipelineCreateInfo
	var prsNames []string
	var rpName string
	gfx.SerializeGraphicsPipeline(r, &ci, &prsNames, &rpName)
	if r.Err() != nil || !r.End() {
		return nil, fmt.Errorf("%w: malformed graphics pipeline %q", layout.ErrCorruptArchive, name)
	}
	ci.Name = name

	res := &device.PipelineResources{}
	if rpName != "" {
		rp, err := d.UnpackRenderPass(rpName, dev, nil)
		if err != nil {
			return nil, err
		}
		res.RenderPass = rp
	}
	if res.Signatures, err = d.resolveSignatures(prsNames, dev); err != nil {
		return nil, err
	}
	if res.Shaders, err = d.loadPipelineShaders(hdr, dev); err != nil {
		return nil, err
	}

	if overrides.active() {
		applyGraphicsOverrides(&ci, overrides, res)
	}

	pso, err := dev.CreateGraphicsPipeline(&ci, res)
	if err != nil {
		return nil, fmt.Errorf("%w: graphics pipeline %q: %v", ErrFactoryFailed, name, err)
	}
	return pso, nil
}

func applyGraphicsOverrides(ci *gfx.GraphicsPipelineCreateInfo, o *PipelineOverrides, res *device.PipelineResources) {
	g := &ci.Graphics
	if o.Flags&OverrideName != 0 {
		ci.Name = o.Name
	}
	if o.Flags&OverrideRasterizer != 0 {
		g.Rasterizer = o.Graphics.Rasterizer
	}
	if o.Flags&OverrideBlendState != 0 {
		g.Blend = o.Graphics.Blend
	}
	if o.Flags&OverrideSampleMask != 0 {
		g.SampleMask = o.Graphics.SampleMask
	}
	if o.Flags&OverrideDepthStencil != 0 {
		g.DepthStencil = o.Graphics.DepthStencil
	}
	if o.Flags&OverrideInputLayout != 0 {
		g.InputLayout = o.Graphics.InputLayout
	}
	if o.Flags&OverridePrimitiveTopology != 0 {
		g.PrimitiveTopology = o.Graphics.PrimitiveTopology
	}
	if o.Flags&OverrideNumViewports != 0 {
		g.NumViewports = o.Graphics.NumViewports
	}
	if o.Flags&OverrideRenderTargets != 0 {
		g.NumRenderTargets = o.Graphics.NumRenderTargets
		g.RTVFormats = o.Graphics.RTVFormats
	}
	if o.Flags&OverrideRenderPass != 0 {
		res.RenderPass = o.RenderPass
		g.SubpassIndex = o.SubpassIndex
	}
	if o.Flags&OverrideShadingRate != 0 {
		g.ShadingRate = o.Graphics.ShadingRate
	}
	if o.Flags&OverrideDepthStencilTarget != 0 {
		g.DSVFormat = o.Graphics.DSVFormat
	}
	if o.Flags&OverrideSampleDesc != 0 {
		g.SmplDesc = o.Graphics.SmplDesc
	}
}

// UnpackComputePipeline materializes the named compute pipeline. Compute
// pipelines accept no overrides.
func (d *Dearchiver) UnpackComputePipeline(name string, dev device.Device, overrides *PipelineOverrides) (*device.Pipeline, error) {
	if dev == nil {
		return nil, fmt.Errorf("%w: device must not be nil", ErrInvalidArgument)
	}
	if overrides.active() {
		return nil, fmt.Errorf("%w: compute pipelines accept no overrides", ErrInvalidArgument)
	}
	if pso := d.compute.cached(name); pso != nil {
		return pso, nil
	}

	pso, err := d.buildComputePipeline(name, dev)
	if err != nil {
		d.logger.Log("msg", "failed to unpack compute pipeline", "name", name, "err", err)
		return nil, err
	}
	d.compute.store(name, pso)
	return pso, nil
}

func (d *Dearchiver) buildComputePipeline(name string, dev device.Device) (*device.Pipeline, error) {
	hdr, r, err := loadNamed(d, &d.compute, layout.ChunkComputePipeline, name)
	if err != nil {
		return nil, err
	}
	var ci gfx.ComputePipelineCreateInfo
	var prsNames []string
	gfx.SerializeComputePipeline(r, &ci, &prsNames)
	if r.Err() != nil || !r.End() {
		return nil, fmt.Errorf("%w: malformed compute pipeline %q", layout.ErrCorruptArchive, name)
	}
	ci.Name = name

	res := &device.PipelineResources{}
	if res.Signatures, err = d.resolveSignatures(prsNames, dev); err != nil {
		return nil, err
	}
	if res.Shaders, err = d.loadPipelineShaders(hdr, dev); err != nil {
		return nil, err
	}

	pso, err := dev.CreateComputePipeline(&ci, res)
	if err != nil {
		return nil, fmt.Errorf("%w: compute pipeline %q: %v", ErrFactoryFailed, name, err)
	}
	return pso, nil
}

// UnpackTilePipeline materializes the named tile pipeline. Tile
// pipelines accept the name, render-target, and sample overrides.
func (d *Dearchiver) UnpackTilePipeline(name string, dev device.Device, overrides *PipelineOverrides) (*device.Pipeline, error) {
	if dev == nil {
		return nil, fmt.Errorf("%w: device must not be nil", ErrInvalidArgument)
	}
	if err := overrides.validate(tileOverrideFlags); err != nil {
		return nil, err
	}
	if !overrides.active() {
		if pso := d.tile.cached(name); pso != nil {
			return pso, nil
		}
	}

	pso, err := d.buildTilePipeline(name, dev, overrides)
	if err != nil {
		d.logger.Log("msg", "failed to unpack tile pipeline", "name", name, "err", err)
		return nil, err
	}
	if !overrides.active() {
		d.tile.store(name, pso)
	}
	return pso, nil
}

func (d *Dearchiver) buildTilePipeline(name string, dev device.Device, overrides *PipelineOverrides) (*device.Pipeline, error) {
	hdr, r, err := loadNamed(d, &d.tile, layout.ChunkTilePipeline, name)
	if err != nil {
		return nil, err
	}
	var ci gfx.TilePipelineCreateInfo
	var prsNames []string
	gfx.SerializeTilePipeline(r, &ci, &prsNames)
	if r.Err() != nil || !r.End() {
		return nil, fmt.Errorf("%w: malformed tile pipeline %q", layout.ErrCorruptArchive, name)
	}
	ci.Name = name

	res := &device.PipelineResources{}
	if res.Signatures, err = d.resolveSignatures(prsNames, dev); err != nil {
		return nil, err
	}
	if res.Shaders, err = d.loadPipelineShaders(hdr, dev); err != nil {
		return nil, err
	}

	if overrides.active() {
		if overrides.Flags&OverrideName != 0 {
			ci.Name = overrides.Name
		}
		if overrides.Flags&OverrideRenderTargets != 0 {
			ci.Tile.NumRenderTargets = overrides.Graphics.NumRenderTargets
			ci.Tile.RTVFormats = overrides.Graphics.RTVFormats
		}
		if overrides.Flags&OverrideSampleDesc != 0 {
			ci.Tile.SampleCount = overrides.Graphics.SmplDesc.Count
		}
	}

	pso, err := dev.CreateTilePipeline(&ci, res)
	if err != nil {
		return nil, fmt.Errorf("%w: tile pipeline %q: %v", ErrFactoryFailed, name, err)
	}
	return pso, nil
}

// UnpackRayTracingPipeline materializes the named ray-tracing pipeline.
// Ray-tracing pipelines accept no overrides.
func (d *Dearchiver) UnpackRayTracingPipeline(name string, dev device.Device, overrides *PipelineOverrides) (*device.Pipeline, error) {
	if dev == nil {
		return nil, fmt.Errorf("%w: device must not be nil", ErrInvalidArgument)
	}
	if overrides.active() {
		return nil, fmt.Errorf("%w: ray-tracing pipelines accept no overrides", ErrInvalidArgument)
	}
	if pso := d.rayTracing.cached(name); pso != nil {
		return pso, nil
	}

	pso, err := d.buildRayTracingPipeline(name, dev)
	if err != nil {
		d.logger.Log("msg", "failed to unpack ray-tracing pipeline", "name", name, "err", err)
		return nil, err
	}
	d.rayTracing.store(name, pso)
	return pso, nil
}

func (d *Dearchiver) buildRayTracingPipeline(name string, dev device.Device) (*device.Pipeline, error) {
	hdr, r, err := loadNamed(d, &d.rayTracing, layout.ChunkRayTracingPipeline, name)
	if err != nil {
		return nil, err
	}
	var ci gfx.RayTracingPipelineCreateInfo
	var prsNames []string
	gfx.SerializeRayTracingPipeline(r, &ci, &prsNames)
	if r.Err() != nil || !r.End() {
		return nil, fmt.Errorf("%w: malformed ray-tracing pipeline %q", layout.ErrCorruptArchive, name)
	}
	ci.Name = name

	res := &device.PipelineResources{}
	if res.Signatures, err = d.resolveSignatures(prsNames, dev); err != nil {
		return nil, err
	}
	if res.Shaders, err = d.loadPipelineShaders(hdr, dev); err != nil {
		return nil, err
	}

	pso, err := dev.CreateRayTracingPipeline(&ci, res)
	if err != nil {
		return nil, fmt.Errorf("%w: ray-tracing pipeline %q: %v", ErrFactoryFailed, name, err)
	}
	return pso, nil
}
