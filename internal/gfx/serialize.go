package gfx

import (
	"github.com/TFMV/devarchive/internal/serializer"
)

// Schema functions. Each description type has exactly one schema,
// expressed as a sequence of field calls on a tri-mode serializer; the
// same function measures, writes, and reads.

func enum8[E ~uint8](s *serializer.Serializer, v *E) {
	u := uint8(*v)
	s.Uint8(&u)
	*v = E(u)
}

func enum16[E ~uint16](s *serializer.Serializer, v *E) {
	u := uint16(*v)
	s.Uint16(&u)
	*v = E(u)
}

func enum32[E ~uint32](s *serializer.Serializer, v *E) {
	u := uint32(*v)
	s.Uint32(&u)
	*v = E(u)
}

func count[T any](s *serializer.Serializer, v *[]T) uint32 {
	n := uint32(len(*v))
	s.Uint32(&n)
	if s.IsReading() {
		if s.Err() != nil {
			return 0
		}
		// Every element occupies at least one byte, so a count larger
		// than the remaining input is corrupt rather than allocatable.
		if int64(n) > int64(s.Remain()) {
			s.Fail()
			return 0
		}
		*v = nil
		if n > 0 {
			*v = make([]T, n)
		}
	}
	return n
}

// SerializeSampler serializes a SamplerDesc.
func SerializeSampler(s *serializer.Serializer, d *SamplerDesc) {
	s.String(&d.Name)
	enum8(s, &d.MinFilter)
	enum8(s, &d.MagFilter)
	enum8(s, &d.MipFilter)
	enum8(s, &d.AddressU)
	enum8(s, &d.AddressV)
	enum8(s, &d.AddressW)
	enum8(s, &d.Flags)
	s.Float32(&d.MipLODBias)
	s.Uint32(&d.MaxAnisotropy)
	enum8(s, &d.ComparisonFunc)
	for i := range d.BorderColor {
		s.Float32(&d.BorderColor[i])
	}
	s.Float32(&d.MinLOD)
	s.Float32(&d.MaxLOD)
}

// SerializeImmutableSampler serializes an ImmutableSamplerDesc.
func SerializeImmutableSampler(s *serializer.Serializer, d *ImmutableSamplerDesc) {
	enum32(s, &d.ShaderStages)
	s.String(&d.SamplerOrTextureName)
	SerializeSampler(s, &d.Desc)
}

// SerializeSignatureDesc serializes a resource-signature description and
// its internal data. The signature's own name is not part of the blob;
// the named-resource directory carries it.
func SerializeSignatureDesc(s *serializer.Serializer, d *PipelineResourceSignatureDesc, internal *SignatureInternalData) {
	enum8(s, &d.BindingIndex)
	s.Bool(&d.UseCombinedTextureSamplers)
	s.String(&d.CombinedSamplerSuffix)

	count(s, &d.Resources)
	for i := range d.Resources {
		r := &d.Resources[i]
		s.String(&r.Name)
		enum32(s, &r.ShaderStages)
		s.Uint32(&r.ArraySize)
		enum8(s, &r.ResourceType)
		enum8(s, &r.VarType)
		enum8(s, &r.Flags)
	}

	count(s, &d.ImmutableSamplers)
	for i := range d.ImmutableSamplers {
		SerializeImmutableSampler(s, &d.ImmutableSamplers[i])
	}

	enum32(s, &internal.ShaderStages)
	enum32(s, &internal.StaticResShaderStages)
	enum8(s, &internal.PipelineType)
	for i := range internal.StaticResStageIndex {
		u := uint8(internal.StaticResStageIndex[i])
		s.Uint8(&u)
		internal.StaticResStageIndex[i] = int8(u)
	}
}

// SerializeRenderPassDesc serializes a render-pass description without
// its name.
func SerializeRenderPassDesc(s *serializer.Serializer, d *RenderPassDesc) {
	count(s, &d.Attachments)
	for i := range d.Attachments {
		a := &d.Attachments[i]
		enum16(s, &a.Format)
		s.Uint8(&a.SampleCount)
		enum8(s, &a.LoadOp)
		enum8(s, &a.StoreOp)
		enum8(s, &a.StencilLoadOp)
		enum8(s, &a.StencilStoreOp)
		enum32(s, &a.InitialState)
		enum32(s, &a.FinalState)
	}

	count(s, &d.Subpasses)
	for i := range d.Subpasses {
		serializeSubpass(s, &d.Subpasses[i])
	}

	count(s, &d.Dependencies)
	for i := range d.Dependencies {
		dep := &d.Dependencies[i]
		s.Uint32(&dep.SrcSubpass)
		s.Uint32(&dep.DstSubpass)
		enum32(s, &dep.SrcStageMask)
		enum32(s, &dep.DstStageMask)
		enum32(s, &dep.SrcAccessMask)
		enum32(s, &dep.DstAccessMask)
	}
}

func serializeAttachmentRef(s *serializer.Serializer, r *AttachmentReference) {
	s.Uint32(&r.AttachmentIndex)
	enum32(s, &r.State)
}

func serializeSubpass(s *serializer.Serializer, sp *SubpassDesc) {
	hasResolve := sp.ResolveAttachments != nil
	hasDepthStencil := sp.DepthStencilAttachment != nil
	hasShadingRate := sp.ShadingRateAttachment != nil

	count(s, &sp.InputAttachments)
	nRT := count(s, &sp.RenderTargetAttachments)
	count(s, &sp.PreserveAttachments)
	s.Bool(&hasResolve)
	s.Bool(&hasDepthStencil)
	s.Bool(&hasShadingRate)

	for i := range sp.InputAttachments {
		serializeAttachmentRef(s, &sp.InputAttachments[i])
	}
	for i := range sp.RenderTargetAttachments {
		serializeAttachmentRef(s, &sp.RenderTargetAttachments[i])
	}
	for i := range sp.PreserveAttachments {
		s.Uint32(&sp.PreserveAttachments[i])
	}

	if hasResolve {
		if s.IsReading() {
			sp.ResolveAttachments = make([]AttachmentReference, nRT)
		}
		for i := range sp.ResolveAttachments {
			serializeAttachmentRef(s, &sp.ResolveAttachments[i])
		}
	}
	if hasDepthStencil {
		if s.IsReading() {
			sp.DepthStencilAttachment = new(AttachmentReference)
		}
		serializeAttachmentRef(s, sp.DepthStencilAttachment)
	}
	if hasShadingRate {
		if s.IsReading() {
			sp.ShadingRateAttachment = new(ShadingRateAttachment)
		}
		sr := sp.ShadingRateAttachment
		serializeAttachmentRef(s, &sr.Attachment)
		s.Uint32(&sr.TileSize[0])
		s.Uint32(&sr.TileSize[1])
	}
}

// serializePipelineBase serializes the fields common to all pipeline
// kinds. Resource signatures are stored as names; the writer fills
// prsNames before serializing, the reader gets them back.
func serializePipelineBase(s *serializer.Serializer, ci *PipelineStateCreateInfo, prsNames *[]string) {
	enum8(s, &ci.PipelineType)
	enum32(s, &ci.Flags)
	count(s, prsNames)
	for i := range *prsNames {
		s.String(&(*prsNames)[i])
	}
}

// SerializeGraphicsPipeline serializes a graphics pipeline description.
// renderPassName stands in for the render-pass object; empty means none.
func SerializeGraphicsPipeline(s *serializer.Serializer, ci *GraphicsPipelineCreateInfo, prsNames *[]string, renderPassName *string) {
	serializePipelineBase(s, &ci.PipelineStateCreateInfo, prsNames)

	g := &ci.Graphics
	serializeBlendState(s, &g.Blend)
	s.Uint32(&g.SampleMask)
	serializeRasterizerState(s, &g.Rasterizer)
	serializeDepthStencilState(s, &g.DepthStencil)

	count(s, &g.InputLayout)
	for i := range g.InputLayout {
		e := &g.InputLayout[i]
		s.String(&e.HLSLSemantic)
		s.Uint32(&e.InputIndex)
		s.Uint32(&e.BufferSlot)
		s.Uint32(&e.NumComponents)
		enum8(s, &e.ValueType)
		s.Bool(&e.IsNormalized)
		s.Uint32(&e.RelativeOffset)
		s.Uint32(&e.Stride)
		enum8(s, &e.Frequency)
		s.Uint32(&e.InstanceDataStepRate)
	}

	enum8(s, &g.PrimitiveTopology)
	s.Uint8(&g.NumViewports)
	s.Uint8(&g.NumRenderTargets)
	s.Uint8(&g.SubpassIndex)
	enum8(s, &g.ShadingRate)
	for i := range g.RTVFormats {
		enum16(s, &g.RTVFormats[i])
	}
	enum16(s, &g.DSVFormat)
	s.Uint8(&g.SmplDesc.Count)
	s.Uint8(&g.SmplDesc.Quality)
	s.String(renderPassName)
}

func serializeBlendState(s *serializer.Serializer, d *BlendStateDesc) {
	s.Bool(&d.AlphaToCoverageEnable)
	s.Bool(&d.IndependentBlendEnable)
	for i := range d.RenderTargets {
		rt := &d.RenderTargets[i]
		s.Bool(&rt.BlendEnable)
		s.Bool(&rt.LogicOperationEnable)
		enum8(s, &rt.SrcBlend)
		enum8(s, &rt.DestBlend)
		enum8(s, &rt.BlendOp)
		enum8(s, &rt.SrcBlendAlpha)
		enum8(s, &rt.DestBlendAlpha)
		enum8(s, &rt.BlendOpAlpha)
		enum8(s, &rt.LogicOp)
		enum8(s, &rt.WriteMask)
	}
}

func serializeRasterizerState(s *serializer.Serializer, d *RasterizerStateDesc) {
	enum8(s, &d.FillMode)
	enum8(s, &d.CullMode)
	s.Bool(&d.FrontCounterClockwise)
	s.Bool(&d.DepthClipEnable)
	s.Bool(&d.ScissorEnable)
	s.Bool(&d.AntialiasedLineEnable)
	s.Int32(&d.DepthBias)
	s.Float32(&d.DepthBiasClamp)
	s.Float32(&d.SlopeScaledDepthBias)
}

func serializeDepthStencilState(s *serializer.Serializer, d *DepthStencilStateDesc) {
	s.Bool(&d.DepthEnable)
	s.Bool(&d.DepthWriteEnable)
	enum8(s, &d.DepthFunc)
	s.Bool(&d.StencilEnable)
	s.Uint8(&d.StencilReadMask)
	s.Uint8(&d.StencilWriteMask)
	serializeStencilOp(s, &d.FrontFace)
	serializeStencilOp(s, &d.BackFace)
}

func serializeStencilOp(s *serializer.Serializer, d *StencilOpDesc) {
	enum8(s, &d.StencilFailOp)
	enum8(s, &d.StencilDepthFailOp)
	enum8(s, &d.StencilPassOp)
	enum8(s, &d.StencilFunc)
}

// SerializeComputePipeline serializes a compute pipeline description.
// Shaders are backend-specific and live in the per-backend blob.
func SerializeComputePipeline(s *serializer.Serializer, ci *ComputePipelineCreateInfo, prsNames *[]string) {
	serializePipelineBase(s, &ci.PipelineStateCreateInfo, prsNames)
}

// SerializeTilePipeline serializes a tile pipeline description.
func SerializeTilePipeline(s *serializer.Serializer, ci *TilePipelineCreateInfo, prsNames *[]string) {
	serializePipelineBase(s, &ci.PipelineStateCreateInfo, prsNames)
	s.Uint8(&ci.Tile.NumRenderTargets)
	s.Uint8(&ci.Tile.SampleCount)
	for i := range ci.Tile.RTVFormats {
		enum16(s, &ci.Tile.RTVFormats[i])
	}
}

// SerializeRayTracingPipeline serializes a ray-tracing pipeline
// description including its shader groups. Group indices refer to
// positions in the pipeline's shader array.
func SerializeRayTracingPipeline(s *serializer.Serializer, ci *RayTracingPipelineCreateInfo, prsNames *[]string) {
	serializePipelineBase(s, &ci.PipelineStateCreateInfo, prsNames)

	s.Uint16(&ci.RayTracing.ShaderRecordSize)
	s.Uint8(&ci.RayTracing.MaxRecursionDepth)
	s.String(&ci.ShaderRecordName)
	s.Uint32(&ci.MaxAttributeSize)
	s.Uint32(&ci.MaxPayloadSize)

	count(s, &ci.GeneralShaders)
	for i := range ci.GeneralShaders {
		g := &ci.GeneralShaders[i]
		s.String(&g.Name)
		s.Uint32(&g.ShaderIndex)
	}

	count(s, &ci.TriangleHitShaders)
	for i := range ci.TriangleHitShaders {
		g := &ci.TriangleHitShaders[i]
		s.String(&g.Name)
		s.Uint32(&g.ClosestHitIndex)
		s.Uint32(&g.AnyHitIndex)
	}

	count(s, &ci.ProceduralHitShaders)
	for i := range ci.ProceduralHitShaders {
		g := &ci.ProceduralHitShaders[i]
		s.String(&g.Name)
		s.Uint32(&g.IntersectionIndex)
		s.Uint32(&g.ClosestHitIndex)
		s.Uint32(&g.AnyHitIndex)
	}
}

// SerializeShaderHeader serializes the backend-agnostic prefix of a
// shader entry. The payload follows as raw trailing bytes.
func SerializeShaderHeader(s *serializer.Serializer, ci *ShaderCreateInfo) {
	enum32(s, &ci.ShaderType)
	s.String(&ci.EntryPoint)
	enum32(s, &ci.SourceLanguage)
	enum32(s, &ci.Compiler)
}

// SerializeShaderIndices serializes the per-backend list of shader
// indices a pipeline references.
func SerializeShaderIndices(s *serializer.Serializer, indices *[]uint32) {
	s.Uint32Slice(indices)
}
