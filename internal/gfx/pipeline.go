package gfx

// MaxRenderTargets is the largest number of simultaneous render targets.
const MaxRenderTargets = 8

// RenderTargetBlendDesc describes blending for one render target.
type RenderTargetBlendDesc struct {
	BlendEnable          bool
	LogicOperationEnable bool
	SrcBlend             BlendFactor
	DestBlend            BlendFactor
	BlendOp              BlendOperation
	SrcBlendAlpha        BlendFactor
	DestBlendAlpha       BlendFactor
	BlendOpAlpha         BlendOperation
	LogicOp              LogicOperation
	WriteMask            ColorMask
}

// BlendStateDesc describes the blend stage.
type BlendStateDesc struct {
	AlphaToCoverageEnable  bool
	IndependentBlendEnable bool
	RenderTargets          [MaxRenderTargets]RenderTargetBlendDesc
}

// RasterizerStateDesc describes the rasterizer stage.
type RasterizerStateDesc struct {
	FillMode              FillMode
	CullMode              CullMode
	FrontCounterClockwise bool
	DepthClipEnable       bool
	ScissorEnable         bool
	AntialiasedLineEnable bool
	DepthBias             int32
	DepthBiasClamp        float32
	SlopeScaledDepthBias  float32
}

// StencilOpDesc describes stencil behavior for one face.
type StencilOpDesc struct {
	StencilFailOp      StencilOp
	StencilDepthFailOp StencilOp
	StencilPassOp      StencilOp
	StencilFunc        ComparisonFunc
}

// DepthStencilStateDesc describes the depth-stencil stage.
type DepthStencilStateDesc struct {
	DepthEnable      bool
	DepthWriteEnable bool
	DepthFunc        ComparisonFunc
	StencilEnable    bool
	StencilReadMask  uint8
	StencilWriteMask uint8
	FrontFace        StencilOpDesc
	BackFace         StencilOpDesc
}

// SampleDesc describes multisampling.
type SampleDesc struct {
	Count   uint8
	Quality uint8
}

// LayoutElement describes one vertex input attribute.
type LayoutElement struct {
	HLSLSemantic         string
	InputIndex           uint32
	BufferSlot           uint32
	NumComponents        uint32
	ValueType            ValueType
	IsNormalized         bool
	RelativeOffset       uint32
	Stride               uint32
	Frequency            InputElementFrequency
	InstanceDataStepRate uint32
}

// PipelineStateCreateInfo carries the fields shared by every pipeline
// kind. On the write side Signatures holds the bound signature objects;
// the archive stores only their names.
type PipelineStateCreateInfo struct {
	Name         string
	PipelineType PipelineType
	Flags        PipelineStateFlags
	Signatures   []*SignatureData
}

// GraphicsPipelineDesc is the fixed-function state of a graphics
// pipeline.
type GraphicsPipelineDesc struct {
	Blend             BlendStateDesc
	SampleMask        uint32
	Rasterizer        RasterizerStateDesc
	DepthStencil      DepthStencilStateDesc
	InputLayout       []LayoutElement
	PrimitiveTopology PrimitiveTopology
	NumViewports      uint8
	NumRenderTargets  uint8
	SubpassIndex      uint8
	ShadingRate       ShadingRateFlags
	RTVFormats        [MaxRenderTargets]TextureFormat
	DSVFormat         TextureFormat
	SmplDesc          SampleDesc
}

// GraphicsPipelineCreateInfo describes a graphics pipeline. RenderPass
// is optional; the archive stores its name and the full pass separately.
type GraphicsPipelineCreateInfo struct {
	PipelineStateCreateInfo
	Graphics   GraphicsPipelineDesc
	RenderPass *RenderPassDesc

	VS *PipelineShader
	PS *PipelineShader
	GS *PipelineShader
	HS *PipelineShader
	DS *PipelineShader
	AS *PipelineShader
	MS *PipelineShader
}

// StageShaders returns the non-nil stage shaders in fixed stage order.
func (ci *GraphicsPipelineCreateInfo) StageShaders() []*PipelineShader {
	var out []*PipelineShader
	for _, sh := range []*PipelineShader{ci.VS, ci.PS, ci.GS, ci.HS, ci.DS, ci.AS, ci.MS} {
		if sh != nil {
			out = append(out, sh)
		}
	}
	return out
}

// ComputePipelineCreateInfo describes a compute pipeline.
type ComputePipelineCreateInfo struct {
	PipelineStateCreateInfo
	CS *PipelineShader
}

// TilePipelineDesc is the fixed-function state of a tile pipeline.
type TilePipelineDesc struct {
	NumRenderTargets uint8
	SampleCount      uint8
	RTVFormats       [MaxRenderTargets]TextureFormat
}

// TilePipelineCreateInfo describes a tile pipeline.
type TilePipelineCreateInfo struct {
	PipelineStateCreateInfo
	Tile TilePipelineDesc
	TS   *PipelineShader
}

// UnusedShaderIndex marks an absent shader slot in a ray-tracing group.
const UnusedShaderIndex = ^uint32(0)

// RayTracingGeneralShaderGroup names a ray-gen, miss, or callable
// shader. Indices select into the pipeline's shader array.
type RayTracingGeneralShaderGroup struct {
	Name        string
	ShaderIndex uint32
}

// RayTracingTriangleHitShaderGroup names a triangle hit group.
type RayTracingTriangleHitShaderGroup struct {
	Name            string
	ClosestHitIndex uint32
	AnyHitIndex     uint32
}

// RayTracingProceduralHitShaderGroup names a procedural hit group.
type RayTracingProceduralHitShaderGroup struct {
	Name              string
	IntersectionIndex uint32
	ClosestHitIndex   uint32
	AnyHitIndex       uint32
}

// RayTracingPipelineDesc is the fixed-function state of a ray-tracing
// pipeline.
type RayTracingPipelineDesc struct {
	ShaderRecordSize  uint16
	MaxRecursionDepth uint8
}

// RayTracingPipelineCreateInfo describes a ray-tracing pipeline. Group
// indices refer to positions in Shaders, which lists the pipeline's
// shaders in a backend-independent order.
type RayTracingPipelineCreateInfo struct {
	PipelineStateCreateInfo
	RayTracing       RayTracingPipelineDesc
	ShaderRecordName string
	MaxAttributeSize uint32
	MaxPayloadSize   uint32

	GeneralShaders       []RayTracingGeneralShaderGroup
	TriangleHitShaders   []RayTracingTriangleHitShaderGroup
	ProceduralHitShaders []RayTracingProceduralHitShaderGroup

	Shaders []*PipelineShader
}
