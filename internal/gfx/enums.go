package gfx

// ShaderType is a bit set of shader stages. A single shader has exactly
// one bit set; masks combine several.
type ShaderType uint32

const (
	ShaderTypeUnknown       ShaderType = 0
	ShaderTypeVertex        ShaderType = 1 << 0
	ShaderTypePixel         ShaderType = 1 << 1
	ShaderTypeGeometry      ShaderType = 1 << 2
	ShaderTypeHull          ShaderType = 1 << 3
	ShaderTypeDomain        ShaderType = 1 << 4
	ShaderTypeCompute       ShaderType = 1 << 5
	ShaderTypeAmplification ShaderType = 1 << 6
	ShaderTypeMesh          ShaderType = 1 << 7
	ShaderTypeRayGen        ShaderType = 1 << 8
	ShaderTypeRayMiss       ShaderType = 1 << 9
	ShaderTypeRayClosestHit ShaderType = 1 << 10
	ShaderTypeRayAnyHit     ShaderType = 1 << 11
	ShaderTypeIntersection  ShaderType = 1 << 12
	ShaderTypeCallable      ShaderType = 1 << 13
	ShaderTypeTile          ShaderType = 1 << 14
)

// ShaderSourceLanguage identifies the language a shader source is
// written in.
type ShaderSourceLanguage uint32

const (
	SourceLanguageDefault ShaderSourceLanguage = iota
	SourceLanguageHLSL
	SourceLanguageGLSL
	SourceLanguageGLSLVerbatim
	SourceLanguageMSL
)

// ShaderCompiler identifies the compiler used to build a shader.
type ShaderCompiler uint32

const (
	CompilerDefault ShaderCompiler = iota
	CompilerGlslang
	CompilerDXC
	CompilerFXC
)

// PipelineType identifies the kind of pipeline a state object describes.
type PipelineType uint8

const (
	PipelineTypeGraphics PipelineType = iota
	PipelineTypeCompute
	PipelineTypeMesh
	PipelineTypeRayTracing
	PipelineTypeTile
)

// PipelineStateFlags modify pipeline creation.
type PipelineStateFlags uint32

const (
	PSOFlagNone                     PipelineStateFlags = 0
	PSOFlagIgnoreMissingVariables   PipelineStateFlags = 1 << 0
	PSOFlagDontRemapShaderResources PipelineStateFlags = 1 << 1
)

// ShaderResourceType identifies what a pipeline resource binds.
type ShaderResourceType uint8

const (
	ResourceTypeUnknown ShaderResourceType = iota
	ResourceTypeConstantBuffer
	ResourceTypeTextureSRV
	ResourceTypeBufferSRV
	ResourceTypeTextureUAV
	ResourceTypeBufferUAV
	ResourceTypeSampler
	ResourceTypeInputAttachment
	ResourceTypeAccelStruct
)

// ShaderResourceVariableType controls when a resource binding may change.
type ShaderResourceVariableType uint8

const (
	VarTypeStatic ShaderResourceVariableType = iota
	VarTypeMutable
	VarTypeDynamic
)

// PipelineResourceFlags qualify a pipeline resource declaration.
type PipelineResourceFlags uint8

const (
	ResourceFlagNone             PipelineResourceFlags = 0
	ResourceFlagNoDynamicBuffers PipelineResourceFlags = 1 << 0
	ResourceFlagCombinedSampler  PipelineResourceFlags = 1 << 1
	ResourceFlagFormattedBuffer  PipelineResourceFlags = 1 << 2
	ResourceFlagRuntimeArray     PipelineResourceFlags = 1 << 3
)

// SamplerFlags qualify a sampler description.
type SamplerFlags uint8

const (
	SamplerFlagNone       SamplerFlags = 0
	SamplerFlagSubsampled SamplerFlags = 1 << 0
)

// FilterType selects a texture filter.
type FilterType uint8

const (
	FilterUnknown FilterType = iota
	FilterPoint
	FilterLinear
	FilterAnisotropic
	FilterComparisonPoint
	FilterComparisonLinear
	FilterComparisonAnisotropic
)

// TextureAddressMode selects texture coordinate wrapping.
type TextureAddressMode uint8

const (
	AddressUnknown TextureAddressMode = iota
	AddressWrap
	AddressMirror
	AddressClamp
	AddressBorder
)

// ComparisonFunc is a depth or sampler comparison function.
type ComparisonFunc uint8

const (
	ComparisonUnknown ComparisonFunc = iota
	ComparisonNever
	ComparisonLess
	ComparisonEqual
	ComparisonLessEqual
	ComparisonGreater
	ComparisonNotEqual
	ComparisonGreaterEqual
	ComparisonAlways
)

// StencilOp is a stencil buffer operation.
type StencilOp uint8

const (
	StencilOpUndefined StencilOp = iota
	StencilOpKeep
	StencilOpZero
	StencilOpReplace
	StencilOpIncrSat
	StencilOpDecrSat
	StencilOpInvert
	StencilOpIncrWrap
	StencilOpDecrWrap
)

// BlendFactor is a source or destination blend multiplier.
type BlendFactor uint8

const (
	BlendFactorUndefined BlendFactor = iota
	BlendFactorZero
	BlendFactorOne
	BlendFactorSrcColor
	BlendFactorInvSrcColor
	BlendFactorSrcAlpha
	BlendFactorInvSrcAlpha
	BlendFactorDestAlpha
	BlendFactorInvDestAlpha
	BlendFactorDestColor
	BlendFactorInvDestColor
	BlendFactorSrcAlphaSat
	BlendFactorConstant
	BlendFactorInvConstant
	BlendFactorSrc1Color
	BlendFactorInvSrc1Color
	BlendFactorSrc1Alpha
	BlendFactorInvSrc1Alpha
)

// BlendOperation combines source and destination blend terms.
type BlendOperation uint8

const (
	BlendOpUndefined BlendOperation = iota
	BlendOpAdd
	BlendOpSubtract
	BlendOpRevSubtract
	BlendOpMin
	BlendOpMax
)

// LogicOperation is a render-target logic op.
type LogicOperation uint8

const (
	LogicOpClear LogicOperation = iota
	LogicOpSet
	LogicOpCopy
	LogicOpCopyInverted
	LogicOpNoOp
	LogicOpInvert
	LogicOpAnd
	LogicOpNand
	LogicOpOr
	LogicOpNor
	LogicOpXor
	LogicOpEquiv
)

// ColorMask selects which channels a render target writes.
type ColorMask uint8

const (
	ColorMaskRed   ColorMask = 1 << 0
	ColorMaskGreen ColorMask = 1 << 1
	ColorMaskBlue  ColorMask = 1 << 2
	ColorMaskAlpha ColorMask = 1 << 3
	ColorMaskAll   ColorMask = ColorMaskRed | ColorMaskGreen | ColorMaskBlue | ColorMaskAlpha
)

// FillMode selects triangle fill.
type FillMode uint8

const (
	FillModeUndefined FillMode = iota
	FillModeWireframe
	FillModeSolid
)

// CullMode selects face culling.
type CullMode uint8

const (
	CullModeUndefined CullMode = iota
	CullModeNone
	CullModeFront
	CullModeBack
)

// PrimitiveTopology selects how vertices assemble into primitives.
type PrimitiveTopology uint8

const (
	TopologyUndefined PrimitiveTopology = iota
	TopologyTriangleList
	TopologyTriangleStrip
	TopologyPointList
	TopologyLineList
	TopologyLineStrip
	TopologyTriangleListAdj
	TopologyTriangleStripAdj
	TopologyLineListAdj
	TopologyLineStripAdj
	TopologyPatchList1
)

// ValueType is the component type of a vertex attribute.
type ValueType uint8

const (
	ValueTypeUndefined ValueType = iota
	ValueTypeInt8
	ValueTypeInt16
	ValueTypeInt32
	ValueTypeUint8
	ValueTypeUint16
	ValueTypeUint32
	ValueTypeFloat16
	ValueTypeFloat32
)

// InputElementFrequency selects per-vertex or per-instance stepping.
type InputElementFrequency uint8

const (
	FrequencyUndefined InputElementFrequency = iota
	FrequencyPerVertex
	FrequencyPerInstance
)

// TextureFormat identifies a pixel format.
type TextureFormat uint16

const (
	FormatUnknown TextureFormat = iota
	FormatRGBA8Unorm
	FormatRGBA8UnormSRGB
	FormatBGRA8Unorm
	FormatBGRA8UnormSRGB
	FormatRGBA16Float
	FormatRGBA32Float
	FormatRG16Float
	FormatRG32Float
	FormatR32Float
	FormatR16Float
	FormatRGB10A2Unorm
	FormatR11G11B10Float
	FormatD16Unorm
	FormatD24UnormS8Uint
	FormatD32Float
	FormatD32FloatS8X24Uint
)

// ShadingRateFlags qualify variable-rate shading for a pipeline.
type ShadingRateFlags uint8

const (
	ShadingRateFlagNone         ShadingRateFlags = 0
	ShadingRateFlagPerPrimitive ShadingRateFlags = 1 << 0
	ShadingRateFlagTextureBased ShadingRateFlags = 1 << 1
)

// ResourceState is a bit set of resource usage states.
type ResourceState uint32

const (
	StateUnknown          ResourceState = 0
	StateUndefined        ResourceState = 1 << 0
	StateVertexBuffer     ResourceState = 1 << 1
	StateConstantBuffer   ResourceState = 1 << 2
	StateIndexBuffer      ResourceState = 1 << 3
	StateRenderTarget     ResourceState = 1 << 4
	StateUnorderedAccess  ResourceState = 1 << 5
	StateDepthWrite       ResourceState = 1 << 6
	StateDepthRead        ResourceState = 1 << 7
	StateShaderResource   ResourceState = 1 << 8
	StateStreamOut        ResourceState = 1 << 9
	StateIndirectArgument ResourceState = 1 << 10
	StateCopyDest         ResourceState = 1 << 11
	StateCopySource       ResourceState = 1 << 12
	StateResolveDest      ResourceState = 1 << 13
	StateResolveSource    ResourceState = 1 << 14
	StateInputAttachment  ResourceState = 1 << 15
	StatePresent          ResourceState = 1 << 16
	StateShadingRate      ResourceState = 1 << 17
)

// PipelineStageFlags is a bit set of pipeline stages for subpass
// dependencies.
type PipelineStageFlags uint32

const (
	StageTopOfPipe       PipelineStageFlags = 1 << 0
	StageVertexInput     PipelineStageFlags = 1 << 1
	StageVertexShader    PipelineStageFlags = 1 << 2
	StagePixelShader     PipelineStageFlags = 1 << 3
	StageEarlyDepth      PipelineStageFlags = 1 << 4
	StageLateDepth       PipelineStageFlags = 1 << 5
	StageRenderTarget    PipelineStageFlags = 1 << 6
	StageComputeShader   PipelineStageFlags = 1 << 7
	StageTransfer        PipelineStageFlags = 1 << 8
	StageBottomOfPipe    PipelineStageFlags = 1 << 9
)

// AccessFlags is a bit set of memory access kinds for subpass
// dependencies.
type AccessFlags uint32

const (
	AccessIndirectCommandRead AccessFlags = 1 << 0
	AccessIndexRead           AccessFlags = 1 << 1
	AccessVertexRead          AccessFlags = 1 << 2
	AccessUniformRead         AccessFlags = 1 << 3
	AccessInputAttachmentRead AccessFlags = 1 << 4
	AccessShaderRead          AccessFlags = 1 << 5
	AccessShaderWrite         AccessFlags = 1 << 6
	AccessRenderTargetRead    AccessFlags = 1 << 7
	AccessRenderTargetWrite   AccessFlags = 1 << 8
	AccessDepthStencilRead    AccessFlags = 1 << 9
	AccessDepthStencilWrite   AccessFlags = 1 << 10
	AccessCopyRead            AccessFlags = 1 << 11
	AccessCopyWrite           AccessFlags = 1 << 12
)

// AttachmentLoadOp selects what happens to an attachment at the start of
// a render pass.
type AttachmentLoadOp uint8

const (
	LoadOpLoad AttachmentLoadOp = iota
	LoadOpClear
	LoadOpDiscard
)

// AttachmentStoreOp selects what happens to an attachment at the end of
// a render pass.
type AttachmentStoreOp uint8

const (
	StoreOpStore AttachmentStoreOp = iota
	StoreOpDiscard
)
