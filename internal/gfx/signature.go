package gfx

// MaxResourceSignatures is the largest number of resource signatures a
// pipeline may bind; binding indices run [0, MaxResourceSignatures).
const MaxResourceSignatures = 8

// SamplerDesc describes a texture sampler.
type SamplerDesc struct {
	Name           string
	MinFilter      FilterType
	MagFilter      FilterType
	MipFilter      FilterType
	AddressU       TextureAddressMode
	AddressV       TextureAddressMode
	AddressW       TextureAddressMode
	Flags          SamplerFlags
	MipLODBias     float32
	MaxAnisotropy  uint32
	ComparisonFunc ComparisonFunc
	BorderColor    [4]float32
	MinLOD         float32
	MaxLOD         float32
}

// ImmutableSamplerDesc is a sampler baked into a resource signature.
type ImmutableSamplerDesc struct {
	ShaderStages         ShaderType
	SamplerOrTextureName string
	Desc                 SamplerDesc
}

// PipelineResourceDesc declares one named resource of a signature.
type PipelineResourceDesc struct {
	Name         string
	ShaderStages ShaderType
	ArraySize    uint32
	ResourceType ShaderResourceType
	VarType      ShaderResourceVariableType
	Flags        PipelineResourceFlags
}

// PipelineResourceSignatureDesc describes the full resource interface a
// pipeline binds through one signature. The name is carried by the
// archive's named-resource directory, not by the serialized description.
type PipelineResourceSignatureDesc struct {
	Name                       string
	Resources                  []PipelineResourceDesc
	ImmutableSamplers          []ImmutableSamplerDesc
	BindingIndex               uint8
	UseCombinedTextureSamplers bool
	CombinedSamplerSuffix      string
}

// SignatureInternalData is backend-agnostic bookkeeping serialized next
// to the signature description.
type SignatureInternalData struct {
	ShaderStages          ShaderType
	StaticResShaderStages ShaderType
	PipelineType          PipelineType
	StaticResStageIndex   [MaxResourceSignatures]int8
}

// SignatureData bundles everything the writer stores for one signature:
// the description, the internal data serialized alongside it, and the
// opaque per-backend binding blobs produced by the backend patchers.
// Metal macOS shares the iOS slot; its entry here is ignored.
type SignatureData struct {
	Desc       PipelineResourceSignatureDesc
	Internal   SignatureInternalData
	PerBackend [BackendCount][]byte
}
