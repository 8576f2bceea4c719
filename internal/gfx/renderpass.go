package gfx

// RenderPassAttachmentDesc describes one attachment of a render pass.
type RenderPassAttachmentDesc struct {
	Format         TextureFormat
	SampleCount    uint8
	LoadOp         AttachmentLoadOp
	StoreOp        AttachmentStoreOp
	StencilLoadOp  AttachmentLoadOp
	StencilStoreOp AttachmentStoreOp
	InitialState   ResourceState
	FinalState     ResourceState
}

// AttachmentReference points a subpass at one attachment in a given
// state.
type AttachmentReference struct {
	AttachmentIndex uint32
	State           ResourceState
}

// ShadingRateAttachment points a subpass at a shading-rate texture.
type ShadingRateAttachment struct {
	Attachment AttachmentReference
	TileSize   [2]uint32
}

// SubpassDesc describes one subpass. ResolveAttachments is either nil or
// parallel to RenderTargetAttachments.
type SubpassDesc struct {
	InputAttachments        []AttachmentReference
	RenderTargetAttachments []AttachmentReference
	ResolveAttachments      []AttachmentReference
	PreserveAttachments     []uint32
	DepthStencilAttachment  *AttachmentReference
	ShadingRateAttachment   *ShadingRateAttachment
}

// SubpassDependencyDesc orders two subpasses.
type SubpassDependencyDesc struct {
	SrcSubpass    uint32
	DstSubpass    uint32
	SrcStageMask  PipelineStageFlags
	DstStageMask  PipelineStageFlags
	SrcAccessMask AccessFlags
	DstAccessMask AccessFlags
}

// RenderPassDesc describes a complete render pass. The name is carried
// by the archive's named-resource directory.
type RenderPassDesc struct {
	Name         string
	Attachments  []RenderPassAttachmentDesc
	Subpasses    []SubpassDesc
	Dependencies []SubpassDependencyDesc
}
