package gpucore

import "github.com/gogpu/gputypes"

// Resource IDs
//
// These opaque IDs represent GPU resources. Each backend maintains a mapping
// between IDs and actual backend resources.

// BufferID is an opaque handle to a GPU buffer.
type BufferID uint64

// TextureID is an opaque handle to a GPU texture.
type TextureID uint64

// TextureViewID is an opaque handle to a texture view.
type TextureViewID uint64

// SamplerID is an opaque handle to a sampler.
type SamplerID uint64

// ShaderModuleID is an opaque handle to a compiled shader module.
type ShaderModuleID uint64

// BindGroupLayoutID is an opaque handle to a bind group layout.
type BindGroupLayoutID uint64

// BindGroupID is an opaque handle to a bind group.
type BindGroupID uint64

// PipelineLayoutID is an opaque handle to a pipeline layout.
type PipelineLayoutID uint64

// RenderPipelineID is an opaque handle to a render pipeline.
type RenderPipelineID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// BindGroupEntry binds one resource to a binding slot.
// Exactly one of Buffer, Sampler, or TextureView is set.
type BindGroupEntry struct {
	Binding     uint32
	Buffer      BufferID
	Offset      uint64
	Size        uint64 // 0 binds the rest of the buffer
	Sampler     SamplerID
	TextureView TextureViewID
}

// BindGroupDesc describes a bind group.
type BindGroupDesc struct {
	Label   string
	Layout  BindGroupLayoutID
	Entries []BindGroupEntry
}

// RenderPipelineDesc describes a render pipeline with one vertex and one
// fragment stage taken from the same shader module.
type RenderPipelineDesc struct {
	Label         string
	Layout        PipelineLayoutID
	Module        ShaderModuleID
	VertexEntry   string
	FragmentEntry string
	VertexBuffers []gputypes.VertexBufferLayout
	Primitive     gputypes.PrimitiveState
	Targets       []gputypes.ColorTargetState
	DepthStencil  *gputypes.DepthStencilState
	Multisample   gputypes.MultisampleState
}

// TextureRegion addresses a rectangle inside mip level 0 of a 2D texture.
type TextureRegion struct {
	Texture TextureID
	X, Y    uint32
	Width   uint32
	Height  uint32
}
