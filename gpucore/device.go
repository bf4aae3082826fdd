package gpucore

import "github.com/gogpu/gputypes"

// Device abstracts over GPU backend implementations.
//
// Resource lifecycle:
//   - Resources are created via Create* methods
//   - Resources must be explicitly destroyed via Destroy* methods
//   - Destroying a resource while in use is undefined behavior
//   - IDs become invalid after destruction and must not be reused
//
// Devices are not required to be safe for concurrent use. Callers serialize
// access per device.
type Device interface {
	// Limits returns the device limits. MaxTextureDimension2D bounds atlas growth.
	Limits() gputypes.Limits

	// === Shaders ===

	// CreateShaderModule compiles a WGSL module.
	CreateShaderModule(label, wgsl string) (ShaderModuleID, error)

	// DestroyShaderModule releases a shader module.
	DestroyShaderModule(id ShaderModuleID)

	// === Textures ===

	// CreateTexture allocates a texture. Contents are undefined until written.
	CreateTexture(desc *gputypes.TextureDescriptor) (TextureID, error)

	// CreateTextureView creates the default view of a texture.
	CreateTextureView(tex TextureID, label string) (TextureViewID, error)

	// WriteTexture uploads tightly packed rows into a region of a texture.
	// bytesPerRow is the stride of data, normally width * bytes per pixel.
	WriteTexture(dst TextureRegion, data []byte, bytesPerRow uint32) error

	// DestroyTextureView releases a texture view.
	DestroyTextureView(id TextureViewID)

	// DestroyTexture releases a texture.
	DestroyTexture(id TextureID)

	// CreateSampler creates a sampler.
	CreateSampler(desc *gputypes.SamplerDescriptor) (SamplerID, error)

	// DestroySampler releases a sampler.
	DestroySampler(id SamplerID)

	// === Buffers ===

	// CreateBuffer allocates a buffer.
	CreateBuffer(desc *gputypes.BufferDescriptor) (BufferID, error)

	// WriteBuffer enqueues a write of data at offset.
	// Offset and len(data) must be multiples of 4.
	WriteBuffer(id BufferID, offset uint64, data []byte) error

	// DestroyBuffer releases a buffer.
	DestroyBuffer(id BufferID)

	// === Bindings and Pipelines ===

	// CreateBindGroupLayout creates a bind group layout.
	CreateBindGroupLayout(label string, entries []gputypes.BindGroupLayoutEntry) (BindGroupLayoutID, error)

	// DestroyBindGroupLayout releases a bind group layout.
	DestroyBindGroupLayout(id BindGroupLayoutID)

	// CreatePipelineLayout combines bind group layouts into a pipeline layout.
	CreatePipelineLayout(label string, layouts []BindGroupLayoutID) (PipelineLayoutID, error)

	// DestroyPipelineLayout releases a pipeline layout.
	DestroyPipelineLayout(id PipelineLayoutID)

	// CreateBindGroup binds resources to a layout.
	CreateBindGroup(desc *BindGroupDesc) (BindGroupID, error)

	// DestroyBindGroup releases a bind group.
	DestroyBindGroup(id BindGroupID)

	// CreateRenderPipeline builds a render pipeline.
	CreateRenderPipeline(desc *RenderPipelineDesc) (RenderPipelineID, error)
}

// RenderPass records draw commands into a pass begun by the caller.
//
// The textatlas renderer only records; beginning, ending and submitting the
// pass stay with the application.
type RenderPass interface {
	// SetPipeline sets the active render pipeline.
	SetPipeline(pipeline RenderPipelineID)

	// SetBindGroup sets a bind group at the specified index.
	SetBindGroup(index uint32, group BindGroupID)

	// SetVertexBuffer binds a vertex buffer to a slot starting at offset.
	SetVertexBuffer(slot uint32, buffer BufferID, offset uint64)

	// Draw draws instanceCount instances of vertexCount vertices.
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
}
