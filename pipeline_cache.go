package textatlas

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/textatlas/gpucore"
)

// Embedded glyph shader source.
//
//go:embed shaders/text.wgsl
var textShaderSource string

// ShaderSource returns the WGSL source of the glyph shader.
func ShaderSource() string {
	return textShaderSource
}

// vertexStride is the byte size of one glyph instance.
// Layout per instance:
//
//	pos                    (vec2<i32>) = 8 bytes (location 0)
//	dim                    (u16 x 2)   = 4 bytes (location 1)
//	uv                     (u16 x 2)   = 4 bytes (location 2)
//	color                  (u32)       = 4 bytes (location 3)
//	content_type_with_srgb (u16 x 2)   = 4 bytes (location 4)
//	depth                  (f32)       = 4 bytes (location 5)
//
// Total = 28 bytes per instance.
const vertexStride = 28

// paramsSize is the byte size of the uniform block: resolution plus padding.
const paramsSize = 16

// pipelineKey identifies a render pipeline variant.
type pipelineKey struct {
	format       gputypes.TextureFormat
	multisample  gputypes.MultisampleState
	hasDepth     bool
	depthStencil gputypes.DepthStencilState
}

// Cache holds the GPU objects shared by every atlas, viewport and renderer
// on a device: the shader module, sampler, bind group layouts, pipeline
// layout, and the render pipelines built so far.
//
// Cache is safe for concurrent use.
type Cache struct {
	dev gpucore.Device

	shader         gpucore.ShaderModuleID
	sampler        gpucore.SamplerID
	atlasLayout    gpucore.BindGroupLayoutID
	uniformsLayout gpucore.BindGroupLayoutID
	pipelineLayout gpucore.PipelineLayoutID

	mu        sync.Mutex
	pipelines map[pipelineKey]gpucore.RenderPipelineID
}

// NewCache compiles the glyph shader and creates the shared layouts.
func NewCache(dev gpucore.Device) (*Cache, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	c := &Cache{
		dev:       dev,
		pipelines: make(map[pipelineKey]gpucore.RenderPipelineID),
	}

	var err error
	c.shader, err = dev.CreateShaderModule("textatlas shader", textShaderSource)
	if err != nil {
		return nil, fmt.Errorf("compile glyph shader: %w", err)
	}

	c.sampler, err = dev.CreateSampler(&gputypes.SamplerDescriptor{
		Label:        "textatlas sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
		MipmapFilter: gputypes.MipmapFilterModeNearest,
	})
	if err != nil {
		c.release()
		return nil, fmt.Errorf("create atlas sampler: %w", err)
	}

	// Bind group 0:
	//   Binding 0: color atlas texture
	//   Binding 1: mask atlas texture
	//   Binding 2: sampler
	atlasTexture := &gputypes.TextureBindingLayout{
		SampleType:    gputypes.TextureSampleTypeFloat,
		ViewDimension: gputypes.TextureViewDimension2D,
	}
	c.atlasLayout, err = dev.CreateBindGroupLayout("textatlas atlas layout", []gputypes.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Texture:    atlasTexture,
		},
		{
			Binding:    1,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Texture:    atlasTexture,
		},
		{
			Binding:    2,
			Visibility: gputypes.ShaderStageFragment,
			Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
		},
	})
	if err != nil {
		c.release()
		return nil, fmt.Errorf("create atlas bind group layout: %w", err)
	}

	// Bind group 1:
	//   Binding 0: Params (uniform buffer, vertex)
	c.uniformsLayout, err = dev.CreateBindGroupLayout("textatlas uniforms layout", []gputypes.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex,
			Buffer: &gputypes.BufferBindingLayout{
				Type:           gputypes.BufferBindingTypeUniform,
				MinBindingSize: paramsSize,
			},
		},
	})
	if err != nil {
		c.release()
		return nil, fmt.Errorf("create uniforms bind group layout: %w", err)
	}

	c.pipelineLayout, err = dev.CreatePipelineLayout("textatlas pipeline layout",
		[]gpucore.BindGroupLayoutID{c.atlasLayout, c.uniformsLayout})
	if err != nil {
		c.release()
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}
	return c, nil
}

// release destroys the shared objects created so far.
func (c *Cache) release() {
	if c.pipelineLayout != gpucore.InvalidID {
		c.dev.DestroyPipelineLayout(c.pipelineLayout)
	}
	if c.uniformsLayout != gpucore.InvalidID {
		c.dev.DestroyBindGroupLayout(c.uniformsLayout)
	}
	if c.atlasLayout != gpucore.InvalidID {
		c.dev.DestroyBindGroupLayout(c.atlasLayout)
	}
	if c.sampler != gpucore.InvalidID {
		c.dev.DestroySampler(c.sampler)
	}
	if c.shader != gpucore.InvalidID {
		c.dev.DestroyShaderModule(c.shader)
	}
	c.pipelineLayout, c.uniformsLayout, c.atlasLayout = gpucore.InvalidID, gpucore.InvalidID, gpucore.InvalidID
	c.sampler, c.shader = gpucore.InvalidID, gpucore.InvalidID
}

// Pipeline returns the render pipeline for a target format, multisample
// state and optional depth-stencil state, building it on first use.
// Pipelines are immutable and shared by every renderer with a matching
// render target configuration.
func (c *Cache) Pipeline(format gputypes.TextureFormat, multisample gputypes.MultisampleState, depthStencil *gputypes.DepthStencilState) (gpucore.RenderPipelineID, error) {
	key := pipelineKey{format: format, multisample: multisample}
	if depthStencil != nil {
		key.hasDepth = true
		key.depthStencil = *depthStencil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.pipelines[key]; ok {
		return id, nil
	}

	blend := gputypes.BlendStateAlpha()
	id, err := c.dev.CreateRenderPipeline(&gpucore.RenderPipelineDesc{
		Label:         "textatlas pipeline",
		Layout:        c.pipelineLayout,
		Module:        c.shader,
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
		VertexBuffers: vertexLayout(),
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleStrip,
			CullMode: gputypes.CullModeNone,
		},
		Targets: []gputypes.ColorTargetState{
			{
				Format:    format,
				Blend:     &blend,
				WriteMask: gputypes.ColorWriteMaskAll,
			},
		},
		DepthStencil: depthStencil,
		Multisample:  multisample,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("create glyph pipeline for %v: %w", format, err)
	}
	c.pipelines[key] = id
	Logger().Debug("textatlas: pipeline created", "format", format, "samples", multisample.Count, "depth", key.hasDepth)
	return id, nil
}

// PipelineCount returns the number of pipelines built so far.
func (c *Cache) PipelineCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pipelines)
}

// atlasBindGroup binds the two plane textures and the sampler.
func (c *Cache) atlasBindGroup(color, mask gpucore.TextureViewID) (gpucore.BindGroupID, error) {
	return c.dev.CreateBindGroup(&gpucore.BindGroupDesc{
		Label:  "textatlas atlas bind group",
		Layout: c.atlasLayout,
		Entries: []gpucore.BindGroupEntry{
			{Binding: 0, TextureView: color},
			{Binding: 1, TextureView: mask},
			{Binding: 2, Sampler: c.sampler},
		},
	})
}

// uniformsBindGroup binds a Params buffer.
func (c *Cache) uniformsBindGroup(buf gpucore.BufferID) (gpucore.BindGroupID, error) {
	return c.dev.CreateBindGroup(&gpucore.BindGroupDesc{
		Label:   "textatlas uniforms bind group",
		Layout:  c.uniformsLayout,
		Entries: []gpucore.BindGroupEntry{{Binding: 0, Buffer: buf, Size: paramsSize}},
	})
}

// vertexLayout returns the instance buffer layout. Matches VertexInput in
// shaders/text.wgsl; pairs of u16 are read as one u32 and unpacked in the
// shader.
func vertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: vertexStride,
			StepMode:    gputypes.VertexStepModeInstance,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatSint32x2, Offset: 0, ShaderLocation: 0}, // pos
				{Format: gputypes.VertexFormatUint32, Offset: 8, ShaderLocation: 1},   // dim
				{Format: gputypes.VertexFormatUint32, Offset: 12, ShaderLocation: 2},  // uv
				{Format: gputypes.VertexFormatUint32, Offset: 16, ShaderLocation: 3},  // color
				{Format: gputypes.VertexFormatUint32, Offset: 20, ShaderLocation: 4},  // content type, srgb
				{Format: gputypes.VertexFormatFloat32, Offset: 24, ShaderLocation: 5}, // depth
			},
		},
	}
}
