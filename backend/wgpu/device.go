package wgpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/textatlas"
	"github.com/gogpu/textatlas/gpucore"
)

// Backend errors.
var (
	// ErrNilDevice is returned when New is given a nil HAL device or queue.
	ErrNilDevice = errors.New("wgpu: HAL device or queue is nil")

	// ErrNilProvider is returned by NewFromProvider for a nil provider.
	ErrNilProvider = errors.New("wgpu: device provider is nil")

	// ErrNoHAL is returned when a provider does not expose HAL objects.
	ErrNoHAL = errors.New("wgpu: provider does not expose HAL device and queue")
)

// halProvider is implemented by providers sharing their HAL device, such as
// gogpu's application context.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// texture is a HAL texture with the format its views use.
type texture struct {
	tex    hal.Texture
	format gputypes.TextureFormat
}

// Options configures a Device.
type Options struct {
	// Limits reported to the atlas. Zero value means gputypes.DefaultLimits().
	Limits gputypes.Limits

	// Logger receives diagnostics. Nil means textatlas.Logger() at
	// construction time.
	Logger *slog.Logger
}

// Device adapts a HAL device and queue to gpucore.Device.
//
// The HAL device stays owned by the caller; Close releases only the
// resources created through this Device.
type Device struct {
	device hal.Device
	queue  hal.Queue
	limits gputypes.Limits
	format gputypes.TextureFormat
	log    *slog.Logger

	mu     sync.RWMutex
	nextID uint64

	shaders          map[gpucore.ShaderModuleID]hal.ShaderModule
	textures         map[gpucore.TextureID]texture
	views            map[gpucore.TextureViewID]hal.TextureView
	samplers         map[gpucore.SamplerID]hal.Sampler
	buffers          map[gpucore.BufferID]hal.Buffer
	bindGroupLayouts map[gpucore.BindGroupLayoutID]hal.BindGroupLayout
	pipelineLayouts  map[gpucore.PipelineLayoutID]hal.PipelineLayout
	bindGroups       map[gpucore.BindGroupID]hal.BindGroup
	pipelines        map[gpucore.RenderPipelineID]hal.RenderPipeline
}

// Compile-time interface check.
var _ gpucore.Device = (*Device)(nil)

// New wraps a HAL device and queue.
func New(device hal.Device, queue hal.Queue, opts Options) (*Device, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	limits := opts.Limits
	if limits.MaxTextureDimension2D == 0 {
		limits = gputypes.DefaultLimits()
	}
	log := opts.Logger
	if log == nil {
		log = textatlas.Logger()
	}
	return &Device{
		device:           device,
		queue:            queue,
		limits:           limits,
		format:           gputypes.TextureFormatBGRA8Unorm,
		log:              log,
		shaders:          make(map[gpucore.ShaderModuleID]hal.ShaderModule),
		textures:         make(map[gpucore.TextureID]texture),
		views:            make(map[gpucore.TextureViewID]hal.TextureView),
		samplers:         make(map[gpucore.SamplerID]hal.Sampler),
		buffers:          make(map[gpucore.BufferID]hal.Buffer),
		bindGroupLayouts: make(map[gpucore.BindGroupLayoutID]hal.BindGroupLayout),
		pipelineLayouts:  make(map[gpucore.PipelineLayoutID]hal.PipelineLayout),
		bindGroups:       make(map[gpucore.BindGroupID]hal.BindGroup),
		pipelines:        make(map[gpucore.RenderPipelineID]hal.RenderPipeline),
	}, nil
}

// NewFromProvider wraps the HAL device shared by a gpucontext provider.
// The provider must implement HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue.
func NewFromProvider(provider gpucontext.DeviceProvider, opts Options) (*Device, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNoHAL, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNoHAL, hp.HalQueue())
	}
	d, err := New(device, queue, opts)
	if err != nil {
		return nil, err
	}
	if f := provider.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
		d.format = f
	}
	d.log.Debug("wgpu: using shared device", "surface_format", d.format)
	return d, nil
}

// SurfaceFormat returns the provider's surface format, or BGRA8Unorm when
// the device was created with New.
func (d *Device) SurfaceFormat() gputypes.TextureFormat {
	return d.format
}

// Limits implements gpucore.Device.
func (d *Device) Limits() gputypes.Limits {
	return d.limits
}

func (d *Device) newID() uint64 {
	d.nextID++
	return d.nextID
}

// === Shaders ===

// CreateShaderModule compiles WGSL to SPIR-V and creates a HAL module.
func (d *Device) CreateShaderModule(label, wgsl string) (gpucore.ShaderModuleID, error) {
	spirv, err := compileWGSL(wgsl)
	if err != nil {
		return gpucore.InvalidID, err
	}
	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create shader module %q: %w", label, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.ShaderModuleID(d.newID())
	d.shaders[id] = module
	return id, nil
}

// DestroyShaderModule implements gpucore.Device.
func (d *Device) DestroyShaderModule(id gpucore.ShaderModuleID) {
	d.mu.Lock()
	module, ok := d.shaders[id]
	delete(d.shaders, id)
	d.mu.Unlock()
	if ok {
		d.device.DestroyShaderModule(module)
	}
}

// compileWGSL compiles WGSL to little-endian SPIR-V words.
func compileWGSL(source string) ([]uint32, error) {
	b, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("wgpu: compile shader: %w", err)
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("wgpu: SPIR-V length %d is not a multiple of 4", len(b))
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) | uint32(b[i*4+1])<<8 | uint32(b[i*4+2])<<16 | uint32(b[i*4+3])<<24
	}
	return words, nil
}

// === Textures ===

// CreateTexture implements gpucore.Device.
func (d *Device) CreateTexture(desc *gputypes.TextureDescriptor) (gpucore.TextureID, error) {
	depth := max(desc.Size.DepthOrArrayLayers, 1)
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label: desc.Label,
		Size: hal.Extent3D{
			Width:              desc.Size.Width,
			Height:             desc.Size.Height,
			DepthOrArrayLayers: depth,
		},
		MipLevelCount: max(desc.MipLevelCount, 1),
		SampleCount:   max(desc.SampleCount, 1),
		Dimension:     desc.Dimension,
		Format:        desc.Format,
		Usage:         desc.Usage,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create texture %q: %w", desc.Label, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.TextureID(d.newID())
	d.textures[id] = texture{tex: tex, format: desc.Format}
	return id, nil
}

// CreateTextureView implements gpucore.Device.
func (d *Device) CreateTextureView(id gpucore.TextureID, label string) (gpucore.TextureViewID, error) {
	d.mu.RLock()
	t, ok := d.textures[id]
	d.mu.RUnlock()
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("wgpu: texture %d not found", id)
	}
	view, err := d.device.CreateTextureView(t.tex, &hal.TextureViewDescriptor{
		Label:         label,
		Format:        t.format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create view %q: %w", label, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	vid := gpucore.TextureViewID(d.newID())
	d.views[vid] = view
	return vid, nil
}

// WriteTexture implements gpucore.Device.
func (d *Device) WriteTexture(dst gpucore.TextureRegion, data []byte, bytesPerRow uint32) error {
	d.mu.RLock()
	t, ok := d.textures[dst.Texture]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("wgpu: texture %d not found", dst.Texture)
	}
	if need := uint64(bytesPerRow) * uint64(dst.Height); uint64(len(data)) < need {
		return fmt.Errorf("wgpu: texture write of %d bytes, need %d", len(data), need)
	}
	d.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: dst.X, Y: dst.Y},
		},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  bytesPerRow,
			RowsPerImage: dst.Height,
		},
		&hal.Extent3D{Width: dst.Width, Height: dst.Height, DepthOrArrayLayers: 1},
	)
	return nil
}

// DestroyTextureView implements gpucore.Device.
func (d *Device) DestroyTextureView(id gpucore.TextureViewID) {
	d.mu.Lock()
	view, ok := d.views[id]
	delete(d.views, id)
	d.mu.Unlock()
	if ok {
		d.device.DestroyTextureView(view)
	}
}

// DestroyTexture implements gpucore.Device.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	d.mu.Lock()
	t, ok := d.textures[id]
	delete(d.textures, id)
	d.mu.Unlock()
	if ok {
		d.device.DestroyTexture(t.tex)
	}
}

// CreateSampler implements gpucore.Device.
func (d *Device) CreateSampler(desc *gputypes.SamplerDescriptor) (gpucore.SamplerID, error) {
	sampler, err := d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        desc.Label,
		AddressModeU: desc.AddressModeU,
		AddressModeV: desc.AddressModeV,
		AddressModeW: desc.AddressModeW,
		MagFilter:    desc.MagFilter,
		MinFilter:    desc.MinFilter,
		MipmapFilter: mipmapFilter(desc.MipmapFilter),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create sampler %q: %w", desc.Label, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.SamplerID(d.newID())
	d.samplers[id] = sampler
	return id, nil
}

// DestroySampler implements gpucore.Device.
func (d *Device) DestroySampler(id gpucore.SamplerID) {
	d.mu.Lock()
	s, ok := d.samplers[id]
	delete(d.samplers, id)
	d.mu.Unlock()
	if ok {
		d.device.DestroySampler(s)
	}
}

// === Buffers ===

// CreateBuffer implements gpucore.Device.
func (d *Device) CreateBuffer(desc *gputypes.BufferDescriptor) (gpucore.BufferID, error) {
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: desc.Usage,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create buffer %q: %w", desc.Label, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.BufferID(d.newID())
	d.buffers[id] = buf
	return id, nil
}

// WriteBuffer implements gpucore.Device.
func (d *Device) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	if offset%4 != 0 || len(data)%4 != 0 {
		return fmt.Errorf("wgpu: unaligned buffer write at %d of %d bytes", offset, len(data))
	}
	d.mu.RLock()
	buf, ok := d.buffers[id]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("wgpu: buffer %d not found", id)
	}
	if len(data) > 0 {
		d.queue.WriteBuffer(buf, offset, data)
	}
	return nil
}

// DestroyBuffer implements gpucore.Device.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	buf, ok := d.buffers[id]
	delete(d.buffers, id)
	d.mu.Unlock()
	if ok {
		d.device.DestroyBuffer(buf)
	}
}

// === Bindings and Pipelines ===

// CreateBindGroupLayout implements gpucore.Device.
func (d *Device) CreateBindGroupLayout(label string, entries []gputypes.BindGroupLayoutEntry) (gpucore.BindGroupLayoutID, error) {
	layout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   label,
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create bind group layout %q: %w", label, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.BindGroupLayoutID(d.newID())
	d.bindGroupLayouts[id] = layout
	return id, nil
}

// DestroyBindGroupLayout implements gpucore.Device.
func (d *Device) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	d.mu.Lock()
	l, ok := d.bindGroupLayouts[id]
	delete(d.bindGroupLayouts, id)
	d.mu.Unlock()
	if ok {
		d.device.DestroyBindGroupLayout(l)
	}
}

// DestroyPipelineLayout implements gpucore.Device.
func (d *Device) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	d.mu.Lock()
	l, ok := d.pipelineLayouts[id]
	delete(d.pipelineLayouts, id)
	d.mu.Unlock()
	if ok {
		d.device.DestroyPipelineLayout(l)
	}
}

// CreatePipelineLayout implements gpucore.Device.
func (d *Device) CreatePipelineLayout(label string, layouts []gpucore.BindGroupLayoutID) (gpucore.PipelineLayoutID, error) {
	d.mu.RLock()
	halLayouts := make([]hal.BindGroupLayout, len(layouts))
	for i, id := range layouts {
		l, ok := d.bindGroupLayouts[id]
		if !ok {
			d.mu.RUnlock()
			return gpucore.InvalidID, fmt.Errorf("wgpu: bind group layout %d not found", id)
		}
		halLayouts[i] = l
	}
	d.mu.RUnlock()

	layout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: halLayouts,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create pipeline layout %q: %w", label, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.PipelineLayoutID(d.newID())
	d.pipelineLayouts[id] = layout
	return id, nil
}

// CreateBindGroup implements gpucore.Device.
func (d *Device) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	d.mu.RLock()
	layout, ok := d.bindGroupLayouts[desc.Layout]
	if !ok {
		d.mu.RUnlock()
		return gpucore.InvalidID, fmt.Errorf("wgpu: bind group layout %d not found", desc.Layout)
	}
	entries := make([]gputypes.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entry, err := d.bindingResource(e)
		if err != nil {
			d.mu.RUnlock()
			return gpucore.InvalidID, fmt.Errorf("wgpu: bind group %q entry %d: %w", desc.Label, e.Binding, err)
		}
		entries[i] = entry
	}
	d.mu.RUnlock()

	group, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create bind group %q: %w", desc.Label, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.BindGroupID(d.newID())
	d.bindGroups[id] = group
	return id, nil
}

// bindingResource resolves one entry. The caller holds d.mu.
func (d *Device) bindingResource(e gpucore.BindGroupEntry) (gputypes.BindGroupEntry, error) {
	out := gputypes.BindGroupEntry{Binding: e.Binding}
	switch {
	case e.Buffer != gpucore.InvalidID:
		buf, ok := d.buffers[e.Buffer]
		if !ok {
			return out, fmt.Errorf("buffer %d not found", e.Buffer)
		}
		out.Resource = gputypes.BufferBinding{Buffer: buf.NativeHandle(), Offset: e.Offset, Size: e.Size}
	case e.Sampler != gpucore.InvalidID:
		s, ok := d.samplers[e.Sampler]
		if !ok {
			return out, fmt.Errorf("sampler %d not found", e.Sampler)
		}
		out.Resource = gputypes.SamplerBinding{Sampler: s.NativeHandle()}
	case e.TextureView != gpucore.InvalidID:
		v, ok := d.views[e.TextureView]
		if !ok {
			return out, fmt.Errorf("texture view %d not found", e.TextureView)
		}
		out.Resource = gputypes.TextureViewBinding{TextureView: v.NativeHandle()}
	default:
		return out, errors.New("no resource set")
	}
	return out, nil
}

// DestroyBindGroup implements gpucore.Device.
func (d *Device) DestroyBindGroup(id gpucore.BindGroupID) {
	d.mu.Lock()
	group, ok := d.bindGroups[id]
	delete(d.bindGroups, id)
	d.mu.Unlock()
	if ok {
		d.device.DestroyBindGroup(group)
	}
}

// CreateRenderPipeline implements gpucore.Device.
func (d *Device) CreateRenderPipeline(desc *gpucore.RenderPipelineDesc) (gpucore.RenderPipelineID, error) {
	d.mu.RLock()
	layout, layoutOK := d.pipelineLayouts[desc.Layout]
	module, moduleOK := d.shaders[desc.Module]
	d.mu.RUnlock()
	if !layoutOK {
		return gpucore.InvalidID, fmt.Errorf("wgpu: pipeline layout %d not found", desc.Layout)
	}
	if !moduleOK {
		return gpucore.InvalidID, fmt.Errorf("wgpu: shader module %d not found", desc.Module)
	}

	pipeline, err := d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: desc.VertexEntry,
			Buffers:    desc.VertexBuffers,
		},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: desc.FragmentEntry,
			Targets:    desc.Targets,
		},
		DepthStencil: depthStencilState(desc.DepthStencil),
		Multisample:  desc.Multisample,
		Primitive:    desc.Primitive,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create render pipeline %q: %w", desc.Label, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.RenderPipelineID(d.newID())
	d.pipelines[id] = pipeline
	d.log.Debug("wgpu: render pipeline created", "label", desc.Label, "samples", desc.Multisample.Count)
	return id, nil
}

// Close releases every resource still held through this Device. The HAL
// device and queue are left to the caller.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.pipelines) + len(d.bindGroups) + len(d.views) + len(d.textures) + len(d.buffers)
	for id, p := range d.pipelines {
		d.device.DestroyRenderPipeline(p)
		delete(d.pipelines, id)
	}
	for id, g := range d.bindGroups {
		d.device.DestroyBindGroup(g)
		delete(d.bindGroups, id)
	}
	for id, l := range d.pipelineLayouts {
		d.device.DestroyPipelineLayout(l)
		delete(d.pipelineLayouts, id)
	}
	for id, l := range d.bindGroupLayouts {
		d.device.DestroyBindGroupLayout(l)
		delete(d.bindGroupLayouts, id)
	}
	for id, v := range d.views {
		d.device.DestroyTextureView(v)
		delete(d.views, id)
	}
	for id, t := range d.textures {
		d.device.DestroyTexture(t.tex)
		delete(d.textures, id)
	}
	for id, s := range d.samplers {
		d.device.DestroySampler(s)
		delete(d.samplers, id)
	}
	for id, b := range d.buffers {
		d.device.DestroyBuffer(b)
		delete(d.buffers, id)
	}
	for id, m := range d.shaders {
		d.device.DestroyShaderModule(m)
		delete(d.shaders, id)
	}
	if n > 0 {
		d.log.Debug("wgpu: released resources", "count", n)
	}
}
