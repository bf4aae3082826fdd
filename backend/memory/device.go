package memory

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/textatlas/gpucore"
)

// Errors returned by the memory device.
var (
	// ErrUnknownResource is returned when an ID does not name a live resource.
	ErrUnknownResource = errors.New("memory: unknown resource")

	// ErrOutOfBounds is returned when a write falls outside its target.
	ErrOutOfBounds = errors.New("memory: write out of bounds")

	// ErrTextureTooLarge is returned when a texture exceeds MaxTextureDimension2D.
	ErrTextureTooLarge = errors.New("memory: texture exceeds device limit")
)

// nopHandler silently discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// Options configures a Device.
type Options struct {
	// Limits reported by the device. Zero value means gputypes.DefaultLimits().
	Limits gputypes.Limits

	// Logger receives diagnostics. Nil means silent.
	Logger *slog.Logger
}

// texture is a CPU-side 2D texture.
type texture struct {
	desc   gputypes.TextureDescriptor
	bpp    int
	pixels []byte
	writes int
}

// Device is a CPU implementation of gpucore.Device.
//
// Device is safe for concurrent use.
type Device struct {
	mu     sync.Mutex
	limits gputypes.Limits
	log    *slog.Logger
	nextID uint64

	textures     map[gpucore.TextureID]*texture
	views        map[gpucore.TextureViewID]gpucore.TextureID
	buffers      map[gpucore.BufferID][]byte
	samplers     map[gpucore.SamplerID]gputypes.SamplerDescriptor
	shaders      map[gpucore.ShaderModuleID]string
	bgLayouts    map[gpucore.BindGroupLayoutID][]gputypes.BindGroupLayoutEntry
	pipeLayouts  map[gpucore.PipelineLayoutID][]gpucore.BindGroupLayoutID
	bindGroups   map[gpucore.BindGroupID]gpucore.BindGroupDesc
	pipelines    map[gpucore.RenderPipelineID]gpucore.RenderPipelineDesc
	bufferWrites int
}

// Compile-time interface check.
var _ gpucore.Device = (*Device)(nil)

// New creates a memory device.
func New(opts Options) *Device {
	limits := opts.Limits
	if limits.MaxTextureDimension2D == 0 {
		limits = gputypes.DefaultLimits()
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(nopHandler{})
	}
	return &Device{
		limits:      limits,
		log:         log,
		textures:    make(map[gpucore.TextureID]*texture),
		views:       make(map[gpucore.TextureViewID]gpucore.TextureID),
		buffers:     make(map[gpucore.BufferID][]byte),
		samplers:    make(map[gpucore.SamplerID]gputypes.SamplerDescriptor),
		shaders:     make(map[gpucore.ShaderModuleID]string),
		bgLayouts:   make(map[gpucore.BindGroupLayoutID][]gputypes.BindGroupLayoutEntry),
		pipeLayouts: make(map[gpucore.PipelineLayoutID][]gpucore.BindGroupLayoutID),
		bindGroups:  make(map[gpucore.BindGroupID]gpucore.BindGroupDesc),
		pipelines:   make(map[gpucore.RenderPipelineID]gpucore.RenderPipelineDesc),
	}
}

// id returns a fresh resource id. Caller must hold d.mu.
func (d *Device) id() uint64 {
	d.nextID++
	return d.nextID
}

// Limits returns the configured device limits.
func (d *Device) Limits() gputypes.Limits {
	return d.limits
}

// CreateShaderModule records the WGSL source.
func (d *Device) CreateShaderModule(label, wgsl string) (gpucore.ShaderModuleID, error) {
	if wgsl == "" {
		return gpucore.InvalidID, fmt.Errorf("memory: shader %q: empty source", label)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.ShaderModuleID(d.id())
	d.shaders[id] = wgsl
	return id, nil
}

// DestroyShaderModule releases a shader module.
func (d *Device) DestroyShaderModule(id gpucore.ShaderModuleID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.shaders, id)
}

// CreateTexture allocates a zeroed 2D texture.
func (d *Device) CreateTexture(desc *gputypes.TextureDescriptor) (gpucore.TextureID, error) {
	w, h := desc.Size.Width, desc.Size.Height
	if w == 0 || h == 0 {
		return gpucore.InvalidID, fmt.Errorf("memory: texture %q: zero size", desc.Label)
	}
	if w > d.limits.MaxTextureDimension2D || h > d.limits.MaxTextureDimension2D {
		return gpucore.InvalidID, fmt.Errorf("%w: %dx%d > %d", ErrTextureTooLarge, w, h, d.limits.MaxTextureDimension2D)
	}
	bpp := BytesPerPixel(desc.Format)

	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.TextureID(d.id())
	d.textures[id] = &texture{
		desc:   *desc,
		bpp:    bpp,
		pixels: make([]byte, int(w)*int(h)*bpp),
	}
	d.log.Debug("memory: texture created", "label", desc.Label, "width", w, "height", h, "format", desc.Format)
	return id, nil
}

// CreateTextureView creates the default view of a texture.
func (d *Device) CreateTextureView(tex gpucore.TextureID, label string) (gpucore.TextureViewID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.textures[tex]; !ok {
		return gpucore.InvalidID, fmt.Errorf("%w: texture %d (view %q)", ErrUnknownResource, tex, label)
	}
	id := gpucore.TextureViewID(d.id())
	d.views[id] = tex
	return id, nil
}

// WriteTexture copies rows of data into a texture region.
func (d *Device) WriteTexture(dst gpucore.TextureRegion, data []byte, bytesPerRow uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[dst.Texture]
	if !ok {
		return fmt.Errorf("%w: texture %d", ErrUnknownResource, dst.Texture)
	}
	tw, th := t.desc.Size.Width, t.desc.Size.Height
	if dst.X+dst.Width > tw || dst.Y+dst.Height > th {
		return fmt.Errorf("%w: region %d,%d %dx%d in %dx%d texture", ErrOutOfBounds, dst.X, dst.Y, dst.Width, dst.Height, tw, th)
	}
	rowLen := int(dst.Width) * t.bpp
	if int(bytesPerRow) < rowLen {
		return fmt.Errorf("memory: bytesPerRow %d < row length %d", bytesPerRow, rowLen)
	}
	if dst.Height > 0 && len(data) < int(bytesPerRow)*int(dst.Height-1)+rowLen {
		return fmt.Errorf("%w: %d bytes for %d rows", ErrOutOfBounds, len(data), dst.Height)
	}
	stride := int(tw) * t.bpp
	for row := 0; row < int(dst.Height); row++ {
		src := data[row*int(bytesPerRow) : row*int(bytesPerRow)+rowLen]
		off := (int(dst.Y)+row)*stride + int(dst.X)*t.bpp
		copy(t.pixels[off:off+rowLen], src)
	}
	t.writes++
	return nil
}

// DestroyTextureView releases a texture view.
func (d *Device) DestroyTextureView(id gpucore.TextureViewID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.views, id)
}

// DestroyTexture releases a texture.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.textures[id]; !ok {
		d.log.Warn("memory: destroy of unknown texture", "id", id)
		return
	}
	delete(d.textures, id)
}

// CreateSampler records a sampler descriptor.
func (d *Device) CreateSampler(desc *gputypes.SamplerDescriptor) (gpucore.SamplerID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.SamplerID(d.id())
	d.samplers[id] = *desc
	return id, nil
}

// DestroySampler releases a sampler.
func (d *Device) DestroySampler(id gpucore.SamplerID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.samplers, id)
}

// CreateBuffer allocates a zeroed buffer.
func (d *Device) CreateBuffer(desc *gputypes.BufferDescriptor) (gpucore.BufferID, error) {
	if desc.Size == 0 {
		return gpucore.InvalidID, fmt.Errorf("memory: buffer %q: zero size", desc.Label)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.BufferID(d.id())
	d.buffers[id] = make([]byte, desc.Size)
	d.log.Debug("memory: buffer created", "label", desc.Label, "size", desc.Size)
	return id, nil
}

// WriteBuffer copies data into a buffer at offset.
func (d *Device) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	if offset%4 != 0 || len(data)%4 != 0 {
		return fmt.Errorf("memory: unaligned buffer write: offset %d, size %d", offset, len(data))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("%w: buffer %d", ErrUnknownResource, id)
	}
	if offset+uint64(len(data)) > uint64(len(buf)) {
		return fmt.Errorf("%w: %d bytes at %d in %d-byte buffer", ErrOutOfBounds, len(data), offset, len(buf))
	}
	copy(buf[offset:], data)
	d.bufferWrites++
	return nil
}

// DestroyBuffer releases a buffer.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.buffers, id)
}

// CreateBindGroupLayout records a bind group layout.
func (d *Device) CreateBindGroupLayout(label string, entries []gputypes.BindGroupLayoutEntry) (gpucore.BindGroupLayoutID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.BindGroupLayoutID(d.id())
	d.bgLayouts[id] = entries
	return id, nil
}

// DestroyBindGroupLayout releases a bind group layout.
func (d *Device) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.bgLayouts, id)
}

// DestroyPipelineLayout releases a pipeline layout.
func (d *Device) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pipeLayouts, id)
}

// CreatePipelineLayout records a pipeline layout.
func (d *Device) CreatePipelineLayout(label string, layouts []gpucore.BindGroupLayoutID) (gpucore.PipelineLayoutID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, l := range layouts {
		if _, ok := d.bgLayouts[l]; !ok {
			return gpucore.InvalidID, fmt.Errorf("%w: bind group layout %d (pipeline layout %q)", ErrUnknownResource, l, label)
		}
	}
	id := gpucore.PipelineLayoutID(d.id())
	d.pipeLayouts[id] = layouts
	return id, nil
}

// CreateBindGroup validates that every referenced resource is live.
func (d *Device) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.bgLayouts[desc.Layout]; !ok {
		return gpucore.InvalidID, fmt.Errorf("%w: bind group layout %d", ErrUnknownResource, desc.Layout)
	}
	for _, e := range desc.Entries {
		switch {
		case e.Buffer != gpucore.InvalidID:
			if _, ok := d.buffers[e.Buffer]; !ok {
				return gpucore.InvalidID, fmt.Errorf("%w: buffer %d", ErrUnknownResource, e.Buffer)
			}
		case e.Sampler != gpucore.InvalidID:
			if _, ok := d.samplers[e.Sampler]; !ok {
				return gpucore.InvalidID, fmt.Errorf("%w: sampler %d", ErrUnknownResource, e.Sampler)
			}
		case e.TextureView != gpucore.InvalidID:
			if _, ok := d.views[e.TextureView]; !ok {
				return gpucore.InvalidID, fmt.Errorf("%w: texture view %d", ErrUnknownResource, e.TextureView)
			}
		}
	}
	id := gpucore.BindGroupID(d.id())
	cp := *desc
	cp.Entries = append([]gpucore.BindGroupEntry(nil), desc.Entries...)
	d.bindGroups[id] = cp
	return id, nil
}

// DestroyBindGroup releases a bind group.
func (d *Device) DestroyBindGroup(id gpucore.BindGroupID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.bindGroups, id)
}

// CreateRenderPipeline records a render pipeline.
func (d *Device) CreateRenderPipeline(desc *gpucore.RenderPipelineDesc) (gpucore.RenderPipelineID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pipeLayouts[desc.Layout]; !ok {
		return gpucore.InvalidID, fmt.Errorf("%w: pipeline layout %d", ErrUnknownResource, desc.Layout)
	}
	if _, ok := d.shaders[desc.Module]; !ok {
		return gpucore.InvalidID, fmt.Errorf("%w: shader module %d", ErrUnknownResource, desc.Module)
	}
	id := gpucore.RenderPipelineID(d.id())
	d.pipelines[id] = *desc
	return id, nil
}

// ReadTexture returns a copy of the texture's pixels, rows tightly packed.
func (d *Device) ReadTexture(id gpucore.TextureID) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[id]
	if !ok {
		return nil, fmt.Errorf("%w: texture %d", ErrUnknownResource, id)
	}
	return append([]byte(nil), t.pixels...), nil
}

// ReadRegion returns the pixels of r, rows tightly packed.
func (d *Device) ReadRegion(id gpucore.TextureID, r image.Rectangle) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[id]
	if !ok {
		return nil, fmt.Errorf("%w: texture %d", ErrUnknownResource, id)
	}
	bounds := image.Rect(0, 0, int(t.desc.Size.Width), int(t.desc.Size.Height))
	if !r.In(bounds) {
		return nil, fmt.Errorf("%w: region %v in %v", ErrOutOfBounds, r, bounds)
	}
	stride := bounds.Dx() * t.bpp
	out := make([]byte, 0, r.Dx()*r.Dy()*t.bpp)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := y*stride + r.Min.X*t.bpp
		out = append(out, t.pixels[off:off+r.Dx()*t.bpp]...)
	}
	return out, nil
}

// TextureDescriptor returns the descriptor a live texture was created with.
func (d *Device) TextureDescriptor(id gpucore.TextureID) (gputypes.TextureDescriptor, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[id]
	if !ok {
		return gputypes.TextureDescriptor{}, false
	}
	return t.desc, true
}

// TextureWrites returns how many WriteTexture calls targeted a texture.
func (d *Device) TextureWrites(id gpucore.TextureID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.textures[id]; ok {
		return t.writes
	}
	return 0
}

// ViewTexture returns the texture a view was created from.
func (d *Device) ViewTexture(id gpucore.TextureViewID) (gpucore.TextureID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	tex, ok := d.views[id]
	return tex, ok
}

// ReadBuffer returns a copy of a buffer's contents.
func (d *Device) ReadBuffer(id gpucore.BufferID) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, ok := d.buffers[id]
	if !ok {
		return nil, fmt.Errorf("%w: buffer %d", ErrUnknownResource, id)
	}
	return append([]byte(nil), buf...), nil
}

// Sampler returns the descriptor of a live sampler.
func (d *Device) Sampler(id gpucore.SamplerID) (gputypes.SamplerDescriptor, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	desc, ok := d.samplers[id]
	return desc, ok
}

// BindGroup returns the descriptor of a live bind group.
func (d *Device) BindGroup(id gpucore.BindGroupID) (gpucore.BindGroupDesc, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	desc, ok := d.bindGroups[id]
	return desc, ok
}

// RenderPipeline returns the descriptor of a render pipeline.
func (d *Device) RenderPipeline(id gpucore.RenderPipelineID) (gpucore.RenderPipelineDesc, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	desc, ok := d.pipelines[id]
	return desc, ok
}

// Stats reports live resource counts.
type Stats struct {
	Shaders          int
	Textures         int
	Views            int
	Samplers         int
	Buffers          int
	BindGroupLayouts int
	PipelineLayouts  int
	BindGroups       int
	Pipelines        int
	BufferWrites     int
}

// Stats returns live resource counts.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Stats{
		Shaders:          len(d.shaders),
		Textures:         len(d.textures),
		Views:            len(d.views),
		Samplers:         len(d.samplers),
		Buffers:          len(d.buffers),
		BindGroupLayouts: len(d.bgLayouts),
		PipelineLayouts:  len(d.pipeLayouts),
		BindGroups:       len(d.bindGroups),
		Pipelines:        len(d.pipelines),
		BufferWrites:     d.bufferWrites,
	}
}

// BytesPerPixel returns the texel size of the formats the atlas uses.
// Unlisted color formats are treated as 4 bytes.
func BytesPerPixel(f gputypes.TextureFormat) int {
	switch f {
	case gputypes.TextureFormatR8Unorm, gputypes.TextureFormatR8Snorm,
		gputypes.TextureFormatR8Uint, gputypes.TextureFormatR8Sint:
		return 1
	case gputypes.TextureFormatRG8Unorm, gputypes.TextureFormatR16Float:
		return 2
	default:
		return 4
	}
}
