package textatlas

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/textatlas/gpucore"
)

// Renderer turns text areas into a glyph instance buffer and draws it.
//
// A frame is one Prepare followed by one Render. Several renderers may share
// an atlas; the atlas owner calls Atlas.Trim after all of them have drawn.
type Renderer struct {
	dev      gpucore.Device
	pipeline gpucore.RenderPipelineID

	vertexBuffer     gpucore.BufferID
	vertexBufferSize uint64

	instances   []glyphVertex
	scratch     []byte
	drawCount   uint32
	glyphsInUse map[CacheKey]struct{}
	resolution  Resolution
}

// NewRenderer creates a renderer drawing with the atlas's pipeline for the
// multisample and depth-stencil state in cfg.
func NewRenderer(dev gpucore.Device, atlas *Atlas, cfg RendererConfig) (*Renderer, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	if cfg.Multisample.Count == 0 {
		cfg.Multisample = gputypes.DefaultMultisampleState()
	}
	if cfg.InitialVertexBufferSize == 0 {
		cfg.InitialVertexBufferSize = DefaultInitialVertexBufferSize
	}

	pipeline, err := atlas.Pipeline(cfg.Multisample, cfg.DepthStencil)
	if err != nil {
		return nil, err
	}
	size := nextCopyBufferSize(cfg.InitialVertexBufferSize)
	buf, err := createVertexBuffer(dev, size)
	if err != nil {
		return nil, err
	}
	return &Renderer{
		dev:              dev,
		pipeline:         pipeline,
		vertexBuffer:     buf,
		vertexBufferSize: size,
		glyphsInUse:      make(map[CacheKey]struct{}),
	}, nil
}

func createVertexBuffer(dev gpucore.Device, size uint64) (gpucore.BufferID, error) {
	buf, err := dev.CreateBuffer(&gputypes.BufferDescriptor{
		Label: "textatlas vertices",
		Size:  size,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("create vertex buffer: %w", err)
	}
	return buf, nil
}

// GlyphCount returns the number of glyph instances the next Render draws.
func (r *Renderer) GlyphCount() int {
	return int(r.drawCount)
}

// VertexBufferSize returns the current vertex buffer capacity in bytes.
func (r *Renderer) VertexBufferSize() uint64 {
	return r.vertexBufferSize
}

// Render draws the prepared glyphs into pass. It does nothing when the last
// Prepare produced no glyphs.
//
// Render fails with ErrRemovedFromAtlas if a prepared glyph has been
// evicted since Prepare, and with ErrScreenResolutionChanged if the
// viewport resolution changed. Both require a new Prepare.
func (r *Renderer) Render(atlas *Atlas, vp *Viewport, pass gpucore.RenderPass) error {
	if r.drawCount == 0 {
		return nil
	}
	for key := range r.glyphsInUse {
		if !atlas.Contains(key) {
			return ErrRemovedFromAtlas
		}
	}
	if vp.Resolution() != r.resolution {
		return ErrScreenResolutionChanged
	}

	pass.SetPipeline(r.pipeline)
	pass.SetBindGroup(0, atlas.BindGroup())
	pass.SetBindGroup(1, vp.BindGroup())
	pass.SetVertexBuffer(0, r.vertexBuffer, 0)
	pass.Draw(4, r.drawCount, 0, 0)
	return nil
}

// Destroy releases the vertex buffer.
func (r *Renderer) Destroy() {
	if r.vertexBuffer != gpucore.InvalidID {
		r.dev.DestroyBuffer(r.vertexBuffer)
		r.vertexBuffer = gpucore.InvalidID
	}
}

// reset drops the prepared batch.
func (r *Renderer) reset() {
	r.instances = r.instances[:0]
	r.drawCount = 0
	clear(r.glyphsInUse)
}

// upload writes the prepared instances, replacing the vertex buffer with a
// larger one when they no longer fit. The buffer never shrinks.
func (r *Renderer) upload() error {
	r.scratch = r.scratch[:0]
	for _, v := range r.instances {
		r.scratch = v.appendTo(r.scratch)
	}
	need := uint64(len(r.scratch))
	if need > r.vertexBufferSize {
		size := nextCopyBufferSize(need)
		buf, err := createVertexBuffer(r.dev, size)
		if err != nil {
			return err
		}
		r.dev.DestroyBuffer(r.vertexBuffer)
		r.vertexBuffer = buf
		r.vertexBufferSize = size
		Logger().Debug("textatlas: vertex buffer grown", "size", size)
	}
	if err := r.dev.WriteBuffer(r.vertexBuffer, 0, r.scratch); err != nil {
		return fmt.Errorf("write vertices: %w", err)
	}
	r.drawCount = uint32(len(r.instances))
	return nil
}
