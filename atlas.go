package textatlas

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/textatlas/gpucore"
)

// Atlas is a GPU-resident cache of rasterized glyphs split into a color
// plane (RGBA) and a mask plane (single channel).
//
// An Atlas may be shared by any number of renderers. Access is frame
// sequential: Prepare calls against one atlas must not overlap, and Trim is
// called once per frame after every renderer sharing the atlas has drawn.
// Overlapping Prepare calls are detected and fail with ErrConcurrentPrepare.
type Atlas struct {
	dev       gpucore.Device
	cache     *Cache
	format    gputypes.TextureFormat
	colorMode ColorMode

	color *atlasPlane
	mask  *atlasPlane

	bindGroup gpucore.BindGroupID

	// Last non-nil rasterizers passed to Prepare. Growth redraws glyphs
	// cached by other renderers with them.
	known glyphSource

	preparing atomic.Bool

	hits   atomic.Uint64
	misses atomic.Uint64
}

// AtlasStats holds atlas statistics.
type AtlasStats struct {
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Growths    uint64
	ColorSize  uint32
	MaskSize   uint32
	ColorCount int
	MaskCount  int
}

// HitRate returns the cache hit rate (0.0 to 1.0).
func (s AtlasStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// NewAtlas creates an atlas whose glyphs will be drawn into render targets
// of the given format.
func NewAtlas(dev gpucore.Device, cache *Cache, format gputypes.TextureFormat, cfg AtlasConfig) (*Atlas, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	if cache == nil {
		return nil, ErrNilCache
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	maxSize := cfg.maxSizeFor(dev.Limits())
	initial := min(cfg.InitialSize, maxSize)

	a := &Atlas{
		dev:       dev,
		cache:     cache,
		format:    format,
		colorMode: cfg.ColorMode,
	}

	var err error
	a.color, err = newAtlasPlane(dev, ContentTypeColor, cfg.ColorMode.colorFormat(), initial, maxSize, cfg.Label+" color atlas")
	if err != nil {
		return nil, err
	}
	a.mask, err = newAtlasPlane(dev, ContentTypeMask, gputypes.TextureFormatR8Unorm, initial, maxSize, cfg.Label+" mask atlas")
	if err != nil {
		a.color.destroy()
		return nil, err
	}
	if err := a.rebind(); err != nil {
		a.Destroy()
		return nil, err
	}
	return a, nil
}

// Glyph returns the details of a cached glyph, looking in the mask plane
// first. A hit promotes the glyph and marks it in use for this frame.
func (a *Atlas) Glyph(key CacheKey) (GlyphDetails, bool) {
	if d, ok := a.mask.glyph(key); ok {
		return d, true
	}
	return a.color.glyph(key)
}

// Contains reports whether key is cached in either plane, without touching
// its recency.
func (a *Atlas) Contains(key CacheKey) bool {
	return a.mask.contains(key) || a.color.contains(key)
}

// Trim releases this frame's in-use marks. Call once per frame after every
// renderer sharing the atlas has drawn. Trim is idempotent.
func (a *Atlas) Trim() {
	a.mask.trim()
	a.color.trim()
}

// ColorMode returns the atlas color mode.
func (a *Atlas) ColorMode() ColorMode {
	return a.colorMode
}

// Format returns the render target format the atlas draws into.
func (a *Atlas) Format() gputypes.TextureFormat {
	return a.format
}

// BindGroup returns the bind group referencing both plane textures.
// It changes whenever a plane grows.
func (a *Atlas) BindGroup() gpucore.BindGroupID {
	return a.bindGroup
}

// Texture returns the current texture of a plane.
func (a *Atlas) Texture(content ContentType) gpucore.TextureID {
	return a.plane(content).texture
}

// Size returns the current edge length of a plane.
func (a *Atlas) Size(content ContentType) uint32 {
	return a.plane(content).size
}

// Pipeline returns the shared pipeline for this atlas's target format.
func (a *Atlas) Pipeline(multisample gputypes.MultisampleState, depthStencil *gputypes.DepthStencilState) (gpucore.RenderPipelineID, error) {
	return a.cache.Pipeline(a.format, multisample, depthStencil)
}

// Stats returns current atlas statistics.
func (a *Atlas) Stats() AtlasStats {
	return AtlasStats{
		Hits:       a.hits.Load(),
		Misses:     a.misses.Load(),
		Evictions:  a.color.evictions + a.mask.evictions,
		Growths:    a.color.growths + a.mask.growths,
		ColorSize:  a.color.size,
		MaskSize:   a.mask.size,
		ColorCount: a.color.glyphs.Len(),
		MaskCount:  a.mask.glyphs.Len(),
	}
}

// Destroy releases the atlas textures and bind group.
func (a *Atlas) Destroy() {
	if a.bindGroup != gpucore.InvalidID {
		a.dev.DestroyBindGroup(a.bindGroup)
		a.bindGroup = gpucore.InvalidID
	}
	a.color.destroy()
	a.mask.destroy()
	a.known = glyphSource{}
}

// remember records the rasterizers of src and returns src completed with
// those remembered from earlier Prepare calls.
func (a *Atlas) remember(src glyphSource) glyphSource {
	a.known = src.merge(a.known)
	return a.known
}

// plane selects the plane that stores content.
func (a *Atlas) plane(content ContentType) *atlasPlane {
	if content == ContentTypeColor {
		return a.color
	}
	return a.mask
}

// grow grows the plane for content and rebinds the atlas textures.
// Returns false when the plane is at its maximum size.
func (a *Atlas) grow(content ContentType, src glyphSource) (bool, error) {
	p := a.plane(content)
	oldView := p.view
	grown, err := p.grow(src)
	if p.view != oldView {
		if rerr := a.rebind(); rerr != nil && err == nil {
			err = rerr
		}
	}
	if err != nil {
		return false, err
	}
	return grown, nil
}

// rebind recreates the bind group after a plane texture changed.
func (a *Atlas) rebind() error {
	bg, err := a.cache.atlasBindGroup(a.color.view, a.mask.view)
	if err != nil {
		return fmt.Errorf("bind atlas textures: %w", err)
	}
	if a.bindGroup != gpucore.InvalidID {
		a.dev.DestroyBindGroup(a.bindGroup)
	}
	a.bindGroup = bg
	return nil
}
