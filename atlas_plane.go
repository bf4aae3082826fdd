package textatlas

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/textatlas/gpucore"
	"github.com/gogpu/textatlas/internal/cache"
	"github.com/gogpu/textatlas/internal/packer"
)

// atlasPlane is one texture of the atlas with its packer and glyph cache.
//
// Every InAtlas entry in glyphs owns exactly one live packer allocation and
// every packer allocation belongs to one entry.
type atlasPlane struct {
	dev     gpucore.Device
	kind    ContentType
	format  gputypes.TextureFormat
	label   string
	size    uint32
	maxSize uint32

	texture gpucore.TextureID
	view    gpucore.TextureViewID

	packer *packer.Allocator
	glyphs *cache.RecencyMap[CacheKey, GlyphDetails]
	inUse  map[CacheKey]struct{}

	evictions uint64
	growths   uint64
}

func newAtlasPlane(dev gpucore.Device, kind ContentType, format gputypes.TextureFormat, size, maxSize uint32, label string) (*atlasPlane, error) {
	p := &atlasPlane{
		dev:     dev,
		kind:    kind,
		format:  format,
		label:   label,
		size:    size,
		maxSize: maxSize,
		packer:  packer.New(int(size), int(size)),
		glyphs:  cache.NewRecencyMap[CacheKey, GlyphDetails](),
		inUse:   make(map[CacheKey]struct{}),
	}
	if err := p.createTexture(); err != nil {
		return nil, err
	}
	return p, nil
}

// createTexture allocates a texture and view of the current size.
func (p *atlasPlane) createTexture() error {
	tex, err := p.dev.CreateTexture(&gputypes.TextureDescriptor{
		Label:         p.label,
		Size:          gputypes.Extent3D{Width: p.size, Height: p.size, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        p.format,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create %s atlas texture: %w", p.kind, err)
	}
	view, err := p.dev.CreateTextureView(tex, p.label)
	if err != nil {
		p.dev.DestroyTexture(tex)
		return fmt.Errorf("create %s atlas view: %w", p.kind, err)
	}
	p.texture = tex
	p.view = view
	return nil
}

// glyph returns the details of key and, on a hit, promotes it and marks it
// in use for the current frame.
func (p *atlasPlane) glyph(key CacheKey) (GlyphDetails, bool) {
	d, ok := p.glyphs.Get(key)
	if ok {
		p.inUse[key] = struct{}{}
	}
	return d, ok
}

// put inserts a glyph and marks it in use this frame.
func (p *atlasPlane) put(key CacheKey, d GlyphDetails) {
	p.glyphs.Put(key, d)
	p.inUse[key] = struct{}{}
}

// contains reports whether key is cached, without touching its recency.
func (p *atlasPlane) contains(key CacheKey) bool {
	return p.glyphs.Contains(key)
}

// tryAllocate reserves w x h texels, evicting least recently used glyphs
// that are not in use this frame until the request fits. Entries without an
// atlas allocation are skipped, not evicted. Returns false once every
// remaining sized entry is in use, or at once when the request is larger
// than the plane.
func (p *atlasPlane) tryAllocate(w, h int) (packer.Allocation, bool) {
	if alloc, ok := p.packer.Allocate(w, h); ok {
		return alloc, true
	}
	if w > int(p.size) || h > int(p.size) {
		return packer.Allocation{}, false
	}
	for key, d := range p.glyphs.Backward() {
		if d.alloc == 0 {
			continue
		}
		if _, busy := p.inUse[key]; busy {
			continue
		}
		p.evict(key)
		Logger().Debug("textatlas: glyph evicted", "plane", p.kind.String(), "glyph", key.Glyph, "custom", key.Custom)

		if alloc, ok := p.packer.Allocate(w, h); ok {
			return alloc, true
		}
	}
	return packer.Allocation{}, false
}

// evict removes key from the plane and releases its atlas space.
func (p *atlasPlane) evict(key CacheKey) {
	d, ok := p.glyphs.Remove(key)
	if !ok {
		return
	}
	if d.alloc != 0 {
		p.packer.Deallocate(d.alloc)
	}
	delete(p.inUse, key)
	p.evictions++
}

// upload writes a glyph bitmap at (x, y).
func (p *atlasPlane) upload(x, y uint16, img GlyphImage) error {
	err := p.dev.WriteTexture(gpucore.TextureRegion{
		Texture: p.texture,
		X:       uint32(x),
		Y:       uint32(y),
		Width:   uint32(img.Width),
		Height:  uint32(img.Height),
	}, img.Data, uint32(img.Width)*uint32(p.kind.BytesPerPixel()))
	if err != nil {
		return fmt.Errorf("upload glyph to %s atlas: %w", p.kind, err)
	}
	return nil
}

// trim clears the in-use marks so cached glyphs become evictable again.
func (p *atlasPlane) trim() {
	clear(p.inUse)
}

// grow doubles the plane, capped at maxSize, and re-uploads every cached
// glyph by rasterizing it again. Glyphs that cannot be reproduced, or that
// were not uploaded because an upload failed, are evicted. Returns false
// when the plane is already at its maximum size.
func (p *atlasPlane) grow(src glyphSource) (bool, error) {
	if p.size >= p.maxSize {
		return false, nil
	}
	newSize := min(p.size*2, p.maxSize)

	oldTex, oldView := p.texture, p.view
	oldSize := p.size
	p.size = newSize
	if err := p.createTexture(); err != nil {
		p.size = oldSize
		return false, err
	}
	p.packer.Grow(int(newSize), int(newSize))

	var (
		lost      []CacheKey
		uploadErr error
	)
	for key, d := range p.glyphs.All() {
		if !d.InAtlas() {
			continue
		}
		if uploadErr == nil {
			img, ok := src.reimage(key, d, p.kind)
			if ok {
				if uploadErr = p.upload(d.X, d.Y, img); uploadErr == nil {
					continue
				}
			}
		}
		lost = append(lost, key)
	}
	for _, key := range lost {
		p.evict(key)
	}

	p.dev.DestroyTextureView(oldView)
	p.dev.DestroyTexture(oldTex)
	p.growths++

	Logger().Info("textatlas: atlas grown",
		slog.String("plane", p.kind.String()),
		slog.Uint64("from", uint64(oldSize)),
		slog.Uint64("to", uint64(newSize)),
		slog.Int("glyphs", p.glyphs.Len()),
		slog.Int("dropped", len(lost)))
	return true, uploadErr
}

// destroy releases the plane's GPU resources.
func (p *atlasPlane) destroy() {
	p.dev.DestroyTextureView(p.view)
	p.dev.DestroyTexture(p.texture)
	p.glyphs.Clear()
	p.packer.Clear()
	clear(p.inUse)
}
