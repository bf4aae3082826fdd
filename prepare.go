package textatlas

import (
	"fmt"
	"math"
)

// PrepareOptions configures one Prepare call.
type PrepareOptions struct {
	// Rasterizer produces shaped glyph bitmaps.
	Rasterizer GlyphRasterizer

	// CustomRasterizer produces custom glyph bitmaps. Custom glyphs are
	// skipped when nil.
	CustomRasterizer CustomGlyphRasterizer

	// MetadataToDepth maps a glyph's metadata to its depth value.
	// Nil means depth 0 for every glyph.
	MetadataToDepth func(metadata uint) float32
}

// Prepare lays out the glyphs of areas for the next Render, rasterizing and
// uploading any glyph not yet in the atlas.
func (r *Renderer) Prepare(atlas *Atlas, vp *Viewport, areas []TextArea, rast GlyphRasterizer) error {
	return r.PrepareWith(atlas, vp, areas, PrepareOptions{Rasterizer: rast})
}

// PrepareWith is Prepare with custom glyph support and depth mapping.
//
// Areas are drawn in order, later areas on top. If a glyph cannot fit the
// atlas even after eviction and growth, PrepareWith returns an
// *AtlasFullError and the prepared batch is empty. Glyphs inserted before
// the failure stay cached.
func (r *Renderer) PrepareWith(atlas *Atlas, vp *Viewport, areas []TextArea, opts PrepareOptions) error {
	if !atlas.preparing.CompareAndSwap(false, true) {
		return ErrConcurrentPrepare
	}
	defer atlas.preparing.Store(false)

	r.reset()
	r.resolution = vp.Resolution()

	src := glyphSource{text: opts.Rasterizer, custom: opts.CustomRasterizer}
	p := preparer{
		r:      r,
		atlas:  atlas,
		src:    src,
		regrow: atlas.remember(src),
		depth:  opts.MetadataToDepth,
		srgb:   atlas.colorMode.convertsToLinear(),
	}
	for i := range areas {
		if err := p.area(&areas[i]); err != nil {
			r.reset()
			return err
		}
	}

	if len(r.instances) == 0 {
		return nil
	}
	if err := r.upload(); err != nil {
		r.reset()
		return err
	}
	Logger().Debug("textatlas: prepared", "glyphs", r.drawCount, "areas", len(areas))
	return nil
}

// preparer holds the state of one PrepareWith call.
type preparer struct {
	r      *Renderer
	atlas  *Atlas
	src    glyphSource
	regrow glyphSource // src plus rasterizers seen by earlier calls, for growth
	depth  func(uint) float32
	srgb   bool

	clip  ClipBounds
	scale float32
}

// area emits the custom glyphs and the visible runs of one text area.
func (p *preparer) area(a *TextArea) error {
	p.scale = a.Scale
	if p.scale == 0 {
		p.scale = 1
	}
	p.clip = clipBoundsFor(a.Bounds, p.r.resolution)

	for _, cg := range a.CustomGlyphs {
		if err := p.customGlyph(a, cg); err != nil {
			return err
		}
	}

	if a.Buffer == nil {
		return nil
	}
	visible := func(run LayoutRun) bool {
		start := int32(a.Top + run.LineTop*p.scale)
		end := start + int32(run.LineHeight*p.scale)
		return start <= a.Bounds.Bottom && a.Bounds.Top <= end
	}
	seen := false
	for run := range a.Buffer.Runs() {
		if !visible(run) {
			if seen {
				break
			}
			continue
		}
		seen = true
		lineY := float32(math.Round(float64(run.LineY * p.scale)))
		for _, g := range run.Glyphs {
			key, x, y := NewCacheKey(g.Font, g.Glyph, g.FontSize*p.scale,
				(g.X+g.XOffset)*p.scale+a.Left,
				float32(math.Trunc(float64((g.Y-g.YOffset)*p.scale+a.Top))),
				g.Flags)
			color := a.DefaultColor
			if g.HasColor {
				color = g.Color
			}
			if err := p.glyph(key, x, y, int32(lineY), color, g.Metadata); err != nil {
				return err
			}
		}
	}
	return nil
}

// customGlyph places a custom glyph relative to the area origin.
func (p *preparer) customGlyph(a *TextArea, cg CustomGlyph) error {
	fx := a.Left + cg.Left*p.scale
	fy := a.Top + cg.Top*p.scale
	w := roundU16(cg.Width * p.scale)
	h := roundU16(cg.Height * p.scale)

	var (
		x, y       int32
		xBin, yBin SubpixelBin
	)
	if cg.SnapToPhysicalPixel {
		x = int32(math.Round(float64(fx)))
		y = int32(math.Round(float64(fy)))
	} else {
		x, xBin = NewSubpixelBin(fx)
		y, yBin = NewSubpixelBin(fy)
	}

	color := a.DefaultColor
	if cg.HasColor {
		color = cg.Color
	}
	return p.glyph(NewCustomCacheKey(cg.ID, w, h, xBin, yBin), x, y, 0, color, cg.Metadata)
}

// glyph resolves key against the atlas and emits its instance. x and y are
// the whole-pixel origin, lineY the rounded physical baseline offset.
func (p *preparer) glyph(key CacheKey, x, y, lineY int32, color Color, metadata uint) error {
	details, ok := p.atlas.Glyph(key)
	if ok {
		p.atlas.hits.Add(1)
	} else {
		p.atlas.misses.Add(1)
		img, ok := p.src.image(key, p.scale)
		if !ok {
			return nil
		}
		var err error
		if details, err = p.atlas.insert(key, img, p.scale, p.regrow); err != nil {
			return err
		}
	}
	if !details.InAtlas() {
		return nil
	}

	rect, visible := ClipGlyph(GlyphRect{
		X:      x + int32(details.Left),
		Y:      lineY + y - int32(details.Top),
		Width:  int32(details.Width),
		Height: int32(details.Height),
		AtlasX: details.X,
		AtlasY: details.Y,
	}, p.clip)
	if !visible {
		return nil
	}

	var depth float32
	if p.depth != nil {
		depth = p.depth(metadata)
	}
	p.r.instances = append(p.r.instances, glyphVertex{
		X:       rect.X,
		Y:       rect.Y,
		Width:   uint16(rect.Width),
		Height:  uint16(rect.Height),
		AtlasX:  rect.AtlasX,
		AtlasY:  rect.AtlasY,
		Color:   color,
		Content: details.Content,
		SRGB:    p.srgb,
		Depth:   depth,
	})
	p.r.glyphsInUse[key] = struct{}{}
	return nil
}

func roundU16(v float32) uint16 {
	r := math.Round(float64(v))
	if r <= 0 {
		return 0
	}
	return uint16(min(r, math.MaxUint16))
}

// insert caches a freshly rasterized glyph, evicting or growing the target
// plane as needed. Zero-area bitmaps are cached as SkipRasterization in the
// color plane.
func (a *Atlas) insert(key CacheKey, img GlyphImage, scale float32, src glyphSource) (GlyphDetails, error) {
	details := GlyphDetails{
		Width:   img.Width,
		Height:  img.Height,
		Content: img.Content,
		Left:    img.Left,
		Top:     img.Top,
		scale:   scale,
	}
	if img.Width == 0 || img.Height == 0 {
		details.Status = CacheStatusSkipRasterization
		a.color.put(key, details)
		return details, nil
	}
	if want := int(img.Width) * int(img.Height) * img.Content.BytesPerPixel(); len(img.Data) != want {
		panic(fmt.Sprintf("textatlas: glyph %+v: got %d bytes, want %d for %dx%d %s",
			key, len(img.Data), want, img.Width, img.Height, img.Content))
	}

	p := a.plane(img.Content)
	if uint32(img.Width) > p.maxSize || uint32(img.Height) > p.maxSize {
		return GlyphDetails{}, &AtlasFullError{Content: img.Content, Size: p.size}
	}
	for {
		alloc, ok := p.tryAllocate(int(img.Width), int(img.Height))
		if ok {
			details.Status = CacheStatusInAtlas
			details.X = uint16(alloc.Rect.Min.X)
			details.Y = uint16(alloc.Rect.Min.Y)
			details.alloc = alloc.ID
			break
		}
		grown, err := a.grow(img.Content, src)
		if err != nil {
			return GlyphDetails{}, err
		}
		if !grown {
			return GlyphDetails{}, &AtlasFullError{Content: img.Content, Size: p.size}
		}
	}

	if err := p.upload(details.X, details.Y, img); err != nil {
		p.packer.Deallocate(details.alloc)
		return GlyphDetails{}, err
	}
	p.put(key, details)
	return details, nil
}
