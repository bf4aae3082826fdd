package svg

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/textatlas"
	"github.com/gogpu/textatlas/backend/memory"
)

const (
	redSquare = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10" width="10" height="10">
<rect x="0" y="0" width="10" height="10" fill="#ff0000"/>
</svg>`

	leftHalf = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10" width="10" height="10">
<rect x="0" y="0" width="5" height="10" fill="#000000"/>
</svg>`
)

func newSystem(t *testing.T) *GlyphSystem {
	t.Helper()
	s := NewGlyphSystem()
	if err := s.Add(1, []byte(redSquare), textatlas.ContentTypeColor); err != nil {
		t.Fatalf("Add(redSquare) = %v", err)
	}
	if err := s.Add(2, []byte(leftHalf), textatlas.ContentTypeMask); err != nil {
		t.Fatalf("Add(leftHalf) = %v", err)
	}
	return s
}

func request(id textatlas.CustomGlyphID, w, h uint16) textatlas.RasterRequest {
	return textatlas.RasterRequest{ID: id, Width: w, Height: h, Scale: 1}
}

func TestGlyphSystem_Color(t *testing.T) {
	s := newSystem(t)
	out, ok := s.RasterizeCustomGlyph(request(1, 10, 10))
	if !ok {
		t.Fatal("RasterizeCustomGlyph() = false")
	}
	if out.Content != textatlas.ContentTypeColor {
		t.Errorf("Content = %v, want color", out.Content)
	}
	if len(out.Data) != 10*10*4 {
		t.Fatalf("len(Data) = %d, want 400", len(out.Data))
	}
	center := (5*10 + 5) * 4
	if got := out.Data[center : center+4]; got[0] != 0xff || got[1] != 0 || got[2] != 0 || got[3] != 0xff {
		t.Errorf("center pixel = %v, want opaque red", got)
	}
}

func TestGlyphSystem_MaskKeepsAlpha(t *testing.T) {
	s := newSystem(t)
	out, ok := s.RasterizeCustomGlyph(request(2, 10, 10))
	if !ok {
		t.Fatal("RasterizeCustomGlyph() = false")
	}
	if out.Content != textatlas.ContentTypeMask {
		t.Errorf("Content = %v, want mask", out.Content)
	}
	if len(out.Data) != 100 {
		t.Fatalf("len(Data) = %d, want 100", len(out.Data))
	}
	row := out.Data[50:60]
	if row[2] != 0xff {
		t.Errorf("covered pixel = %d, want 255", row[2])
	}
	if row[7] != 0 {
		t.Errorf("uncovered pixel = %d, want 0", row[7])
	}
}

func TestGlyphSystem_ScalesToRequest(t *testing.T) {
	s := newSystem(t)
	out, ok := s.RasterizeCustomGlyph(request(2, 20, 4))
	if !ok {
		t.Fatal("RasterizeCustomGlyph() = false")
	}
	if len(out.Data) != 80 {
		t.Fatalf("len(Data) = %d, want 80", len(out.Data))
	}
	// The left half of each row is covered at any size.
	row := out.Data[20:40]
	if row[4] != 0xff || row[15] != 0 {
		t.Errorf("row = %v, want left half covered", row)
	}
}

func TestGlyphSystem_SubpixelOffset(t *testing.T) {
	s := newSystem(t)
	req := request(2, 10, 10)
	req.XBin = textatlas.SubpixelTwo
	out, ok := s.RasterizeCustomGlyph(req)
	if !ok {
		t.Fatal("RasterizeCustomGlyph() = false")
	}
	edge := out.Data[50+5]
	if edge == 0 || edge == 0xff {
		t.Errorf("edge pixel = %d, want partial coverage after a half pixel shift", edge)
	}
}

func TestGlyphSystem_Refuses(t *testing.T) {
	s := newSystem(t)
	if _, ok := s.RasterizeCustomGlyph(request(9, 10, 10)); ok {
		t.Error("RasterizeCustomGlyph(unknown id) = true")
	}
	if _, ok := s.RasterizeCustomGlyph(request(1, 0, 10)); ok {
		t.Error("RasterizeCustomGlyph(zero width) = true")
	}
	if !s.Remove(1) {
		t.Fatal("Remove(1) = false")
	}
	if s.Remove(1) {
		t.Error("second Remove(1) = true")
	}
	if _, ok := s.RasterizeCustomGlyph(request(1, 10, 10)); ok {
		t.Error("RasterizeCustomGlyph(removed id) = true")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestGlyphSystem_AddErrors(t *testing.T) {
	s := NewGlyphSystem()
	if err := s.Add(1, nil, textatlas.ContentTypeMask); !errors.Is(err, ErrEmptySource) {
		t.Errorf("Add(nil) = %v, want ErrEmptySource", err)
	}
	if err := s.Add(1, []byte(redSquare), textatlas.ContentType(7)); err == nil {
		t.Error("Add(bad content type) = nil error")
	}
	if err := s.Add(1, []byte("<svg"), textatlas.ContentTypeMask); err == nil {
		t.Error("Add(truncated) = nil error")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after failed adds", s.Len())
	}
}

// TestPrepareIcons places icons through the atlas on the memory backend.
func TestPrepareIcons(t *testing.T) {
	s := newSystem(t)

	dev := memory.New(memory.Options{})
	cache, err := textatlas.NewCache(dev)
	if err != nil {
		t.Fatalf("NewCache() = %v", err)
	}
	atlas, err := textatlas.NewAtlas(dev, cache, gputypes.TextureFormatRGBA8UnormSrgb, textatlas.DefaultAtlasConfig())
	if err != nil {
		t.Fatalf("NewAtlas() = %v", err)
	}
	defer atlas.Destroy()
	vp, err := textatlas.NewViewport(dev, cache)
	if err != nil {
		t.Fatalf("NewViewport() = %v", err)
	}
	if err := vp.Update(textatlas.Resolution{Width: 320, Height: 240}); err != nil {
		t.Fatalf("Update() = %v", err)
	}
	r, err := textatlas.NewRenderer(dev, atlas, textatlas.DefaultRendererConfig())
	if err != nil {
		t.Fatalf("NewRenderer() = %v", err)
	}
	defer r.Destroy()

	areas := []textatlas.TextArea{{
		Buffer:       textatlas.LayoutRuns{},
		Scale:        2,
		Bounds:       textatlas.DefaultTextBounds(),
		DefaultColor: textatlas.RGB(0xff, 0xff, 0xff),
		CustomGlyphs: []textatlas.CustomGlyph{
			{ID: 1, Left: 4, Top: 4, Width: 8, Height: 8, SnapToPhysicalPixel: true},
			{ID: 2, Left: 20, Top: 4, Width: 8, Height: 8, SnapToPhysicalPixel: true},
		},
	}}
	opts := textatlas.PrepareOptions{CustomRasterizer: s}
	if err := r.PrepareWith(atlas, vp, areas, opts); err != nil {
		t.Fatalf("PrepareWith() = %v", err)
	}
	if r.GlyphCount() != 2 {
		t.Errorf("GlyphCount() = %d, want 2", r.GlyphCount())
	}
	stats := atlas.Stats()
	if stats.ColorCount != 1 || stats.MaskCount != 1 {
		t.Errorf("plane counts = color %d, mask %d, want 1 and 1", stats.ColorCount, stats.MaskCount)
	}
	key := textatlas.NewCustomCacheKey(1, 16, 16, textatlas.SubpixelZero, textatlas.SubpixelZero)
	details, ok := atlas.Glyph(key)
	if !ok {
		t.Fatal("icon 1 not cached at 16x16")
	}
	if details.Content != textatlas.ContentTypeColor {
		t.Errorf("icon 1 content = %v, want color", details.Content)
	}
}

func TestRemoveCachedIcon(t *testing.T) {
	s := newSystem(t)
	if err := s.Add(3, []byte(leftHalf), textatlas.ContentTypeMask); err != nil {
		t.Fatalf("Add(3) = %v", err)
	}

	dev := memory.New(memory.Options{})
	cache, err := textatlas.NewCache(dev)
	if err != nil {
		t.Fatalf("NewCache() = %v", err)
	}
	atlas, err := textatlas.NewAtlas(dev, cache, gputypes.TextureFormatRGBA8UnormSrgb,
		textatlas.AtlasConfig{InitialSize: 16, MaxSize: 64})
	if err != nil {
		t.Fatalf("NewAtlas() = %v", err)
	}
	defer atlas.Destroy()
	vp, err := textatlas.NewViewport(dev, cache)
	if err != nil {
		t.Fatalf("NewViewport() = %v", err)
	}
	if err := vp.Update(textatlas.Resolution{Width: 320, Height: 240}); err != nil {
		t.Fatalf("Update() = %v", err)
	}
	first, err := textatlas.NewRenderer(dev, atlas, textatlas.DefaultRendererConfig())
	if err != nil {
		t.Fatalf("NewRenderer() = %v", err)
	}
	second, err := textatlas.NewRenderer(dev, atlas, textatlas.DefaultRendererConfig())
	if err != nil {
		t.Fatalf("NewRenderer() = %v", err)
	}

	icon := func(id textatlas.CustomGlyphID, size float32) []textatlas.TextArea {
		return []textatlas.TextArea{{
			Scale:  1,
			Bounds: textatlas.DefaultTextBounds(),
			CustomGlyphs: []textatlas.CustomGlyph{
				{ID: id, Width: size, Height: size, SnapToPhysicalPixel: true},
			},
		}}
	}
	opts := textatlas.PrepareOptions{CustomRasterizer: s}
	if err := first.PrepareWith(atlas, vp, icon(2, 8), opts); err != nil {
		t.Fatalf("PrepareWith(icon 2) = %v", err)
	}
	if !s.Remove(2) {
		t.Fatal("Remove(2) = false")
	}

	// Icon 3 does not fit the 16x16 mask plane next to icon 2, so the plane
	// grows and icon 2 can no longer be drawn.
	if err := second.PrepareWith(atlas, vp, icon(3, 16), opts); err != nil {
		t.Fatalf("PrepareWith(icon 3) = %v", err)
	}
	if got := atlas.Size(textatlas.ContentTypeMask); got != 32 {
		t.Errorf("mask plane size = %d, want 32", got)
	}
	if atlas.Contains(textatlas.NewCustomCacheKey(2, 8, 8, textatlas.SubpixelZero, textatlas.SubpixelZero)) {
		t.Error("removed icon still cached after growth")
	}
	if err := first.Render(atlas, vp, &memory.Pass{}); !errors.Is(err, textatlas.ErrRemovedFromAtlas) {
		t.Errorf("Render() = %v, want ErrRemovedFromAtlas", err)
	}
	if err := second.Render(atlas, vp, &memory.Pass{}); err != nil {
		t.Errorf("second Render() = %v", err)
	}
}
