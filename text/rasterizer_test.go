package text

import (
	"bytes"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/textatlas"
	"github.com/gogpu/textatlas/backend/memory"
)

// glyphKey builds a shaped key for r at size pixels and x offset.
func glyphKey(t *testing.T, fs *FontSystem, id textatlas.FontID, r rune, size, x float32, flags textatlas.CacheFlags) textatlas.CacheKey {
	t.Helper()
	gid, err := fs.GlyphIndex(id, r)
	if err != nil {
		t.Fatalf("GlyphIndex(%q) = %v", r, err)
	}
	key, _, _ := textatlas.NewCacheKey(id, gid, size, x, 0, flags)
	return key
}

func coverage(data []byte) int {
	n := 0
	for _, b := range data {
		n += int(b)
	}
	return n
}

func TestRasterizer_Mask(t *testing.T) {
	fs, id := loadGoRegular(t)
	r := NewRasterizer(fs)

	img, ok := r.RasterizeGlyph(glyphKey(t, fs, id, 'A', 32, 0, 0))
	if !ok {
		t.Fatal("RasterizeGlyph('A') = false")
	}
	if img.Content != textatlas.ContentTypeMask {
		t.Errorf("Content = %v, want mask", img.Content)
	}
	if img.Width == 0 || img.Height == 0 {
		t.Fatalf("size = %dx%d, want non-empty", img.Width, img.Height)
	}
	if len(img.Data) != int(img.Width)*int(img.Height) {
		t.Errorf("len(Data) = %d, want %d", len(img.Data), int(img.Width)*int(img.Height))
	}
	// A capital sits on the baseline and rises about the cap height.
	if img.Top < 18 || img.Top > 26 {
		t.Errorf("Top = %d, want near the cap height of 32px Go", img.Top)
	}
	if int(img.Height) < int(img.Top)-1 || int(img.Height) > int(img.Top)+1 {
		t.Errorf("Height = %d, want about Top (%d) for a glyph on the baseline", img.Height, img.Top)
	}
	if coverage(img.Data) == 0 {
		t.Error("glyph has no coverage")
	}
}

func TestRasterizer_Stable(t *testing.T) {
	fs, id := loadGoRegular(t)
	r := NewRasterizer(fs)
	key := glyphKey(t, fs, id, 'g', 24, 0.5, 0)

	a, _ := r.RasterizeGlyph(key)
	b, _ := r.RasterizeGlyph(key)
	if a.Width != b.Width || a.Height != b.Height || a.Left != b.Left || a.Top != b.Top {
		t.Errorf("placement differs: %+v vs %+v", a, b)
	}
	if !bytes.Equal(a.Data, b.Data) {
		t.Error("repeated rasterization produced different pixels")
	}
}

func TestRasterizer_SubpixelBins(t *testing.T) {
	fs, id := loadGoRegular(t)
	r := NewRasterizer(fs)

	k0 := glyphKey(t, fs, id, 'l', 24, 0, 0)
	k2 := glyphKey(t, fs, id, 'l', 24, 0.5, 0)
	if k0 == k2 {
		t.Fatal("keys at x=0 and x=0.5 are equal")
	}
	a, _ := r.RasterizeGlyph(k0)
	b, _ := r.RasterizeGlyph(k2)
	if a.Width == b.Width && bytes.Equal(a.Data, b.Data) {
		t.Error("half-pixel offset did not change the bitmap")
	}
}

func TestRasterizer_BlankGlyph(t *testing.T) {
	fs, id := loadGoRegular(t)
	img, ok := NewRasterizer(fs).RasterizeGlyph(glyphKey(t, fs, id, ' ', 16, 0, 0))
	if !ok {
		t.Fatal("RasterizeGlyph(space) = false")
	}
	if img.Width != 0 || img.Height != 0 || len(img.Data) != 0 {
		t.Errorf("space = %dx%d with %d bytes, want empty", img.Width, img.Height, len(img.Data))
	}
}

func TestRasterizer_Refuses(t *testing.T) {
	fs, id := loadGoRegular(t)
	r := NewRasterizer(fs)

	custom := textatlas.NewCustomCacheKey(1, 8, 8, textatlas.SubpixelZero, textatlas.SubpixelZero)
	if _, ok := r.RasterizeGlyph(custom); ok {
		t.Error("RasterizeGlyph(custom key) = true")
	}
	unknown := glyphKey(t, fs, id, 'A', 16, 0, 0)
	unknown.Font = id + 10
	if _, ok := r.RasterizeGlyph(unknown); ok {
		t.Error("RasterizeGlyph(unknown font) = true")
	}
	zero := glyphKey(t, fs, id, 'A', 0, 0, 0)
	if _, ok := r.RasterizeGlyph(zero); ok {
		t.Error("RasterizeGlyph(size 0) = true")
	}
}

func TestRasterizer_FakeStyles(t *testing.T) {
	fs, id := loadGoRegular(t)
	r := NewRasterizer(fs)

	plain, _ := r.RasterizeGlyph(glyphKey(t, fs, id, 'l', 32, 0, 0))
	bold, _ := r.RasterizeGlyph(glyphKey(t, fs, id, 'l', 32, 0, textatlas.FlagFakeBold))
	italic, _ := r.RasterizeGlyph(glyphKey(t, fs, id, 'l', 32, 0, textatlas.FlagFakeItalic))

	if bold.Width != plain.Width+1 {
		t.Errorf("bold width = %d, want %d", bold.Width, plain.Width+1)
	}
	if coverage(bold.Data) <= coverage(plain.Data) {
		t.Error("bold did not add coverage")
	}
	if italic.Width <= plain.Width {
		t.Errorf("italic width = %d, want wider than %d", italic.Width, plain.Width)
	}
	if italic.Height != plain.Height {
		t.Errorf("italic height = %d, want %d", italic.Height, plain.Height)
	}
}

func TestEmbolden(t *testing.T) {
	pix := []byte{
		0, 200, 0, 0,
		90, 0, 50, 0,
	}
	embolden(pix, 4, 2)
	want := []byte{
		0, 200, 200, 0,
		90, 90, 50, 50,
	}
	if !bytes.Equal(pix, want) {
		t.Errorf("embolden = %v, want %v", pix, want)
	}
}

// TestPrepareText runs laid out text through the atlas on the memory backend.
func TestPrepareText(t *testing.T) {
	fs, id := loadGoRegular(t)
	buf := NewBuffer(fs, Metrics{FontSize: 16, LineHeight: 20})
	if err := buf.SetText("Hi there", Attrs{Font: id}); err != nil {
		t.Fatalf("SetText() = %v", err)
	}

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
	if err := vp.Update(textatlas.Resolution{Width: 640, Height: 480}); err != nil {
		t.Fatalf("Update() = %v", err)
	}
	r, err := textatlas.NewRenderer(dev, atlas, textatlas.DefaultRendererConfig())
	if err != nil {
		t.Fatalf("NewRenderer() = %v", err)
	}
	defer r.Destroy()

	areas := []textatlas.TextArea{{
		Buffer:       buf,
		Left:         10,
		Top:          10,
		Scale:        1,
		Bounds:       textatlas.DefaultTextBounds(),
		DefaultColor: textatlas.RGB(0, 0, 0),
	}}
	rast := NewRasterizer(fs)
	if err := r.Prepare(atlas, vp, areas, rast); err != nil {
		t.Fatalf("Prepare() = %v", err)
	}
	// Seven inked glyphs; the space has no pixels.
	if r.GlyphCount() != 7 {
		t.Errorf("GlyphCount() = %d, want 7", r.GlyphCount())
	}
	first := atlas.Stats()
	if first.MaskCount < 6 {
		t.Errorf("MaskCount = %d, want at least 6 distinct glyphs", first.MaskCount)
	}

	if err := r.Prepare(atlas, vp, areas, rast); err != nil {
		t.Fatalf("second Prepare() = %v", err)
	}
	second := atlas.Stats()
	if second.Misses != first.Misses {
		t.Errorf("second frame missed %d glyphs", second.Misses-first.Misses)
	}
	if r.GlyphCount() != 7 {
		t.Errorf("second GlyphCount() = %d, want 7", r.GlyphCount())
	}
}
