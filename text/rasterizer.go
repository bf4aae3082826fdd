package text

import (
	"bytes"
	"image"
	"image/draw"
	"image/png"
	"math"
	"sync"

	"github.com/go-text/typesetting/font"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/gogpu/textatlas"
	"github.com/gogpu/textatlas/internal/cache"
)

// fakeItalicSkew is the horizontal shear of synthesized italics, tan(14°).
const fakeItalicSkew = 0.25

// strikeCacheSize bounds the number of decoded bitmap strikes kept.
const strikeCacheSize = 256

// strikeKey identifies a decoded embedded bitmap.
type strikeKey struct {
	font  textatlas.FontID
	glyph uint16
	ppem  uint16
}

// Rasterizer produces atlas bitmaps for shaped glyph keys. Outline glyphs
// become coverage masks positioned at the key's subpixel offset; glyphs
// with an embedded PNG strike become RGBA images scaled to the key's size.
//
// Rasterizer is safe for concurrent use; calls are serialized.
type Rasterizer struct {
	fs *FontSystem

	mu      sync.Mutex
	buf     sfnt.Buffer
	vec     *vector.Rasterizer
	strikes *cache.RecencyMap[strikeKey, image.Image]
}

// Compile-time interface check.
var _ textatlas.GlyphRasterizer = (*Rasterizer)(nil)

// NewRasterizer creates a rasterizer for the fonts of fs.
func NewRasterizer(fs *FontSystem) *Rasterizer {
	return &Rasterizer{
		fs:      fs,
		vec:     vector.NewRasterizer(0, 0),
		strikes: cache.NewBounded[strikeKey, image.Image](strikeCacheSize, nil),
	}
}

// RasterizeGlyph implements textatlas.GlyphRasterizer. Glyphs without ink,
// such as spaces, return a zero-size image. Unknown fonts and glyphs
// return false.
func (r *Rasterizer) RasterizeGlyph(key textatlas.CacheKey) (textatlas.GlyphImage, bool) {
	if key.Origin != textatlas.OriginShaped {
		return textatlas.GlyphImage{}, false
	}
	size := key.FontSize()
	if !(size > 0) || size > math.MaxUint16 {
		return textatlas.GlyphImage{}, false
	}
	e, err := r.fs.lookup(key.Font)
	if err != nil {
		textatlas.Logger().Warn("text: rasterize glyph of unknown font", "font", key.Font, "glyph", key.Glyph)
		return textatlas.GlyphImage{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if img, ok := r.colorGlyph(e, key, size); ok {
		return img, true
	}
	return r.outlineGlyph(e, key, size)
}

// outlineGlyph fills the glyph outline into a coverage mask.
func (r *Rasterizer) outlineGlyph(e *fontEntry, key textatlas.CacheKey, size float32) (textatlas.GlyphImage, bool) {
	segs, err := e.outline.LoadGlyph(&r.buf, sfnt.GlyphIndex(key.Glyph), toFixed(size), nil)
	if err != nil {
		return textatlas.GlyphImage{}, false
	}
	blank := textatlas.GlyphImage{Content: textatlas.ContentTypeMask}
	if len(segs) == 0 {
		return blank, true
	}

	var skew float32
	if key.Flags&textatlas.FlagFakeItalic != 0 {
		skew = fakeItalicSkew
	}
	dx, dy := key.XBin.Float(), key.YBin.Float()
	point := func(p fixed.Point26_6) (float32, float32) {
		x, y := fromFixed(p.X), fromFixed(p.Y)
		return x - y*skew + dx, y + dy
	}

	minX, minY := float32(math.MaxFloat32), float32(math.MaxFloat32)
	maxX, maxY := -minX, -minY
	for _, s := range segs {
		for _, p := range s.Args[:argCount(s.Op)] {
			x, y := point(p)
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	x0 := int(math.Floor(float64(minX)))
	y0 := int(math.Floor(float64(minY)))
	w := int(math.Ceil(float64(maxX))) - x0
	h := int(math.Ceil(float64(maxY))) - y0
	bold := key.Flags&textatlas.FlagFakeBold != 0
	if bold {
		w++
	}
	if w <= 0 || h <= 0 {
		return blank, true
	}
	if w > math.MaxUint16 || h > math.MaxUint16 {
		return textatlas.GlyphImage{}, false
	}

	ox, oy := float32(x0), float32(y0)
	r.vec.Reset(w, h)
	r.vec.DrawOp = draw.Src
	for i, s := range segs {
		ax, ay := point(s.Args[0])
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			if i > 0 {
				r.vec.ClosePath()
			}
			r.vec.MoveTo(ax-ox, ay-oy)
		case sfnt.SegmentOpLineTo:
			r.vec.LineTo(ax-ox, ay-oy)
		case sfnt.SegmentOpQuadTo:
			bx, by := point(s.Args[1])
			r.vec.QuadTo(ax-ox, ay-oy, bx-ox, by-oy)
		case sfnt.SegmentOpCubeTo:
			bx, by := point(s.Args[1])
			cx, cy := point(s.Args[2])
			r.vec.CubeTo(ax-ox, ay-oy, bx-ox, by-oy, cx-ox, cy-oy)
		}
	}
	r.vec.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	r.vec.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	if bold {
		embolden(mask.Pix, w, h)
	}

	return textatlas.GlyphImage{
		Width:   uint16(w),
		Height:  uint16(h),
		Left:    int16(x0),
		Top:     int16(-y0),
		Content: textatlas.ContentTypeMask,
		Data:    mask.Pix,
	}, true
}

// colorGlyph scales an embedded PNG strike to the requested size.
func (r *Rasterizer) colorGlyph(e *fontEntry, key textatlas.CacheKey, size float32) (textatlas.GlyphImage, bool) {
	ppem := uint16(math.Round(float64(size)))
	face := font.NewFace(e.shaping)
	face.SetPpem(ppem, ppem)
	gid := font.GID(key.Glyph)

	bm, ok := face.GlyphData(gid).(font.GlyphBitmap)
	if !ok || bm.Format != font.PNG {
		return textatlas.GlyphImage{}, false
	}
	ext, ok := face.GlyphExtents(gid)
	if !ok {
		return textatlas.GlyphImage{}, false
	}
	scale := size / float32(e.shaping.Upem())
	w := roundInt(ext.Width * scale)
	h := roundInt(-ext.Height * scale)
	if w <= 0 || h <= 0 || w > math.MaxUint16 || h > math.MaxUint16 {
		return textatlas.GlyphImage{}, false
	}

	sk := strikeKey{font: key.Font, glyph: key.Glyph, ppem: ppem}
	src, ok := r.strikes.Get(sk)
	if !ok {
		var err error
		src, err = png.Decode(bytes.NewReader(bm.Data))
		if err != nil {
			textatlas.Logger().Warn("text: decode bitmap glyph", "font", key.Font, "glyph", key.Glyph, "error", err)
			return textatlas.GlyphImage{}, false
		}
		r.strikes.Put(sk, src)
	}

	return textatlas.GlyphImage{
		Width:   uint16(w),
		Height:  uint16(h),
		Left:    int16(roundInt(ext.XBearing * scale)),
		Top:     int16(roundInt(ext.YBearing * scale)),
		Content: textatlas.ContentTypeColor,
		Data:    scaleBitmap(src, w, h).Pix,
	}, true
}

// scaleBitmap resamples src to w x h straight-alpha RGBA.
func scaleBitmap(src image.Image, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// embolden widens coverage by one pixel to the right. The last column of
// each row must be empty on entry.
func embolden(pix []byte, w, h int) {
	for y := range h {
		row := pix[y*w : (y+1)*w]
		for x := w - 1; x > 0; x-- {
			row[x] = max(row[x], row[x-1])
		}
	}
}

// argCount returns how many points a segment uses.
func argCount(op sfnt.SegmentOp) int {
	switch op {
	case sfnt.SegmentOpQuadTo:
		return 2
	case sfnt.SegmentOpCubeTo:
		return 3
	default:
		return 1
	}
}

func roundInt(v float32) int {
	return int(math.Round(float64(v)))
}
