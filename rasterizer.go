package textatlas

import "fmt"

// GlyphImage is a rasterized bitmap ready for upload.
type GlyphImage struct {
	Width   uint16
	Height  uint16
	Left    int16 // offset from the pen position to the left edge
	Top     int16 // offset from the baseline up to the top edge
	Content ContentType
	Data    []byte // Width*Height*Content.BytesPerPixel() bytes, rows packed
}

// GlyphRasterizer produces bitmaps for shaped glyph keys.
//
// Implementations must be referentially stable: the same key always yields
// the same bitmap. The atlas relies on this to re-rasterize glyphs when it
// grows. Returning false skips the glyph without caching it.
type GlyphRasterizer interface {
	RasterizeGlyph(key CacheKey) (GlyphImage, bool)
}

// GlyphRasterizerFunc adapts a function to GlyphRasterizer.
type GlyphRasterizerFunc func(key CacheKey) (GlyphImage, bool)

// RasterizeGlyph calls f.
func (f GlyphRasterizerFunc) RasterizeGlyph(key CacheKey) (GlyphImage, bool) {
	return f(key)
}

// RasterRequest asks for a custom glyph bitmap.
type RasterRequest struct {
	ID     CustomGlyphID
	Width  uint16
	Height uint16
	XBin   SubpixelBin
	YBin   SubpixelBin
	Scale  float32
}

// RasterOutput is a custom glyph bitmap.
type RasterOutput struct {
	Data    []byte
	Content ContentType
}

// CustomGlyphRasterizer produces bitmaps for custom glyphs.
//
// Output must hold exactly Width*Height*Content.BytesPerPixel() bytes and
// the content type must not change between calls for the same ID.
// Violations panic.
type CustomGlyphRasterizer interface {
	RasterizeCustomGlyph(req RasterRequest) (RasterOutput, bool)
}

// CustomGlyphRasterizerFunc adapts a function to CustomGlyphRasterizer.
type CustomGlyphRasterizerFunc func(req RasterRequest) (RasterOutput, bool)

// RasterizeCustomGlyph calls f.
func (f CustomGlyphRasterizerFunc) RasterizeCustomGlyph(req RasterRequest) (RasterOutput, bool) {
	return f(req)
}

// validate panics when out breaks the CustomGlyphRasterizer contract.
// want, if non-nil, is the content type previously stored for the glyph.
func (out RasterOutput) validate(req RasterRequest, want *ContentType) {
	if want != nil && out.Content != *want {
		panic(fmt.Sprintf("textatlas: custom glyph %d changed content type from %s to %s", req.ID, *want, out.Content))
	}
	size := int(req.Width) * int(req.Height) * out.Content.BytesPerPixel()
	if len(out.Data) != size {
		panic(fmt.Sprintf("textatlas: custom glyph %d: got %d bytes, want %d for %dx%d %s",
			req.ID, len(out.Data), size, req.Width, req.Height, out.Content))
	}
}

// glyphSource dispatches a cache key to the rasterizer for its origin.
type glyphSource struct {
	text   GlyphRasterizer
	custom CustomGlyphRasterizer
}

// image rasterizes key. scale is the text area scale, passed to custom
// rasterizers.
func (s glyphSource) image(key CacheKey, scale float32) (GlyphImage, bool) {
	switch key.Origin {
	case OriginShaped:
		if s.text == nil {
			return GlyphImage{}, false
		}
		return s.text.RasterizeGlyph(key)
	case OriginCustom:
		return s.customImage(key, scale, nil)
	default:
		return GlyphImage{}, false
	}
}

func (s glyphSource) customImage(key CacheKey, scale float32, want *ContentType) (GlyphImage, bool) {
	if s.custom == nil || key.Width == 0 || key.Height == 0 {
		return GlyphImage{}, false
	}
	req := RasterRequest{
		ID:     key.Custom,
		Width:  key.Width,
		Height: key.Height,
		XBin:   key.XBin,
		YBin:   key.YBin,
		Scale:  scale,
	}
	out, ok := s.custom.RasterizeCustomGlyph(req)
	if !ok {
		return GlyphImage{}, false
	}
	out.validate(req, want)
	return GlyphImage{
		Width:   req.Width,
		Height:  req.Height,
		Content: out.Content,
		Data:    out.Data,
	}, true
}

// reimage re-rasterizes a glyph already cached in a plane of kind want.
// It returns false when no rasterizer can reproduce the glyph, for example
// after a custom icon was unregistered. A bitmap of a different size or
// content type breaks the referential stability contract and panics.
func (s glyphSource) reimage(key CacheKey, details GlyphDetails, want ContentType) (GlyphImage, bool) {
	var (
		img GlyphImage
		ok  bool
	)
	if key.Origin == OriginCustom {
		img, ok = s.customImage(key, details.scale, &want)
	} else {
		img, ok = s.image(key, details.scale)
	}
	if !ok {
		return GlyphImage{}, false
	}
	if img.Content != want || img.Width != details.Width || img.Height != details.Height {
		panic(fmt.Sprintf("textatlas: glyph %+v re-rasterized as %dx%d %s, cached as %dx%d %s",
			key, img.Width, img.Height, img.Content, details.Width, details.Height, want))
	}
	return img, true
}

// merge fills the rasterizers missing from s with those of fallback.
func (s glyphSource) merge(fallback glyphSource) glyphSource {
	if s.text == nil {
		s.text = fallback.text
	}
	if s.custom == nil {
		s.custom = fallback.custom
	}
	return s
}
