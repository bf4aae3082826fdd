package textatlas

import "math"

// SubpixelBin quantizes the fractional part of a glyph origin into quarter
// pixel buckets. Glyphs in the same bin share a cached bitmap.
type SubpixelBin uint8

// Subpixel bins, in quarter pixel steps.
const (
	SubpixelZero SubpixelBin = iota
	SubpixelOne
	SubpixelTwo
	SubpixelThree
)

// NewSubpixelBin splits pos into a whole pixel and the nearest quarter bin.
// Fractions of 0.875 or more round up to the next pixel with bin zero.
// Negative positions are binned symmetrically toward negative infinity.
func NewSubpixelBin(pos float32) (int32, SubpixelBin) {
	trunc := int32(pos)
	fract := pos - float32(trunc)

	if pos < 0 {
		switch {
		case fract > -0.125:
			return trunc, SubpixelZero
		case fract > -0.375:
			return trunc - 1, SubpixelThree
		case fract > -0.625:
			return trunc - 1, SubpixelTwo
		case fract > -0.875:
			return trunc - 1, SubpixelOne
		default:
			return trunc - 1, SubpixelZero
		}
	}

	switch {
	case fract < 0.125:
		return trunc, SubpixelZero
	case fract < 0.375:
		return trunc, SubpixelOne
	case fract < 0.625:
		return trunc, SubpixelTwo
	case fract < 0.875:
		return trunc, SubpixelThree
	default:
		return trunc + 1, SubpixelZero
	}
}

// Float returns the offset the bin stands for: 0, 0.25, 0.5 or 0.75.
func (b SubpixelBin) Float() float32 {
	switch b {
	case SubpixelOne:
		return 0.25
	case SubpixelTwo:
		return 0.5
	case SubpixelThree:
		return 0.75
	default:
		return 0
	}
}

// GlyphOrigin tells which rasterizer produces a cached bitmap.
type GlyphOrigin uint8

const (
	// OriginShaped is a font glyph produced by the shaping engine.
	OriginShaped GlyphOrigin = iota

	// OriginCustom is an application-supplied glyph such as an icon.
	OriginCustom
)

// FontID identifies a font face within a font system.
type FontID uint32

// CustomGlyphID identifies an application-supplied glyph source.
type CustomGlyphID uint16

// CacheFlags are rendering variants that change a glyph's bitmap.
type CacheFlags uint32

// Cache flags.
const (
	// FlagFakeItalic requests a synthesized oblique.
	FlagFakeItalic CacheFlags = 1 << iota
	// FlagFakeBold requests a synthesized emboldening.
	FlagFakeBold
)

// CacheKey uniquely identifies one rasterized bitmap. Two glyphs with equal
// keys must render identically. CacheKey is comparable and used directly as
// a map key.
type CacheKey struct {
	Origin GlyphOrigin
	XBin   SubpixelBin
	YBin   SubpixelBin

	// Shaped glyphs.
	Font     FontID
	Glyph    uint16
	SizeBits uint32 // math.Float32bits of the font size in physical pixels
	Flags    CacheFlags

	// Custom glyphs.
	Custom CustomGlyphID
	Width  uint16
	Height uint16
}

// NewCacheKey builds the key of a shaped glyph placed at (x, y) in physical
// pixels and returns the whole-pixel part of the position.
func NewCacheKey(font FontID, glyph uint16, size float32, x, y float32, flags CacheFlags) (CacheKey, int32, int32) {
	px, xBin := NewSubpixelBin(x)
	py, yBin := NewSubpixelBin(y)
	return CacheKey{
		Origin:   OriginShaped,
		XBin:     xBin,
		YBin:     yBin,
		Font:     font,
		Glyph:    glyph,
		SizeBits: math.Float32bits(size),
		Flags:    flags,
	}, px, py
}

// NewCustomCacheKey builds the key of a custom glyph rasterized at
// width x height physical pixels.
func NewCustomCacheKey(id CustomGlyphID, width, height uint16, xBin, yBin SubpixelBin) CacheKey {
	return CacheKey{
		Origin: OriginCustom,
		XBin:   xBin,
		YBin:   yBin,
		Custom: id,
		Width:  width,
		Height: height,
	}
}

// FontSize returns the font size encoded in a shaped key.
func (k CacheKey) FontSize() float32 {
	return math.Float32frombits(k.SizeBits)
}
