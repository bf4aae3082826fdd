package textatlas

import (
	"math"

	"github.com/gogpu/textatlas/internal/packer"
)

// ContentType classifies a glyph bitmap and selects its atlas plane.
type ContentType uint8

const (
	// ContentTypeColor is an RGBA bitmap drawn as-is (emoji, images).
	ContentTypeColor ContentType = iota

	// ContentTypeMask is a single-channel coverage bitmap tinted with the
	// glyph color.
	ContentTypeMask
)

// BytesPerPixel returns the texel size of the content type.
func (c ContentType) BytesPerPixel() int {
	if c == ContentTypeColor {
		return 4
	}
	return 1
}

// String returns the content type name.
func (c ContentType) String() string {
	switch c {
	case ContentTypeColor:
		return "color"
	case ContentTypeMask:
		return "mask"
	default:
		return "unknown"
	}
}

// ColorMode selects how color glyphs and vertex colors are interpreted.
type ColorMode uint8

const (
	// ColorModeAccurate stores color glyphs in an sRGB texture and converts
	// vertex colors to linear space. Use with sRGB render targets.
	ColorModeAccurate ColorMode = iota

	// ColorModeWeb blends in sRGB space without conversion, matching
	// browser behavior. Use with non-sRGB render targets.
	ColorModeWeb
)

// String returns the color mode name.
func (m ColorMode) String() string {
	if m == ColorModeWeb {
		return "web"
	}
	return "accurate"
}

// Color is a packed ARGB color, 8 bits per channel, alpha in the high byte.
type Color uint32

// RGB returns an opaque color.
func RGB(r, g, b uint8) Color {
	return RGBA(r, g, b, 0xff)
}

// RGBA returns a color from its components.
func RGBA(r, g, b, a uint8) Color {
	return Color(uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// R returns the red component.
func (c Color) R() uint8 { return uint8(c >> 16) }

// G returns the green component.
func (c Color) G() uint8 { return uint8(c >> 8) }

// B returns the blue component.
func (c Color) B() uint8 { return uint8(c) }

// A returns the alpha component.
func (c Color) A() uint8 { return uint8(c >> 24) }

// Resolution is the size of the render target in physical pixels.
type Resolution struct {
	Width  uint32
	Height uint32
}

// TextBounds is the visible region of a text area in physical pixels.
// Glyphs are clipped to it.
type TextBounds struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

// DefaultTextBounds returns bounds that clip nothing beyond the screen.
func DefaultTextBounds() TextBounds {
	return TextBounds{
		Left:   math.MinInt32,
		Top:    math.MinInt32,
		Right:  math.MaxInt32,
		Bottom: math.MaxInt32,
	}
}

// CacheStatus tells whether a cached glyph has pixels in the atlas.
type CacheStatus uint8

const (
	// CacheStatusSkipRasterization marks a zero-area glyph such as a space.
	// It is cached so repeated lookups do not rasterize again, but it holds
	// no atlas space and is never drawn.
	CacheStatusSkipRasterization CacheStatus = iota

	// CacheStatusInAtlas marks a glyph uploaded at (X, Y) of its plane.
	CacheStatusInAtlas
)

// GlyphDetails describes one cached glyph.
type GlyphDetails struct {
	Width  uint16
	Height uint16

	Status  CacheStatus
	X, Y    uint16 // atlas position, valid when Status is CacheStatusInAtlas
	Content ContentType

	// Bearings relative to the glyph origin, y pointing up.
	Left int16
	Top  int16

	alloc packer.AllocID // zero when the glyph holds no atlas space
	scale float32        // text area scale at insertion, reused on growth
}

// InAtlas reports whether the glyph has pixels in the atlas.
func (d GlyphDetails) InAtlas() bool {
	return d.Status == CacheStatusInAtlas
}

// Params is the per-frame uniform block.
type Params struct {
	ScreenResolution Resolution
	_                [2]uint32
}
