package textatlas

import (
	"iter"
	"slices"
)

// LayoutGlyph is one positioned glyph produced by the shaping engine.
// Positions are in logical pixels relative to the start of the line, with
// y pointing down.
type LayoutGlyph struct {
	Font     FontID
	Glyph    uint16
	FontSize float32
	Flags    CacheFlags

	X, Y             float32
	XOffset, YOffset float32 // shaper offsets, y pointing up

	Color    Color
	HasColor bool // use Color instead of the text area default

	// Metadata is an opaque tag handed to PrepareOptions.MetadataToDepth.
	Metadata uint
}

// LayoutRun is one visual line of glyphs.
type LayoutRun struct {
	LineY      float32 // baseline, logical pixels from the area top
	LineTop    float32 // top of the line box
	LineHeight float32
	Glyphs     []LayoutGlyph
}

// GlyphRun is a source of laid out lines. Implementations must yield the
// same glyphs with the same keys for unchanged text.
type GlyphRun interface {
	Runs() iter.Seq[LayoutRun]
}

// LayoutRuns is a GlyphRun backed by a slice.
type LayoutRuns []LayoutRun

// Runs yields the runs in order.
func (r LayoutRuns) Runs() iter.Seq[LayoutRun] {
	return slices.Values(r)
}

// CustomGlyph is an application-supplied glyph such as an icon, placed in
// logical pixels relative to the text area origin.
type CustomGlyph struct {
	ID     CustomGlyphID
	Left   float32
	Top    float32
	Width  float32
	Height float32

	Color    Color
	HasColor bool

	// SnapToPhysicalPixel rounds the position to whole pixels and
	// rasterizes with zero subpixel offset.
	SnapToPhysicalPixel bool

	Metadata uint
}

// TextArea is one block of text to prepare: a glyph source, its placement,
// and the region it may draw into.
type TextArea struct {
	Buffer GlyphRun

	// Left and Top place the area origin in physical pixels.
	Left float32
	Top  float32

	// Scale converts logical to physical pixels.
	Scale float32

	Bounds       TextBounds
	DefaultColor Color
	CustomGlyphs []CustomGlyph
}
