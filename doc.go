// Package textatlas renders shaped text on the GPU from a shared glyph atlas.
//
// # Overview
//
// textatlas caches rasterized glyphs in two GPU textures, a color plane for
// RGBA bitmaps (emoji, icons) and a mask plane for single-channel coverage,
// and draws each frame's text as one instanced draw call. Glyphs not used
// recently are evicted when space runs out, and a plane doubles in size
// when eviction cannot make room.
//
// # Quick Start
//
//	cache, _ := textatlas.NewCache(dev)
//	atlas, _ := textatlas.NewAtlas(dev, cache, surfaceFormat, textatlas.DefaultAtlasConfig())
//	vp, _ := textatlas.NewViewport(dev, cache)
//	r, _ := textatlas.NewRenderer(dev, atlas, textatlas.DefaultRendererConfig())
//
//	// Every frame:
//	vp.Update(textatlas.Resolution{Width: w, Height: h})
//	r.Prepare(atlas, vp, areas, rasterizer)
//	r.Render(atlas, vp, pass)
//	atlas.Trim()
//
// # Frame Protocol
//
// Prepare marks every glyph it references as in use. In-use glyphs are never
// evicted until Trim, so several renderers can share one atlas as long as
// they all render before the owner calls Trim. Render refuses to draw when
// a referenced glyph was evicted or the viewport resolution changed since
// Prepare.
//
// # Coordinate System
//
// Text areas are placed in physical pixels with the origin at the top-left
// and y increasing down. Glyph runs are laid out in logical pixels and
// multiplied by TextArea.Scale.
//
// # Backends
//
// Rendering goes through the gpucore.Device interface:
//   - backend/wgpu: gogpu/wgpu devices
//   - backend/memory: CPU device for tests and headless use
//
// Glyph bitmaps come from a GlyphRasterizer such as text.Rasterizer, and
// custom glyphs from a CustomGlyphRasterizer such as svg.GlyphSystem.
package textatlas

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
