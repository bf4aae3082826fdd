// Package svg rasterizes SVG icons as custom glyphs for textatlas.
//
// Register each icon under a textatlas.CustomGlyphID with the content type
// it should be stored as, then pass the GlyphSystem as the custom glyph
// rasterizer when preparing text:
//
//	icons := svg.NewGlyphSystem()
//	if err := icons.Add(1, logoSVG, textatlas.ContentTypeColor); err != nil {
//		return err
//	}
//	err := renderer.PrepareWith(atlas, vp, areas, textatlas.PrepareOptions{
//		Rasterizer:       fonts,
//		CustomRasterizer: icons,
//	})
//
// Color icons keep their own paint. Mask icons keep only coverage and are
// tinted with the glyph color, which suits symbolic icons.
package svg
