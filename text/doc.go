// Package text shapes and rasterizes font glyphs for textatlas.
//
// # Overview
//
// A FontSystem owns the loaded fonts and hands out textatlas.FontID values.
// A Buffer lays text out into lines with go-text/typesetting's HarfBuzz
// shaper and implements textatlas.GlyphRun. A Rasterizer turns the cache
// keys the atlas asks for into bitmaps: outline glyphs become coverage
// masks, embedded PNG strikes (color emoji) become RGBA images.
//
// # Usage
//
//	fs := text.NewFontSystem()
//	id, _ := fs.Load(goregular.TTF)
//
//	buf := text.NewBuffer(fs, text.Metrics{FontSize: 16, LineHeight: 20})
//	buf.SetText("Hello, world", text.Attrs{Font: id})
//
//	areas := []textatlas.TextArea{{Buffer: buf, Scale: 1, Bounds: textatlas.DefaultTextBounds()}}
//	renderer.Prepare(atlas, viewport, areas, text.NewRasterizer(fs))
//
// # Thread Safety
//
// FontSystem, Shaper and Rasterizer are safe for concurrent use.
// Buffer is not.
package text
