package textatlas

// GlyphRect is a glyph quad on screen together with its atlas source
// position. Width and Height apply to both.
type GlyphRect struct {
	X, Y           int32
	Width, Height  int32
	AtlasX, AtlasY uint16
}

// ClipBounds is a half-open clip rectangle in physical pixels.
type ClipBounds struct {
	MinX, MinY int32
	MaxX, MaxY int32
}

// clipBoundsFor intersects text area bounds with the screen.
func clipBoundsFor(b TextBounds, res Resolution) ClipBounds {
	return ClipBounds{
		MinX: max(b.Left, 0),
		MinY: max(b.Top, 0),
		MaxX: min(b.Right, int32(min(res.Width, 1<<31-1))),
		MaxY: min(b.Bottom, int32(min(res.Height, 1<<31-1))),
	}
}

// ClipGlyph returns the visible part of g inside b. Clipping the left or
// top edge advances the atlas source by the same amount so the visible
// texels stay in place; clipping the right or bottom edge only shrinks the
// quad. Returns false when nothing is visible.
func ClipGlyph(g GlyphRect, b ClipBounds) (GlyphRect, bool) {
	maxX := g.X + g.Width
	maxY := g.Y + g.Height
	if g.X >= b.MaxX || maxX <= b.MinX || g.Y >= b.MaxY || maxY <= b.MinY {
		return GlyphRect{}, false
	}

	if g.X < b.MinX {
		shift := b.MinX - g.X
		g.X = b.MinX
		g.Width = maxX - b.MinX
		g.AtlasX += uint16(shift)
	}
	if g.X+g.Width > b.MaxX {
		g.Width = b.MaxX - g.X
	}

	if g.Y < b.MinY {
		shift := b.MinY - g.Y
		g.Y = b.MinY
		g.Height = maxY - b.MinY
		g.AtlasY += uint16(shift)
	}
	if g.Y+g.Height > b.MaxY {
		g.Height = b.MaxY - g.Y
	}

	if g.Width <= 0 || g.Height <= 0 {
		return GlyphRect{}, false
	}
	return g, true
}
