package text

import (
	"iter"
	"slices"
	"strings"

	"github.com/gogpu/textatlas"
)

// Metrics sets the size of a Buffer's text in logical pixels.
type Metrics struct {
	FontSize float32

	// LineHeight is the distance between baselines.
	// 0 means the font's natural line height.
	LineHeight float32
}

// Attrs are the attributes applied to every glyph of a Buffer.
type Attrs struct {
	Font     textatlas.FontID
	Color    textatlas.Color
	HasColor bool
	Flags    textatlas.CacheFlags
	Metadata uint
}

// Buffer is a block of text laid out into lines. It implements
// textatlas.GlyphRun.
//
// Lines break at newlines and, when a width is set, greedily between
// words. A word wider than the buffer gets a line of its own.
type Buffer struct {
	fs     *FontSystem
	shaper *Shaper

	metrics Metrics
	width   float32
	dir     Direction

	text  string
	attrs Attrs

	runs       []textatlas.LayoutRun
	lineHeight float32
	maxWidth   float32
}

// Compile-time interface check.
var _ textatlas.GlyphRun = (*Buffer)(nil)

// NewBuffer creates an empty buffer.
func NewBuffer(fs *FontSystem, m Metrics) *Buffer {
	return &Buffer{
		fs:      fs,
		shaper:  NewShaper(fs),
		metrics: m,
	}
}

// SetText replaces the text and lays it out.
func (b *Buffer) SetText(text string, attrs Attrs) error {
	b.text = text
	b.attrs = attrs
	return b.layout()
}

// SetMetrics changes the font size and line height.
func (b *Buffer) SetMetrics(m Metrics) error {
	b.metrics = m
	return b.layout()
}

// SetWidth sets the wrap width. 0 disables wrapping.
func (b *Buffer) SetWidth(width float32) error {
	b.width = max(width, 0)
	return b.layout()
}

// SetDirection sets the base paragraph direction. Right-to-left lines are
// aligned to the right edge when a width is set.
func (b *Buffer) SetDirection(d Direction) error {
	b.dir = d
	return b.layout()
}

// Text returns the buffer text.
func (b *Buffer) Text() string {
	return b.text
}

// Runs yields the laid out lines.
func (b *Buffer) Runs() iter.Seq[textatlas.LayoutRun] {
	return slices.Values(b.runs)
}

// LineCount returns the number of laid out lines.
func (b *Buffer) LineCount() int {
	return len(b.runs)
}

// Size returns the extent of the laid out text.
func (b *Buffer) Size() (width, height float32) {
	return b.maxWidth, float32(len(b.runs)) * b.lineHeight
}

func (b *Buffer) layout() error {
	b.runs = b.runs[:0]
	b.maxWidth = 0
	if b.text == "" {
		return nil
	}
	size := b.metrics.FontSize
	fm, err := b.fs.Metrics(b.attrs.Font, size)
	if err != nil {
		return err
	}
	b.lineHeight = b.metrics.LineHeight
	if b.lineHeight <= 0 {
		b.lineHeight = fm.Height()
	}
	// Center the font's ascent+descent box within the line.
	baseline := (b.lineHeight-(fm.Ascent+fm.Descent))/2 + fm.Ascent

	for para := range strings.SplitSeq(b.text, "\n") {
		lines, err := b.wrap(strings.TrimSuffix(para, "\r"))
		if err != nil {
			return err
		}
		for _, line := range lines {
			glyphs, err := b.shaper.Shape(b.attrs.Font, size, line, b.dir)
			if err != nil {
				return err
			}
			b.appendRun(glyphs, baseline)
		}
	}
	return nil
}

// appendRun adds one line of shaped glyphs below the previous lines.
func (b *Buffer) appendRun(glyphs []ShapedGlyph, baseline float32) {
	top := float32(len(b.runs)) * b.lineHeight
	var lineWidth float32
	if n := len(glyphs); n > 0 {
		lineWidth = glyphs[n-1].X + glyphs[n-1].Advance
	}
	var align float32
	if b.dir == DirectionRTL && b.width > 0 {
		align = max(b.width-lineWidth, 0)
	}
	b.maxWidth = max(b.maxWidth, lineWidth)

	run := textatlas.LayoutRun{
		LineY:      top + baseline,
		LineTop:    top,
		LineHeight: b.lineHeight,
		Glyphs:     make([]textatlas.LayoutGlyph, len(glyphs)),
	}
	for i, g := range glyphs {
		run.Glyphs[i] = textatlas.LayoutGlyph{
			Font:     b.attrs.Font,
			Glyph:    g.ID,
			FontSize: b.metrics.FontSize,
			Flags:    b.attrs.Flags,
			X:        align + g.X,
			XOffset:  g.XOffset,
			YOffset:  g.YOffset,
			Color:    b.attrs.Color,
			HasColor: b.attrs.HasColor,
			Metadata: b.attrs.Metadata,
		}
	}
	b.runs = append(b.runs, run)
}

// wrap splits a paragraph into lines no wider than the buffer width.
func (b *Buffer) wrap(para string) ([]string, error) {
	if b.width <= 0 || para == "" {
		return []string{para}, nil
	}
	space, err := b.shaper.Advance(b.attrs.Font, b.metrics.FontSize, " ")
	if err != nil {
		return nil, err
	}

	var (
		lines []string
		line  strings.Builder
		x     float32
	)
	for word := range strings.SplitAfterSeq(para, " ") {
		trimmed := strings.TrimRight(word, " ")
		adv, err := b.shaper.Advance(b.attrs.Font, b.metrics.FontSize, trimmed)
		if err != nil {
			return nil, err
		}
		if line.Len() > 0 && x+adv > b.width {
			lines = append(lines, strings.TrimRight(line.String(), " "))
			line.Reset()
			x = 0
		}
		line.WriteString(word)
		x += adv + space*float32(len(word)-len(trimmed))
	}
	return append(lines, strings.TrimRight(line.String(), " ")), nil
}
