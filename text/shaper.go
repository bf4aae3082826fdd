package text

import (
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/text/unicode/bidi"

	"github.com/gogpu/textatlas"
)

// Direction is the base direction of a paragraph.
type Direction uint8

const (
	// DirectionAuto takes the direction of the first strong character.
	DirectionAuto Direction = iota
	// DirectionLTR is left-to-right.
	DirectionLTR
	// DirectionRTL is right-to-left.
	DirectionRTL
)

// ShapedGlyph is one glyph of a shaped line, in visual order.
// Positions are in pixels at the shaping size.
type ShapedGlyph struct {
	ID      uint16
	Cluster int // rune index in the shaped text
	X       float32
	XOffset float32
	YOffset float32 // y pointing up
	Advance float32
	RTL     bool
}

// Shaper turns text into positioned glyphs with go-text's HarfBuzz port.
// Mixed-direction text is split into bidi runs and shaped run by run.
//
// Shaper is safe for concurrent use.
type Shaper struct {
	fs *FontSystem

	// HarfbuzzShaper keeps per-call buffers and is not safe for concurrent
	// use, so instances are pooled.
	pool sync.Pool
}

// NewShaper creates a shaper over the fonts of fs.
func NewShaper(fs *FontSystem) *Shaper {
	return &Shaper{
		fs: fs,
		pool: sync.Pool{
			New: func() any { return &shaping.HarfbuzzShaper{} },
		},
	}
}

// Shape shapes one line of text. Glyphs come back in visual order with X
// measured from the start of the line.
func (s *Shaper) Shape(id textatlas.FontID, size float32, text string, dir Direction) ([]ShapedGlyph, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	e, err := s.fs.lookup(id)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}

	runes := []rune(text)
	face := font.NewFace(e.shaping)
	hb := s.pool.Get().(*shaping.HarfbuzzShaper)
	defer s.pool.Put(hb)

	var (
		out []ShapedGlyph
		pen float32
	)
	for _, r := range bidiRuns(text, len(runes), dir) {
		output := hb.Shape(shaping.Input{
			Text:      runes,
			RunStart:  r.start,
			RunEnd:    r.end,
			Direction: r.dir,
			Face:      face,
			Size:      toFixed(size),
			Script:    detectScript(runes[r.start:r.end]),
			Language:  language.DefaultLanguage(),
		})
		for _, g := range output.Glyphs {
			adv := fromFixed(g.Advance)
			out = append(out, ShapedGlyph{
				ID:      uint16(g.GlyphID), //nolint:gosec // glyph ids fit in 16 bits
				Cluster: g.ClusterIndex,
				X:       pen,
				XOffset: fromFixed(g.XOffset),
				YOffset: fromFixed(g.YOffset),
				Advance: adv,
				RTL:     r.dir == di.DirectionRTL,
			})
			pen += adv
		}
	}
	return out, nil
}

// Advance returns the width of text shaped as a single line.
func (s *Shaper) Advance(id textatlas.FontID, size float32, text string) (float32, error) {
	glyphs, err := s.Shape(id, size, text, DirectionAuto)
	if err != nil || len(glyphs) == 0 {
		return 0, err
	}
	last := glyphs[len(glyphs)-1]
	return last.X + last.Advance, nil
}

// bidiRun is a rune range with one direction.
type bidiRun struct {
	start, end int
	dir        di.Direction
}

// bidiRuns splits text into directional runs in visual order. Text without
// right-to-left characters is returned as one run.
func bidiRuns(text string, n int, base Direction) []bidiRun {
	whole := []bidiRun{{start: 0, end: n, dir: di.DirectionLTR}}
	if base == DirectionRTL {
		whole[0].dir = di.DirectionRTL
	}

	var opts []bidi.Option
	switch base {
	case DirectionLTR:
		opts = append(opts, bidi.DefaultDirection(bidi.LeftToRight))
	case DirectionRTL:
		opts = append(opts, bidi.DefaultDirection(bidi.RightToLeft))
	}
	var p bidi.Paragraph
	if _, err := p.SetString(text, opts...); err != nil {
		return whole
	}
	ordering, err := p.Order()
	if err != nil || ordering.NumRuns() == 0 {
		return whole
	}

	runs := make([]bidiRun, 0, ordering.NumRuns())
	for i := range ordering.NumRuns() {
		run := ordering.Run(i)
		start, end := run.Pos() // rune indices, end inclusive
		r := bidiRun{start: start, end: min(end+1, n), dir: di.DirectionLTR}
		if run.Direction() == bidi.RightToLeft {
			r.dir = di.DirectionRTL
		}
		if r.start < r.end {
			runs = append(runs, r)
		}
	}
	if len(runs) == 0 {
		return whole
	}
	return runs
}

// detectScript returns the script of the first character that has one.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if s := language.LookupScript(r); s.Strong() {
			return s
		}
	}
	return language.Latin
}
