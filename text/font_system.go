package text

import (
	"bytes"
	"sync"

	"github.com/go-text/typesetting/font"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/textatlas"
)

// fontEntry is one loaded font. Both parsed forms are read-only and safe
// for concurrent use; per-call state lives in font.Face and sfnt.Buffer.
type fontEntry struct {
	id      textatlas.FontID
	family  string
	data    []byte
	shaping *font.Font
	outline *sfnt.Font
}

// FontMetrics are the vertical metrics of a font at one size, in pixels.
type FontMetrics struct {
	Ascent  float32 // baseline to top, positive
	Descent float32 // baseline to bottom, positive
	LineGap float32
}

// Height returns the natural line height.
func (m FontMetrics) Height() float32 {
	return m.Ascent + m.Descent + m.LineGap
}

// FontSystem holds the fonts glyph keys refer to.
//
// IDs are never reused, so a key cached in an atlas can never resolve to
// a different font after Remove.
type FontSystem struct {
	mu    sync.RWMutex
	fonts map[textatlas.FontID]*fontEntry
	next  textatlas.FontID

	buffers sync.Pool // *sfnt.Buffer
}

// NewFontSystem creates an empty font system.
func NewFontSystem() *FontSystem {
	return &FontSystem{
		fonts: make(map[textatlas.FontID]*fontEntry),
		buffers: sync.Pool{
			New: func() any { return new(sfnt.Buffer) },
		},
	}
}

// Load parses TrueType or OpenType data and registers it.
// The data must not be modified afterwards.
func (fs *FontSystem) Load(data []byte) (textatlas.FontID, error) {
	if len(data) == 0 {
		return 0, ErrEmptyFontData
	}
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return 0, &FontParseError{Stage: "shaping", Err: err}
	}
	outline, err := sfnt.Parse(data)
	if err != nil {
		return 0, &FontParseError{Stage: "outline", Err: err}
	}

	b := fs.buffer()
	family, _ := outline.Name(b, sfnt.NameIDFamily)
	fs.buffers.Put(b)

	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.next++
	e := &fontEntry{
		id:      fs.next,
		family:  family,
		data:    data,
		shaping: face.Font,
		outline: outline,
	}
	fs.fonts[e.id] = e
	textatlas.Logger().Debug("text: font loaded", "id", e.id, "family", family, "glyphs", outline.NumGlyphs())
	return e.id, nil
}

// Remove unregisters a font. Glyphs of the font already in an atlas stay
// there until evicted, but can no longer be rasterized.
func (fs *FontSystem) Remove(id textatlas.FontID) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, ok := fs.fonts[id]; !ok {
		return false
	}
	delete(fs.fonts, id)
	return true
}

// Len returns the number of loaded fonts.
func (fs *FontSystem) Len() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.fonts)
}

// Family returns the family name recorded in the font.
func (fs *FontSystem) Family(id textatlas.FontID) (string, error) {
	e, err := fs.lookup(id)
	if err != nil {
		return "", err
	}
	return e.family, nil
}

// Metrics returns the vertical metrics of a font at size pixels per em.
func (fs *FontSystem) Metrics(id textatlas.FontID, size float32) (FontMetrics, error) {
	if size <= 0 {
		return FontMetrics{}, ErrInvalidSize
	}
	e, err := fs.lookup(id)
	if err != nil {
		return FontMetrics{}, err
	}
	b := fs.buffer()
	defer fs.buffers.Put(b)
	m, err := e.outline.Metrics(b, toFixed(size), xfont.HintingNone)
	if err != nil {
		return FontMetrics{}, err
	}
	return FontMetrics{
		Ascent:  fromFixed(m.Ascent),
		Descent: fromFixed(m.Descent),
		LineGap: fromFixed(m.Height - m.Ascent - m.Descent),
	}, nil
}

// GlyphIndex returns the glyph a rune maps to, or 0 if the font lacks it.
func (fs *FontSystem) GlyphIndex(id textatlas.FontID, r rune) (uint16, error) {
	e, err := fs.lookup(id)
	if err != nil {
		return 0, err
	}
	gid, _ := e.shaping.NominalGlyph(r)
	return uint16(gid), nil //nolint:gosec // glyph ids fit in 16 bits
}

func (fs *FontSystem) lookup(id textatlas.FontID) (*fontEntry, error) {
	fs.mu.RLock()
	e, ok := fs.fonts[id]
	fs.mu.RUnlock()
	if !ok {
		return nil, &UnknownFontError{ID: id}
	}
	return e, nil
}

func (fs *FontSystem) buffer() *sfnt.Buffer {
	return fs.buffers.Get().(*sfnt.Buffer)
}

// toFixed converts pixels to 26.6 fixed point.
func toFixed(v float32) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

// fromFixed converts 26.6 fixed point to pixels.
func fromFixed(v fixed.Int26_6) float32 {
	return float32(v) / 64
}
