package svg

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/textatlas"
)

// ErrEmptySource is returned when adding an icon with no data.
var ErrEmptySource = errors.New("svg: empty icon source")

// icon is a parsed SVG and the plane it is stored in.
type icon struct {
	svg     *oksvg.SvgIcon
	content textatlas.ContentType
}

// GlyphSystem holds SVG icons keyed by custom glyph id and implements
// textatlas.CustomGlyphRasterizer.
//
// GlyphSystem is safe for concurrent use.
type GlyphSystem struct {
	mu    sync.Mutex
	icons map[textatlas.CustomGlyphID]*icon
}

// Compile-time interface check.
var _ textatlas.CustomGlyphRasterizer = (*GlyphSystem)(nil)

// NewGlyphSystem creates an empty glyph system.
func NewGlyphSystem() *GlyphSystem {
	return &GlyphSystem{icons: make(map[textatlas.CustomGlyphID]*icon)}
}

// Add parses an SVG document and registers it under id, replacing any
// previous icon. Glyphs of a replaced icon already in an atlas keep their
// old pixels until evicted; callers changing an icon's content type must
// also use a new id.
func (s *GlyphSystem) Add(id textatlas.CustomGlyphID, data []byte, content textatlas.ContentType) error {
	if len(data) == 0 {
		return ErrEmptySource
	}
	if content != textatlas.ContentTypeColor && content != textatlas.ContentTypeMask {
		return fmt.Errorf("svg: icon %d: unsupported content type %v", id, content)
	}
	parsed, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.WarnErrorMode)
	if err != nil {
		return fmt.Errorf("svg: parse icon %d: %w", id, err)
	}
	if parsed.ViewBox.W <= 0 || parsed.ViewBox.H <= 0 {
		return fmt.Errorf("svg: icon %d has an empty view box", id)
	}

	s.mu.Lock()
	s.icons[id] = &icon{svg: parsed, content: content}
	s.mu.Unlock()
	textatlas.Logger().Debug("svg: icon added", "id", id, "content", content,
		"viewbox_w", parsed.ViewBox.W, "viewbox_h", parsed.ViewBox.H)
	return nil
}

// Remove unregisters an icon.
func (s *GlyphSystem) Remove(id textatlas.CustomGlyphID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.icons[id]; !ok {
		return false
	}
	delete(s.icons, id)
	return true
}

// Len returns the number of registered icons.
func (s *GlyphSystem) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.icons)
}

// RasterizeCustomGlyph implements textatlas.CustomGlyphRasterizer. The icon's
// view box is stretched over the requested size and shifted by the
// request's subpixel offset.
func (s *GlyphSystem) RasterizeCustomGlyph(req textatlas.RasterRequest) (textatlas.RasterOutput, bool) {
	if req.Width == 0 || req.Height == 0 {
		return textatlas.RasterOutput{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ic, ok := s.icons[req.ID]
	if !ok {
		return textatlas.RasterOutput{}, false
	}

	w, h := int(req.Width), int(req.Height)
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	ic.svg.SetTarget(float64(req.XBin.Float()), float64(req.YBin.Float()), float64(w), float64(h))
	ic.svg.Draw(dasher, 1)

	if ic.content == textatlas.ContentTypeMask {
		return textatlas.RasterOutput{Data: alpha(rgba), Content: textatlas.ContentTypeMask}, true
	}
	// Atlas color glyphs are straight alpha.
	nrgba := image.NewNRGBA(rgba.Bounds())
	xdraw.Draw(nrgba, nrgba.Bounds(), rgba, image.Point{}, xdraw.Src)
	return textatlas.RasterOutput{Data: nrgba.Pix, Content: textatlas.ContentTypeColor}, true
}

// alpha extracts the coverage channel of img.
func alpha(img *image.RGBA) []byte {
	out := make([]byte, len(img.Pix)/4)
	for i := range out {
		out[i] = img.Pix[i*4+3]
	}
	return out
}
