package text

import (
	"errors"
	"fmt"

	"github.com/gogpu/textatlas"
)

// Sentinel errors for the text package.
var (
	// ErrEmptyFontData is returned when loading zero bytes.
	ErrEmptyFontData = errors.New("text: empty font data")

	// ErrInvalidSize is returned for non-positive font sizes.
	ErrInvalidSize = errors.New("text: font size must be positive")
)

// UnknownFontError reports a FontID that was never loaded or was removed.
type UnknownFontError struct {
	ID textatlas.FontID
}

func (e *UnknownFontError) Error() string {
	return fmt.Sprintf("text: unknown font %d", e.ID)
}

// FontParseError wraps a failure to parse font data.
type FontParseError struct {
	Stage string // "shaping" or "outline"
	Err   error
}

func (e *FontParseError) Error() string {
	return "text: parse font for " + e.Stage + ": " + e.Err.Error()
}

func (e *FontParseError) Unwrap() error {
	return e.Err
}
