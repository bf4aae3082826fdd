package textatlas

import (
	"errors"
	"fmt"
)

// Sentinel errors for the textatlas package.
var (
	// ErrAtlasFull is matched by every *AtlasFullError.
	ErrAtlasFull = errors.New("textatlas: glyph atlas is full")

	// ErrRemovedFromAtlas is returned by Render when a glyph referenced by
	// the prepared batch has been evicted since Prepare.
	ErrRemovedFromAtlas = errors.New("textatlas: prepared glyph was removed from the atlas")

	// ErrScreenResolutionChanged is returned by Render when the viewport
	// resolution differs from the one used by Prepare.
	ErrScreenResolutionChanged = errors.New("textatlas: screen resolution changed since prepare")

	// ErrConcurrentPrepare is returned when Prepare is entered for an atlas
	// that another Prepare call is still using.
	ErrConcurrentPrepare = errors.New("textatlas: concurrent prepare on the same atlas")

	// ErrNilDevice is returned by constructors given a nil device.
	ErrNilDevice = errors.New("textatlas: device is nil")

	// ErrNilCache is returned by NewAtlas given a nil pipeline cache.
	ErrNilCache = errors.New("textatlas: pipeline cache is nil")
)

// AtlasFullError reports that neither eviction nor growth could make room
// for a glyph in one plane of the atlas.
type AtlasFullError struct {
	Content ContentType
	Size    uint32 // plane size at the time of failure
}

func (e *AtlasFullError) Error() string {
	return fmt.Sprintf("textatlas: %s atlas is full at %dx%d", e.Content, e.Size, e.Size)
}

// Is reports whether target is ErrAtlasFull.
func (e *AtlasFullError) Is(target error) bool {
	return target == ErrAtlasFull
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "textatlas: invalid config." + e.Field + ": " + e.Reason
}
