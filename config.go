package textatlas

import "github.com/gogpu/gputypes"

// Atlas size limits.
const (
	// DefaultAtlasSize is the initial edge length of each atlas plane.
	DefaultAtlasSize = 256

	// MinAtlasSize is the smallest accepted initial edge length.
	MinAtlasSize = 16

	// MaxAtlasSize is the largest accepted edge length.
	MaxAtlasSize = 16384
)

// AtlasConfig holds atlas configuration.
type AtlasConfig struct {
	// InitialSize is the starting edge length of both planes.
	// Must be a power of 2. Default: 256
	InitialSize uint32

	// MaxSize caps growth. 0 means the device's MaxTextureDimension2D.
	// The effective maximum is never above the device limit.
	MaxSize uint32

	// ColorMode selects the color plane format and vertex color conversion.
	ColorMode ColorMode

	// Label prefixes GPU resource labels.
	Label string
}

// DefaultAtlasConfig returns default configuration.
func DefaultAtlasConfig() AtlasConfig {
	return AtlasConfig{
		InitialSize: DefaultAtlasSize,
		ColorMode:   ColorModeAccurate,
		Label:       "textatlas",
	}
}

// Validate checks that the configuration is usable.
func (c *AtlasConfig) Validate() error {
	if c.InitialSize < MinAtlasSize {
		return &ConfigError{Field: "InitialSize", Reason: "must be at least 16"}
	}
	if c.InitialSize > MaxAtlasSize {
		return &ConfigError{Field: "InitialSize", Reason: "must be at most 16384"}
	}
	if c.InitialSize&(c.InitialSize-1) != 0 {
		return &ConfigError{Field: "InitialSize", Reason: "must be power of 2"}
	}
	if c.MaxSize != 0 && c.MaxSize < c.InitialSize {
		return &ConfigError{Field: "MaxSize", Reason: "must be 0 or at least InitialSize"}
	}
	if c.ColorMode != ColorModeAccurate && c.ColorMode != ColorModeWeb {
		return &ConfigError{Field: "ColorMode", Reason: "unknown color mode"}
	}
	return nil
}

// maxSizeFor returns the effective growth cap on a device.
func (c *AtlasConfig) maxSizeFor(limits gputypes.Limits) uint32 {
	limit := limits.MaxTextureDimension2D
	if limit == 0 {
		limit = gputypes.DefaultLimits().MaxTextureDimension2D
	}
	if c.MaxSize != 0 && c.MaxSize < limit {
		return c.MaxSize
	}
	return limit
}

// colorFormat returns the color plane texture format.
func (m ColorMode) colorFormat() gputypes.TextureFormat {
	if m == ColorModeWeb {
		return gputypes.TextureFormatRGBA8Unorm
	}
	return gputypes.TextureFormatRGBA8UnormSrgb
}

// convertsToLinear reports whether vertex colors are converted from sRGB.
func (m ColorMode) convertsToLinear() bool {
	return m == ColorModeAccurate
}

// DefaultInitialVertexBufferSize is the initial vertex buffer size in bytes.
const DefaultInitialVertexBufferSize = 4096

// RendererConfig holds renderer configuration.
type RendererConfig struct {
	// Multisample must match the render pass the renderer draws into.
	Multisample gputypes.MultisampleState

	// DepthStencil must match the pass depth attachment, or be nil when
	// the pass has none.
	DepthStencil *gputypes.DepthStencilState

	// InitialVertexBufferSize is the starting vertex buffer size in bytes.
	// Default: 4096
	InitialVertexBufferSize uint64
}

// DefaultRendererConfig returns a configuration for single-sampled passes
// without depth.
func DefaultRendererConfig() RendererConfig {
	return RendererConfig{
		Multisample:             gputypes.DefaultMultisampleState(),
		InitialVertexBufferSize: DefaultInitialVertexBufferSize,
	}
}
