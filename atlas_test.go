package textatlas

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/textatlas/backend/memory"
)

func TestNewAtlas(t *testing.T) {
	dev := memory.New(memory.Options{})
	cache, err := NewCache(dev)
	if err != nil {
		t.Fatalf("NewCache() = %v", err)
	}
	atlas, err := NewAtlas(dev, cache, gputypes.TextureFormatBGRA8Unorm, DefaultAtlasConfig())
	if err != nil {
		t.Fatalf("NewAtlas() = %v", err)
	}

	for _, tt := range []struct {
		content ContentType
		format  gputypes.TextureFormat
	}{
		{ContentTypeColor, gputypes.TextureFormatRGBA8UnormSrgb},
		{ContentTypeMask, gputypes.TextureFormatR8Unorm},
	} {
		desc, ok := dev.TextureDescriptor(atlas.Texture(tt.content))
		if !ok {
			t.Fatalf("%s texture not live", tt.content)
		}
		if desc.Format != tt.format {
			t.Errorf("%s format = %v, want %v", tt.content, desc.Format, tt.format)
		}
		if desc.Size.Width != DefaultAtlasSize || desc.Size.Height != DefaultAtlasSize {
			t.Errorf("%s size = %dx%d", tt.content, desc.Size.Width, desc.Size.Height)
		}
		if desc.Usage&gputypes.TextureUsageCopyDst == 0 || desc.Usage&gputypes.TextureUsageTextureBinding == 0 {
			t.Errorf("%s usage = %v", tt.content, desc.Usage)
		}
	}
	if atlas.Format() != gputypes.TextureFormatBGRA8Unorm || atlas.ColorMode() != ColorModeAccurate {
		t.Errorf("format=%v mode=%v", atlas.Format(), atlas.ColorMode())
	}
}

func TestNewAtlas_Errors(t *testing.T) {
	dev := memory.New(memory.Options{})
	cache, _ := NewCache(dev)
	format := gputypes.TextureFormatBGRA8Unorm

	if _, err := NewAtlas(nil, cache, format, DefaultAtlasConfig()); !errors.Is(err, ErrNilDevice) {
		t.Errorf("nil device: %v", err)
	}
	if _, err := NewAtlas(dev, nil, format, DefaultAtlasConfig()); !errors.Is(err, ErrNilCache) {
		t.Errorf("nil cache: %v", err)
	}
	var cfgErr *ConfigError
	if _, err := NewAtlas(dev, cache, format, AtlasConfig{InitialSize: 100}); !errors.As(err, &cfgErr) {
		t.Errorf("bad config: %v", err)
	}
}

func TestNewAtlas_ClampsToDeviceLimit(t *testing.T) {
	limits := gputypes.DefaultLimits()
	limits.MaxTextureDimension2D = 64
	dev := memory.New(memory.Options{Limits: limits})
	cache, _ := NewCache(dev)

	atlas, err := NewAtlas(dev, cache, gputypes.TextureFormatBGRA8Unorm, AtlasConfig{InitialSize: 256})
	if err != nil {
		t.Fatalf("NewAtlas() = %v", err)
	}
	if got := atlas.Size(ContentTypeMask); got != 64 {
		t.Errorf("mask size = %d, want device limit 64", got)
	}
}

func TestAtlas_TrimIdempotent(t *testing.T) {
	env := newTestEnv(t, AtlasConfig{InitialSize: 16, MaxSize: 16})
	rast := newFakeRasterizer(ContentTypeMask, 12, 12)

	if err := env.prepare([]TextArea{env.area(glyphRun(1))}, rast); err != nil {
		t.Fatalf("Prepare() = %v", err)
	}
	env.atlas.Trim()
	env.atlas.Trim()

	if err := env.prepare([]TextArea{env.area(glyphRun(2))}, rast); err != nil {
		t.Fatalf("Prepare() after Trim = %v", err)
	}
	if env.atlas.Contains(rast.order[0]) {
		t.Error("trimmed glyph survived eviction")
	}
	if !env.atlas.Contains(rast.order[1]) {
		t.Error("new glyph missing")
	}
	if got := env.atlas.Stats().Evictions; got != 1 {
		t.Errorf("Evictions = %d, want 1", got)
	}
}

func TestAtlas_EvictsLeastRecentlyUsed(t *testing.T) {
	env := newTestEnv(t, AtlasConfig{InitialSize: 16, MaxSize: 16})
	rast := newFakeRasterizer(ContentTypeMask, 8, 8)

	// Four 8x8 glyphs fill the plane.
	if err := env.prepare([]TextArea{env.area(glyphRun(1, 2, 3, 4))}, rast); err != nil {
		t.Fatalf("Prepare() = %v", err)
	}
	env.atlas.Trim()
	// Touch every glyph except 2.
	if err := env.prepare([]TextArea{env.area(glyphRun(1, 3, 4))}, rast); err != nil {
		t.Fatalf("Prepare() = %v", err)
	}
	env.atlas.Trim()
	if err := env.prepare([]TextArea{env.area(glyphRun(5))}, rast); err != nil {
		t.Fatalf("Prepare() = %v", err)
	}

	for _, key := range rast.order {
		want := key.Glyph != 2
		if got := env.atlas.Contains(key); got != want {
			t.Errorf("glyph %d cached = %v, want %v", key.Glyph, got, want)
		}
	}
}

func TestAtlas_ContainsDoesNotPromote(t *testing.T) {
	env := newTestEnv(t, AtlasConfig{InitialSize: 16, MaxSize: 16})
	rast := newFakeRasterizer(ContentTypeMask, 8, 16)

	if err := env.prepare([]TextArea{env.area(glyphRun(1, 2))}, rast); err != nil {
		t.Fatalf("Prepare() = %v", err)
	}
	env.atlas.Trim()
	first := rast.order[0]
	if !env.atlas.Contains(first) {
		t.Fatal("glyph 1 missing")
	}
	// Glyph 1 is still the oldest and goes first.
	if err := env.prepare([]TextArea{env.area(glyphRun(3))}, rast); err != nil {
		t.Fatalf("Prepare() = %v", err)
	}
	if env.atlas.Contains(first) {
		t.Error("Contains refreshed recency")
	}
}

func TestAtlas_Destroy(t *testing.T) {
	dev := memory.New(memory.Options{})
	cache, _ := NewCache(dev)
	before := dev.Stats()
	atlas, err := NewAtlas(dev, cache, gputypes.TextureFormatBGRA8Unorm, DefaultAtlasConfig())
	if err != nil {
		t.Fatalf("NewAtlas() = %v", err)
	}
	atlas.Destroy()
	after := dev.Stats()
	if after.Textures != before.Textures || after.Views != before.Views || after.BindGroups != before.BindGroups {
		t.Errorf("resources leaked: before %+v, after %+v", before, after)
	}
}

func TestAtlasStats_HitRate(t *testing.T) {
	if got := (AtlasStats{}).HitRate(); got != 0 {
		t.Errorf("empty HitRate() = %v", got)
	}
	if got := (AtlasStats{Hits: 3, Misses: 1}).HitRate(); got != 0.75 {
		t.Errorf("HitRate() = %v, want 0.75", got)
	}
}

func TestViewport_Update(t *testing.T) {
	dev := memory.New(memory.Options{})
	cache, _ := NewCache(dev)
	vp, err := NewViewport(dev, cache)
	if err != nil {
		t.Fatalf("NewViewport() = %v", err)
	}
	writes := dev.Stats().BufferWrites

	res := Resolution{Width: 640, Height: 480}
	if err := vp.Update(res); err != nil {
		t.Fatalf("Update() = %v", err)
	}
	if err := vp.Update(res); err != nil {
		t.Fatalf("Update() = %v", err)
	}
	if got := dev.Stats().BufferWrites - writes; got != 1 {
		t.Errorf("unchanged resolution wrote %d times, want 1", got)
	}
	if vp.Resolution() != res {
		t.Errorf("Resolution() = %+v", vp.Resolution())
	}

	desc, ok := dev.BindGroup(vp.BindGroup())
	if !ok || len(desc.Entries) != 1 {
		t.Fatalf("viewport bind group = %+v", desc)
	}
	data, err := dev.ReadBuffer(desc.Entries[0].Buffer)
	if err != nil {
		t.Fatalf("ReadBuffer() = %v", err)
	}
	if len(data) != paramsSize || data[0] != 0x80 || data[1] != 0x02 || data[4] != 0xe0 || data[5] != 0x01 {
		t.Errorf("params bytes = %v", data)
	}
}
