package textatlas

import (
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"

	"github.com/gogpu/textatlas/backend/memory"
	"github.com/gogpu/textatlas/gpucore"
)

func TestShaderCompilation(t *testing.T) {
	src := ShaderSource()
	if src == "" {
		t.Fatal("shader source is empty")
	}

	spirvBytes, err := naga.Compile(src)
	if err != nil {
		if strings.Contains(err.Error(), "not yet implemented") || strings.Contains(err.Error(), "not supported") {
			t.Skipf("Skipping: naga feature not yet implemented: %v", err)
		}
		t.Fatalf("failed to compile glyph shader: %v", err)
	}
	if len(spirvBytes) < 4 {
		t.Fatal("SPIR-V output is empty")
	}
	if magic := binary.LittleEndian.Uint32(spirvBytes); magic != 0x07230203 {
		t.Errorf("SPIR-V magic = %#x, want 0x07230203", magic)
	}
}

func TestCache_PipelineReuse(t *testing.T) {
	dev := memory.New(memory.Options{})
	cache, err := NewCache(dev)
	if err != nil {
		t.Fatalf("NewCache() = %v", err)
	}
	format := gputypes.TextureFormatBGRA8UnormSrgb
	ms := gputypes.DefaultMultisampleState()

	a, err := cache.Pipeline(format, ms, nil)
	if err != nil {
		t.Fatalf("Pipeline() = %v", err)
	}
	b, _ := cache.Pipeline(format, ms, nil)
	if a != b {
		t.Error("identical configuration built a second pipeline")
	}

	ms4 := ms
	ms4.Count = 4
	c, _ := cache.Pipeline(format, ms4, nil)
	ds := gputypes.DepthStencilState{
		Format:            gputypes.TextureFormatDepth24Plus,
		DepthWriteEnabled: true,
		DepthCompare:      gputypes.CompareFunctionLess,
	}
	d, _ := cache.Pipeline(format, ms, &ds)
	dsCopy := ds
	e, _ := cache.Pipeline(format, ms, &dsCopy)
	if c == a || d == a || d == c {
		t.Error("distinct configurations share a pipeline")
	}
	if e != d {
		t.Error("equal depth-stencil states behind different pointers built two pipelines")
	}
	if got := cache.PipelineCount(); got != 3 {
		t.Errorf("PipelineCount() = %d, want 3", got)
	}

	desc, ok := dev.RenderPipeline(d)
	if !ok {
		t.Fatal("pipeline not registered with the device")
	}
	if desc.DepthStencil == nil || desc.DepthStencil.Format != gputypes.TextureFormatDepth24Plus {
		t.Errorf("depth stencil = %+v", desc.DepthStencil)
	}
	if desc.Primitive.Topology != gputypes.PrimitiveTopologyTriangleStrip {
		t.Errorf("topology = %v, want triangle strip", desc.Primitive.Topology)
	}
	if len(desc.Targets) != 1 || desc.Targets[0].Format != format {
		t.Errorf("targets = %+v", desc.Targets)
	}
}

func TestCache_SharedAcrossAtlases(t *testing.T) {
	dev := memory.New(memory.Options{})
	cache, err := NewCache(dev)
	if err != nil {
		t.Fatalf("NewCache() = %v", err)
	}
	format := gputypes.TextureFormatRGBA8Unorm
	a1, _ := NewAtlas(dev, cache, format, DefaultAtlasConfig())
	a2, _ := NewAtlas(dev, cache, format, DefaultAtlasConfig())
	r1, err := NewRenderer(dev, a1, DefaultRendererConfig())
	if err != nil {
		t.Fatalf("NewRenderer() = %v", err)
	}
	r2, _ := NewRenderer(dev, a2, DefaultRendererConfig())
	if r1.pipeline != r2.pipeline {
		t.Error("atlases with one target format use different pipelines")
	}
	if cache.PipelineCount() != 1 {
		t.Errorf("PipelineCount() = %d, want 1", cache.PipelineCount())
	}
}

var errInjected = errors.New("injected device failure")

// faultyDevice fails selected operations of a memory device.
type faultyDevice struct {
	*memory.Device
	failSampler        bool
	failPipelineLayout bool
	failWrites         int // WriteTexture calls to let through before failing; negative never fails
}

func newFaultyDevice() *faultyDevice {
	return &faultyDevice{Device: memory.New(memory.Options{}), failWrites: -1}
}

func (d *faultyDevice) CreateSampler(desc *gputypes.SamplerDescriptor) (gpucore.SamplerID, error) {
	if d.failSampler {
		return gpucore.InvalidID, errInjected
	}
	return d.Device.CreateSampler(desc)
}

func (d *faultyDevice) CreatePipelineLayout(label string, layouts []gpucore.BindGroupLayoutID) (gpucore.PipelineLayoutID, error) {
	if d.failPipelineLayout {
		return gpucore.InvalidID, errInjected
	}
	return d.Device.CreatePipelineLayout(label, layouts)
}

func (d *faultyDevice) WriteTexture(dst gpucore.TextureRegion, data []byte, bytesPerRow uint32) error {
	if d.failWrites == 0 {
		return errInjected
	}
	if d.failWrites > 0 {
		d.failWrites--
	}
	return d.Device.WriteTexture(dst, data, bytesPerRow)
}

func TestNewCache_ReleasesOnError(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*faultyDevice)
	}{
		{"sampler", func(d *faultyDevice) { d.failSampler = true }},
		{"pipeline layout", func(d *faultyDevice) { d.failPipelineLayout = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newFaultyDevice()
			tt.setup(dev)
			cache, err := NewCache(dev)
			if !errors.Is(err, errInjected) {
				t.Fatalf("NewCache() = %v, want injected error", err)
			}
			if cache != nil {
				t.Error("NewCache() returned a cache on error")
			}
			if got := dev.Stats(); got != (memory.Stats{}) {
				t.Errorf("resources left after failed NewCache: %+v", got)
			}
		})
	}
}

func TestNewCache_NearestSampler(t *testing.T) {
	dev := memory.New(memory.Options{})
	cache, err := NewCache(dev)
	if err != nil {
		t.Fatalf("NewCache() = %v", err)
	}
	desc, ok := dev.Sampler(cache.sampler)
	if !ok {
		t.Fatal("sampler not live")
	}
	if desc.MagFilter != gputypes.FilterModeNearest || desc.MinFilter != gputypes.FilterModeNearest {
		t.Errorf("filters = %v/%v, want nearest", desc.MagFilter, desc.MinFilter)
	}
	if desc.MipmapFilter != gputypes.MipmapFilterModeNearest {
		t.Errorf("mipmap filter = %v, want nearest", desc.MipmapFilter)
	}
}

func TestNewCache_NilDevice(t *testing.T) {
	if _, err := NewCache(nil); !errors.Is(err, ErrNilDevice) {
		t.Errorf("NewCache(nil) = %v, want ErrNilDevice", err)
	}
}

func TestVertexLayout(t *testing.T) {
	layouts := vertexLayout()
	if len(layouts) != 1 {
		t.Fatalf("got %d layouts, want 1", len(layouts))
	}
	l := layouts[0]
	if l.ArrayStride != vertexStride || l.StepMode != gputypes.VertexStepModeInstance {
		t.Errorf("stride=%d step=%v", l.ArrayStride, l.StepMode)
	}
	for i, a := range l.Attributes {
		if a.ShaderLocation != uint32(i) {
			t.Errorf("attribute %d at location %d", i, a.ShaderLocation)
		}
	}
	if last := l.Attributes[len(l.Attributes)-1]; last.Offset+4 != vertexStride {
		t.Errorf("last attribute ends at %d, want %d", last.Offset+4, vertexStride)
	}
}
