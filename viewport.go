package textatlas

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/textatlas/gpucore"
)

// Viewport owns the per-frame uniform block holding the screen resolution.
// Renderers record the resolution seen by Prepare and refuse to draw after
// it changes.
type Viewport struct {
	dev       gpucore.Device
	params    Params
	buffer    gpucore.BufferID
	bindGroup gpucore.BindGroupID
}

// NewViewport creates a viewport with a zero resolution.
func NewViewport(dev gpucore.Device, cache *Cache) (*Viewport, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	if cache == nil {
		return nil, ErrNilCache
	}
	buf, err := dev.CreateBuffer(&gputypes.BufferDescriptor{
		Label: "textatlas params",
		Size:  paramsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create params buffer: %w", err)
	}
	bg, err := cache.uniformsBindGroup(buf)
	if err != nil {
		dev.DestroyBuffer(buf)
		return nil, fmt.Errorf("bind params buffer: %w", err)
	}
	return &Viewport{dev: dev, buffer: buf, bindGroup: bg}, nil
}

// Update sets the screen resolution, writing the uniform buffer only when
// it changes.
func (v *Viewport) Update(res Resolution) error {
	if v.params.ScreenResolution == res {
		return nil
	}
	next := Params{ScreenResolution: res}
	if err := v.dev.WriteBuffer(v.buffer, 0, next.bytes()); err != nil {
		return fmt.Errorf("write params: %w", err)
	}
	v.params = next
	return nil
}

// Resolution returns the current screen resolution.
func (v *Viewport) Resolution() Resolution {
	return v.params.ScreenResolution
}

// BindGroup returns the uniform bind group.
func (v *Viewport) BindGroup() gpucore.BindGroupID {
	return v.bindGroup
}

// Destroy releases the uniform buffer and bind group.
func (v *Viewport) Destroy() {
	v.dev.DestroyBindGroup(v.bindGroup)
	v.dev.DestroyBuffer(v.buffer)
}

// bytes encodes the uniform block.
func (p Params) bytes() []byte {
	b := make([]byte, paramsSize)
	binary.LittleEndian.PutUint32(b[0:], p.ScreenResolution.Width)
	binary.LittleEndian.PutUint32(b[4:], p.ScreenResolution.Height)
	return b
}
