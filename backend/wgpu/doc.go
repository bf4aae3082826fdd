// Package wgpu implements gpucore.Device on top of the gogpu/wgpu HAL.
//
// The backend translates the glyph atlas's resource IDs to HAL objects and
// forwards work to a hal.Device and hal.Queue owned by the application.
// WGSL is compiled to SPIR-V with gogpu/naga before module creation.
//
// # Usage
//
// With a device shared through gpucontext (for example from gogpu):
//
//	dev, err := wgpu.NewFromProvider(provider, wgpu.Options{})
//	if err != nil {
//		return err
//	}
//	cache, err := textatlas.NewCache(dev)
//	atlas, err := textatlas.NewAtlas(dev, cache, dev.SurfaceFormat(), textatlas.DefaultAtlasConfig())
//
// Each frame, after Prepare, wrap the application's render pass and record:
//
//	err = renderer.Render(atlas, viewport, dev.Pass(halPass))
//
// Beginning, ending and submitting the pass stay with the application.
//
// # Thread Safety
//
// Device guards its ID tables with a mutex. The HAL objects themselves follow
// the HAL's rules; the glyph atlas drives a device from one goroutine.
package wgpu
