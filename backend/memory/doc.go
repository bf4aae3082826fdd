// Package memory implements gpucore.Device on the CPU.
//
// Textures and buffers are plain byte slices. Uploads are applied
// immediately and can be read back with ReadTexture, ReadRegion and
// ReadBuffer, which makes the device suitable for tests and headless tools
// that need to inspect atlas contents without a GPU.
//
// Shader modules, samplers, layouts and pipelines are recorded but not
// executed. Pass records the commands issued against it so callers can
// assert on bind groups, vertex buffers and draw calls.
package memory
