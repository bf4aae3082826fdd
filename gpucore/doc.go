// Package gpucore defines the GPU operations the glyph atlas depends on.
//
// The [Device] interface abstracts over GPU backend implementations so the
// atlas, viewport and renderer can be written once and driven by:
//   - backend/wgpu (gogpu/wgpu, WGSL compiled by naga)
//   - backend/memory (CPU-side textures and buffers for tests and tools)
//
// # Architecture
//
//	               +-----------------+
//	               |    textatlas    |
//	               | (Atlas/Renderer)|
//	               +--------+--------+
//	                        |
//	                 gpucore.Device
//	                        |
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	|  backend/wgpu   |          | backend/memory  |
//	|  (wgpu.Device)  |          |  ([]byte store) |
//	+-----------------+          +-----------------+
//
// # Resource Model
//
// Resources are referred to by opaque IDs. Each backend keeps a mapping
// from IDs to its own objects. Descriptors reuse the gogpu/gputypes
// definitions wherever one exists, so backends translate only the ID-bearing
// fields.
//
// Uploads (WriteTexture, WriteBuffer) are enqueued on the device queue and
// are ordered before any draw recorded afterwards.
package gpucore
