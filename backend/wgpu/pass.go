package wgpu

import (
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/textatlas/gpucore"
)

// RenderPass records into a HAL render pass encoder on behalf of the glyph
// renderer. IDs that do not belong to the Device are dropped with a warning.
type RenderPass struct {
	dev  *Device
	pass hal.RenderPassEncoder
}

// Compile-time interface check.
var _ gpucore.RenderPass = (*RenderPass)(nil)

// Pass wraps a render pass begun by the application.
func (d *Device) Pass(pass hal.RenderPassEncoder) *RenderPass {
	return &RenderPass{dev: d, pass: pass}
}

// SetPipeline implements gpucore.RenderPass.
func (p *RenderPass) SetPipeline(id gpucore.RenderPipelineID) {
	p.dev.mu.RLock()
	pipeline, ok := p.dev.pipelines[id]
	p.dev.mu.RUnlock()
	if !ok {
		p.dev.log.Warn("wgpu: unknown render pipeline", "id", id)
		return
	}
	p.pass.SetPipeline(pipeline)
}

// SetBindGroup implements gpucore.RenderPass.
func (p *RenderPass) SetBindGroup(index uint32, id gpucore.BindGroupID) {
	p.dev.mu.RLock()
	group, ok := p.dev.bindGroups[id]
	p.dev.mu.RUnlock()
	if !ok {
		p.dev.log.Warn("wgpu: unknown bind group", "id", id, "index", index)
		return
	}
	p.pass.SetBindGroup(index, group, nil)
}

// SetVertexBuffer implements gpucore.RenderPass.
func (p *RenderPass) SetVertexBuffer(slot uint32, id gpucore.BufferID, offset uint64) {
	p.dev.mu.RLock()
	buf, ok := p.dev.buffers[id]
	p.dev.mu.RUnlock()
	if !ok {
		p.dev.log.Warn("wgpu: unknown vertex buffer", "id", id, "slot", slot)
		return
	}
	p.pass.SetVertexBuffer(slot, buf, offset)
}

// Draw implements gpucore.RenderPass.
func (p *RenderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.pass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}
