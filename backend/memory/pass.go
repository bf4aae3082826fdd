package memory

import "github.com/gogpu/textatlas/gpucore"

// CommandKind identifies a recorded render pass command.
type CommandKind uint8

// Recorded command kinds.
const (
	CmdSetPipeline CommandKind = iota + 1
	CmdSetBindGroup
	CmdSetVertexBuffer
	CmdDraw
)

// Command is one recorded render pass call.
type Command struct {
	Kind CommandKind

	Pipeline  gpucore.RenderPipelineID
	Index     uint32 // bind group index or vertex buffer slot
	BindGroup gpucore.BindGroupID
	Buffer    gpucore.BufferID
	Offset    uint64

	VertexCount   uint32
	InstanceCount uint32
	FirstVertex   uint32
	FirstInstance uint32
}

// Pass records the commands issued against it.
type Pass struct {
	Commands []Command
}

// Compile-time interface check.
var _ gpucore.RenderPass = (*Pass)(nil)

// SetPipeline records a pipeline change.
func (p *Pass) SetPipeline(pipeline gpucore.RenderPipelineID) {
	p.Commands = append(p.Commands, Command{Kind: CmdSetPipeline, Pipeline: pipeline})
}

// SetBindGroup records a bind group change.
func (p *Pass) SetBindGroup(index uint32, group gpucore.BindGroupID) {
	p.Commands = append(p.Commands, Command{Kind: CmdSetBindGroup, Index: index, BindGroup: group})
}

// SetVertexBuffer records a vertex buffer binding.
func (p *Pass) SetVertexBuffer(slot uint32, buffer gpucore.BufferID, offset uint64) {
	p.Commands = append(p.Commands, Command{Kind: CmdSetVertexBuffer, Index: slot, Buffer: buffer, Offset: offset})
}

// Draw records a draw call.
func (p *Pass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.Commands = append(p.Commands, Command{
		Kind:          CmdDraw,
		VertexCount:   vertexCount,
		InstanceCount: instanceCount,
		FirstVertex:   firstVertex,
		FirstInstance: firstInstance,
	})
}

// Draws returns the recorded draw calls.
func (p *Pass) Draws() []Command {
	var out []Command
	for _, c := range p.Commands {
		if c.Kind == CmdDraw {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears the recorded commands.
func (p *Pass) Reset() {
	p.Commands = p.Commands[:0]
}
