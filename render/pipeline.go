package render

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/nebula3d/nebula/gpu"
	"github.com/nebula3d/nebula/shaders"
)

// ParticlePipeline is the fixed-function state for the instanced billboard
// draw: two vertex streams, triangle list, back-face culling, alpha blending,
// single sample, no depth buffer. Particles are not depth sorted; the
// back-to-front artifacts that causes are accepted.
type ParticlePipeline struct {
	pipeline        *wgpu.RenderPipeline
	cameraBindGroup *wgpu.BindGroup
}

func NewParticlePipeline(device *wgpu.Device, format wgpu.TextureFormat, cameraBuf *wgpu.Buffer) (*ParticlePipeline, error) {
	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Billboard Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.BillboardWGSL},
	})
	if err != nil {
		return nil, err
	}
	defer module.Release()

	vertexLayout := wgpu.VertexBufferLayout{
		ArrayStride: 20,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
		},
	}

	// One mat4 column per attribute slot plus the color, advancing per
	// instance.
	instanceLayout := wgpu.VertexBufferLayout{
		ArrayStride: 80,
		StepMode:    wgpu.VertexStepModeInstance,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 2},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 3},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 4},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 48, ShaderLocation: 5},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 64, ShaderLocation: 6},
		},
	}

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Billboard Pipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{vertexLayout, instanceLayout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format: format,
				Blend: &wgpu.BlendState{
					Color: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorSrcAlpha,
						DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						Operation: wgpu.BlendOperationAdd,
					},
					Alpha: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorOne,
						DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						Operation: wgpu.BlendOperationAdd,
					},
				},
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}

	cameraBindGroup, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: cameraBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return nil, err
	}

	return &ParticlePipeline{
		pipeline:        pipeline,
		cameraBindGroup: cameraBindGroup,
	}, nil
}

// Draw records the frame's single render pass: clear to opaque black, one
// indexed instanced draw, then the overlay if any. Recording only; the caller
// submits and presents.
func (p *ParticlePipeline) Draw(encoder *wgpu.CommandEncoder, view *wgpu.TextureView, buffers *gpu.BufferManager, instanceCount uint32, overlay *OverlayPipeline) error {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})

	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, p.cameraBindGroup, nil)
	pass.SetVertexBuffer(0, buffers.QuadVertexBuf, 0, wgpu.WholeSize)
	pass.SetVertexBuffer(1, buffers.InstanceBuf, 0, wgpu.WholeSize)
	pass.SetIndexBuffer(buffers.QuadIndexBuf, wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
	pass.DrawIndexed(buffers.IndexCount, instanceCount, 0, 0, 0)

	if overlay != nil {
		overlay.record(pass)
	}

	return pass.End()
}
