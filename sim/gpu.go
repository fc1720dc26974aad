package sim

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/nebula3d/nebula/gpu"
	"github.com/nebula3d/nebula/shaders"
)

// WorkgroupSize must match @workgroup_size in step.wgsl.
const WorkgroupSize = 256

// maxDispatchDim is the per-axis workgroup count limit guaranteed by the
// default device limits.
const maxDispatchDim = 65535

// DispatchDims picks a 2-D workgroup grid covering at least n invocations:
// x*y*WorkgroupSize >= n with every axis within the device limit. Excess
// invocations bound-check inside the kernel.
func DispatchDims(n int) (x, y uint32) {
	groups := (n + WorkgroupSize - 1) / WorkgroupSize
	if groups < 1 {
		groups = 1
	}
	if groups <= maxDispatchDim {
		return uint32(groups), 1
	}
	y = uint32((groups + maxDispatchDim - 1) / maxDispatchDim)
	return maxDispatchDim, y
}

// gpuBackend records one compute pass per frame. The instance storage binding
// aliases the same device buffer the render pass reads as the per-instance
// vertex stream; same-queue program order makes the draw observe the step.
type gpuBackend struct {
	pipeline  *wgpu.ComputePipeline
	bindGroup *wgpu.BindGroup
	gridX     uint32
	gridY     uint32
}

func newGPUBackend(device *wgpu.Device, buffers *gpu.BufferManager, count int) (*gpuBackend, error) {
	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Particle Step CS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.StepWGSL},
	})
	if err != nil {
		return nil, err
	}
	defer module.Release()

	pipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: "Particle Step Pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return nil, err
	}

	x, y := DispatchDims(count)
	if err := buffers.WriteStepParams(uint32(count), x*WorkgroupSize); err != nil {
		return nil, err
	}

	bindGroup, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: buffers.DriftBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: buffers.InstanceBuf, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: buffers.StepParamsBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return nil, err
	}

	return &gpuBackend{
		pipeline:  pipeline,
		bindGroup: bindGroup,
		gridX:     x,
		gridY:     y,
	}, nil
}

func (b *gpuBackend) advance(encoder *wgpu.CommandEncoder) error {
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(b.pipeline)
	pass.SetBindGroup(0, b.bindGroup, nil)
	pass.DispatchWorkgroups(b.gridX, b.gridY, 1)
	return pass.End()
}
