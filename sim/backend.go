package sim

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/nebula3d/nebula/core"
	"github.com/nebula3d/nebula/gpu"
)

// Mode selects which backend owns write authority over the instance buffer
// for a frame. Exactly one backend writes per frame; the render pass only
// reads.
type Mode int

const (
	ModeCPU Mode = iota
	ModeGPU
)

func (m Mode) String() string {
	switch m {
	case ModeCPU:
		return "cpu"
	case ModeGPU:
		return "gpu"
	default:
		return "unknown"
	}
}

// Simulator is the closed two-variant simulation backend. The frame
// coordinator dispatches on the mode tag exactly once per frame; mode flips
// only through SetMode, which the coordinator gates on the read-back protocol
// for GPU to CPU transitions.
type Simulator struct {
	mode Mode
	cpu  *cpuBackend
	gpu  *gpuBackend
}

// NewSimulator builds both backends up front; switching later allocates
// nothing.
func NewSimulator(initial Mode, device *wgpu.Device, store *core.InstanceStore, buffers *gpu.BufferManager) (*Simulator, error) {
	gpuBackend, err := newGPUBackend(device, buffers, store.Len())
	if err != nil {
		return nil, err
	}
	return &Simulator{
		mode: initial,
		cpu:  newCPUBackend(store, buffers),
		gpu:  gpuBackend,
	}, nil
}

func (s *Simulator) Mode() Mode { return s.mode }

// Advance runs one simulation step with the backend that currently holds
// write authority. The CPU variant finishes its fork-join map and uploads
// before returning; the GPU variant records a compute pass into the frame
// encoder, ordered before the render pass by same-queue submission order.
func (s *Simulator) Advance(encoder *wgpu.CommandEncoder) error {
	switch s.mode {
	case ModeCPU:
		return s.cpu.advance()
	case ModeGPU:
		return s.gpu.advance(encoder)
	}
	return nil
}

// SetMode transfers write authority. For GPU to CPU the caller must have
// drained GPU writes (read-back resolved and adopted) before calling; for
// CPU to GPU the host mirror was uploaded by the last CPU advance, so the
// transfer is immediate.
func (s *Simulator) SetMode(m Mode) {
	s.mode = m
}
