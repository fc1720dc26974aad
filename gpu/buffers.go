package gpu

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/nebula3d/nebula/core"
)

// BufferManager owns every device buffer of the particle pipeline. The
// instance buffer carries the union of both backends' usages: vertex read for
// the draw, copy-dst for the CPU upload, storage read/write for the compute
// step and copy-src for the switch read-back.
type BufferManager struct {
	device *wgpu.Device
	queue  *wgpu.Queue

	CameraBuf     *wgpu.Buffer
	QuadVertexBuf *wgpu.Buffer
	QuadIndexBuf  *wgpu.Buffer
	IndexCount    uint32

	InstanceBuf   *wgpu.Buffer
	DriftBuf      *wgpu.Buffer
	StepParamsBuf *wgpu.Buffer

	instanceCount int
}

func NewBufferManager(device *wgpu.Device, queue *wgpu.Queue, store *core.InstanceStore) (*BufferManager, error) {
	m := &BufferManager{
		device:        device,
		queue:         queue,
		instanceCount: store.Len(),
	}

	uniform := core.NewCameraUniform()
	var err error
	m.CameraBuf, err = device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Camera Buffer",
		Contents: cameraUniformBytes(uniform),
		Usage:    wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}

	m.QuadVertexBuf, err = device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Quad Vertex Buffer",
		Contents: quadVertexBytes(core.QuadVertices),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return nil, err
	}

	m.QuadIndexBuf, err = device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Quad Index Buffer",
		Contents: wgpu.ToBytes(core.QuadIndices),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		return nil, err
	}
	m.IndexCount = uint32(len(core.QuadIndices))

	m.InstanceBuf, err = device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Instance Buffer",
		Contents: RawInstanceBytes(store.Raw()),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageStorage |
			wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, err
	}

	m.DriftBuf, err = device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Drift Buffer",
		Contents: DriftBytes(store.Drifts()),
		Usage:    wgpu.BufferUsageStorage,
	})
	if err != nil {
		return nil, err
	}

	m.StepParamsBuf, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Step Params",
		Size:  16,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *BufferManager) InstanceCount() int { return m.instanceCount }

// UploadInstances pushes the whole host mirror to the device in one
// contiguous write. Queue ordering puts the write before any command buffer
// submitted afterward, so the following render pass observes it.
func (m *BufferManager) UploadInstances(raw []core.RawInstance) error {
	return m.queue.WriteBuffer(m.InstanceBuf, 0, RawInstanceBytes(raw))
}

// UpdateCamera rewrites the 64-byte view-projection uniform.
func (m *BufferManager) UpdateCamera(u core.CameraUniform) error {
	return m.queue.WriteBuffer(m.CameraBuf, 0, cameraUniformBytes(u))
}

// WriteStepParams fills the compute kernel's uniform: particle count and the
// flattening stride of the 2-D dispatch grid.
func (m *BufferManager) WriteStepParams(count, rowStride uint32) error {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], count)
	binary.LittleEndian.PutUint32(buf[4:8], rowStride)
	return m.queue.WriteBuffer(m.StepParamsBuf, 0, buf)
}

// RawInstanceBytes views the instance slice as its exact device bytes.
// RawInstance is 80 bytes of float32 with no padding, so the in-memory layout
// already matches the WGSL struct on little-endian targets.
func RawInstanceBytes(raw []core.RawInstance) []byte {
	if len(raw) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&raw[0])), len(raw)*core.RawInstanceSize)
}

// RawInstancesFromBytes copies mapped read-back bytes into instance structs.
func RawInstancesFromBytes(data []byte) []core.RawInstance {
	n := len(data) / core.RawInstanceSize
	if n == 0 {
		return nil
	}
	out := make([]core.RawInstance, n)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&out[0])), n*core.RawInstanceSize), data)
	return out
}

// DriftBytes serializes drift velocities with vec4 padding, the stride WGSL
// gives array<vec4<f32>> storage elements.
func DriftBytes(drifts []core.Drift) []byte {
	buf := make([]byte, len(drifts)*16)
	for i, d := range drifts {
		off := i * 16
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(d.Velocity[0]))
		binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(d.Velocity[1]))
		binary.LittleEndian.PutUint32(buf[off+8:], math.Float32bits(d.Velocity[2]))
	}
	return buf
}

func cameraUniformBytes(u core.CameraUniform) []byte {
	buf := make([]byte, 64)
	for i, v := range u.ViewProj {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func quadVertexBytes(vertices []core.QuadVertex) []byte {
	if len(vertices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), len(vertices)*core.QuadVertexSize)
}
