package gpu

import (
	"errors"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/nebula3d/nebula/core"
)

// ErrMapFailed reports a rejected buffer map request. Fatal for the switch
// operation only; the running simulation keeps its prior mode.
var ErrMapFailed = errors.New("instance read-back map request failed")

type readbackState int

const (
	readbackIdle    readbackState = iota
	readbackCopied                // device copy recorded, not yet mapped
	readbackMapping               // MapAsync issued, waiting on the callback
	readbackMapped                // host-visible, ready to decode
)

// InstanceReadback drains the device instance buffer into a MapRead staging
// buffer so the CPU backend can take over GPU-written state. The map callback
// fires on a driver thread, so the state word is mutex-guarded; everything
// else runs on the frame loop.
type InstanceReadback struct {
	mu     sync.Mutex
	state  readbackState
	failed bool

	buf  *wgpu.Buffer
	size uint64
}

func NewInstanceReadback(device *wgpu.Device, instanceCount int) (*InstanceReadback, error) {
	size := uint64(instanceCount) * core.RawInstanceSize
	buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Instance Readback",
		Size:  size,
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if err != nil {
		return nil, err
	}
	return &InstanceReadback{buf: buf, size: size}, nil
}

// Idle reports whether a new drain may start.
func (r *InstanceReadback) Idle() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == readbackIdle && !r.failed
}

// EncodeCopy records the device-to-staging copy into the frame's encoder.
// Must be encoded after the compute pass that produced the data; same-queue
// program order then guarantees the staging buffer holds the step's output.
// Returns false if a previous drain is still in flight.
func (r *InstanceReadback) EncodeCopy(encoder *wgpu.CommandEncoder, src *wgpu.Buffer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != readbackIdle {
		return false
	}
	encoder.CopyBufferToBuffer(src, 0, r.buf, 0, r.size)
	r.state = readbackCopied
	return true
}

// Resolve advances the drain state machine. Call once per frame after the
// copy was submitted. It returns the decoded instances exactly once, when the
// asynchronous map has completed; (nil, false, nil) means still in flight.
func (r *InstanceReadback) Resolve() ([]core.RawInstance, bool, error) {
	r.mu.Lock()

	if r.failed {
		r.failed = false
		r.state = readbackIdle
		r.mu.Unlock()
		return nil, false, ErrMapFailed
	}

	if r.state == readbackCopied {
		r.state = readbackMapping
		r.buf.MapAsync(wgpu.MapModeRead, 0, r.size, func(status wgpu.BufferMapAsyncStatus) {
			r.mu.Lock()
			defer r.mu.Unlock()
			if status == wgpu.BufferMapAsyncStatusSuccess {
				r.state = readbackMapped
			} else {
				r.state = readbackIdle
				r.failed = true
			}
		})
	}

	if r.state != readbackMapped {
		r.mu.Unlock()
		return nil, false, nil
	}

	data := r.buf.GetMappedRange(0, uint(r.size))
	out := RawInstancesFromBytes(data)
	r.buf.Unmap()
	r.state = readbackIdle
	r.mu.Unlock()
	return out, true, nil
}
