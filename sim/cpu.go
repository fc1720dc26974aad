package sim

import (
	"runtime"
	"sync"

	"github.com/nebula3d/nebula/core"
)

// InstanceUploader pushes a host mirror to the device. Satisfied by
// gpu.BufferManager; tests substitute a recorder.
type InstanceUploader interface {
	UploadInstances(raw []core.RawInstance) error
}

// cpuBackend advances every particle on the host. The work is independent
// per index, so it is split into contiguous chunks across worker goroutines
// with a fork-join barrier; the single upload is issued only after the join.
type cpuBackend struct {
	store    *core.InstanceStore
	uploader InstanceUploader
	workers  int
}

func newCPUBackend(store *core.InstanceStore, uploader InstanceUploader) *cpuBackend {
	return &cpuBackend{
		store:    store,
		uploader: uploader,
		workers:  runtime.NumCPU(),
	}
}

func (b *cpuBackend) advance() error {
	advanceParticles(b.store, b.workers)
	return b.uploader.UploadInstances(b.store.Raw())
}

// advanceParticles applies one drift step and rebuilds the raw mirror.
// No shared mutable state crosses chunk boundaries.
func advanceParticles(store *core.InstanceStore, workers int) {
	particles := store.Particles()
	drifts := store.Drifts()
	raw := store.Raw()

	n := len(particles)
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}
	if n == 0 {
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				p := &particles[i]
				p.Position = p.Position.Add(drifts[i].Velocity)
				raw[i] = p.Raw()
			}
		}(start, end)
	}
	wg.Wait()
}
