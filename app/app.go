package app

import (
	"fmt"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/nebula3d/nebula/core"
	"github.com/nebula3d/nebula/gpu"
	"github.com/nebula3d/nebula/render"
	"github.com/nebula3d/nebula/sim"
)

// Config selects the startup shape of the particle field.
type Config struct {
	Particles   int
	InitialMode sim.Mode
	Seed        int64
	Debug       bool
	FrameWindow int // frame-time samples in the rolling average
}

const defaultFrameWindow = 120

// App coordinates one frame: consume the pending backend-switch request,
// advance the active backend, refresh the camera uniform, record the draw,
// submit, present, account the frame time. It owns the whole GPU object
// graph; nothing here is a package global.
type App struct {
	log Logger
	ctx *gpu.Context

	store         *core.InstanceStore
	buffers       *gpu.BufferManager
	camera        *core.Camera
	cameraUniform core.CameraUniform

	particles *render.ParticlePipeline
	overlay   *render.OverlayPipeline
	simulator *sim.Simulator
	readback  *gpu.InstanceReadback

	stats   *core.FrameStats
	lastLog time.Time

	// switchRequested is the once-per-frame input latch; switchPending is
	// the drain protocol in flight. While switchPending is set the GPU
	// backend keeps write authority.
	switchRequested bool
	switchPending   bool
}

func New(window *glfw.Window, cfg Config) (*App, error) {
	logger := NewDefaultLogger(cfg.Debug)

	ctx, err := gpu.NewContext(window)
	if err != nil {
		return nil, fmt.Errorf("gpu context: %w", err)
	}

	count := cfg.Particles
	if count <= 0 {
		count = 2_000_000
	}
	limit := core.MaxInstances(uint64(wgpu.DefaultLimits().MaxStorageBufferBindingSize))
	if count > limit {
		logger.Warnf("clamping particle count %d to storage binding limit %d", count, limit)
		count = limit
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	store := core.NewInstanceStore(count, seed)

	buffers, err := gpu.NewBufferManager(ctx.Device, ctx.Queue, store)
	if err != nil {
		return nil, fmt.Errorf("buffers: %w", err)
	}

	particles, err := render.NewParticlePipeline(ctx.Device, ctx.Config.Format, buffers.CameraBuf)
	if err != nil {
		return nil, fmt.Errorf("particle pipeline: %w", err)
	}

	overlay, err := render.NewOverlayPipeline(ctx.Device, ctx.Queue, ctx.Config.Format)
	if err != nil {
		return nil, fmt.Errorf("overlay pipeline: %w", err)
	}

	simulator, err := sim.NewSimulator(cfg.InitialMode, ctx.Device, store, buffers)
	if err != nil {
		return nil, fmt.Errorf("simulator: %w", err)
	}

	readback, err := gpu.NewInstanceReadback(ctx.Device, count)
	if err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}

	fbw, fbh := window.GetFramebufferSize()
	camera := core.NewCamera(fbw, fbh)

	frameWindow := cfg.FrameWindow
	if frameWindow <= 0 {
		frameWindow = defaultFrameWindow
	}

	logger.Infof("initialized: %d particles, %s backend, %dx%d", count, cfg.InitialMode, fbw, fbh)

	return &App{
		log:           logger,
		ctx:           ctx,
		store:         store,
		buffers:       buffers,
		camera:        camera,
		cameraUniform: core.NewCameraUniform(),
		particles:     particles,
		overlay:       overlay,
		simulator:     simulator,
		readback:      readback,
		stats:         core.NewFrameStats(frameWindow),
		lastLog:       time.Now(),
	}, nil
}

func (a *App) Logger() Logger { return a.log }

func (a *App) Mode() sim.Mode { return a.simulator.Mode() }

// ToggleDebug flips per-frame debug logging at runtime.
func (a *App) ToggleDebug() {
	a.log.SetDebug(!a.log.DebugEnabled())
}

// RequestBackendSwitch latches a switch request; it is consumed at the top of
// the next frame, never mid-dispatch.
func (a *App) RequestBackendSwitch() {
	a.switchRequested = true
}

func (a *App) HandleScroll(delta float64) {
	a.camera.Dolly(float32(delta))
}

func (a *App) Resize(width, height int) {
	a.ctx.Resize(width, height)
	a.camera.SetViewport(width, height)
}

// consumeSwitchRequest runs before the backend advances. CPU to GPU is
// immediate: the last CPU advance already uploaded the mirror, so the compute
// step picks up exactly where the host left off. GPU to CPU starts the drain
// protocol instead of flipping; authority stays with the GPU backend until
// the read-back resolves.
func (a *App) consumeSwitchRequest() {
	if !a.switchRequested {
		return
	}
	a.switchRequested = false

	switch a.simulator.Mode() {
	case sim.ModeCPU:
		a.simulator.SetMode(sim.ModeGPU)
		a.log.Infof("backend switched: cpu -> gpu")
	case sim.ModeGPU:
		if a.switchPending {
			a.log.Debugf("backend switch already pending")
			return
		}
		a.switchPending = true
		a.log.Infof("backend switch requested: gpu -> cpu, draining instance buffer")
	}
}

// resolvePendingSwitch drives the read-back state machine. Completion of the
// asynchronous map is the sole gate before the CPU backend may read instance
// data it did not write itself.
func (a *App) resolvePendingSwitch() {
	if !a.switchPending {
		return
	}

	data, done, err := a.readback.Resolve()
	if err != nil {
		// Fatal for the switch only; the simulation stays on the GPU.
		a.log.Errorf("backend switch aborted: %v", err)
		a.switchPending = false
		return
	}
	if !done {
		return
	}

	a.store.AdoptRaw(data)
	a.simulator.SetMode(sim.ModeCPU)
	a.switchPending = false
	a.log.Infof("backend switched: gpu -> cpu (%d instances reconciled)", len(data))
}

// Frame renders one frame. A nil return with no work done means the frame was
// skipped (surface hiccup); an error return means the process should halt.
func (a *App) Frame() error {
	start := time.Now()

	a.consumeSwitchRequest()
	a.resolvePendingSwitch()

	texture, err := a.ctx.Surface.GetCurrentTexture()
	if err != nil {
		switch gpu.ClassifySurfaceError(err) {
		case gpu.SurfaceErrorRecoverable:
			a.log.Warnf("surface unavailable, reconfiguring: %v", err)
			a.ctx.Reconfigure()
			return nil
		case gpu.SurfaceErrorFatal:
			a.log.Errorf("device out of memory: %v", err)
			return err
		default:
			a.log.Errorf("surface acquisition failed, skipping frame: %v", err)
			return nil
		}
	}
	defer texture.Release()

	view, err := texture.CreateView(nil)
	if err != nil {
		a.log.Errorf("texture view failed, skipping frame: %v", err)
		return nil
	}
	defer view.Release()

	encoder, err := a.ctx.Device.CreateCommandEncoder(nil)
	if err != nil {
		a.log.Errorf("command encoder failed, skipping frame: %v", err)
		return nil
	}

	if err := a.simulator.Advance(encoder); err != nil {
		a.log.Errorf("simulation advance failed: %v", err)
		return nil
	}

	// The drain copy rides the same encoder, after the compute pass, so it
	// captures this frame's step output.
	if a.switchPending && a.readback.Idle() {
		a.readback.EncodeCopy(encoder, a.buffers.InstanceBuf)
	}

	a.cameraUniform.Update(a.camera)
	if err := a.buffers.UpdateCamera(a.cameraUniform); err != nil {
		a.log.Errorf("camera upload failed: %v", err)
		return nil
	}

	a.prepareOverlay()

	if err := a.particles.Draw(encoder, view, a.buffers, uint32(a.store.Len()), a.overlay); err != nil {
		a.log.Errorf("render pass failed: %v", err)
		return nil
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		a.log.Errorf("encoder finish failed: %v", err)
		return nil
	}
	a.ctx.Queue.Submit(cmd)
	a.ctx.Surface.Present()

	elapsed := time.Since(start)
	a.stats.Record(elapsed)
	a.logFrame(elapsed)
	return nil
}

func (a *App) prepareOverlay() {
	a.overlay.Clear()
	avg := a.stats.Average()
	a.overlay.Push(
		fmt.Sprintf("%.2f ms | %dx%d | %s", float64(avg.Microseconds())/1000.0,
			a.ctx.Config.Width, a.ctx.Config.Height, a.simulator.Mode()),
		10, 10, 1.0, [4]float32{1, 1, 0, 1},
	)
	if a.switchPending {
		a.overlay.Push("draining gpu state...", 10, 34, 1.0, [4]float32{1, 0.5, 0.2, 1})
	}
	if err := a.overlay.Prepare(int(a.ctx.Config.Width), int(a.ctx.Config.Height)); err != nil {
		a.log.Warnf("overlay prepare failed: %v", err)
	}
}

func (a *App) logFrame(elapsed time.Duration) {
	a.log.Debugf("frame time: %.3fms | res: %dx%d | backend: %s",
		float64(elapsed.Microseconds())/1000.0, a.ctx.Config.Width, a.ctx.Config.Height, a.simulator.Mode())

	if time.Since(a.lastLog) >= time.Second {
		a.lastLog = time.Now()
		avg := a.stats.Average()
		a.log.Infof("avg frame time: %.3fms over %d frames | res: %dx%d | backend: %s",
			float64(avg.Microseconds())/1000.0, a.stats.Count(),
			a.ctx.Config.Width, a.ctx.Config.Height, a.simulator.Mode())
	}
}
