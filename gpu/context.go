package gpu

import (
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Context bundles the window and every long-lived GPU resource derived from
// it. The surface is created from the window and must not outlive it, so the
// two travel together in one owner; callers receive the Context by reference
// and never hold the surface on its own.
type Context struct {
	Window  *glfw.Window
	Surface *wgpu.Surface
	Adapter *wgpu.Adapter
	Device  *wgpu.Device
	Queue   *wgpu.Queue
	Config  *wgpu.SurfaceConfiguration
}

// NewContext acquires an adapter, device and queue, and configures the
// surface for the window's current framebuffer size. Immediate present mode:
// the frame loop should never stall on vsync.
func NewContext(window *glfw.Window) (*Context, error) {
	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(window))

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, err
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		return nil, err
	}
	queue := device.GetQueue()

	width, height := window.GetFramebufferSize()
	caps := surface.GetCapabilities(adapter)

	config := &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeImmediate,
		AlphaMode:   caps.AlphaModes[0],
	}
	surface.Configure(adapter, device, config)

	return &Context{
		Window:  window,
		Surface: surface,
		Adapter: adapter,
		Device:  device,
		Queue:   queue,
		Config:  config,
	}, nil
}

// Resize reconfigures the surface. Zero-area sizes are ignored.
func (c *Context) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Config.Width = uint32(width)
	c.Config.Height = uint32(height)
	c.Surface.Configure(c.Adapter, c.Device, c.Config)
}

// Reconfigure re-applies the current configuration, used to recover from a
// lost or outdated surface.
func (c *Context) Reconfigure() {
	c.Surface.Configure(c.Adapter, c.Device, c.Config)
}

// SurfaceErrorKind classifies failures from Surface.GetCurrentTexture.
type SurfaceErrorKind int

const (
	// SurfaceErrorRecoverable: reconfigure and retry next frame.
	SurfaceErrorRecoverable SurfaceErrorKind = iota
	// SurfaceErrorFatal: device state is no longer trustworthy, halt.
	SurfaceErrorFatal
	// SurfaceErrorOther: log and skip the frame.
	SurfaceErrorOther
)

// ClassifySurfaceError maps an acquisition error onto the retry policy. The
// binding surfaces wgpu-native status codes as error text, so this matches on
// the stable substrings.
func ClassifySurfaceError(err error) SurfaceErrorKind {
	if err == nil {
		return SurfaceErrorOther
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "lost") || strings.Contains(msg, "outdated") || strings.Contains(msg, "timeout"):
		return SurfaceErrorRecoverable
	case strings.Contains(msg, "out of memory") || strings.Contains(msg, "outofmemory"):
		return SurfaceErrorFatal
	default:
		return SurfaceErrorOther
	}
}
