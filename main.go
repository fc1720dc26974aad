package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/nebula3d/nebula/app"
	"github.com/nebula3d/nebula/sim"
)

func init() {
	// GLFW event handling must run on the main OS thread.
	runtime.LockOSThread()
}

func main() {
	particles := flag.Int("particles", 2_000_000, "particle count, clamped to device limits")
	backend := flag.String("backend", "gpu", "initial simulation backend: gpu or cpu")
	debug := flag.Bool("debug", false, "per-frame debug logging")
	flag.Parse()

	initial := sim.ModeGPU
	if *backend == "cpu" {
		initial = sim.ModeCPU
	}

	if err := run(*particles, initial, *debug); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run(particles int, initial sim.Mode, debug bool) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to init glfw: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	window, err := glfw.CreateWindow(1500, 900, "Nebula", nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	defer window.Destroy()

	a, err := app.New(window, app.Config{
		Particles:   particles,
		InitialMode: initial,
		Debug:       debug,
	})
	if err != nil {
		return err
	}

	window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		a.Resize(width, height)
	})
	window.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		a.HandleScroll(yoff * 120)
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeySpace:
			a.RequestBackendSwitch()
		case glfw.KeyD:
			a.ToggleDebug()
		}
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		if err := a.Frame(); err != nil {
			return err
		}
	}
	return nil
}
