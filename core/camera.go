package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is the CPU-side view description. It owns no GPU resources; the
// 64-byte uniform mirror lives in CameraUniform and is rewritten every frame.
type Camera struct {
	Eye    mgl32.Vec3
	Target mgl32.Vec3
	Up     mgl32.Vec3

	Aspect float32
	Fovy   float32 // vertical field of view, degrees
	Near   float32
	Far    float32
}

func NewCamera(width, height int) *Camera {
	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	return &Camera{
		Eye:    mgl32.Vec3{0, 1, 1000},
		Target: mgl32.Vec3{0, 0, -100},
		Up:     mgl32.Vec3{0, 1, 0},
		Aspect: aspect,
		Fovy:   20,
		Near:   0,
		Far:    10000,
	}
}

// ViewProjection composes a right-handed look-at view with a right-handed,
// OpenGL depth range perspective projection. Pure function of the fields.
func (c *Camera) ViewProjection() mgl32.Mat4 {
	view := mgl32.LookAtV(c.Eye, c.Target, c.Up)
	proj := mgl32.Perspective(mgl32.DegToRad(c.Fovy), c.Aspect, c.Near, c.Far)
	return proj.Mul4(view)
}

// SetViewport recomputes the aspect ratio. Zero-area sizes are ignored so a
// minimized window does not poison the projection.
func (c *Camera) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Aspect = float32(width) / float32(height)
}

// Dolly moves the eye along the depth axis and re-aims the target one unit
// ahead. This keeps a fixed forward direction instead of orbiting; a known
// simplification, not a bug.
func (c *Camera) Dolly(delta float32) {
	c.Eye[2] += delta / 50.0
	c.Target = c.Eye.Add(mgl32.Vec3{0, 0, -1})
}

// CameraUniform mirrors the WGSL CameraUniform struct (64 bytes).
type CameraUniform struct {
	ViewProj [16]float32
}

func NewCameraUniform() CameraUniform {
	var u CameraUniform
	ident := mgl32.Ident4()
	copy(u.ViewProj[:], ident[:])
	return u
}

func (u *CameraUniform) Update(c *Camera) {
	vp := c.ViewProjection()
	copy(u.ViewProj[:], vp[:])
}
