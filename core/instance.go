package core

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

// Particle is the CPU-owned logical state. It is authoritative while the CPU
// backend holds write authority and goes stale (but is kept) while the GPU
// backend owns the instance buffer.
type Particle struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Color    mgl32.Vec4
}

// Drift is the immutable per-particle velocity applied every simulation step.
// Paired 1:1 with Particle by index.
type Drift struct {
	Velocity mgl32.Vec3
}

// RawInstance matches the WGSL ParticleInstance layout exactly: a column-major
// mat4x4<f32> model followed by a vec4<f32> color. 80 bytes, the per-instance
// vertex stream stride. The translation lives in column 3 (elements 12..14).
type RawInstance struct {
	Model [16]float32
	Color [4]float32
}

const RawInstanceSize = 80

// Raw flattens the particle into its GPU form: translate(position) composed
// with rotate(rotation).
func (p *Particle) Raw() RawInstance {
	model := mgl32.Translate3D(p.Position[0], p.Position[1], p.Position[2]).
		Mul4(p.Rotation.Mat4())
	var r RawInstance
	copy(r.Model[:], model[:])
	copy(r.Color[:], p.Color[:])
	return r
}

// Translation extracts the position column of the model matrix.
func (r *RawInstance) Translation() mgl32.Vec3 {
	return mgl32.Vec3{r.Model[12], r.Model[13], r.Model[14]}
}

// MaxInstances is the largest particle count whose instance data fits a single
// storage binding of the given byte limit. The compute backend binds the whole
// instance buffer as one read_write storage buffer, so this is the cap that
// matters when it is enabled.
func MaxInstances(storageBindingLimit uint64) int {
	return int(storageBindingLimit / RawInstanceSize)
}

// InstanceStore owns the three index-aligned containers for the particle
// population. Capacity is fixed at construction; there is no spawn/despawn.
// Mutations of the raw mirror never reach the device by themselves - callers
// upload explicitly through the buffer manager.
type InstanceStore struct {
	particles []Particle
	drifts    []Drift
	raw       []RawInstance
}

// NewInstanceStore samples n particles. Spread and color constants follow the
// field the renderer was tuned for: an 850x820 sheet pushed up to 1000 deep,
// green-blue palette warming toward +x.
func NewInstanceStore(n int, seed int64) *InstanceStore {
	rng := rand.New(rand.NewSource(seed))

	s := &InstanceStore{
		particles: make([]Particle, n),
		drifts:    make([]Drift, n),
		raw:       make([]RawInstance, n),
	}

	for i := range s.particles {
		x := (rng.Float32() - 0.5) * 850.0
		y := (rng.Float32() - 0.5) * 820.0
		z := (rng.Float32() - 0.1) * 1000.0

		s.particles[i] = Particle{
			Position: mgl32.Vec3{x, y, z},
			Rotation: mgl32.QuatRotate(0, mgl32.Vec3{0, 0, 1}),
			Color: mgl32.Vec4{
				0.12 + rng.Float32()/4.0 + (x/850.0+0.5)/2.0,
				0.75 + rng.Float32()/5.0,
				rng.Float32(),
				1.0,
			},
		}
	}

	for i := range s.drifts {
		dir := mgl32.Vec3{
			rng.Float32() - 0.5,
			rng.Float32() - 0.5,
			rng.Float32() - 0.5,
		}
		if dir.Len() == 0 {
			dir = mgl32.Vec3{1, 0, 0}
		}
		s.drifts[i] = Drift{Velocity: dir.Normalize().Mul(1.0 / 5.0)}
	}

	for i := range s.raw {
		s.raw[i] = s.particles[i].Raw()
	}

	return s
}

func (s *InstanceStore) Len() int { return len(s.particles) }

// Particles returns the logical state. Index i refers to the same particle
// across Particles, Drifts and Raw for the process lifetime.
func (s *InstanceStore) Particles() []Particle { return s.particles }

func (s *InstanceStore) Drifts() []Drift { return s.drifts }

// Raw is the host mirror of the device instance buffer.
func (s *InstanceStore) Raw() []RawInstance { return s.raw }

func (s *InstanceStore) WriteRaw(i int, r RawInstance) { s.raw[i] = r }

// AdoptRaw installs device-read-back instance data as the new host mirror and
// reconciles particle positions from the translation columns. Called once a
// GPU->CPU switch has drained; after it returns the CPU backend may be granted
// write authority.
func (s *InstanceStore) AdoptRaw(data []RawInstance) {
	n := copy(s.raw, data)
	for i := 0; i < n; i++ {
		s.particles[i].Position = s.raw[i].Translation()
	}
}
