package core

import (
	"math/rand"
	"testing"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutSizes(t *testing.T) {
	assert.Equal(t, uintptr(RawInstanceSize), unsafe.Sizeof(RawInstance{}))
	assert.Equal(t, uintptr(QuadVertexSize), unsafe.Sizeof(QuadVertex{}))
}

func TestNewInstanceStoreAligned(t *testing.T) {
	for _, n := range []int{0, 1, 4, 1000} {
		s := NewInstanceStore(n, 42)

		require.Equal(t, n, s.Len())
		require.Len(t, s.Particles(), n)
		require.Len(t, s.Drifts(), n)
		require.Len(t, s.Raw(), n)

		for i := 0; i < n; i++ {
			raw := s.Raw()[i]
			pos := s.Particles()[i].Position
			tr := raw.Translation()
			for a := 0; a < 3; a++ {
				assert.InDelta(t, float64(pos[a]), float64(tr[a]), 1e-5)
			}
		}
	}
}

func TestNewInstanceStoreDeterministic(t *testing.T) {
	a := NewInstanceStore(256, 7)
	b := NewInstanceStore(256, 7)
	assert.Equal(t, a.Particles(), b.Particles())
	assert.Equal(t, a.Drifts(), b.Drifts())

	c := NewInstanceStore(256, 8)
	assert.NotEqual(t, a.Particles(), c.Particles())
}

func TestDriftSpeed(t *testing.T) {
	s := NewInstanceStore(500, 1)
	for i, d := range s.Drifts() {
		if got := d.Velocity.Len(); got < 0.2-1e-4 || got > 0.2+1e-4 {
			t.Fatalf("drift %d speed = %v, want 0.2", i, got)
		}
	}
}

func TestRawTranslationRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for i := 0; i < 100; i++ {
		p := Particle{
			Position: mgl32.Vec3{
				(rng.Float32() - 0.5) * 1000,
				(rng.Float32() - 0.5) * 1000,
				(rng.Float32() - 0.5) * 1000,
			},
			Rotation: mgl32.QuatRotate(rng.Float32()*6, mgl32.Vec3{0, 0, 1}),
			Color:    mgl32.Vec4{1, 0, 0, 1},
		}
		raw := p.Raw()
		tr := raw.Translation()
		for a := 0; a < 3; a++ {
			assert.InDelta(t, float64(p.Position[a]), float64(tr[a]), 1e-5)
		}
	}
}

func TestAdoptRaw(t *testing.T) {
	s := NewInstanceStore(8, 3)

	data := make([]RawInstance, 8)
	for i := range data {
		p := Particle{
			Position: mgl32.Vec3{float32(i), float32(i * 2), float32(i * 3)},
			Rotation: mgl32.QuatRotate(0, mgl32.Vec3{0, 0, 1}),
			Color:    mgl32.Vec4{0, 1, 0, 1},
		}
		data[i] = p.Raw()
	}

	s.AdoptRaw(data)

	require.Equal(t, data, s.Raw())
	for i := 0; i < 8; i++ {
		want := mgl32.Vec3{float32(i), float32(i * 2), float32(i * 3)}
		assert.Equal(t, want, s.Particles()[i].Position, "particle %d", i)
	}
}

func TestMaxInstances(t *testing.T) {
	assert.Equal(t, 1677721, MaxInstances(134217728))
	assert.Equal(t, 0, MaxInstances(79))
	assert.Equal(t, 1, MaxInstances(80))
	assert.Equal(t, 2_000_000, MaxInstances(160_000_000))
}
