package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nebula3d/nebula/core"
)

func TestRawInstanceBytesRoundTrip(t *testing.T) {
	store := core.NewInstanceStore(50, 13)
	raw := store.Raw()

	data := RawInstanceBytes(raw)
	require.Len(t, data, 50*core.RawInstanceSize)

	back := RawInstancesFromBytes(data)
	assert.Equal(t, raw, back)
}

func TestRawInstanceBytesEmpty(t *testing.T) {
	assert.Nil(t, RawInstanceBytes(nil))
	assert.Nil(t, RawInstancesFromBytes(nil))
	assert.Nil(t, RawInstancesFromBytes(make([]byte, 79)))
}

func TestRawInstanceBytesLayout(t *testing.T) {
	p := core.Particle{
		Position: mgl32.Vec3{1, 2, 3},
		Rotation: mgl32.QuatRotate(0, mgl32.Vec3{0, 0, 1}),
		Color:    mgl32.Vec4{0.25, 0.5, 0.75, 1},
	}
	data := RawInstanceBytes([]core.RawInstance{p.Raw()})
	require.Len(t, data, core.RawInstanceSize)

	at := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
	}

	// Translation column of the model matrix at elements 12..14.
	assert.Equal(t, float32(1), at(12*4))
	assert.Equal(t, float32(2), at(13*4))
	assert.Equal(t, float32(3), at(14*4))

	// Color follows the matrix at byte 64.
	assert.Equal(t, float32(0.25), at(64))
	assert.Equal(t, float32(0.5), at(68))
	assert.Equal(t, float32(0.75), at(72))
	assert.Equal(t, float32(1), at(76))
}

func TestDriftBytesStride(t *testing.T) {
	drifts := []core.Drift{
		{Velocity: mgl32.Vec3{0.1, 0.2, 0.3}},
		{Velocity: mgl32.Vec3{-1, 0, 1}},
	}
	data := DriftBytes(drifts)
	require.Len(t, data, 32)

	at := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
	}

	assert.Equal(t, float32(0.1), at(0))
	assert.Equal(t, float32(0.2), at(4))
	assert.Equal(t, float32(0.3), at(8))
	assert.Equal(t, float32(0), at(12))

	assert.Equal(t, float32(-1), at(16))
	assert.Equal(t, float32(1), at(24))
}

func TestCameraUniformBytes(t *testing.T) {
	u := core.NewCameraUniform()
	data := cameraUniformBytes(u)
	require.Len(t, data, 64)

	// Identity diagonal at elements 0, 5, 10, 15.
	for _, i := range []int{0, 5, 10, 15} {
		got := math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		assert.Equal(t, float32(1), got, "element %d", i)
	}
	got := math.Float32frombits(binary.LittleEndian.Uint32(data[4:]))
	assert.Equal(t, float32(0), got)
}

func TestQuadGeometry(t *testing.T) {
	require.Len(t, core.QuadVertices, 4)
	require.Len(t, core.QuadIndices, 6)

	data := quadVertexBytes(core.QuadVertices)
	assert.Len(t, data, 4*core.QuadVertexSize)

	for _, v := range core.QuadVertices {
		for a := 0; a < 2; a++ {
			if v.Position[a] != 0.5 && v.Position[a] != -0.5 {
				t.Errorf("quad corner out of unit square: %v", v.Position)
			}
		}
		if v.Position[2] != 0 {
			t.Errorf("quad vertex off the z=0 plane: %v", v.Position)
		}
	}

	for _, i := range core.QuadIndices {
		if i > 3 {
			t.Errorf("index %d out of range", i)
		}
	}
}

func TestClassifySurfaceError(t *testing.T) {
	cases := []struct {
		msg  string
		want SurfaceErrorKind
	}{
		{"Surface image is Lost", SurfaceErrorRecoverable},
		{"surface is outdated", SurfaceErrorRecoverable},
		{"timeout acquiring next image", SurfaceErrorRecoverable},
		{"Device out of memory", SurfaceErrorFatal},
		{"ERROR_OUTOFMEMORY", SurfaceErrorFatal},
		{"something else entirely", SurfaceErrorOther},
	}
	for _, tc := range cases {
		err := errString(tc.msg)
		if got := ClassifySurfaceError(err); got != tc.want {
			t.Errorf("ClassifySurfaceError(%q) = %v, want %v", tc.msg, got, tc.want)
		}
	}
}

type errString string

func (e errString) Error() string { return string(e) }
