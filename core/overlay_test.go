package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOverlayRendererAtlas(t *testing.T) {
	o, err := NewOverlayRenderer(18)
	require.NoError(t, err)
	require.NotNil(t, o.AtlasImage)

	// Every printable ASCII rune should have landed in the atlas.
	for r := rune(33); r < 127; r++ {
		if _, ok := o.glyphs[r]; !ok {
			t.Errorf("rune %q missing from atlas", r)
		}
	}

	// The atlas must contain non-zero coverage somewhere.
	any := false
	for _, a := range o.AtlasImage.Pix {
		if a != 0 {
			any = true
			break
		}
	}
	if !any {
		t.Error("atlas is entirely empty")
	}
}

func TestOverlayBuildVertices(t *testing.T) {
	o, err := NewOverlayRenderer(18)
	require.NoError(t, err)

	items := []OverlayItem{{
		Text:     "fps",
		Position: [2]float32{10, 10},
		Scale:    1,
		Color:    [4]float32{1, 1, 1, 1},
	}}

	verts := o.BuildVertices(items, 1500, 900)
	require.Len(t, verts, 3*6)

	for i, v := range verts {
		if v.Pos[0] < -1 || v.Pos[0] > 1 || v.Pos[1] < -1 || v.Pos[1] > 1 {
			t.Errorf("vertex %d outside NDC: %v", i, v.Pos)
		}
		if v.UV[0] < 0 || v.UV[0] > 1 || v.UV[1] < 0 || v.UV[1] > 1 {
			t.Errorf("vertex %d uv out of range: %v", i, v.UV)
		}
	}
}

func TestOverlayBuildVerticesNewline(t *testing.T) {
	o, err := NewOverlayRenderer(18)
	require.NoError(t, err)

	one := o.BuildVertices([]OverlayItem{{Text: "a", Position: [2]float32{0, 0}, Scale: 1, Color: [4]float32{1, 1, 1, 1}}}, 800, 600)
	two := o.BuildVertices([]OverlayItem{{Text: "a\na", Position: [2]float32{0, 0}, Scale: 1, Color: [4]float32{1, 1, 1, 1}}}, 800, 600)

	require.Len(t, two, 2*len(one))

	// The second line sits below the first in NDC (smaller y).
	if two[6].Pos[1] >= two[0].Pos[1] {
		t.Errorf("second line not below first: %v vs %v", two[6].Pos[1], two[0].Pos[1])
	}
}
