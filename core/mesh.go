package core

// QuadVertex is the per-vertex stream of the billboard quad: position plus UV,
// 20-byte stride. Must match the WGSL VertexInput.
type QuadVertex struct {
	Position [3]float32
	UV       [2]float32
}

const QuadVertexSize = 20

// Unit quad in the XY plane, centered on the origin. Two triangles, CCW.
var QuadVertices = []QuadVertex{
	{Position: [3]float32{-0.5, -0.5, 0}, UV: [2]float32{0, 0}},
	{Position: [3]float32{0.5, -0.5, 0}, UV: [2]float32{1, 0}},
	{Position: [3]float32{-0.5, 0.5, 0}, UV: [2]float32{0, 1}},
	{Position: [3]float32{0.5, 0.5, 0}, UV: [2]float32{1, 1}},
}

var QuadIndices = []uint16{0, 1, 2, 3, 2, 1}
