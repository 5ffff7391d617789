package mesh

import (
	gomath "math"

	"github.com/Faultbox/meshprep/pkg/math"
)

// Box returns an axis-aligned box from the origin to size, 12 triangles.
func Box(size math.Vec3) *Mesh {
	m := &Mesh{Vertices: make([]math.Vec3, 8)}
	// Vertex index = x + 2y + 4z
	for i := range m.Vertices {
		m.Vertices[i] = math.Vec3{
			X: float64(i&1) * size.X,
			Y: float64((i>>1)&1) * size.Y,
			Z: float64((i>>2)&1) * size.Z,
		}
	}
	m.Faces = [][3]uint32{
		{0, 2, 1}, {1, 2, 3}, // -Z
		{4, 5, 6}, {5, 7, 6}, // +Z
		{0, 1, 5}, {0, 5, 4}, // -Y
		{2, 6, 7}, {2, 7, 3}, // +Y
		{0, 4, 6}, {0, 6, 2}, // -X
		{1, 3, 7}, {1, 7, 5}, // +X
	}
	return m
}

// Sphere returns a closed UV sphere with 2*slices*(stacks-1) triangles.
// stacks must be >= 2 and slices >= 3.
func Sphere(radius float64, stacks, slices int) *Mesh {
	m := &Mesh{}
	m.Vertices = append(m.Vertices, math.Vec3{Z: radius})
	for i := 1; i < stacks; i++ {
		theta := gomath.Pi * float64(i) / float64(stacks)
		st, ct := gomath.Sincos(theta)
		for j := 0; j < slices; j++ {
			phi := 2 * gomath.Pi * float64(j) / float64(slices)
			sp, cp := gomath.Sincos(phi)
			m.Vertices = append(m.Vertices, math.Vec3{X: radius * st * cp, Y: radius * st * sp, Z: radius * ct})
		}
	}
	bottom := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, math.Vec3{Z: -radius})

	ring := func(i, j int) uint32 {
		return uint32(1 + (i-1)*slices + j%slices)
	}

	for j := 0; j < slices; j++ {
		m.Faces = append(m.Faces, [3]uint32{0, ring(1, j), ring(1, j+1)})
	}
	for i := 1; i < stacks-1; i++ {
		for j := 0; j < slices; j++ {
			a0, a1 := ring(i, j), ring(i, j+1)
			b0, b1 := ring(i+1, j), ring(i+1, j+1)
			m.Faces = append(m.Faces, [3]uint32{a0, b0, b1}, [3]uint32{a0, b1, a1})
		}
	}
	for j := 0; j < slices; j++ {
		m.Faces = append(m.Faces, [3]uint32{ring(stacks-1, j), bottom, ring(stacks-1, j+1)})
	}
	return m
}

// SignedVolume returns the enclosed volume of a closed mesh; positive when
// faces wind outward.
func (m *Mesh) SignedVolume() float64 {
	var v float64
	for i := range m.Faces {
		t := m.Triangle(i)
		v += t[0].Dot(t[1].Cross(t[2]))
	}
	return v / 6
}
