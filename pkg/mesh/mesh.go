// Package mesh provides an indexed triangle mesh built from STL facets.
package mesh

import (
	"github.com/Faultbox/meshprep/pkg/math"
	"github.com/Faultbox/meshprep/pkg/stl"
)

// Header written into STL files produced from a Mesh.
const stlHeader = "meshprep binary STL"

// Mesh is an indexed triangle mesh. Faces wind counter-clockwise when seen
// from outside.
type Mesh struct {
	Vertices []math.Vec3
	Faces    [][3]uint32
	Normals  []math.Vec3 // per vertex, filled by ComputeNormals
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min, Max math.Vec3
}

// Size returns the box extents.
func (b Bounds) Size() math.Vec3 {
	return b.Max.Sub(b.Min)
}

// Contains reports whether p lies in the box, expanded by eps.
func (b Bounds) Contains(p math.Vec3, eps float64) bool {
	return p.X >= b.Min.X-eps && p.Y >= b.Min.Y-eps && p.Z >= b.Min.Z-eps &&
		p.X <= b.Max.X+eps && p.Y <= b.Max.Y+eps && p.Z <= b.Max.Z+eps
}

// TriangleCount returns the number of faces.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// Triangle returns the three corner positions of face i.
func (m *Mesh) Triangle(i int) [3]math.Vec3 {
	f := m.Faces[i]
	return [3]math.Vec3{m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]}
}

// FaceNormal returns the unit normal of face i, or zero for a degenerate face.
func (m *Mesh) FaceNormal(i int) math.Vec3 {
	return m.faceCross(i).Normalize()
}

// faceCross is the unnormalized normal, whose length is twice the face area.
func (m *Mesh) faceCross(i int) math.Vec3 {
	t := m.Triangle(i)
	return t[1].Sub(t[0]).Cross(t[2].Sub(t[0]))
}

// ComputeNormals recomputes per-vertex normals as the area-weighted average
// of the adjacent face normals.
func (m *Mesh) ComputeNormals() {
	normals := make([]math.Vec3, len(m.Vertices))
	for i, f := range m.Faces {
		n := m.faceCross(i)
		for _, idx := range f {
			normals[idx] = normals[idx].Add(n)
		}
	}
	for i := range normals {
		normals[i] = normals[i].Normalize()
	}
	m.Normals = normals
}

// Bounds returns the bounding box of all vertices.
func (m *Mesh) Bounds() Bounds {
	if len(m.Vertices) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: m.Vertices[0], Max: m.Vertices[0]}
	for _, v := range m.Vertices[1:] {
		b.Min = b.Min.Min(v)
		b.Max = b.Max.Max(v)
	}
	return b
}

// Clone returns a deep copy.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Vertices: append([]math.Vec3(nil), m.Vertices...),
		Faces:    append([][3]uint32(nil), m.Faces...),
	}
	if m.Normals != nil {
		c.Normals = append([]math.Vec3(nil), m.Normals...)
	}
	return c
}

// builder welds vertices with identical coordinates while faces are added.
type builder struct {
	mesh  *Mesh
	index map[math.Vec3]uint32
}

func newBuilder(faces int) *builder {
	return &builder{
		mesh: &Mesh{
			Vertices: make([]math.Vec3, 0, faces/2+3),
			Faces:    make([][3]uint32, 0, faces),
		},
		index: make(map[math.Vec3]uint32, faces/2+3),
	}
}

func (b *builder) vertex(p math.Vec3) uint32 {
	if idx, ok := b.index[p]; ok {
		return idx
	}
	idx := uint32(len(b.mesh.Vertices))
	b.mesh.Vertices = append(b.mesh.Vertices, p)
	b.index[p] = idx
	return idx
}

func (b *builder) add(t [3]math.Vec3) {
	b.mesh.Faces = append(b.mesh.Faces, [3]uint32{b.vertex(t[0]), b.vertex(t[1]), b.vertex(t[2])})
}

// FromTriangles builds an indexed mesh from a triangle soup, welding
// vertices that share exact coordinates.
func FromTriangles(tris [][3]math.Vec3) *Mesh {
	b := newBuilder(len(tris))
	for _, t := range tris {
		b.add(t)
	}
	return b.mesh
}

// FromSTL builds an indexed mesh from the triangles of a solid. Stored
// normals are discarded; call ComputeNormals to derive them.
func FromSTL(s *stl.Solid) *Mesh {
	b := newBuilder(len(s.Triangles))
	for i := range s.Triangles {
		v := &s.Triangles[i].Vertices
		b.add([3]math.Vec3{
			math.V3(v[0][0], v[0][1], v[0][2]),
			math.V3(v[1][0], v[1][1], v[1][2]),
			math.V3(v[2][0], v[2][1], v[2][2]),
		})
	}
	return b.mesh
}

// ToSTL converts the mesh to a binary solid with normals recomputed from
// the face winding.
func (m *Mesh) ToSTL() *stl.Solid {
	s := stl.NewSolid(stlHeader, len(m.Faces))
	for i := range m.Faces {
		t := m.Triangle(i)
		var tri stl.Triangle
		tri.Normal = m.FaceNormal(i).Float32()
		for k := range t {
			tri.Vertices[k] = t[k].Float32()
		}
		s.Triangles = append(s.Triangles, tri)
	}
	return s
}

// Load reads an STL file, binary or ASCII, into an indexed mesh.
func Load(path string) (*Mesh, error) {
	s, err := stl.Read(path)
	if err != nil {
		return nil, err
	}
	return FromSTL(s), nil
}

// Save writes the mesh to path as binary STL.
func (m *Mesh) Save(path string) error {
	return stl.Write(path, m.ToSTL())
}
