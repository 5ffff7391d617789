// Package decimate reduces triangle meshes with quadric error metric edge
// collapse.
package decimate

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/fogleman/simplify"

	"github.com/Faultbox/meshprep/pkg/math"
	"github.com/Faultbox/meshprep/pkg/mesh"
)

// MinTriangles is the floor for any decimation target.
const MinTriangles = 50

// ErrInvalidRatio is returned for ratios outside (0, 1].
var ErrInvalidRatio = errors.New("decimation ratio must be in (0, 1]")

// TargetCount returns max(floor(original*ratio), MinTriangles).
func TargetCount(original int, ratio float64) int {
	target := int(gomath.Floor(float64(original) * ratio))
	if target < MinTriangles {
		target = MinTriangles
	}
	return target
}

// Decimate reduces m toward TargetCount(m.TriangleCount(), ratio) triangles.
// The input is not modified. A mesh with no triangles, or one already at or
// below the target, comes back as a copy with the count unchanged. The
// returned mesh always has per-vertex normals recomputed.
func Decimate(m *mesh.Mesh, ratio float64) (*mesh.Mesh, mesh.Reduction, error) {
	if !(ratio > 0 && ratio <= 1) {
		return nil, mesh.Reduction{}, fmt.Errorf("%w: got %g", ErrInvalidRatio, ratio)
	}

	original := m.TriangleCount()
	if original == 0 {
		return m.Clone(), mesh.Reduction{}, nil
	}

	target := TargetCount(original, ratio)
	if target >= original {
		out := m.Clone()
		out.ComputeNormals()
		return out, mesh.Reduction{Original: original, Final: original}, nil
	}

	// simplify truncates len*factor, so aim half a triangle above the target
	// to land on it exactly.
	factor := (float64(target) + 0.5) / float64(original)
	reduced := toSimplify(m).Simplify(factor)

	out := fromSimplify(reduced)
	if out.TriangleCount() > original {
		// Never hand back more than we were given.
		out = m.Clone()
	}
	out.ComputeNormals()

	return out, mesh.Reduction{Original: original, Final: out.TriangleCount()}, nil
}

func toSimplify(m *mesh.Mesh) *simplify.Mesh {
	tris := make([]*simplify.Triangle, len(m.Faces))
	for i := range m.Faces {
		t := m.Triangle(i)
		tris[i] = simplify.NewTriangle(toVector(t[0]), toVector(t[1]), toVector(t[2]))
	}
	return simplify.NewMesh(tris)
}

func fromSimplify(s *simplify.Mesh) *mesh.Mesh {
	tris := make([][3]math.Vec3, 0, len(s.Triangles))
	for _, t := range s.Triangles {
		tri := [3]math.Vec3{fromVector(t.V1), fromVector(t.V2), fromVector(t.V3)}
		if tri[0] == tri[1] || tri[1] == tri[2] || tri[0] == tri[2] {
			continue
		}
		tris = append(tris, tri)
	}
	return mesh.FromTriangles(tris)
}

func toVector(v math.Vec3) simplify.Vector {
	return simplify.Vector{X: v.X, Y: v.Y, Z: v.Z}
}

func fromVector(v simplify.Vector) math.Vec3 {
	return math.Vec3{X: v.X, Y: v.Y, Z: v.Z}
}
