// Package hull computes convex hulls of triangle meshes for use as
// collision geometry.
package hull

import (
	"errors"
	gomath "math"

	"github.com/Faultbox/meshprep/pkg/math"
	"github.com/Faultbox/meshprep/pkg/mesh"
)

// ErrDegenerate means the points span fewer than three dimensions.
var ErrDegenerate = errors.New("points are coplanar or collinear")

// planeTolerance scales the largest coordinate into the distance below
// which a point counts as on a face plane.
const planeTolerance = 1e-10

// Compute returns the convex hull of m's vertices as a new mesh with
// recomputed normals. A mesh with no triangles comes back as an empty copy
// with a zero result. Flat input (all vertices on one plane) returns the
// source mesh.
func Compute(m *mesh.Mesh) (*mesh.Mesh, mesh.Reduction, error) {
	original := m.TriangleCount()
	if original == 0 {
		return m.Clone(), mesh.Reduction{}, nil
	}

	out, err := Points(m.Vertices)
	if errors.Is(err, ErrDegenerate) {
		out = m.Clone()
	} else if err != nil {
		return nil, mesh.Reduction{}, err
	}
	out.ComputeNormals()

	return out, mesh.Reduction{Original: original, Final: out.TriangleCount()}, nil
}

// Points returns the convex hull of pts using quickhull. Faces wind
// counter-clockwise seen from outside.
func Points(pts []math.Vec3) (*mesh.Mesh, error) {
	q := newQuickhull(pts)
	if err := q.initial(); err != nil {
		return nil, err
	}
	q.run()
	return q.mesh(), nil
}

type face struct {
	v       [3]int
	normal  math.Vec3
	offset  float64
	outside []int
	dead    bool
}

func (f *face) distance(p math.Vec3) float64 {
	return f.normal.Dot(p) - f.offset
}

type edge struct{ a, b int }

type quickhull struct {
	pts   []math.Vec3
	eps   float64
	faces []*face
	edges map[edge]int // directed edge -> owning face
}

func newQuickhull(pts []math.Vec3) *quickhull {
	// Drop duplicates so the tolerance math sees distinct points only.
	seen := make(map[math.Vec3]struct{}, len(pts))
	uniq := make([]math.Vec3, 0, len(pts))
	var extent float64
	for _, p := range pts {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		uniq = append(uniq, p)
		extent = gomath.Max(extent, p.MaxAbs())
	}
	return &quickhull{
		pts:   uniq,
		eps:   planeTolerance * gomath.Max(extent, 1e-30),
		edges: make(map[edge]int),
	}
}

// initial builds the starting tetrahedron from extreme points and assigns
// every other point to a face it lies above.
func (q *quickhull) initial() error {
	if len(q.pts) < 4 {
		return ErrDegenerate
	}

	// Most distant pair among the axis extremes.
	var ext [6]int
	for i, p := range q.pts {
		for k := 0; k < 3; k++ {
			if coord(p, k) < coord(q.pts[ext[2*k]], k) {
				ext[2*k] = i
			}
			if coord(p, k) > coord(q.pts[ext[2*k+1]], k) {
				ext[2*k+1] = i
			}
		}
	}
	i0, i1, best := 0, 0, -1.0
	for a := 0; a < 6; a++ {
		for b := a + 1; b < 6; b++ {
			if d := q.pts[ext[a]].Distance(q.pts[ext[b]]); d > best {
				i0, i1, best = ext[a], ext[b], d
			}
		}
	}
	if best <= q.eps {
		return ErrDegenerate
	}

	// Farthest from the line i0-i1.
	dir := q.pts[i1].Sub(q.pts[i0]).Normalize()
	i2, best := -1, q.eps
	for i, p := range q.pts {
		if d := p.Sub(q.pts[i0]).Cross(dir).Length(); d > best {
			i2, best = i, d
		}
	}
	if i2 < 0 {
		return ErrDegenerate
	}

	// Farthest from the plane i0-i1-i2.
	n := q.pts[i1].Sub(q.pts[i0]).Cross(q.pts[i2].Sub(q.pts[i0])).Normalize()
	i3, best := -1, q.eps
	for i, p := range q.pts {
		if d := gomath.Abs(n.Dot(p.Sub(q.pts[i0]))); d > best {
			i3, best = i, d
		}
	}
	if i3 < 0 {
		return ErrDegenerate
	}

	// Orient so i3 is below the base face.
	if n.Dot(q.pts[i3].Sub(q.pts[i0])) > 0 {
		i1, i2 = i2, i1
	}
	base := []int{
		q.addFace(i0, i1, i2),
		q.addFace(i0, i3, i1),
		q.addFace(i1, i3, i2),
		q.addFace(i2, i3, i0),
	}

	used := map[int]bool{i0: true, i1: true, i2: true, i3: true}
	candidates := make([]int, 0, len(q.pts))
	for i := range q.pts {
		if !used[i] {
			candidates = append(candidates, i)
		}
	}
	q.assign(candidates, base)
	return nil
}

func (q *quickhull) addFace(a, b, c int) int {
	pa, pb, pc := q.pts[a], q.pts[b], q.pts[c]
	n := pb.Sub(pa).Cross(pc.Sub(pa)).Normalize()
	f := &face{v: [3]int{a, b, c}, normal: n, offset: n.Dot(pa)}
	idx := len(q.faces)
	q.faces = append(q.faces, f)
	q.edges[edge{a, b}] = idx
	q.edges[edge{b, c}] = idx
	q.edges[edge{c, a}] = idx
	return idx
}

// assign gives each point to the first face it is strictly above. Points
// above none of the faces are inside the hull and dropped.
func (q *quickhull) assign(points []int, faces []int) {
	for _, p := range points {
		for _, fi := range faces {
			f := q.faces[fi]
			if f.distance(q.pts[p]) > q.eps {
				f.outside = append(f.outside, p)
				break
			}
		}
	}
}

func (q *quickhull) run() {
	stack := make([]int, 0, len(q.faces))
	for i := range q.faces {
		stack = append(stack, i)
	}

	for len(stack) > 0 {
		fi := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		f := q.faces[fi]
		if f.dead || len(f.outside) == 0 {
			continue
		}

		// Farthest outside point becomes the new apex.
		apex, far := -1, -1.0
		for _, p := range f.outside {
			if d := f.distance(q.pts[p]); d > far {
				apex, far = p, d
			}
		}
		ap := q.pts[apex]

		visible, isVisible := q.visibleFrom(fi, ap)

		// Horizon edges border a visible face and a hidden one.
		var horizon []edge
		var orphans []int
		for _, vi := range visible {
			vf := q.faces[vi]
			for k := 0; k < 3; k++ {
				e := edge{vf.v[k], vf.v[(k+1)%3]}
				if twin, ok := q.edges[edge{e.b, e.a}]; ok && !q.faces[twin].dead {
					if !isVisible[twin] {
						horizon = append(horizon, e)
					}
				}
			}
			for _, p := range vf.outside {
				if p != apex {
					orphans = append(orphans, p)
				}
			}
		}
		for _, vi := range visible {
			vf := q.faces[vi]
			vf.dead = true
			vf.outside = nil
			for k := 0; k < 3; k++ {
				e := edge{vf.v[k], vf.v[(k+1)%3]}
				if q.edges[e] == vi {
					delete(q.edges, e)
				}
			}
		}

		created := make([]int, 0, len(horizon))
		for _, e := range horizon {
			created = append(created, q.addFace(e.a, e.b, apex))
		}
		q.assign(orphans, created)
		stack = append(stack, created...)
	}
}

// visibleFrom collects every face reachable from start whose plane p is
// above, walking face adjacency.
func (q *quickhull) visibleFrom(start int, p math.Vec3) ([]int, map[int]bool) {
	visible := []int{start}
	isVisible := map[int]bool{start: true}
	seen := map[int]bool{start: true}
	for i := 0; i < len(visible); i++ {
		f := q.faces[visible[i]]
		for k := 0; k < 3; k++ {
			twin, ok := q.edges[edge{f.v[(k+1)%3], f.v[k]}]
			if !ok || seen[twin] || q.faces[twin].dead {
				continue
			}
			seen[twin] = true
			if q.faces[twin].distance(p) > q.eps {
				visible = append(visible, twin)
				isVisible[twin] = true
			}
		}
	}
	return visible, isVisible
}

func coord(p math.Vec3, k int) float64 {
	switch k {
	case 0:
		return p.X
	case 1:
		return p.Y
	default:
		return p.Z
	}
}

func (q *quickhull) mesh() *mesh.Mesh {
	out := &mesh.Mesh{}
	remap := make(map[int]uint32)
	index := func(p int) uint32 {
		if idx, ok := remap[p]; ok {
			return idx
		}
		idx := uint32(len(out.Vertices))
		out.Vertices = append(out.Vertices, q.pts[p])
		remap[p] = idx
		return idx
	}
	for _, f := range q.faces {
		if f.dead {
			continue
		}
		out.Faces = append(out.Faces, [3]uint32{index(f.v[0]), index(f.v[1]), index(f.v[2])})
	}
	return out
}
