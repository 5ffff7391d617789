package mesh

import (
	gomath "math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/meshprep/pkg/math"
	"github.com/Faultbox/meshprep/pkg/stl"
)

func TestBox(t *testing.T) {
	m := Box(math.Vec3{X: 1, Y: 2, Z: 3})

	if m.TriangleCount() != 12 {
		t.Errorf("expected 12 triangles, got %d", m.TriangleCount())
	}
	if v := m.SignedVolume(); gomath.Abs(v-6) > 1e-9 {
		t.Errorf("expected volume 6, got %f", v)
	}

	b := m.Bounds()
	if b.Min != (math.Vec3{}) || b.Max != (math.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("unexpected bounds %+v", b)
	}
}

func TestSphere(t *testing.T) {
	tests := []struct {
		stacks, slices int
		triangles      int
	}{
		{2, 3, 6},
		{8, 16, 224},
		{51, 100, 10000},
	}

	for _, tc := range tests {
		m := Sphere(1, tc.stacks, tc.slices)
		if m.TriangleCount() != tc.triangles {
			t.Errorf("Sphere(%d, %d): expected %d triangles, got %d",
				tc.stacks, tc.slices, tc.triangles, m.TriangleCount())
		}
		if m.SignedVolume() <= 0 {
			t.Errorf("Sphere(%d, %d): faces wind inward", tc.stacks, tc.slices)
		}
	}
}

func TestComputeNormals(t *testing.T) {
	m := Sphere(2, 16, 32)
	m.ComputeNormals()

	if len(m.Normals) != len(m.Vertices) {
		t.Fatalf("expected %d normals, got %d", len(m.Vertices), len(m.Normals))
	}

	// On a sphere centered at the origin, vertex normals point along the position.
	for i, n := range m.Normals {
		dir := m.Vertices[i].Normalize()
		if n.Dot(dir) < 0.95 {
			t.Errorf("vertex %d: normal %v not aligned with %v", i, n, dir)
		}
	}
}

func TestFaceNormal(t *testing.T) {
	m := Box(math.Vec3{X: 1, Y: 1, Z: 1})

	// First face is on the -Z side.
	if n := m.FaceNormal(0); n != (math.Vec3{Z: -1}) {
		t.Errorf("expected -Z normal, got %v", n)
	}
}

func TestFromTrianglesWelds(t *testing.T) {
	a := math.Vec3{X: 0}
	b := math.Vec3{X: 1}
	c := math.Vec3{Y: 1}
	d := math.Vec3{X: 1, Y: 1}

	m := FromTriangles([][3]math.Vec3{{a, b, c}, {b, d, c}})
	if len(m.Vertices) != 4 {
		t.Errorf("expected 4 welded vertices, got %d", len(m.Vertices))
	}
	if m.Faces[1] != [3]uint32{1, 3, 2} {
		t.Errorf("unexpected face indices %v", m.Faces[1])
	}
}

func TestSTLRoundTrip(t *testing.T) {
	m := Sphere(1, 6, 8)
	path := filepath.Join(t.TempDir(), "sphere.stl")

	if err := m.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	n, err := stl.CountTriangles(path)
	if err != nil {
		t.Fatalf("CountTriangles failed: %v", err)
	}
	if n != m.TriangleCount() {
		t.Errorf("header count %d, want %d", n, m.TriangleCount())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Vertices) != len(m.Vertices) {
		t.Errorf("expected %d vertices after welding, got %d", len(m.Vertices), len(loaded.Vertices))
	}
	if loaded.SignedVolume() <= 0 {
		t.Error("winding lost in round trip")
	}

	s := m.ToSTL()
	if s.Triangles[0].Normal == ([3]float32{}) {
		t.Error("expected facet normals to be filled in")
	}
	if got := stl.HeaderText(s); got != stlHeader {
		t.Errorf("header = %q, want %q", got, stlHeader)
	}
}

func TestLoad_ASCII(t *testing.T) {
	const src = `solid tri
facet normal 0 0 1
outer loop
vertex 0 0 0
vertex 1 0 0
vertex 0 1 0
endloop
endfacet
endsolid tri
`
	path := filepath.Join(t.TempDir(), "tri.stl")
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.TriangleCount() != 1 || len(m.Vertices) != 3 {
		t.Errorf("got %d triangles and %d vertices, want 1 and 3", m.TriangleCount(), len(m.Vertices))
	}
}

func TestReductionPct(t *testing.T) {
	tests := []struct {
		name string
		r    Reduction
		want float64
	}{
		{"zero original", Reduction{0, 0}, 0},
		{"eighty percent", Reduction{10000, 2000}, 80},
		{"unchanged", Reduction{500, 500}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Pct(); gomath.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Pct() = %f, want %f", got, tt.want)
			}
		})
	}

	if got := ReductionPct[int64](1, 4); got != 75 {
		t.Errorf("ReductionPct(1, 4) = %f, want 75", got)
	}
}
