package urdf

import (
	"path"
	"reflect"
	"strings"
	"testing"
)

func TestTargetRef(t *testing.T) {
	tests := []struct {
		target Target
		dir    string
		want   string
	}{
		{Target{}, "meshes/visual/", "package://meshes/visual/arm1.stl"},
		{Target{}, "meshes/visual", "package://meshes/visual/arm1.stl"},
		{Target{Package: "my_robot_description"}, "meshes/collision/", "package://my_robot_description/meshes/collision/arm1.stl"},
		{Target{}, `meshes\visual`, "package://meshes/visual/arm1.stl"},
		{Target{}, "/abs/meshes/", "package:///abs/meshes/arm1.stl"},
		{Target{}, "", "package://arm1.stl"},
	}

	for _, tc := range tests {
		if got := tc.target.Ref(tc.dir, "arm1.stl"); got != tc.want {
			t.Errorf("Ref(%q) = %q, want %q", tc.dir, got, tc.want)
		}
	}
}

func TestRewrite(t *testing.T) {
	d := mustParse(t, testRobot)
	out := Rewrite(d, Target{VisualDir: "meshes/visual/", CollisionDir: "meshes/collision/"})

	want := []Reference{
		{"base", RoleVisual, "package://meshes/visual/base.stl"},
		{"base", RoleCollision, "package://meshes/collision/base.stl"},
		{"arm1", RoleVisual, "package://meshes/visual/arm1.STL"},
		{"arm1", RoleCollision, "package://meshes/collision/arm1_col.stl"},
		{"arm1", RoleCollision, "package://assets/arm1.dae"},
	}
	if got := out.References(); !reflect.DeepEqual(got, want) {
		t.Errorf("References() after rewrite:\n got %+v\nwant %+v", got, want)
	}

	// The input document is untouched.
	if got := d.References()[0].Filename; got != "package://assets/base.stl" {
		t.Errorf("input was modified: %q", got)
	}
}

func TestRewrite_CollisionFallsBackToVisual(t *testing.T) {
	d := mustParse(t, testRobot)
	out := Rewrite(d, Target{VisualDir: "meshes/visual/"})

	for _, ref := range out.References() {
		if strings.HasSuffix(ref.Filename, ".dae") {
			continue
		}
		if !strings.HasPrefix(ref.Filename, "package://meshes/visual/") {
			t.Errorf("%s %s: expected visual dir, got %q", ref.Link, ref.Role, ref.Filename)
		}
	}
}

func TestRewrite_PreservesBasenames(t *testing.T) {
	d := mustParse(t, testRobot)
	out := Rewrite(d, Target{Package: "pkg", VisualDir: "v", CollisionDir: "c"})

	before := d.References()
	after := out.References()
	if len(before) != len(after) {
		t.Fatalf("reference count changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		b, ok := MeshBasename(before[i].Filename)
		if !ok {
			continue
		}
		a, _ := MeshBasename(after[i].Filename)
		if a != b {
			t.Errorf("reference %d: basename %q became %q", i, b, a)
		}
		wantDir := "pkg/v"
		if before[i].Role == RoleCollision {
			wantDir = "pkg/c"
		}
		if got := path.Dir(NormalizeRef(after[i].Filename)); got != wantDir {
			t.Errorf("reference %d: dir %q, want %q", i, got, wantDir)
		}
	}

	// Resolving the rewritten document yields the same inventory.
	if !reflect.DeepEqual(d.Meshes(), out.Meshes()) {
		t.Errorf("inventory changed: %v -> %v", d.Meshes(), out.Meshes())
	}
}

func TestRewrite_PreservesEverythingElse(t *testing.T) {
	d := mustParse(t, testRobot)
	out := Rewrite(d, Target{VisualDir: "meshes/visual/", CollisionDir: "meshes/collision/"})

	data, err := out.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	got := string(data)

	// Swap the new references back and the document must match the input.
	replacer := strings.NewReplacer(
		`package://meshes/visual/base.stl`, `package://assets/base.stl`,
		`package://meshes/collision/base.stl`, `package://assets/base.stl`,
		`package://meshes/visual/arm1.STL`, `assets_visual/arm1.STL`,
		`package://meshes/collision/arm1_col.stl`, `package://assets/arm1_col.stl`,
	)
	if restored := replacer.Replace(got); restored != testRobot {
		t.Errorf("document changed beyond mesh references:\n%s", restored)
	}
}
