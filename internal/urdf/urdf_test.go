package urdf

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const testRobot = `<?xml version="1.0"?>
<robot name="arm">
  <!-- exported -->
  <link name="base">
    <inertial><mass value="1.5"/></inertial>
    <visual name="v0">
      <origin xyz="0 0 0" rpy="0 0 0"/>
      <geometry><mesh filename="package://assets/base.stl" scale="0.001 0.001 0.001"/></geometry>
      <material name="grey"/>
    </visual>
    <collision>
      <geometry><mesh filename="package://assets/base.stl"/></geometry>
    </collision>
  </link>
  <joint name="j1" type="revolute">
    <parent link="base"/>
    <child link="arm1"/>
  </joint>
  <link name="arm1">
    <visual>
      <geometry><mesh filename="assets_visual/arm1.STL"/></geometry>
    </visual>
    <visual>
      <geometry><box size="1 1 1"/></geometry>
    </visual>
    <collision>
      <geometry><mesh filename="package://assets/arm1_col.stl"/></geometry>
    </collision>
    <collision>
      <geometry><mesh filename="package://assets/arm1.dae"/></geometry>
    </collision>
  </link>
</robot>
`

func mustParse(t *testing.T, s string) *Document {
	t.Helper()
	d, err := Parse([]byte(s))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return d
}

func TestMeshes(t *testing.T) {
	d := mustParse(t, testRobot)

	got := d.Meshes()
	want := []string{"arm1.STL", "arm1_col.stl", "base.stl"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Meshes() = %v, want %v", got, want)
	}
}

func TestMeshes_Empty(t *testing.T) {
	d := mustParse(t, `<robot name="empty"><link name="a"/></robot>`)
	if got := d.Meshes(); len(got) != 0 {
		t.Errorf("expected no meshes, got %v", got)
	}
}

func TestMeshBasename(t *testing.T) {
	tests := []struct {
		ref  string
		want string
		ok   bool
	}{
		{"package://assets/arm1.stl", "arm1.stl", true},
		{"package://my_robot/meshes/visual/arm1.stl", "arm1.stl", true},
		{"meshes/arm1.stl", "arm1.stl", true},
		{"arm1.stl", "arm1.stl", true},
		{`assets\win\part.STL`, "part.STL", true},
		{"package://assets/arm1.dae", "", false},
		{"", "", false},
	}

	for _, tc := range tests {
		got, ok := MeshBasename(tc.ref)
		if got != tc.want || ok != tc.ok {
			t.Errorf("MeshBasename(%q) = %q, %v; want %q, %v", tc.ref, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParse_Malformed(t *testing.T) {
	inputs := []string{
		"",
		"not xml at all",
		`<robot name="arm><link/></robot>`,
		`<robot><link name=></robot>`,
	}

	for _, in := range inputs {
		if _, err := Parse([]byte(in)); !errors.Is(err, ErrParse) {
			t.Errorf("Parse(%q): expected ErrParse, got %v", in, err)
		}
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.urdf")); err == nil {
		t.Error("expected error for missing document")
	}
}

func TestReferences(t *testing.T) {
	d := mustParse(t, testRobot)

	refs := d.References()
	if len(refs) != 5 {
		t.Fatalf("expected 5 references, got %d: %+v", len(refs), refs)
	}
	if refs[0] != (Reference{Link: "base", Role: RoleVisual, Filename: "package://assets/base.stl"}) {
		t.Errorf("unexpected first reference %+v", refs[0])
	}
	if refs[4].Role != RoleCollision || refs[4].Filename != "package://assets/arm1.dae" {
		t.Errorf("unexpected last reference %+v", refs[4])
	}
}

func TestWriteFile(t *testing.T) {
	d := mustParse(t, `<robot name="a"><link name="l"/></robot>`)
	path := filepath.Join(t.TempDir(), "out", "robot.urdf")

	if err := d.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	out := string(data)
	if !strings.HasPrefix(out, `<?xml version="1.0" encoding="utf-8"?>`) {
		t.Errorf("missing XML declaration: %q", out)
	}
	if !strings.Contains(out, `<robot name="a"><link name="l"/></robot>`) {
		t.Errorf("body changed: %q", out)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the output file, found %d entries", len(entries))
	}
}

func TestWriteTo_KeepsExistingDeclaration(t *testing.T) {
	d := mustParse(t, testRobot)

	data, err := d.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	if n := strings.Count(string(data), "<?xml"); n != 1 {
		t.Errorf("expected one declaration, got %d", n)
	}
}
