package meshprep

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/Faultbox/meshprep/internal/config"
	"github.com/Faultbox/meshprep/internal/urdf"
	"github.com/Faultbox/meshprep/pkg/math"
	"github.com/Faultbox/meshprep/pkg/mesh"
	"github.com/Faultbox/meshprep/pkg/stl"
)

const robot = `<?xml version="1.0"?>
<robot name="dual_arm">
  <link name="base">
    <visual>
      <geometry><mesh filename="package://dual_arm/meshes/body.stl"/></geometry>
    </visual>
    <collision>
      <geometry><mesh filename="package://dual_arm/meshes/body.stl"/></geometry>
    </collision>
  </link>
  <link name="gripper">
    <visual>
      <geometry><mesh filename="package://dual_arm/meshes/gripper.stl"/></geometry>
    </visual>
    <collision>
      <geometry><mesh filename="package://dual_arm/meshes/lost.stl"/></geometry>
    </collision>
  </link>
</robot>
`

// setup writes the document and source meshes and returns a config
// pointing at them.
func setup(t *testing.T, doc string) *config.Config {
	t.Helper()
	dir := t.TempDir()

	input := filepath.Join(dir, "robot.urdf")
	if err := os.WriteFile(input, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	assets := filepath.Join(dir, "assets")
	if err := os.MkdirAll(assets, 0755); err != nil {
		t.Fatal(err)
	}
	if err := mesh.Sphere(1, 51, 100).Save(filepath.Join(assets, "body.stl")); err != nil {
		t.Fatal(err)
	}
	if err := mesh.Box(math.Vec3{X: 0.1, Y: 0.2, Z: 0.3}).Save(filepath.Join(assets, "gripper.stl")); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Input = input
	cfg.Output = filepath.Join(dir, "robot_sim.urdf")
	cfg.Mesh.Ratio = 0.2
	cfg.Mesh.MinTriangles = 5000
	cfg.Mesh.ConvexCollision = true
	return cfg
}

func TestRun(t *testing.T) {
	cfg := setup(t, robot)

	var report bytes.Buffer
	res, err := Run(context.Background(), cfg, zap.NewNop(), &report)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantMeshes := []string{"body.stl", "gripper.stl", "lost.stl"}
	if strings.Join(res.Meshes, ",") != strings.Join(wantMeshes, ",") {
		t.Errorf("Meshes = %v, want %v", res.Meshes, wantMeshes)
	}

	body, err := stl.CountTriangles(filepath.Join(res.Paths.VisualDir, "body.stl"))
	if err != nil {
		t.Fatalf("visual body: %v", err)
	}
	if body >= 10000 {
		t.Errorf("body visual triangles = %d, want reduced", body)
	}
	for _, name := range []string{"body.stl", "gripper.stl"} {
		if _, err := os.Stat(filepath.Join(res.Paths.CollisionDir, name)); err != nil {
			t.Errorf("collision %s: %v", name, err)
		}
	}

	out, err := urdf.Load(cfg.Output)
	if err != nil {
		t.Fatalf("loading output: %v", err)
	}
	want := map[string]string{
		"base/visual":       "package://meshes/visual/body.stl",
		"base/collision":    "package://meshes/collision/body.stl",
		"gripper/visual":    "package://meshes/visual/gripper.stl",
		"gripper/collision": "package://meshes/collision/lost.stl",
	}
	for _, ref := range out.References() {
		key := ref.Link + "/" + ref.Role
		if ref.Filename != want[key] {
			t.Errorf("%s = %q, want %q", key, ref.Filename, want[key])
		}
	}

	text := report.String()
	for _, s := range []string{"Found 3 unique STL meshes", "Collision mode: CONVEX HULL", "SKIP  lost.stl", "URDF written"} {
		if !strings.Contains(text, s) {
			t.Errorf("report missing %q", s)
		}
	}
}

func TestRun_PackageName(t *testing.T) {
	cfg := setup(t, robot)
	cfg.PackageName = "dual_arm_description"
	cfg.Mesh.ConvexCollision = false

	if _, err := Run(context.Background(), cfg, zap.NewNop(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	out, err := urdf.Load(cfg.Output)
	if err != nil {
		t.Fatal(err)
	}
	for _, ref := range out.References() {
		if !strings.HasPrefix(ref.Filename, "package://dual_arm_description/meshes/visual/") {
			t.Errorf("%s/%s = %q, want visual dir under package", ref.Link, ref.Role, ref.Filename)
		}
	}
}

func TestRun_MalformedDocument(t *testing.T) {
	cfg := setup(t, "<robot><link></robot>")

	_, err := Run(context.Background(), cfg, zap.NewNop(), nil)
	if !errors.Is(err, urdf.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if _, err := os.Stat(cfg.Output); !os.IsNotExist(err) {
		t.Error("no output document should be written")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(cfg.Input), "meshes")); !os.IsNotExist(err) {
		t.Error("no mesh output should be written")
	}
}

func TestRun_MissingDocument(t *testing.T) {
	cfg := setup(t, robot)
	cfg.Input = filepath.Join(t.TempDir(), "nope.urdf")

	if _, err := Run(context.Background(), cfg, zap.NewNop(), nil); err == nil {
		t.Fatal("expected error for missing document")
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := setup(t, robot)
	cfg.Mesh.Ratio = 0

	_, err := Run(context.Background(), cfg, zap.NewNop(), nil)
	if !errors.Is(err, config.ErrInvalidRatio) {
		t.Fatalf("expected ErrInvalidRatio, got %v", err)
	}
}

func TestRun_CorruptMeshWritesNoDocument(t *testing.T) {
	cfg := setup(t, robot)
	bad := filepath.Join(filepath.Dir(cfg.Input), "assets", "gripper.stl")
	if err := os.WriteFile(bad, []byte("not an stl"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Run(context.Background(), cfg, zap.NewNop(), nil); err == nil {
		t.Fatal("expected error for corrupt mesh")
	}
	if _, err := os.Stat(cfg.Output); !os.IsNotExist(err) {
		t.Error("no output document should be written")
	}
}
