package urdf

import (
	"path"
	"strings"

	"github.com/beevik/etree"
)

// Target says where rewritten references point.
type Target struct {
	// Package is prepended to every directory when set.
	Package string
	// VisualDir receives visual mesh references.
	VisualDir string
	// CollisionDir receives collision mesh references. Empty means
	// collision meshes share VisualDir.
	CollisionDir string
}

// Ref builds the package reference for basename inside dir. An absolute
// dir keeps its leading slash, giving package:///abs/dir/basename.
func (t Target) Ref(dir, basename string) string {
	dir = strings.ReplaceAll(dir, `\`, "/")
	return PackageScheme + path.Join(t.Package, dir, basename)
}

// dirFor returns the directory a role's meshes live in.
func (t Target) dirFor(role string) string {
	if role == RoleCollision && t.CollisionDir != "" {
		return t.CollisionDir
	}
	return t.VisualDir
}

// Rewrite returns a copy of d in which every mesh reference under a link's
// visual or collision elements points at the target directory for its role.
// d itself is left untouched. Only the filename attribute of processable
// meshes changes.
func Rewrite(d *Document, t Target) *Document {
	out := &Document{doc: d.doc.Copy()}
	out.eachRoleMesh(func(_, role string, mesh *etree.Element) {
		name, ok := MeshBasename(mesh.SelectAttrValue("filename", ""))
		if !ok {
			return
		}
		mesh.CreateAttr("filename", t.Ref(t.dirFor(role), name))
	})
	return out
}
