// Package urdf reads robot geometry documents, lists the meshes they
// reference and rewrites those references to point at processed assets.
package urdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/beevik/etree"
)

// PackageScheme prefixes package-relative mesh references.
const PackageScheme = "package://"

// MeshSuffix selects which references are treated as processable meshes.
const MeshSuffix = ".stl"

// Document errors.
var (
	ErrParse  = errors.New("malformed geometry document")
	ErrNoRoot = errors.New("geometry document has no root element")
)

// Document is a parsed geometry document.
type Document struct {
	doc *etree.Document
}

// Parse parses a geometry document from raw bytes.
func Parse(data []byte) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, ErrNoRoot)
	}
	return &Document{doc: doc}, nil
}

// Load parses a geometry document from disk.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading geometry document: %w", err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// NormalizeRef strips the package scheme from a mesh reference.
func NormalizeRef(ref string) string {
	return strings.TrimPrefix(ref, PackageScheme)
}

// MeshBasename returns the file name of a mesh reference and whether the
// reference names a processable mesh.
func MeshBasename(ref string) (string, bool) {
	ref = NormalizeRef(strings.TrimSpace(ref))
	if !strings.HasSuffix(strings.ToLower(ref), MeshSuffix) {
		return "", false
	}
	// References are URIs, but tolerate Windows separators from exporters.
	ref = strings.ReplaceAll(ref, `\`, "/")
	return path.Base(ref), true
}

// Meshes returns the unique mesh basenames referenced anywhere in the
// document, sorted.
func (d *Document) Meshes() []string {
	set := make(map[string]struct{})
	for _, el := range d.doc.FindElements("//mesh") {
		if name, ok := MeshBasename(el.SelectAttrValue("filename", "")); ok {
			set[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reference is one mesh reference and the role it appears in.
type Reference struct {
	Link     string
	Role     string // "visual" or "collision"
	Filename string
}

// References lists the mesh references under each link's visual and
// collision elements in document order.
func (d *Document) References() []Reference {
	var refs []Reference
	d.eachRoleMesh(func(link, role string, mesh *etree.Element) {
		refs = append(refs, Reference{
			Link:     link,
			Role:     role,
			Filename: mesh.SelectAttrValue("filename", ""),
		})
	})
	return refs
}

// Roles in which a link references meshes.
const (
	RoleVisual    = "visual"
	RoleCollision = "collision"
)

func (d *Document) eachRoleMesh(fn func(link, role string, mesh *etree.Element)) {
	for _, link := range d.doc.FindElements("//link") {
		name := link.SelectAttrValue("name", "")
		for _, role := range []string{RoleVisual, RoleCollision} {
			for _, el := range link.SelectElements(role) {
				for _, mesh := range el.FindElements(".//mesh") {
					fn(name, role, mesh)
				}
			}
		}
	}
}

// WriteTo writes the document with an XML declaration.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	d.ensureDeclaration()
	return d.doc.WriteTo(w)
}

// Bytes returns the serialized document.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes the document to path. The content goes to a temporary
// file in the same directory first and is renamed into place, so readers
// never see a partial document.
func (d *Document) WriteFile(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return fmt.Errorf("serializing document: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (d *Document) ensureDeclaration() {
	for _, tok := range d.doc.Child {
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == "xml" {
			return
		}
	}
	d.doc.InsertChildAt(0, etree.NewProcInst("xml", `version="1.0" encoding="utf-8"`))
	// Keep the root on its own line.
	if len(d.doc.Child) > 1 {
		if _, ok := d.doc.Child[1].(*etree.CharData); !ok {
			d.doc.InsertChildAt(1, etree.NewText("\n"))
		}
	}
}
