// Package stl reads and writes STL triangle meshes. Decoding and encoding
// go through github.com/flywave/go-stl, which handles both the binary and
// the ASCII format; this package adds the header-only triangle count and
// header text handling.
package stl

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	gostl "github.com/flywave/go-stl"

	"github.com/Faultbox/meshprep/pkg/encoding"
)

// Binary STL layout.
const (
	HeaderSize = 80
	CountSize  = 4
	FacetSize  = 50 // normal + 3 vertices (12 float32) + uint16 attribute

	// PreambleSize is the header plus the triangle count.
	PreambleSize = HeaderSize + CountSize
)

// ErrTruncatedData is returned when a file is too short for the binary
// preamble.
var ErrTruncatedData = errors.New("truncated STL data")

// Solid and Triangle are the decoded forms of an STL file.
type (
	Solid    = gostl.Solid
	Triangle = gostl.Triangle
)

// BinarySize returns the size of a binary STL with n triangles.
func BinarySize(n uint32) int64 {
	return PreambleSize + int64(n)*FacetSize
}

// ReadTriangleCount reads only the preamble and returns the declared
// triangle count. The facets are not touched.
func ReadTriangleCount(r io.Reader) (uint32, error) {
	var pre [PreambleSize]byte
	if _, err := io.ReadFull(r, pre[:]); err != nil {
		return 0, fmt.Errorf("%w: reading preamble", ErrTruncatedData)
	}
	return binary.LittleEndian.Uint32(pre[HeaderSize:]), nil
}

// CountTriangles returns the triangle count of the STL file at path. For a
// binary file whose size matches its declared count only the preamble is
// read. Anything else (ASCII or damaged data) is decoded in full so the
// count is real or the damage is reported.
func CountTriangles(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening STL: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	if n, err := ReadTriangleCount(f); err == nil && BinarySize(n) == info.Size() {
		return int(n), nil
	}

	s, err := Read(path)
	if err != nil {
		return 0, err
	}
	return len(s.Triangles), nil
}

// Read decodes the STL file at path.
func Read(path string) (*Solid, error) {
	s, err := gostl.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Write encodes s to path in binary form.
func Write(path string, s *Solid) error {
	bin := *s
	bin.IsAscii = false
	if err := bin.WriteFile(path); err != nil {
		return fmt.Errorf("writing STL %s: %w", path, err)
	}
	return nil
}

// NewSolid returns an empty binary solid whose header holds text.
func NewSolid(text string, triangles int) *Solid {
	return &Solid{
		BinaryHeader: encoding.UTF8ToFixedString(text, HeaderSize),
		Triangles:    make([]Triangle, 0, triangles),
	}
}

// HeaderText returns the header of a binary solid, or the name of an ASCII
// one, as UTF-8 text.
func HeaderText(s *Solid) string {
	if s.IsAscii || len(s.BinaryHeader) == 0 {
		return s.Name
	}
	return encoding.FixedStringToUTF8(s.BinaryHeader)
}

// Bounds returns the axis-aligned bounding box of all vertices. An empty
// solid returns zero bounds.
func Bounds(s *Solid) (lo, hi [3]float32) {
	m := s.Measure()
	return m.Min, m.Max
}
