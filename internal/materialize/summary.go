package materialize

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Faultbox/meshprep/pkg/mesh"
)

// Summary accumulates per-mesh reports and run totals.
type Summary struct {
	Meshes []MeshReport

	SeparateCollision bool
	ConvexCollision   bool
	MinTriangles      int
	SourceDir         string

	OriginalTriangles  int
	VisualTriangles    int
	CollisionTriangles int
	OriginalBytes      int64
	NewBytes           int64
}

// add folds a finished mesh into the totals.
func (s *Summary) add(r MeshReport) {
	s.Meshes = append(s.Meshes, r)
	if r.Treatment == TreatmentMissing {
		return
	}
	s.OriginalTriangles += r.Visual.Original
	s.VisualTriangles += r.Visual.Final
	s.OriginalBytes += r.SourceBytes
	s.NewBytes += r.VisualBytes
	if r.CollisionMode != CollisionNone {
		s.CollisionTriangles += r.Collision.Final
	}
}

// Missing returns the basenames that were not found in the source dir.
func (s *Summary) Missing() []string {
	var names []string
	for _, r := range s.Meshes {
		if r.Treatment == TreatmentMissing {
			names = append(names, r.Name)
		}
	}
	return names
}

// VisualReductionPct is the overall visual triangle reduction.
func (s *Summary) VisualReductionPct() float64 {
	return mesh.ReductionPct(s.VisualTriangles, s.OriginalTriangles)
}

// CollisionReductionPct is the overall collision triangle reduction.
func (s *Summary) CollisionReductionPct() float64 {
	return mesh.ReductionPct(s.CollisionTriangles, s.OriginalTriangles)
}

func megabytes(n int64) float64 {
	return float64(n) / 1024 / 1024
}

// Print writes the per-mesh lines and totals in a human readable form.
func (s *Summary) Print(w io.Writer) {
	p := message.NewPrinter(language.English)

	for _, r := range s.Meshes {
		switch r.Treatment {
		case TreatmentMissing:
			p.Fprintf(w, "  SKIP  %s (not found in %s)\n", r.Name, s.SourceDir)
			continue
		case TreatmentBypass:
			p.Fprintf(w, "  %-40s  %8d tri  COPY (under %d threshold)\n",
				r.Name, r.Visual.Original, s.MinTriangles)
		case TreatmentDecimate:
			p.Fprintf(w, "  %-40s  %8d -> %8d tri  (%5.1f%% reduction)  %.1fMB -> %.1fMB\n",
				r.Name, r.Visual.Original, r.Visual.Final, r.Visual.Pct(),
				megabytes(r.SourceBytes), megabytes(r.VisualBytes))
		}

		switch {
		case r.CollisionMode == CollisionNone, r.CollisionMode == CollisionCopy:
		case r.Treatment == TreatmentBypass:
			p.Fprintf(w, "  %-40s  %8d -> %8d tri\n",
				"  (collision "+r.CollisionMode.String()+")", r.Collision.Original, r.Collision.Final)
		default:
			p.Fprintf(w, "  %-40s  %8d -> %8d tri  (%5.1f%% reduction)\n",
				"  (collision "+r.CollisionMode.String()+")",
				r.Collision.Original, r.Collision.Final, r.Collision.Pct())
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 80))
	p.Fprintf(w, "Total original triangles:   %12d\n", s.OriginalTriangles)
	p.Fprintf(w, "Total visual triangles:     %12d\n", s.VisualTriangles)
	if s.SeparateCollision {
		p.Fprintf(w, "Total collision triangles:  %12d\n", s.CollisionTriangles)
	}
	fmt.Fprintf(w, "Overall visual reduction:   %.1f%%\n", s.VisualReductionPct())
	if s.SeparateCollision {
		fmt.Fprintf(w, "Overall collision reduction: %.1f%%\n", s.CollisionReductionPct())
	}
	fmt.Fprintf(w, "Total size:  %.1f MB -> %.1f MB\n", megabytes(s.OriginalBytes), megabytes(s.NewBytes))
}
