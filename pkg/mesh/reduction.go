package mesh

import "golang.org/x/exp/constraints"

// Reduction records a triangle count before and after a mesh operation.
type Reduction struct {
	Original int
	Final    int
}

// Pct returns the reduction percentage (1 - final/original) * 100, or 0
// when the original mesh has no triangles.
func (r Reduction) Pct() float64 {
	return ReductionPct(r.Final, r.Original)
}

// ReductionPct returns (1 - final/original) * 100, or 0 when original is 0.
func ReductionPct[T constraints.Integer](final, original T) float64 {
	if original == 0 {
		return 0
	}
	return (1 - float64(final)/float64(original)) * 100
}
