package analysis

import (
	"fmt"
	"math"

	"github.com/shiftlens/shiftlens/pkg/core/model"
)

// relativeEpsilon guards the relative-difference division for near-zero totals.
const relativeEpsilon = 1e-9

// Tolerance bounds how far a decomposed total may drift from its declared
// total before reconciliation fails. A comparison passes if either bound holds.
type Tolerance struct {
	AbsHours float64
	Rel      float64
}

// DefaultTolerance returns the engine defaults: 0.01 hours absolute or 1%
// relative.
func DefaultTolerance() Tolerance {
	return Tolerance{AbsHours: 0.01, Rel: 0.01}
}

// Normalized replaces non-positive bounds with the defaults. The caller is
// expected to flag the fallback; a bad knob never fails a run.
func (t Tolerance) Normalized() (Tolerance, bool) {
	fellBack := false
	defaults := DefaultTolerance()
	if t.AbsHours <= 0 {
		t.AbsHours = defaults.AbsHours
		fellBack = true
	}
	if t.Rel <= 0 {
		t.Rel = defaults.Rel
		fellBack = true
	}
	return t, fellBack
}

// ReconcileAgainstTotal checks a single decomposition against its declared
// grand total. On failure the report is returned for the caller to surface;
// the engine never picks a corrected number itself.
func ReconcileAgainstTotal(d model.DecompositionResult, declaredTotal float64, tol Tolerance) model.ReconciliationReport {
	label := fmt.Sprintf("%s/%s vs declared total", d.Method, d.Axis)
	return compare(label, declaredTotal, d.Sum(), tol)
}

// ReconcileMethods checks two decompositions of the same period and total
// against each other.
func ReconcileMethods(a, b model.DecompositionResult, tol Tolerance) model.ReconciliationReport {
	label := fmt.Sprintf("%s vs %s on %s axis", a.Method, b.Method, a.Axis)
	return compare(label, a.Sum(), b.Sum(), tol)
}

func compare(label string, totalA, totalB float64, tol Tolerance) model.ReconciliationReport {
	abs := math.Abs(totalB - totalA)
	rel := abs / math.Max(math.Abs(totalA), relativeEpsilon)
	return model.ReconciliationReport{
		Comparison:         label,
		MethodATotal:       totalA,
		MethodBTotal:       totalB,
		AbsoluteDifference: abs,
		RelativeDifference: rel,
		WithinTolerance:    abs < tol.AbsHours || rel < tol.Rel,
	}
}
