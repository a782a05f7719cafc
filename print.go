package htm

import (
	"fmt"
	"io"

	"github.com/gonum/floats"
)

// floatsEqualApprox reports whether two equal-length float64 slices are
// pairwise within a tolerance of 1e-9, standing in for the teacher's
// hand-rolled AlmostEqual/RoundPrec test helpers.
func floatsEqualApprox(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	return floats.EqualApprox(a, b, 1e-9)
}

// PrintParameters writes a human-readable dump of every constructor
// parameter except Seed, plus the derived quantities, gated by nothing (callers gate on
// SpVerbosity themselves, matching temporalPoolerPrint.go's pattern of
// leaving the verbosity check to the caller of each print helper).
func (sp *SpatialPooler) PrintParameters(w io.Writer) {
	fmt.Fprintf(w, "------------ SpatialPooler Parameters ------------\n")
	fmt.Fprintf(w, "inputDims             = %v\n", sp.params.InputDims)
	fmt.Fprintf(w, "columnDims            = %v\n", sp.params.ColumnDims)
	fmt.Fprintf(w, "numInputs             = %d\n", sp.nInputs)
	fmt.Fprintf(w, "numColumns            = %d\n", sp.nColumns)
	fmt.Fprintf(w, "potentialRadius       = %d\n", sp.params.PotentialRadius)
	fmt.Fprintf(w, "potentialPct          = %g\n", sp.params.PotentialPct)
	fmt.Fprintf(w, "globalInhibition      = %v\n", sp.params.GlobalInhibition)
	fmt.Fprintf(w, "numActiveColumnsPerInhArea = %d\n", sp.params.NumActiveColumnsPerInhArea)
	fmt.Fprintf(w, "localAreaDensity      = %g\n", sp.params.LocalAreaDensity)
	fmt.Fprintf(w, "stimulusThreshold     = %d\n", sp.params.StimulusThreshold)
	fmt.Fprintf(w, "synPermActiveInc      = %g\n", sp.params.SynPermActiveInc)
	fmt.Fprintf(w, "synPermInactiveDec    = %g\n", sp.params.SynPermInactiveDec)
	fmt.Fprintf(w, "synPermConnected      = %g\n", sp.params.SynPermConnected)
	fmt.Fprintf(w, "minPctOverlapDutyCycles = %g\n", sp.params.MinPctOverlapDutyCycles)
	fmt.Fprintf(w, "dutyCyclePeriod       = %d\n", sp.params.DutyCyclePeriod)
	fmt.Fprintf(w, "boostStrength         = %g\n", sp.params.BoostStrength)
	fmt.Fprintf(w, "wrapAround            = %v\n", sp.params.WrapAround)
	fmt.Fprintf(w, "spVerbosity           = %d\n", sp.params.SpVerbosity)
	fmt.Fprintf(w, "inhibitionRadius      = %d\n", sp.inhibitionRadius)
	fmt.Fprintf(w, "iterationNum          = %d\n", sp.iterationNum)
	fmt.Fprintf(w, "iterationLearnNum     = %d\n", sp.iterationLearnNum)
	fmt.Fprintf(w, "version               = %d\n", sp.Version())
}
