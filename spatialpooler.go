package htm

import (
	"fmt"
	"reflect"

	"github.com/htm-go/spatialpooler/topology"
	"github.com/htm-go/spatialpooler/utils"
)

// spatialPoolerVersion is bumped only on an incompatible persisted-layout
// change; it currently never changes, mirroring SpatialPooler::version_.
const spatialPoolerVersion = 2

// SpatialPooler owns input/column topology, permanence learning via
// Connections, duty-cycle bookkeeping, boosting, and an RNG. It maps
// arbitrary binary input SDRs to fixed-sparsity binary output SDRs.
type SpatialPooler struct {
	params Params

	nInputs  int
	nColumns int

	inputConv  *topology.CoordConverter
	columnConv *topology.CoordConverter

	connections *Connections
	rng         *RNG

	potentialPools [][]int

	overlapDutyCycles    []float64
	activeDutyCycles     []float64
	minOverlapDutyCycles []float64
	boostFactors         []float64
	boostedOverlaps      []float64

	inhibitionRadius int

	iterationNum      int
	iterationLearnNum int
}

// NewSpatialPooler validates params, then runs the initialization procedure
// of §4.5: potential-pool sampling, permanence seeding, raise-to-threshold,
// and an initial inhibition radius.
func NewSpatialPooler(params Params) (*SpatialPooler, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	sp := &SpatialPooler{
		params:   params,
		nInputs:  utils.ProdInt(params.InputDims),
		nColumns: utils.ProdInt(params.ColumnDims),
	}
	if params.PotentialRadius > sp.nInputs {
		sp.params.PotentialRadius = sp.nInputs
	}

	sp.inputConv = topology.NewCoordConverter(params.InputDims)
	sp.columnConv = topology.NewCoordConverter(params.ColumnDims)
	sp.rng = NewRNG(params.Seed)

	sp.connections = NewConnections()
	sp.connections.Initialize(sp.nColumns, sp.nInputs, params.SynPermConnected, 0, 1, params.synPermBelowStimulusInc())

	sp.potentialPools = make([][]int, sp.nColumns)
	sp.overlapDutyCycles = make([]float64, sp.nColumns)
	sp.activeDutyCycles = make([]float64, sp.nColumns)
	sp.minOverlapDutyCycles = make([]float64, sp.nColumns)
	sp.boostFactors = make([]float64, sp.nColumns)
	sp.boostedOverlaps = make([]float64, sp.nColumns)
	for c := range sp.boostFactors {
		sp.boostFactors[c] = 1
	}

	for c := 0; c < sp.nColumns; c++ {
		center := sp.mapColumn(c)
		pool := sp.initMapPotential(center)
		sp.potentialPools[c] = pool

		sp.connections.CreateSegment(c, 1)
		sp.initPermanence(c, pool)
		sp.connections.RaisePermanencesToThreshold(c, sp.params.StimulusThreshold)
	}

	sp.updateInhibitionRadius()
	return sp, nil
}

// mapColumn implements §4.5's "map center" step: scale column c's
// coordinate axis-wise by inputDim/columnDim, floor, and reassemble to an
// input flat index.
func (sp *SpatialPooler) mapColumn(column int) int {
	colCoord := sp.columnConv.ToCoord(column)
	inputCoord := make([]int, len(colCoord))
	for j, cj := range colCoord {
		ratio := float64(sp.params.InputDims[j]) / float64(sp.params.ColumnDims[j])
		inputCoord[j] = int((float64(cj) + 0.5) * ratio)
		if inputCoord[j] >= sp.params.InputDims[j] {
			inputCoord[j] = sp.params.InputDims[j] - 1
		}
	}
	return sp.inputConv.ToIndex(inputCoord)
}

// initMapPotential enumerates center's input neighborhood and samples
// round(|nbhd|*PotentialPct) of it via the pooler's RNG.
func (sp *SpatialPooler) initMapPotential(center int) []int {
	var nbhd []int
	if sp.params.WrapAround {
		nbhd = topology.WrappingNeighborhood(center, sp.params.PotentialRadius, sp.params.InputDims)
	} else {
		nbhd = topology.Neighborhood(center, sp.params.PotentialRadius, sp.params.InputDims)
	}
	numPotential := roundHalfAwayFromZero(float64(len(nbhd)) * sp.params.PotentialPct)
	sampled, err := sp.rng.Sample(nbhd, numPotential)
	if err != nil {
		panic(err)
	}
	return sampled
}

// initPermanence seeds each pool member's synapse per §4.5's initConnectedPct
// = 0.5 coin flip between the connected and non-connected permanence bands.
func (sp *SpatialPooler) initPermanence(column int, pool []int) {
	const initConnectedPct = 0.5
	for _, input := range pool {
		var perm float64
		if sp.rng.Float64() < initConnectedPct {
			perm = sp.rng.RealRange(sp.params.SynPermConnected, 1.0)
		} else {
			perm = sp.rng.RealRange(0, sp.params.SynPermConnected)
		}
		sp.connections.CreateSynapse(column, input, perm)
	}
}

// Compute runs one cycle of §4.5's compute pipeline: overlap, boosting,
// inhibition, and (if learn) adaptation, duty-cycle bookkeeping, and
// periodic radius/min-duty-cycle refresh. It writes the winning columns
// into active and returns the raw overlap counts.
func (sp *SpatialPooler) Compute(input *SDR, learn bool, active *SDR) ([]int, error) {
	if input.Size() != sp.nInputs {
		return nil, errShapeMismatch("input", "size %d does not match nInputs %d", input.Size(), sp.nInputs)
	}
	if err := input.Reshape(sp.params.InputDims); err != nil {
		return nil, err
	}
	if err := active.Reshape(sp.params.ColumnDims); err != nil {
		return nil, err
	}

	sp.iterationNum++
	if learn {
		sp.iterationLearnNum++
	}

	sparseInput, err := input.GetFlatSparse()
	if err != nil {
		return nil, err
	}

	overlaps := sp.connections.ComputeActivity(sparseInput, learn)
	boosted := sp.applyBoosting(overlaps)
	sp.boostedOverlaps = boosted

	winners, err := sp.inhibitColumns(overlaps, boosted)
	if err != nil {
		return nil, err
	}
	if err := active.SetFlatSparse(winners); err != nil {
		return nil, err
	}

	if learn {
		sp.adapt(winners, input)
		sp.updateDutyCycles(overlaps, winners)
		sp.bumpWeakColumns()
		sp.updateBoostFactors()
		if sp.isUpdateRound() {
			sp.updateInhibitionRadius()
			sp.updateMinDutyCycles()
		}
	}

	return overlaps, nil
}

// applyBoosting returns overlaps unchanged when boosting is effectively
// disabled, or overlaps[c]*boostFactor[c] otherwise (§4.5 step 4).
func (sp *SpatialPooler) applyBoosting(overlaps []int) []float64 {
	boosted := make([]float64, sp.nColumns)
	if sp.params.BoostStrength < boostEpsilon {
		for c, o := range overlaps {
			boosted[c] = float64(o)
		}
		return boosted
	}
	for c, o := range overlaps {
		boosted[c] = float64(o) * sp.boostFactors[c]
	}
	return boosted
}

// adapt runs §4.5.4: Hebbian adaptation of every winning column's segment,
// then raises it back to the connected-synapse threshold.
func (sp *SpatialPooler) adapt(winners []int, input *SDR) {
	for _, c := range winners {
		if err := sp.connections.AdaptSegment(c, input, sp.params.SynPermActiveInc, sp.params.SynPermInactiveDec); err != nil {
			panic(err)
		}
		sp.connections.RaisePermanencesToThreshold(c, sp.params.StimulusThreshold)
	}
}

func (sp *SpatialPooler) isUpdateRound() bool {
	return sp.iterationNum%updatePeriodIterations == 0
}

// GetPotential returns column's whole potential pool as a dense mask over
// input space.
func (sp *SpatialPooler) GetPotential(column int) ([]bool, error) {
	if column < 0 || column >= sp.nColumns {
		return nil, errPrecondition("column", "out of range: %d", column)
	}
	mask := make([]bool, sp.nInputs)
	for _, input := range sp.potentialPools[column] {
		mask[input] = true
	}
	return mask, nil
}

// SetPotential replaces column's whole potential pool. Existing synapses on
// the column are left untouched; callers that also want to reset
// permanences should follow with SetPermanence.
func (sp *SpatialPooler) SetPotential(column int, mask []bool) error {
	if column < 0 || column >= sp.nColumns {
		return errPrecondition("column", "out of range: %d", column)
	}
	if len(mask) != sp.nInputs {
		return errShapeMismatch("mask", "length %d does not match nInputs %d", len(mask), sp.nInputs)
	}
	sp.potentialPools[column] = utils.OnIndices(mask)
	return nil
}

// GetPermanence returns column's dense permanence vector over input space,
// filtered to entries >= threshold (threshold 0 means "all", matching
// SpatialPooler::getPermanence).
func (sp *SpatialPooler) GetPermanence(column int, threshold float64) ([]float64, error) {
	if column < 0 || column >= sp.nColumns {
		return nil, errPrecondition("column", "out of range: %d", column)
	}
	perms := make([]float64, sp.nInputs)
	for _, s := range sp.connections.SynapsesForSegment(column) {
		d := sp.connections.DataForSynapse(s)
		if d.Permanence >= threshold {
			perms[d.PresynapticCell] = d.Permanence
		}
	}
	return perms, nil
}

// SetPermanence bulk-writes column's permanences from a dense vector over
// input space. Only entries whose index is in the column's potential pool
// are honored; the rest must be zero.
func (sp *SpatialPooler) SetPermanence(column int, perms []float64) error {
	if column < 0 || column >= sp.nColumns {
		return errPrecondition("column", "out of range: %d", column)
	}
	if len(perms) != sp.nInputs {
		return errShapeMismatch("perms", "length %d does not match nInputs %d", len(perms), sp.nInputs)
	}
	inPool := make(map[int]bool, len(sp.potentialPools[column]))
	for _, input := range sp.potentialPools[column] {
		inPool[input] = true
	}
	for i, p := range perms {
		if p != 0 && !inPool[i] {
			return errPrecondition("perms", "input %d is set but not in column %d's potential pool", i, column)
		}
	}
	existing := append([]SynapseID(nil), sp.connections.SynapsesForSegment(column)...)
	for _, s := range existing {
		sp.connections.DestroySynapse(s)
	}
	for _, input := range sp.potentialPools[column] {
		sp.connections.CreateSynapse(column, input, perms[input])
	}
	return nil
}

// GetConnectedCounts returns, per column, the number of connected synapses.
func (sp *SpatialPooler) GetConnectedCounts() []int {
	counts := make([]int, sp.nColumns)
	for c := 0; c < sp.nColumns; c++ {
		counts[c] = sp.connections.DataForSegment(c).NumConnected
	}
	return counts
}

// GetBoostedOverlaps returns the boosted overlap vector from the most
// recent Compute call.
func (sp *SpatialPooler) GetBoostedOverlaps() []float64 {
	out := make([]float64, len(sp.boostedOverlaps))
	copy(out, sp.boostedOverlaps)
	return out
}

// Version returns the persisted-layout version, compared by Equal.
func (sp *SpatialPooler) Version() int { return spatialPoolerVersion }

// IterationNum returns the total number of Compute calls so far.
func (sp *SpatialPooler) IterationNum() int { return sp.iterationNum }

// IterationLearnNum returns the number of Compute calls made with
// learn=true so far.
func (sp *SpatialPooler) IterationLearnNum() int { return sp.iterationLearnNum }

// InhibitionRadius returns the current local-competition radius in column
// space.
func (sp *SpatialPooler) InhibitionRadius() int { return sp.inhibitionRadius }

// NumInputs returns ∏inputDims.
func (sp *SpatialPooler) NumInputs() int { return sp.nInputs }

// NumColumns returns ∏columnDims.
func (sp *SpatialPooler) NumColumns() int { return sp.nColumns }

// SetBoostStrength updates BoostStrength; a negative value is rejected.
func (sp *SpatialPooler) SetBoostStrength(v float64) error {
	if v < 0 {
		return errPrecondition("BoostStrength", "must be >= 0, got %v", v)
	}
	sp.params.BoostStrength = v
	return nil
}

// SetNumActiveColumnsPerInhArea sets NumActiveColumnsPerInhArea and zeros
// LocalAreaDensity, preserving §3's mutual-exclusion invariant.
func (sp *SpatialPooler) SetNumActiveColumnsPerInhArea(n int) error {
	if n <= 0 {
		return errPrecondition("NumActiveColumnsPerInhArea", "must be > 0, got %v", n)
	}
	sp.params.NumActiveColumnsPerInhArea = n
	sp.params.LocalAreaDensity = 0
	return nil
}

// SetLocalAreaDensity sets LocalAreaDensity and zeros
// NumActiveColumnsPerInhArea, preserving §3's mutual-exclusion invariant.
func (sp *SpatialPooler) SetLocalAreaDensity(d float64) error {
	if d <= 0 || d > maxLocalAreaDensity {
		return errPrecondition("LocalAreaDensity", "must be in (0,%v], got %v", maxLocalAreaDensity, d)
	}
	sp.params.LocalAreaDensity = d
	sp.params.NumActiveColumnsPerInhArea = 0
	return nil
}

// SetSpVerbosity updates the stored verbosity level. PrintParameters and
// String do not consult it.
func (sp *SpatialPooler) SetSpVerbosity(v int) { sp.params.SpVerbosity = v }

// SpVerbosity returns the current verbosity level.
func (sp *SpatialPooler) SpVerbosity() int { return sp.params.SpVerbosity }

// Equal compares two pools' full public and derived state: parameters,
// version, iteration counters, duty cycles, boost factors, potential pools,
// and connections. Two pools that satisfy Equal will produce identical
// output on any subsequent identical Compute call sequence.
func (sp *SpatialPooler) Equal(o *SpatialPooler) bool {
	if sp.Version() != o.Version() {
		return false
	}
	if sp.nInputs != o.nInputs || sp.nColumns != o.nColumns {
		return false
	}
	if !reflect.DeepEqual(sp.params, o.params) {
		return false
	}
	if sp.iterationNum != o.iterationNum || sp.iterationLearnNum != o.iterationLearnNum {
		return false
	}
	if sp.inhibitionRadius != o.inhibitionRadius {
		return false
	}
	if !floatsEqualApprox(sp.overlapDutyCycles, o.overlapDutyCycles) {
		return false
	}
	if !floatsEqualApprox(sp.activeDutyCycles, o.activeDutyCycles) {
		return false
	}
	if !floatsEqualApprox(sp.minOverlapDutyCycles, o.minOverlapDutyCycles) {
		return false
	}
	if !floatsEqualApprox(sp.boostFactors, o.boostFactors) {
		return false
	}
	for c := 0; c < sp.nColumns; c++ {
		if !intsEqual(sp.potentialPools[c], o.potentialPools[c]) {
			return false
		}
	}
	return sp.connections.Equal(o.connections)
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// String renders a one-line summary (input and column counts and the
// iteration number), for use with fmt's %v/%s verbs and debuggers;
// PrintParameters writes the full parameter dump.
func (sp *SpatialPooler) String() string {
	return fmt.Sprintf("SpatialPooler{nInputs=%d, nColumns=%d, iteration=%d}", sp.nInputs, sp.nColumns, sp.iterationNum)
}
