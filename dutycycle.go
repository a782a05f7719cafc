package htm

import (
	"math"

	"github.com/gonum/floats"

	"github.com/htm-go/spatialpooler/topology"
)

// boostEpsilon mirrors the C++ implementation's threshold below which
// boosting is treated as disabled rather than computing exp(0)==1 the long
// way on every cycle.
const boostEpsilon = 1e-10

// updateDutyCycles applies the EMA update of §4.5.5 to both duty cycle
// vectors in place, using gonum/floats for the decay/increment arithmetic
// exactly as a vectorized version of the per-column loop the original
// describes.
func (sp *SpatialPooler) updateDutyCycles(overlaps []int, active []int) {
	period := float64(sp.params.DutyCyclePeriod)
	if float64(sp.iterationNum) < period {
		period = float64(sp.iterationNum)
	}
	decay := (period - 1) / period
	inc := 1 / period

	overlapIndicator := make([]float64, sp.nColumns)
	for c, o := range overlaps {
		if o > 0 {
			overlapIndicator[c] = 1
		}
	}
	activeIndicator := make([]float64, sp.nColumns)
	for _, c := range active {
		activeIndicator[c] = 1
	}

	floats.Scale(decay, sp.overlapDutyCycles)
	floats.AddScaled(sp.overlapDutyCycles, inc, overlapIndicator)

	floats.Scale(decay, sp.activeDutyCycles)
	floats.AddScaled(sp.activeDutyCycles, inc, activeIndicator)
}

// bumpWeakColumns implements §4.5.8's bump step: any column whose overlap
// duty cycle has fallen below its minimum gets its whole segment bumped by
// synPermBelowStimulusInc.
func (sp *SpatialPooler) bumpWeakColumns() {
	inc := sp.params.synPermBelowStimulusInc()
	for c := 0; c < sp.nColumns; c++ {
		if sp.overlapDutyCycles[c] < sp.minOverlapDutyCycles[c] {
			sp.connections.BumpSegment(c, inc)
		}
	}
}

// updateMinDutyCycles refreshes minOverlapDutyCycles, dispatching to the
// global or local formula per §4.5.8: global when GlobalInhibition is set or
// the inhibition radius is at least max(ColumnDims). (inhibitColumns switches
// to global only when the radius is strictly greater.)
func (sp *SpatialPooler) updateMinDutyCycles() {
	if sp.params.GlobalInhibition || sp.inhibitionRadius >= maxInt(sp.params.ColumnDims) {
		sp.updateMinDutyCyclesGlobal()
		return
	}
	sp.updateMinDutyCyclesLocal()
}

func (sp *SpatialPooler) updateMinDutyCyclesGlobal() {
	maxOverlap := floats.Max(sp.overlapDutyCycles)
	value := sp.params.MinPctOverlapDutyCycles * maxOverlap
	for c := range sp.minOverlapDutyCycles {
		sp.minOverlapDutyCycles[c] = value
	}
}

func (sp *SpatialPooler) updateMinDutyCyclesLocal() {
	for c := 0; c < sp.nColumns; c++ {
		nbhd := sp.columnNeighborhood(c, sp.inhibitionRadius)
		maxDuty := 0.0
		for _, n := range nbhd {
			if sp.overlapDutyCycles[n] > maxDuty {
				maxDuty = sp.overlapDutyCycles[n]
			}
		}
		sp.minOverlapDutyCycles[c] = sp.params.MinPctOverlapDutyCycles * maxDuty
	}
}

// updateBoostFactors implements §4.5.9. Below boostEpsilon strength every
// factor stays at the neutral value 1; otherwise each column's factor is
// exp((targetDensity - activeDutyCycle) * boostStrength), with the target
// density itself global or per-neighborhood depending on inhibition style.
func (sp *SpatialPooler) updateBoostFactors() {
	if sp.params.BoostStrength < boostEpsilon {
		for c := range sp.boostFactors {
			sp.boostFactors[c] = 1
		}
		return
	}
	if sp.params.GlobalInhibition {
		sp.updateBoostFactorsGlobal()
		return
	}
	sp.updateBoostFactorsLocal()
}

// boostFactorsTargetDensity implements §4.5.9's own area formula,
// ∏min(dⱼ, 2·r+1) capped at nColumns, which is *not* the k-WTA inhibition
// area (2·r+1)^rank that targetDensity computes for §4.5.6 — the two differ
// only when 2·r+1 is larger than some column dimension and smaller than
// another.
func (sp *SpatialPooler) boostFactorsTargetDensity() float64 {
	if sp.params.NumActiveColumnsPerInhArea > 0 {
		area := topology.WrappingNeighborhoodSize(sp.inhibitionRadius, sp.params.ColumnDims)
		if area > sp.nColumns {
			area = sp.nColumns
		}
		density := float64(sp.params.NumActiveColumnsPerInhArea) / float64(area)
		if density > maxLocalAreaDensity {
			density = maxLocalAreaDensity
		}
		return density
	}
	return sp.params.LocalAreaDensity
}

func (sp *SpatialPooler) updateBoostFactorsGlobal() {
	density := sp.boostFactorsTargetDensity()
	for c := 0; c < sp.nColumns; c++ {
		sp.boostFactors[c] = math.Exp((density - sp.activeDutyCycles[c]) * sp.params.BoostStrength)
	}
}

func (sp *SpatialPooler) updateBoostFactorsLocal() {
	for c := 0; c < sp.nColumns; c++ {
		nbhd := sp.columnNeighborhood(c, sp.inhibitionRadius)
		sum := 0.0
		for _, n := range nbhd {
			sum += sp.activeDutyCycles[n]
		}
		density := sum / float64(len(nbhd))
		sp.boostFactors[c] = math.Exp((density - sp.activeDutyCycles[c]) * sp.params.BoostStrength)
	}
}

// avgColumnsPerInput is mean_j(columnDim_j / inputDim_j), used to scale a
// connected span (measured in input-space units) into column-space units.
func (sp *SpatialPooler) avgColumnsPerInput() float64 {
	rank := len(sp.params.ColumnDims)
	sum := 0.0
	for j := 0; j < rank; j++ {
		sum += float64(sp.params.ColumnDims[j]) / float64(sp.params.InputDims[j])
	}
	return sum / float64(rank)
}

// avgConnectedSpanForColumn measures, per axis, the coordinate span of
// column's connected synapses, averaged over axes. minCoord is seeded to
// max(inputDims) exactly as the original does (see the Open Question this
// preserves rather than "fixes": a lone connected synapse at any coordinate
// below that seed still updates min/max correctly).
func (sp *SpatialPooler) avgConnectedSpanForColumn(column int) float64 {
	rank := len(sp.params.InputDims)
	seed := maxInt(sp.params.InputDims)
	minCoord := make([]int, rank)
	maxCoord := make([]int, rank)
	for i := range minCoord {
		minCoord[i] = seed
		maxCoord[i] = -1
	}

	connectedThreshold := sp.connections.GetConnectedThreshold()
	anyConnected := false
	for _, s := range sp.connections.SynapsesForSegment(column) {
		d := sp.connections.DataForSynapse(s)
		if d.Permanence < connectedThreshold {
			continue
		}
		anyConnected = true
		coord := sp.inputConv.ToCoord(d.PresynapticCell)
		for i, v := range coord {
			if v < minCoord[i] {
				minCoord[i] = v
			}
			if v > maxCoord[i] {
				maxCoord[i] = v
			}
		}
	}
	if !anyConnected {
		return 0
	}
	sum := 0.0
	for i := 0; i < rank; i++ {
		sum += float64(maxCoord[i] - minCoord[i] + 1)
	}
	return sum / float64(rank)
}

// updateInhibitionRadius implements §4.5.7.
func (sp *SpatialPooler) updateInhibitionRadius() {
	if sp.params.GlobalInhibition {
		sp.inhibitionRadius = maxInt(sp.params.ColumnDims)
		return
	}
	total := 0.0
	for c := 0; c < sp.nColumns; c++ {
		total += sp.avgConnectedSpanForColumn(c)
	}
	avgSpan := total / float64(sp.nColumns)
	diameter := avgSpan * sp.avgColumnsPerInput()
	radius := (diameter - 1) / 2
	if radius < 1 {
		radius = 1
	}
	sp.inhibitionRadius = roundHalfAwayFromZero(radius)
}
