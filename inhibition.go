package htm

import (
	"sort"

	"github.com/htm-go/spatialpooler/topology"
)

// targetDensity computes ρ per §4.5.6: derived from NumActiveColumnsPerInhArea
// and the current inhibition area when set, or LocalAreaDensity directly
// otherwise. Either way the result is capped at maxLocalAreaDensity.
func (sp *SpatialPooler) targetDensity() float64 {
	if sp.params.NumActiveColumnsPerInhArea > 0 {
		rank := len(sp.params.ColumnDims)
		area := 1
		span := 2*sp.inhibitionRadius + 1
		for i := 0; i < rank; i++ {
			area *= span
		}
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

// inhibitColumns runs global or local k-WTA over boosted, choosing the
// style per §4.5.6: global when GlobalInhibition is set or the inhibition
// radius already spans the whole column space.
func (sp *SpatialPooler) inhibitColumns(overlaps []int, boosted []float64) ([]int, error) {
	density := sp.targetDensity()
	if sp.params.GlobalInhibition || sp.inhibitionRadius > maxInt(sp.params.ColumnDims) {
		return sp.inhibitColumnsGlobal(overlaps, boosted, density)
	}
	return sp.inhibitColumnsLocal(overlaps, boosted, density)
}

// globalRank orders columns by (boosted descending, index descending): on a
// tie the higher index wins, per §4.5.6's documented (intentionally
// asymmetric relative to local inhibition) comparator.
func globalRank(boosted []float64) []int {
	order := make([]int, len(boosted))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if boosted[a] != boosted[b] {
			return boosted[a] > boosted[b]
		}
		return a > b
	})
	return order
}

func (sp *SpatialPooler) inhibitColumnsGlobal(overlaps []int, boosted []float64, density float64) ([]int, error) {
	k := roundHalfAwayFromZero(density * float64(sp.nColumns))
	if k <= 0 {
		return nil, errExhaustion("density %v over %d columns selects 0 active columns", density, sp.nColumns)
	}
	ranked := globalRank(boosted)
	if k > len(ranked) {
		k = len(ranked)
	}
	selected := ranked[:k]

	active := make([]int, 0, len(selected))
	for _, c := range selected {
		if overlaps[c] >= sp.params.StimulusThreshold {
			active = append(active, c)
		}
	}
	sort.Ints(active)
	return active, nil
}

func (sp *SpatialPooler) inhibitColumnsLocal(overlaps []int, boosted []float64, density float64) ([]int, error) {
	selected := make([]bool, sp.nColumns)
	active := make([]int, 0)

	for c := 0; c < sp.nColumns; c++ {
		if overlaps[c] < sp.params.StimulusThreshold {
			continue
		}
		nbhd := sp.columnNeighborhood(c, sp.inhibitionRadius)
		numNeighbors := len(nbhd) - 1

		numBigger := 0
		for _, n := range nbhd {
			if n == c {
				continue
			}
			if boosted[n] > boosted[c] {
				numBigger++
			} else if boosted[n] == boosted[c] && selected[n] {
				numBigger++
			}
		}
		k := roundHalfAwayFromZero(density * float64(numNeighbors+1))
		if numBigger < k {
			selected[c] = true
			active = append(active, c)
		}
	}
	sort.Ints(active)
	return active, nil
}

// columnNeighborhood dispatches to the wrapping or clipped topology
// neighborhood depending on Params.WrapAround.
func (sp *SpatialPooler) columnNeighborhood(center, radius int) []int {
	if sp.params.WrapAround {
		return topology.WrappingNeighborhood(center, radius, sp.params.ColumnDims)
	}
	return topology.Neighborhood(center, radius, sp.params.ColumnDims)
}

func maxInt(vs []int) int {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
