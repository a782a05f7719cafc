// Package topology converts between flat indices and coordinate tuples over
// a fixed shape, and enumerates the neighborhoods the Spatial Pooler uses to
// build potential pools and run local inhibition/duty-cycle bookkeeping.
//
// Grounded on CoordinateConverterND and the Neighborhood/WrappingNeighborhood
// call sites in SpatialPooler.cpp (initMapPotential_, updateMinDutyCyclesLocal_,
// updateBoostFactorsLocal_, inhibitColumnsLocal_).
package topology

import "github.com/cznic/mathutil"

// CoordConverter bijects between a flat index and a coordinate tuple over a
// fixed shape, using the standard row-major bounds: bⱼ = ∏_{m>j} dₘ.
type CoordConverter struct {
	shape  []int
	bounds []int
}

// NewCoordConverter builds a converter for shape. shape must be non-empty
// with all-positive dimensions; the caller (SpatialPooler) is responsible
// for validating that invariant since it already does so for its own shapes.
func NewCoordConverter(shape []int) *CoordConverter {
	bounds := make([]int, len(shape))
	b := 1
	for i := len(shape) - 1; i >= 0; i-- {
		bounds[i] = b
		b *= shape[i]
	}
	cp := make([]int, len(shape))
	copy(cp, shape)
	return &CoordConverter{shape: cp, bounds: bounds}
}

// ToCoord converts a flat index into its coordinate tuple.
func (c *CoordConverter) ToCoord(index int) []int {
	coord := make([]int, len(c.shape))
	for i := range c.shape {
		coord[i] = (index / c.bounds[i]) % c.shape[i]
	}
	return coord
}

// ToIndex converts a coordinate tuple into its flat index.
func (c *CoordConverter) ToIndex(coord []int) int {
	index := 0
	for i, v := range coord {
		index += v * c.bounds[i]
	}
	return index
}

// Neighborhood returns every flat index whose coordinate lies within
// ±radius of center's coordinate, clipped to [0, dⱼ) on each axis. The
// result always includes center. Iteration order is deterministic (raster
// order over the per-axis ranges) but otherwise unspecified.
func Neighborhood(center, radius int, shape []int) []int {
	conv := NewCoordConverter(shape)
	c := conv.ToCoord(center)

	ranges := make([][]int, len(shape))
	for i, dim := range shape {
		lo := mathutil.Max(0, c[i]-radius)
		hi := mathutil.Min(dim-1, c[i]+radius)
		r := make([]int, 0, hi-lo+1)
		for v := lo; v <= hi; v++ {
			r = append(r, v)
		}
		ranges[i] = r
	}
	return cartesianIndices(conv, ranges)
}

// WrappingNeighborhood is Neighborhood but each axis wraps modulo dⱼ. If
// 2·radius+1 >= dⱼ the axis contributes every value exactly once (no
// duplicate coordinates, hence no duplicate flat indices).
func WrappingNeighborhood(center, radius int, shape []int) []int {
	conv := NewCoordConverter(shape)
	c := conv.ToCoord(center)

	ranges := make([][]int, len(shape))
	for i, dim := range shape {
		span := mathutil.Min(2*radius+1, dim)
		r := make([]int, span)
		for k := 0; k < span; k++ {
			v := c[i] - radius + k
			v %= dim
			if v < 0 {
				v += dim
			}
			r[k] = v
		}
		ranges[i] = r
	}
	return cartesianIndices(conv, ranges)
}

// NeighborhoodSize returns |Neighborhood(center, radius, shape)| without
// enumerating it.
func NeighborhoodSize(center, radius int, shape []int) int {
	conv := NewCoordConverter(shape)
	c := conv.ToCoord(center)
	size := 1
	for i, dim := range shape {
		lo := mathutil.Max(0, c[i]-radius)
		hi := mathutil.Min(dim-1, c[i]+radius)
		size *= hi - lo + 1
	}
	return size
}

// WrappingNeighborhoodSize returns ∏ min(2·radius+1, dⱼ), the size of
// WrappingNeighborhood for any center (wrapping neighborhoods are the same
// size everywhere).
func WrappingNeighborhoodSize(radius int, shape []int) int {
	size := 1
	for _, dim := range shape {
		size *= mathutil.Min(2*radius+1, dim)
	}
	return size
}

// cartesianIndices expands the per-axis coordinate choices into flat
// indices, in raster order. It does not de-duplicate: both callers already
// pass duplicate-free per-axis ranges (WrappingNeighborhood caps each axis at
// dⱼ values).
func cartesianIndices(conv *CoordConverter, ranges [][]int) []int {
	n := len(ranges)
	total := 1
	for _, r := range ranges {
		total *= len(r)
	}
	result := make([]int, 0, total)
	coord := make([]int, n)
	pos := make([]int, n)
	for i := range coord {
		if len(ranges[i]) == 0 {
			return result
		}
		coord[i] = ranges[i][0]
	}
	for {
		out := make([]int, n)
		copy(out, coord)
		result = append(result, conv.ToIndex(out))

		axis := n - 1
		for axis >= 0 {
			pos[axis]++
			if pos[axis] < len(ranges[axis]) {
				coord[axis] = ranges[axis][pos[axis]]
				break
			}
			pos[axis] = 0
			coord[axis] = ranges[axis][0]
			axis--
		}
		if axis < 0 {
			break
		}
	}
	return result
}
