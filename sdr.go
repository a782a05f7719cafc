package htm

import (
	"sort"

	"github.com/htm-go/spatialpooler/topology"
)

// SDR is a Sparse Distributed Representation: a multi-dimensional binary
// tensor with three mutually-consistent views (dense bitmap, ascending
// flat-sparse index list, per-axis coordinate lists), lazily materialized
// on demand. Dimensions are fixed at construction; size is their product.
//
// Grounded on SdrTest.cpp (TestExample, TestConstructorCopy, TestZero) and
// spec.md §3/§4.3.
type SDR struct {
	dims []int
	size int

	dense      []byte
	flatSparse []int
	sparse     [][]int

	denseValid  bool
	flatValid   bool
	sparseValid bool

	callbacks  map[int]func()
	nextHandle int
}

// New returns an SDR with the given dimensions and no value: every getter
// fails with NoValue until Zero or a setter is called.
func New(dims []int) *SDR {
	d := make([]int, len(dims))
	copy(d, dims)
	size := 1
	for _, v := range d {
		size *= v
	}
	if len(d) == 0 {
		size = 0
	}
	return &SDR{dims: d, size: size, callbacks: make(map[int]func())}
}

// Dimensions returns a copy of the SDR's shape.
func (s *SDR) Dimensions() []int {
	d := make([]int, len(s.dims))
	copy(d, s.dims)
	return d
}

// Size returns the product of the dimensions, or 0 for an SDR with no
// dimensions.
func (s *SDR) Size() int { return s.size }

func (s *SDR) invalidateAll() {
	s.denseValid = false
	s.flatValid = false
	s.sparseValid = false
}

func (s *SDR) fireCallbacks() {
	for _, cb := range s.callbacks {
		cb()
	}
}

// Zero clears the SDR to all-zero and marks it as having a value.
func (s *SDR) Zero() {
	s.flatSparse = s.flatSparse[:0]
	s.invalidateAll()
	s.flatValid = true
	s.fireCallbacks()
}

// hasValue reports whether at least one view is valid.
func (s *SDR) hasValue() bool {
	return s.denseValid || s.flatValid || s.sparseValid
}

// SetDense installs dense as the SDR's value. dense must have length Size().
func (s *SDR) SetDense(dense []byte) error {
	if len(dense) != s.size {
		return errShapeMismatch("dense", "length %d != size %d", len(dense), s.size)
	}
	buf := make([]byte, s.size)
	copy(buf, dense)
	s.dense = buf
	s.invalidateAll()
	s.denseValid = true
	s.fireCallbacks()
	return nil
}

// SetFlatSparse installs flat as the SDR's value; flat need not be sorted
// on input but is normalized to ascending, duplicate-free order on read.
func (s *SDR) SetFlatSparse(flat []int) error {
	for _, idx := range flat {
		if idx < 0 || idx >= s.size {
			return errShapeMismatch("flatSparse", "index %d out of range [0,%d)", idx, s.size)
		}
	}
	buf := make([]int, len(flat))
	copy(buf, flat)
	sort.Ints(buf)
	buf = dedupSorted(buf)
	s.flatSparse = buf
	s.invalidateAll()
	s.flatValid = true
	s.fireCallbacks()
	return nil
}

// SetSparse installs sparse as the SDR's value: k parallel coordinate lists,
// one per axis, giving the coordinates of every set index (in any order).
func (s *SDR) SetSparse(sparse [][]int) error {
	if len(s.dims) == 0 {
		if len(sparse) != 0 {
			return errShapeMismatch("sparse", "expected 0 axes, got %d", len(sparse))
		}
		s.sparse = nil
		s.invalidateAll()
		s.sparseValid = true
		s.fireCallbacks()
		return nil
	}
	if len(sparse) != len(s.dims) {
		return errShapeMismatch("sparse", "expected %d axes, got %d", len(s.dims), len(sparse))
	}
	n := len(sparse[0])
	for i, axis := range sparse {
		if len(axis) != n {
			return errShapeMismatch("sparse", "axis %d has length %d, expected %d", i, len(axis), n)
		}
	}
	conv := topology.NewCoordConverter(s.dims)
	flat := make([]int, n)
	for i := 0; i < n; i++ {
		coord := make([]int, len(sparse))
		for axis := range sparse {
			v := sparse[axis][i]
			if v < 0 || v >= s.dims[axis] {
				return errShapeMismatch("sparse", "axis %d coordinate %d out of range [0,%d)", axis, v, s.dims[axis])
			}
			coord[axis] = v
		}
		flat[i] = conv.ToIndex(coord)
	}
	sparseCopy := make([][]int, len(sparse))
	for i, axis := range sparse {
		sparseCopy[i] = append([]int(nil), axis...)
	}
	s.sparse = sparseCopy
	s.invalidateAll()
	s.sparseValid = true
	// The flat-sparse view can be derived for free; keep it valid too so
	// GetFlatSparse right after SetSparse doesn't force a dense round trip.
	sort.Ints(flat)
	s.flatSparse = dedupSorted(flat)
	s.flatValid = true
	s.fireCallbacks()
	return nil
}

func dedupSorted(sorted []int) []int {
	if len(sorted) == 0 {
		return sorted
	}
	out := sorted[:1]
	for _, v := range sorted[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

func (s *SDR) materializeFlatSparse() {
	if s.denseValid {
		flat := make([]int, 0)
		for i, v := range s.dense {
			if v != 0 {
				flat = append(flat, i)
			}
		}
		s.flatSparse = flat
	} else if s.sparseValid {
		conv := topology.NewCoordConverter(s.dims)
		n := 0
		if len(s.sparse) > 0 {
			n = len(s.sparse[0])
		}
		flat := make([]int, n)
		for i := 0; i < n; i++ {
			coord := make([]int, len(s.sparse))
			for axis := range s.sparse {
				coord[axis] = s.sparse[axis][i]
			}
			flat[i] = conv.ToIndex(coord)
		}
		sort.Ints(flat)
		s.flatSparse = dedupSorted(flat)
	}
	s.flatValid = true
}

func (s *SDR) materializeDense() {
	if !s.flatValid {
		s.materializeFlatSparse()
	}
	dense := make([]byte, s.size)
	for _, idx := range s.flatSparse {
		dense[idx] = 1
	}
	s.dense = dense
	s.denseValid = true
}

func (s *SDR) materializeSparse() {
	if !s.flatValid {
		s.materializeFlatSparse()
	}
	sparse := make([][]int, len(s.dims))
	for i := range sparse {
		sparse[i] = make([]int, 0, len(s.flatSparse))
	}
	if len(s.dims) > 0 {
		conv := topology.NewCoordConverter(s.dims)
		for _, idx := range s.flatSparse {
			coord := conv.ToCoord(idx)
			for axis, v := range coord {
				sparse[axis] = append(sparse[axis], v)
			}
		}
	}
	s.sparse = sparse
	s.sparseValid = true
}

// GetDense materializes and returns the dense view.
func (s *SDR) GetDense() ([]byte, error) {
	if !s.hasValue() {
		return nil, errNoValue("SDR has no value")
	}
	if !s.denseValid {
		s.materializeDense()
	}
	return s.dense, nil
}

// GetFlatSparse materializes and returns the ascending flat-sparse view.
func (s *SDR) GetFlatSparse() ([]int, error) {
	if !s.hasValue() {
		return nil, errNoValue("SDR has no value")
	}
	if !s.flatValid {
		s.materializeFlatSparse()
	}
	return s.flatSparse, nil
}

// GetSparse materializes and returns the per-axis coordinate-list view.
func (s *SDR) GetSparse() ([][]int, error) {
	if !s.hasValue() {
		return nil, errNoValue("SDR has no value")
	}
	if !s.sparseValid {
		s.materializeSparse()
	}
	return s.sparse, nil
}

// GetSum returns the cardinality (number of set bits).
func (s *SDR) GetSum() (int, error) {
	flat, err := s.GetFlatSparse()
	if err != nil {
		return 0, err
	}
	return len(flat), nil
}

// GetSparsity returns GetSum()/Size(). Size 0 reports sparsity 0.
func (s *SDR) GetSparsity() (float64, error) {
	sum, err := s.GetSum()
	if err != nil {
		return 0, err
	}
	if s.size == 0 {
		return 0, nil
	}
	return float64(sum) / float64(s.size), nil
}

// At reports whether the bit at coord is set.
func (s *SDR) At(coord []int) (bool, error) {
	if len(coord) != len(s.dims) {
		return false, errShapeMismatch("coord", "rank %d != dims rank %d", len(coord), len(s.dims))
	}
	dense, err := s.GetDense()
	if err != nil {
		return false, err
	}
	conv := topology.NewCoordConverter(s.dims)
	idx := conv.ToIndex(coord)
	return dense[idx] != 0, nil
}

// Overlap returns |set(s) ∩ set(other)|. Both SDRs must share dimensions.
func (s *SDR) Overlap(other *SDR) (int, error) {
	if !dimsEqual(s.dims, other.dims) {
		return 0, errShapeMismatch("other", "dims %v != %v", other.dims, s.dims)
	}
	a, err := s.GetFlatSparse()
	if err != nil {
		return 0, err
	}
	b, err := other.GetFlatSparse()
	if err != nil {
		return 0, err
	}
	count := 0
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			count++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return count, nil
}

func dimsEqual(a, b []int) bool {
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

// Randomize sets a uniformly-chosen random subset of round(sparsity*size)
// bits, using rng.
func (s *SDR) Randomize(sparsity float64, rng *RNG) error {
	if sparsity < 0 || sparsity > 1 {
		return errPrecondition("sparsity", "must be in [0,1], got %v", sparsity)
	}
	k := roundHalfAwayFromZero(sparsity * float64(s.size))
	all := make([]int, s.size)
	for i := range all {
		all[i] = i
	}
	chosen, err := rng.Sample(all, k)
	if err != nil {
		return err
	}
	return s.SetFlatSparse(chosen)
}

// AddNoise flips round(fraction*sum) currently-set bits off and the same
// count of currently-unset bits on, preserving cardinality.
func (s *SDR) AddNoise(fraction float64, rng *RNG) error {
	if fraction < 0 || fraction > 1 {
		return errPrecondition("fraction", "must be in [0,1], got %v", fraction)
	}
	active, err := s.GetFlatSparse()
	if err != nil {
		return err
	}
	numFlip := roundHalfAwayFromZero(fraction * float64(len(active)))
	if numFlip == 0 {
		return nil
	}

	activeSet := make(map[int]bool, len(active))
	for _, idx := range active {
		activeSet[idx] = true
	}
	inactive := make([]int, 0, s.size-len(active))
	for i := 0; i < s.size; i++ {
		if !activeSet[i] {
			inactive = append(inactive, i)
		}
	}

	turnOff, err := rng.Sample(active, numFlip)
	if err != nil {
		return err
	}
	turnOn, err := rng.Sample(inactive, numFlip)
	if err != nil {
		return err
	}
	turnOffSet := make(map[int]bool, len(turnOff))
	for _, idx := range turnOff {
		turnOffSet[idx] = true
	}
	result := make([]int, 0, len(active))
	for _, idx := range active {
		if !turnOffSet[idx] {
			result = append(result, idx)
		}
	}
	result = append(result, turnOn...)
	return s.SetFlatSparse(result)
}

// Reshape reinterprets the SDR's data under new dimensions of equal product.
func (s *SDR) Reshape(dims []int) error {
	size := 1
	for _, v := range dims {
		size *= v
	}
	if len(dims) == 0 {
		size = 0
	}
	if size != s.size {
		return errShapeMismatch("dims", "product %d != current size %d", size, s.size)
	}
	d := make([]int, len(dims))
	copy(d, dims)
	s.dims = d
	s.sparseValid = false
	return nil
}

// AddCallback registers fn to be invoked whenever this SDR's value changes,
// and returns a handle usable with RemoveCallback.
func (s *SDR) AddCallback(fn func()) int {
	h := s.nextHandle
	s.nextHandle++
	s.callbacks[h] = fn
	return h
}

// RemoveCallback unregisters a callback previously returned by AddCallback.
func (s *SDR) RemoveCallback(handle int) error {
	if _, ok := s.callbacks[handle]; !ok {
		return errNotFound("handle", "no callback registered with handle %d", handle)
	}
	delete(s.callbacks, handle)
	return nil
}

// Clone returns an independent copy of s's data. Callbacks are not copied.
func (s *SDR) Clone() *SDR {
	c := New(s.dims)
	c.denseValid = s.denseValid
	c.flatValid = s.flatValid
	c.sparseValid = s.sparseValid
	if s.denseValid {
		c.dense = append([]byte(nil), s.dense...)
	}
	if s.flatValid {
		c.flatSparse = append([]int(nil), s.flatSparse...)
	}
	if s.sparseValid {
		c.sparse = make([][]int, len(s.sparse))
		for i, axis := range s.sparse {
			c.sparse[i] = append([]int(nil), axis...)
		}
	}
	return c
}

// Equal compares dimensions and the set of active indices.
func (s *SDR) Equal(other *SDR) bool {
	if other == nil {
		return false
	}
	if !dimsEqual(s.dims, other.dims) {
		return false
	}
	a, errA := s.GetFlatSparse()
	b, errB := other.GetFlatSparse()
	if errA != nil || errB != nil {
		return errA != nil && errB != nil
	}
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

func roundHalfAwayFromZero(v float64) int {
	if v < 0 {
		return -roundHalfAwayFromZero(-v)
	}
	return int(v + 0.5)
}
