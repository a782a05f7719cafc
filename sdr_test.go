package htm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSDRConstructorNoValue(t *testing.T) {
	s := New([]int{3, 3})
	assert.Equal(t, 9, s.Size())
	_, err := s.GetDense()
	assert.Error(t, err)
	assert.Equal(t, NoValue, err.(*Error).Kind)
}

func TestSDRZeroDim(t *testing.T) {
	s := New(nil)
	assert.Equal(t, 0, s.Size())
	s.Zero()
	sparse, err := s.GetSparse()
	require.NoError(t, err)
	assert.Equal(t, 0, len(sparse))
}

func TestSDRExample(t *testing.T) {
	// Scenario 1 from spec.md §8: dims (3,3), setFlatSparse([1,4,8]).
	x := New([]int{3, 3})
	require.NoError(t, x.SetFlatSparse([]int{1, 4, 8}))

	dense, err := x.GetDense()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 0, 0, 1, 0, 0, 0, 1}, dense)

	sparse, err := x.GetSparse()
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1, 2}, {1, 1, 2}}, sparse)

	flat, err := x.GetFlatSparse()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 8}, flat)
}

func TestSDRSetDenseRoundTrip(t *testing.T) {
	s := New([]int{5})
	dense := []byte{0, 1, 0, 0, 1}
	require.NoError(t, s.SetDense(dense))
	got, err := s.GetDense()
	require.NoError(t, err)
	assert.Equal(t, dense, got)
	// True copy, not the same backing array.
	dense[0] = 1
	got2, _ := s.GetDense()
	assert.NotEqual(t, dense, got2)
}

func TestSDRSetFlatSparseRoundTrip(t *testing.T) {
	s := New([]int{10})
	require.NoError(t, s.SetFlatSparse([]int{2, 5, 7}))
	got, err := s.GetFlatSparse()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5, 7}, got)
}

func TestSDRSetFlatSparseSortsAndDedups(t *testing.T) {
	s := New([]int{10})
	require.NoError(t, s.SetFlatSparse([]int{7, 2, 7, 5, 2}))
	got, err := s.GetFlatSparse()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5, 7}, got)
}

func TestSDRSetFlatSparseOutOfRange(t *testing.T) {
	s := New([]int{10})
	err := s.SetFlatSparse([]int{10})
	require.Error(t, err)
	assert.Equal(t, ShapeMismatch, err.(*Error).Kind)
}

func TestSDRCardinality(t *testing.T) {
	s := New([]int{20})
	require.NoError(t, s.SetFlatSparse([]int{1, 3, 5, 9}))
	sum, err := s.GetSum()
	require.NoError(t, err)
	assert.Equal(t, 4, sum)
	dense, _ := s.GetDense()
	count := 0
	for _, b := range dense {
		if b == 1 {
			count++
		}
	}
	assert.Equal(t, sum, count)
	sparsity, _ := s.GetSparsity()
	assert.InDelta(t, 0.2, sparsity, 1e-9)
}

func TestSDRAt(t *testing.T) {
	s := New([]int{3, 3})
	require.NoError(t, s.SetFlatSparse([]int{4}))
	on, err := s.At([]int{1, 1})
	require.NoError(t, err)
	assert.True(t, on)
	off, err := s.At([]int{0, 0})
	require.NoError(t, err)
	assert.False(t, off)
}

func TestSDROverlap(t *testing.T) {
	a := New([]int{10})
	require.NoError(t, a.SetFlatSparse([]int{1, 2, 3, 4}))
	b := New([]int{10})
	require.NoError(t, b.SetFlatSparse([]int{3, 4, 5, 6}))
	n, err := a.Overlap(b)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSDRRandomizeCardinality(t *testing.T) {
	s := New([]int{1000})
	require.NoError(t, s.Randomize(0.25, NewRNG(77)))
	sum, _ := s.GetSum()
	assert.Equal(t, 250, sum)
}

func TestSDRRandomizeDeterministic(t *testing.T) {
	a := New([]int{1000})
	b := New([]int{1000})
	require.NoError(t, a.Randomize(0.25, NewRNG(77)))
	require.NoError(t, b.Randomize(0.25, NewRNG(77)))
	assert.True(t, a.Equal(b))
}

func TestSDRAddNoisePreservesCardinality(t *testing.T) {
	s := New([]int{100})
	require.NoError(t, s.Randomize(0.5, NewRNG(5)))
	before, _ := s.GetFlatSparse()
	original := s.Clone()
	require.NoError(t, s.AddNoise(0.5, NewRNG(9)))
	after, _ := s.GetFlatSparse()
	assert.Equal(t, len(before), len(after))
	overlap, _ := original.Overlap(s)
	assert.InDelta(t, 25, overlap, 1)
}

func TestSDRReshape(t *testing.T) {
	s := New([]int{2, 3})
	require.NoError(t, s.SetFlatSparse([]int{1, 4}))
	require.NoError(t, s.Reshape([]int{6}))
	flat, err := s.GetFlatSparse()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4}, flat)

	err = s.Reshape([]int{4})
	assert.Error(t, err)
}

func TestSDRCallbacks(t *testing.T) {
	s := New([]int{5})
	count := 0
	h := s.AddCallback(func() { count++ })
	s.Zero()
	assert.Equal(t, 1, count)
	require.NoError(t, s.SetFlatSparse([]int{1}))
	assert.Equal(t, 2, count)
	require.NoError(t, s.RemoveCallback(h))
	require.NoError(t, s.SetFlatSparse([]int{2}))
	assert.Equal(t, 2, count)

	err := s.RemoveCallback(h)
	require.Error(t, err)
	assert.Equal(t, NotFound, err.(*Error).Kind)
}

func TestSDRCloneDoesNotCopyCallbacks(t *testing.T) {
	s := New([]int{5})
	count := 0
	s.AddCallback(func() { count++ })
	c := s.Clone()
	require.NoError(t, c.SetFlatSparse([]int{1}))
	assert.Equal(t, 0, count)
}

func TestSDRSaveLoadRoundTrip(t *testing.T) {
	s := New([]int{3, 3})
	require.NoError(t, s.SetFlatSparse([]int{1, 4, 8}))

	var buf bytes.Buffer
	require.NoError(t, s.Save(&buf))

	loaded, err := Load(&buf)
	require.NoError(t, err)
	assert.True(t, s.Equal(loaded))
}

func TestSDRSaveLoadMultipleRecords(t *testing.T) {
	a := New([]int{4})
	require.NoError(t, a.SetFlatSparse([]int{0, 2}))
	b := New([]int{4})
	require.NoError(t, b.SetFlatSparse([]int{1, 3}))

	var buf bytes.Buffer
	require.NoError(t, a.Save(&buf))
	require.NoError(t, b.Save(&buf))

	got1, err := Load(&buf)
	require.NoError(t, err)
	got2, err := Load(&buf)
	require.NoError(t, err)
	assert.True(t, a.Equal(got1))
	assert.True(t, b.Equal(got2))
}

func TestSDRSaveLoadNoValue(t *testing.T) {
	s := New([]int{4})
	var buf bytes.Buffer
	require.NoError(t, s.Save(&buf))
	loaded, err := Load(&buf)
	require.NoError(t, err)
	_, getErr := loaded.GetDense()
	assert.Error(t, getErr)
}
