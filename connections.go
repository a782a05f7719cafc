package htm

import (
	matrix "github.com/skelterjohn/go.matrix"
)

// SynapseID is a stable handle for a synapse; it survives creation and
// destruction of unrelated synapses (an arena-of-structs design, grounded on
// temporalMemoryConnections.go's nextSegmentIndex/nextSynapseIndex idiom).
type SynapseID int

const invalidSynapse SynapseID = -1

// synapseRecord tracks a synapse's identity and lifetime; its permanence
// lives in Connections.permanences, not here, so there is exactly one place
// that value can be read from or written to.
type synapseRecord struct {
	column int
	presyn int
	alive  bool
}

// SynapseData is the (presynaptic input index, permanence) pair for one
// synapse, as returned by DataForSynapse.
type SynapseData struct {
	PresynapticCell int
	Permanence      float64
}

// SegmentData currently exposes only the connected-synapse count, which is
// all the Spatial Pooler needs (each column has exactly one segment, so
// "segment" and "column" are the same index here).
type SegmentData struct {
	NumConnected int
}

// Connections maps each column to one segment, each segment to a set of
// synapses, and each synapse to a (presynaptic input index, permanence)
// pair. Permanences are stored one dense sparse-matrix row per column
// (grounded on spatialPooler_test.go's TestRaisePermanenceThreshold, which
// manipulates a *matrix.SparseMatrix indexed [column][input] the same way,
// and its SparseMatrixToArray/GetRowVector helper for reading a row back
// out); synapse identity and lifetime are tracked separately via an arena so
// creating/destroying synapses never invalidates other handles.
type Connections struct {
	numColumns         int
	numInputs          int
	connectedThreshold float64
	minPermanence      float64
	maxPermanence      float64
	belowStimulusInc   float64

	permanences *matrix.SparseMatrix

	synapses         []synapseRecord
	freeList         []SynapseID
	synapsesByColumn [][]SynapseID
	connectedCounts  []int
}

// NewConnections returns an uninitialized Connections; call Initialize
// before use.
func NewConnections() *Connections {
	return &Connections{}
}

// Initialize allocates per-column state for nColumns columns over numInputs
// presynaptic inputs. connectedThreshold is the permanence at or above which
// a synapse counts as connected; minPermanence/maxPermanence bound every
// permanence value; belowStimulusInc is the increment
// RaisePermanencesToThreshold applies (BumpSegment takes its own delta).
func (c *Connections) Initialize(nColumns, numInputs int, connectedThreshold, minPermanence, maxPermanence, belowStimulusInc float64) {
	c.numColumns = nColumns
	c.numInputs = numInputs
	c.connectedThreshold = connectedThreshold
	c.minPermanence = minPermanence
	c.maxPermanence = maxPermanence
	c.belowStimulusInc = belowStimulusInc

	c.permanences = matrix.MakeSparseMatrix(make(map[int]float64), nColumns, numInputs)
	c.synapses = nil
	c.freeList = nil
	c.synapsesByColumn = make([][]SynapseID, nColumns)
	c.connectedCounts = make([]int, nColumns)
}

// GetConnectedThreshold returns the permanence at/above which a synapse is
// connected.
func (c *Connections) GetConnectedThreshold() float64 { return c.connectedThreshold }

// permanenceAt reads a synapse's permanence straight from the backing
// matrix, the single source of truth for every permanence value.
func (c *Connections) permanenceAt(column, presyn int) float64 {
	return c.permanences.Get(column, presyn)
}

// setPermanenceAt writes a synapse's permanence into the backing matrix and
// keeps column's connected count consistent with the new value.
func (c *Connections) setPermanenceAt(column, presyn int, permanence float64) {
	wasConnected := c.permanenceAt(column, presyn) >= c.connectedThreshold
	c.permanences.Set(column, presyn, permanence)
	nowConnected := permanence >= c.connectedThreshold
	if nowConnected && !wasConnected {
		c.connectedCounts[column]++
	} else if wasConnected && !nowConnected {
		c.connectedCounts[column]--
	}
}

// CreateSegment returns the segment id for column. Since the Spatial
// Pooler fixes one segment per column, this is simply column; maxSegments
// is accepted for parity with the general Connections contract but is
// otherwise unused here.
func (c *Connections) CreateSegment(column int, maxSegments int) int {
	return column
}

// CreateSynapse adds a synapse from presynapticInput onto segment (== a
// column index), with the given initial permanence, and returns its handle.
func (c *Connections) CreateSynapse(segment, presynapticInput int, permanence float64) SynapseID {
	permanence = clamp(permanence, c.minPermanence, c.maxPermanence)

	var id SynapseID
	if n := len(c.freeList); n > 0 {
		id = c.freeList[n-1]
		c.freeList = c.freeList[:n-1]
		c.synapses[id] = synapseRecord{column: segment, presyn: presynapticInput, alive: true}
	} else {
		id = SynapseID(len(c.synapses))
		c.synapses = append(c.synapses, synapseRecord{column: segment, presyn: presynapticInput, alive: true})
	}
	c.synapsesByColumn[segment] = append(c.synapsesByColumn[segment], id)
	c.setPermanenceAt(segment, presynapticInput, permanence)
	return id
}

// DestroySynapse removes a synapse. The caller must not use its handle
// afterwards: the handle goes on a free list and a later CreateSynapse may
// return it for a new synapse.
func (c *Connections) DestroySynapse(s SynapseID) {
	rec := &c.synapses[s]
	if !rec.alive {
		return
	}
	c.setPermanenceAt(rec.column, rec.presyn, 0)
	list := c.synapsesByColumn[rec.column]
	for i, id := range list {
		if id == s {
			c.synapsesByColumn[rec.column] = append(list[:i], list[i+1:]...)
			break
		}
	}
	rec.alive = false
	c.freeList = append(c.freeList, s)
}

// UpdateSynapsePermanence sets a synapse's permanence directly, clamped to
// [minPermanence, maxPermanence].
func (c *Connections) UpdateSynapsePermanence(s SynapseID, p float64) {
	rec := c.synapses[s]
	c.setPermanenceAt(rec.column, rec.presyn, clamp(p, c.minPermanence, c.maxPermanence))
}

// SynapsesForSegment returns the live synapse handles belonging to segment.
func (c *Connections) SynapsesForSegment(segment int) []SynapseID {
	return c.synapsesByColumn[segment]
}

// DataForSynapse returns a synapse's presynaptic input and permanence.
func (c *Connections) DataForSynapse(s SynapseID) SynapseData {
	rec := c.synapses[s]
	return SynapseData{PresynapticCell: rec.presyn, Permanence: c.permanenceAt(rec.column, rec.presyn)}
}

// DataForSegment returns aggregate data about segment.
func (c *Connections) DataForSegment(segment int) SegmentData {
	return SegmentData{NumConnected: c.connectedCounts[segment]}
}

// ComputeActivity returns, for every column, the number of its connected
// synapses whose presynaptic input is in sparseInput.
func (c *Connections) ComputeActivity(sparseInput []int, learn bool) []int {
	active := make([]bool, c.numInputs)
	for _, idx := range sparseInput {
		active[idx] = true
	}
	overlaps := make([]int, c.numColumns)
	for col := 0; col < c.numColumns; col++ {
		count := 0
		for _, s := range c.synapsesByColumn[col] {
			rec := c.synapses[s]
			if active[rec.presyn] && c.permanenceAt(rec.column, rec.presyn) >= c.connectedThreshold {
				count++
			}
		}
		overlaps[col] = count
	}
	return overlaps
}

// AdaptSegment increments every synapse in column whose presynaptic input is
// active in input by incOnActive, and decrements every other synapse in the
// column by decOnInactive, clamping to [minPermanence, maxPermanence].
func (c *Connections) AdaptSegment(column int, input *SDR, incOnActive, decOnInactive float64) error {
	dense, err := input.GetDense()
	if err != nil {
		return err
	}
	for _, s := range c.synapsesByColumn[column] {
		rec := c.synapses[s]
		var delta float64
		if dense[rec.presyn] != 0 {
			delta = incOnActive
		} else {
			delta = -decOnInactive
		}
		newPerm := clamp(c.permanenceAt(column, rec.presyn)+delta, c.minPermanence, c.maxPermanence)
		c.setPermanenceAt(column, rec.presyn, newPerm)
	}
	return nil
}

// RaisePermanencesToThreshold repeatedly bumps every synapse in column by
// belowStimulusInc until it has at least stimulusThreshold connected
// synapses, or it runs out of synapses to raise. Permanences monotonically
// increase, so this terminates.
func (c *Connections) RaisePermanencesToThreshold(column, stimulusThreshold int) {
	if len(c.synapsesByColumn[column]) == 0 {
		return
	}
	for c.connectedCounts[column] < stimulusThreshold {
		c.BumpSegment(column, c.belowStimulusInc)
		if c.connectedCounts[column] >= len(c.synapsesByColumn[column]) {
			break
		}
	}
}

// BumpSegment adds delta to every synapse in column, clamping to
// [minPermanence, maxPermanence].
func (c *Connections) BumpSegment(column int, delta float64) {
	for _, s := range c.synapsesByColumn[column] {
		rec := c.synapses[s]
		newPerm := clamp(c.permanenceAt(column, rec.presyn)+delta, c.minPermanence, c.maxPermanence)
		c.setPermanenceAt(column, rec.presyn, newPerm)
	}
}

// Equal compares two Connections' full permanence state, reading it back out
// of each one's backing matrix a row at a time.
func (c *Connections) Equal(o *Connections) bool {
	if c.numColumns != o.numColumns || c.numInputs != o.numInputs {
		return false
	}
	for col := 0; col < c.numColumns; col++ {
		a := c.permanenceRow(col)
		b := o.permanenceRow(col)
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	}
	return true
}

// permanenceRow reads column's whole permanence row out of the backing
// matrix, the same way spatialPooler_test.go's SparseMatrixToArray reads a
// row from *matrix.SparseMatrix.GetRowVector.
func (c *Connections) permanenceRow(column int) []float64 {
	rowVec := c.permanences.GetRowVector(column)
	row := make([]float64, c.numInputs)
	for i := 0; i < c.numInputs; i++ {
		row[i] = rowVec.Get(0, i)
	}
	return row
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
