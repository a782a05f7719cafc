package htm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConnections() *Connections {
	c := NewConnections()
	c.Initialize(4, 10, 0.2, 0.0, 1.0, 0.01)
	return c
}

func TestConnectionsCreateSynapseTracksConnectedCount(t *testing.T) {
	c := newTestConnections()
	seg := c.CreateSegment(0, 1)
	c.CreateSynapse(seg, 1, 0.3)
	c.CreateSynapse(seg, 2, 0.1)
	c.CreateSynapse(seg, 3, 0.2)
	assert.Equal(t, 2, c.DataForSegment(seg).NumConnected)
}

func TestConnectionsCreateSynapseClampsPermanence(t *testing.T) {
	c := newTestConnections()
	s := c.CreateSynapse(0, 0, 1.5)
	assert.InDelta(t, 1.0, c.DataForSynapse(s).Permanence, 1e-9)
	s2 := c.CreateSynapse(0, 1, -0.5)
	assert.InDelta(t, 0.0, c.DataForSynapse(s2).Permanence, 1e-9)
}

func TestConnectionsDestroySynapseUpdatesConnectedCount(t *testing.T) {
	c := newTestConnections()
	s := c.CreateSynapse(0, 0, 0.5)
	require.Equal(t, 1, c.DataForSegment(0).NumConnected)
	c.DestroySynapse(s)
	assert.Equal(t, 0, c.DataForSegment(0).NumConnected)
	assert.Empty(t, c.SynapsesForSegment(0))
}

func TestConnectionsUpdateSynapsePermanenceCrossesThreshold(t *testing.T) {
	c := newTestConnections()
	s := c.CreateSynapse(0, 0, 0.1)
	assert.Equal(t, 0, c.DataForSegment(0).NumConnected)
	c.UpdateSynapsePermanence(s, 0.3)
	assert.Equal(t, 1, c.DataForSegment(0).NumConnected)
	c.UpdateSynapsePermanence(s, 0.05)
	assert.Equal(t, 0, c.DataForSegment(0).NumConnected)
}

func TestConnectionsComputeActivity(t *testing.T) {
	c := newTestConnections()
	c.CreateSynapse(0, 1, 0.3) // connected
	c.CreateSynapse(0, 2, 0.1) // not connected
	c.CreateSynapse(1, 1, 0.3) // connected
	c.CreateSynapse(1, 5, 0.3) // connected but input inactive

	overlaps := c.ComputeActivity([]int{1, 2}, false)
	assert.Equal(t, []int{1, 1, 0, 0}, overlaps)
}

func TestConnectionsAdaptSegment(t *testing.T) {
	c := newTestConnections()
	c.CreateSynapse(0, 0, 0.3)
	c.CreateSynapse(0, 1, 0.3)
	c.CreateSynapse(0, 2, 0.3)

	input := New([]int{10})
	require.NoError(t, input.SetFlatSparse([]int{0, 2}))

	require.NoError(t, c.AdaptSegment(0, input, 0.1, 0.05))

	syns := c.SynapsesForSegment(0)
	perms := map[int]float64{}
	for _, s := range syns {
		d := c.DataForSynapse(s)
		perms[d.PresynapticCell] = d.Permanence
	}
	assert.InDelta(t, 0.4, perms[0], 1e-9)
	assert.InDelta(t, 0.25, perms[1], 1e-9)
	assert.InDelta(t, 0.4, perms[2], 1e-9)
}

func TestConnectionsRaisePermanencesToThreshold(t *testing.T) {
	c := newTestConnections()
	c.CreateSynapse(0, 0, 0.1)
	c.CreateSynapse(0, 1, 0.1)
	c.CreateSynapse(0, 2, 0.19)

	c.RaisePermanencesToThreshold(0, 2)
	assert.GreaterOrEqual(t, c.DataForSegment(0).NumConnected, 2)
}

func TestConnectionsRaisePermanencesToThresholdStopsAtAllSynapses(t *testing.T) {
	c := newTestConnections()
	c.CreateSynapse(0, 0, 0.05)
	c.RaisePermanencesToThreshold(0, 5)
	assert.Equal(t, 1, c.DataForSegment(0).NumConnected)
}

func TestConnectionsBumpSegment(t *testing.T) {
	c := newTestConnections()
	s := c.CreateSynapse(0, 0, 0.18)
	c.BumpSegment(0, 0.05)
	assert.InDelta(t, 0.23, c.DataForSynapse(s).Permanence, 1e-9)
}

func TestConnectionsEqual(t *testing.T) {
	a := newTestConnections()
	a.CreateSynapse(0, 0, 0.3)
	b := newTestConnections()
	b.CreateSynapse(0, 0, 0.3)
	assert.True(t, a.Equal(b))

	b.CreateSynapse(1, 1, 0.5)
	assert.False(t, a.Equal(b))
}
