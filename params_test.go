package htm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParams() Params {
	p := NewParams()
	p.InputDims = []int{16}
	p.ColumnDims = []int{8}
	p.NumActiveColumnsPerInhArea = 2
	return p
}

func TestNewParamsDefaults(t *testing.T) {
	p := NewParams()
	assert.Equal(t, 16, p.PotentialRadius)
	assert.InDelta(t, 0.5, p.PotentialPct, 1e-9)
	assert.InDelta(t, 0.05, p.SynPermActiveInc, 1e-9)
	assert.InDelta(t, 0.008, p.SynPermInactiveDec, 1e-9)
	assert.InDelta(t, 0.1, p.SynPermConnected, 1e-9)
	assert.Equal(t, 1000, p.DutyCyclePeriod)
	assert.InDelta(t, 0.001, p.MinPctOverlapDutyCycles, 1e-9)
	assert.True(t, p.WrapAround)
}

func TestParamsValidateAccepts(t *testing.T) {
	p := validParams()
	require.NoError(t, p.validate())
}

func TestParamsValidateRejectsMismatchedRank(t *testing.T) {
	p := validParams()
	p.ColumnDims = []int{8, 8}
	err := p.validate()
	require.Error(t, err)
	assert.Equal(t, PreconditionFailure, err.(*Error).Kind)
}

func TestParamsValidateRejectsBothDensityParams(t *testing.T) {
	p := validParams()
	p.LocalAreaDensity = 0.2
	err := p.validate()
	require.Error(t, err)
}

func TestParamsValidateRejectsNeitherDensityParam(t *testing.T) {
	p := validParams()
	p.NumActiveColumnsPerInhArea = 0
	err := p.validate()
	require.Error(t, err)
}

func TestParamsValidateRejectsLocalAreaDensityAboveCap(t *testing.T) {
	p := validParams()
	p.NumActiveColumnsPerInhArea = 0
	p.LocalAreaDensity = 0.9
	err := p.validate()
	require.Error(t, err)
}

func TestParamsValidateRejectsBadPotentialPct(t *testing.T) {
	p := validParams()
	p.PotentialPct = 0
	err := p.validate()
	require.Error(t, err)

	p.PotentialPct = 1.1
	err = p.validate()
	require.Error(t, err)
}

func TestParamsSynPermBelowStimulusInc(t *testing.T) {
	p := validParams()
	p.SynPermConnected = 0.2
	assert.InDelta(t, 0.02, p.synPermBelowStimulusInc(), 1e-9)
}

func TestSpatialPoolerSetDensityMutualExclusion(t *testing.T) {
	sp, err := NewSpatialPooler(validParams())
	require.NoError(t, err)

	require.NoError(t, sp.SetLocalAreaDensity(0.3))
	assert.Equal(t, 0, sp.params.NumActiveColumnsPerInhArea)
	assert.InDelta(t, 0.3, sp.params.LocalAreaDensity, 1e-9)

	require.NoError(t, sp.SetNumActiveColumnsPerInhArea(3))
	assert.Equal(t, 3, sp.params.NumActiveColumnsPerInhArea)
	assert.InDelta(t, 0.0, sp.params.LocalAreaDensity, 1e-9)
}
