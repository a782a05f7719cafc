package htm

const (
	// maxLocalAreaDensity caps LocalAreaDensity, mirroring the C++
	// constant MAX_LOCALAREADENSITY in SpatialPooler.cpp.
	maxLocalAreaDensity = 0.5

	// updatePeriodIterations is the fixed cadence at which inhibition
	// radius and min duty cycles are refreshed. It counts every call to
	// Compute, learn or not; the refresh runs when a learn=true call lands
	// on a multiple of it.
	updatePeriodIterations = 50
)

// Params groups every constructor argument accepted by NewSpatialPooler,
// mirroring the teacher's SpParams/NewSpParams() convention. NewParams
// fills in the NuPIC reference defaults; callers override only the fields
// their scenario cares about.
type Params struct {
	InputDims  []int
	ColumnDims []int

	PotentialRadius  int
	PotentialPct     float64
	GlobalInhibition bool

	NumActiveColumnsPerInhArea int
	LocalAreaDensity           float64

	StimulusThreshold   int
	SynPermInactiveDec  float64
	SynPermActiveInc    float64
	SynPermConnected    float64
	MinPctOverlapDutyCycles float64
	DutyCyclePeriod     int
	BoostStrength       float64
	Seed                uint64
	WrapAround          bool
	SpVerbosity         int
}

// NewParams returns a Params populated with the NuPIC reference defaults.
// InputDims and ColumnDims are left empty; every real deployment sets them.
func NewParams() Params {
	return Params{
		PotentialRadius:         16,
		PotentialPct:            0.5,
		GlobalInhibition:        false,
		NumActiveColumnsPerInhArea: 0,
		LocalAreaDensity:        0,
		StimulusThreshold:       0,
		SynPermInactiveDec:      0.008,
		SynPermActiveInc:        0.05,
		SynPermConnected:        0.1,
		MinPctOverlapDutyCycles: 0.001,
		DutyCyclePeriod:         1000,
		BoostStrength:           0,
		Seed:                    0,
		WrapAround:              true,
		SpVerbosity:             0,
	}
}

// validate checks every precondition in §4.5/§7 that does not depend on the
// derived nInputs/nColumns products. The one bound that does, PotentialRadius
// against nInputs, is not rejected: NewSpatialPooler clamps it to nInputs.
func (p *Params) validate() error {
	if len(p.InputDims) == 0 {
		return errPrecondition("InputDims", "must be non-empty")
	}
	if len(p.ColumnDims) == 0 {
		return errPrecondition("ColumnDims", "must be non-empty")
	}
	if len(p.InputDims) != len(p.ColumnDims) {
		return errPrecondition("ColumnDims", "rank %d must equal InputDims rank %d", len(p.ColumnDims), len(p.InputDims))
	}
	for i, d := range p.InputDims {
		if d <= 0 {
			return errPrecondition("InputDims", "dimension %d must be positive, got %d", i, d)
		}
	}
	for i, d := range p.ColumnDims {
		if d <= 0 {
			return errPrecondition("ColumnDims", "dimension %d must be positive, got %d", i, d)
		}
	}
	if p.PotentialRadius < 0 {
		return errPrecondition("PotentialRadius", "must be >= 0, got %v", p.PotentialRadius)
	}
	if p.PotentialPct <= 0 || p.PotentialPct > 1 {
		return errPrecondition("PotentialPct", "must be in (0,1], got %v", p.PotentialPct)
	}
	hasNum := p.NumActiveColumnsPerInhArea > 0
	hasDensity := p.LocalAreaDensity > 0
	if hasNum == hasDensity {
		return errPrecondition("NumActiveColumnsPerInhArea", "exactly one of NumActiveColumnsPerInhArea or LocalAreaDensity must be set")
	}
	if hasDensity && p.LocalAreaDensity > maxLocalAreaDensity {
		return errPrecondition("LocalAreaDensity", "must be <= %v, got %v", maxLocalAreaDensity, p.LocalAreaDensity)
	}
	if p.StimulusThreshold < 0 {
		return errPrecondition("StimulusThreshold", "must be >= 0, got %v", p.StimulusThreshold)
	}
	if p.SynPermInactiveDec < 0 || p.SynPermInactiveDec > 1 {
		return errPrecondition("SynPermInactiveDec", "must be in [0,1], got %v", p.SynPermInactiveDec)
	}
	if p.SynPermActiveInc <= 0 || p.SynPermActiveInc > 1 {
		return errPrecondition("SynPermActiveInc", "must be in (0,1], got %v", p.SynPermActiveInc)
	}
	if p.SynPermConnected <= 0 || p.SynPermConnected >= 1 {
		return errPrecondition("SynPermConnected", "must be in (0,1), got %v", p.SynPermConnected)
	}
	if p.MinPctOverlapDutyCycles <= 0 || p.MinPctOverlapDutyCycles > 1 {
		return errPrecondition("MinPctOverlapDutyCycles", "must be in (0,1], got %v", p.MinPctOverlapDutyCycles)
	}
	if p.DutyCyclePeriod < 1 {
		return errPrecondition("DutyCyclePeriod", "must be >= 1, got %v", p.DutyCyclePeriod)
	}
	if p.BoostStrength < 0 {
		return errPrecondition("BoostStrength", "must be >= 0, got %v", p.BoostStrength)
	}
	return nil
}

// synPermBelowStimulusInc is derived, never configured directly (§4.5).
func (p *Params) synPermBelowStimulusInc() float64 {
	return p.SynPermConnected / 10
}
