package budget

// Params holds the sensitivity model coefficients.
// Units:
//   - Signal: expected IBD events per day
//   - Days: observation time target (days to reach Sigma)
//   - Sigma: target significance
//   - Ronoff: reactor on/off duty-cycle ratio
//   - Radionuclides, FastNeutrons: fixed background floors, events per day
//   - WRRatio: wrong-reactor background per unit signal
//   - TimeCut: IBD coincidence window, seconds
//   - SpaceCut: IBD coincidence distance, metres
type Params struct {
	Signal        float64
	Days          float64
	Sigma         float64
	Ronoff        float64
	Radionuclides float64
	FastNeutrons  float64
	WRRatio       float64
	TimeCut       float64
	SpaceCut      float64
}

// detectionEfficiency turns the expected signal into the detected one.
const detectionEfficiency = 0.9

// _defaultParams returns Params pre-filled with the reference detector
// values.
func _defaultParams() *Params {
	return &Params{
		Signal:        0.485,  // IBD/day
		Days:          156,    // days to detection
		Sigma:         4.65,   // significance
		Ronoff:        1.5,    // on/off
		Radionuclides: 0.034,  // /day
		FastNeutrons:  0.023,  // /day
		WRRatio:       1.15,   // per unit signal
		TimeCut:       0.0001, // s
		SpaceCut:      0.05,   // m
	}
}

// DefaultParams returns a copy of the reference values.
func DefaultParams() Params { return *_defaultParams() }
