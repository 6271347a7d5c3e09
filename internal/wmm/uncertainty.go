package wmm

import (
	"fmt"
	"math"
)

// Uncertainty holds one-sigma error estimates for a field result.
// Components are in nanotesla, angles in degrees.
type Uncertainty struct {
	X, Y, Z, H, F float64
	Inclination   float64
	Declination   float64
}

// errorBudget is a published WMM error model: fixed per-component
// uncertainties plus the (a, b) constants of the declination formula
// sqrt(a^2 + (b/H)^2).
type errorBudget struct {
	x, y, z, h, f, i float64
	declA, declB     float64
}

// Published error budgets, per the WMM and WMMHR technical reports.
var (
	budget2015   = errorBudget{x: 138, y: 89, z: 165, h: 133, f: 152, i: 0.22, declA: 0.23, declB: 5430}
	budget2020   = errorBudget{x: 131, y: 94, z: 157, h: 128, f: 148, i: 0.21, declA: 0.26, declB: 5625}
	budget2025   = errorBudget{x: 137, y: 89, z: 141, h: 133, f: 138, i: 0.20, declA: 0.26, declB: 5417}
	budget2025HR = errorBudget{x: 135, y: 85, z: 134, h: 130, f: 134, i: 0.19, declA: 0.25, declB: 5205}
)

// EstimateUncertainty maps a result's time and resolution onto the
// matching error budget. It depends only on the result value, not on the
// Model. Returns ErrNoUncertaintyModel when the time falls outside all
// published budget windows.
func EstimateUncertainty(res Result) (Uncertainty, error) {
	var b errorBudget
	switch t := res.DecimalYear; {
	case t >= 2025.0 && t <= 2030.0:
		if res.HighResolution {
			b = budget2025HR
		} else {
			b = budget2025
		}
	case t >= 2020.0 && t <= 2025.0:
		b = budget2020
	case t >= 2015.0 && t < 2020.0:
		b = budget2015
	default:
		return Uncertainty{}, fmt.Errorf("%w: %.2f", ErrNoUncertaintyModel, t)
	}

	return Uncertainty{
		X:           b.x,
		Y:           b.y,
		Z:           b.z,
		H:           b.h,
		F:           b.f,
		Inclination: b.i,
		Declination: math.Sqrt(b.declA*b.declA + (b.declB/res.H)*(b.declB/res.H)),
	}, nil
}
