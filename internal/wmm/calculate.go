package wmm

import (
	"fmt"
	"math"
)

// WGS-84 ellipsoid semi-axes and the geomagnetic reference sphere radius,
// in kilometers.
const (
	wgs84A      = 6378.137
	wgs84B      = 6356.7523142
	earthRadius = 6371.2
)

// NOAA warning-zone thresholds on horizontal intensity, in nanotesla.
const (
	blackoutZoneLimit = 2000.0
	cautionZoneLimit  = 6000.0
)

// modelLifespanYears is the nominal validity window past the model epoch.
const modelLifespanYears = 5.0

// Request describes one field evaluation.
type Request struct {
	Latitude    float64 // geodetic degrees, -90 to +90, north positive
	Longitude   float64 // degrees, -180 to +180, east positive
	AltitudeKm  float64 // km above the WGS-84 ellipsoid
	DecimalYear float64 // e.g. 2025.5 for mid-2025

	// AllowOutsideLifespan permits times outside the model's 5-year window.
	AllowOutsideLifespan bool
	// StrictZonePolicy turns the blackout/caution flags into hard errors.
	StrictZonePolicy bool
}

// Result holds the magnetic field vector at the requested position and
// time. Intensities are in nanotesla, angles in degrees.
type Result struct {
	DecimalYear float64
	AltitudeKm  float64
	Latitude    float64
	Longitude   float64

	X float64 // north component
	Y float64 // east component
	Z float64 // vertical component, down positive
	H float64 // horizontal intensity
	F float64 // total intensity

	Inclination float64 // dip angle
	Declination float64 // magnetic variation

	// GridVariation is the grid-north correction, defined only for
	// |latitude| >= 55; GridVariationValid reports whether it applies.
	GridVariation      float64
	GridVariationValid bool

	InBlackoutZone bool // H < 2000 nT
	InCautionZone  bool // 2000 nT <= H < 6000 nT
	HighResolution bool
}

func radians(deg float64) float64 { return deg * math.Pi / 180.0 }
func degrees(rad float64) float64 { return rad * 180.0 / math.Pi }

// classifyZone maps horizontal intensity onto the NOAA compass-reliability
// zones.
func classifyZone(h float64) (inBlackout, inCaution bool) {
	switch {
	case h < blackoutZoneLimit:
		return true, false
	case h < cautionZoneLimit:
		return false, true
	}
	return false, false
}

// Evaluate computes the magnetic field vector for one request. The Model
// is read-only here; all scratch state is local to the call, so Evaluate
// is safe to invoke concurrently on a shared Model.
//
// When StrictZonePolicy is set and the position falls in a warning zone,
// the computed Result is returned alongside ErrBlackoutZone or
// ErrCautionZone so callers can still inspect the field values.
func (m *Model) Evaluate(req Request) (Result, error) {
	res := Result{
		DecimalYear:    req.DecimalYear,
		AltitudeKm:     req.AltitudeKm,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		HighResolution: m.HighResolution(),
	}

	dt := req.DecimalYear - m.epoch
	if !req.AllowOutsideLifespan && (dt < 0.0 || dt > modelLifespanYears) {
		return Result{}, fmt.Errorf("%w: %.2f vs model epoch %.1f", ErrTimeOutOfRange, req.DecimalYear, m.epoch)
	}

	a2 := wgs84A * wgs84A
	b2 := wgs84B * wgs84B
	c2 := a2 - b2
	a4 := a2 * a2
	b4 := b2 * b2
	c4 := a4 - b4

	rlon := radians(req.Longitude)
	rlat := radians(req.Latitude)
	srlon := math.Sin(rlon)
	srlat := math.Sin(rlat)
	crlon := math.Cos(rlon)
	crlat := math.Cos(rlat)
	srlat2 := srlat * srlat
	crlat2 := crlat * crlat

	// sin(m*lon), cos(m*lon) by the angle-addition recursion.
	sp := make([]float64, m.maxDegree+1)
	cp := make([]float64, m.maxDegree+1)
	sp[0], cp[0] = 0.0, 1.0
	sp[1], cp[1] = srlon, crlon
	for mm := 2; mm <= m.maxDegree; mm++ {
		sp[mm] = sp[1]*cp[mm-1] + cp[1]*sp[mm-1]
		cp[mm] = cp[1]*cp[mm-1] - sp[1]*sp[mm-1]
	}

	// Geodetic to geocentric spherical: radius r, colatitude trig (ct, st),
	// and the rotation angle (ca, sa) that maps the spherical components
	// back to geodetic north/east/down.
	alt := req.AltitudeKm
	q := math.Sqrt(a2 - c2*srlat2)
	q1 := alt * q
	q2 := ((q1 + a2) / (q1 + b2)) * ((q1 + a2) / (q1 + b2))
	ct := srlat / math.Sqrt(q2*crlat2+srlat2)
	st := math.Sqrt(1.0 - ct*ct)
	r2 := alt*alt + 2.0*q1 + (a4-c4*srlat2)/(q*q)
	r := math.Sqrt(r2)
	d := math.Sqrt(a2*crlat2 + b2*srlat2)
	ca := (alt + d) / r
	sa := c2 * crlat * srlat / (r * d)

	leg := newLegendreTable(m.maxDegree)
	leg.compute(m.maxDegree, st, ct, m.k)

	aor := earthRadius / r
	ar := aor * aor
	var br, bt, bp, bpp float64

	for n := 1; n <= m.maxDegree; n++ {
		ar *= aor
		for mm := 0; mm <= n; mm++ {
			i := triIdx(n, mm)

			// Time-adjust the Gauss coefficients lazily; the stored model
			// coefficients are never mutated.
			tcg := m.g[i] + dt*m.gDot[i]
			var temp1, temp2 float64
			if mm == 0 {
				temp1 = tcg * cp[0]
				temp2 = tcg * sp[0]
			} else {
				tch := m.h[i] + dt*m.hDot[i]
				temp1 = tcg*cp[mm] + tch*sp[mm]
				temp2 = tcg*sp[mm] - tch*cp[mm]
			}

			par := ar * leg.p[i]
			bt -= ar * temp1 * leg.dp[i]
			bp += float64(mm) * temp2 * par
			br += float64(n+1) * temp1 * par

			// At the geographic poles the m = 1 azimuthal term is taken
			// from the auxiliary recursion instead.
			if st == 0.0 && mm == 1 {
				parp := ar * leg.pp[n]
				bpp += float64(mm) * temp2 * parp
			}
		}
	}

	if st == 0.0 {
		bp = bpp
	} else {
		bp /= st
	}

	// Rotate from spherical to geodetic components.
	x := -bt*ca - br*sa
	y := bp
	z := bt*sa - br*ca

	bh := math.Sqrt(x*x + y*y)
	res.F = math.Sqrt(bh*bh + z*z)
	res.Declination = degrees(math.Atan2(y, x))
	res.Inclination = degrees(math.Atan2(z, bh))

	if math.Abs(req.Latitude) >= 55.0 {
		res.GridVariation = gridVariation(res.Declination, req.Latitude, req.Longitude)
		res.GridVariationValid = true
	}

	// Re-project X/Y/Z/H from the derived F/D/I rather than returning the
	// accumulated sums, so the reported vector is always self-consistent
	// with the reported angles.
	di := radians(res.Inclination)
	dd := radians(res.Declination)
	res.X = res.F * math.Cos(dd) * math.Cos(di)
	res.Y = res.F * math.Cos(di) * math.Sin(dd)
	res.Z = res.F * math.Sin(di)
	res.H = res.F * math.Cos(di)

	res.InBlackoutZone, res.InCautionZone = classifyZone(res.H)
	if req.StrictZonePolicy {
		if res.InBlackoutZone {
			return res, fmt.Errorf("%w: H=%.1f nT", ErrBlackoutZone, res.H)
		}
		if res.InCautionZone {
			return res, fmt.Errorf("%w: H=%.1f nT", ErrCautionZone, res.H)
		}
	}

	return res, nil
}

// gridVariation computes the grid-north correction for polar latitudes.
// The branch depends on the quadrant of (latitude, longitude); the result
// is normalized into (-180, 180].
func gridVariation(declination, lat, lon float64) float64 {
	var gv float64
	switch {
	case lat > 0.0 && lon >= 0.0:
		gv = declination - lon
	case lat > 0.0 && lon < 0.0:
		gv = declination + math.Abs(lon)
	case lat < 0.0 && lon >= 0.0:
		gv = declination + lon
	case lat < 0.0 && lon < 0.0:
		gv = declination - math.Abs(lon)
	}
	if gv > 180.0 {
		gv -= 360.0
	} else if gv < -180.0 {
		gv += 360.0
	}
	return gv
}
