package wmm

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tiltedCOF has only degree-1 m=1 terms, giving closed-form expectations
// at the geographic poles.
const tiltedCOF = testHeader + "\n" +
	"  1  1  100.0  200.0  0.0  0.0\n" +
	"9999\n"

func dipoleModel(t *testing.T) *Model {
	t.Helper()
	return mustReadModel(t, dipoleCOF, false)
}

// scaledDipoleCOF builds an axial-dipole coefficient set with the given
// g(1,0), optionally with a secular-variation rate.
func scaledDipoleCOF(g10, gDot10 float64) string {
	return fmt.Sprintf("%s\n1 0 %g 0.0 %g 0.0\n9999\n", testHeader, g10, gDot10)
}

func TestEvaluate_EquatorClosedForm(t *testing.T) {
	// For a pure axial dipole at the equator (lat 0, alt 0) the geocentric
	// transform collapses: r = a, colatitude = 90 degrees, no rotation.
	// The field is horizontal, pointing north: X = |g10| * (Re/a)^3.
	m := dipoleModel(t)

	res, err := m.Evaluate(Request{Latitude: 0, Longitude: 0, AltitudeKm: 0, DecimalYear: 2025.0})
	require.NoError(t, err)

	expectedX := 30000.0 * math.Pow(earthRadius/wgs84A, 3)
	assert.InDelta(t, expectedX, res.X, 1e-9)
	assert.InDelta(t, 0.0, res.Y, 1e-9)
	assert.InDelta(t, 0.0, res.Z, 1e-9)
	assert.InDelta(t, 0.0, res.Declination, 1e-12)
	assert.InDelta(t, 0.0, res.Inclination, 1e-12)
	assert.InDelta(t, expectedX, res.H, 1e-9)
	assert.InDelta(t, expectedX, res.F, 1e-9)
	assert.False(t, res.GridVariationValid)
	assert.False(t, res.HighResolution)
}

func TestEvaluate_NorthPoleClosedForm(t *testing.T) {
	// At the geographic pole the axial dipole field is purely vertical:
	// Z = 2 * |g10| * (Re/b)^3, pointing down in the northern hemisphere.
	m := dipoleModel(t)

	res, err := m.Evaluate(Request{Latitude: 90, Longitude: 0, AltitudeKm: 0, DecimalYear: 2025.0})
	require.NoError(t, err)

	expectedZ := 2 * 30000.0 * math.Pow(earthRadius/wgs84B, 3)
	assert.InDelta(t, expectedZ, res.Z, 1e-9)
	assert.InDelta(t, 0.0, res.X, 1e-9)
	assert.InDelta(t, 0.0, res.Y, 1e-9)
	assert.InDelta(t, 90.0, res.Inclination, 1e-12)
	assert.True(t, res.GridVariationValid)
}

func TestEvaluate_PoleAzimuthalFallback(t *testing.T) {
	// With only the tilted degree-1 terms, the field at the north pole is
	// horizontal and the m=1 azimuthal term must come from the auxiliary
	// recursion: X = g11 * (Re/b)^3, Y = -h11 * (Re/b)^3 at lon 0.
	m := mustReadModel(t, tiltedCOF, false)

	res, err := m.Evaluate(Request{Latitude: 90, Longitude: 0, AltitudeKm: 0, DecimalYear: 2025.0})
	require.NoError(t, err)

	ar := math.Pow(earthRadius/wgs84B, 3)
	assert.InDelta(t, 100.0*ar, res.X, 1e-9)
	assert.InDelta(t, -200.0*ar, res.Y, 1e-9)
	assert.InDelta(t, 0.0, res.Z, 1e-9)
	assert.InDelta(t, degrees(math.Atan2(-200, 100)), res.Declination, 1e-12)
}

func TestEvaluate_SelfConsistency(t *testing.T) {
	m := dipoleModel(t)

	for _, tc := range []struct{ lat, lon, alt float64 }{
		{0, 0, 0},
		{47.6205, -122.3493, 0},
		{-33.8688, 151.2093, 0.058},
		{89.9, 45, 10},
		{-89.9, -45, 0},
		{60, 180, 400},
	} {
		res, err := m.Evaluate(Request{Latitude: tc.lat, Longitude: tc.lon, AltitudeKm: tc.alt, DecimalYear: 2025.5})
		require.NoError(t, err, "lat=%g lon=%g", tc.lat, tc.lon)

		assert.InDelta(t, res.F, math.Sqrt(res.X*res.X+res.Y*res.Y+res.Z*res.Z), 1e-6*res.F)
		assert.InDelta(t, res.H, math.Sqrt(res.X*res.X+res.Y*res.Y), 1e-6*res.F)
	}
}

func TestEvaluate_EchoesInputs(t *testing.T) {
	m := dipoleModel(t)

	res, err := m.Evaluate(Request{Latitude: 12.5, Longitude: -34.25, AltitudeKm: 1.5, DecimalYear: 2026.75})
	require.NoError(t, err)

	assert.Equal(t, 12.5, res.Latitude)
	assert.Equal(t, -34.25, res.Longitude)
	assert.Equal(t, 1.5, res.AltitudeKm)
	assert.Equal(t, 2026.75, res.DecimalYear)
}

func TestEvaluate_Lifespan(t *testing.T) {
	m := dipoleModel(t) // epoch 2025.0

	t.Run("inside window", func(t *testing.T) {
		_, err := m.Evaluate(Request{DecimalYear: 2030.0})
		require.NoError(t, err)
	})

	t.Run("past window", func(t *testing.T) {
		_, err := m.Evaluate(Request{DecimalYear: 2031.0})
		require.ErrorIs(t, err, ErrTimeOutOfRange)
	})

	t.Run("before epoch", func(t *testing.T) {
		_, err := m.Evaluate(Request{DecimalYear: 2024.5})
		require.ErrorIs(t, err, ErrTimeOutOfRange)
	})

	t.Run("override allows it", func(t *testing.T) {
		_, err := m.Evaluate(Request{DecimalYear: 2031.0, AllowOutsideLifespan: true})
		require.NoError(t, err)
	})
}

func TestEvaluate_SecularVariationAdjustsField(t *testing.T) {
	// A weakening dipole (positive gDot against negative g10) must produce
	// a smaller total intensity one year past the epoch.
	m := mustReadModel(t, scaledDipoleCOF(-30000, 20), false)

	atEpoch, err := m.Evaluate(Request{DecimalYear: 2025.0})
	require.NoError(t, err)
	later, err := m.Evaluate(Request{DecimalYear: 2026.0})
	require.NoError(t, err)

	assert.Less(t, later.F, atEpoch.F)
	assert.InDelta(t, atEpoch.F*(30000-20)/30000, later.F, 1e-9)
}

func TestEvaluate_AltitudeWeakensField(t *testing.T) {
	m := dipoleModel(t)

	ground, err := m.Evaluate(Request{Latitude: 45, DecimalYear: 2025.0})
	require.NoError(t, err)
	aloft, err := m.Evaluate(Request{Latitude: 45, AltitudeKm: 400, DecimalYear: 2025.0})
	require.NoError(t, err)

	assert.Less(t, aloft.F, ground.F)
}

func TestEvaluate_GridVariation(t *testing.T) {
	// The dipole field has zero declination in the northern hemisphere, so
	// grid variation reduces to the pure quadrant formula.
	m := dipoleModel(t)

	cases := []struct {
		name     string
		lat, lon float64
		expected float64
	}{
		{"north east-lon", 60, 100, -100},
		{"north west-lon", 60, -100, 100},
		{"south east-lon", -60, 100, 100},
		{"south west-lon", -60, -100, -100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := m.Evaluate(Request{Latitude: tc.lat, Longitude: tc.lon, DecimalYear: 2025.0})
			require.NoError(t, err)
			require.True(t, res.GridVariationValid)
			assert.InDelta(t, tc.expected, res.GridVariation, 1e-9)
			assert.LessOrEqual(t, math.Abs(res.GridVariation), 180.0)
		})
	}

	t.Run("undefined below 55 degrees", func(t *testing.T) {
		res, err := m.Evaluate(Request{Latitude: 54.9, Longitude: 100, DecimalYear: 2025.0})
		require.NoError(t, err)
		assert.False(t, res.GridVariationValid)
	})

	t.Run("defined at exactly 55 degrees", func(t *testing.T) {
		res, err := m.Evaluate(Request{Latitude: 55, Longitude: 0, DecimalYear: 2025.0})
		require.NoError(t, err)
		assert.True(t, res.GridVariationValid)
	})
}

func TestClassifyZone(t *testing.T) {
	cases := []struct {
		h                 float64
		blackout, caution bool
	}{
		{1000, true, false},
		{1999.99, true, false},
		{2000, false, true},
		{3000, false, true},
		{5999.99, false, true},
		{6000, false, false},
		{50000, false, false},
	}
	for _, tc := range cases {
		blackout, caution := classifyZone(tc.h)
		assert.Equal(t, tc.blackout, blackout, "H=%g blackout", tc.h)
		assert.Equal(t, tc.caution, caution, "H=%g caution", tc.h)
	}
}

func TestEvaluate_ZonePolicy(t *testing.T) {
	// At the equator an axial dipole gives H = |g10| * (Re/a)^3, so the
	// coefficient magnitude places the result in a chosen zone.
	equator := Request{DecimalYear: 2025.0}
	strict := equator
	strict.StrictZonePolicy = true

	t.Run("blackout advisory", func(t *testing.T) {
		m := mustReadModel(t, scaledDipoleCOF(-1000, 0), false)
		res, err := m.Evaluate(equator)
		require.NoError(t, err)
		assert.True(t, res.InBlackoutZone)
		assert.False(t, res.InCautionZone)
	})

	t.Run("blackout strict", func(t *testing.T) {
		m := mustReadModel(t, scaledDipoleCOF(-1000, 0), false)
		res, err := m.Evaluate(strict)
		require.ErrorIs(t, err, ErrBlackoutZone)
		assert.True(t, res.InBlackoutZone, "result still carries the computed field")
	})

	t.Run("caution advisory", func(t *testing.T) {
		m := mustReadModel(t, scaledDipoleCOF(-4000, 0), false)
		res, err := m.Evaluate(equator)
		require.NoError(t, err)
		assert.False(t, res.InBlackoutZone)
		assert.True(t, res.InCautionZone)
	})

	t.Run("caution strict", func(t *testing.T) {
		m := mustReadModel(t, scaledDipoleCOF(-4000, 0), false)
		_, err := m.Evaluate(strict)
		require.ErrorIs(t, err, ErrCautionZone)
	})

	t.Run("nominal strict", func(t *testing.T) {
		m := mustReadModel(t, scaledDipoleCOF(-30000, 0), false)
		res, err := m.Evaluate(strict)
		require.NoError(t, err)
		assert.False(t, res.InBlackoutZone)
		assert.False(t, res.InCautionZone)
	})
}

func TestEvaluate_ConcurrentUse(t *testing.T) {
	// The Model must be freely shareable: concurrent evaluations use only
	// call-local scratch and must agree exactly.
	m := dipoleModel(t)
	req := Request{Latitude: 47.6205, Longitude: -122.3493, DecimalYear: 2025.25}

	want, err := m.Evaluate(req)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				got, err := m.Evaluate(req)
				assert.NoError(t, err)
				assert.Equal(t, want, got)
			}
		}()
	}
	wg.Wait()
}
