// Package wmm computes the Earth's magnetic field from a World Magnetic
// Model (WMM) coefficient set.
//
// # Model
//
// The field is expressed as a truncated spherical-harmonic expansion whose
// Gauss coefficients (g, h) and secular-variation rates are read from a
// NOAA-format coefficient file (.COF). The standard model truncates at
// degree 12; the high-resolution model (WMMHR) at degree 133. Coefficients
// are distributed Schmidt semi-normalized and are converted to the
// unnormalized convention once at load time, so evaluation works directly
// with unnormalized associated Legendre functions.
//
// # Evaluation
//
// [Model.Evaluate] converts a geodetic position (WGS-84 latitude,
// longitude, altitude above the ellipsoid) to geocentric spherical
// coordinates, runs the degree/order recursion to accumulate the radial,
// tangential, and azimuthal field components, rotates the vector back into
// the geodetic frame, and derives declination, inclination, and the
// horizontal and total intensities. Secular variation is applied linearly
// in time against the model epoch.
//
// A [Model] is immutable after [LoadModel] returns. All per-evaluation
// scratch (Legendre tables, longitude-multiple trig tables, the polar
// fallback recursion) lives on the evaluation's own stack, so one Model
// may serve any number of concurrent Evaluate calls without locking.
//
// # Uncertainty
//
// [EstimateUncertainty] maps a result's time and resolution onto the
// published WMM error budgets (2015, 2020, 2025, and WMMHR-2025) and
// computes the horizontal-intensity-dependent declination uncertainty.
//
// # Zones
//
// Near the magnetic poles the horizontal intensity collapses and compass
// headings degrade. Results flag the NOAA-defined caution zone
// (H < 6000 nT) and blackout zone (H < 2000 nT); callers that cannot
// tolerate degraded headings may request these as hard errors instead.
package wmm
