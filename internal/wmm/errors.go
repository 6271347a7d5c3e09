package wmm

import "errors"

// Load-time errors. A failed load never returns a partial Model.
var (
	// ErrMalformedHeader indicates the first record of the coefficient file
	// did not parse as (epoch, model name, release date).
	ErrMalformedHeader = errors.New("malformed coefficient file header")

	// ErrCorruptRecord indicates a coefficient record with impossible
	// degree/order indices (m > n, m < 0, or past the table bound).
	ErrCorruptRecord = errors.New("corrupt coefficient record")
)

// Evaluation-time errors. These are recoverable: the caller can retry with
// AllowOutsideLifespan, or treat zone conditions as advisory by leaving
// StrictZonePolicy unset.
var (
	// ErrTimeOutOfRange indicates the requested time falls outside the
	// model's 5-year validity window and the request did not allow it.
	ErrTimeOutOfRange = errors.New("time outside model 5-year lifespan")

	// ErrBlackoutZone indicates H < 2000 nT under StrictZonePolicy.
	// Compass accuracy is highly degraded here.
	ErrBlackoutZone = errors.New("location in blackout zone (H < 2000 nT)")

	// ErrCautionZone indicates 2000 nT <= H < 6000 nT under StrictZonePolicy.
	ErrCautionZone = errors.New("location in caution zone (H < 6000 nT)")
)

// ErrNoUncertaintyModel indicates the result's time predates all published
// WMM error budgets.
var ErrNoUncertaintyModel = errors.New("no uncertainty model for time")
