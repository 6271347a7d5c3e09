package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/couchcryptid/geomag-field-service/internal/wmm"
)

// ParseRawFix deserializes a RawFix's value into a PositionFix.
// It expects the flat JSON produced by the navigation collectors and
// rejects coordinates outside the WGS-84 domain.
func ParseRawFix(raw RawFix) (PositionFix, error) {
	var rec PositionRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return PositionFix{}, fmt.Errorf("parse raw fix: %w", err)
	}

	if rec.Lat < -90 || rec.Lat > 90 {
		return PositionFix{}, fmt.Errorf("parse raw fix: latitude %g outside [-90, 90]", rec.Lat)
	}
	if rec.Lon < -180 || rec.Lon > 180 {
		return PositionFix{}, fmt.Errorf("parse raw fix: longitude %g outside [-180, 180]", rec.Lon)
	}

	year, err := resolveDecimalYear(rec, raw.Timestamp)
	if err != nil {
		return PositionFix{}, fmt.Errorf("parse raw fix: %w", err)
	}

	id := rec.ID
	if id == "" {
		id = generateID(rec.Source, rec.Lat, rec.Lon, rec.AltKm, year)
	}

	return PositionFix{
		ID:          id,
		Source:      rec.Source,
		Latitude:    rec.Lat,
		Longitude:   rec.Lon,
		AltitudeKm:  rec.AltKm,
		DecimalYear: year,

		RawPayload: raw.Value,
	}, nil
}

// resolveDecimalYear picks the evaluation time for a fix, most explicit
// source first: the decimal_year field, the RFC 3339 time field, the Kafka
// message timestamp, and finally the current clock.
func resolveDecimalYear(rec PositionRecord, messageTime time.Time) (float64, error) {
	if rec.DecimalYear != 0 {
		return rec.DecimalYear, nil
	}
	if rec.Time != "" {
		t, err := time.Parse(time.RFC3339, rec.Time)
		if err != nil {
			return 0, fmt.Errorf("time field: %w", err)
		}
		return wmm.DecimalYear(t), nil
	}
	if !messageTime.IsZero() {
		return wmm.DecimalYear(messageTime), nil
	}
	return wmm.DecimalYear(clock.Now()), nil
}

// generateID produces a deterministic ID from the fix's key fields, so
// reprocessing the same raw fix yields the same ID.
func generateID(source string, lat, lon, altKm, year float64) string {
	input := fmt.Sprintf("%s|%.6f|%.6f|%.3f|%.4f", source, lat, lon, altKm, year)
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if source == "" {
		return short
	}
	return source + "-" + short
}

// ZoneLabel maps the evaluation's zone flags to the report label.
func ZoneLabel(res wmm.Result) string {
	switch {
	case res.InBlackoutZone:
		return ZoneBlackout
	case res.InCautionZone:
		return ZoneCaution
	default:
		return ZoneNominal
	}
}

// BuildFieldReport assembles the outgoing report from a fix and its
// evaluation. The uncertainty budget is optional: fixes evaluated outside
// every published model window ship without one. Grid variation collapses
// to the legacy -999.0 sentinel where it is undefined.
func BuildFieldReport(fix PositionFix, res wmm.Result, unc *wmm.Uncertainty) FieldReport {
	gv := GridVariationUnavailable
	if res.GridVariationValid {
		gv = res.GridVariation
	}

	report := FieldReport{
		ID:          fix.ID,
		Source:      fix.Source,
		Latitude:    fix.Latitude,
		Longitude:   fix.Longitude,
		AltitudeKm:  fix.AltitudeKm,
		DecimalYear: fix.DecimalYear,

		X: res.X,
		Y: res.Y,
		Z: res.Z,
		H: res.H,
		F: res.F,

		Declination:   res.Declination,
		Inclination:   res.Inclination,
		GridVariation: gv,

		Zone:           ZoneLabel(res),
		HighResolution: res.HighResolution,

		ProcessedAt: clock.Now().UTC(),
	}
	if unc != nil {
		report.Uncertainty = &UncertaintyReport{
			X:           unc.X,
			Y:           unc.Y,
			Z:           unc.Z,
			H:           unc.H,
			F:           unc.F,
			Declination: unc.Declination,
			Inclination: unc.Inclination,
		}
	}
	return report
}
