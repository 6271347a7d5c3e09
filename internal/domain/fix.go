package domain

import (
	"context"
	"time"
)

// PositionRecord represents the flat JSON structure published by the
// navigation collectors. Exactly one of DecimalYear and Time is expected;
// when both are present DecimalYear wins.
type PositionRecord struct {
	ID          string  `json:"id"`
	Source      string  `json:"source"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	AltKm       float64 `json:"alt_km"`
	DecimalYear float64 `json:"decimal_year,omitempty"`
	Time        string  `json:"time,omitempty"` // RFC 3339
}

// RawFix represents an unprocessed message from the source topic.
type RawFix struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// PositionFix is the validated representation after parsing.
type PositionFix struct {
	ID          string
	Source      string
	Latitude    float64
	Longitude   float64
	AltitudeKm  float64
	DecimalYear float64

	RawPayload []byte
}

// Compass-reliability zone labels attached to outgoing reports.
const (
	ZoneNominal  = "nominal"
	ZoneCaution  = "caution"
	ZoneBlackout = "blackout"
)

// GridVariationUnavailable is the wire sentinel emitted when the fix lies
// equatorward of 55 degrees and grid variation is undefined. It matches
// the value the original point calculator printed, so existing consumers
// keep working.
const GridVariationUnavailable = -999.0

// FieldReport is the serialized form destined for the sink topic.
type FieldReport struct {
	ID          string  `json:"id"`
	Source      string  `json:"source,omitempty"`
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
	AltitudeKm  float64 `json:"alt_km"`
	DecimalYear float64 `json:"decimal_year"`

	X float64 `json:"x_nt"`
	Y float64 `json:"y_nt"`
	Z float64 `json:"z_nt"`
	H float64 `json:"h_nt"`
	F float64 `json:"f_nt"`

	Declination   float64 `json:"declination_deg"`
	Inclination   float64 `json:"inclination_deg"`
	GridVariation float64 `json:"grid_variation_deg"`

	Zone           string `json:"zone"`
	HighResolution bool   `json:"high_resolution,omitempty"`

	Uncertainty *UncertaintyReport `json:"uncertainty,omitempty"`

	ProcessedAt time.Time `json:"processed_at"`
}

// UncertaintyReport carries the one-sigma error budget for a report.
type UncertaintyReport struct {
	X           float64 `json:"x_nt"`
	Y           float64 `json:"y_nt"`
	Z           float64 `json:"z_nt"`
	H           float64 `json:"h_nt"`
	F           float64 `json:"f_nt"`
	Declination float64 `json:"declination_deg"`
	Inclination float64 `json:"inclination_deg"`
}

// OutputReport is the serialized form handed to the sink adapter.
type OutputReport struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
