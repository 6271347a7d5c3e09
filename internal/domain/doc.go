// Package domain models the position fixes consumed by the enrichment
// pipeline and the magnetic field reports it produces.
//
// # Data Source
//
// Position fixes originate from navigation and attitude-reference systems
// (inertial units, GNSS receivers, survey loggers) that publish their
// geodetic position as flat JSON to the Kafka source topic:
//
//	{"id":"fix-01","source":"ins-7","lat":47.6205,"lon":-122.3493,
//	 "alt_km":0.0,"time":"2025-04-01T00:00:00Z"}
//
// Coordinates are WGS-84: latitude -90..+90 (north positive), longitude
// -180..+180 (east positive), altitude in kilometers above the reference
// ellipsoid.
//
// # Time Conventions
//
// The magnetic model is evaluated at a decimal year (2025.25 = end of the
// first quarter of 2025). A fix may carry the evaluation time in either
// form:
//
//	"decimal_year": used as-is when present (non-zero)
//	"time":         RFC 3339 timestamp, converted to a decimal year
//
// When the fix carries neither, the Kafka message timestamp is used, and
// failing that the current clock. Replayed topics therefore evaluate at
// their original times rather than at replay time.
//
// # ID Generation
//
// Fixes without an explicit ID get a deterministic SHA-256 hash of
// source|lat|lon|alt|year. Reprocessing the same fix produces the same
// report ID, which keeps downstream upserts idempotent and replays safe.
// See [generateID].
//
// # Reports
//
// A FieldReport echoes the fix and carries the field vector (X north,
// Y east, Z down, H horizontal, F total intensity, all in nanotesla),
// declination and inclination in degrees, the polar grid-variation
// correction, the compass-reliability zone label, and optionally the
// one-sigma error budget. Grid variation is only defined poleward of
// 55 degrees latitude; the wire format keeps the legacy -999.0 sentinel
// for consumers of the original calculator output.
package domain
