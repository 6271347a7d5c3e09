// Command fieldcalc evaluates the geomagnetic field at a single point and
// time from the command line, without Kafka or HTTP. It is the offline
// counterpart of the service's /v1/field endpoint and useful for sanity
// checks against published reference values.
//
// Usage:
//
//	go run ./cmd/fieldcalc \
//	  -model WMM.COF \
//	  -lat 47.6205 -lon -122.3493 -alt 0.058 \
//	  -time 2025.25
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/geomag-field-service/internal/domain"
	"github.com/couchcryptid/geomag-field-service/internal/wmm"
)

func main() {
	if code := run(); code != 0 {
		os.Exit(code)
	}
}

func run() int {
	modelPath := flag.String("model", "", "path to the coefficient file (WMM.COF or WMMHR.COF)")
	highRes := flag.Bool("hr", false, "treat the coefficient file as high-resolution (degree 133)")
	lat := flag.Float64("lat", 0, "geodetic latitude in degrees, north positive")
	lon := flag.Float64("lon", 0, "longitude in degrees, east positive")
	alt := flag.Float64("alt", 0, "altitude above the WGS-84 ellipsoid in kilometers")
	timeStr := flag.String("time", "", "evaluation time: decimal year or RFC 3339 (default: now)")
	allowOutside := flag.Bool("allow-outside-lifespan", false, "evaluate outside the model's five-year window")
	strictZones := flag.Bool("strict-zones", false, "fail instead of warn in caution and blackout zones")
	asJSON := flag.Bool("json", false, "emit the report as JSON instead of text")
	flag.Parse()

	if *modelPath == "" {
		flag.Usage()
		return 2
	}
	if *lat < -90 || *lat > 90 {
		fmt.Fprintln(os.Stderr, "fieldcalc: -lat must be in [-90, 90]")
		return 2
	}
	if *lon < -180 || *lon > 180 {
		fmt.Fprintln(os.Stderr, "fieldcalc: -lon must be in [-180, 180]")
		return 2
	}

	year, err := parseTime(*timeStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fieldcalc: bad -time: %v\n", err)
		return 2
	}

	model, err := wmm.LoadModel(*modelPath, *highRes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fieldcalc: load model: %v\n", err)
		return 1
	}

	res, err := model.Evaluate(wmm.Request{
		Latitude:             *lat,
		Longitude:            *lon,
		AltitudeKm:           *alt,
		DecimalYear:          year,
		AllowOutsideLifespan: *allowOutside,
		StrictZonePolicy:     *strictZones,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "fieldcalc: %v\n", err)
		return 1
	}

	var unc *wmm.Uncertainty
	if u, err := wmm.EstimateUncertainty(res); err == nil {
		unc = &u
	}

	if *asJSON {
		report := domain.BuildFieldReport(domain.PositionFix{
			Latitude:    *lat,
			Longitude:   *lon,
			AltitudeKm:  *alt,
			DecimalYear: year,
		}, res, unc)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(os.Stderr, "fieldcalc: encode report: %v\n", err)
			return 1
		}
		return 0
	}

	printReport(model, res, unc)
	return 0
}

// parseTime accepts a decimal year ("2025.25") or an RFC 3339 timestamp;
// empty means now.
func parseTime(s string) (float64, error) {
	if s == "" {
		return wmm.DecimalYear(time.Now()), nil
	}
	if year, err := strconv.ParseFloat(s, 64); err == nil {
		return year, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, errors.New("want a decimal year or RFC 3339 timestamp")
	}
	return wmm.DecimalYear(t), nil
}

func printReport(model *wmm.Model, res wmm.Result, unc *wmm.Uncertainty) {
	fmt.Printf("Model:          %s (epoch %.1f, degree %d)\n", model.Name(), model.Epoch(), model.MaxDegree())
	fmt.Printf("Position:       %.4f°, %.4f°, %.3f km\n", res.Latitude, res.Longitude, res.AltitudeKm)
	fmt.Printf("Time:           %.4f\n\n", res.DecimalYear)

	u := func(get func(*wmm.Uncertainty) float64, unit string) string {
		if unc == nil {
			return ""
		}
		return fmt.Sprintf("  ± %.2f %s", get(unc), unit)
	}

	fmt.Printf("Declination:    %10.4f°%s\n", res.Declination, u(func(u *wmm.Uncertainty) float64 { return u.Declination }, "°"))
	fmt.Printf("Inclination:    %10.4f°%s\n", res.Inclination, u(func(u *wmm.Uncertainty) float64 { return u.Inclination }, "°"))
	fmt.Printf("Horizontal (H): %10.1f nT%s\n", res.H, u(func(u *wmm.Uncertainty) float64 { return u.H }, "nT"))
	fmt.Printf("North (X):      %10.1f nT%s\n", res.X, u(func(u *wmm.Uncertainty) float64 { return u.X }, "nT"))
	fmt.Printf("East (Y):       %10.1f nT%s\n", res.Y, u(func(u *wmm.Uncertainty) float64 { return u.Y }, "nT"))
	fmt.Printf("Down (Z):       %10.1f nT%s\n", res.Z, u(func(u *wmm.Uncertainty) float64 { return u.Z }, "nT"))
	fmt.Printf("Total (F):      %10.1f nT%s\n", res.F, u(func(u *wmm.Uncertainty) float64 { return u.F }, "nT"))

	if res.GridVariationValid {
		fmt.Printf("Grid variation: %10.4f°\n", res.GridVariation)
	}

	switch {
	case res.InBlackoutZone:
		fmt.Println("\nWARNING: blackout zone — compass accuracy is highly degraded here.")
	case res.InCautionZone:
		fmt.Println("\nCaution: weak horizontal field — compass accuracy may be degraded here.")
	}
	if unc == nil {
		fmt.Println("\nNote: no published error budget covers this evaluation time.")
	}
}
