// Command genfixes generates deterministic position-fix fixtures and their
// expected field reports for integration and consumer test suites. It uses
// the actual domain and model packages so the expected output matches real
// pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genfixes \
//	  -model WMM.COF \
//	  -fixes-out data/mock/position_fixes.json \
//	  -reports-out data/mock/field_reports.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/geomag-field-service/internal/domain"
	"github.com/couchcryptid/geomag-field-service/internal/wmm"
)

// Fixture sites span the interesting regimes: mid-latitudes, the polar
// caps where grid variation applies, the South Atlantic Anomaly, and the
// magnetic dip poles where the zone warnings fire.
var sites = []struct {
	name     string
	lat, lon float64
	altKm    float64
}{
	{"seattle", 47.6205, -122.3493, 0.058},
	{"denver", 39.7392, -104.9903, 1.609},
	{"sydney", -33.8688, 151.2093, 0.058},
	{"reykjavik", 64.1466, -21.9426, 0},
	{"fairbanks", 64.8378, -147.7164, 0.135},
	{"longyearbyen", 78.2232, 15.6267, 0},
	{"mcmurdo", -77.8419, 166.6863, 0.01},
	{"saint-helena", -15.9650, -5.7089, 0},
	{"quito", -0.1807, -78.4678, 2.85},
	{"singapore", 1.3521, 103.8198, 0},
	{"north-dip-pole", 86.50, 162.87, 0},
	{"south-dip-pole", -63.97, 135.76, 0},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	modelPath := flag.String("model", "", "path to the coefficient file")
	highRes := flag.Bool("hr", false, "treat the coefficient file as high-resolution")
	fixYear := flag.Float64("time", 2025.25, "decimal year stamped on every fix")
	fixesOut := flag.String("fixes-out", "", "output path for the position-fix fixture")
	reportsOut := flag.String("reports-out", "", "output path for the expected field-report fixture")
	flag.Parse()

	if *modelPath == "" || *fixesOut == "" || *reportsOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -model, -fixes-out, -reports-out")
	}

	model, err := wmm.LoadModel(*modelPath, *highRes)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}

	// Fix the clock for reproducible ProcessedAt timestamps and IDs.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2025, time.April, 1, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	fixes := make([]domain.PositionRecord, 0, len(sites))
	reports := make([]domain.FieldReport, 0, len(sites))

	for _, site := range sites {
		rec := domain.PositionRecord{
			Source:      "fixture",
			Lat:         site.lat,
			Lon:         site.lon,
			AltKm:       site.altKm,
			DecimalYear: *fixYear,
		}

		// Run the actual transformation path.
		rawJSON, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", site.name, err)
		}
		fix, err := domain.ParseRawFix(domain.RawFix{Value: rawJSON})
		if err != nil {
			return fmt.Errorf("parse %s: %w", site.name, err)
		}

		res, err := model.Evaluate(wmm.Request{
			Latitude:    fix.Latitude,
			Longitude:   fix.Longitude,
			AltitudeKm:  fix.AltitudeKm,
			DecimalYear: fix.DecimalYear,
		})
		if err != nil {
			return fmt.Errorf("evaluate %s: %w", site.name, err)
		}

		var unc *wmm.Uncertainty
		if u, err := wmm.EstimateUncertainty(res); err == nil {
			unc = &u
		}

		rec.ID = fix.ID
		fixes = append(fixes, rec)
		reports = append(reports, domain.BuildFieldReport(fix, res, unc))
		log.Printf("%s: D=%.2f° zone=%s", site.name, res.Declination, domain.ZoneLabel(res))
	}

	if err := writeJSON(*fixesOut, fixes); err != nil {
		return fmt.Errorf("writing fix fixture: %w", err)
	}
	log.Printf("wrote fix fixture: %s", *fixesOut)

	if err := writeJSON(*reportsOut, reports); err != nil {
		return fmt.Errorf("writing report fixture: %w", err)
	}
	log.Printf("wrote report fixture: %s", *reportsOut)

	printStats(reports)
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(reports []domain.FieldReport) {
	zoneCounts := map[string]int{}
	gridCount := 0
	minD, maxD := reports[0].Declination, reports[0].Declination
	for i := range reports {
		r := &reports[i]
		zoneCounts[r.Zone]++
		if r.GridVariation != domain.GridVariationUnavailable {
			gridCount++
		}
		if r.Declination < minD {
			minD = r.Declination
		}
		if r.Declination > maxD {
			maxD = r.Declination
		}
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", len(reports))
	fmt.Printf("By zone: nominal=%d, caution=%d, blackout=%d\n",
		zoneCounts[domain.ZoneNominal], zoneCounts[domain.ZoneCaution], zoneCounts[domain.ZoneBlackout])
	fmt.Printf("With grid variation: %d\n", gridCount)
	fmt.Printf("Declination range: %.2f° to %.2f°\n", minD, maxD)
}
