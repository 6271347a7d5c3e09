package wmm

import "time"

// DecimalYear converts a civil timestamp to a decimal year, e.g.
// 2025-07-02 12:00 UTC -> 2025.5. Leap years use a 366-day denominator.
func DecimalYear(t time.Time) float64 {
	t = t.UTC()
	yearStart := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(t.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)

	elapsed := t.Sub(yearStart).Seconds()
	total := yearEnd.Sub(yearStart).Seconds()
	return float64(t.Year()) + elapsed/total
}
