package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// SerializeFieldReport converts a report into its sink-topic form. The
// report ID becomes the message key so all reports for a fix land on the
// same partition, and routing metadata travels in headers so consumers
// can filter without deserializing the body.
func SerializeFieldReport(report FieldReport) (OutputReport, error) {
	value, err := json.Marshal(report)
	if err != nil {
		return OutputReport{}, fmt.Errorf("serialize field report %s: %w", report.ID, err)
	}

	headers := map[string]string{
		"zone":         report.Zone,
		"processed_at": report.ProcessedAt.UTC().Format(time.RFC3339),
	}
	if report.Source != "" {
		headers["source"] = report.Source
	}

	var key []byte
	if report.ID != "" {
		key = []byte(report.ID)
	}

	return OutputReport{Key: key, Value: value, Headers: headers}, nil
}
