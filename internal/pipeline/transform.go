package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/geomag-field-service/internal/domain"
	"github.com/couchcryptid/geomag-field-service/internal/observability"
	"github.com/couchcryptid/geomag-field-service/internal/wmm"
)

// FieldTransformer implements Transformer: it parses a raw fix, evaluates
// the magnetic field at its position and time, attaches the error budget
// when one is published for that time, and serializes the report.
type FieldTransformer struct {
	evaluator            domain.Evaluator
	allowOutsideLifespan bool
	strictZonePolicy     bool
	logger               *slog.Logger
	metrics              *observability.Metrics
}

// NewTransformer creates a FieldTransformer applying the service-level
// evaluation policy to every fix.
func NewTransformer(evaluator domain.Evaluator, allowOutsideLifespan, strictZonePolicy bool, logger *slog.Logger, metrics *observability.Metrics) *FieldTransformer {
	return &FieldTransformer{
		evaluator:            evaluator,
		allowOutsideLifespan: allowOutsideLifespan,
		strictZonePolicy:     strictZonePolicy,
		logger:               logger,
		metrics:              metrics,
	}
}

func (t *FieldTransformer) Transform(_ context.Context, raw domain.RawFix) (domain.OutputReport, error) {
	fix, err := domain.ParseRawFix(raw)
	if err != nil {
		return domain.OutputReport{}, err
	}

	start := time.Now()
	res, err := t.evaluator.Evaluate(wmm.Request{
		Latitude:             fix.Latitude,
		Longitude:            fix.Longitude,
		AltitudeKm:           fix.AltitudeKm,
		DecimalYear:          fix.DecimalYear,
		AllowOutsideLifespan: t.allowOutsideLifespan,
		StrictZonePolicy:     t.strictZonePolicy,
	})
	t.metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		t.metrics.Evaluations.WithLabelValues(evaluationOutcome(err)).Inc()
		return domain.OutputReport{}, err
	}
	t.metrics.Evaluations.WithLabelValues("ok").Inc()

	// The error budget is best-effort: fixes evaluated outside every
	// published model window still produce a report, just without one.
	var unc *wmm.Uncertainty
	if u, err := wmm.EstimateUncertainty(res); err == nil {
		unc = &u
	} else if errors.Is(err, wmm.ErrNoUncertaintyModel) {
		t.logger.Debug("no error budget for evaluation time",
			"fix_id", fix.ID, "decimal_year", fix.DecimalYear)
	}

	report := domain.BuildFieldReport(fix, res, unc)
	t.metrics.ZoneReports.WithLabelValues(report.Zone).Inc()

	return domain.SerializeFieldReport(report)
}

func evaluationOutcome(err error) string {
	switch {
	case errors.Is(err, wmm.ErrTimeOutOfRange):
		return "out_of_range"
	case errors.Is(err, wmm.ErrBlackoutZone), errors.Is(err, wmm.ErrCautionZone):
		return "rejected"
	default:
		return "error"
	}
}
