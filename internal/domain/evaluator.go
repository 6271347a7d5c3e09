package domain

import "github.com/couchcryptid/geomag-field-service/internal/wmm"

// Evaluator computes the magnetic field for a request. *wmm.Model is the
// production implementation; the cache decorator and test fakes also
// satisfy it.
type Evaluator interface {
	Evaluate(req wmm.Request) (wmm.Result, error)
}
