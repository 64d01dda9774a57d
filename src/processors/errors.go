// backend/src/processors/errors.go
package processors

import "errors"

// Error taxonomy of a reconciliation pass. Schema, calculation and division
// failures are per-record: they join the batch error list without blocking
// the remaining records. An ambiguous match means the ledger itself has two
// rows for one identity; that is corruption, fatal for the whole pass, and
// never resolved silently.
var (
	ErrSchema         = errors.New("raw record failed schema validation")
	ErrCalculation    = errors.New("missing numeric input for derived fields")
	ErrDivision       = errors.New("day count is zero")
	ErrAmbiguousMatch = errors.New("identity key matches more than one ledger row")
)
