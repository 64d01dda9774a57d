// backend/src/processors/interfaces.go
package processors

import (
	"github.com/giacomoprezioso/affitti-brevi/backend/src/models"
)

// RecordNormalizer maps one raw per-booking input into the canonical
// 26-field shape, leaving derived fields unset.
type RecordNormalizer interface {
	Normalize(raw models.RawBooking, platform, sourceFile string) (models.BookingRecord, error)
}

// Calculator fills the derived fields of a normalized record using the
// injected rate table.
type Calculator interface {
	Calculate(record models.BookingRecord) (models.BookingRecord, error)
}

// Classifications produced by the dedup resolver.
const (
	ClassificationInsert = "INSERT"
	ClassificationUpdate = "UPDATE"
	ClassificationNoOp   = "NO-OP"
)

// Resolution is the dedup outcome for one record. Position is the matched
// ledger row for UPDATE and NO-OP, zero for INSERT.
type Resolution struct {
	Classification string
	Position       int
}

// DedupResolver classifies one record against the pass's working ledger view.
type DedupResolver interface {
	Resolve(record models.BookingRecord, index *LedgerIndex) (Resolution, error)
}

// Reconciler runs the resolver over an ordered batch against a snapshot and
// emits the ordered operation list plus summary counts. On an ambiguous match
// it returns the error together with all operations accumulated so far.
type Reconciler interface {
	Reconcile(batch []models.BookingRecord, snapshot models.LedgerSnapshot) ([]models.Operation, models.ReconcileSummary, error)
}

// ReportProcessor aggregates ledger rows into the dashboard reports.
type ReportProcessor interface {
	MonthlyPivot(rows []models.LedgerRow) []MonthlyPivotRow
	PlatformSummary(rows []models.LedgerRow) []PlatformSummaryRow
	CostsSummary(rows []models.LedgerRow) []CostSummaryRow
}
