// backend/src/processors/reconciler.go
package processors

import (
	"fmt"

	"github.com/giacomoprezioso/affitti-brevi/backend/src/models"
)

type reconcilerImpl struct {
	resolver DedupResolver
}

// NewReconciler creates the ledger reconciler.
func NewReconciler(resolver DedupResolver) Reconciler {
	return &reconcilerImpl{resolver: resolver}
}

// Reconcile walks the batch in input order (source-file arrival order, then
// within-file order) and accumulates the ordered operation list. The working
// index is extended as appends and overwrites are decided, so a later record
// repeating an earlier in-batch identity classifies against the pending row
// and the uniqueness invariant holds within a single pass.
//
// The first ambiguous match halts the pass: the error is returned together
// with every operation accumulated before the offending record, and the
// caller decides whether to apply the partial list.
func (rc *reconcilerImpl) Reconcile(batch []models.BookingRecord, snapshot models.LedgerSnapshot) ([]models.Operation, models.ReconcileSummary, error) {
	index := NewLedgerIndex(snapshot)
	ops := make([]models.Operation, 0, len(batch))
	var summary models.ReconcileSummary

	for i, record := range batch {
		resolution, err := rc.resolver.Resolve(record, index)
		if err != nil {
			return ops, summary, fmt.Errorf("reconciliation halted at batch record %d: %w", i, err)
		}

		switch resolution.Classification {
		case ClassificationInsert:
			pos := index.Append(record)
			ops = append(ops, models.Operation{Kind: models.OpAppend, Position: pos, Record: record})
			summary.Inserted++
		case ClassificationUpdate:
			index.Replace(resolution.Position, record)
			ops = append(ops, models.Operation{Kind: models.OpOverwrite, Position: resolution.Position, Record: record})
			summary.Updated++
		case ClassificationNoOp:
			ops = append(ops, models.Operation{Kind: models.OpSkip, Position: resolution.Position, Record: record})
			summary.Skipped++
		}
	}

	return ops, summary, nil
}
