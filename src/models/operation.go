// backend/src/models/operation.go
package models

// LedgerRow is one snapshot element: a canonical record tagged with its
// 1-based row position in the ledger store.
type LedgerRow struct {
	Position int           `json:"position"`
	Record   BookingRecord `json:"record"`
}

// LedgerSnapshot is the full ordered read of the ledger taken before a
// reconciliation pass. The core treats it as immutable for the duration of
// the pass.
type LedgerSnapshot struct {
	Rows []LedgerRow `json:"rows"`
}

// NextPosition returns the position an appended row would occupy: one past
// the highest occupied position. The store computes appends the same way, so
// positions decided during reconciliation match positions written on apply.
func (s LedgerSnapshot) NextPosition() int {
	max := 0
	for _, row := range s.Rows {
		if row.Position > max {
			max = row.Position
		}
	}
	return max + 1
}

// Operation kinds emitted by the reconciler, applied in order by the
// persistence layer.
const (
	OpAppend    = "append"
	OpOverwrite = "overwrite"
	OpSkip      = "skip"
)

// Operation is one row operation. Position is meaningful for overwrites
// (the row to replace) and for appends (the trailing position the row will
// occupy once applied — deterministic because operations apply in order).
type Operation struct {
	Kind     string        `json:"kind"`
	Position int           `json:"position"`
	Record   BookingRecord `json:"record"`
}

// ReconcileSummary counts a pass's classifications.
type ReconcileSummary struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

// RecordError reports a per-record failure (schema or calculation) collected
// into the batch error list without aborting the rest of the batch.
type RecordError struct {
	Index      int    `json:"index"` // zero-based position within the source file
	SourceFile string `json:"source_file"`
	Stage      string `json:"stage"` // "parse", "normalize" or "calculate"
	Message    string `json:"message"`
}
