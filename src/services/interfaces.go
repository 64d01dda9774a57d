// backend/src/services/interfaces.go
package services

import (
	"errors"
	"io"

	"github.com/giacomoprezioso/affitti-brevi/backend/src/models"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/processors"
)

// SourceUpload is one source document of an import batch, in arrival order.
// Filename becomes the records' source_file tag; Platform selects the input
// adapter and flows into piattaforma_raw.
type SourceUpload struct {
	Filename string
	Platform string
	Reader   io.Reader
}

// ImportResult is the outcome of one reconciliation pass over a batch.
// Operations holds the full ordered list (the dry-run preview); Errors the
// per-record failures that did not block the rest of the batch. Applied is
// false for dry runs and for passes halted by a ledger conflict.
type ImportResult struct {
	BatchID     string                  `json:"batch_id"`
	SourceFiles []string                `json:"source_files"`
	DryRun      bool                    `json:"dry_run"`
	Applied     bool                    `json:"applied"`
	Summary     models.ReconcileSummary `json:"summary"`
	Operations  []models.Operation      `json:"operations"`
	Errors      []models.RecordError    `json:"errors"`
}

// Define common service errors
var (
	ErrParsingFailed = errors.New("source file parsing failed")
)

// ImportService is the application surface over the reconciliation core:
// parse, normalize, calculate, reconcile and apply under the single-writer
// discipline the core requires, plus the read paths (ledger, reports,
// export) the dashboard consumes.
type ImportService interface {
	ProcessBatch(uploads []SourceUpload, dryRun bool) (*ImportResult, error)
	Ledger() ([]models.LedgerRow, error)
	LedgerRowCount() (int, error)
	MonthlyReport() ([]processors.MonthlyPivotRow, error)
	PlatformReport() ([]processors.PlatformSummaryRow, error)
	CostsReport() ([]processors.CostSummaryRow, error)
	ExportLedgerXLSX(w io.Writer) error
	InvalidateReportCache()
}
