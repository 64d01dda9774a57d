// backend/src/services/import_service.go
package services

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/giacomoprezioso/affitti-brevi/backend/src/ledger"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/logger"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/models"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/parsers"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/processors"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const (
	ckMonthlyReport        = "report_monthly_pivot"
	ckPlatformReport       = "report_platform_summary"
	ckCostsReport          = "report_costs_summary"
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type importServiceImpl struct {
	store       *ledger.Store
	normalizer  processors.RecordNormalizer
	calculator  processors.Calculator
	reconciler  processors.Reconciler
	reports     processors.ReportProcessor
	reportCache *cache.Cache

	// Serializes snapshot → reconcile → apply. The core assumes exclusive
	// access to the snapshot for the duration of one pass; concurrent HTTP
	// uploads must not interleave.
	mu sync.Mutex
}

func NewImportService(
	store *ledger.Store,
	normalizer processors.RecordNormalizer,
	calculator processors.Calculator,
	reconciler processors.Reconciler,
	reports processors.ReportProcessor,
	reportCache *cache.Cache,
) ImportService {
	return &importServiceImpl{
		store:       store,
		normalizer:  normalizer,
		calculator:  calculator,
		reconciler:  reconciler,
		reports:     reports,
		reportCache: reportCache,
	}
}

// ProcessBatch runs one reconciliation pass over the uploaded documents in
// arrival order. Records that fail normalization or calculation join the
// result's error list without blocking the rest; an unreadable file fails
// the whole call with ErrParsingFailed before any ledger access. When the
// reconciler reports an ambiguous match the pass halts: the partial result
// is returned alongside the error and nothing is applied. Dry runs stop
// after reconciliation and leave the ledger untouched.
func (s *importServiceImpl) ProcessBatch(uploads []SourceUpload, dryRun bool) (*ImportResult, error) {
	overallStartTime := time.Now()
	result := &ImportResult{
		BatchID:    uuid.New().String(),
		DryRun:     dryRun,
		Operations: []models.Operation{},
		Errors:     []models.RecordError{},
	}
	logger.L.Info("ProcessBatch START", "batchID", result.BatchID, "files", len(uploads), "dryRun", dryRun)

	var batch []models.BookingRecord
	for _, upload := range uploads {
		result.SourceFiles = append(result.SourceFiles, upload.Filename)

		parser, err := parsers.GetParser(upload.Platform)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
		}
		raws, err := parser.Parse(upload.Reader)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrParsingFailed, upload.Filename, err)
		}

		for i, raw := range raws {
			record, err := s.normalizer.Normalize(raw, upload.Platform, upload.Filename)
			if err != nil {
				result.Errors = append(result.Errors, models.RecordError{
					Index: i, SourceFile: upload.Filename, Stage: "normalize", Message: err.Error(),
				})
				continue
			}
			record, err = s.calculator.Calculate(record)
			if err != nil {
				result.Errors = append(result.Errors, models.RecordError{
					Index: i, SourceFile: upload.Filename, Stage: "calculate", Message: err.Error(),
				})
				continue
			}
			batch = append(batch, record)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.store.Snapshot()
	if err != nil {
		return result, fmt.Errorf("failed to load ledger snapshot: %w", err)
	}

	ops, summary, err := s.reconciler.Reconcile(batch, snapshot)
	result.Operations = ops
	result.Summary = summary
	if err != nil {
		if errors.Is(err, processors.ErrAmbiguousMatch) {
			logger.L.Error("Reconciliation halted by ledger conflict",
				"batchID", result.BatchID, "error", err, "operationsBeforeHalt", len(ops))
		}
		return result, err
	}

	if dryRun {
		logger.L.Info("ProcessBatch END (dry run, nothing applied)",
			"batchID", result.BatchID,
			"inserted", summary.Inserted, "updated", summary.Updated, "skipped", summary.Skipped,
			"recordErrors", len(result.Errors),
			"duration", time.Since(overallStartTime))
		return result, nil
	}

	written, err := s.store.Apply(ops)
	if err != nil {
		return result, fmt.Errorf("failed to apply ledger operations: %w", err)
	}
	result.Applied = true
	if written > 0 {
		s.InvalidateReportCache()
	}

	logger.L.Info("ProcessBatch END",
		"batchID", result.BatchID,
		"inserted", summary.Inserted, "updated", summary.Updated, "skipped", summary.Skipped,
		"recordErrors", len(result.Errors), "rowsWritten", written,
		"duration", time.Since(overallStartTime))
	return result, nil
}

// Ledger returns the full ordered ledger.
func (s *importServiceImpl) Ledger() ([]models.LedgerRow, error) {
	snapshot, err := s.store.Snapshot()
	if err != nil {
		return nil, err
	}
	return snapshot.Rows, nil
}

// LedgerRowCount returns the current ledger size, used by the health check.
func (s *importServiceImpl) LedgerRowCount() (int, error) {
	return s.store.RowCount()
}

func (s *importServiceImpl) MonthlyReport() ([]processors.MonthlyPivotRow, error) {
	if cached, found := s.reportCache.Get(ckMonthlyReport); found {
		return cached.([]processors.MonthlyPivotRow), nil
	}
	rows, err := s.Ledger()
	if err != nil {
		return nil, err
	}
	report := s.reports.MonthlyPivot(rows)
	s.reportCache.Set(ckMonthlyReport, report, DefaultCacheExpiration)
	return report, nil
}

func (s *importServiceImpl) PlatformReport() ([]processors.PlatformSummaryRow, error) {
	if cached, found := s.reportCache.Get(ckPlatformReport); found {
		return cached.([]processors.PlatformSummaryRow), nil
	}
	rows, err := s.Ledger()
	if err != nil {
		return nil, err
	}
	report := s.reports.PlatformSummary(rows)
	s.reportCache.Set(ckPlatformReport, report, DefaultCacheExpiration)
	return report, nil
}

func (s *importServiceImpl) CostsReport() ([]processors.CostSummaryRow, error) {
	if cached, found := s.reportCache.Get(ckCostsReport); found {
		return cached.([]processors.CostSummaryRow), nil
	}
	rows, err := s.Ledger()
	if err != nil {
		return nil, err
	}
	report := s.reports.CostsSummary(rows)
	s.reportCache.Set(ckCostsReport, report, DefaultCacheExpiration)
	return report, nil
}

// ExportLedgerXLSX writes the full ledger as an XLSX workbook.
func (s *importServiceImpl) ExportLedgerXLSX(w io.Writer) error {
	rows, err := s.Ledger()
	if err != nil {
		return err
	}
	return ledger.WriteXLSX(w, rows)
}

// InvalidateReportCache drops every cached report after a ledger write.
func (s *importServiceImpl) InvalidateReportCache() {
	for _, key := range []string{ckMonthlyReport, ckPlatformReport, ckCostsReport} {
		s.reportCache.Delete(key)
	}
}
