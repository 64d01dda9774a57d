// backend/src/processors/report_processor.go
package processors

import (
	"sort"
	"strings"

	"github.com/giacomoprezioso/affitti-brevi/backend/src/models"
	"github.com/shopspring/decimal"
)

// TotalLabel marks margin rows in the monthly pivot.
const TotalLabel = "TOTALE"

// MonthlyPivotRow is one cell group of the mese × property pivot. Margin
// rows carry TOTALE as property (per-month totals) or as both keys (grand
// total).
type MonthlyPivotRow struct {
	Mese      string          `json:"mese"`
	Property  string          `json:"property"`
	Bookings  int             `json:"bookings"`
	Giorni    int             `json:"giorni"`
	Lordo     decimal.Decimal `json:"lordo"`
	Incassato decimal.Decimal `json:"incassato"`
}

// PlatformSummaryRow aggregates bookings per originating platform.
type PlatformSummaryRow struct {
	Platform  string          `json:"platform"`
	Bookings  int             `json:"bookings"`
	Giorni    int             `json:"giorni"`
	Lordo     decimal.Decimal `json:"lordo"`
	Incassato decimal.Decimal `json:"incassato"`
	Ritenuta  decimal.Decimal `json:"ritenuta"`
}

// CostSummaryRow aggregates expense rows (negative importo) by reason and
// supplier.
type CostSummaryRow struct {
	Causale     string          `json:"causale"`
	Ente        string          `json:"ente"`
	Total       decimal.Decimal `json:"total"`
	Occurrences int             `json:"occurrences"`
}

type reportProcessorImpl struct{}

// NewReportProcessor creates the report aggregator.
func NewReportProcessor() ReportProcessor {
	return &reportProcessorImpl{}
}

// isBooking selects income rows the way the dashboard reports always have:
// tipo "incasso" or a "da clienti" causale.
func isBooking(rec models.BookingRecord) bool {
	return strings.Contains(strings.ToLower(rec.Tipo), models.TipoIncasso) ||
		strings.Contains(strings.ToLower(rec.Causale), "da clienti")
}

func propertyLabel(rec models.BookingRecord) string {
	if rec.Caldiero {
		return "Caldiero"
	}
	return "Altre"
}

// MonthlyPivot builds the mese × property pivot over booking rows, with a
// TOTALE margin row per month and a grand TOTALE row at the end. Months are
// sorted ascending, properties alphabetically within a month.
func (p *reportProcessorImpl) MonthlyPivot(rows []models.LedgerRow) []MonthlyPivotRow {
	type cellKey struct{ mese, property string }
	cells := make(map[cellKey]*MonthlyPivotRow)
	monthTotals := make(map[string]*MonthlyPivotRow)
	grand := MonthlyPivotRow{Mese: TotalLabel, Property: TotalLabel}

	for _, row := range rows {
		rec := row.Record
		if !isBooking(rec) {
			continue
		}

		key := cellKey{mese: rec.Mese, property: propertyLabel(rec)}
		cell, ok := cells[key]
		if !ok {
			cell = &MonthlyPivotRow{Mese: key.mese, Property: key.property}
			cells[key] = cell
		}
		total, ok := monthTotals[key.mese]
		if !ok {
			total = &MonthlyPivotRow{Mese: key.mese, Property: TotalLabel}
			monthTotals[key.mese] = total
		}

		for _, target := range []*MonthlyPivotRow{cell, total, &grand} {
			target.Bookings++
			target.Giorni += rec.Giorni
			target.Lordo = target.Lordo.Add(rec.Lordo)
			target.Incassato = target.Incassato.Add(rec.Incassato)
		}
	}

	months := make([]string, 0, len(monthTotals))
	for mese := range monthTotals {
		months = append(months, mese)
	}
	sort.Strings(months)

	var result []MonthlyPivotRow
	for _, mese := range months {
		var monthRows []MonthlyPivotRow
		for key, cell := range cells {
			if key.mese == mese {
				monthRows = append(monthRows, *cell)
			}
		}
		sort.Slice(monthRows, func(i, j int) bool { return monthRows[i].Property < monthRows[j].Property })
		result = append(result, monthRows...)
		result = append(result, *monthTotals[mese])
	}
	if grand.Bookings > 0 {
		result = append(result, grand)
	}
	return result
}

// PlatformSummary aggregates booking rows per platform, alphabetically.
func (p *reportProcessorImpl) PlatformSummary(rows []models.LedgerRow) []PlatformSummaryRow {
	byPlatform := make(map[string]*PlatformSummaryRow)

	for _, row := range rows {
		rec := row.Record
		if !isBooking(rec) {
			continue
		}

		platform := rec.PiattaformaRaw
		if platform == "" {
			platform = strings.ToLower(rec.Ente)
		}

		summary, ok := byPlatform[platform]
		if !ok {
			summary = &PlatformSummaryRow{Platform: platform}
			byPlatform[platform] = summary
		}
		summary.Bookings++
		summary.Giorni += rec.Giorni
		summary.Lordo = summary.Lordo.Add(rec.Lordo)
		summary.Incassato = summary.Incassato.Add(rec.Incassato)
		summary.Ritenuta = summary.Ritenuta.Add(rec.Ritenuta)
	}

	result := make([]PlatformSummaryRow, 0, len(byPlatform))
	for _, summary := range byPlatform {
		result = append(result, *summary)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Platform < result[j].Platform })
	return result
}

// CostsSummary aggregates expense rows (negative importo) by reason and
// supplier, the counterpart of the booking reports for ledgers that carry
// utility and maintenance rows.
func (p *reportProcessorImpl) CostsSummary(rows []models.LedgerRow) []CostSummaryRow {
	type costKey struct{ causale, ente string }
	byKey := make(map[costKey]*CostSummaryRow)

	for _, row := range rows {
		rec := row.Record
		if !rec.Importo.Valid || !rec.Importo.Decimal.IsNegative() {
			continue
		}

		key := costKey{causale: rec.Causale, ente: rec.Ente}
		summary, ok := byKey[key]
		if !ok {
			summary = &CostSummaryRow{Causale: key.causale, Ente: key.ente}
			byKey[key] = summary
		}
		summary.Occurrences++
		summary.Total = summary.Total.Add(rec.Importo.Decimal).Round(2)
	}

	result := make([]CostSummaryRow, 0, len(byKey))
	for _, summary := range byKey {
		result = append(result, *summary)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Causale != result[j].Causale {
			return result[i].Causale < result[j].Causale
		}
		return result[i].Ente < result[j].Ente
	})
	return result
}
