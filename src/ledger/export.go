// backend/src/ledger/export.go
package ledger

import (
	"fmt"
	"io"

	"github.com/giacomoprezioso/affitti-brevi/backend/src/models"
	"github.com/xuri/excelize/v2"
)

// ExportSheetName matches the sheet name hand-kept ledgers have always used,
// so an exported workbook drops into the accountant's existing workflow.
const ExportSheetName = "elenco"

// WriteXLSX streams the full ledger as an XLSX workbook: one header row with
// the 26 canonical column names, then one row per ledger row in position
// order. Money lands as numbers, dates as ISO day strings.
func WriteXLSX(w io.Writer, rows []models.LedgerRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheetName); err != nil {
		return fmt.Errorf("error naming export sheet: %w", err)
	}

	for i, name := range models.LedgerColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("error locating header cell %d: %w", i+1, err)
		}
		if err := f.SetCellValue(ExportSheetName, cell, name); err != nil {
			return fmt.Errorf("error writing header %q: %w", name, err)
		}
	}

	for rowIdx, row := range rows {
		for colIdx, value := range exportValues(row.Record) {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return fmt.Errorf("error locating cell for ledger row %d: %w", row.Position, err)
			}
			if err := f.SetCellValue(ExportSheetName, cell, value); err != nil {
				return fmt.Errorf("error writing ledger row %d: %w", row.Position, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing XLSX export: %w", err)
	}
	return nil
}

// exportValues renders a record as the 26 cell values in schema order. An
// absent importo exports as an empty cell, never as a misleading zero.
func exportValues(rec models.BookingRecord) []any {
	var importo any = ""
	if rec.Importo.Valid {
		importo = rec.Importo.Decimal.InexactFloat64()
	}
	data := ""
	if !rec.Data.IsZero() {
		data = rec.Data.Format(models.LedgerDateFormat)
	}
	return []any{
		rec.Caldiero,
		rec.Dal.Format(models.LedgerDateFormat),
		rec.Al.Format(models.LedgerDateFormat),
		rec.Mese,
		rec.Tax,
		importo,
		rec.Tipo,
		rec.Causale,
		rec.Ente,
		rec.Nominativo,
		rec.Documento,
		rec.Nr,
		data,
		rec.Periodo,
		rec.IntestataA,
		rec.Giorni,
		rec.Inviato1K,
		rec.Ritenuta.InexactFloat64(),
		rec.Incassato.InexactFloat64(),
		rec.Lordo.InexactFloat64(),
		rec.Commission.InexactFloat64(),
		rec.PaymentCharge.InexactFloat64(),
		rec.Vat.InexactFloat64(),
		rec.EuroGg.InexactFloat64(),
		rec.PiattaformaRaw,
		rec.SourceFile,
	}
}
