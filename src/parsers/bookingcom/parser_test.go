// backend/src/parsers/bookingcom/parser_test.go
package bookingcom

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/giacomoprezioso/affitti-brevi/backend/src/models"
	"github.com/xuri/excelize/v2"
)

// payoutRows is the fixture shared by the CSV and XLSX tests: the same
// payout report content in the export's fixed 23-leading-column layout.
// One booking with withholding, one without (and no reservation number),
// plus the payout summary and credit note rows that must be skipped.
func payoutRows() [][]string {
	pad := func(cells map[int]string) []string {
		row := make([]string, 23)
		for i, v := range cells {
			row[i] = v
		}
		return row
	}

	return [][]string{
		pad(map[int]string{0: "Tipo", 1: "Riferimento", 2: "Numero di prenotazione", 3: "Check-in", 4: "Check-out", 10: "Nome della struttura", 15: "Importo lordo", 18: "Costi di transazione", 22: "Importo netto"}),
		pad(map[int]string{0: "(Payout)", 1: "payo-123", 15: "271.25"}),
		pad(map[int]string{0: "Prenotazione", 1: "payo-123", 2: "4123456789", 3: "2026-03-10", 4: "2026-03-12", 10: "Caldiero 7", 15: "350.00", 16: "52.50", 18: "-5.25", 20: "11.55", 22: "280.70"}),
		pad(map[int]string{0: "Ritenuta per locazione breve", 1: "payo-123", 2: "4123456789", 15: "-73.50"}),
		pad(map[int]string{0: "credit_note", 1: "payo-456", 15: "-12.00"}),
		pad(map[int]string{0: "Prenotazione", 1: "payo-789", 2: "-", 3: "2026-04-01", 4: "2026-04-03", 10: "Appartamento Verona", 15: "180.00", 18: "0"}),
	}
}

func wantRawBookings() []models.RawBooking {
	return []models.RawBooking{
		{
			models.RawFieldNominativo:    "4123456789",
			models.RawFieldDal:           "2026-03-10",
			models.RawFieldAl:            "2026-03-12",
			models.RawFieldImporto:       "350.00",
			models.RawFieldPaymentCharge: "-5.25",
			models.RawFieldNr:            "4123456789",
			models.RawFieldListing:       "Caldiero 7",
			models.RawFieldTax:           "RL",
		},
		{
			models.RawFieldNominativo:    "payo-789",
			models.RawFieldDal:           "2026-04-01",
			models.RawFieldAl:            "2026-04-03",
			models.RawFieldImporto:       "180.00",
			models.RawFieldPaymentCharge: "0",
			models.RawFieldNr:            "payo-789",
			models.RawFieldListing:       "Appartamento Verona",
			models.RawFieldTax:           "T",
		},
	}
}

func assertRawBookings(t *testing.T, raws []models.RawBooking) {
	t.Helper()
	want := wantRawBookings()
	if len(raws) != len(want) {
		t.Fatalf("got %d raw records, want %d: %v", len(raws), len(want), raws)
	}
	for i := range want {
		if !reflect.DeepEqual(raws[i], want[i]) {
			t.Errorf("raw[%d] = %v, want %v", i, raws[i], want[i])
		}
	}
}

// TestParse_CSVPayoutReport verifies grouping by payout reference over the
// CSV form of the report, including the UTF-8 BOM some exports carry.
func TestParse_CSVPayoutReport(t *testing.T) {
	var lines []string
	for _, row := range payoutRows() {
		lines = append(lines, strings.Join(row, ","))
	}
	csv := "\uFEFF" + strings.Join(lines, "\n") + "\n"

	raws, err := NewParser().Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	assertRawBookings(t, raws)
}

// TestParse_XLSXPayoutReport verifies the same content parses identically
// from the XLSX form, sniffed by its ZIP signature.
func TestParse_XLSXPayoutReport(t *testing.T) {
	f := excelize.NewFile()
	for i, row := range payoutRows() {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("building cell name: %v", err)
		}
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		if err := f.SetSheetRow("Sheet1", cell, &cells); err != nil {
			t.Fatalf("writing fixture row %d: %v", i+1, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("building XLSX fixture: %v", err)
	}

	raws, err := NewParser().Parse(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	assertRawBookings(t, raws)
}

func TestParse_HeaderOnlyReport(t *testing.T) {
	raws, err := NewParser().Parse(strings.NewReader("Tipo,Riferimento,Numero\n"))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(raws) != 0 {
		t.Errorf("header-only report should yield no records, got %d", len(raws))
	}
}

func TestParse_CorruptXLSX(t *testing.T) {
	// ZIP signature followed by garbage: sniffed as XLSX, fails to open.
	data := append([]byte{0x50, 0x4b, 0x03, 0x04}, []byte("not a real workbook")...)
	if _, err := NewParser().Parse(bytes.NewReader(data)); err == nil {
		t.Error("corrupt XLSX must be rejected")
	}
}
