// backend/src/processors/report_processor_test.go
package processors

import (
	"testing"

	"github.com/giacomoprezioso/affitti-brevi/backend/src/models"
)

// reportFixture builds a small mixed ledger: three bookings across two months
// and both property groups, plus expense rows that must stay out of the
// booking reports.
func reportFixture(t *testing.T) []models.LedgerRow {
	t.Helper()

	car := bookingOn(t, "Rossi", "2026-03-10", "2026-03-12", "marzo.csv", "300")
	car.Caldiero = true
	car.Giorni = 3
	car.Lordo = money("289.02")
	car.Incassato = money("289.02")
	car.PiattaformaRaw = "airbnb"

	alt := bookingOn(t, "Bianchi", "2026-03-15", "2026-03-16", "payout.xlsx", "200")
	alt.Giorni = 2
	alt.Lordo = money("163.40")
	alt.Incassato = money("129.09")
	alt.Ritenuta = money("34.31")
	alt.PiattaformaRaw = "booking"

	apr := bookingOn(t, "Verdi", "2026-04-01", "2026-04-01", "manuale", "100")
	apr.Caldiero = true
	apr.Giorni = 1
	apr.Lordo = money("100")
	apr.Incassato = money("100")
	apr.PiattaformaRaw = "diretto"

	bolletta := models.BookingRecord{
		Dal: day(t, "2026-03-20"), Al: day(t, "2026-03-20"),
		Mese: "2026-03", Tipo: models.TipoOrdinarie,
		Causale: "bollette", Ente: "Enel", Nominativo: "Enel Energia",
		Importo:    nullMoney("-45"),
		SourceFile: "spese.csv",
	}
	bolletta2 := bolletta
	bolletta2.Dal, bolletta2.Al = day(t, "2026-04-20"), day(t, "2026-04-20")
	bolletta2.Mese = "2026-04"
	bolletta2.Importo = nullMoney("-30")

	rows := []models.LedgerRow{}
	for i, rec := range []models.BookingRecord{car, alt, apr, bolletta, bolletta2} {
		rows = append(rows, models.LedgerRow{Position: i + 1, Record: rec})
	}
	return rows
}

// TestMonthlyPivot verifies the mese × property pivot: per-cell aggregates,
// a TOTALE margin per month, a grand TOTALE row last, and expense rows
// excluded throughout.
func TestMonthlyPivot(t *testing.T) {
	report := NewReportProcessor().MonthlyPivot(reportFixture(t))

	want := []struct {
		mese, property string
		bookings       int
		giorni         int
		lordo          string
		incassato      string
	}{
		{"2026-03", "Altre", 1, 2, "163.40", "129.09"},
		{"2026-03", "Caldiero", 1, 3, "289.02", "289.02"},
		{"2026-03", TotalLabel, 2, 5, "452.42", "418.11"},
		{"2026-04", "Caldiero", 1, 1, "100", "100"},
		{"2026-04", TotalLabel, 1, 1, "100", "100"},
		{TotalLabel, TotalLabel, 3, 6, "552.42", "518.11"},
	}

	if len(report) != len(want) {
		t.Fatalf("pivot has %d rows, want %d: %+v", len(report), len(want), report)
	}
	for i, w := range want {
		got := report[i]
		if got.Mese != w.mese || got.Property != w.property {
			t.Errorf("row %d = %s/%s, want %s/%s", i, got.Mese, got.Property, w.mese, w.property)
			continue
		}
		if got.Bookings != w.bookings || got.Giorni != w.giorni {
			t.Errorf("%s/%s: bookings=%d giorni=%d, want %d/%d",
				w.mese, w.property, got.Bookings, got.Giorni, w.bookings, w.giorni)
		}
		assertMoney(t, w.mese+"/"+w.property+" lordo", got.Lordo, w.lordo)
		assertMoney(t, w.mese+"/"+w.property+" incassato", got.Incassato, w.incassato)
	}
}

func TestMonthlyPivot_EmptyLedger(t *testing.T) {
	if report := NewReportProcessor().MonthlyPivot(nil); len(report) != 0 {
		t.Errorf("empty ledger pivot has %d rows, want 0", len(report))
	}
}

// TestPlatformSummary verifies per-platform aggregation, alphabetical order
// and the withholding column.
func TestPlatformSummary(t *testing.T) {
	report := NewReportProcessor().PlatformSummary(reportFixture(t))

	if len(report) != 3 {
		t.Fatalf("summary has %d platforms, want 3: %+v", len(report), report)
	}

	wantPlatforms := []string{"airbnb", "booking", "diretto"}
	for i, platform := range wantPlatforms {
		if report[i].Platform != platform {
			t.Errorf("row %d platform = %s, want %s", i, report[i].Platform, platform)
		}
	}

	booking := report[1]
	if booking.Bookings != 1 || booking.Giorni != 2 {
		t.Errorf("booking row = %+v", booking)
	}
	assertMoney(t, "booking lordo", booking.Lordo, "163.40")
	assertMoney(t, "booking ritenuta", booking.Ritenuta, "34.31")
	assertMoney(t, "booking incassato", booking.Incassato, "129.09")
}

// TestCostsSummary verifies expense rows (negative importo) aggregate by
// causale and ente while bookings and absent amounts stay out.
func TestCostsSummary(t *testing.T) {
	report := NewReportProcessor().CostsSummary(reportFixture(t))

	if len(report) != 1 {
		t.Fatalf("costs summary has %d rows, want 1: %+v", len(report), report)
	}
	row := report[0]
	if row.Causale != "bollette" || row.Ente != "Enel" {
		t.Errorf("cost key = %s/%s, want bollette/Enel", row.Causale, row.Ente)
	}
	if row.Occurrences != 2 {
		t.Errorf("occurrences = %d, want 2", row.Occurrences)
	}
	assertMoney(t, "cost total", row.Total, "-75")
}
