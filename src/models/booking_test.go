// backend/src/models/booking_test.go
package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func day(t *testing.T, iso string) time.Time {
	t.Helper()
	d, err := time.Parse(LedgerDateFormat, iso)
	if err != nil {
		t.Fatalf("bad test date %q: %v", iso, err)
	}
	return d
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nullMoney(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func sampleRecord(t *testing.T) BookingRecord {
	t.Helper()
	return BookingRecord{
		Dal:        day(t, "2026-03-10"),
		Al:         day(t, "2026-03-12"),
		Mese:       "2026-03",
		Tax:        "T",
		Importo:    nullMoney("300"),
		Tipo:       TipoIncasso,
		Causale:    "da clienti",
		Ente:       "Airbnb",
		Nominativo: "Mario Rossi",
		Documento:  "prenotazione",
		Nr:         "HMABC123",
		Data:       day(t, "2026-03-10"),
		Giorni:     3,
		Lordo:      money("289.02"),
		Incassato:  money("289.02"),
		Commission: money("9"),
		Vat:        money("1.98"),
		EuroGg:     money("96.34"),

		PiattaformaRaw: "airbnb",
		SourceFile:     "marzo.csv",
	}
}

// TestIdentity_KeyedByCalendarDay verifies that two records for the same stay
// built from times in different locations still produce the same identity
// key: identity is (nominativo, dal, al, source_file) at day precision.
func TestIdentity_KeyedByCalendarDay(t *testing.T) {
	rome := time.FixedZone("CET", 3600)

	a := sampleRecord(t)
	b := sampleRecord(t)
	b.Dal = time.Date(2026, time.March, 10, 14, 30, 0, 0, rome)
	b.Al = time.Date(2026, time.March, 12, 9, 0, 0, 0, rome)

	if a.Identity() != b.Identity() {
		t.Errorf("identity keys differ: %v vs %v", a.Identity(), b.Identity())
	}

	c := sampleRecord(t)
	c.SourceFile = "aprile.csv"
	if a.Identity() == c.Identity() {
		t.Error("same stay from a different source file must not share the identity key")
	}
}

// TestEqual_CentPrecision verifies money fields compare at cent precision:
// sub-cent noise from division must not turn a NO-OP into an UPDATE.
func TestEqual_CentPrecision(t *testing.T) {
	a := sampleRecord(t)
	b := sampleRecord(t)
	b.EuroGg = money("96.3401")
	if !a.Equal(b) {
		t.Error("records differing below cent precision must compare equal")
	}

	b.EuroGg = money("96.35")
	if a.Equal(b) {
		t.Error("records differing by a cent must not compare equal")
	}
}

// TestEqual_AbsentImporto verifies an absent importo never equals a present
// one, not even a zero: "missing from the source" is its own state.
func TestEqual_AbsentImporto(t *testing.T) {
	a := sampleRecord(t)
	b := sampleRecord(t)

	a.Importo = decimal.NullDecimal{}
	if a.Equal(b) {
		t.Error("absent importo must not equal present importo")
	}

	b.Importo = decimal.NullDecimal{Decimal: decimal.Zero, Valid: true}
	if a.Equal(b) {
		t.Error("absent importo must not equal zero importo")
	}

	b.Importo = decimal.NullDecimal{}
	if !a.Equal(b) {
		t.Error("two absent importi must compare equal")
	}
}

func TestEqual_FlagAndTextFields(t *testing.T) {
	a := sampleRecord(t)

	b := sampleRecord(t)
	b.Caldiero = true
	if a.Equal(b) {
		t.Error("caldiero flag change must make records unequal")
	}

	c := sampleRecord(t)
	c.Nr = "HMXYZ789"
	if a.Equal(c) {
		t.Error("nr change must make records unequal")
	}
}

func TestMeseOf(t *testing.T) {
	if got := MeseOf(day(t, "2026-03-10")); got != "2026-03" {
		t.Errorf("MeseOf = %q, want 2026-03", got)
	}
	if got := MeseOf(day(t, "2026-11-01")); got != "2026-11" {
		t.Errorf("MeseOf = %q, want 2026-11", got)
	}
}
