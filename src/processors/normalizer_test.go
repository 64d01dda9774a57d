// backend/src/processors/normalizer_test.go
package processors

import (
	"errors"
	"testing"

	"github.com/giacomoprezioso/affitti-brevi/backend/src/models"
)

// TestNormalize_MapsFieldsAndDefaults verifies the canonical mapping of a
// minimal raw booking: identity fields taken as given, everything else
// filled with the documented defaults.
func TestNormalize_MapsFieldsAndDefaults(t *testing.T) {
	n := NewRecordNormalizer(testRateTable(t))

	raw := models.RawBooking{
		models.RawFieldNominativo: "Mario Rossi",
		models.RawFieldDal:        "2026-03-10",
		models.RawFieldAl:         "2026-03-12",
		models.RawFieldImporto:    "300",
	}

	rec, err := n.Normalize(raw, "airbnb", "marzo.csv")
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}

	if rec.Nominativo != "Mario Rossi" {
		t.Errorf("nominativo = %q", rec.Nominativo)
	}
	if rec.Dal.Format(models.LedgerDateFormat) != "2026-03-10" ||
		rec.Al.Format(models.LedgerDateFormat) != "2026-03-12" {
		t.Errorf("stay range = %s..%s", rec.Dal, rec.Al)
	}
	if !rec.Importo.Valid {
		t.Fatal("importo should be present")
	}
	assertMoney(t, "importo", rec.Importo.Decimal, "300")

	// Defaults.
	if rec.Mese != "2026-03" {
		t.Errorf("mese = %q, want 2026-03", rec.Mese)
	}
	if !rec.Data.Equal(rec.Dal) {
		t.Errorf("data should default to dal, got %s", rec.Data)
	}
	if rec.Tax != "T" {
		t.Errorf("tax = %q, want T", rec.Tax)
	}
	if rec.Tipo != models.TipoIncasso {
		t.Errorf("tipo = %q, want %s", rec.Tipo, models.TipoIncasso)
	}
	if rec.Causale != "da clienti" {
		t.Errorf("causale = %q", rec.Causale)
	}
	if rec.Documento != "prenotazione" {
		t.Errorf("documento = %q", rec.Documento)
	}
	if rec.Ente != "Airbnb" {
		t.Errorf("ente = %q, want platform display name Airbnb", rec.Ente)
	}
	if rec.PiattaformaRaw != "airbnb" {
		t.Errorf("piattaforma_raw = %q", rec.PiattaformaRaw)
	}
	if rec.SourceFile != "marzo.csv" {
		t.Errorf("source_file = %q", rec.SourceFile)
	}
	if rec.Caldiero || rec.Inviato1K {
		t.Error("flags should default to false")
	}

	// Derived fields stay unset for the calculator.
	if rec.Giorni != 0 || !rec.Lordo.IsZero() || !rec.Commission.IsZero() {
		t.Error("normalizer must not fill derived fields")
	}
}

// TestNormalize_RejectsBrokenIdentity verifies every identity-field defect is
// a schema error: the record joins the batch error list, it never reaches
// the ledger half-built.
func TestNormalize_RejectsBrokenIdentity(t *testing.T) {
	n := NewRecordNormalizer(testRateTable(t))

	cases := []struct {
		name       string
		raw        models.RawBooking
		sourceFile string
	}{
		{
			name:       "missing nominativo",
			raw:        models.RawBooking{models.RawFieldDal: "2026-03-10", models.RawFieldAl: "2026-03-12"},
			sourceFile: "marzo.csv",
		},
		{
			name:       "missing dal",
			raw:        models.RawBooking{models.RawFieldNominativo: "Rossi", models.RawFieldAl: "2026-03-12"},
			sourceFile: "marzo.csv",
		},
		{
			name: "malformed al",
			raw: models.RawBooking{
				models.RawFieldNominativo: "Rossi",
				models.RawFieldDal:        "2026-03-10",
				models.RawFieldAl:         "dodici marzo",
			},
			sourceFile: "marzo.csv",
		},
		{
			name: "inverted stay range",
			raw: models.RawBooking{
				models.RawFieldNominativo: "Rossi",
				models.RawFieldDal:        "2026-03-12",
				models.RawFieldAl:         "2026-03-10",
			},
			sourceFile: "marzo.csv",
		},
		{
			name: "empty source file tag",
			raw: models.RawBooking{
				models.RawFieldNominativo: "Rossi",
				models.RawFieldDal:        "2026-03-10",
				models.RawFieldAl:         "2026-03-12",
			},
			sourceFile: "",
		},
	}

	for _, tc := range cases {
		if _, err := n.Normalize(tc.raw, "airbnb", tc.sourceFile); !errors.Is(err, ErrSchema) {
			t.Errorf("%s: error = %v, want ErrSchema", tc.name, err)
		}
	}
}

// TestNormalize_SanitizesFreeText verifies hostile source text is disarmed
// before it can reach the ledger or an exported spreadsheet cell.
func TestNormalize_SanitizesFreeText(t *testing.T) {
	n := NewRecordNormalizer(testRateTable(t))

	raw := models.RawBooking{
		models.RawFieldNominativo: "<b>Mario</b> Rossi",
		models.RawFieldDal:        "2026-03-10",
		models.RawFieldAl:         "2026-03-12",
		models.RawFieldCausale:    "=HYPERLINK(evil)",
	}

	rec, err := n.Normalize(raw, "airbnb", "marzo.csv")
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if rec.Nominativo != "Mario Rossi" {
		t.Errorf("nominativo = %q, want HTML stripped", rec.Nominativo)
	}
	if rec.Causale != "'=HYPERLINK(evil)" {
		t.Errorf("causale = %q, want formula prefix neutralized", rec.Causale)
	}

	onlyTags := models.RawBooking{
		models.RawFieldNominativo: "<script>x</script>",
		models.RawFieldDal:        "2026-03-10",
		models.RawFieldAl:         "2026-03-12",
	}
	if _, err := n.Normalize(onlyTags, "airbnb", "marzo.csv"); !errors.Is(err, ErrSchema) {
		t.Errorf("nominativo empty after sanitization: error = %v, want ErrSchema", err)
	}
}

// TestNormalize_CaldieroResolution verifies the property flag: an explicit
// raw value wins, otherwise the listing name is matched against the
// configured keywords.
func TestNormalize_CaldieroResolution(t *testing.T) {
	n := NewRecordNormalizer(testRateTable(t))

	base := func() models.RawBooking {
		return models.RawBooking{
			models.RawFieldNominativo: "Rossi",
			models.RawFieldDal:        "2026-03-10",
			models.RawFieldAl:         "2026-03-12",
		}
	}

	cases := []struct {
		name     string
		listing  string
		explicit string
		want     bool
	}{
		{"keyword match", "Caldiero 5 Family Retreat", "", true},
		{"partial keyword match", "La casa della Tranquillita", "", true},
		{"no keyword", "Appartamento Centro Verona", "", false},
		{"explicit si wins over missing listing", "", "si", true},
		{"explicit no wins over matching listing", "Caldiero 5 Family Retreat", "no", false},
	}

	for _, tc := range cases {
		raw := base()
		if tc.listing != "" {
			raw[models.RawFieldListing] = tc.listing
		}
		if tc.explicit != "" {
			raw[models.RawFieldCaldiero] = tc.explicit
		}
		rec, err := n.Normalize(raw, "airbnb", "marzo.csv")
		if err != nil {
			t.Fatalf("%s: Normalize error: %v", tc.name, err)
		}
		if rec.Caldiero != tc.want {
			t.Errorf("%s: caldiero = %v, want %v", tc.name, rec.Caldiero, tc.want)
		}
	}
}

// TestNormalize_OptionalAmounts verifies absent and unparsable amounts both
// normalize to "absent", and a parsable payment charge keeps its sign.
func TestNormalize_OptionalAmounts(t *testing.T) {
	n := NewRecordNormalizer(testRateTable(t))

	raw := models.RawBooking{
		models.RawFieldNominativo:    "Rossi",
		models.RawFieldDal:           "2026-03-10",
		models.RawFieldAl:            "2026-03-12",
		models.RawFieldPaymentCharge: "-2,50",
	}
	rec, err := n.Normalize(raw, "airbnb", "marzo.csv")
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if rec.Importo.Valid {
		t.Error("missing importo should normalize to absent")
	}
	assertMoney(t, "payment_charge", rec.PaymentCharge, "-2.5")

	raw[models.RawFieldImporto] = "non un numero"
	rec, err = n.Normalize(raw, "airbnb", "marzo.csv")
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if rec.Importo.Valid {
		t.Error("unparsable importo should normalize to absent")
	}
}

// TestNormalize_OverridesAndFlags covers the optional raw fields the manual
// entry form can set: tax month override, registration date, inviato_1k.
func TestNormalize_OverridesAndFlags(t *testing.T) {
	n := NewRecordNormalizer(testRateTable(t))

	raw := models.RawBooking{
		models.RawFieldNominativo: "Rossi",
		models.RawFieldDal:        "2026-03-10",
		models.RawFieldAl:         "2026-03-12",
		models.RawFieldMese:       "2026-04",
		models.RawFieldData:       "15/02/2026",
		models.RawFieldInviato1K:  "x",
		models.RawFieldEnte:       "Contanti",
	}
	rec, err := n.Normalize(raw, "diretto", "manuale")
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if rec.Mese != "2026-04" {
		t.Errorf("mese override ignored, got %q", rec.Mese)
	}
	if rec.Data.Format(models.LedgerDateFormat) != "2026-02-15" {
		t.Errorf("data = %s, want 2026-02-15", rec.Data.Format(models.LedgerDateFormat))
	}
	if !rec.Inviato1K {
		t.Error("inviato_1k flag should be set")
	}
	if rec.Ente != "Contanti" {
		t.Errorf("ente = %q, want explicit value kept", rec.Ente)
	}

	// A malformed month override falls back to the derived value.
	raw[models.RawFieldMese] = "aprile"
	rec, err = n.Normalize(raw, "diretto", "manuale")
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if rec.Mese != "2026-03" {
		t.Errorf("mese = %q, want derived 2026-03", rec.Mese)
	}
}
