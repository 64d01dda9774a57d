// backend/src/models/booking.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record type values stored in the "tipo" column. Platform and direct
// bookings are "incasso"; pre-existing expense rows in a ledger use
// "ordinarie" and are carried through snapshots untouched.
const (
	TipoIncasso   = "incasso"
	TipoOrdinarie = "ordinarie"
)

// BookingRecord is the canonical ledger row. One field per schema column,
// in the fixed column order every serialization surface must preserve.
// Importo is the only nullable money field: it is a primary input and the
// calculator must be able to tell "absent from the source" apart from a
// genuine zero.
type BookingRecord struct {
	Caldiero       bool                `json:"caldiero"`        // unit is the Caldiero property
	Dal            time.Time           `json:"dal"`             // stay start, inclusive
	Al             time.Time           `json:"al"`              // stay end, inclusive
	Mese           string              `json:"mese"`            // tax month "YYYY-MM", derived from Dal unless overridden
	Tax            string              `json:"tax"`             // tax category code, keys withholding eligibility
	Importo        decimal.NullDecimal `json:"importo"`         // base rental amount before fees
	Tipo           string              `json:"tipo"`            // "incasso" or "ordinarie"
	Causale        string              `json:"causale"`         // reason/description code
	Ente           string              `json:"ente"`            // paying entity (platform display name)
	Nominativo     string              `json:"nominativo"`      // guest name
	Documento      string              `json:"documento"`       // document type, "prenotazione" for platform bookings
	Nr             string              `json:"nr"`              // document / confirmation number
	Data           time.Time           `json:"data"`            // booking/registration date, defaults to Dal
	Periodo        string              `json:"periodo"`         // human-readable period label
	IntestataA     string              `json:"intestata_a"`     // invoice/registration holder
	Giorni         int                 `json:"giorni"`          // days of stay, derived
	Inviato1K      bool                `json:"inviato_1k"`      // statutory >1k declaration sent
	Ritenuta       decimal.Decimal     `json:"ritenuta"`        // withholding tax, derived
	Incassato      decimal.Decimal     `json:"incassato"`       // collected amount, derived
	Lordo          decimal.Decimal     `json:"lordo"`           // gross to owner, derived
	Commission     decimal.Decimal     `json:"commission"`      // platform commission, derived
	PaymentCharge  decimal.Decimal     `json:"payment_charge"`  // payment-processing fee
	Vat            decimal.Decimal     `json:"vat"`             // VAT on commission, derived
	EuroGg         decimal.Decimal     `json:"euro_gg"`         // lordo / giorni, derived
	PiattaformaRaw string              `json:"piattaforma_raw"` // raw platform identifier from source
	SourceFile     string              `json:"source_file"`     // origin document identifier
}

// LedgerColumns is the fixed column order of the ledger schema. SQLite
// columns, JSON keys and the XLSX export header all follow it exactly.
var LedgerColumns = [26]string{
	"caldiero", "dal", "al", "mese", "tax", "importo", "tipo", "causale",
	"ente", "nominativo", "documento", "nr", "data", "periodo", "intestata_a",
	"giorni", "inviato_1k", "ritenuta", "incassato", "lordo", "commission",
	"payment_charge", "vat", "euro_gg", "piattaforma_raw", "source_file",
}

// LedgerDateFormat is how date columns are stored and exported.
const LedgerDateFormat = "2006-01-02"

// IdentityKey identifies one stay from one source document. Two ledger rows
// may never share it after a successful reconciliation pass.
type IdentityKey struct {
	Nominativo string
	Dal        string // LedgerDateFormat
	Al         string // LedgerDateFormat
	SourceFile string
}

// Identity computes the record's identity key. Dates are keyed by calendar
// day so records built from different time.Time locations still collide.
func (r BookingRecord) Identity() IdentityKey {
	return IdentityKey{
		Nominativo: r.Nominativo,
		Dal:        r.Dal.Format(LedgerDateFormat),
		Al:         r.Al.Format(LedgerDateFormat),
		SourceFile: r.SourceFile,
	}
}

// Equal reports whether two records match on every schema column. Money
// fields are compared at cent precision; dates by calendar day.
func (r BookingRecord) Equal(other BookingRecord) bool {
	return r.Caldiero == other.Caldiero &&
		sameDay(r.Dal, other.Dal) &&
		sameDay(r.Al, other.Al) &&
		r.Mese == other.Mese &&
		r.Tax == other.Tax &&
		nullMoneyEqual(r.Importo, other.Importo) &&
		r.Tipo == other.Tipo &&
		r.Causale == other.Causale &&
		r.Ente == other.Ente &&
		r.Nominativo == other.Nominativo &&
		r.Documento == other.Documento &&
		r.Nr == other.Nr &&
		sameDay(r.Data, other.Data) &&
		r.Periodo == other.Periodo &&
		r.IntestataA == other.IntestataA &&
		r.Giorni == other.Giorni &&
		r.Inviato1K == other.Inviato1K &&
		MoneyEqual(r.Ritenuta, other.Ritenuta) &&
		MoneyEqual(r.Incassato, other.Incassato) &&
		MoneyEqual(r.Lordo, other.Lordo) &&
		MoneyEqual(r.Commission, other.Commission) &&
		MoneyEqual(r.PaymentCharge, other.PaymentCharge) &&
		MoneyEqual(r.Vat, other.Vat) &&
		MoneyEqual(r.EuroGg, other.EuroGg) &&
		r.PiattaformaRaw == other.PiattaformaRaw &&
		r.SourceFile == other.SourceFile
}

// MoneyEqual compares two amounts to the smallest currency unit.
func MoneyEqual(a, b decimal.Decimal) bool {
	return a.Round(2).Equal(b.Round(2))
}

func nullMoneyEqual(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	if !a.Valid {
		return true
	}
	return MoneyEqual(a.Decimal, b.Decimal)
}

func sameDay(a, b time.Time) bool {
	return a.Format(LedgerDateFormat) == b.Format(LedgerDateFormat)
}

// MeseOf derives the tax-reporting month label from a stay start date.
func MeseOf(d time.Time) string {
	return d.Format("2006-01")
}
