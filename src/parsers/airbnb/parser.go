// backend/src/parsers/airbnb/parser.go
package airbnb

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/giacomoprezioso/affitti-brevi/backend/src/models"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/utils"
	"github.com/shopspring/decimal"
)

// Airbnb transaction CSV (Account → Transazioni → Esporta CSV). Rows come in
// three kinds, tied together by the confirmation code:
//   - "Prenotazione"  — the booking itself (guest, dates, amounts, listing)
//   - "Ritenuta …"    — statutory withholding rows, possibly several per code
//   - "Payout"        — transfer summaries with no confirmation code
//
// Dates are US-formatted (MM/DD/YYYY); amounts may use comma decimals.

var airbnbDateFormats = []string{"01/02/2006", "2006-01-02", "02/01/2006"}

// AirbnbParser implements the parsers.Parser interface for Airbnb files.
type AirbnbParser struct{}

// NewParser creates a new instance of the AirbnbParser.
func NewParser() *AirbnbParser {
	return &AirbnbParser{}
}

// Parse reads the Airbnb CSV and converts each confirmed booking into a raw
// record. Withholding rows are not emitted on their own: their presence flags
// the booking's tax category as withholding-eligible.
func (p *AirbnbParser) Parse(file io.Reader) ([]models.RawBooking, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields per record

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("airbnb parser: failed to read CSV header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF") // UTF-8 BOM
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"Tipo", "Codice di Conferma"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("airbnb parser: missing expected column %q", required)
		}
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("airbnb parser: failed to read all CSV records: %w", err)
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	// Group rows by confirmation code, preserving first-seen order so the
	// output batch order is reproducible.
	type group struct {
		primary     []string
		withholding decimal.Decimal
	}
	groups := make(map[string]*group)
	var order []string

	for _, record := range records {
		code := field(record, "Codice di Conferma")
		tipo := field(record, "Tipo")
		if code == "" || strings.Contains(strings.ToLower(tipo), "payout") {
			continue
		}

		g, ok := groups[code]
		if !ok {
			g = &group{}
			groups[code] = g
			order = append(order, code)
		}

		switch {
		case strings.EqualFold(tipo, "Prenotazione"):
			if g.primary == nil {
				g.primary = record
			}
		case strings.Contains(strings.ToLower(tipo), "ritenuta"):
			// Withholding may be split across several rows per booking.
			if amount, err := utils.ParseAmount(field(record, "Importo")); err == nil {
				g.withholding = g.withholding.Add(amount)
			}
		}
	}

	var raws []models.RawBooking
	for _, code := range order {
		g := groups[code]
		if g.primary == nil {
			continue // withholding rows without a booking row
		}

		raw := models.RawBooking{
			models.RawFieldNominativo:    field(g.primary, "Ospite"),
			models.RawFieldDal:           isoDate(field(g.primary, "Data di inizio")),
			models.RawFieldAl:            isoDate(field(g.primary, "Data di fine")),
			models.RawFieldImporto:       field(g.primary, "Guadagni lordi"),
			models.RawFieldPaymentCharge: field(g.primary, "Commissione per Pagamento rapido"),
			models.RawFieldNr:            code,
			models.RawFieldListing:       field(g.primary, "Annuncio"),
			models.RawFieldTax:           taxCodeFor(g.withholding),
		}
		raws = append(raws, raw)
	}

	return raws, nil
}

// isoDate re-emits a parsable date in ISO form and passes unparsable values
// through verbatim so the normalizer reports them per record.
func isoDate(s string) string {
	if s == "" {
		return ""
	}
	t, err := utils.ParseDateFormats(s, airbnbDateFormats...)
	if err != nil {
		return s
	}
	return t.Format(utils.ISODateFormat)
}

// taxCodeFor maps observed platform withholding to the tax category: bookings
// the platform withheld on are locazione-breve ("RL"), the rest plain "T".
func taxCodeFor(withholding decimal.Decimal) string {
	if !withholding.IsZero() {
		return "RL"
	}
	return "T"
}
