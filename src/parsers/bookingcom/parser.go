// backend/src/parsers/bookingcom/parser.go
package bookingcom

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/giacomoprezioso/affitti-brevi/backend/src/models"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Booking.com payout report (Extranet → Finance → Pagamenti → Esporta),
// exported as CSV or XLSX with the same 31-column layout. Row kinds share a
// payout reference in column 1:
//   - "Prenotazione"                   — the booking itself
//   - "Ritenuta per locazione breve"   — withholding rows (negative amounts)
//   - "(Payout)" / blank type          — transfer summaries, skipped
//   - "credit_note"                    — adjustments, never a primary row
//
// Fixed column positions (0-indexed):
//
//	0 tipo, 1 payout reference, 2 reservation number, 3 check-in,
//	4 check-out, 8 nights, 10 property name, 15 gross amount,
//	16 commission, 18 transaction cost, 20 VAT, 22 net amount.
const (
	colTipo          = 0
	colPayoutRef     = 1
	colReservationNr = 2
	colCheckIn       = 3
	colCheckOut      = 4
	colPropertyName  = 10
	colGrossAmount   = 15
	colPaymentCharge = 18
)

var bookingDateFormats = []string{"2006-01-02", "02/01/2006", "01/02/2006"}

// xlsxMagic is the ZIP signature; Booking.com XLSX exports are ZIP containers.
var xlsxMagic = []byte{0x50, 0x4b, 0x03, 0x04}

// BookingParser implements the parsers.Parser interface for Booking.com
// payout reports in either format.
type BookingParser struct{}

// NewParser creates a new instance of the BookingParser.
func NewParser() *BookingParser {
	return &BookingParser{}
}

// Parse reads a payout report and converts each booking group into a raw
// record. The format is sniffed from the content: ZIP container → XLSX,
// anything else → CSV.
func (p *BookingParser) Parse(file io.Reader) ([]models.RawBooking, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("booking parser: failed to read file: %w", err)
	}

	var rows [][]string
	if bytes.HasPrefix(data, xlsxMagic) {
		rows, err = readXLSXRows(data)
	} else {
		rows, err = readCSVRows(data)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, nil
	}
	return groupPayoutRows(rows[1:]), nil // skip header
}

func readCSVRows(data []byte) ([][]string, error) {
	text := strings.TrimPrefix(string(data), "\uFEFF") // UTF-8 BOM
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("booking parser: failed to read CSV records: %w", err)
	}
	return rows, nil
}

func readXLSXRows(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("booking parser: failed to open XLSX: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("booking parser: XLSX has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("booking parser: failed to read XLSX rows: %w", err)
	}
	return rows, nil
}

// groupPayoutRows groups data rows by payout reference, picks each group's
// "Prenotazione" row as primary and folds its withholding rows into the tax
// category. Group order follows first appearance so batches are reproducible.
func groupPayoutRows(dataRows [][]string) []models.RawBooking {
	cell := func(row []string, i int) string {
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	type group struct {
		primary     []string
		withholding decimal.Decimal
	}
	groups := make(map[string]*group)
	var order []string

	for _, row := range dataRows {
		tipo := cell(row, colTipo)
		ref := cell(row, colPayoutRef)
		if ref == "" || ref == "-" || tipo == "" || tipo == "(Payout)" {
			continue
		}

		g, ok := groups[ref]
		if !ok {
			g = &group{}
			groups[ref] = g
			order = append(order, ref)
		}

		lower := strings.ToLower(tipo)
		switch {
		case strings.Contains(lower, "prenotazione"):
			if g.primary == nil {
				g.primary = row
			}
		case strings.Contains(lower, "ritenuta"):
			// Withholding rows carry their (negative) amount in the gross column.
			if amount, err := utils.ParseAmount(cell(row, colGrossAmount)); err == nil {
				g.withholding = g.withholding.Add(amount)
			}
		}
	}

	var raws []models.RawBooking
	for _, ref := range order {
		g := groups[ref]
		if g.primary == nil {
			continue // only withholding or credit_note rows in this group
		}

		// The payout export carries no guest name; the reservation number is
		// the most readable stable identifier, falling back to the payout ref.
		nr := cell(g.primary, colReservationNr)
		if nr == "" || nr == "-" {
			nr = ref
		}

		tax := "T"
		if !g.withholding.IsZero() {
			tax = "RL"
		}

		raws = append(raws, models.RawBooking{
			models.RawFieldNominativo:    nr,
			models.RawFieldDal:           isoDate(cell(g.primary, colCheckIn)),
			models.RawFieldAl:            isoDate(cell(g.primary, colCheckOut)),
			models.RawFieldImporto:       cell(g.primary, colGrossAmount),
			models.RawFieldPaymentCharge: cell(g.primary, colPaymentCharge),
			models.RawFieldNr:            nr,
			models.RawFieldListing:       cell(g.primary, colPropertyName),
			models.RawFieldTax:           tax,
		})
	}

	return raws
}

// isoDate re-emits a parsable date in ISO form and passes unparsable values
// through verbatim so the normalizer reports them per record.
func isoDate(s string) string {
	if s == "" || s == "-" {
		return ""
	}
	t, err := utils.ParseDateFormats(s, bookingDateFormats...)
	if err != nil {
		return s
	}
	return t.Format(utils.ISODateFormat)
}
