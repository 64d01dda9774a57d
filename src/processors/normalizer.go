// backend/src/processors/normalizer.go
package processors

import (
	"fmt"
	"strings"
	"time"

	"github.com/giacomoprezioso/affitti-brevi/backend/src/models"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/security/validation"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/utils"
	"github.com/shopspring/decimal"
)

// Date layouts the normalizer accepts. Adapters re-emit ISO; the first
// fallback covers dates typed into the manual entry form.
var normalizerDateFormats = []string{utils.ISODateFormat, "02/01/2006"}

type recordNormalizerImpl struct {
	rates *RateTable
}

// NewRecordNormalizer creates the normalizer. The rate table supplies the
// property keyword map used to resolve the caldiero flag from listing names.
func NewRecordNormalizer(rates *RateTable) RecordNormalizer {
	return &recordNormalizerImpl{rates: rates}
}

// Normalize maps one raw record into the canonical shape. Identity fields
// (nominativo, dal, al plus the source file tag) must be present and
// parsable; everything else defaults. Free text is sanitized before it can
// reach the ledger. Derived fields are left unset for the calculator.
func (n *recordNormalizerImpl) Normalize(raw models.RawBooking, platform, sourceFile string) (models.BookingRecord, error) {
	var rec models.BookingRecord

	rec.SourceFile = cleanText(sourceFile)
	if rec.SourceFile == "" {
		return rec, fmt.Errorf("%w: source file tag is empty", ErrSchema)
	}
	rec.PiattaformaRaw = strings.ToLower(cleanText(platform))

	nominativo, ok := raw.Get(models.RawFieldNominativo)
	if !ok {
		return rec, fmt.Errorf("%w: nominativo is missing", ErrSchema)
	}
	rec.Nominativo = cleanText(nominativo)
	if rec.Nominativo == "" {
		return rec, fmt.Errorf("%w: nominativo is empty after sanitization", ErrSchema)
	}

	dal, err := n.identityDate(raw, models.RawFieldDal)
	if err != nil {
		return rec, err
	}
	al, err := n.identityDate(raw, models.RawFieldAl)
	if err != nil {
		return rec, err
	}
	if al.Before(dal) {
		return rec, fmt.Errorf("%w: stay range inverted (dal %s after al %s)",
			ErrSchema, dal.Format(utils.ISODateFormat), al.Format(utils.ISODateFormat))
	}
	rec.Dal, rec.Al = dal, al

	// Tax month: stored for query convenience, always derivable from dal.
	rec.Mese = models.MeseOf(dal)
	if mese, ok := raw.Get(models.RawFieldMese); ok {
		if _, err := time.Parse("2006-01", mese); err == nil {
			rec.Mese = mese
		}
	}

	if data, ok := raw.Get(models.RawFieldData); ok {
		if t, err := utils.ParseDateFormats(data, normalizerDateFormats...); err == nil {
			rec.Data = t
		} else {
			rec.Data = dal
		}
	} else {
		rec.Data = dal
	}

	rec.Importo = n.optionalAmount(raw, models.RawFieldImporto)
	if charge := n.optionalAmount(raw, models.RawFieldPaymentCharge); charge.Valid {
		rec.PaymentCharge = charge.Decimal
	}

	rec.Tax = strings.ToUpper(textOrDefault(raw, models.RawFieldTax, "T"))
	rec.Tipo = strings.ToLower(textOrDefault(raw, models.RawFieldTipo, models.TipoIncasso))
	rec.Causale = textOrDefault(raw, models.RawFieldCausale, "da clienti")
	rec.Documento = textOrDefault(raw, models.RawFieldDocumento, "prenotazione")
	rec.Ente = textOrDefault(raw, models.RawFieldEnte, capitalize(rec.PiattaformaRaw))
	rec.Nr = textOrDefault(raw, models.RawFieldNr, "")
	rec.Periodo = textOrDefault(raw, models.RawFieldPeriodo, "")
	rec.IntestataA = textOrDefault(raw, models.RawFieldIntestataA, "")

	if flag, ok := raw.Get(models.RawFieldInviato1K); ok {
		rec.Inviato1K = parseFlag(flag)
	}

	rec.Caldiero = n.caldieroFlag(raw)

	return rec, nil
}

// identityDate parses a date required for the identity key.
func (n *recordNormalizerImpl) identityDate(raw models.RawBooking, field string) (time.Time, error) {
	value, ok := raw.Get(field)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s is missing", ErrSchema, field)
	}
	t, err := utils.ParseDateFormats(value, normalizerDateFormats...)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q is not a valid date", ErrSchema, field, value)
	}
	return t, nil
}

// optionalAmount parses an optional money field. Absent and unparsable
// values are both marked absent: the calculator decides whether the field
// was required.
func (n *recordNormalizerImpl) optionalAmount(raw models.RawBooking, field string) decimal.NullDecimal {
	value, ok := raw.Get(field)
	if !ok {
		return decimal.NullDecimal{}
	}
	d, err := utils.ParseAmount(value)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// caldieroFlag resolves the property flag: an explicit raw value wins,
// otherwise the listing name is matched against the configured keywords.
func (n *recordNormalizerImpl) caldieroFlag(raw models.RawBooking) bool {
	if flag, ok := raw.Get(models.RawFieldCaldiero); ok {
		return parseFlag(flag)
	}
	if listing, ok := raw.Get(models.RawFieldListing); ok {
		return n.rates.IsCaldieroProperty(n.rates.PropertyFor(listing))
	}
	return false
}

func cleanText(s string) string {
	return validation.CleanText(s, validation.DefaultMaxStringLength)
}

func textOrDefault(raw models.RawBooking, field, fallback string) string {
	if value, ok := raw.Get(field); ok {
		if cleaned := cleanText(value); cleaned != "" {
			return cleaned
		}
	}
	return fallback
}

func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "si", "sì", "x", "yes":
		return true
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
