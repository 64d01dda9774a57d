// backend/src/models/raw.go
package models

import "strings"

// Raw field keys shared by all input adapters. Each adapter translates its
// platform's column layout into this vocabulary; the normalizer consumes it.
// Keys absent from a RawBooking mean the source did not provide the field.
const (
	RawFieldCaldiero      = "caldiero"
	RawFieldDal           = "dal"
	RawFieldAl            = "al"
	RawFieldMese          = "mese"
	RawFieldTax           = "tax"
	RawFieldImporto       = "importo"
	RawFieldTipo          = "tipo"
	RawFieldCausale       = "causale"
	RawFieldEnte          = "ente"
	RawFieldNominativo    = "nominativo"
	RawFieldDocumento     = "documento"
	RawFieldNr            = "nr"
	RawFieldData          = "data"
	RawFieldPeriodo       = "periodo"
	RawFieldIntestataA    = "intestata_a"
	RawFieldInviato1K     = "inviato_1k"
	RawFieldPaymentCharge = "payment_charge"

	// RawFieldListing carries the platform's listing/property name so the
	// normalizer can resolve the Caldiero flag from configured keywords.
	RawFieldListing = "listing"
)

// RawBooking is one raw per-booking input unit: the adapter output consumed
// by the normalizer. Values are strings as read from the source; adapters
// re-emit dates in ISO form where they could parse them and pass unparsable
// values through verbatim so the normalizer reports them per record.
type RawBooking map[string]string

// Get returns the trimmed value for key and whether a non-empty value exists.
func (r RawBooking) Get(key string) (string, bool) {
	v, ok := r[key]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
