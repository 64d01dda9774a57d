// backend/src/processors/calculator.go
package processors

import (
	"fmt"

	"github.com/giacomoprezioso/affitti-brevi/backend/src/logger"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/models"
	"github.com/shopspring/decimal"
)

type calculatorImpl struct {
	rates *RateTable
}

// NewCalculator creates the derived-field calculator bound to a rate table.
func NewCalculator(rates *RateTable) Calculator {
	return &calculatorImpl{rates: rates}
}

// Calculate fills the derived fields in their dependency order:
//
//	giorni     = (al - dal) days + 1
//	commission = importo × platform rate
//	vat        = commission × VAT rate
//	lordo      = importo + payment_charge − commission − vat
//	ritenuta   = lordo × withholding rate, when the tax category requires it
//	incassato  = lordo − ritenuta
//	euro_gg    = lordo ÷ giorni
//
// Money results round to cent precision at each step. The input record is
// not mutated; a fully populated copy is returned.
func (c *calculatorImpl) Calculate(record models.BookingRecord) (models.BookingRecord, error) {
	if record.Dal.IsZero() || record.Al.IsZero() {
		return record, fmt.Errorf("%w: stay dates are not set", ErrCalculation)
	}
	if !record.Importo.Valid {
		return record, fmt.Errorf("%w: importo is absent", ErrCalculation)
	}
	importo := record.Importo.Decimal

	record.Giorni = int(record.Al.Sub(record.Dal).Hours()/24) + 1

	rate, known := c.rates.CommissionRate(record.PiattaformaRaw)
	if !known {
		logger.L.Warn("Unknown platform, using default commission rate",
			"platform", record.PiattaformaRaw,
			"defaultRate", rate.String(),
			"nominativo", record.Nominativo,
			"sourceFile", record.SourceFile)
	}

	record.Commission = importo.Mul(rate).Round(2)
	record.Vat = record.Commission.Mul(c.rates.VatRate).Round(2)
	record.Lordo = importo.Add(record.PaymentCharge).Sub(record.Commission).Sub(record.Vat).Round(2)

	if c.rates.RequiresWithholding(record.Tax) {
		record.Ritenuta = record.Lordo.Mul(c.rates.WithholdingRate).Round(2)
	} else {
		record.Ritenuta = decimal.Zero
	}
	record.Incassato = record.Lordo.Sub(record.Ritenuta).Round(2)

	// Guarded degenerate case: unreachable when the normalizer enforced
	// dal <= al, but a zero day count must never divide.
	if record.Giorni <= 0 {
		return record, fmt.Errorf("%w: cannot compute euro_gg for %q", ErrDivision, record.Nominativo)
	}
	record.EuroGg = record.Lordo.DivRound(decimal.NewFromInt(int64(record.Giorni)), 2)

	return record, nil
}
