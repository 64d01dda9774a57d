// backend/src/processors/rate_table.go
package processors

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/giacomoprezioso/affitti-brevi/backend/src/logger"
	"github.com/shopspring/decimal"
)

// RateTable is the injected tax/commission configuration consumed by the
// calculator and the normalizer. All values come from a JSON file so no rate
// or platform rule is hard-coded; unknown platforms fall back to
// DefaultCommissionRate with a warning.
type RateTable struct {
	PlatformCommissionRates map[string]decimal.Decimal `json:"platform_commission_rates"`
	DefaultCommissionRate   decimal.Decimal            `json:"default_commission_rate"`
	VatRate                 decimal.Decimal            `json:"vat_rate"`
	WithholdingRate         decimal.Decimal            `json:"withholding_rate"`
	WithholdingTaxCodes     []string                   `json:"withholding_tax_codes"`

	// Listing-name keyword → property label, used to resolve which unit a
	// platform listing belongs to; CaldieroProperties lists the labels that
	// raise the caldiero flag.
	PropertyKeywords   map[string]string `json:"property_keywords"`
	CaldieroProperties []string          `json:"caldiero_properties"`

	withholdingSet map[string]bool
	caldieroSet    map[string]bool
}

// LoadRateTable reads and validates the rate configuration. Call once at
// startup; the table is read-only afterwards.
func LoadRateTable(path string) (*RateTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rate config %s: %w", path, err)
	}

	var t RateTable
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("failed to parse rate config %s: %w", path, err)
	}

	for platform, rate := range t.PlatformCommissionRates {
		if rate.IsNegative() {
			return nil, fmt.Errorf("rate config: negative commission rate for platform %q", platform)
		}
	}
	if t.DefaultCommissionRate.IsNegative() || t.VatRate.IsNegative() || t.WithholdingRate.IsNegative() {
		return nil, fmt.Errorf("rate config: rates must not be negative")
	}

	t.withholdingSet = make(map[string]bool, len(t.WithholdingTaxCodes))
	for _, code := range t.WithholdingTaxCodes {
		t.withholdingSet[strings.ToUpper(strings.TrimSpace(code))] = true
	}
	t.caldieroSet = make(map[string]bool, len(t.CaldieroProperties))
	for _, name := range t.CaldieroProperties {
		t.caldieroSet[strings.ToLower(strings.TrimSpace(name))] = true
	}

	logger.L.Info("Rate table loaded",
		"path", path,
		"platforms", len(t.PlatformCommissionRates),
		"vatRate", t.VatRate.String(),
		"withholdingRate", t.WithholdingRate.String())
	return &t, nil
}

// CommissionRate returns the commission rate for a platform and whether the
// platform was known. Unknown platforms get the default rate; the caller
// logs the warning so the record being calculated can be named.
func (t *RateTable) CommissionRate(platform string) (decimal.Decimal, bool) {
	rate, ok := t.PlatformCommissionRates[strings.ToLower(strings.TrimSpace(platform))]
	if !ok {
		return t.DefaultCommissionRate, false
	}
	return rate, true
}

// RequiresWithholding reports whether a tax category code is subject to the
// statutory withholding.
func (t *RateTable) RequiresWithholding(taxCode string) bool {
	return t.withholdingSet[strings.ToUpper(strings.TrimSpace(taxCode))]
}

// PropertyFor maps a platform listing name to a configured property label,
// or "" when no keyword matches. Keywords are tried longest-first so the
// most specific one wins deterministically when several match.
func (t *RateTable) PropertyFor(listing string) string {
	name := strings.ToLower(strings.TrimSpace(listing))
	if name == "" {
		return ""
	}
	for _, keyword := range t.orderedKeywords() {
		if strings.Contains(name, strings.ToLower(keyword)) {
			return t.PropertyKeywords[keyword]
		}
	}
	return ""
}

func (t *RateTable) orderedKeywords() []string {
	keywords := make([]string, 0, len(t.PropertyKeywords))
	for k := range t.PropertyKeywords {
		keywords = append(keywords, k)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if len(keywords[i]) != len(keywords[j]) {
			return len(keywords[i]) > len(keywords[j])
		}
		return keywords[i] < keywords[j]
	})
	return keywords
}

// IsCaldieroProperty reports whether a property label refers to one of the
// Caldiero units.
func (t *RateTable) IsCaldieroProperty(property string) bool {
	return t.caldieroSet[strings.ToLower(strings.TrimSpace(property))]
}
