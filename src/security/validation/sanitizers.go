// backend/src/validation/sanitizers.go
package validation

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// Strict sanitization policy, initialized once at startup.
	strictHTMLPolicy *bluemonday.Policy
)

func init() {
	strictHTMLPolicy = bluemonday.StrictPolicy() // Removes all HTML tags
}

// SanitizeText removes all HTML tags and attributes from an input string,
// preventing XSS before saving to the database.
func SanitizeText(s string) string {
	return strictHTMLPolicy.Sanitize(s)
}

// SanitizeForFormulaInjection prepends a single quote if the string starts
// with a formula character. Ledger rows end up in spreadsheets (XLSX export),
// so guest names like "=HYPERLINK(...)" must never reach a cell executable.
func SanitizeForFormulaInjection(s string) string {
	// Check the trimmed string for the trigger character, but apply the fix
	// to the original string to preserve formatting.
	trimmed := strings.TrimSpace(s)

	if len(trimmed) == 0 {
		return s
	}

	firstChar := rune(trimmed[0])

	// Characters that trigger formula execution in Excel/LibreOffice/Sheets
	if firstChar == '=' || firstChar == '+' || firstChar == '-' || firstChar == '@' || firstChar == '\t' || firstChar == '\r' {
		return "'" + s
	}

	return s
}

// StripUnprintable removes non-printable characters, allowing common whitespace
// like space, tab, newline, and carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1 // Drop the rune
	}, s)
}

// CleanText applies the full free-text pipeline used for every string field
// the normalizer accepts from a source file: strip unprintables, strip HTML,
// neutralize formula prefixes, trim, and cap the length.
func CleanText(s string, maxLength int) string {
	cleaned := strings.TrimSpace(SanitizeForFormulaInjection(SanitizeText(StripUnprintable(s))))
	return TruncateString(cleaned, maxLength)
}
