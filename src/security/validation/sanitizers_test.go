// backend/src/validation/sanitizers_test.go
package validation

import (
	"os"
	"strings"
	"testing"

	"github.com/giacomoprezioso/affitti-brevi/backend/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

// TestCleanText covers the full free-text pipeline the normalizer applies to
// every string a source file can put into the ledger: HTML stripped, formula
// prefixes neutralized, unprintables dropped, result trimmed and capped.
func TestCleanText(t *testing.T) {
	cases := []struct {
		name     string
		in       string
		expected string
	}{
		{"plain name untouched", "Mario Rossi", "Mario Rossi"},
		{"html stripped", "<b>Mario</b> Rossi", "Mario Rossi"},
		{"script stripped", "<script>alert(1)</script>Rossi", "Rossi"},
		{"formula neutralized", "=SUM(A1)", "'=SUM(A1)"},
		{"at-formula neutralized", "@HYPERLINK", "'@HYPERLINK"},
		{"leading minus neutralized", "-cmd", "'-cmd"},
		{"null byte dropped", "Mario\x00Rossi", "MarioRossi"},
		{"whitespace trimmed", "  Anna Bianchi  ", "Anna Bianchi"},
		{"empty stays empty", "", ""},
	}
	for _, tc := range cases {
		if got := CleanText(tc.in, DefaultMaxStringLength); got != tc.expected {
			t.Errorf("%s: CleanText(%q) = %q, want %q", tc.name, tc.in, got, tc.expected)
		}
	}
}

func TestCleanText_CapsLength(t *testing.T) {
	got := CleanText(strings.Repeat("a", DefaultMaxStringLength+40), DefaultMaxStringLength)
	if len(got) != DefaultMaxStringLength {
		t.Errorf("CleanText length = %d, want %d", len(got), DefaultMaxStringLength)
	}
}

// TestTruncateString verifies truncation counts runes, not bytes, so accented
// guest names are never cut mid-character.
func TestTruncateString(t *testing.T) {
	if got := TruncateString("àèìòù", 3); got != "àèì" {
		t.Errorf("TruncateString = %q, want àèì", got)
	}
	if got := TruncateString("abc", 10); got != "abc" {
		t.Errorf("TruncateString must not pad: got %q", got)
	}
	if got := TruncateString("abc", 0); got != "abc" {
		t.Errorf("non-positive max must disable truncation: got %q", got)
	}
}
