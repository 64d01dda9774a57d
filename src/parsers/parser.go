// backend/src/parsers/parser.go
package parsers

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/giacomoprezioso/affitti-brevi/backend/src/models"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/parsers/airbnb"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/parsers/bookingcom"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/parsers/manual"
)

// Platform identifiers accepted on the input boundary. They flow into the
// piattaforma_raw column and key the commission-rate table.
const (
	PlatformAirbnb  = "airbnb"
	PlatformBooking = "booking"
	PlatformDiretto = "diretto"
)

// Parser turns one source document into an ordered list of raw per-booking
// records. Parsers own the platform's file shape; the normalizer owns typing
// and validation.
type Parser interface {
	Parse(file io.Reader) ([]models.RawBooking, error)
}

// GetParser returns the input adapter for a platform identifier.
func GetParser(platform string) (Parser, error) {
	switch strings.ToLower(strings.TrimSpace(platform)) {
	case PlatformAirbnb:
		return airbnb.NewParser(), nil
	case PlatformBooking:
		return bookingcom.NewParser(), nil
	case PlatformDiretto:
		return manual.NewParser(), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", platform)
	}
}

// DetectPlatform guesses the platform from an uploaded filename when the
// client did not declare one: Airbnb exports transaction CSVs, Booking.com
// exports XLSX payout reports.
func DetectPlatform(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return PlatformAirbnb, nil
	case ".xlsx":
		return PlatformBooking, nil
	default:
		return "", fmt.Errorf("cannot detect platform from filename %q; declare one explicitly", filename)
	}
}
