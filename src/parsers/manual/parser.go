// backend/src/parsers/manual/parser.go
package manual

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/giacomoprezioso/affitti-brevi/backend/src/models"
)

// ManualParser implements the parsers.Parser interface for direct bookings
// entered through the dashboard form: a JSON array of raw field objects using
// the canonical raw-field vocabulary (dal/al in ISO dates, amounts as
// strings). No column mapping is needed; the normalizer does the validation.
type ManualParser struct{}

// NewParser creates a new instance of the ManualParser.
func NewParser() *ManualParser {
	return &ManualParser{}
}

// Parse decodes the JSON entry list in input order.
func (p *ManualParser) Parse(file io.Reader) ([]models.RawBooking, error) {
	var entries []map[string]string
	dec := json.NewDecoder(file)
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("manual parser: invalid JSON entry list: %w", err)
	}

	raws := make([]models.RawBooking, 0, len(entries))
	for _, entry := range entries {
		raws = append(raws, models.RawBooking(entry))
	}
	return raws, nil
}
