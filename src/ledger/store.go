// backend/src/ledger/store.go
package ledger

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/giacomoprezioso/affitti-brevi/backend/src/logger"
	"github.com/giacomoprezioso/affitti-brevi/backend/src/models"
	"github.com/shopspring/decimal"
)

// Store is the persistence collaborator for the canonical ledger. It loads
// the ordered snapshot a reconciliation pass runs against and applies the
// pass's operation list inside a single transaction. Row positions are
// 1-based and contiguous: appends always land at max(position)+1, overwrites
// replace in place and every other row is left untouched.
type Store struct {
	db *sql.DB
}

// NewStore creates a ledger store over an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ledgerColumnsSQL is the fixed 26-column list in schema order, shared by
// every query so the column order can never drift between read and write.
var ledgerColumnsSQL = strings.Join(models.LedgerColumns[:], ", ")

// Snapshot reads the full ledger in row-position order.
func (s *Store) Snapshot() (models.LedgerSnapshot, error) {
	query := fmt.Sprintf(`SELECT row_position, %s FROM ledger_rows ORDER BY row_position ASC`, ledgerColumnsSQL)
	rows, err := s.db.Query(query)
	if err != nil {
		return models.LedgerSnapshot{}, fmt.Errorf("error querying ledger rows: %w", err)
	}
	defer rows.Close()

	var snapshot models.LedgerSnapshot
	for rows.Next() {
		row, err := scanLedgerRow(rows)
		if err != nil {
			return models.LedgerSnapshot{}, err
		}
		snapshot.Rows = append(snapshot.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return models.LedgerSnapshot{}, fmt.Errorf("error iterating ledger rows: %w", err)
	}
	return snapshot, nil
}

// RowCount returns the number of ledger rows.
func (s *Store) RowCount() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM ledger_rows`).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting ledger rows: %w", err)
	}
	return count, nil
}

// Apply runs an operation list against the ledger in one transaction, in
// list order. Appends insert at the next trailing position, overwrites
// replace the record at their position, skips touch nothing. Returns the
// number of rows written (appends plus overwrites).
func (s *Store) Apply(ops []models.Operation) (int, error) {
	if len(ops) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("error beginning ledger transaction: %w", err)
	}
	defer tx.Rollback()

	var maxPosition int
	if err := tx.QueryRow(`SELECT COALESCE(MAX(row_position), 0) FROM ledger_rows`).Scan(&maxPosition); err != nil {
		return 0, fmt.Errorf("error reading max row position: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(models.LedgerColumns)), ", ")
	insertStmt, err := tx.Prepare(fmt.Sprintf(
		`INSERT INTO ledger_rows (row_position, %s) VALUES (?, %s)`, ledgerColumnsSQL, placeholders))
	if err != nil {
		return 0, fmt.Errorf("error preparing ledger insert: %w", err)
	}
	defer insertStmt.Close()

	assignments := make([]string, len(models.LedgerColumns))
	for i, col := range models.LedgerColumns {
		assignments[i] = col + " = ?"
	}
	updateStmt, err := tx.Prepare(fmt.Sprintf(
		`UPDATE ledger_rows SET %s WHERE row_position = ?`, strings.Join(assignments, ", ")))
	if err != nil {
		return 0, fmt.Errorf("error preparing ledger update: %w", err)
	}
	defer updateStmt.Close()

	written := 0
	for i, op := range ops {
		switch op.Kind {
		case models.OpAppend:
			maxPosition++
			args := append([]any{maxPosition}, recordArgs(op.Record)...)
			if _, err := insertStmt.Exec(args...); err != nil {
				return 0, fmt.Errorf("error appending ledger row at position %d: %w", maxPosition, err)
			}
			written++
		case models.OpOverwrite:
			args := append(recordArgs(op.Record), op.Position)
			res, err := updateStmt.Exec(args...)
			if err != nil {
				return 0, fmt.Errorf("error overwriting ledger row %d: %w", op.Position, err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return 0, fmt.Errorf("error checking overwrite of ledger row %d: %w", op.Position, err)
			}
			if affected != 1 {
				return 0, fmt.Errorf("overwrite targeted row %d but %d rows matched", op.Position, affected)
			}
			written++
		case models.OpSkip:
			// Identical row already present.
		default:
			return 0, fmt.Errorf("unknown ledger operation kind %q at index %d", op.Kind, i)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing ledger transaction: %w", err)
	}
	logger.L.Info("Ledger operations applied", "operations", len(ops), "written", written)
	return written, nil
}

// recordArgs flattens a record into the 26 column values in schema order.
// Money is stored as exact decimal text, dates as ISO days, booleans as 0/1.
// An absent importo is stored as the empty string.
func recordArgs(rec models.BookingRecord) []any {
	importo := ""
	if rec.Importo.Valid {
		importo = rec.Importo.Decimal.String()
	}
	return []any{
		boolToInt(rec.Caldiero),
		rec.Dal.Format(models.LedgerDateFormat),
		rec.Al.Format(models.LedgerDateFormat),
		rec.Mese,
		rec.Tax,
		importo,
		rec.Tipo,
		rec.Causale,
		rec.Ente,
		rec.Nominativo,
		rec.Documento,
		rec.Nr,
		dateOrEmpty(rec.Data),
		rec.Periodo,
		rec.IntestataA,
		rec.Giorni,
		boolToInt(rec.Inviato1K),
		rec.Ritenuta.String(),
		rec.Incassato.String(),
		rec.Lordo.String(),
		rec.Commission.String(),
		rec.PaymentCharge.String(),
		rec.Vat.String(),
		rec.EuroGg.String(),
		rec.PiattaformaRaw,
		rec.SourceFile,
	}
}

func scanLedgerRow(rows *sql.Rows) (models.LedgerRow, error) {
	var (
		row                 models.LedgerRow
		caldiero, inviato1k int
		dal, al, data       string
		importo, ritenuta   string
		incassato, lordo    string
		commission, charge  string
		vat, euroGg         string
	)
	rec := &row.Record

	err := rows.Scan(
		&row.Position,
		&caldiero, &dal, &al, &rec.Mese, &rec.Tax, &importo,
		&rec.Tipo, &rec.Causale, &rec.Ente, &rec.Nominativo,
		&rec.Documento, &rec.Nr, &data, &rec.Periodo, &rec.IntestataA,
		&rec.Giorni, &inviato1k,
		&ritenuta, &incassato, &lordo, &commission, &charge, &vat, &euroGg,
		&rec.PiattaformaRaw, &rec.SourceFile,
	)
	if err != nil {
		return row, fmt.Errorf("error scanning ledger row: %w", err)
	}

	rec.Caldiero = caldiero != 0
	rec.Inviato1K = inviato1k != 0

	if rec.Dal, err = parseStoredDate(dal, "dal", row.Position); err != nil {
		return row, err
	}
	if rec.Al, err = parseStoredDate(al, "al", row.Position); err != nil {
		return row, err
	}
	if data != "" {
		if rec.Data, err = parseStoredDate(data, "data", row.Position); err != nil {
			return row, err
		}
	}

	if importo != "" {
		d, err := parseStoredDecimal(importo, "importo", row.Position)
		if err != nil {
			return row, err
		}
		rec.Importo = decimal.NullDecimal{Decimal: d, Valid: true}
	}
	for _, field := range []struct {
		name  string
		text  string
		value *decimal.Decimal
	}{
		{"ritenuta", ritenuta, &rec.Ritenuta},
		{"incassato", incassato, &rec.Incassato},
		{"lordo", lordo, &rec.Lordo},
		{"commission", commission, &rec.Commission},
		{"payment_charge", charge, &rec.PaymentCharge},
		{"vat", vat, &rec.Vat},
		{"euro_gg", euroGg, &rec.EuroGg},
	} {
		if *field.value, err = parseStoredDecimal(field.text, field.name, row.Position); err != nil {
			return row, err
		}
	}

	return row, nil
}

func parseStoredDate(s, column string, position int) (time.Time, error) {
	t, err := time.Parse(models.LedgerDateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("ledger row %d has unreadable %s date %q: %w", position, column, s, err)
	}
	return t, nil
}

func parseStoredDecimal(s, column string, position int) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ledger row %d has unreadable %s amount %q: %w", position, column, s, err)
	}
	return d, nil
}

func dateOrEmpty(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(models.LedgerDateFormat)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
