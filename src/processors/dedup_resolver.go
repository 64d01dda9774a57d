// backend/src/processors/dedup_resolver.go
package processors

import (
	"fmt"
	"sort"

	"github.com/giacomoprezioso/affitti-brevi/backend/src/models"
)

// LedgerIndex is the working view of the ledger during one reconciliation
// pass: the snapshot's rows indexed by identity key, extended in place as the
// reconciler decides appends and overwrites so later records in the same
// batch classify against the pass's own pending changes.
type LedgerIndex struct {
	byKey map[models.IdentityKey][]int
	rows  map[int]models.BookingRecord
	next  int
}

// NewLedgerIndex builds the index for one snapshot.
func NewLedgerIndex(snapshot models.LedgerSnapshot) *LedgerIndex {
	ix := &LedgerIndex{
		byKey: make(map[models.IdentityKey][]int, len(snapshot.Rows)),
		rows:  make(map[int]models.BookingRecord, len(snapshot.Rows)),
		next:  snapshot.NextPosition(),
	}
	for _, row := range snapshot.Rows {
		key := row.Record.Identity()
		ix.byKey[key] = append(ix.byKey[key], row.Position)
		ix.rows[row.Position] = row.Record
	}
	return ix
}

// Lookup returns the rows currently holding an identity key, in position order.
func (ix *LedgerIndex) Lookup(key models.IdentityKey) []models.LedgerRow {
	positions := ix.byKey[key]
	if len(positions) == 0 {
		return nil
	}
	sorted := make([]int, len(positions))
	copy(sorted, positions)
	sort.Ints(sorted)

	rows := make([]models.LedgerRow, 0, len(sorted))
	for _, pos := range sorted {
		rows = append(rows, models.LedgerRow{Position: pos, Record: ix.rows[pos]})
	}
	return rows
}

// Append registers a pending appended record and returns the trailing
// position it will occupy once the operation list is applied.
func (ix *LedgerIndex) Append(record models.BookingRecord) int {
	pos := ix.next
	ix.next++
	key := record.Identity()
	ix.byKey[key] = append(ix.byKey[key], pos)
	ix.rows[pos] = record
	return pos
}

// Replace swaps the record at a position. Overwrites keep the identity key
// (same key classified the record as UPDATE), so the key index is untouched.
func (ix *LedgerIndex) Replace(position int, record models.BookingRecord) {
	ix.rows[position] = record
}

type dedupResolverImpl struct{}

// NewDedupResolver creates the identity/dedup resolver.
func NewDedupResolver() DedupResolver {
	return &dedupResolverImpl{}
}

// Resolve classifies one record against the working ledger view:
// INSERT when its identity key is unknown, UPDATE when exactly one row holds
// the key with different field values, NO-OP when that row is identical.
// Two or more rows holding the key means the ledger is corrupt; resolution
// fails and must be surfaced, never repaired silently.
func (r *dedupResolverImpl) Resolve(record models.BookingRecord, index *LedgerIndex) (Resolution, error) {
	key := record.Identity()
	matches := index.Lookup(key)

	switch len(matches) {
	case 0:
		return Resolution{Classification: ClassificationInsert}, nil
	case 1:
		if matches[0].Record.Equal(record) {
			return Resolution{Classification: ClassificationNoOp, Position: matches[0].Position}, nil
		}
		return Resolution{Classification: ClassificationUpdate, Position: matches[0].Position}, nil
	default:
		positions := make([]int, 0, len(matches))
		for _, m := range matches {
			positions = append(positions, m.Position)
		}
		return Resolution{}, fmt.Errorf("%w: (%s, %s, %s, %s) found at rows %v",
			ErrAmbiguousMatch, key.Nominativo, key.Dal, key.Al, key.SourceFile, positions)
	}
}
