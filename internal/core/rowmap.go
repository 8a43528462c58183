package core

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

// NullSentinel is the two-character cell value meaning "no value".
const NullSentinel = `\N`

// SkipField is the field-list placeholder for an ignored column.
const SkipField = "skip"

// Record maps field names to raw cell values. A cell holding the null
// sentinel maps to an invalid pgtype.Text; skipped columns are absent.
type Record map[string]pgtype.Text

// Text returns the named cell, or an invalid Text when absent.
func (r Record) Text(field string) pgtype.Text {
	return r[field]
}

// String returns the named cell and whether it held a value.
func (r Record) String(field string) (string, bool) {
	t := r[field]
	return t.String, t.Valid
}

// MapRow pairs an ordered field list with one row of cells. Both lists must
// have the same length; a mismatch is a row-level ErrColumnCount. No type
// conversion happens beyond null-sentinel detection.
func MapRow(fields []string, cells []string) (Record, error) {
	if len(fields) != len(cells) {
		return nil, fmt.Errorf("%w: expected %d columns, got %d", ErrColumnCount, len(fields), len(cells))
	}

	rec := make(Record, len(fields))
	for i, field := range fields {
		if field == SkipField {
			continue
		}
		if cells[i] == NullSentinel {
			rec[field] = pgtype.Text{}
			continue
		}
		rec[field] = pgtype.Text{String: cells[i], Valid: true}
	}
	return rec, nil
}
