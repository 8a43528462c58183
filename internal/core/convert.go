package core

// convert.go turns raw TSV cells into typed column values.
//
// Every function treats an invalid pgtype.Text (the null sentinel) as
// "no value" and reports conversion failures as ErrInvalidValue so the
// parser can log and skip the row.

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgtype"
)

// ParseFlag converts a boolean cell using the strtobool vocabulary.
// An absent cell yields def.
func ParseFlag(t pgtype.Text, def bool) (bool, error) {
	if !t.Valid {
		return def, nil
	}

	switch strings.ToLower(strings.TrimSpace(t.String)) {
	case "y", "yes", "t", "true", "on", "1":
		return true, nil
	case "n", "no", "f", "false", "off", "0":
		return false, nil
	default:
		return false, invalidf("invalid truth value %q", t.String)
	}
}

// ToPgInt4 converts a non-negative integer cell such as runtime_minutes.
func ToPgInt4(t pgtype.Text) (pgtype.Int4, error) {
	if !t.Valid || strings.TrimSpace(t.String) == "" {
		return pgtype.Int4{}, nil
	}

	n, err := strconv.ParseInt(strings.TrimSpace(t.String), 10, 32)
	if err != nil {
		return pgtype.Int4{}, invalidf("invalid integer %q", t.String)
	}
	if n < 0 {
		return pgtype.Int4{}, invalidf("negative integer %q", t.String)
	}
	return pgtype.Int4{Int32: int32(n), Valid: true}, nil
}

// ToYear validates a year cell against the store column width.
func ToYear(t pgtype.Text) (pgtype.Text, error) {
	if !t.Valid || t.String == "" {
		return pgtype.Text{}, nil
	}
	if utf8.RuneCountInString(t.String) > MaxYearLength {
		return pgtype.Text{}, invalidf("year %q longer than %d characters", t.String, MaxYearLength)
	}
	return t, nil
}

// RequireName returns the cell as a non-empty name that fits the store column.
func RequireName(field string, t pgtype.Text) (string, error) {
	if !t.Valid || t.String == "" {
		return "", invalidf("required field %q is empty", field)
	}
	if utf8.RuneCountInString(t.String) > MaxNameLength {
		return "", invalidf("%s longer than %d characters", field, MaxNameLength)
	}
	return t.String, nil
}

// OptionalName validates an optional short text cell (region, language, job).
func OptionalName(field string, t pgtype.Text) (pgtype.Text, error) {
	if !t.Valid || t.String == "" {
		return pgtype.Text{}, nil
	}
	if utf8.RuneCountInString(t.String) > MaxNameLength {
		return pgtype.Text{}, invalidf("%s longer than %d characters", field, MaxNameLength)
	}
	return t, nil
}

// SplitList splits a comma-joined cell, dropping empty tokens.
// An absent cell yields nil.
func SplitList(t pgtype.Text) []string {
	if !t.Valid || t.String == "" {
		return nil
	}

	parts := strings.Split(t.String, ",")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
