package core

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// TitlePrefix precedes the digits of every title identifier.
	TitlePrefix = "tt"

	// PersonPrefix precedes the digits of every person identifier.
	PersonPrefix = "nm"
)

// NormalizeID converts an external identifier such as "tt0000123" into its
// numeric key. The null sentinel and the empty string normalize to 0, which
// callers treat as an absent reference. The prefix is stripped only when
// present; the remaining text must be decimal digits that fit a signed
// 64-bit column.
func NormalizeID(raw, prefix string) (uint64, error) {
	if raw == "" || raw == NullSentinel {
		return 0, nil
	}

	digits := strings.TrimPrefix(raw, prefix)
	if digits == "" {
		return 0, fmt.Errorf("%w: %q", ErrMalformedIdentifier, raw)
	}

	id, err := strconv.ParseUint(digits, 10, 63)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedIdentifier, raw)
	}
	return id, nil
}

// NormalizeTitleID normalizes a "tt" identifier.
func NormalizeTitleID(raw string) (uint64, error) {
	return NormalizeID(raw, TitlePrefix)
}

// NormalizePersonID normalizes an "nm" identifier.
func NormalizePersonID(raw string) (uint64, error) {
	return NormalizeID(raw, PersonPrefix)
}

// FormatTitleID renders a title key back into its external form.
func FormatTitleID(id uint64) string {
	return fmt.Sprintf("%s%07d", TitlePrefix, id)
}

// FormatPersonID renders a person key back into its external form.
func FormatPersonID(id uint64) string {
	return fmt.Sprintf("%s%07d", PersonPrefix, id)
}
