package core

import (
	"errors"
	"testing"
)

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		prefix  string
		want    uint64
		wantErr bool
	}{
		{name: "title with prefix", raw: "tt0000123", prefix: TitlePrefix, want: 123},
		{name: "person with prefix", raw: "nm0000007", prefix: PersonPrefix, want: 7},
		{name: "no prefix", raw: "42", prefix: TitlePrefix, want: 42},
		{name: "null sentinel", raw: `\N`, prefix: TitlePrefix, want: 0},
		{name: "empty", raw: "", prefix: PersonPrefix, want: 0},
		{name: "prefix only", raw: "tt", prefix: TitlePrefix, wantErr: true},
		{name: "letters after prefix", raw: "ttabc", prefix: TitlePrefix, wantErr: true},
		{name: "wrong prefix", raw: "nm0000001", prefix: TitlePrefix, wantErr: true},
		{name: "negative", raw: "tt-1", prefix: TitlePrefix, wantErr: true},
		{name: "overflows signed 64 bit", raw: "tt9223372036854775808", prefix: TitlePrefix, wantErr: true},
		{name: "max signed 64 bit", raw: "tt9223372036854775807", prefix: TitlePrefix, want: 9223372036854775807},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeID(tt.raw, tt.prefix)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedIdentifier) {
					t.Errorf("NormalizeID(%q) error = %v, want ErrMalformedIdentifier", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeID(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeID(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFormatIDs(t *testing.T) {
	if got := FormatTitleID(123); got != "tt0000123" {
		t.Errorf("FormatTitleID(123) = %q, want %q", got, "tt0000123")
	}
	if got := FormatPersonID(12345678); got != "nm12345678" {
		t.Errorf("FormatPersonID(12345678) = %q, want %q", got, "nm12345678")
	}

	id, err := NormalizeTitleID(FormatTitleID(98765))
	if err != nil || id != 98765 {
		t.Errorf("round trip = %d, %v; want 98765", id, err)
	}
}
