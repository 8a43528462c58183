package core

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func TestBOMSkipper(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "stream with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("tconst\tprimaryTitle")...),
			expected: "tconst\tprimaryTitle",
		},
		{
			name:     "stream without BOM",
			input:    []byte("tconst\tprimaryTitle"),
			expected: "tconst\tprimaryTitle",
		},
		{
			name:     "empty stream",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "partial BOM is kept",
			input:    []byte{0xEF, 0xBB, 'a', 'b'},
			expected: string([]byte{0xEF, 0xBB, 'a', 'b'}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(newBOMSkipper(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.expected {
				t.Errorf("got %q, want %q", string(got), tt.expected)
			}
		})
	}
}

func TestUTF8Sanitizer(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "ascii",
			input:    []byte("tt0000001\tCarmencita"),
			expected: "tt0000001\tCarmencita",
		},
		{
			name:     "multibyte",
			input:    []byte("Der Hauptmann von Köpenick"),
			expected: "Der Hauptmann von Köpenick",
		},
		{
			name:     "invalid byte replaced",
			input:    []byte{'a', 0x80, 'b'},
			expected: "a?b",
		},
		{
			name:     "truncated sequence at EOF replaced",
			input:    []byte{'a', 0xC3},
			expected: "a?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(newUTF8Sanitizer(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.expected {
				t.Errorf("got %q, want %q", string(got), tt.expected)
			}
		})
	}
}

func TestUTF8SanitizerSplitSequence(t *testing.T) {
	// One byte per Read forces every multibyte rune across a boundary.
	input := "Köpenick – Всё"
	r := newUTF8Sanitizer(iotest.OneByteReader(strings.NewReader(input)))

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != input {
		t.Errorf("got %q, want %q", string(got), input)
	}
}

func TestCountingReader(t *testing.T) {
	data := "0123456789"
	cr := NewCountingReader(strings.NewReader(data), int64(len(data)))

	buf := make([]byte, 4)
	if _, err := cr.Read(buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cr.BytesRead() != 4 {
		t.Errorf("BytesRead() = %d, want 4", cr.BytesRead())
	}
	if cr.Progress() != 40 {
		t.Errorf("Progress() = %d, want 40", cr.Progress())
	}

	if _, err := io.ReadAll(cr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cr.Progress() != 100 {
		t.Errorf("Progress() = %d, want 100", cr.Progress())
	}

	unknown := NewCountingReader(strings.NewReader(data), 0)
	_, _ = io.ReadAll(unknown)
	if unknown.Progress() != 0 {
		t.Errorf("Progress() with unknown total = %d, want 0", unknown.Progress())
	}
}

func TestRowReader(t *testing.T) {
	input := "a\tb\tc\r\n\n1\t\\N\t3\nlast\trow"
	rr := NewRowReader(strings.NewReader(input))

	want := []struct {
		cells []string
		line  int
	}{
		{[]string{"a", "b", "c"}, 1},
		{nil, 2},
		{[]string{"1", `\N`, "3"}, 3},
		{[]string{"last", "row"}, 4},
	}

	for _, w := range want {
		cells, err := rr.Next()
		if err != nil {
			t.Fatalf("line %d: unexpected error: %v", w.line, err)
		}
		if strings.Join(cells, "|") != strings.Join(w.cells, "|") || (cells == nil) != (w.cells == nil) {
			t.Errorf("line %d: cells = %q, want %q", w.line, cells, w.cells)
		}
		if rr.Line() != w.line {
			t.Errorf("Line() = %d, want %d", rr.Line(), w.line)
		}
	}

	if _, err := rr.Next(); err != io.EOF {
		t.Errorf("Next() at end = %v, want io.EOF", err)
	}
}

func TestRowReaderKeepsQuotes(t *testing.T) {
	rr := NewRowReader(strings.NewReader("tt1\t\"Weird\" Al\t\\N\n"))

	cells, err := rr.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cells) != 3 || cells[1] != `"Weird" Al` {
		t.Errorf("cells = %q, want quotes preserved in second cell", cells)
	}
}

func TestSanitizeChain(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("x\t\xff\n")...)
	rr := NewRowReader(Sanitize(bytes.NewReader(input)))

	cells, err := rr.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cells) != 2 || cells[0] != "x" || cells[1] != "?" {
		t.Errorf("cells = %q, want [x ?]", cells)
	}
}
