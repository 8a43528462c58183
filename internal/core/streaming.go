package core

// streaming.go holds the stream readers every import input passes through:
//
//   - bomSkipper drops a leading UTF-8 byte order mark
//   - utf8Sanitizer replaces invalid UTF-8 bytes with '?'
//   - CountingReader exposes bytes consumed for progress reporting
//   - RowReader splits the cleaned stream into tab-delimited rows
//
// Nothing here buffers more than a single line of input.

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"sync/atomic"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type bomSkipper struct {
	br      *bufio.Reader
	checked bool
}

func newBOMSkipper(r io.Reader) *bomSkipper {
	return &bomSkipper{br: bufio.NewReader(r)}
}

func (b *bomSkipper) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		head, err := b.br.Peek(len(utf8BOM))
		if err != nil && err != io.EOF {
			return 0, err
		}
		if bytes.Equal(head, utf8BOM) {
			_, _ = b.br.Discard(len(utf8BOM))
		}
	}
	return b.br.Read(p)
}

// utf8Sanitizer rewrites invalid UTF-8 in place. Multi-byte sequences split
// across reads are carried over to the next call.
type utf8Sanitizer struct {
	r     io.Reader
	carry []byte
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, carry: make([]byte, 0, utf8.UTFMax)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	off := copy(p, s.carry)
	s.carry = s.carry[:0]

	n, err := s.r.Read(p[off:])
	n += off
	if n == 0 {
		return 0, err
	}
	if asciiOnly(p[:n]) {
		return n, err
	}
	return s.clean(p[:n], err == io.EOF), err
}

func (s *utf8Sanitizer) clean(data []byte, atEOF bool) int {
	w := 0
	for i := 0; i < len(data); {
		if !atEOF && !utf8.FullRune(data[i:]) {
			s.carry = append(s.carry, data[i:]...)
			return w
		}
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			data[w] = '?'
			w++
			i++
			continue
		}
		w += copy(data[w:], data[i:i+size])
		i += size
	}
	return w
}

func asciiOnly(data []byte) bool {
	for _, c := range data {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// CountingReader tracks the bytes read from the underlying stream. The count
// may be read from another goroutine while a run is in progress.
type CountingReader struct {
	r     io.Reader
	n     atomic.Int64
	Total int64 // 0 when unknown
}

// NewCountingReader wraps r. total is the expected size, or 0 if unknown.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{r: r, Total: total}
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

// BytesRead returns the number of bytes consumed so far.
func (c *CountingReader) BytesRead() int64 {
	return c.n.Load()
}

// Progress returns the read progress as a percentage, or 0 if Total is unknown.
func (c *CountingReader) Progress() int {
	if c.Total <= 0 {
		return 0
	}
	return int(c.BytesRead() * 100 / c.Total)
}

// Sanitize strips a byte order mark and replaces invalid UTF-8.
func Sanitize(r io.Reader) io.Reader {
	return newUTF8Sanitizer(newBOMSkipper(r))
}

// RowReader reads tab-delimited rows. Cells are split on every tab with no
// quoting rules: catalog exports carry bare quotes inside names.
type RowReader struct {
	br   *bufio.Reader
	line int
}

// NewRowReader returns a RowReader over r.
func NewRowReader(r io.Reader) *RowReader {
	return &RowReader{br: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the cells of the next line, or io.EOF when the stream is
// exhausted. A blank line yields a nil slice.
func (rr *RowReader) Next() ([]string, error) {
	s, err := rr.br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	if err == io.EOF && s == "" {
		return nil, io.EOF
	}
	rr.line++

	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	if s == "" {
		return nil, nil
	}
	return strings.Split(s, "\t"), nil
}

// Line returns the 1-based number of the line last returned by Next.
func (rr *RowReader) Line() int {
	return rr.line
}
