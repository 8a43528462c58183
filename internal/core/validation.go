package core

import (
	"fmt"
	"strings"
)

// HeaderMismatch describes a header line whose column count differs from the
// routed format. The header is discarded either way; a mismatch usually means
// the file was routed to the wrong format and its rows will fail.
type HeaderMismatch struct {
	Format Format
	Want   int
	Got    int
	Header []string
}

func (e *HeaderMismatch) Error() string {
	return fmt.Sprintf("%s header has %d columns, want %d: %s",
		e.Format, e.Got, e.Want, strings.Join(e.Header, ","))
}

// checkHeader compares the header's width with the format's field list.
// Column names are not compared: exports rename headers between releases.
func checkHeader(header []string, info FormatInfo) *HeaderMismatch {
	if len(header) == len(info.Columns) {
		return nil
	}
	return &HeaderMismatch{
		Format: info.Format,
		Want:   len(info.Columns),
		Got:    len(header),
		Header: header,
	}
}
