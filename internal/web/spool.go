package web

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"strings"
)

var (
	errNoFile       = errors.New("no file provided")
	errFileTooLarge = errors.New("file too large")
)

// maxFieldSize bounds non-file form values.
const maxFieldSize = 1 << 10

// spooledFile is an upload copied to local disk. Close removes it, so the
// import run owns the file's lifetime after the request has returned.
type spooledFile struct {
	*os.File
}

func (f *spooledFile) Close() error {
	closeErr := f.File.Close()
	if err := os.Remove(f.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return closeErr
}

// upload is the parsed body of POST /api/imports.
type upload struct {
	format   string
	fileName string
	file     *spooledFile
	size     int64
}

// readUpload streams a multipart body, spooling the "file" part into dir
// and collecting the optional "format" field. Parts may come in any order.
func readUpload(mr *multipart.Reader, dir string, maxSize int64) (*upload, error) {
	up := &upload{}
	fail := func(err error) (*upload, error) {
		if up.file != nil {
			up.file.Close()
		}
		return nil, err
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fail(fmt.Errorf("read multipart: %w", err))
		}

		switch part.FormName() {
		case "format":
			b, err := io.ReadAll(io.LimitReader(part, maxFieldSize))
			if err != nil {
				return fail(fmt.Errorf("read format field: %w", err))
			}
			up.format = strings.TrimSpace(string(b))
		case "file":
			if up.file != nil {
				return fail(errors.New("more than one file provided"))
			}
			up.fileName = part.FileName()
			up.file, up.size, err = spool(part, dir, maxSize)
			if err != nil {
				return fail(err)
			}
		}
		part.Close()
	}

	if up.file == nil {
		return nil, errNoFile
	}
	return up, nil
}

// spool copies at most maxSize bytes of r into a new temp file in dir and
// rewinds it.
func spool(r io.Reader, dir string, maxSize int64) (*spooledFile, int64, error) {
	f, err := os.CreateTemp(dir, "import-*.tsv")
	if err != nil {
		return nil, 0, fmt.Errorf("create spool file: %w", err)
	}
	sf := &spooledFile{File: f}

	n, err := io.Copy(f, io.LimitReader(r, maxSize+1))
	if err != nil {
		sf.Close()
		return nil, 0, fmt.Errorf("spool upload: %w", err)
	}
	if n > maxSize {
		sf.Close()
		return nil, 0, fmt.Errorf("%w: exceeds %d bytes", errFileTooLarge, maxSize)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		sf.Close()
		return nil, 0, fmt.Errorf("rewind spool file: %w", err)
	}
	return sf, n, nil
}
