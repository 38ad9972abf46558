// Package file provides the local-file data source. It hides text-encoding
// concerns from the parsers: the reader it hands back is always UTF-8 with
// any byte-order mark already consumed, so UTF-16 exports from spreadsheet
// tools ingest the same as plain UTF-8 files.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Source reads one local file.
type Source struct {
	Path string
}

// New returns a source for path.
func New(path string) *Source {
	return &Source{Path: path}
}

// Name is the bare file name, used to derive the destination table name.
func (s *Source) Name() string {
	return filepath.Base(s.Path)
}

// Open opens the file for reading. The returned reader yields UTF-8: a UTF-8
// BOM is stripped and UTF-16 (either endianness, BOM required) is transcoded.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open source %s: %w", s.Path, err)
	}

	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	return &decodedFile{
		Reader: transform.NewReader(f, dec),
		f:      f,
	}, nil
}

type decodedFile struct {
	io.Reader
	f *os.File
}

func (d *decodedFile) Close() error { return d.f.Close() }
