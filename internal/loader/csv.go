package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"binner/internal/histogram"
)

// csvSource streams a CSV file one record at a time. The file is re-opened
// per call, so a source can list columns and then extract one without
// buffering the whole file.
type csvSource struct {
	path   string
	decode func(io.Reader) io.Reader
}

func newCSVSource(path, encoding string) (*csvSource, error) {
	decode, err := charsetDecoder(encoding)
	if err != nil {
		return nil, err
	}
	return &csvSource{path: path, decode: decode}, nil
}

// charsetDecoder maps the -encoding flag onto a reader wrapper. UTF-8 input
// passes through untouched.
func charsetDecoder(encoding string) (func(io.Reader) io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return func(r io.Reader) io.Reader { return r }, nil
	case "latin1", "iso-8859-1":
		return func(r io.Reader) io.Reader {
			return transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
		}, nil
	case "windows-1250":
		return func(r io.Reader) io.Reader {
			return transform.NewReader(r, charmap.Windows1250.NewDecoder())
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown encoding %q (want utf-8, latin1 or windows-1250)", histogram.ErrInvalidParameter, encoding)
}

func (s *csvSource) open() (*os.File, *csv.Reader, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	cr := csv.NewReader(s.decode(f))
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1
	return f, cr, nil
}

func (s *csvSource) header(cr *csv.Reader) ([]string, error) {
	hdr, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	out := make([]string, len(hdr))
	for i, h := range hdr {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		out[i] = h
	}
	return out, nil
}

func (s *csvSource) Columns(ctx context.Context) ([]string, error) {
	f, cr, err := s.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return s.header(cr)
}

// Column streams the file and parses the selected field of every record.
// Empty cells, unparsable cells and cells missing from short records are
// nulls; the row still counts toward the total.
func (s *csvSource) Column(ctx context.Context, name string) (histogram.Column, error) {
	f, cr, err := s.open()
	if err != nil {
		return histogram.Column{}, err
	}
	defer f.Close()

	headers, err := s.header(cr)
	if err != nil {
		return histogram.Column{}, err
	}
	idx, ok := matchColumn(name, headers)
	if !ok {
		return histogram.Column{}, columnNotFound(name, headers)
	}

	col := histogram.Column{Name: headers[idx]}
	for {
		if err := ctx.Err(); err != nil {
			return histogram.Column{}, err
		}
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return histogram.Column{}, fmt.Errorf("read csv record: %w", err)
		}
		col.Values = append(col.Values, parseCell(rec, idx))
	}
	return col, nil
}

func parseCell(rec []string, idx int) histogram.Value {
	if idx >= len(rec) {
		return histogram.Null()
	}
	cell := strings.TrimSpace(rec[idx])
	if cell == "" {
		return histogram.Null()
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return histogram.Null()
	}
	return histogram.Num(v)
}

func (s *csvSource) Close() error { return nil }
