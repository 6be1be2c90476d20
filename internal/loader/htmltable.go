package loader

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"binner/internal/histogram"

	"github.com/PuerkitoBio/goquery"
)

// htmlSource extracts a numeric column from an HTML <table>. By default the
// first table in the document is used; Options.Table can name one by its id
// attribute instead.
//
// Headers come from the first <th> row when the table has one, otherwise from
// the first row of cells.
type htmlSource struct {
	path  string
	table string
}

func newHTMLSource(path, table string) *htmlSource {
	return &htmlSource{path: path, table: table}
}

// rows parses the document and returns the header row plus data rows of the
// selected table.
func (s *htmlSource) rows() ([]string, [][]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, nil, fmt.Errorf("parse html %s: %w", s.path, err)
	}

	sel := doc.Find("table").First()
	if s.table != "" {
		sel = doc.Find("table#" + s.table).First()
	}
	if sel.Length() == 0 {
		if s.table != "" {
			return nil, nil, fmt.Errorf("%s: no table with id %q: %w", s.path, s.table, histogram.ErrSourceNotFound)
		}
		return nil, nil, fmt.Errorf("%s: no table element: %w", s.path, histogram.ErrSourceNotFound)
	}

	var header []string
	var data [][]string
	sel.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		if len(cells) == 0 {
			return
		}
		if header == nil {
			// A th row is the header when present; without one the first row
			// of cells doubles as the header.
			header = cells
			return
		}
		data = append(data, cells)
	})
	if header == nil {
		return nil, nil, fmt.Errorf("%s: empty table: %w", s.path, histogram.ErrSourceNotFound)
	}
	return header, data, nil
}

func (s *htmlSource) Columns(ctx context.Context) ([]string, error) {
	header, _, err := s.rows()
	if err != nil {
		return nil, err
	}
	return header, nil
}

func (s *htmlSource) Column(ctx context.Context, name string) (histogram.Column, error) {
	header, data, err := s.rows()
	if err != nil {
		return histogram.Column{}, err
	}
	idx, ok := matchColumn(name, header)
	if !ok {
		return histogram.Column{}, columnNotFound(name, header)
	}

	col := histogram.Column{Name: name, Values: make([]histogram.Value, 0, len(data))}
	for _, row := range data {
		if idx >= len(row) {
			col.Values = append(col.Values, histogram.Null())
			continue
		}
		cell := strings.TrimSpace(row[idx])
		if cell == "" {
			col.Values = append(col.Values, histogram.Null())
			continue
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64)
		if err != nil {
			col.Values = append(col.Values, histogram.Null())
			continue
		}
		col.Values = append(col.Values, histogram.Num(f))
	}
	return col, nil
}

func (s *htmlSource) Close() error { return nil }
