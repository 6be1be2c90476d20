package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"binner/internal/histogram"
)

// writeFile drops content into a temp dir and returns the full path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// TestOpenMissingFile verifies that a nonexistent path resolves to the
// source-not-found sentinel rather than a raw os error.
func TestOpenMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "absent.csv"), Options{})
	if !errors.Is(err, histogram.ErrSourceNotFound) {
		t.Fatalf("Open() error = %v, want ErrSourceNotFound", err)
	}
}

// TestOpenUnsupportedExtension verifies that existing files with an unknown
// extension are rejected with a diagnostic listing the supported kinds.
func TestOpenUnsupportedExtension(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "data.parquet", "not parquet")
	_, err := Open(context.Background(), path, Options{})
	if !errors.Is(err, histogram.ErrSourceNotFound) {
		t.Fatalf("Open() error = %v, want ErrSourceNotFound", err)
	}
}

// TestOpenDispatch verifies that supported extensions resolve to a usable
// source.
func TestOpenDispatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "csv", file: "data.csv", content: "x\n1\n"},
		{name: "json", file: "data.json", content: `[{"x":1}]`},
		{name: "ndjson", file: "data.ndjson", content: `{"x":1}` + "\n"},
		{name: "html", file: "data.html", content: "<table><tr><th>x</th></tr><tr><td>1</td></tr></table>"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeFile(t, tt.file, tt.content)
			src, err := Open(context.Background(), path, Options{})
			if err != nil {
				t.Fatalf("Open(%s) error = %v", tt.file, err)
			}
			defer src.Close()

			cols, err := src.Columns(context.Background())
			if err != nil {
				t.Fatalf("Columns() error = %v", err)
			}
			if len(cols) != 1 || cols[0] != "x" {
				t.Fatalf("Columns() = %v, want [x]", cols)
			}
		})
	}
}

// TestMatchColumn exercises exact and case-insensitive header resolution.
func TestMatchColumn(t *testing.T) {
	t.Parallel()

	headers := []string{"Amount", "amount_net", "AMOUNT_TAX"}

	tests := []struct {
		name    string
		lookup  string
		wantIdx int
		wantOK  bool
	}{
		{name: "exact", lookup: "Amount", wantIdx: 0, wantOK: true},
		{name: "case insensitive unique", lookup: "amount_tax", wantIdx: 2, wantOK: true},
		{name: "missing", lookup: "total", wantIdx: -1, wantOK: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			idx, ok := matchColumn(tt.lookup, headers)
			if idx != tt.wantIdx || ok != tt.wantOK {
				t.Fatalf("matchColumn(%q) = (%d, %v), want (%d, %v)",
					tt.lookup, idx, ok, tt.wantIdx, tt.wantOK)
			}
		})
	}
}

// TestMatchColumnAmbiguous verifies that a case-insensitive lookup matching
// several headers is rejected instead of picking one arbitrarily.
func TestMatchColumnAmbiguous(t *testing.T) {
	t.Parallel()

	if _, ok := matchColumn("amount", []string{"Amount", "AMOUNT"}); ok {
		t.Fatal("matchColumn() matched an ambiguous lookup, want no match")
	}
}
