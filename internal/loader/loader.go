// Package loader materializes a single named column from a data source as an
// ordered sequence of nullable doubles, and lists the available column names
// for diagnostics.
//
// Supported sources, resolved from the -file argument:
//   - CSV files (streamed, optional charset decode)
//   - JSON files (array of objects, object envelopes, NDJSON)
//   - HTML files (first <table>)
//   - SQLite databases (.db/.sqlite files or sqlite: DSNs)
//   - Postgres (postgres:// DSNs) and SQL Server (sqlserver:// DSNs)
//
// All loaders follow the same null policy: SQL NULLs, empty/unparsable cells,
// missing JSON fields and non-finite numbers all arrive as null values, which
// the histogram core counts separately from the numeric values.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"binner/internal/histogram"
)

// Source yields one column at a time from an already-resolved input.
type Source interface {
	// Column extracts the named column in original row order.
	Column(ctx context.Context, name string) (histogram.Column, error)

	// Columns lists the available column names.
	Columns(ctx context.Context) ([]string, error)

	Close() error
}

// Options carry the source-specific knobs from the CLI.
type Options struct {
	// Table names the table to read for SQL sources, or the id attribute of
	// the <table> element for HTML sources. Ignored elsewhere.
	Table string

	// Encoding selects the CSV charset: "", "utf-8", "latin1"/"iso-8859-1",
	// or "windows-1250". Ignored elsewhere.
	Encoding string
}

// Open resolves a path or DSN onto a concrete source. DSN schemes are
// checked before file extensions so a postgres:// URL is never treated as a
// local path.
func Open(ctx context.Context, path string, opt Options) (Source, error) {
	switch {
	case strings.HasPrefix(path, "postgres://"), strings.HasPrefix(path, "postgresql://"):
		return openPostgres(ctx, path, opt.Table)
	case strings.HasPrefix(path, "sqlserver://"):
		return openMSSQL(ctx, path, opt.Table)
	case strings.HasPrefix(path, "sqlite:"):
		return openSQLite(ctx, path, opt.Table)
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", histogram.ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return newCSVSource(path, opt.Encoding)
	case ".json", ".ndjson":
		return newJSONSource(path), nil
	case ".html", ".htm":
		return newHTMLSource(path, opt.Table), nil
	case ".db", ".sqlite", ".sqlite3":
		return openSQLite(ctx, path, opt.Table)
	}
	return nil, fmt.Errorf("%w: unsupported source %q (want .csv, .json, .ndjson, .html, .db/.sqlite, or a postgres://, sqlserver://, sqlite: DSN)", histogram.ErrSourceNotFound, path)
}

// columnNotFound builds the ColumnNotFound error with the available names in
// the message, which is the main diagnostic users see for typos.
func columnNotFound(name string, available []string) error {
	return fmt.Errorf("%w: %q (available: %s)", histogram.ErrColumnNotFound, name, strings.Join(available, ", "))
}

// matchColumn finds name in headers: exact match first, then a unique
// case-insensitive match.
func matchColumn(name string, headers []string) (int, bool) {
	for i, h := range headers {
		if h == name {
			return i, true
		}
	}
	idx, hits := -1, 0
	for i, h := range headers {
		if strings.EqualFold(h, name) {
			idx = i
			hits++
		}
	}
	if hits == 1 {
		return idx, true
	}
	return -1, false
}
