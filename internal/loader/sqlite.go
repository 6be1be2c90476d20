package loader

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"binner/internal/histogram"

	_ "modernc.org/sqlite"
)

// sqliteSource reads a column out of a SQLite database file. The path may be
// either a plain file path ending in .db/.sqlite/.sqlite3 or a "sqlite:" DSN.
type sqliteSource struct {
	db    *sql.DB
	table string
}

func openSQLite(ctx context.Context, dsn, table string) (*sqliteSource, error) {
	dsn = strings.TrimPrefix(dsn, "sqlite:")
	if table == "" {
		return nil, fmt.Errorf("sqlite source requires a table name: %w", histogram.ErrInvalidParameter)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", dsn, err)
	}
	return &sqliteSource{db: db, table: table}, nil
}

func (s *sqliteSource) Columns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?) ORDER BY cid", s.table)
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", s.table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s: %w", s.table, histogram.ErrSourceNotFound)
	}
	return cols, nil
}

func (s *sqliteSource) Column(ctx context.Context, name string) (histogram.Column, error) {
	available, err := s.Columns(ctx)
	if err != nil {
		return histogram.Column{}, err
	}
	idx, ok := matchColumn(name, available)
	if !ok {
		return histogram.Column{}, columnNotFound(name, available)
	}

	// Table and column names came from pragma_table_info, so quoting them is
	// enough; they cannot be bound as placeholders.
	q := fmt.Sprintf(`SELECT %s FROM %s`, quoteIdent(available[idx]), quoteIdent(s.table))
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return histogram.Column{}, fmt.Errorf("select %s.%s: %w", s.table, name, err)
	}
	defer rows.Close()

	col := histogram.Column{Name: name}
	for rows.Next() {
		var raw any
		if err := rows.Scan(&raw); err != nil {
			return histogram.Column{}, err
		}
		col.Values = append(col.Values, sqlValue(raw))
	}
	if err := rows.Err(); err != nil {
		return histogram.Column{}, err
	}
	return col, nil
}

func (s *sqliteSource) Close() error { return s.db.Close() }

// sqlValue coerces a driver-scanned cell to a nullable double. SQLite columns
// have no fixed type, so TEXT cells that parse as numbers still count.
func sqlValue(raw any) histogram.Value {
	switch t := raw.(type) {
	case nil:
		return histogram.Null()
	case int64:
		return histogram.Num(float64(t))
	case float64:
		return histogram.Num(t)
	case []byte:
		return parseNumeric(string(t))
	case string:
		return parseNumeric(t)
	}
	return histogram.Null()
}

func parseNumeric(s string) histogram.Value {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return histogram.Null()
	}
	return histogram.Num(f)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
