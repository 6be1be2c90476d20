package loader

import (
	"context"
	"database/sql"
	"fmt"

	"binner/internal/histogram"

	_ "github.com/microsoft/go-mssqldb"
)

// mssqlSource reads a column from a SQL Server table. The DSN is the
// sqlserver:// URL passed as the source path.
type mssqlSource struct {
	db    *sql.DB
	table string
}

func openMSSQL(ctx context.Context, dsn, table string) (*mssqlSource, error) {
	if table == "" {
		return nil, fmt.Errorf("sqlserver source requires a table name: %w", histogram.ErrInvalidParameter)
	}
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlserver: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlserver: %w", err)
	}
	return &mssqlSource{db: db, table: table}, nil
}

func (s *mssqlSource) Columns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COLUMN_NAME
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_NAME = @p1
		ORDER BY ORDINAL_POSITION`, s.table)
	if err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", s.table, err)
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

func (s *mssqlSource) Column(ctx context.Context, name string) (histogram.Column, error) {
	available, err := s.Columns(ctx)
	if err != nil {
		return histogram.Column{}, err
	}
	idx, ok := matchColumn(name, available)
	if !ok {
		return histogram.Column{}, columnNotFound(name, available)
	}

	// TRY_CAST turns non-numeric text into NULL instead of failing the query,
	// which matches the null policy of the file loaders.
	q := fmt.Sprintf(`SELECT TRY_CAST(%s AS float) FROM %s`,
		quoteBracket(available[idx]), quoteBracket(s.table))
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return histogram.Column{}, fmt.Errorf("select %s.%s: %w", s.table, name, err)
	}
	defer rows.Close()

	col := histogram.Column{Name: name}
	for rows.Next() {
		var v sql.NullFloat64
		if err := rows.Scan(&v); err != nil {
			return histogram.Column{}, err
		}
		if v.Valid {
			col.Values = append(col.Values, histogram.Num(v.Float64))
		} else {
			col.Values = append(col.Values, histogram.Null())
		}
	}
	if err := rows.Err(); err != nil {
		return histogram.Column{}, err
	}
	return col, nil
}

func (s *mssqlSource) Close() error { return s.db.Close() }

func quoteBracket(name string) string {
	out := make([]byte, 0, len(name)+2)
	out = append(out, '[')
	for i := 0; i < len(name); i++ {
		if name[i] == ']' {
			out = append(out, ']', ']')
			continue
		}
		out = append(out, name[i])
	}
	out = append(out, ']')
	return string(out)
}
