package loader

import (
	"context"
	"fmt"

	"binner/internal/histogram"

	"github.com/jackc/pgx/v5/pgxpool"
)

// pgSource reads a column from a Postgres table over a pgx pool. The DSN is
// the full postgres:// URL passed as the source path.
type pgSource struct {
	pool  *pgxpool.Pool
	table string
}

func openPostgres(ctx context.Context, dsn, table string) (*pgSource, error) {
	if table == "" {
		return nil, fmt.Errorf("postgres source requires a table name: %w", histogram.ErrInvalidParameter)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &pgSource{pool: pool, table: table}, nil
}

func (s *pgSource) Columns(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = $1
		ORDER BY ordinal_position`, s.table)
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

func (s *pgSource) Column(ctx context.Context, name string) (histogram.Column, error) {
	available, err := s.Columns(ctx)
	if err != nil {
		return histogram.Column{}, err
	}
	idx, ok := matchColumn(name, available)
	if !ok {
		return histogram.Column{}, columnNotFound(name, available)
	}

	// Cast to text server-side and parse here, so an unparsable cell in a
	// TEXT column becomes a null instead of aborting the whole query the
	// way a ::float8 cast would. Identifiers cannot be placeholders; the
	// name was verified above.
	q := fmt.Sprintf(`SELECT %s::text FROM %s`, quoteIdent(available[idx]), quoteIdent(s.table))
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return histogram.Column{}, fmt.Errorf("select %s.%s: %w", s.table, name, err)
	}
	defer rows.Close()

	col := histogram.Column{Name: name}
	for rows.Next() {
		// Scan destinations must be pointers; a nil *string round-trips NULL.
		var v *string
		if err := rows.Scan(&v); err != nil {
			return histogram.Column{}, err
		}
		if v == nil {
			col.Values = append(col.Values, histogram.Null())
		} else {
			col.Values = append(col.Values, parseNumeric(*v))
		}
	}
	if err := rows.Err(); err != nil {
		return histogram.Column{}, err
	}
	return col, nil
}

func (s *pgSource) Close() error {
	s.pool.Close()
	return nil
}
