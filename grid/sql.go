package grid

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hugr-lab/gridfilter/filter"
	"github.com/hugr-lab/gridfilter/record"
)

// SQLPager applies grid state to a DuckDB table or view. The filter and
// sort are pushed down as SQL; the compiled predicate then runs over the
// returned rows, so leaves the encoder could not render still apply and
// TotalItems stays exact. Paging happens after that final filter.
type SQLPager struct {
	db     *sql.DB
	source string
	schema *record.Schema
	mapped bool
	pager  *Pager[map[string]any]
	enc    *filter.DuckDBEncoder
}

// NewSQLPager creates a pager reading from source, a table or view name.
// schema lists the filterable columns; eopts maps fields to columns.
func NewSQLPager(db *sql.DB, source string, schema *record.Schema, copts *filter.CompilerOptions, eopts *filter.EncoderOptions, opts *Options) *SQLPager {
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	enc := filter.EncoderOptions{}
	if eopts != nil {
		enc = *eopts
	}
	if copts != nil && enc.Location == nil {
		enc.Location = copts.Location
	}
	acc := record.NewMapAccessor(schema)
	return &SQLPager{
		db:     db,
		source: source,
		schema: schema,
		mapped: len(enc.ColumnMapping) > 0 || len(enc.ColumnExpressions) > 0,
		pager: &Pager[map[string]any]{
			compiler:    filter.NewCompiler[map[string]any](acc, copts),
			maxPageSize: opts.MaxPageSize,
			logger:      logger,
		},
		enc: filter.NewDuckDBEncoder(schema, &enc),
	}
}

// Build renders the SELECT statement for state: the encodable part of the
// filter as WHERE, and the sort definitions as ORDER BY with nulls ordered
// as the in-memory pager orders them.
func (p *SQLPager) Build(state *State) (string, error) {
	if err := p.pager.check(state); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(p.selectList())
	b.WriteString(" FROM ")
	b.WriteString(filter.QuoteIdentifier(p.source))

	if where := p.enc.Encode(state.Rule()); where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}

	defs := state.SortOrder()
	for i, d := range defs {
		if _, err := p.pager.compiler.Comparator(d.SortBy, d.Descending); err != nil {
			return "", fmt.Errorf("grid: sort by %s: %w", d.SortBy, err)
		}
		if i == 0 {
			b.WriteString(" ORDER BY ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(p.enc.Column(d.SortBy))
		if d.Descending {
			b.WriteString(" DESC NULLS LAST")
		} else {
			b.WriteString(" ASC NULLS FIRST")
		}
	}
	return b.String(), nil
}

// Query runs the statement built for state and returns the requested page.
func (p *SQLPager) Query(ctx context.Context, state *State) (Data[map[string]any], filter.Diagnostics, error) {
	query, err := p.Build(state)
	if err != nil {
		return Data[map[string]any]{}, nil, err
	}

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return Data[map[string]any]{}, nil, fmt.Errorf("grid: query failed: %w", err)
	}
	defer rows.Close()

	items, err := scanMaps(rows)
	if err != nil {
		return Data[map[string]any]{}, nil, err
	}

	// Rows arrive sorted; only the residual filter and paging remain.
	unsorted := *state
	unsorted.SortDefinitions = nil
	return p.pager.Apply(&unsorted, items)
}

// selectList reads every schema field under its own name when fields are
// mapped to other columns or expressions.
func (p *SQLPager) selectList() string {
	if !p.mapped {
		return "*"
	}
	fields := p.schema.Fields()
	items := make([]string, 0, len(fields))
	for _, f := range fields {
		items = append(items, p.enc.Column(f.Name)+" AS "+filter.QuoteIdentifier(f.Name))
	}
	return strings.Join(items, ", ")
}

func scanMaps(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("grid: read columns: %w", err)
	}
	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("grid: scan row: %w", err)
		}
		m := make(map[string]any, len(cols))
		for i, c := range cols {
			m[c] = vals[i]
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("grid: read rows: %w", err)
	}
	return out, nil
}
