package gridfilter

import (
	"fmt"
	"log/slog"

	"github.com/hugr-lab/gridfilter/filter"
	"github.com/hugr-lab/gridfilter/grid"
	"github.com/hugr-lab/gridfilter/internal/recovery"
)

// Engine compiles rule trees and applies grid state for one record type.
// Safe for concurrent use.
type Engine[R any] struct {
	acc      filter.FieldAccessor[R]
	compiler *filter.Compiler[R]
	pager    *grid.Pager[R]
	config   Config
	logger   *slog.Logger
}

// New creates an engine reading records through acc.
//
// Example:
//
//	people := record.NewTable[Person]().
//	    Field("name", filter.String(), func(p Person) any { return p.Name })
//	eng, err := gridfilter.New[Person](people, gridfilter.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	page, diags, err := eng.Apply(state, items)
func New[R any](acc filter.FieldAccessor[R], config Config) (*Engine[R], error) {
	if acc == nil {
		return nil, fmt.Errorf("%w: accessor is required", ErrInvalidConfig)
	}
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	logger := config.logger()
	compiler := filter.NewCompiler[R](acc, &filter.CompilerOptions{
		Strict:   config.Strict,
		Location: config.Location,
		Logger:   logger,
	})

	logger.Debug("gridfilter engine created",
		"strict", config.Strict,
		"max_page_size", config.MaxPageSize,
	)

	return &Engine[R]{
		acc:      acc,
		compiler: compiler,
		pager:    grid.NewPager(compiler, &grid.Options{MaxPageSize: config.MaxPageSize, Logger: logger}),
		config:   config,
		logger:   logger,
	}, nil
}

// Compiler returns the engine's compiler.
func (e *Engine[R]) Compiler() *filter.Compiler[R] { return e.compiler }

// Operators lists the operators a field picker offers for field, in
// display order. Unknown fields and unsupported types yield an empty list.
func (e *Engine[R]) Operators(field string) []filter.Operator {
	return filter.OperatorsFor(filter.CategoryOf(e.acc, field))
}

// Compile folds the tree rooted at root into one predicate. A nil predicate
// means no filter is configured.
func (e *Engine[R]) Compile(root *filter.Rule) (filter.Predicate[R], filter.Diagnostics, error) {
	return e.compiler.Compile(root)
}

// CompileJSON parses a serialized rule tree and compiles it.
func (e *Engine[R]) CompileJSON(data []byte) (filter.Predicate[R], filter.Diagnostics, error) {
	root, err := filter.Parse(data)
	if err != nil {
		return nil, nil, err
	}
	return e.compiler.Compile(root)
}

// Filter returns the items accepted by the tree rooted at root, in order.
// A panic raised by the accessor fails the call with a recovered error.
func (e *Engine[R]) Filter(root *filter.Rule, items []R) ([]R, filter.Diagnostics, error) {
	pred, diags, err := e.compiler.Compile(root)
	if err != nil {
		return nil, diags, err
	}
	kept, err := recovery.RecoverToValue(e.logger, "filter", func() ([]R, error) {
		out := make([]R, 0, len(items))
		for _, it := range items {
			if pred == nil || pred(it) {
				out = append(out, it)
			}
		}
		return out, nil
	})
	return kept, diags, err
}

// Apply filters, sorts and pages items according to state.
func (e *Engine[R]) Apply(state *grid.State, items []R) (grid.Data[R], filter.Diagnostics, error) {
	return e.pager.Apply(state, items)
}

// SQL renders the tree rooted at root as a DuckDB WHERE clause body.
// Returns an empty string when nothing can be pushed down.
func (e *Engine[R]) SQL(root *filter.Rule, opts *filter.EncoderOptions) string {
	o := filter.EncoderOptions{Location: e.config.Location}
	if opts != nil {
		o = *opts
		if o.Location == nil {
			o.Location = e.config.Location
		}
	}
	return filter.NewDuckDBEncoder(e.acc, &o).Encode(root)
}
