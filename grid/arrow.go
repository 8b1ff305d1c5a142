package grid

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/gridfilter/filter"
	"github.com/hugr-lab/gridfilter/internal/recovery"
	"github.com/hugr-lab/gridfilter/internal/serialize"
	"github.com/hugr-lab/gridfilter/record"
)

// ArrowPage is one page of an Arrow record batch. Record holds the page's
// rows restricted to the visible columns; the caller must release it.
type ArrowPage struct {
	Record     arrow.RecordBatch
	TotalItems int
}

// ArrowPager applies grid state to Arrow record batches sharing a schema.
// Safe for concurrent use.
type ArrowPager struct {
	acc         *record.ArrowAccessor
	compiler    *filter.Compiler[record.Row]
	alloc       memory.Allocator
	maxPageSize int
	logger      *slog.Logger
}

// NewArrowPager creates a pager for batches with the given schema.
func NewArrowPager(schema *arrow.Schema, copts *filter.CompilerOptions, opts *Options, alloc memory.Allocator) *ArrowPager {
	if opts == nil {
		opts = &Options{}
	}
	if alloc == nil {
		alloc = memory.DefaultAllocator
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	acc := record.NewArrowAccessor(schema)
	return &ArrowPager{
		acc:         acc,
		compiler:    filter.NewCompiler[record.Row](acc, copts),
		alloc:       alloc,
		maxPageSize: opts.MaxPageSize,
		logger:      logger,
	}
}

// Accessor returns the accessor classifying the batch columns.
func (p *ArrowPager) Accessor() *record.ArrowAccessor { return p.acc }

// Apply filters, sorts and pages rec, then projects the visible columns.
func (p *ArrowPager) Apply(state *State, rec arrow.RecordBatch) (ArrowPage, filter.Diagnostics, error) {
	inner := &Pager[record.Row]{compiler: p.compiler, maxPageSize: p.maxPageSize, logger: p.logger}
	if err := inner.check(state); err != nil {
		return ArrowPage{}, nil, err
	}

	pred, diags, err := p.compiler.Compile(state.Rule())
	if err != nil {
		return ArrowPage{}, diags, fmt.Errorf("grid: %w", err)
	}
	order, err := inner.ordering(state)
	if err != nil {
		return ArrowPage{}, diags, err
	}

	rows, err := recovery.RecoverToValue(p.logger, "filter", func() ([]int, error) {
		idx := record.Select(rec, pred)
		if order != nil {
			slices.SortStableFunc(idx, func(a, b int) int {
				return order(record.Row{Record: rec, Index: a}, record.Row{Record: rec, Index: b})
			})
		}
		return idx, nil
	})
	if err != nil {
		return ArrowPage{}, diags, err
	}

	lo, hi := pageBounds(state.Page, state.PageSize, len(rows))
	page, err := record.TakeRows(rec, rows[lo:hi], p.alloc)
	if err != nil {
		return ArrowPage{}, diags, fmt.Errorf("grid: %w", err)
	}
	defer page.Release()

	return ArrowPage{
		Record:     record.ProjectRecord(page, state.VisibleFields()),
		TotalItems: len(rows),
	}, diags, nil
}

// EncodePage serializes a page record as ZStandard-compressed Arrow IPC.
func EncodePage(page arrow.RecordBatch, alloc memory.Allocator) ([]byte, error) {
	data, err := serialize.WriteIPC(page, alloc)
	if err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}
	return data, nil
}

// DecodePage reverses EncodePage. The caller must release the result.
func DecodePage(data []byte, alloc memory.Allocator) (arrow.RecordBatch, error) {
	rec, err := serialize.ReadIPC(data, alloc)
	if err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}
	return rec, nil
}
