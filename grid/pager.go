package grid

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/hugr-lab/gridfilter/filter"
	"github.com/hugr-lab/gridfilter/internal/recovery"
)

// ErrPageSizeTooLarge is returned when a state asks for more rows per page
// than the pager allows.
var ErrPageSizeTooLarge = errors.New("grid: page size exceeds limit")

// Data is one page of grid items. TotalItems counts every item that passed
// the filter, across all pages.
type Data[R any] struct {
	Items      []R `json:"Items"`
	TotalItems int `json:"TotalItems"`
}

// Options configures a pager.
type Options struct {
	// MaxPageSize caps State.PageSize.
	// OPTIONAL: Zero means no cap.
	MaxPageSize int

	// Logger receives recovered accessor panics.
	// OPTIONAL: Uses slog.Default() if nil.
	Logger *slog.Logger
}

// Pager filters, sorts and pages in-memory collections.
// Safe for concurrent use.
type Pager[R any] struct {
	compiler    *filter.Compiler[R]
	maxPageSize int
	logger      *slog.Logger
}

// NewPager creates a pager compiling filters with c.
// If opts is nil, default options are used.
func NewPager[R any](c *filter.Compiler[R], opts *Options) *Pager[R] {
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pager[R]{compiler: c, maxPageSize: opts.MaxPageSize, logger: logger}
}

// Apply returns the page of items selected by state. items is not
// modified. A panic raised by the record accessor while filtering or
// sorting fails the call with a *recovery.PanicError.
func (p *Pager[R]) Apply(state *State, items []R) (Data[R], filter.Diagnostics, error) {
	if err := p.check(state); err != nil {
		return Data[R]{}, nil, err
	}

	pred, diags, err := p.compiler.Compile(state.Rule())
	if err != nil {
		return Data[R]{}, diags, fmt.Errorf("grid: %w", err)
	}

	order, err := p.ordering(state)
	if err != nil {
		return Data[R]{}, diags, err
	}

	kept, err := recovery.RecoverToValue(p.logger, "filter", func() ([]R, error) {
		if pred == nil {
			return slices.Clone(items), nil
		}
		out := make([]R, 0, len(items))
		for _, it := range items {
			if pred(it) {
				out = append(out, it)
			}
		}
		return out, nil
	})
	if err != nil {
		return Data[R]{}, diags, err
	}

	if order != nil {
		err = recovery.RecoverToError(p.logger, "sort", func() error {
			slices.SortStableFunc(kept, order)
			return nil
		})
		if err != nil {
			return Data[R]{}, diags, err
		}
	}

	lo, hi := pageBounds(state.Page, state.PageSize, len(kept))
	return Data[R]{Items: kept[lo:hi], TotalItems: len(kept)}, diags, nil
}

func (p *Pager[R]) check(state *State) error {
	if state == nil {
		return fmt.Errorf("grid: nil state")
	}
	if err := state.Validate(); err != nil {
		return err
	}
	if p.maxPageSize > 0 && state.PageSize > p.maxPageSize {
		return fmt.Errorf("%w: %d > %d", ErrPageSizeTooLarge, state.PageSize, p.maxPageSize)
	}
	return nil
}

// ordering folds the sort definitions into one comparison, or nil when the
// state is unsorted.
func (p *Pager[R]) ordering(state *State) (func(a, b R) int, error) {
	defs := state.SortOrder()
	if len(defs) == 0 {
		return nil, nil
	}
	cmps := make([]func(a, b R) int, 0, len(defs))
	for _, d := range defs {
		c, err := p.compiler.Comparator(d.SortBy, d.Descending)
		if err != nil {
			return nil, fmt.Errorf("grid: sort by %s: %w", d.SortBy, err)
		}
		cmps = append(cmps, c)
	}
	return func(a, b R) int {
		for _, c := range cmps {
			if r := c(a, b); r != 0 {
				return r
			}
		}
		return 0
	}, nil
}

// pageBounds returns the slice bounds of a zero-based page over n items.
// A non-positive size selects everything; pages past the end are empty.
func pageBounds(page, size, n int) (int, int) {
	if size <= 0 {
		return 0, n
	}
	if page < 0 || n == 0 || page > (n-1)/size {
		return n, n
	}
	lo := page * size
	return lo, min(lo+size, n)
}
