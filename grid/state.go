// Package grid applies a data grid's view state to record collections:
// the filter rule tree, sort definitions and paging. State snapshots travel
// as JSON or as compressed MessagePack.
package grid

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/hugr-lab/gridfilter/filter"
	"github.com/hugr-lab/gridfilter/internal/serialize"
)

var stateValidate = validator.New()

// SortDefinition orders the grid by one field. Definitions apply in
// ascending Index order.
type SortDefinition struct {
	SortBy     string `json:"SortBy" yaml:"SortBy" validate:"required"`
	Descending bool   `json:"Descending" yaml:"Descending"`
	Index      int    `json:"Index" yaml:"Index" validate:"gte=0"`
}

// Column is the display state of one grid column.
type Column struct {
	Index  int    `json:"Index" yaml:"Index" validate:"gte=0"`
	Field  string `json:"Field" yaml:"Field" validate:"required"`
	Hidden bool   `json:"Hidden,omitempty" yaml:"Hidden,omitempty"`
	Width  int    `json:"Width,omitempty" yaml:"Width,omitempty" validate:"gte=0"`
}

// State is the persisted view state of a data grid.
// Page is zero-based. A PageSize of zero shows every row on one page.
type State struct {
	Page            int              `json:"Page" yaml:"Page" validate:"gte=0"`
	PageSize        int              `json:"PageSize" yaml:"PageSize" validate:"gte=0"`
	SortDefinitions []SortDefinition `json:"SortDefinitions" yaml:"SortDefinitions" validate:"dive"`
	RootExpression  *filter.Node     `json:"RootExpression,omitempty" yaml:"RootExpression,omitempty"`
	Columns         []Column         `json:"Columns,omitempty" yaml:"Columns,omitempty" validate:"dive"`
}

// Validate checks paging, sort and column fields.
func (s *State) Validate() error {
	if err := stateValidate.Struct(s); err != nil {
		return fmt.Errorf("grid: invalid state: %w", err)
	}
	return nil
}

// Rule materializes the filter tree. A state without a root expression
// yields a fresh empty root.
func (s *State) Rule() *filter.Rule {
	if s.RootExpression == nil {
		return filter.NewRule()
	}
	return filter.FromNode(s.RootExpression)
}

// SetRule stores the tree rooted at r as the root expression.
func (s *State) SetRule(r *filter.Rule) error {
	if r == nil {
		s.RootExpression = nil
		return nil
	}
	n, err := filter.ToNode(r)
	if err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	s.RootExpression = n
	return nil
}

// SortOrder returns the sort definitions ordered by Index.
func (s *State) SortOrder() []SortDefinition {
	out := slices.Clone(s.SortDefinitions)
	slices.SortStableFunc(out, func(a, b SortDefinition) int { return cmp.Compare(a.Index, b.Index) })
	return out
}

// VisibleFields returns the fields of non-hidden columns ordered by Index.
// Nil means no column state was recorded.
func (s *State) VisibleFields() []string {
	if len(s.Columns) == 0 {
		return nil
	}
	cols := slices.Clone(s.Columns)
	slices.SortStableFunc(cols, func(a, b Column) int { return cmp.Compare(a.Index, b.Index) })
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if !c.Hidden {
			out = append(out, c.Field)
		}
	}
	return out
}

// ParseState decodes and validates a JSON state document.
func ParseState(data []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("grid: invalid JSON: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// MarshalState encodes s as JSON.
func MarshalState(s *State) ([]byte, error) {
	return json.MarshalNoEscape(s)
}

// Snapshot packs s into compressed MessagePack.
func (s *State) Snapshot() ([]byte, error) {
	data, err := serialize.Pack(s)
	if err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}
	return data, nil
}

// Restore unpacks and validates a snapshot produced by Snapshot.
func Restore(data []byte) (*State, error) {
	var s State
	if err := serialize.Unpack(data, &s); err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
