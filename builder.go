package gridfilter

import (
	"errors"
	"fmt"

	"github.com/hugr-lab/gridfilter/filter"
)

// RuleBuilder builds rule trees using fluent API.
// Not thread-safe - use only from one goroutine.
type RuleBuilder struct {
	root  *filter.Rule
	stack []*filter.Rule
	last  *filter.Rule
	errs  []error
	built bool
}

// NewRuleBuilder creates a new fluent rule builder.
// The root group combines its children with AND until Any is called.
//
// Example:
//
//	root, err := gridfilter.NewRuleBuilder().
//	    Where("active", filter.OpIs, true).
//	    Group(filter.Or).
//	        Where("age", filter.OpLT, 18).
//	        Where("age", filter.OpGT, 65).
//	    End().
//	    Build(schema)
func NewRuleBuilder() *RuleBuilder {
	root := filter.NewRule()
	root.Condition = filter.And
	return &RuleBuilder{
		root:  root,
		stack: []*filter.Rule{root},
	}
}

func (b *RuleBuilder) current() *filter.Rule {
	return b.stack[len(b.stack)-1]
}

// All makes the current group combine its children with AND.
// Returns self for method chaining.
func (b *RuleBuilder) All() *RuleBuilder {
	b.current().Condition = filter.And
	return b
}

// Any makes the current group combine its children with OR.
// Returns self for method chaining.
func (b *RuleBuilder) Any() *RuleBuilder {
	b.current().Condition = filter.Or
	return b
}

// Label sets the label of the current group.
// Returns self for method chaining.
func (b *RuleBuilder) Label(label string) *RuleBuilder {
	b.current().Label = label
	return b
}

// Where adds a leaf to the current group.
// Returns self for method chaining.
// Field MUST be non-empty.
func (b *RuleBuilder) Where(field string, op filter.Operator, value any) *RuleBuilder {
	if field == "" {
		b.errs = append(b.errs, fmt.Errorf("leaf %d of group %s has no field", b.current().Len(), b.current().ID))
	}
	leaf := filter.NewLeaf(field, op, value)
	b.current().Append(leaf)
	b.last = leaf
	return b
}

// Group opens a nested group combining its children with cond.
// Subsequent calls add to the nested group until End.
func (b *RuleBuilder) Group(cond filter.Condition) *RuleBuilder {
	if !cond.Valid() {
		b.errs = append(b.errs, fmt.Errorf("invalid group condition %q", cond))
	}
	g := filter.NewRule()
	g.Condition = cond
	b.current().Append(g)
	b.stack = append(b.stack, g)
	b.last = g
	return b
}

// End closes the innermost open group.
func (b *RuleBuilder) End() *RuleBuilder {
	if len(b.stack) == 1 {
		b.errs = append(b.errs, errors.New("End called without an open group"))
		return b
	}
	b.last = b.current()
	b.stack = b.stack[:len(b.stack)-1]
	return b
}

// Disabled excludes the most recently added leaf or group from
// compilation while keeping it in the tree.
func (b *RuleBuilder) Disabled() *RuleBuilder {
	if b.last == nil {
		b.errs = append(b.errs, errors.New("Disabled called before any rule was added"))
		return b
	}
	b.last.Disabled = true
	return b
}

// Build finalizes the tree and returns its root.
// Can only be called once. Returns error if groups are left open, a leaf
// has no field, or (when types is not nil) a leaf's operator does not fit
// its field.
func (b *RuleBuilder) Build(types filter.FieldTyper) (*filter.Rule, error) {
	if b.built {
		return nil, fmt.Errorf("rule tree already built")
	}
	errs := b.errs
	if open := len(b.stack) - 1; open > 0 {
		errs = append(errs, fmt.Errorf("%d group(s) left open", open))
	}
	if err := b.root.Validate(types); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid rule tree: %w", errors.Join(errs...))
	}

	b.built = true
	return b.root, nil
}
