package filter

import (
	"errors"
	"fmt"
	"math/big"
	"slices"

	"github.com/google/uuid"
)

// FieldTyper resolves the runtime type of a field by name.
type FieldTyper interface {
	TypeOf(field string) (FieldType, bool)
}

// CategoryOf classifies a field through types. Unknown fields are
// CategoryUnsupported.
func CategoryOf(types FieldTyper, field string) Category {
	if types == nil || field == "" {
		return CategoryUnsupported
	}
	ft, ok := types.TypeOf(field)
	if !ok {
		return CategoryUnsupported
	}
	return Classify(ft)
}

// SetField selects the field tested by a leaf. When the leaf had no field
// before, or the new field's category differs from the old one, the
// operator and value are reset.
func (r *Rule) SetField(field string, types FieldTyper) {
	r.mustLive()
	if r.Field == "" || CategoryOf(types, r.Field) != CategoryOf(types, field) {
		r.Operator = ""
		r.Value = nil
	}
	r.Field = field
}

// SetOperator selects the operator. Leaving a set-membership operator
// clears the accumulated multi-value literal.
func (r *Rule) SetOperator(op Operator) {
	r.mustLive()
	if op != r.Operator && IsSetOperator(r.Operator) && !IsSetOperator(op) {
		r.Value = nil
	}
	r.Operator = op
}

// SetValue stores the literal of a leaf.
func (r *Rule) SetValue(v any) {
	r.mustLive()
	r.Value = v
}

// SetCondition sets the combinator of a group.
func (r *Rule) SetCondition(c Condition) {
	r.mustLive()
	r.Condition = c
}

// SetDisabled excludes r and its subtree from compilation.
func (r *Rule) SetDisabled(disabled bool) {
	r.mustLive()
	r.Disabled = disabled
}

// AddChild turns r into a group header and appends a new leaf to it.
//
// When r has no children yet its condition is derived from the inherited
// combinator: the inverse of the parent's condition, so nested groups
// alternate AND/OR. A root keeps a condition it already has and otherwise
// starts with AND. The new leaf copies r's field, operator and value, and
// those are then cleared on r together with Disabled.
func (r *Rule) AddChild() *Rule {
	r.mustLive()
	if len(r.children) == 0 {
		r.Condition = r.inheritedCondition()
	}
	child := &Rule{
		ID:       uuid.New(),
		Field:    r.Field,
		Operator: r.Operator,
		Value:    cloneValue(r.Value),
		parent:   r,
	}
	r.children = append(r.children, child)
	r.Field = ""
	r.Operator = ""
	r.Value = nil
	r.Disabled = false
	return child
}

func (r *Rule) inheritedCondition() Condition {
	if r.parent == nil {
		if r.Condition.Valid() {
			return r.Condition
		}
		return And
	}
	return r.parent.Condition.Invert()
}

// RemoveChild detaches child from r. The removed subtree must not be used
// afterwards; editing it panics with ErrRuleRemoved. A group left without
// children loses its condition.
func (r *Rule) RemoveChild(child *Rule) error {
	r.mustLive()
	i := slices.Index(r.children, child)
	if i < 0 {
		return ErrNotChild
	}
	r.children = slices.Delete(r.children, i, i+1)
	if len(r.children) == 0 {
		r.children = nil
		r.Condition = ""
	}
	child.parent = nil
	child.Walk(func(n *Rule) bool {
		n.removed = true
		return true
	})
	return nil
}

// DeepClone copies r and its subtree. With keepIDs the copies carry the
// original ids, otherwise each node gets a fresh one. The clone is a root;
// no child list or multi-value literal is shared with the source.
func (r *Rule) DeepClone(keepIDs bool) *Rule {
	c := &Rule{
		ID:        r.ID,
		Label:     r.Label,
		Field:     r.Field,
		Operator:  r.Operator,
		Value:     cloneValue(r.Value),
		Condition: r.Condition,
		Disabled:  r.Disabled,
	}
	if !keepIDs {
		c.ID = uuid.New()
	}
	if len(r.children) > 0 {
		c.children = make([]*Rule, 0, len(r.children))
		for _, ch := range r.children {
			cc := ch.DeepClone(keepIDs)
			cc.parent = c
			c.children = append(c.children, cc)
		}
	}
	return c
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case []string:
		return slices.Clone(x)
	case []any:
		return slices.Clone(x)
	case Value:
		if x.kind == KindSequence {
			return SequenceValue(x.items...)
		}
		return x
	case *big.Int:
		if x == nil {
			return nil
		}
		return new(big.Int).Set(x)
	}
	return v
}

// Validate checks the structural invariants of r's subtree: groups carry a
// valid condition, parent links match, and every leaf operator belongs to
// its field's operator set. types may be nil to skip the operator check.
func (r *Rule) Validate(types FieldTyper) error {
	var errs []error
	r.Walk(func(n *Rule) bool {
		for _, c := range n.children {
			if c.parent != n {
				errs = append(errs, fmt.Errorf("filter: rule %s has a stale parent link", c.ID))
			}
		}
		if len(n.children) > 0 {
			if !n.Condition.Valid() {
				errs = append(errs, &MalformedTreeError{RuleID: n.ID.String(), Condition: n.Condition, Children: len(n.children)})
			}
			return true
		}
		if n.Operator == "" || types == nil {
			return true
		}
		ft, ok := types.TypeOf(n.Field)
		if !ok {
			errs = append(errs, &UnsupportedTypeError{Field: n.Field, Unknown: true})
			return true
		}
		cat := Classify(ft)
		if cat == CategoryUnsupported {
			errs = append(errs, &UnsupportedTypeError{Field: n.Field, Type: ft})
			return true
		}
		if !Admits(cat, n.Operator) {
			errs = append(errs, &OperatorError{Field: n.Field, Operator: n.Operator, Category: cat})
		}
		return true
	})
	return errors.Join(errs...)
}
