package filter

import (
	"slices"

	"github.com/google/uuid"
)

// Condition is the combinator folding a group's children.
type Condition string

const (
	And Condition = "AND"
	Or  Condition = "OR"
)

// Valid reports whether c is AND or OR.
func (c Condition) Valid() bool { return c == And || c == Or }

// Invert returns the opposite combinator. The empty condition inverts to AND.
func (c Condition) Invert() Condition {
	if c == And {
		return Or
	}
	return And
}

// Rule is one node of a filter tree: either a leaf test (field, operator,
// value) or a group header folding its children with Condition.
//
// Empty Field, Operator and Condition mean "not set". A nil Value means no
// literal was supplied. The parent link is navigation only; the parent's
// children slice owns the node.
type Rule struct {
	ID        uuid.UUID
	Label     string
	Field     string
	Operator  Operator
	Value     any
	Condition Condition
	Disabled  bool

	parent   *Rule
	children []*Rule
	removed  bool
}

// NewRule returns a detached rule with a fresh id.
func NewRule() *Rule {
	return &Rule{ID: uuid.New()}
}

// NewLeaf returns a detached, configured leaf.
func NewLeaf(field string, op Operator, value any) *Rule {
	r := NewRule()
	r.Field = field
	r.Operator = op
	r.Value = value
	return r
}

// NewGroup returns a detached group with the given combinator and children.
// Children that already belong to another rule are moved.
func NewGroup(cond Condition, children ...*Rule) *Rule {
	r := NewRule()
	r.Condition = cond
	for _, c := range children {
		r.Append(c)
	}
	return r
}

// Parent returns the owning rule, or nil for a root.
func (r *Rule) Parent() *Rule { return r.parent }

// Children returns a copy of the child list.
func (r *Rule) Children() []*Rule { return slices.Clone(r.children) }

// Len returns the number of children.
func (r *Rule) Len() int { return len(r.children) }

// Child returns the i-th child.
func (r *Rule) Child(i int) *Rule { return r.children[i] }

// HasChildren reports whether r is a group with at least one child.
func (r *Rule) HasChildren() bool { return len(r.children) > 0 }

// IsRoot reports whether r has no parent.
func (r *Rule) IsRoot() bool { return r.parent == nil }

// Removed reports whether r was detached by RemoveChild.
func (r *Rule) Removed() bool { return r.removed }

// Root returns the top of the tree containing r.
func (r *Rule) Root() *Rule {
	n := r
	for n.parent != nil {
		n = n.parent
	}
	return n
}

// Depth returns the number of ancestors of r.
func (r *Rule) Depth() int {
	d := 0
	for n := r.parent; n != nil; n = n.parent {
		d++
	}
	return d
}

// Walk visits r and its subtree depth-first in child order.
// Returning false from fn skips the node's children.
func (r *Rule) Walk(fn func(*Rule) bool) {
	if !fn(r) {
		return
	}
	for _, c := range r.children {
		c.Walk(fn)
	}
}

// Find returns the node with the given id in r's subtree.
func (r *Rule) Find(id uuid.UUID) *Rule {
	var found *Rule
	r.Walk(func(n *Rule) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// State returns the editing state of a leaf.
func (r *Rule) State() RuleState {
	switch {
	case r.Field == "":
		return StateUnconfigured
	case r.Operator == "":
		return StateFieldSelected
	}
	return StateConfigured
}

// RuleState is the configuration progress of a leaf.
type RuleState int

const (
	StateUnconfigured RuleState = iota
	StateFieldSelected
	StateConfigured
)

func (s RuleState) String() string {
	switch s {
	case StateFieldSelected:
		return "field-selected"
	case StateConfigured:
		return "configured"
	}
	return "unconfigured"
}

// Append attaches child as the last child of r, detaching it from any
// previous parent. Appending r or one of its ancestors panics with ErrCycle.
func (r *Rule) Append(child *Rule) {
	r.mustLive()
	child.mustLive()
	for n := r; n != nil; n = n.parent {
		if n == child {
			panic(ErrCycle)
		}
	}
	if child.parent != nil {
		child.parent.children = slices.DeleteFunc(child.parent.children, func(c *Rule) bool { return c == child })
	}
	child.parent = r
	r.children = append(r.children, child)
}

func (r *Rule) mustLive() {
	if r.removed {
		panic(ErrRuleRemoved)
	}
}
