package filter

import (
	"errors"
	"fmt"
)

// Sentinel errors for tree editing.
var (
	// ErrNotChild is returned by RemoveChild when the node is not a direct child.
	ErrNotChild = errors.New("filter: rule is not a child of this node")

	// ErrRuleRemoved is the panic value for operations on a removed rule.
	ErrRuleRemoved = errors.New("filter: rule was removed from its tree")

	// ErrCycle is the panic value for appending a rule below itself.
	ErrCycle = errors.New("filter: rule cannot be appended to its own subtree")

	// ErrUnknownEnumMember indicates an enum literal that names no member.
	ErrUnknownEnumMember = errors.New("unknown enum member")
)

// UnsupportedTypeError is returned when a leaf's field has no operator set,
// or when the field is unknown to the accessor.
type UnsupportedTypeError struct {
	Field string
	Type  FieldType
	// Unknown is set when the accessor does not know the field at all.
	Unknown bool
}

func (e *UnsupportedTypeError) Error() string {
	if e.Unknown {
		return fmt.Sprintf("filter: unknown field %q", e.Field)
	}
	return fmt.Sprintf("filter: field %q has unsupported type %s", e.Field, e.Type)
}

// CoercionError reports a literal that cannot be converted to the field's
// category.
type CoercionError struct {
	Raw      any
	Category Category
	Err      error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("filter: cannot coerce %v (%T) to %s: %v", e.Raw, e.Raw, e.Category, e.Err)
}

func (e *CoercionError) Unwrap() error { return e.Err }

// MalformedTreeError reports a group node whose combinator is missing or
// unknown. It aborts the whole compilation.
type MalformedTreeError struct {
	RuleID    string
	Condition Condition
	Children  int
}

func (e *MalformedTreeError) Error() string {
	if e.Condition == "" {
		return fmt.Sprintf("filter: rule %s has %d children but no condition", e.RuleID, e.Children)
	}
	return fmt.Sprintf("filter: rule %s has unknown condition %q", e.RuleID, e.Condition)
}

// OperatorError reports an operator outside the field's operator set.
// Only strict compilation returns it; lenient compilation falls back to an
// always-true test.
type OperatorError struct {
	Field    string
	Operator Operator
	Category Category
}

func (e *OperatorError) Error() string {
	return fmt.Sprintf("filter: operator %q is not valid for %s field %q", e.Operator, e.Category, e.Field)
}
