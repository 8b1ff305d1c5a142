package filter

import "slices"

// Operator is a filter operator token as it appears on the wire.
type Operator string

// String operators.
const (
	OpContains    Operator = "contains"
	OpNotContains Operator = "not contains"
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not equals"
	OpStartsWith  Operator = "starts with"
	OpEndsWith    Operator = "ends with"
)

// Number operators.
const (
	OpEQ Operator = "="
	OpNE Operator = "!="
	OpGT Operator = ">"
	OpGE Operator = ">="
	OpLT Operator = "<"
	OpLE Operator = "<="
)

// Operators shared by several categories.
const (
	OpIs         Operator = "is"
	OpIsNot      Operator = "is not"
	OpIsEmpty    Operator = "is empty"
	OpIsNotEmpty Operator = "is not empty"
	OpIsOneOf    Operator = "is one of"
	OpIsNotOneOf Operator = "is not one of"
)

// DateTime operators.
const (
	OpIsAfter      Operator = "is after"
	OpIsOnOrAfter  Operator = "is on or after"
	OpIsBefore     Operator = "is before"
	OpIsOnOrBefore Operator = "is on or before"
)

var operatorsByCategory = map[Category][]Operator{
	CategoryString: {
		OpContains, OpNotContains, OpEquals, OpNotEquals, OpStartsWith, OpEndsWith,
		OpIsEmpty, OpIsNotEmpty, OpIsOneOf, OpIsNotOneOf,
	},
	CategoryNumber: {
		OpEQ, OpNE, OpGT, OpGE, OpLT, OpLE, OpIsEmpty, OpIsNotEmpty,
	},
	CategoryEnum: {
		OpIs, OpIsNot, OpIsOneOf, OpIsNotOneOf,
	},
	CategoryBoolean: {
		OpIs,
	},
	CategoryDateTime: {
		OpIs, OpIsNot, OpIsAfter, OpIsOnOrAfter, OpIsBefore, OpIsOnOrBefore,
		OpIsEmpty, OpIsNotEmpty,
	},
}

// OperatorsFor returns the ordered operator set of a category.
// The returned slice is a copy; CategoryUnsupported yields an empty slice.
func OperatorsFor(c Category) []Operator {
	ops, ok := operatorsByCategory[c]
	if !ok {
		return []Operator{}
	}
	return slices.Clone(ops)
}

// Admits reports whether op belongs to the operator set of c.
func Admits(c Category, op Operator) bool {
	return slices.Contains(operatorsByCategory[c], op)
}

// IsSetOperator reports whether op tests membership in a multi-value literal.
func IsSetOperator(op Operator) bool {
	return op == OpIsOneOf || op == OpIsNotOneOf
}

// IsEmptinessOperator reports whether op tests for a null or blank field.
func IsEmptinessOperator(op Operator) bool {
	return op == OpIsEmpty || op == OpIsNotEmpty
}

// RequiresValue reports whether op compares against a literal.
func RequiresValue(op Operator) bool {
	return op != "" && !IsEmptinessOperator(op)
}
