package filter

import (
	"strconv"
	"strings"
	"time"
)

// DuckDBEncoder renders rule trees as DuckDB WHERE clause bodies.
//
// A leaf that cannot be rendered (unknown field, unsupported type, operator
// outside the field's set, literal that fails coercion) behaves like the
// always-true test the compiler would produce:
//   - For AND: the leaf is skipped, the other children are kept
//   - For OR: the whole OR is skipped
//   - An empty string is returned if nothing can be rendered
//
// This yields the widest filter consistent with in-memory compilation, so
// applying the compiled predicate on top of the query result stays exact.
type DuckDBEncoder struct {
	types   FieldTyper
	opts    *EncoderOptions
	coercer *Coercer
}

var _ Encoder = (*DuckDBEncoder)(nil)

// NewDuckDBEncoder creates a DuckDB SQL encoder resolving field types via
// types. If opts is nil, default options are used.
func NewDuckDBEncoder(types FieldTyper, opts *EncoderOptions) *DuckDBEncoder {
	if opts == nil {
		opts = &EncoderOptions{}
	}
	return &DuckDBEncoder{
		types:   types,
		opts:    opts,
		coercer: &Coercer{Location: opts.Location},
	}
}

// Encode converts the tree rooted at r into a WHERE clause body, without
// the "WHERE" keyword. Returns an empty string if nothing can be encoded.
func (e *DuckDBEncoder) Encode(r *Rule) string {
	if r == nil || r.Disabled {
		return ""
	}
	if len(r.children) == 0 {
		return e.encodeLeaf(r)
	}
	return e.encodeGroup(r)
}

func (e *DuckDBEncoder) encodeGroup(r *Rule) string {
	cond := r.Condition
	if !cond.Valid() {
		if cond != "" || len(r.children) > 1 {
			return ""
		}
		cond = And
	}

	var parts []string
	for _, child := range r.children {
		if child.Disabled {
			continue
		}
		encoded := e.Encode(child)
		if encoded == "" {
			// An unencodable child matches everything: OR becomes true.
			if cond == Or {
				return ""
			}
			continue
		}
		parts = append(parts, encoded)
	}

	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}

	op := " AND "
	if cond == Or {
		op = " OR "
	}
	return "(" + strings.Join(parts, op) + ")"
}

func (e *DuckDBEncoder) encodeLeaf(r *Rule) string {
	if r.Field == "" || r.Operator == "" || e.types == nil {
		return ""
	}
	ft, ok := e.types.TypeOf(r.Field)
	if !ok {
		return ""
	}
	cat := Classify(ft)
	if !Admits(cat, r.Operator) {
		return ""
	}

	col := e.Column(r.Field)
	if cat == CategoryString && ft.ID.Normalize() != TypeIDVarchar {
		col = "CAST(" + col + " AS VARCHAR)"
	}

	switch {
	case IsEmptinessOperator(r.Operator):
		return e.encodeEmptiness(col, cat, r.Operator == OpIsEmpty)
	case IsSetOperator(r.Operator):
		return e.encodeSet(col, ft, r)
	}

	lit, err := e.coercer.Coerce(r.Value, ft)
	if err != nil || lit == nil {
		return ""
	}

	switch cat {
	case CategoryString:
		return encodeString(col, r.Operator, lit.(string))
	case CategoryNumber:
		return encodeNumber(col, r.Operator, lit.(float64))
	case CategoryEnum:
		return encodeEnum(col, r.Operator, enumLiteral(ft, lit.(int64)))
	case CategoryBoolean:
		return "coalesce(" + col + " = " + formatBool(lit.(bool)) + ", FALSE)"
	case CategoryDateTime:
		t := lit.(time.Time)
		if t.Nanosecond()%1000 != 0 {
			// Not representable at DuckDB's microsecond resolution.
			return ""
		}
		return encodeTime(col, r.Operator, formatTimestamp(t))
	}
	return ""
}

// Column resolves the SQL expression for a field: a configured expression,
// then a mapped column name, then the field name itself.
func (e *DuckDBEncoder) Column(field string) string {
	if expr, ok := e.opts.ColumnExpressions[field]; ok {
		return expr
	}
	if mapped, ok := e.opts.ColumnMapping[field]; ok {
		field = mapped
	}
	return QuoteIdentifier(field)
}

func (e *DuckDBEncoder) encodeEmptiness(col string, cat Category, empty bool) string {
	if cat == CategoryString {
		if empty {
			return "(" + col + " IS NULL OR trim(" + col + ") = '')"
		}
		return "(" + col + " IS NOT NULL AND trim(" + col + ") <> '')"
	}
	if empty {
		return col + " IS NULL"
	}
	return col + " IS NOT NULL"
}

func (e *DuckDBEncoder) encodeSet(col string, ft FieldType, r *Rule) string {
	set, err := e.coercer.CoerceSet(r.Value, ft)
	if err != nil || len(set) == 0 {
		return ""
	}
	values := make([]string, 0, len(set))
	for _, v := range set {
		switch x := v.(type) {
		case int64:
			values = append(values, enumLiteral(ft, x))
		case string:
			values = append(values, quoteLiteral(x))
		}
	}
	in := "coalesce(" + col + " IN (" + strings.Join(values, ", ") + "), FALSE)"
	if r.Operator == OpIsNotOneOf {
		return "NOT " + in
	}
	return in
}

func encodeString(col string, op Operator, lit string) string {
	q := quoteLiteral(lit)
	switch op {
	case OpContains:
		return "(" + col + " IS NOT NULL AND contains(" + col + ", " + q + "))"
	case OpNotContains:
		return "(" + col + " IS NOT NULL AND NOT contains(" + col + ", " + q + "))"
	case OpEquals:
		return col + " IS NOT DISTINCT FROM " + q
	case OpNotEquals:
		return "(" + col + " IS NOT NULL AND " + col + " <> " + q + ")"
	case OpStartsWith:
		return "(" + col + " IS NOT NULL AND starts_with(" + col + ", " + q + "))"
	case OpEndsWith:
		return "(" + col + " IS NOT NULL AND ends_with(" + col + ", " + q + "))"
	}
	return ""
}

func encodeNumber(col string, op Operator, lit float64) string {
	n := formatFloat(lit)
	switch op {
	case OpEQ:
		return col + " = " + n
	case OpNE:
		return col + " IS DISTINCT FROM " + n
	case OpGT:
		return col + " > " + n
	case OpGE:
		return col + " >= " + n
	case OpLT:
		return col + " < " + n
	case OpLE:
		return col + " <= " + n
	}
	return ""
}

func encodeEnum(col string, op Operator, lit string) string {
	switch op {
	case OpIs:
		return col + " = " + lit
	case OpIsNot:
		return col + " IS DISTINCT FROM " + lit
	}
	return ""
}

func encodeTime(col string, op Operator, lit string) string {
	switch op {
	case OpIs:
		return col + " = " + lit
	case OpIsNot:
		return col + " IS DISTINCT FROM " + lit
	case OpIsAfter:
		return col + " > " + lit
	case OpIsOnOrAfter:
		return col + " >= " + lit
	case OpIsBefore:
		return col + " < " + lit
	case OpIsOnOrBefore:
		return col + " <= " + lit
	}
	return ""
}

// enumLiteral renders an ordinal as the member name DuckDB ENUM columns
// compare against, or as a bare integer when the member is unknown.
func enumLiteral(ft FieldType, ord int64) string {
	if name, ok := ft.Enum.Name(ord); ok {
		return quoteLiteral(name)
	}
	return strconv.FormatInt(ord, 10)
}

func formatBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, "e") {
		return "CAST('" + s + "' AS DOUBLE)"
	}
	return s
}

// formatTimestamp renders t as a UTC TIMESTAMP literal. t must not carry
// sub-microsecond digits.
func formatTimestamp(t time.Time) string {
	return "TIMESTAMP '" + t.UTC().Format("2006-01-02 15:04:05.999999") + "'"
}
