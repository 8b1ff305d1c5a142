package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/builtin"
	"github.com/expr-lang/expr/vm"
)

// ExprEncoder renders rule trees as expr-lang boolean expressions over an
// environment of field values (map[string]any). Date/time fields must hold
// time.Time values in that environment; enum fields may hold either member
// names or ordinals.
//
// Unrenderable leaves follow the same widening rules as DuckDBEncoder.
type ExprEncoder struct {
	types   FieldTyper
	coercer *Coercer
}

var _ Encoder = (*ExprEncoder)(nil)

// NewExprEncoder creates an expr-lang encoder resolving field types via types.
func NewExprEncoder(types FieldTyper, opts *EncoderOptions) *ExprEncoder {
	if opts == nil {
		opts = &EncoderOptions{}
	}
	return &ExprEncoder{types: types, coercer: &Coercer{Location: opts.Location}}
}

// Encode renders the tree rooted at r. Returns an empty string if nothing
// can be rendered.
func (e *ExprEncoder) Encode(r *Rule) string {
	if r == nil || r.Disabled {
		return ""
	}
	if len(r.children) == 0 {
		return e.encodeLeaf(r)
	}

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
		s := e.Encode(child)
		if s == "" {
			if cond == Or {
				return ""
			}
			continue
		}
		parts = append(parts, s)
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	op := " && "
	if cond == Or {
		op = " || "
	}
	return "(" + strings.Join(parts, op) + ")"
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// exprKeywords are words the expr-lang lexer reserves.
var exprKeywords = map[string]bool{
	"in": true, "not": true, "and": true, "or": true,
	"matches": true, "contains": true, "startsWith": true, "endsWith": true,
	"let": true, "if": true, "else": true,
	"nil": true, "true": true, "false": true,
}

// exprField addresses a field as a bare identifier when it can, and through
// $env otherwise. Keywords and builtin function names always go through $env.
func exprField(name string) string {
	if identRe.MatchString(name) && !exprKeywords[name] {
		if _, isBuiltin := builtin.Index[name]; !isBuiltin {
			return name
		}
	}
	return "$env[" + strconv.Quote(name) + "]"
}

func (e *ExprEncoder) encodeLeaf(r *Rule) string {
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
	f := exprField(r.Field)

	switch r.Operator {
	case OpIsEmpty:
		if cat == CategoryString {
			return "(" + f + " == nil || trim(string(" + f + ")) == \"\")"
		}
		return f + " == nil"
	case OpIsNotEmpty:
		if cat == CategoryString {
			return "(" + f + " != nil && trim(string(" + f + ")) != \"\")"
		}
		return f + " != nil"
	case OpIsOneOf, OpIsNotOneOf:
		set, err := e.coercer.CoerceSet(r.Value, ft)
		if err != nil || len(set) == 0 {
			return ""
		}
		items := make([]string, 0, len(set)*2)
		for _, v := range set {
			switch x := v.(type) {
			case int64:
				items = append(items, strconv.FormatInt(x, 10))
				if name, ok := ft.Enum.Name(x); ok {
					items = append(items, strconv.Quote(name))
				}
			case string:
				items = append(items, strconv.Quote(x))
			}
		}
		list := "[" + strings.Join(items, ", ") + "]"
		if r.Operator == OpIsNotOneOf {
			return f + " not in " + list
		}
		return f + " in " + list
	}

	lit, err := e.coercer.Coerce(r.Value, ft)
	if err != nil || lit == nil {
		return ""
	}

	switch cat {
	case CategoryString:
		q := strconv.Quote(lit.(string))
		s := "string(" + f + ")"
		switch r.Operator {
		case OpContains:
			return "(" + f + " != nil && " + s + " contains " + q + ")"
		case OpNotContains:
			return "(" + f + " != nil && not (" + s + " contains " + q + "))"
		case OpEquals:
			return "(" + f + " != nil && " + s + " == " + q + ")"
		case OpNotEquals:
			return "(" + f + " != nil && " + s + " != " + q + ")"
		case OpStartsWith:
			return "(" + f + " != nil && " + s + " startsWith " + q + ")"
		case OpEndsWith:
			return "(" + f + " != nil && " + s + " endsWith " + q + ")"
		}
	case CategoryNumber:
		n := strconv.FormatFloat(lit.(float64), 'f', -1, 64)
		if r.Operator == OpNE {
			return "(" + f + " == nil || " + f + " != " + n + ")"
		}
		op := string(r.Operator)
		if r.Operator == OpEQ {
			op = "=="
		}
		return "(" + f + " != nil && " + f + " " + op + " " + n + ")"
	case CategoryBoolean:
		return f + " == " + strconv.FormatBool(lit.(bool))
	case CategoryEnum:
		ord := lit.(int64)
		match := f + " == " + strconv.FormatInt(ord, 10)
		if name, ok := ft.Enum.Name(ord); ok {
			match = "(" + match + " || " + f + " == " + strconv.Quote(name) + ")"
		}
		if r.Operator == OpIsNot {
			return "not (" + match + ")"
		}
		return match
	case CategoryDateTime:
		t := "date(" + strconv.Quote(lit.(time.Time).Format(time.RFC3339Nano)) + ")"
		var cmp string
		switch r.Operator {
		case OpIs:
			cmp = "=="
		case OpIsNot:
			return "(" + f + " == nil || " + f + " != " + t + ")"
		case OpIsAfter:
			cmp = ">"
		case OpIsOnOrAfter:
			cmp = ">="
		case OpIsBefore:
			cmp = "<"
		case OpIsOnOrBefore:
			cmp = "<="
		}
		return "(" + f + " != nil && " + f + " " + cmp + " " + t + ")"
	}
	return ""
}

// CompileExpr renders r with an ExprEncoder and compiles it into an
// expr-lang program returning bool. A tree with nothing to render compiles
// to a program that always returns true.
func CompileExpr(r *Rule, types FieldTyper, opts *EncoderOptions) (*vm.Program, error) {
	src := NewExprEncoder(types, opts).Encode(r)
	if src == "" {
		src = "true"
	}
	program, err := expr.Compile(src, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("filter: compile expression %q: %w", src, err)
	}
	return program, nil
}

// ExprPredicate compiles r into a predicate over field maps evaluated by
// the expr-lang virtual machine. Evaluation errors reject the record.
func ExprPredicate(r *Rule, types FieldTyper, opts *EncoderOptions) (Predicate[map[string]any], error) {
	program, err := CompileExpr(r, types, opts)
	if err != nil {
		return nil, err
	}
	return func(env map[string]any) bool {
		out, err := expr.Run(program, env)
		if err != nil {
			return false
		}
		b, _ := out.(bool)
		return b
	}, nil
}
