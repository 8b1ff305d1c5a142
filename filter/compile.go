package filter

import (
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Predicate tests one record. Compiled predicates are pure and safe for
// concurrent use.
type Predicate[R any] func(R) bool

// FieldAccessor reads typed fields from records of type R.
type FieldAccessor[R any] interface {
	FieldTyper
	// ValueOf returns the current value of field in rec; nil means null.
	ValueOf(rec R, field string) any
}

// Always returns a predicate that accepts every record.
func Always[R any]() Predicate[R] {
	return func(R) bool { return true }
}

// AllOf folds predicates with logical AND. Nil predicates are skipped.
func AllOf[R any](preds ...Predicate[R]) Predicate[R] {
	preds = slices.DeleteFunc(slices.Clone(preds), func(p Predicate[R]) bool { return p == nil })
	if len(preds) == 1 {
		return preds[0]
	}
	return func(rec R) bool {
		for _, p := range preds {
			if !p(rec) {
				return false
			}
		}
		return true
	}
}

// AnyOf folds predicates with logical OR. Nil predicates are skipped.
func AnyOf[R any](preds ...Predicate[R]) Predicate[R] {
	preds = slices.DeleteFunc(slices.Clone(preds), func(p Predicate[R]) bool { return p == nil })
	if len(preds) == 1 {
		return preds[0]
	}
	return func(rec R) bool {
		for _, p := range preds {
			if p(rec) {
				return true
			}
		}
		return false
	}
}

// CompilerOptions configures compilation.
type CompilerOptions struct {
	// Strict turns coercion failures and operators outside the field's
	// operator set into compile errors instead of always-true tests.
	Strict bool

	// Location is used for date/time literals without a zone offset.
	// Defaults to UTC.
	Location *time.Location

	// Logger receives diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Diagnostic records a leaf that compiled to an always-true test because
// its literal or operator could not be used.
type Diagnostic struct {
	RuleID   uuid.UUID
	Field    string
	Operator Operator
	Err      error
}

// Diagnostics collects non-fatal compile problems.
type Diagnostics []Diagnostic

// Err joins all diagnostic errors, or returns nil.
func (d Diagnostics) Err() error {
	errs := make([]error, 0, len(d))
	for _, x := range d {
		errs = append(errs, x.Err)
	}
	return errors.Join(errs...)
}

// Compiler turns rule trees into predicates over records of type R.
// A Compiler is immutable and may be shared between goroutines.
type Compiler[R any] struct {
	acc     FieldAccessor[R]
	strict  bool
	coercer *Coercer
	logger  *slog.Logger
}

// NewCompiler creates a compiler reading fields through acc.
// If opts is nil, default options are used.
func NewCompiler[R any](acc FieldAccessor[R], opts *CompilerOptions) *Compiler[R] {
	if opts == nil {
		opts = &CompilerOptions{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Compiler[R]{
		acc:     acc,
		strict:  opts.Strict,
		coercer: &Coercer{Location: opts.Location},
		logger:  logger,
	}
}

// Compile folds the tree rooted at root into one predicate.
//
// Disabled subtrees, unconfigured leaves and groups without contributing
// children add nothing; when nothing contributes at all Compile returns a
// nil predicate, meaning "no filter configured". A group with more than one
// child and no valid condition aborts with *MalformedTreeError. An unknown
// or unsupported field aborts with *UnsupportedTypeError.
func (c *Compiler[R]) Compile(root *Rule) (Predicate[R], Diagnostics, error) {
	if root == nil {
		return nil, nil, nil
	}
	var diags Diagnostics
	p, err := c.compileNode(root, &diags)
	if err != nil {
		c.logger.Error("filter compilation failed", "rule_id", root.ID.String(), "error", err)
		return nil, diags, err
	}
	return p, diags, nil
}

// CompileLeaf compiles a single leaf, ignoring its children and Disabled.
// An unconfigured leaf (no field or no operator) yields a nil predicate.
func (c *Compiler[R]) CompileLeaf(r *Rule) (Predicate[R], Diagnostics, error) {
	var diags Diagnostics
	p, err := c.compileLeaf(r, &diags)
	return p, diags, err
}

func (c *Compiler[R]) compileNode(n *Rule, diags *Diagnostics) (Predicate[R], error) {
	if n.Disabled {
		return nil, nil
	}
	if len(n.children) == 0 {
		return c.compileLeaf(n, diags)
	}

	cond := n.Condition
	if !cond.Valid() && (cond != "" || len(n.children) > 1) {
		return nil, &MalformedTreeError{RuleID: n.ID.String(), Condition: cond, Children: len(n.children)}
	}

	preds := make([]Predicate[R], 0, len(n.children))
	for _, child := range n.children {
		p, err := c.compileNode(child, diags)
		if err != nil {
			return nil, err
		}
		if p != nil {
			preds = append(preds, p)
		}
	}

	switch len(preds) {
	case 0:
		return nil, nil
	case 1:
		return preds[0], nil
	}
	if cond == Or {
		return AnyOf(preds...), nil
	}
	return AllOf(preds...), nil
}

func (c *Compiler[R]) compileLeaf(r *Rule, diags *Diagnostics) (Predicate[R], error) {
	if r.Field == "" || r.Operator == "" {
		return nil, nil
	}
	ft, ok := c.acc.TypeOf(r.Field)
	if !ok {
		return nil, &UnsupportedTypeError{Field: r.Field, Unknown: true}
	}
	cat := Classify(ft)
	if cat == CategoryUnsupported {
		return nil, &UnsupportedTypeError{Field: r.Field, Type: ft}
	}
	op := r.Operator
	if !Admits(cat, op) {
		err := &OperatorError{Field: r.Field, Operator: op, Category: cat}
		if c.strict {
			return nil, err
		}
		c.logger.Debug("unknown operator, leaf accepts all records",
			"rule_id", r.ID.String(), "field", r.Field, "operator", string(op), "category", cat.String())
		*diags = append(*diags, Diagnostic{RuleID: r.ID, Field: r.Field, Operator: op, Err: err})
		return Always[R](), nil
	}

	acc, field := c.acc, r.Field
	get := func(rec R) any { return acc.ValueOf(rec, field) }

	if IsEmptinessOperator(op) {
		return emptinessTest(cat, op == OpIsEmpty, get), nil
	}

	if IsSetOperator(op) {
		set, err := c.coercer.CoerceSet(r.Value, ft)
		if err != nil {
			return c.degrade(r, err, diags)
		}
		if len(set) == 0 {
			return Always[R](), nil
		}
		return c.setTest(cat, ft, op == OpIsNotOneOf, set, get), nil
	}

	lit, err := c.coercer.Coerce(r.Value, ft)
	if err != nil {
		return c.degrade(r, err, diags)
	}
	if lit == nil {
		return Always[R](), nil
	}

	switch cat {
	case CategoryString:
		return stringTest(op, lit.(string), get), nil
	case CategoryNumber:
		return numberTest(op, lit.(float64), get), nil
	case CategoryEnum:
		return enumTest(op, lit.(int64), ft.Enum, get), nil
	case CategoryBoolean:
		return boolTest(lit.(bool), get), nil
	case CategoryDateTime:
		return c.timeTest(op, lit.(time.Time), get), nil
	}
	return Always[R](), nil
}

// degrade records a coercion failure and falls back to an always-true
// test, or fails in strict mode.
func (c *Compiler[R]) degrade(r *Rule, err error, diags *Diagnostics) (Predicate[R], error) {
	if c.strict {
		return nil, err
	}
	c.logger.Warn("filter literal rejected, leaf accepts all records",
		"rule_id", r.ID.String(), "field", r.Field, "operator", string(r.Operator), "error", err)
	*diags = append(*diags, Diagnostic{RuleID: r.ID, Field: r.Field, Operator: r.Operator, Err: err})
	return Always[R](), nil
}

func emptinessTest[R any](cat Category, empty bool, get func(R) any) Predicate[R] {
	if cat == CategoryString {
		return func(rec R) bool {
			s, ok := fieldText(get(rec))
			blank := !ok || strings.TrimSpace(s) == ""
			return blank == empty
		}
	}
	return func(rec R) bool {
		return (scalar(get(rec)) == nil) == empty
	}
}

func stringTest[R any](op Operator, lit string, get func(R) any) Predicate[R] {
	var test func(s string) bool
	switch op {
	case OpContains:
		test = func(s string) bool { return strings.Contains(s, lit) }
	case OpNotContains:
		test = func(s string) bool { return !strings.Contains(s, lit) }
	case OpEquals:
		test = func(s string) bool { return s == lit }
	case OpNotEquals:
		test = func(s string) bool { return s != lit }
	case OpStartsWith:
		test = func(s string) bool { return strings.HasPrefix(s, lit) }
	case OpEndsWith:
		test = func(s string) bool { return strings.HasSuffix(s, lit) }
	default:
		return Always[R]()
	}
	// A null field fails every text test, including the negated ones.
	return func(rec R) bool {
		s, ok := fieldText(get(rec))
		return ok && test(s)
	}
}

func numberTest[R any](op Operator, lit float64, get func(R) any) Predicate[R] {
	if op == OpNE {
		return func(rec R) bool {
			f, ok := fieldFloat(get(rec))
			return !ok || f != lit
		}
	}
	var test func(f float64) bool
	switch op {
	case OpEQ:
		test = func(f float64) bool { return f == lit }
	case OpGT:
		test = func(f float64) bool { return f > lit }
	case OpGE:
		test = func(f float64) bool { return f >= lit }
	case OpLT:
		test = func(f float64) bool { return f < lit }
	case OpLE:
		test = func(f float64) bool { return f <= lit }
	default:
		return Always[R]()
	}
	return func(rec R) bool {
		f, ok := fieldFloat(get(rec))
		return ok && test(f)
	}
}

func enumTest[R any](op Operator, lit int64, info *EnumInfo, get func(R) any) Predicate[R] {
	switch op {
	case OpIs:
		return func(rec R) bool {
			ord, ok := fieldOrdinal(get(rec), info)
			return ok && ord == lit
		}
	case OpIsNot:
		return func(rec R) bool {
			ord, ok := fieldOrdinal(get(rec), info)
			return !ok || ord != lit
		}
	}
	return Always[R]()
}

// boolTest rejects records whose field is null or not a boolean.
func boolTest[R any](lit bool, get func(R) any) Predicate[R] {
	return func(rec R) bool {
		v := scalar(get(rec))
		if v == nil {
			return false
		}
		b, err := toBool(v)
		return err == nil && b == lit
	}
}

func (c *Compiler[R]) timeTest(op Operator, lit time.Time, get func(R) any) Predicate[R] {
	loc := c.coercer.location()
	field := func(rec R) (time.Time, bool) {
		v := scalar(get(rec))
		if v == nil {
			return time.Time{}, false
		}
		t, err := toTime(v, loc)
		return t, err == nil
	}
	if op == OpIsNot {
		return func(rec R) bool {
			t, ok := field(rec)
			return !ok || !t.Equal(lit)
		}
	}
	var test func(t time.Time) bool
	switch op {
	case OpIs:
		test = func(t time.Time) bool { return t.Equal(lit) }
	case OpIsAfter:
		test = func(t time.Time) bool { return t.After(lit) }
	case OpIsOnOrAfter:
		test = func(t time.Time) bool { return !t.Before(lit) }
	case OpIsBefore:
		test = func(t time.Time) bool { return t.Before(lit) }
	case OpIsOnOrBefore:
		test = func(t time.Time) bool { return !t.After(lit) }
	default:
		return Always[R]()
	}
	return func(rec R) bool {
		t, ok := field(rec)
		return ok && test(t)
	}
}

func (c *Compiler[R]) setTest(cat Category, ft FieldType, negate bool, set []any, get func(R) any) Predicate[R] {
	key := func(v any) (any, bool) {
		s, ok := fieldText(v)
		return s, ok
	}
	if cat == CategoryEnum {
		key = func(v any) (any, bool) {
			ord, ok := fieldOrdinal(v, ft.Enum)
			return ord, ok
		}
	}
	return func(rec R) bool {
		k, ok := key(get(rec))
		in := ok && slices.Contains(set, k)
		return in != negate
	}
}

func fieldText(v any) (string, bool) {
	s := scalar(v)
	if s == nil {
		return "", false
	}
	t, err := toText(s)
	return t, err == nil
}

func fieldFloat(v any) (float64, bool) {
	s := scalar(v)
	if s == nil {
		return 0, false
	}
	f, err := toFloat(s)
	return f, err == nil
}

func fieldOrdinal(v any, info *EnumInfo) (int64, bool) {
	s := scalar(v)
	if s == nil {
		return 0, false
	}
	ord, err := toOrdinal(s, info)
	return ord, err == nil
}
