package filter

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Coercer converts untyped literals into the typed representation a field
// category compares against:
//
//	String   -> string
//	Number   -> float64
//	Boolean  -> bool
//	DateTime -> time.Time (UTC)
//	Enum     -> int64 ordinal
//
// A null literal always coerces to nil.
type Coercer struct {
	// Location is used for date/time text without a zone offset.
	// Defaults to UTC.
	Location *time.Location
}

var defaultCoercer = &Coercer{}

// Coerce converts raw for a field of type t using UTC for zone-less dates.
func Coerce(raw any, t FieldType) (any, error) {
	return defaultCoercer.Coerce(raw, t)
}

// CoerceSet converts a multi-value literal using UTC for zone-less dates.
func CoerceSet(raw any, t FieldType) ([]any, error) {
	return defaultCoercer.CoerceSet(raw, t)
}

// Coerce converts raw for a field of type t.
func (c *Coercer) Coerce(raw any, t FieldType) (any, error) {
	v := scalar(raw)
	if v == nil {
		return nil, nil
	}

	cat := Classify(t)
	var (
		out any
		err error
	)
	switch cat {
	case CategoryString:
		out, err = toText(v)
	case CategoryNumber:
		out, err = toFloat(v)
	case CategoryBoolean:
		out, err = toBool(v)
	case CategoryDateTime:
		out, err = toTime(v, c.location())
	case CategoryEnum:
		out, err = toOrdinal(v, t.Enum)
	default:
		err = errors.New("no coercion for unsupported type")
	}
	if err != nil {
		return nil, &CoercionError{Raw: raw, Category: cat, Err: err}
	}
	return out, nil
}

// CoerceSet converts a multi-value literal for a set-membership operator.
// The literal is split into distinct tokens (see Tokens). Enum tokens are
// resolved to int64 ordinals; for every other category tokens stay text.
// A nil result means no value was supplied.
func (c *Coercer) CoerceSet(raw any, t FieldType) ([]any, error) {
	tokens, err := Tokens(raw)
	if err != nil {
		return nil, &CoercionError{Raw: raw, Category: Classify(t), Err: err}
	}
	if tokens == nil {
		return nil, nil
	}
	cat := Classify(t)
	out := make([]any, 0, len(tokens))
	for _, tok := range tokens {
		if cat != CategoryEnum {
			out = append(out, tok)
			continue
		}
		ord, err := toOrdinal(tok, t.Enum)
		if err != nil {
			return nil, &CoercionError{Raw: tok, Category: cat, Err: err}
		}
		if !slices.Contains(out, any(ord)) {
			out = append(out, ord)
		}
	}
	return out, nil
}

func (c *Coercer) location() *time.Location {
	if c == nil || c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// Tokens splits a multi-value literal into an ordered list of distinct,
// trimmed, non-empty tokens. Text is split on commas; sequences keep their
// items. Null yields nil; a literal without tokens yields an empty slice.
func Tokens(raw any) ([]string, error) {
	var parts []string
	switch v := scalar(raw).(type) {
	case nil:
		return nil, nil
	case string:
		parts = strings.Split(v, ",")
	case numberToken:
		parts = strings.Split(string(v), ",")
	case []string:
		parts = v
	default:
		t, err := toText(v)
		if err != nil {
			return nil, err
		}
		parts = []string{t}
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || slices.Contains(out, p) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func toText(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case numberToken:
		return string(s), nil
	case bool:
		return strconv.FormatBool(s), nil
	case int64:
		return strconv.FormatInt(s, 10), nil
	case uint64:
		return strconv.FormatUint(s, 10), nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	case *big.Int:
		return s.String(), nil
	case time.Time:
		return s.UTC().Format(time.RFC3339Nano), nil
	case []string:
		return strings.Join(s, ", "), nil
	case fmt.Stringer:
		return s.String(), nil
	}
	return "", fmt.Errorf("cannot convert %T to text", v)
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case *big.Int:
		f, _ := new(big.Float).SetInt(n).Float64()
		return f, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	case numberToken:
		return strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
	}
	return 0, fmt.Errorf("cannot convert %T to number", v)
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case int64:
		return b != 0, nil
	case uint64:
		return b != 0, nil
	case float64:
		return b != 0, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(b))
	case numberToken:
		return strconv.ParseBool(strings.TrimSpace(string(b)))
	}
	return false, fmt.Errorf("cannot convert %T to boolean", v)
}

// dateLayouts are tried in order for date/time text. Layouts without a zone
// are read in the coercer's location.
var dateLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{"2006-01-02 15:04:05.999999999Z07:00", true},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006-01-02 15:04:05.999999999", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02 15:04", false},
	{"2006-01-02", false},
	{time.RFC1123Z, true},
	{time.RFC1123, true},
}

func toTime(v any, loc *time.Location) (time.Time, error) {
	var s string
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		s = strings.TrimSpace(t)
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to date/time", v)
	}
	for _, l := range dateLayouts {
		var (
			t   time.Time
			err error
		)
		if l.zoned {
			t, err = time.Parse(l.layout, s)
		} else {
			t, err = time.ParseInLocation(l.layout, s, loc)
		}
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date/time %q", s)
}

func toOrdinal(v any, info *EnumInfo) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("enum ordinal %d out of range", n)
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("enum ordinal %v is not an integer", n)
		}
		return int64(n), nil
	case string:
		if ord, ok := info.Resolve(n); ok {
			return ord, nil
		}
		return 0, fmt.Errorf("%w %q", ErrUnknownEnumMember, n)
	case numberToken:
		if ord, ok := info.Resolve(string(n)); ok {
			return ord, nil
		}
		return 0, fmt.Errorf("%w %q", ErrUnknownEnumMember, string(n))
	}
	return 0, fmt.Errorf("cannot convert %T to enum", v)
}
