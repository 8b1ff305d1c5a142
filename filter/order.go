package filter

import (
	"cmp"
	"strings"
)

// Compare orders two field values of type t. Values are read the way the
// compiler reads them for t's category; nulls and unreadable values sort
// before everything else. Unsupported categories order by text.
func (c *Coercer) Compare(a, b any, t FieldType) int {
	switch Classify(t) {
	case CategoryNumber:
		return compareRead(a, b, fieldFloat, cmp.Compare[float64])
	case CategoryBoolean:
		return compareRead(a, b, fieldBool, func(x, y bool) int {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			}
			return 1
		})
	case CategoryEnum:
		read := func(v any) (int64, bool) { return fieldOrdinal(v, t.Enum) }
		return compareRead(a, b, read, cmp.Compare[int64])
	case CategoryDateTime:
		loc := c.location()
		read := func(v any) (int64, bool) {
			s := scalar(v)
			if s == nil {
				return 0, false
			}
			tm, err := toTime(s, loc)
			if err != nil {
				return 0, false
			}
			return tm.UnixNano(), true
		}
		return compareRead(a, b, read, cmp.Compare[int64])
	}
	return compareRead(a, b, fieldText, strings.Compare)
}

// Compare orders two field values using UTC for zone-less dates.
func Compare(a, b any, t FieldType) int {
	return defaultCoercer.Compare(a, b, t)
}

func compareRead[T any](a, b any, read func(any) (T, bool), compare func(T, T) int) int {
	x, okA := read(a)
	y, okB := read(b)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return -1
	case !okB:
		return 1
	}
	return compare(x, y)
}

func fieldBool(v any) (bool, bool) {
	s := scalar(v)
	if s == nil {
		return false, false
	}
	b, err := toBool(s)
	return b, err == nil
}

// Comparator returns an ordering of records by one field. Descending
// reverses the order of non-null values and nulls alike.
func (c *Compiler[R]) Comparator(field string, descending bool) (func(a, b R) int, error) {
	ft, ok := c.acc.TypeOf(field)
	if !ok {
		return nil, &UnsupportedTypeError{Field: field, Unknown: true}
	}
	return func(a, b R) int {
		r := c.coercer.Compare(c.acc.ValueOf(a, field), c.acc.ValueOf(b, field), ft)
		if descending {
			return -r
		}
		return r
	}, nil
}
