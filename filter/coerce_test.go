package filter

import (
	"errors"
	"math/big"
	"slices"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestCoerce(t *testing.T) {
	color := Enum("Red", "Green", "Blue")
	tests := []struct {
		name string
		raw  any
		typ  FieldType
		want any
	}{
		{"text", "abc", String(), "abc"},
		{"number to text", 42, String(), "42"},
		{"wire text", TextValue("x"), String(), "x"},
		{"int", 42, Int(), 42.0},
		{"numeric text", " 4.5 ", Double(), 4.5},
		{"wire number", NumberValue("1e3"), Double(), 1000.0},
		{"json number", json.Number("7"), Int(), 7.0},
		{"big int", big.NewInt(12), ParseFieldType("hugeint"), 12.0},
		{"float32", float32(0.5), Double(), 0.5},
		{"bool text", "TRUE", Bool(), true},
		{"bool one", 1, Bool(), true},
		{"wire bool", BoolValue(false), Bool(), false},
		{"enum name", "Green", color, int64(1)},
		{"enum name case", "green", color, int64(1)},
		{"enum ordinal", 2, color, int64(2)},
		{"enum ordinal text", "2", color, int64(2)},
		{"nullable enum", "Blue", color.AsNullable(), int64(2)},
		{"date", "2024-03-01", Timestamp(), day(2024, 3, 1)},
		{"rfc3339 offset", "2024-03-01T02:00:00+02:00", Timestamp(), day(2024, 3, 1)},
		{"time value", day(2024, 3, 1).In(time.FixedZone("X", 3600)), ParseFieldType("date"), day(2024, 3, 1)},
		{"null", nil, Int(), nil},
		{"wire null", NullValue(), String(), nil},
		{"nil pointer", (*string)(nil), String(), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.raw, tt.typ)
			if err != nil {
				t.Fatalf("Coerce failed: %v", err)
			}
			if gt, ok := got.(time.Time); ok {
				if !gt.Equal(tt.want.(time.Time)) || gt.Location() != time.UTC {
					t.Errorf("got %v, want %v in UTC", gt, tt.want)
				}
				return
			}
			if got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestCoerceLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	c := &Coercer{Location: loc}
	got, err := c.Coerce("2024-03-01 03:00", Timestamp())
	if err != nil {
		t.Fatalf("Coerce failed: %v", err)
	}
	if !got.(time.Time).Equal(day(2024, 3, 1)) {
		t.Errorf("zone-less text should be read in the configured location, got %v", got)
	}
}

func TestCoerceErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		typ  FieldType
	}{
		{"number", "forty", Int()},
		{"bool", "maybe", Bool()},
		{"date", "yesterday", Timestamp()},
		{"enum", "Purple", Enum("Red")},
		{"enum fraction", 1.5, Enum("Red")},
		{"unsupported", "x", FieldType{ID: TypeIDBlob}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Coerce(tt.raw, tt.typ)
			var ce *CoercionError
			if !errors.As(err, &ce) {
				t.Fatalf("expected CoercionError, got %v", err)
			}
			if ce.Raw != tt.raw || ce.Category != Classify(tt.typ) {
				t.Errorf("unexpected error details: %+v", ce)
			}
		})
	}

	_, err := Coerce("Purple", Enum("Red"))
	if !errors.Is(err, ErrUnknownEnumMember) {
		t.Errorf("expected ErrUnknownEnumMember, got %v", err)
	}
}

func TestCoerceSet(t *testing.T) {
	color := Enum("Red", "Green", "Blue")

	got, err := CoerceSet("Red, Blue ,Red,,", color)
	if err != nil {
		t.Fatalf("CoerceSet failed: %v", err)
	}
	if !slices.Equal(got, []any{int64(0), int64(2)}) {
		t.Errorf("got %v", got)
	}

	got, err = CoerceSet(" 1, 2 ,3", Int())
	if err != nil {
		t.Fatalf("CoerceSet failed: %v", err)
	}
	if !slices.Equal(got, []any{"1", "2", "3"}) {
		t.Errorf("non-enum tokens should stay text, got %v", got)
	}

	got, err = CoerceSet(nil, String())
	if err != nil || got != nil {
		t.Errorf("nil literal: got %v %v", got, err)
	}

	if _, err := CoerceSet("Red, Purple", color); !errors.Is(err, ErrUnknownEnumMember) {
		t.Errorf("expected ErrUnknownEnumMember, got %v", err)
	}
}

func TestTokens(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want []string
	}{
		{"text", "a, b ,c", []string{"a", "b", "c"}},
		{"duplicates", "a,a, a", []string{"a"}},
		{"blank", " , ", []string{}},
		{"slice", []string{" x", "y", "x"}, []string{"x", "y"}},
		{"any slice", []any{"p", 1, nil}, []string{"p", "1"}},
		{"sequence", SequenceValue("q", "r"), []string{"q", "r"}},
		{"scalar", 5, []string{"5"}},
		{"null", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokens(tt.raw)
			if err != nil {
				t.Fatalf("Tokens failed: %v", err)
			}
			if !slices.Equal(got, tt.want) || (got == nil) != (tt.want == nil) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}
