package filter

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// ValueKind identifies the variant held by a wire Value.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindText
	KindNumber
	KindBool
	KindSequence
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindSequence:
		return "sequence"
	}
	return "unknown"
}

// Value is a loosely-typed literal as produced by the wire decoders.
// Numbers keep their literal token; the coercer parses them per field type.
// The zero Value is null.
type Value struct {
	kind  ValueKind
	text  string
	b     bool
	items []string
}

// NullValue returns the null literal.
func NullValue() Value { return Value{} }

// TextValue returns a text literal.
func TextValue(s string) Value { return Value{kind: KindText, text: s} }

// NumberValue returns a numeric literal from its textual token.
func NumberValue(token string) Value { return Value{kind: KindNumber, text: token} }

// BoolValue returns a boolean literal.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b, text: strconv.FormatBool(b)} }

// SequenceValue returns a multi-value literal. The items are copied.
func SequenceValue(items ...string) Value {
	return Value{kind: KindSequence, items: append([]string(nil), items...)}
}

// Kind returns the variant of v.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether v is the null literal.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsZero reports whether v is null. Encoders use it for omitempty.
func (v Value) IsZero() bool { return v.kind == KindNull }

// Bool returns the boolean payload.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Items returns a copy of the sequence payload.
func (v Value) Items() []string {
	if v.kind != KindSequence {
		return nil
	}
	return append([]string(nil), v.items...)
}

// String returns the textual form of v. Sequences are joined with ", ".
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindSequence:
		return strings.Join(v.items, ", ")
	}
	return v.text
}

// Equal reports whether two values hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindSequence:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if v.items[i] != o.items[i] {
				return false
			}
		}
		return true
	}
	return v.text == o.text
}

// ErrUnsupportedValue is returned for literals that have no wire form
// (objects, nested sequences, unknown Go types).
var ErrUnsupportedValue = errors.New("unsupported literal value")

// FromAny converts a native Go value into its wire form.
func FromAny(x any) (Value, error) {
	switch s := scalar(x).(type) {
	case nil:
		return Value{}, nil
	case Value:
		return s, nil
	case string:
		return TextValue(s), nil
	case numberToken:
		return NumberValue(string(s)), nil
	case bool:
		return BoolValue(s), nil
	case int64:
		return NumberValue(strconv.FormatInt(s, 10)), nil
	case uint64:
		return NumberValue(strconv.FormatUint(s, 10)), nil
	case float64:
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return Value{}, fmt.Errorf("%w: non-finite number %v", ErrUnsupportedValue, s)
		}
		return NumberValue(strconv.FormatFloat(s, 'f', -1, 64)), nil
	case *big.Int:
		return NumberValue(s.String()), nil
	case time.Time:
		return TextValue(s.UTC().Format(time.RFC3339Nano)), nil
	case []string:
		return SequenceValue(s...), nil
	}
	return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, x)
}

// numberToken is the literal text of a wire number.
type numberToken string

// scalar normalizes a literal or field value: pointers are dereferenced,
// wire Values are unwrapped, named basic kinds are converted to their base
// types and slices become []string. Results are nil, string, numberToken,
// bool, int64, uint64, float64, *big.Int, time.Time, []string, or x itself
// when no normalization applies.
func scalar(x any) any {
	switch v := x.(type) {
	case nil:
		return nil
	case Value:
		return v.unwrap()
	case *Value:
		if v == nil {
			return nil
		}
		return v.unwrap()
	case string:
		return v
	case numberToken:
		return v
	case bool:
		return v
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return v
	case time.Time:
		return v
	case *time.Time:
		if v == nil {
			return nil
		}
		return *v
	case *big.Int:
		if v == nil {
			return nil
		}
		return v
	case json.Number:
		return numberToken(v)
	case []string:
		return v
	}

	rv := reflect.ValueOf(x)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}

	iface := rv.Interface()
	switch v := iface.(type) {
	case time.Time:
		return v
	case big.Int:
		return &v
	case fmt.Stringer:
		return v.String()
	}

	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		items := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			switch e := scalar(rv.Index(i).Interface()).(type) {
			case nil:
				continue
			case string:
				items = append(items, e)
			case numberToken:
				items = append(items, string(e))
			default:
				t, err := toText(e)
				if err != nil {
					return x
				}
				items = append(items, t)
			}
		}
		return items
	}
	return x
}

func (v Value) unwrap() any {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return numberToken(v.text)
	case KindBool:
		return v.b
	case KindSequence:
		return append([]string(nil), v.items...)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return []byte(strconv.FormatBool(v.b)), nil
	case KindNumber:
		if _, err := strconv.ParseFloat(v.text, 64); err == nil {
			return []byte(v.text), nil
		}
		return json.Marshal(v.text)
	case KindSequence:
		items := v.items
		if items == nil {
			items = []string{}
		}
		return json.Marshal(items)
	}
	return json.Marshal(v.text)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*v = Value{}
		return nil
	}
	switch data[0] {
	case 'n':
		*v = Value{}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = TextValue(s)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = BoolValue(b)
		return nil
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		items := make([]string, 0, len(raw))
		for i, elem := range raw {
			var item Value
			if err := item.UnmarshalJSON(elem); err != nil {
				return fmt.Errorf("sequence item %d: %w", i, err)
			}
			switch item.kind {
			case KindNull:
				continue
			case KindSequence:
				return fmt.Errorf("sequence item %d: %w: nested sequence", i, ErrUnsupportedValue)
			}
			items = append(items, item.text)
		}
		*v = Value{kind: KindSequence, items: items}
		return nil
	case '{':
		return fmt.Errorf("%w: object", ErrUnsupportedValue)
	}
	token := string(data)
	if _, err := strconv.ParseFloat(token, 64); err != nil {
		return fmt.Errorf("invalid number %q: %w", token, err)
	}
	*v = NumberValue(token)
	return nil
}

var (
	_ msgpack.CustomEncoder = Value{}
	_ msgpack.CustomDecoder = (*Value)(nil)
)

// EncodeMsgpack implements msgpack.CustomEncoder.
func (v Value) EncodeMsgpack(enc *msgpack.Encoder) error {
	switch v.kind {
	case KindNull:
		return enc.EncodeNil()
	case KindBool:
		return enc.EncodeBool(v.b)
	case KindNumber:
		if i, err := strconv.ParseInt(v.text, 10, 64); err == nil {
			return enc.EncodeInt(i)
		}
		if f, err := strconv.ParseFloat(v.text, 64); err == nil {
			return enc.EncodeFloat64(f)
		}
		return enc.EncodeString(v.text)
	case KindSequence:
		if err := enc.EncodeArrayLen(len(v.items)); err != nil {
			return err
		}
		for _, item := range v.items {
			if err := enc.EncodeString(item); err != nil {
				return err
			}
		}
		return nil
	}
	return enc.EncodeString(v.text)
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (v *Value) DecodeMsgpack(dec *msgpack.Decoder) error {
	raw, err := dec.DecodeInterface()
	if err != nil {
		return err
	}
	if _, ok := raw.(map[string]interface{}); ok {
		return fmt.Errorf("%w: map", ErrUnsupportedValue)
	}
	out, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (v Value) MarshalYAML() (interface{}, error) {
	switch v.kind {
	case KindNull:
		return nil, nil
	case KindBool:
		return v.b, nil
	case KindNumber:
		tag := "!!float"
		if _, err := strconv.ParseInt(v.text, 10, 64); err == nil {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.text}, nil
	case KindSequence:
		items := v.items
		if items == nil {
			items = []string{}
		}
		return items, nil
	}
	return v.text, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	switch node.Kind {
	case yaml.ScalarNode:
		switch node.ShortTag() {
		case "!!null":
			*v = Value{}
		case "!!bool":
			var b bool
			if err := node.Decode(&b); err != nil {
				return err
			}
			*v = BoolValue(b)
		case "!!int", "!!float":
			*v = NumberValue(node.Value)
		default:
			*v = TextValue(node.Value)
		}
		return nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(node.Content))
		for i, child := range node.Content {
			if child.Kind != yaml.ScalarNode {
				return fmt.Errorf("sequence item %d: %w", i, ErrUnsupportedValue)
			}
			if child.ShortTag() == "!!null" {
				continue
			}
			items = append(items, child.Value)
		}
		*v = Value{kind: KindSequence, items: items}
		return nil
	}
	return fmt.Errorf("%w: yaml node kind %d", ErrUnsupportedValue, node.Kind)
}
