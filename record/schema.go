package record

import (
	"errors"
	"fmt"

	"github.com/hugr-lab/gridfilter/filter"
)

// ErrDuplicateField is returned when a field name is registered twice.
var ErrDuplicateField = errors.New("duplicate field")

// Field is a named, typed column.
type Field struct {
	Name string           `json:"name" yaml:"name" mapstructure:"name"`
	Type filter.FieldType `json:"type" yaml:"type" mapstructure:"type"`
}

// Schema is an ordered set of fields. It implements filter.FieldTyper.
// Not thread-safe for writes; build it once, then share it.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema creates a schema from fields. Duplicate names return an error.
func NewSchema(fields ...Field) (*Schema, error) {
	s := &Schema{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		if err := s.Add(f.Name, f.Type); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error.
func MustSchema(fields ...Field) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Add appends a field.
func (s *Schema) Add(name string, ft filter.FieldType) error {
	if name == "" {
		return fmt.Errorf("record: field name cannot be empty")
	}
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if _, ok := s.index[name]; ok {
		return fmt.Errorf("record: %w: %s", ErrDuplicateField, name)
	}
	s.index[name] = len(s.fields)
	s.fields = append(s.fields, Field{Name: name, Type: ft})
	return nil
}

// TypeOf returns the type of the named field.
func (s *Schema) TypeOf(name string) (filter.FieldType, bool) {
	if s == nil {
		return filter.FieldType{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return filter.FieldType{}, false
	}
	return s.fields[i].Type, true
}

// Fields returns the fields in declaration order.
func (s *Schema) Fields() []Field {
	if s == nil {
		return nil
	}
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// Filterable lists the fields whose category has an operator set, in
// declaration order. A field picker offers exactly these.
func (s *Schema) Filterable() []Field {
	var out []Field
	for _, f := range s.Fields() {
		if filter.Classify(f.Type) != filter.CategoryUnsupported {
			out = append(out, f)
		}
	}
	return out
}

// MapAccessor reads fields of map records described by a schema.
type MapAccessor struct {
	*Schema
}

// NewMapAccessor returns an accessor for map records.
func NewMapAccessor(s *Schema) MapAccessor {
	return MapAccessor{Schema: s}
}

// ValueOf returns rec[field]. A missing key reads as null.
func (a MapAccessor) ValueOf(rec map[string]any, field string) any {
	return rec[field]
}
