package record

import (
	"fmt"

	"github.com/hugr-lab/gridfilter/filter"
)

// Getter reads one field of a record.
type Getter[R any] func(R) any

// Table exposes fields of an arbitrary record type through registered
// getters. Not thread-safe during registration; safe for concurrent reads
// afterwards.
type Table[R any] struct {
	schema  *Schema
	getters []Getter[R]
	err     error
}

// NewTable creates an empty table accessor.
func NewTable[R any]() *Table[R] {
	return &Table[R]{schema: &Schema{}}
}

// Field registers a field and returns the table for chaining.
// Registration errors are kept and reported by Err.
func (t *Table[R]) Field(name string, ft filter.FieldType, get Getter[R]) *Table[R] {
	if err := t.Register(name, ft, get); err != nil && t.err == nil {
		t.err = err
	}
	return t
}

// Register adds a field. The name must be non-empty and unique and the
// getter must not be nil.
func (t *Table[R]) Register(name string, ft filter.FieldType, get Getter[R]) error {
	if get == nil {
		return fmt.Errorf("record: field %s has nil getter", name)
	}
	if err := t.schema.Add(name, ft); err != nil {
		return err
	}
	t.getters = append(t.getters, get)
	return nil
}

// Err returns the first error raised by Field.
func (t *Table[R]) Err() error { return t.err }

// Schema returns the registered fields.
func (t *Table[R]) Schema() *Schema { return t.schema }

// TypeOf returns the type of the named field.
func (t *Table[R]) TypeOf(name string) (filter.FieldType, bool) {
	return t.schema.TypeOf(name)
}

// ValueOf reads the named field of rec. Unknown fields read as null.
func (t *Table[R]) ValueOf(rec R, name string) any {
	i, ok := t.schema.index[name]
	if !ok {
		return nil
	}
	return t.getters[i](rec)
}
