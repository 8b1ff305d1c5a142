package record

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// ProjectSchema returns a projected schema containing only the specified columns.
// If columns is nil or empty, returns the full schema unchanged.
// Column order in the returned schema matches the order in columns slice.
// Original schema metadata is preserved in the projected schema.
func ProjectSchema(schema *arrow.Schema, columns []string) *arrow.Schema {
	if len(columns) == 0 {
		return schema
	}

	idx := projectIndices(schema, columns)
	if len(idx) == 0 {
		return schema
	}

	fields := make([]arrow.Field, 0, len(idx))
	for _, i := range idx {
		fields = append(fields, schema.Field(i))
	}

	meta := schema.Metadata()
	return arrow.NewSchema(fields, &meta)
}

// ProjectRecord returns a record holding only the specified columns, under
// the same rules as ProjectSchema. The caller must release the result.
func ProjectRecord(rec arrow.RecordBatch, columns []string) arrow.RecordBatch {
	idx := projectIndices(rec.Schema(), columns)
	if len(columns) == 0 || len(idx) == 0 {
		rec.Retain()
		return rec
	}

	cols := make([]arrow.Array, 0, len(idx))
	for _, i := range idx {
		cols = append(cols, rec.Column(i))
	}
	return array.NewRecordBatch(ProjectSchema(rec.Schema(), columns), cols, rec.NumRows())
}

func projectIndices(schema *arrow.Schema, columns []string) []int {
	colIndex := make(map[string]int, schema.NumFields())
	for i := 0; i < schema.NumFields(); i++ {
		if _, ok := colIndex[schema.Field(i).Name]; !ok {
			colIndex[schema.Field(i).Name] = i
		}
	}

	out := make([]int, 0, len(columns))
	for _, col := range columns {
		if i, ok := colIndex[col]; ok {
			out = append(out, i)
		}
	}
	return out
}
