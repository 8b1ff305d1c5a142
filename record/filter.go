package record

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/gridfilter/filter"
)

// Select returns the indices of rows of rec accepted by pred, in order.
// A nil predicate accepts every row.
func Select(rec arrow.RecordBatch, pred filter.Predicate[Row]) []int {
	n := int(rec.NumRows())
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if pred == nil || pred(Row{Record: rec, Index: i}) {
			out = append(out, i)
		}
	}
	return out
}

// FilterRecord returns a new record with the rows of rec accepted by pred.
// The caller must release the result.
func FilterRecord(rec arrow.RecordBatch, pred filter.Predicate[Row], mem memory.Allocator) (arrow.RecordBatch, error) {
	return TakeRows(rec, Select(rec, pred), mem)
}

// TakeRows returns a new record holding the given rows of rec in the given
// order. Consecutive indices are copied as one slice. The caller must
// release the result.
func TakeRows(rec arrow.RecordBatch, rows []int, mem memory.Allocator) (arrow.RecordBatch, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	if len(rows) == int(rec.NumRows()) && isIdentity(rows) {
		rec.Retain()
		return rec, nil
	}
	if len(rows) == 0 {
		return rec.NewSlice(0, 0), nil
	}

	var runs []arrow.RecordBatch
	defer func() {
		for _, s := range runs {
			s.Release()
		}
	}()
	for start := 0; start < len(rows); {
		end := start + 1
		for end < len(rows) && rows[end] == rows[end-1]+1 {
			end++
		}
		runs = append(runs, rec.NewSlice(int64(rows[start]), int64(rows[end-1]+1)))
		start = end
	}
	if len(runs) == 1 {
		out := runs[0]
		runs = nil
		return out, nil
	}

	cols := make([]arrow.Array, rec.NumCols())
	defer func() {
		for _, c := range cols {
			if c != nil {
				c.Release()
			}
		}
	}()
	parts := make([]arrow.Array, len(runs))
	for c := range cols {
		for j, s := range runs {
			parts[j] = s.Column(c)
		}
		col, err := array.Concatenate(parts, mem)
		if err != nil {
			return nil, fmt.Errorf("record: concatenate column %s: %w", rec.ColumnName(c), err)
		}
		cols[c] = col
	}
	return array.NewRecordBatch(rec.Schema(), cols, int64(len(rows))), nil
}

func isIdentity(rows []int) bool {
	for i, r := range rows {
		if r != i {
			return false
		}
	}
	return true
}
