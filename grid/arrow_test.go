package grid

import (
	"slices"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/gridfilter/filter"
)

func staffRecord(t *testing.T, mem memory.Allocator) arrow.RecordBatch {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "name", Type: arrow.BinaryTypes.String},
		{Name: "age", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
	}, nil)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	for _, e := range staff {
		b.Field(0).(*array.Int64Builder).Append(int64(e.ID))
		b.Field(1).(*array.StringBuilder).Append(e.Name)
		if e.Age == nil {
			b.Field(2).AppendNull()
		} else {
			b.Field(2).(*array.Int32Builder).Append(int32(*e.Age))
		}
	}
	return b.NewRecordBatch()
}

func TestArrowPagerApply(t *testing.T) {
	mem := memory.NewGoAllocator()
	rec := staffRecord(t, mem)
	defer rec.Release()

	p := NewArrowPager(rec.Schema(), &filter.CompilerOptions{Logger: quiet}, &Options{Logger: quiet}, mem)
	state := stateWith(t, filter.NewLeaf("age", filter.OpIsNotEmpty, nil), 0, 3,
		SortDefinition{SortBy: "age", Descending: true},
		SortDefinition{SortBy: "name", Index: 1},
	)
	state.Columns = []Column{
		{Index: 0, Field: "name"},
		{Index: 1, Field: "id", Hidden: true},
		{Index: 2, Field: "age"},
	}

	page, _, err := p.Apply(state, rec)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	defer page.Record.Release()

	if page.TotalItems != 4 {
		t.Errorf("TotalItems = %d, want 4", page.TotalItems)
	}
	if page.Record.NumCols() != 2 || page.Record.ColumnName(0) != "name" || page.Record.ColumnName(1) != "age" {
		t.Fatalf("unexpected columns %v", page.Record.Schema())
	}
	names := page.Record.Column(0).(*array.String)
	var got []string
	for i := 0; i < names.Len(); i++ {
		got = append(got, names.Value(i))
	}
	if !slices.Equal(got, []string{"Ann", "Dee", "Bob"}) {
		t.Errorf("got names %v", got)
	}

	data, err := EncodePage(page.Record, mem)
	if err != nil {
		t.Fatalf("EncodePage failed: %v", err)
	}
	back, err := DecodePage(data, mem)
	if err != nil {
		t.Fatalf("DecodePage failed: %v", err)
	}
	defer back.Release()
	if !array.RecordEqual(page.Record, back) {
		t.Error("page changed after encode/decode")
	}
}

func TestArrowPagerEmptyPage(t *testing.T) {
	mem := memory.NewGoAllocator()
	rec := staffRecord(t, mem)
	defer rec.Release()

	p := NewArrowPager(rec.Schema(), nil, &Options{Logger: quiet}, mem)
	page, _, err := p.Apply(stateWith(t, filter.NewLeaf("name", filter.OpEquals, "Zed"), 0, 10), rec)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	defer page.Record.Release()
	if page.TotalItems != 0 || page.Record.NumRows() != 0 || page.Record.NumCols() != 3 {
		t.Errorf("unexpected page: %d items, %d rows, %d cols", page.TotalItems, page.Record.NumRows(), page.Record.NumCols())
	}
}
